// Package hints holds the nearest-neighbour lists and similarity summaries
// precomputed for every secret word.
package hints

import (
	"errors"
	"fmt"
	"sync"
)

// Size is the number of neighbours tracked for each secret.
const Size = 1000

var (
	// ErrNotFound is returned for a secret without precomputed data.
	ErrNotFound = errors.New("secret not found")

	// ErrMalformed is returned for hint or similarity rows that break the table invariants.
	ErrMalformed = errors.New("malformed hint data")
)

// List holds a secret's neighbours in rank order: List[0] is rank 1, the
// most similar word.
type List []string

// Summary holds raw, unscaled cosine similarities of three reference ranks.
type Summary struct {
	Top   float64 // rank 1
	Top10 float64 // rank 10
	Rest  float64 // rank 1000
}

// NewSummary builds a summary from Size similarities in rank order.
func NewSummary(similarities []float64) (Summary, error) {
	if len(similarities) != Size {
		return Summary{}, fmt.Errorf("%w: %d similarities, want %d", ErrMalformed, len(similarities), Size)
	}
	return Summary{
		Top:   similarities[0],
		Top10: similarities[9],
		Rest:  similarities[Size-1],
	}, nil
}

// Table is the read-only hint and summary table. Like embedding.Store it is
// filled while loading and frozen afterwards.
type Table struct {
	mu        sync.RWMutex
	lists     map[string]List
	ranks     map[string]map[string]int
	summaries map[string]Summary
	frozen    bool
}

func NewTable() *Table {
	return &Table{
		lists:     make(map[string]List),
		ranks:     make(map[string]map[string]int),
		summaries: make(map[string]Summary),
	}
}

// AddHints stores the neighbour list of a secret. The list must hold exactly
// Size distinct words.
func (t *Table) AddHints(secret string, list List) error {
	if len(list) != Size {
		return fmt.Errorf("%w: secret %q has %d hints, want %d", ErrMalformed, secret, len(list), Size)
	}
	ranks := make(map[string]int, Size)
	for i, word := range list {
		if _, dup := ranks[word]; dup {
			return fmt.Errorf("%w: secret %q lists %q twice", ErrMalformed, secret, word)
		}
		ranks[word] = i + 1
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.frozen {
		return errors.New("hint table is frozen")
	}
	t.lists[secret] = list
	t.ranks[secret] = ranks
	return nil
}

// AddSummary stores the similarity summary of a secret.
func (t *Table) AddSummary(secret string, summary Summary) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.frozen {
		return errors.New("hint table is frozen")
	}
	t.summaries[secret] = summary
	return nil
}

func (t *Table) Freeze() {
	t.mu.Lock()
	t.frozen = true
	t.mu.Unlock()
}

// HintsFor returns the neighbour list of secret.
func (t *Table) HintsFor(secret string) (List, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	list, ok := t.lists[secret]
	if !ok {
		return nil, ErrNotFound
	}
	return list, nil
}

// SummaryFor returns the similarity summary of secret.
func (t *Table) SummaryFor(secret string) (Summary, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	summary, ok := t.summaries[secret]
	if !ok {
		return Summary{}, ErrNotFound
	}
	return summary, nil
}

// PercentileOf returns the 1-based rank of guess among the neighbours of
// secret. ok is false when guess is not tracked.
func (t *Table) PercentileOf(secret, guess string) (rank int, ok bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	rank, ok = t.ranks[secret][guess]
	return rank, ok
}

// Complete reports whether secret has both a neighbour list and a summary.
func (t *Table) Complete(secret string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	_, hasList := t.lists[secret]
	_, hasSummary := t.summaries[secret]
	return hasList && hasSummary
}
