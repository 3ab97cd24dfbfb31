package hints

import (
	"bufio"
	"container/heap"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io"
	"math"
	"slices"
	"sort"
	"strings"

	"github.com/viterin/vek/vek32"

	"github.com/tiggercwh/go-semantle/embedding"
)

// Neighbor is a word with its raw cosine similarity to a secret.
type Neighbor struct {
	Word       string
	Similarity float32
}

// Builder computes neighbour lists over a fixed candidate vocabulary.
type Builder struct {
	words   []string
	vectors []embedding.Vector
}

// NewBuilder normalises the vectors of every candidate word. Banned words and
// words with a zero vector are left out.
func NewBuilder(lookup func(string) (embedding.Vector, error), vocabulary []string, banned Banned) (*Builder, error) {
	b := &Builder{}
	for _, word := range vocabulary {
		if banned.Contains(word) {
			continue
		}
		vec, err := lookup(word)
		if err != nil {
			return nil, fmt.Errorf("candidate %q: %w", word, err)
		}
		unit, ok := normalize(vec)
		if !ok {
			continue
		}
		b.words = append(b.words, word)
		b.vectors = append(b.vectors, unit)
	}
	return b, nil
}

// Candidates is the number of words neighbours are picked from.
func (b *Builder) Candidates() int {
	return len(b.words)
}

// Nearest returns the Size candidates most similar to target, most similar
// first. The secret itself is never one of its own neighbours.
func (b *Builder) Nearest(secret string, target embedding.Vector) ([]Neighbor, error) {
	unit, ok := normalize(target)
	if !ok {
		return nil, fmt.Errorf("secret %q has a zero vector", secret)
	}

	h := make(neighborHeap, 0, Size+1)
	for i, word := range b.words {
		if word == secret {
			continue
		}
		n := Neighbor{Word: word, Similarity: vek32.Dot(unit, b.vectors[i])}
		if len(h) < Size {
			heap.Push(&h, n)
			continue
		}
		if h.less(h[0], n) {
			h[0] = n
			heap.Fix(&h, 0)
		}
	}
	if len(h) < Size {
		return nil, fmt.Errorf("secret %q: only %d candidates, want %d", secret, len(h), Size)
	}

	nearest := []Neighbor(h)
	sort.Slice(nearest, func(i, j int) bool { return h.less(nearest[j], nearest[i]) })
	return nearest, nil
}

func normalize(vec embedding.Vector) (embedding.Vector, bool) {
	norm := math.Sqrt(float64(vek32.Dot(vec, vec)))
	if norm == 0 {
		return nil, false
	}
	unit := slices.Clone(vec)
	vek32.MulNumber_Inplace(unit, float32(1/norm))
	return unit, true
}

// neighborHeap is a min-heap on similarity; ties break on the word so that
// builds are deterministic.
type neighborHeap []Neighbor

func (h neighborHeap) less(a, b Neighbor) bool {
	if a.Similarity != b.Similarity {
		return a.Similarity < b.Similarity
	}
	return a.Word > b.Word
}

func (h neighborHeap) Len() int           { return len(h) }
func (h neighborHeap) Less(i, j int) bool { return h.less(h[i], h[j]) }
func (h neighborHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *neighborHeap) Push(x any)        { *h = append(*h, x.(Neighbor)) }
func (h *neighborHeap) Pop() any {
	old := *h
	n := old[len(old)-1]
	*h = old[:len(old)-1]
	return n
}

// Banned is a set of sha1 digests of "banned"+word, so the list can be
// shipped without spelling the words out.
type Banned map[string]struct{}

// ReadBanned reads one hex digest per line.
func ReadBanned(r io.Reader) (Banned, error) {
	banned := make(Banned)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			banned[strings.ToLower(line)] = struct{}{}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read banned list: %w", err)
	}
	return banned, nil
}

// BannedDigest returns the digest recorded for word in a banned list.
func BannedDigest(word string) string {
	sum := sha1.Sum([]byte("banned" + word))
	return hex.EncodeToString(sum[:])
}

func (b Banned) Contains(word string) bool {
	if len(b) == 0 {
		return false
	}
	_, ok := b[BannedDigest(word)]
	return ok
}
