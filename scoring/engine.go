// Package scoring compares guesses against the secret word.
package scoring

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/viterin/vek/vek32"

	"github.com/tiggercwh/go-semantle/embedding"
	"github.com/tiggercwh/go-semantle/hints"
)

const (
	// MaxSimilarity is the score of the secret itself.
	MaxSimilarity = 100.0

	// FoundPercentile is the percentile reported for the secret itself.
	FoundPercentile = hints.Size
)

type VectorLookup interface {
	Lookup(word string) (embedding.Vector, error)
}

type HintLookup interface {
	PercentileOf(secret, guess string) (int, bool)
	SummaryFor(secret string) (hints.Summary, error)
}

// Result is the outcome of one guess.
//
// Known is false when the guess has no vector; Similarity and Percentile are
// then meaningless. Percentile is 0 for a known word outside the secret's
// neighbour list.
type Result struct {
	Word       string
	Similarity float64
	Percentile int
	Known      bool
	Found      bool
}

func (r Result) Ranked() bool {
	return r.Percentile > 0
}

type Engine struct {
	vectors VectorLookup
	hints   HintLookup
}

func NewEngine(vectors VectorLookup, table HintLookup) *Engine {
	return &Engine{vectors: vectors, hints: table}
}

// Normalize turns raw player input into a lookup key.
func Normalize(word string) string {
	return strings.ToLower(strings.TrimSpace(word))
}

// Score rates guess against secret. secret is expected to be normalised
// already. An unknown guess is a regular outcome; only data access failures
// are returned as errors.
func (e *Engine) Score(secret, guess string) (Result, error) {
	guess = Normalize(guess)
	if guess == secret {
		return Result{
			Word:       guess,
			Similarity: MaxSimilarity,
			Percentile: FoundPercentile,
			Known:      true,
			Found:      true,
		}, nil
	}

	guessVec, err := e.vectors.Lookup(guess)
	if errors.Is(err, embedding.ErrNotFound) {
		return Result{Word: guess}, nil
	}
	if err != nil {
		return Result{}, fmt.Errorf("lookup guess %q: %w", guess, err)
	}

	secretVec, err := e.vectors.Lookup(secret)
	if err != nil {
		return Result{}, fmt.Errorf("lookup secret %q: %w", secret, err)
	}

	result := Result{
		Word:       guess,
		Similarity: Cosine(secretVec, guessVec) * 100,
		Known:      true,
	}
	if rank, ok := e.hints.PercentileOf(secret, guess); ok {
		result.Percentile = rank
	}
	return result, nil
}

// Story returns the reference similarities of secret, unscaled.
func (e *Engine) Story(secret string) (hints.Summary, error) {
	summary, err := e.hints.SummaryFor(secret)
	if err != nil {
		return hints.Summary{}, fmt.Errorf("similarity story for %q: %w", secret, err)
	}
	return summary, nil
}

// Cosine returns the cosine similarity of a and b, or 0 if either is a zero
// vector or their lengths differ.
func Cosine(a, b embedding.Vector) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	normA := math.Sqrt(float64(vek32.Dot(a, a)))
	normB := math.Sqrt(float64(vek32.Dot(b, b)))
	if normA == 0 || normB == 0 {
		return 0
	}
	return float64(vek32.Dot(a, b)) / (normA * normB)
}

// Unusual reports a known word that scores at least as high as the secret's
// 1000th neighbour yet is missing from its neighbour list, typically because
// the hint vocabulary filtered it out.
func Unusual(r Result, story hints.Summary) bool {
	return r.Known && !r.Found && !r.Ranked() && r.Similarity >= story.Rest*100
}
