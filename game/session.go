// Package game keeps the state of a single player's game against one secret.
package game

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/tiggercwh/go-semantle/gameModel"
	"github.com/tiggercwh/go-semantle/hints"
	"github.com/tiggercwh/go-semantle/scoring"
)

var ErrUnknownWord = errors.New("unknown word")

// Scorer is satisfied by *scoring.Engine.
type Scorer interface {
	Score(secret, guess string) (scoring.Result, error)
	Story(secret string) (hints.Summary, error)
}

// Guess is a scored guess and its position in the game.
type Guess struct {
	scoring.Result
	Number  int
	Unusual bool
}

func (g Guess) Entry() gameModel.GuessEntry {
	entry := gameModel.GuessEntry{
		Word:       g.Word,
		Similarity: g.Similarity,
		Number:     g.Number,
		Found:      g.Found,
		Unusual:    g.Unusual,
	}
	if g.Ranked() {
		p := g.Percentile
		entry.Percentile = &p
	}
	return entry
}

// StoryOf scales a similarity summary the way guesses are scaled.
func StoryOf(summary hints.Summary) gameModel.Story {
	return gameModel.Story{
		Top:   summary.Top * scoring.MaxSimilarity,
		Top10: summary.Top10 * scoring.MaxSimilarity,
		Rest:  summary.Rest * scoring.MaxSimilarity,
	}
}

type Session struct {
	mu           sync.Mutex
	id           string
	secret       string
	scorer       Scorer
	story        hints.Summary
	guesses      []Guess
	seen         map[string]int
	won          bool
	gaveUp       bool
	createdAt    time.Time
	lastActivity time.Time
}

// New starts a game. It fails when the secret has no similarity story.
func New(id, secret string, scorer Scorer) (*Session, error) {
	story, err := scorer.Story(secret)
	if err != nil {
		return nil, fmt.Errorf("start game: %w", err)
	}
	now := time.Now()
	return &Session{
		id:           id,
		secret:       secret,
		scorer:       scorer,
		story:        story,
		seen:         make(map[string]int),
		createdAt:    now,
		lastActivity: now,
	}, nil
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) Secret() string {
	return s.secret
}

// Guess scores word. A word already guessed returns its first entry with
// repeated set. Guessing stays open after the game is over.
func (s *Session) Guess(word string) (g Guess, repeated bool, err error) {
	word = scoring.Normalize(word)

	s.mu.Lock()
	defer s.mu.Unlock()

	if i, ok := s.seen[word]; ok {
		return s.guesses[i], true, nil
	}

	result, err := s.scorer.Score(s.secret, word)
	if err != nil {
		return Guess{}, false, err
	}
	if !result.Known {
		return Guess{}, false, fmt.Errorf("%w: %q", ErrUnknownWord, word)
	}

	g = Guess{
		Result:  result,
		Number:  len(s.guesses) + 1,
		Unusual: scoring.Unusual(result, s.story),
	}
	s.seen[word] = len(s.guesses)
	s.guesses = append(s.guesses, g)
	if result.Found && !s.gaveUp {
		s.won = true
	}
	s.lastActivity = time.Now()
	return g, false, nil
}

// GiveUp ends the game without a win.
func (s *Session) GiveUp() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.won {
		s.gaveUp = true
	}
	s.lastActivity = time.Now()
}

func (s *Session) Over() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.won || s.gaveUp
}

func (s *Session) State() gameModel.GameState {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := gameModel.GameState{
		ID:           s.id,
		Guesses:      make([]gameModel.GuessEntry, 0, len(s.guesses)),
		GameOver:     s.won || s.gaveUp,
		Won:          s.won,
		GaveUp:       s.gaveUp,
		Story:        StoryOf(s.story),
		CreatedAt:    s.createdAt.Format(time.RFC3339),
		LastActivity: s.lastActivity.Format(time.RFC3339),
	}
	if state.GameOver {
		state.Secret = s.secret
	}
	for _, g := range s.guesses {
		state.Guesses = append(state.Guesses, g.Entry())
	}
	sort.SliceStable(state.Guesses, func(i, j int) bool {
		return state.Guesses[i].Similarity > state.Guesses[j].Similarity
	})
	return state
}
