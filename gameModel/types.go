package gameModel

import "fmt"

type GuessEntry struct {
	Word       string  `json:"word"`
	Similarity float64 `json:"similarity"`
	// Percentile is nil for a word outside the secret's 1000 nearest.
	Percentile *int `json:"percentile,omitempty"`
	Number     int  `json:"number"`
	Found      bool `json:"found"`
	Unusual    bool `json:"unusual"`
}

// Closeness is the label shown next to a guess.
func (g GuessEntry) Closeness() string {
	switch {
	case g.Found:
		return "FOUND!"
	case g.Percentile != nil:
		return fmt.Sprintf("%d/1000", *g.Percentile)
	case g.Unusual:
		return "????"
	default:
		return "(cold)"
	}
}

// Story holds the similarities of the nearest, tenth-nearest and
// thousandth-nearest words, scaled like guess similarities.
type Story struct {
	Top   float64 `json:"top"`
	Top10 float64 `json:"top10"`
	Rest  float64 `json:"rest"`
}

func (s Story) String() string {
	return fmt.Sprintf("The nearest word has a similarity of %.2f, the tenth-nearest has a similarity of %.2f and the one thousandth nearest word has a similarity of %.2f.",
		s.Top, s.Top10, s.Rest)
}

type GameState struct {
	ID string `json:"id"`
	// Guesses are ordered most similar first.
	Guesses      []GuessEntry `json:"guesses"`
	GameOver     bool         `json:"gameOver"`
	Won          bool         `json:"won"`
	GaveUp       bool         `json:"gaveUp"`
	Secret       string       `json:"secret,omitempty"`
	Story        Story        `json:"story"`
	CreatedAt    string       `json:"createdAt"`
	LastActivity string       `json:"lastActivity"`
}

type GuessRequest struct {
	Word string `json:"word"`
}

type GuessResponse struct {
	Success   bool        `json:"success"`
	Message   string      `json:"message"`
	Result    *GuessEntry `json:"result,omitempty"`
	Repeated  bool        `json:"repeated"`
	GameState *GameState  `json:"gameState,omitempty"`
	GameOver  bool        `json:"gameOver"`
	Won       bool        `json:"won"`
}

type NewGameResponse struct {
	Success   bool      `json:"success"`
	Message   string    `json:"message"`
	GameState GameState `json:"gameState"`
}

const (
	StatusLoading = "loading"
	StatusReady   = "ready"
	StatusFailed  = "failed"
)

// StatusResponse reports dataset loading. It is also the message type of
// the progress websocket.
type StatusResponse struct {
	State     string `json:"state"`
	Completed int64  `json:"completed"`
	Total     int64  `json:"total"`
	Error     string `json:"error,omitempty"`
}
