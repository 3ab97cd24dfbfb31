// Package server exposes the game over HTTP while the dataset loads in the
// background.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/tiggercwh/go-semantle/dataset"
	"github.com/tiggercwh/go-semantle/game"
	"github.com/tiggercwh/go-semantle/gameModel"
	"github.com/tiggercwh/go-semantle/logging"
	"github.com/tiggercwh/go-semantle/scoring"
)

type GameServer struct {
	logger *logging.Logger
	games  *lru.Cache[string, *game.Session]

	mu      sync.RWMutex
	corpus  *dataset.Corpus
	engine  *scoring.Engine
	status  gameModel.StatusResponse
	changed chan struct{}
}

// NewGameServer keeps at most maxSessions games, dropping the least recently
// used one when full.
func NewGameServer(logger *logging.Logger, maxSessions int) (*GameServer, error) {
	games, err := lru.New[string, *game.Session](maxSessions)
	if err != nil {
		return nil, fmt.Errorf("create game registry: %w", err)
	}
	return &GameServer{
		logger:  logger,
		games:   games,
		status:  gameModel.StatusResponse{State: gameModel.StatusLoading},
		changed: make(chan struct{}),
	}, nil
}

// SetProgress is a dataset.ProgressFunc.
func (gs *GameServer) SetProgress(completed, total int64) {
	gs.update(func(s *gameModel.StatusResponse) {
		s.Completed, s.Total = completed, total
	})
}

func (gs *GameServer) SetReady(corpus *dataset.Corpus) {
	gs.mu.Lock()
	gs.corpus = corpus
	gs.engine = corpus.Engine()
	gs.mu.Unlock()
	gs.update(func(s *gameModel.StatusResponse) {
		s.State = gameModel.StatusReady
	})
}

func (gs *GameServer) SetFailed(err error) {
	gs.update(func(s *gameModel.StatusResponse) {
		s.State = gameModel.StatusFailed
		s.Error = err.Error()
	})
}

func (gs *GameServer) update(fn func(*gameModel.StatusResponse)) {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	if gs.status.State != gameModel.StatusLoading {
		return
	}
	fn(&gs.status)
	close(gs.changed)
	gs.changed = make(chan struct{})
}

func (gs *GameServer) Status() gameModel.StatusResponse {
	status, _ := gs.watch()
	return status
}

// watch returns the current status and a channel closed on the next change.
func (gs *GameServer) watch() (gameModel.StatusResponse, <-chan struct{}) {
	gs.mu.RLock()
	defer gs.mu.RUnlock()
	return gs.status, gs.changed
}

func (gs *GameServer) ready() (*dataset.Corpus, *scoring.Engine, bool) {
	gs.mu.RLock()
	defer gs.mu.RUnlock()
	return gs.corpus, gs.engine, gs.corpus != nil
}

func (gs *GameServer) createGame() (*game.Session, error) {
	corpus, engine, ok := gs.ready()
	if !ok {
		return nil, errNotReady
	}
	session, err := game.New(uuid.NewString(), corpus.PickSecret(), engine)
	if err != nil {
		return nil, err
	}
	gs.games.Add(session.ID(), session)
	gs.logger.Debug("game created", "game_id", session.ID())
	return session, nil
}

func (gs *GameServer) getGame(gameID string) (*game.Session, bool) {
	return gs.games.Get(gameID)
}

var errNotReady = errors.New("dataset is still loading")

func setHeaders(w http.ResponseWriter, methods string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", methods)
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
}

// preflight answers OPTIONS and the loading state. It reports whether the
// handler should go on.
func (gs *GameServer) preflight(w http.ResponseWriter, r *http.Request, methods string) bool {
	setHeaders(w, methods)
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return false
	}
	if _, _, ok := gs.ready(); !ok {
		http.Error(w, "Dataset is not available yet", http.StatusServiceUnavailable)
		return false
	}
	return true
}

func (gs *GameServer) handleNewGame(w http.ResponseWriter, r *http.Request) {
	if !gs.preflight(w, r, "POST, OPTIONS") {
		return
	}
	session, err := gs.createGame()
	if err != nil {
		gs.logger.Error("create game", "error", err)
		http.Error(w, "Could not create game", http.StatusInternalServerError)
		return
	}
	response := gameModel.NewGameResponse{
		Success:   true,
		Message:   "New game created successfully",
		GameState: session.State(),
	}
	json.NewEncoder(w).Encode(response)
}

func (gs *GameServer) handleGuess(w http.ResponseWriter, r *http.Request) {
	if !gs.preflight(w, r, "POST, OPTIONS") {
		return
	}
	var req gameModel.GuessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	session, exists := gs.getGame(mux.Vars(r)["gameID"])
	if !exists {
		http.Error(w, "Game not found", http.StatusNotFound)
		return
	}

	guess, repeated, err := session.Guess(req.Word)
	if errors.Is(err, game.ErrUnknownWord) {
		response := gameModel.GuessResponse{
			Success:  false,
			Message:  fmt.Sprintf("I don't know the word %s.", scoring.Normalize(req.Word)),
			GameOver: session.Over(),
		}
		json.NewEncoder(w).Encode(response)
		return
	}
	if err != nil {
		gs.logger.Error("score guess", "game_id", session.ID(), "error", err)
		http.Error(w, "Could not score guess", http.StatusInternalServerError)
		return
	}

	state := session.State()
	entry := guess.Entry()
	message := "Guess processed successfully"
	if repeated {
		message = "Already guessed"
	}
	response := gameModel.GuessResponse{
		Success:   true,
		Message:   message,
		Result:    &entry,
		Repeated:  repeated,
		GameState: &state,
		GameOver:  state.GameOver,
		Won:       state.Won,
	}
	json.NewEncoder(w).Encode(response)
}

func (gs *GameServer) handleGiveUp(w http.ResponseWriter, r *http.Request) {
	if !gs.preflight(w, r, "POST, OPTIONS") {
		return
	}
	session, exists := gs.getGame(mux.Vars(r)["gameID"])
	if !exists {
		http.Error(w, "Game not found", http.StatusNotFound)
		return
	}
	session.GiveUp()
	state := session.State()
	response := gameModel.GuessResponse{
		Success:   true,
		Message:   fmt.Sprintf("The secret word is %s.", state.Secret),
		GameState: &state,
		GameOver:  state.GameOver,
		Won:       state.Won,
	}
	json.NewEncoder(w).Encode(response)
}

func (gs *GameServer) handleGetGame(w http.ResponseWriter, r *http.Request) {
	if !gs.preflight(w, r, "GET, OPTIONS") {
		return
	}
	session, exists := gs.getGame(mux.Vars(r)["gameID"])
	if !exists {
		http.Error(w, "Game not found", http.StatusNotFound)
		return
	}
	json.NewEncoder(w).Encode(session.State())
}

func (gs *GameServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	setHeaders(w, "GET")
	json.NewEncoder(w).Encode(gs.Status())
}

func (gs *GameServer) Routes() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/api/game/new", gs.handleNewGame).Methods("POST", "OPTIONS")
	r.HandleFunc("/api/game/{gameID}/guess", gs.handleGuess).Methods("POST", "OPTIONS")
	r.HandleFunc("/api/game/{gameID}/giveup", gs.handleGiveUp).Methods("POST", "OPTIONS")
	r.HandleFunc("/api/game/{gameID}", gs.handleGetGame).Methods("GET", "OPTIONS")
	r.HandleFunc("/api/status", gs.handleStatus).Methods("GET")
	r.HandleFunc("/api/ws/progress", gs.handleProgress).Methods("GET")
	return r
}
