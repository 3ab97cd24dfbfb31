package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tiggercwh/go-semantle/dataset"
	"github.com/tiggercwh/go-semantle/dataset/datasettest"
	"github.com/tiggercwh/go-semantle/gameModel"
	"github.com/tiggercwh/go-semantle/logging"
)

func loadCorpus(t *testing.T) (*datasettest.Fixture, *dataset.Corpus) {
	t.Helper()
	fixture := datasettest.Write(t, datasettest.Secrets(1))
	corpus, err := dataset.Load(context.Background(), dataset.NewDirSource(fixture.Dir), dataset.Options{TempDir: t.TempDir()}, nil)
	require.NoError(t, err)
	return fixture, corpus
}

func newTestServer(t *testing.T, maxSessions int) (*GameServer, *httptest.Server) {
	t.Helper()
	gs, err := NewGameServer(logging.NewDiscardLogger(), maxSessions)
	require.NoError(t, err)
	srv := httptest.NewServer(gs.Routes())
	t.Cleanup(srv.Close)
	return gs, srv
}

func post(t *testing.T, url, body string, out any) int {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil && resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func get(t *testing.T, url string, out any) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil && resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestGameEndpointsUnavailableWhileLoading(t *testing.T) {
	gs, srv := newTestServer(t, 10)
	gs.SetProgress(10, 40)

	assert.Equal(t, http.StatusServiceUnavailable, post(t, srv.URL+"/api/game/new", "", nil))
	assert.Equal(t, http.StatusServiceUnavailable, get(t, srv.URL+"/api/game/abc", nil))

	var status gameModel.StatusResponse
	require.Equal(t, http.StatusOK, get(t, srv.URL+"/api/status", &status))
	assert.Equal(t, gameModel.StatusResponse{State: gameModel.StatusLoading, Completed: 10, Total: 40}, status)
}

func TestFailedLoad(t *testing.T) {
	gs, srv := newTestServer(t, 10)
	gs.SetFailed(errors.New("bucket missing"))
	gs.SetProgress(50, 50)

	var status gameModel.StatusResponse
	require.Equal(t, http.StatusOK, get(t, srv.URL+"/api/status", &status))
	assert.Equal(t, gameModel.StatusFailed, status.State)
	assert.Equal(t, "bucket missing", status.Error)
	assert.Zero(t, status.Completed, "updates after a terminal state are ignored")
	assert.Equal(t, http.StatusServiceUnavailable, post(t, srv.URL+"/api/game/new", "", nil))
}

func TestPlayGame(t *testing.T) {
	fixture, corpus := loadCorpus(t)
	gs, srv := newTestServer(t, 10)
	gs.SetReady(corpus)
	secret := fixture.Secrets[0]

	var created gameModel.NewGameResponse
	require.Equal(t, http.StatusOK, post(t, srv.URL+"/api/game/new", "", &created))
	require.True(t, created.Success)
	id := created.GameState.ID
	assert.NotEmpty(t, id)
	assert.Empty(t, created.GameState.Secret)
	assert.InDelta(t, float64(fixture.Neighbors[secret][0].Similarity)*100, created.GameState.Story.Top, 1e-3)

	guessURL := srv.URL + "/api/game/" + id + "/guess"
	nearest := fixture.Neighbors[secret][0].Word

	var resp gameModel.GuessResponse
	require.Equal(t, http.StatusOK, post(t, guessURL, `{"word":"`+strings.ToUpper(nearest)+`"}`, &resp))
	require.True(t, resp.Success)
	require.NotNil(t, resp.Result)
	assert.Equal(t, nearest, resp.Result.Word)
	assert.Equal(t, "1/1000", resp.Result.Closeness())
	assert.Equal(t, 1, resp.Result.Number)
	assert.False(t, resp.GameOver)

	resp = gameModel.GuessResponse{}
	require.Equal(t, http.StatusOK, post(t, guessURL, `{"word":"xqzzy"}`, &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, "I don't know the word xqzzy.", resp.Message)

	resp = gameModel.GuessResponse{}
	require.Equal(t, http.StatusOK, post(t, guessURL, `{"word":"`+nearest+`"}`, &resp))
	assert.True(t, resp.Repeated)
	assert.Equal(t, 1, resp.Result.Number)

	resp = gameModel.GuessResponse{}
	require.Equal(t, http.StatusOK, post(t, guessURL, `{"word":"`+secret+`"}`, &resp))
	assert.Equal(t, "FOUND!", resp.Result.Closeness())
	assert.True(t, resp.GameOver)
	assert.True(t, resp.Won)
	assert.Equal(t, secret, resp.GameState.Secret)

	var state gameModel.GameState
	require.Equal(t, http.StatusOK, get(t, srv.URL+"/api/game/"+id, &state))
	require.Len(t, state.Guesses, 2)
	assert.Equal(t, secret, state.Guesses[0].Word)
}

func TestGiveUpAndBadRequests(t *testing.T) {
	_, corpus := loadCorpus(t)
	gs, srv := newTestServer(t, 10)
	gs.SetReady(corpus)

	var created gameModel.NewGameResponse
	require.Equal(t, http.StatusOK, post(t, srv.URL+"/api/game/new", "", &created))
	id := created.GameState.ID

	assert.Equal(t, http.StatusBadRequest, post(t, srv.URL+"/api/game/"+id+"/guess", "{", nil))
	assert.Equal(t, http.StatusNotFound, post(t, srv.URL+"/api/game/nope/guess", `{"word":"a0001"}`, nil))
	assert.Equal(t, http.StatusNotFound, get(t, srv.URL+"/api/game/nope", nil))

	var resp gameModel.GuessResponse
	require.Equal(t, http.StatusOK, post(t, srv.URL+"/api/game/"+id+"/giveup", "", &resp))
	assert.True(t, resp.GameOver)
	assert.False(t, resp.Won)
	assert.Equal(t, corpus.Secrets[0], resp.GameState.Secret)
	assert.Contains(t, resp.Message, corpus.Secrets[0])
}

func TestOldestGameEvicted(t *testing.T) {
	_, corpus := loadCorpus(t)
	gs, srv := newTestServer(t, 1)
	gs.SetReady(corpus)

	var first, second gameModel.NewGameResponse
	require.Equal(t, http.StatusOK, post(t, srv.URL+"/api/game/new", "", &first))
	require.Equal(t, http.StatusOK, post(t, srv.URL+"/api/game/new", "", &second))

	assert.Equal(t, http.StatusNotFound, get(t, srv.URL+"/api/game/"+first.GameState.ID, nil))
	assert.Equal(t, http.StatusOK, get(t, srv.URL+"/api/game/"+second.GameState.ID, nil))
}

func TestCORSPreflight(t *testing.T) {
	_, srv := newTestServer(t, 10)

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/api/game/new", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestProgressWebsocket(t *testing.T) {
	_, corpus := loadCorpus(t)
	gs, srv := newTestServer(t, 10)
	gs.SetProgress(1, 4)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/ws/progress"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	var msg gameModel.StatusResponse
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, gameModel.StatusResponse{State: gameModel.StatusLoading, Completed: 1, Total: 4}, msg)

	go func() {
		gs.SetProgress(4, 4)
		gs.SetReady(corpus)
	}()

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var completed int64
	for msg.State == gameModel.StatusLoading {
		require.NoError(t, conn.ReadJSON(&msg))
		assert.GreaterOrEqual(t, msg.Completed, completed)
		completed = msg.Completed
	}
	assert.Equal(t, gameModel.StatusReady, msg.State)
	assert.Equal(t, int64(4), msg.Completed)

	_, _, err = conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure))
}
