package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/tiggercwh/go-semantle/gameModel"
)

var serverURL = flag.String("server", "http://localhost:8080", "Game server base URL")

func apiURL(path string) string {
	return strings.TrimSuffix(*serverURL, "/") + "/api" + path
}

func makeRequest(method, url string, body interface{}) ([]byte, error) {
	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reqBody = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequest(method, url, reqBody)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s: %s", resp.Status, strings.TrimSpace(string(respBody)))
	}
	return respBody, nil
}

// waitForReady follows the progress websocket until the dataset is loaded.
func waitForReady() error {
	u, err := url.Parse(apiURL("/ws/progress"))
	if err != nil {
		return err
	}
	if u.Scheme == "https" {
		u.Scheme = "wss"
	} else {
		u.Scheme = "ws"
	}

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	for {
		var status gameModel.StatusResponse
		if err := conn.ReadJSON(&status); err != nil {
			return err
		}
		switch status.State {
		case gameModel.StatusReady:
			fmt.Print("\r                              \r")
			return nil
		case gameModel.StatusFailed:
			return errors.New(status.Error)
		}
		if status.Total > 0 {
			fmt.Printf("\rLoading... %3d%%", status.Completed*100/status.Total)
		}
	}
}

func createNewGame() (*gameModel.GameState, error) {
	respBody, err := makeRequest("POST", apiURL("/game/new"), nil)
	if err != nil {
		return nil, err
	}

	var response gameModel.NewGameResponse
	if err := json.Unmarshal(respBody, &response); err != nil {
		return nil, err
	}

	if !response.Success {
		return nil, fmt.Errorf("failed to create game: %s", response.Message)
	}

	return &response.GameState, nil
}

func submitGuess(gameID, word string) (*gameModel.GuessResponse, error) {
	request := gameModel.GuessRequest{Word: word}
	respBody, err := makeRequest("POST", apiURL("/game/"+gameID+"/guess"), request)
	if err != nil {
		return nil, err
	}

	var response gameModel.GuessResponse
	if err := json.Unmarshal(respBody, &response); err != nil {
		return nil, err
	}

	return &response, nil
}

func giveUp(gameID string) (*gameModel.GuessResponse, error) {
	respBody, err := makeRequest("POST", apiURL("/game/"+gameID+"/giveup"), nil)
	if err != nil {
		return nil, err
	}

	var response gameModel.GuessResponse
	if err := json.Unmarshal(respBody, &response); err != nil {
		return nil, err
	}
	return &response, nil
}

func printGuess(g gameModel.GuessEntry) {
	color := "\033[1;90m" // dim grey
	switch {
	case g.Found:
		color = "\033[1;32m" // green
	case g.Percentile != nil:
		color = "\033[1;33m" // yellow
	case g.Unusual:
		color = "\033[1;35m" // magenta
	}
	fmt.Printf("%4d  %-20s %7.2f  %s%s\033[0m\n", g.Number, g.Word, g.Similarity, color, g.Closeness())
}

func main() {
	flag.Parse()
	scanner := bufio.NewScanner(os.Stdin)
	fmt.Println("Welcome to Semantle CLI Client!")

	if err := waitForReady(); err != nil {
		fmt.Printf("Error waiting for the dataset: %v\n", err)
		fmt.Printf("Make sure the server is running at %s\n", *serverURL)
		return
	}

	gameState, err := createNewGame()
	if err != nil {
		fmt.Printf("Error creating game: %v\n", err)
		return
	}
	fmt.Println(gameState.Story)

	for {
		fmt.Print("Enter a word (/giveup to reveal): ")
		if !scanner.Scan() {
			fmt.Println()
			return
		}
		guess := strings.ToLower(strings.TrimSpace(scanner.Text()))
		if guess == "" {
			continue
		}

		if guess == "/giveup" {
			response, err := giveUp(gameState.ID)
			if err != nil {
				fmt.Printf("Error giving up: %v\n", err)
				continue
			}
			fmt.Println(response.Message)
			return
		}

		response, err := submitGuess(gameState.ID, guess)
		if err != nil {
			fmt.Printf("Error submitting guess: %v\n", err)
			continue
		}

		if !response.Success {
			fmt.Println(response.Message)
			continue
		}

		gameState = response.GameState
		if response.Result != nil {
			printGuess(*response.Result)
		}

		if response.Won {
			fmt.Printf("Congratulations! You found the word in %d guesses.\n", len(gameState.Guesses))
			return
		}
	}
}
