package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tiggercwh/go-semantle/dataset"
	"github.com/tiggercwh/go-semantle/game"
	"github.com/tiggercwh/go-semantle/gameModel"
)

const shownGuesses = 10

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play in the terminal",
	Long: `Play against the configured dataset without a server.

Commands:
  /giveup  reveal the secret word
  /new     start over with another secret
  /quit    leave`,
	Args: cobra.NoArgs,
	RunE: runPlay,
}

func init() {
	rootCmd.AddCommand(playCmd)
}

func runPlay(cmd *cobra.Command, _ []string) error {
	e, err := setup(cmd.Context())
	if err != nil {
		return err
	}
	corpus, err := e.loadCorpus(cmd.Context(), cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	return play(cmd.InOrStdin(), cmd.OutOrStdout(), corpus)
}

// play runs games until /quit or end of input.
func play(in io.Reader, out io.Writer, corpus *dataset.Corpus) error {
	scanner := bufio.NewScanner(in)
	engine := corpus.Engine()
	fmt.Fprintln(out, "Welcome to Semantle CLI!")

	for {
		session, err := game.New("cli", corpus.PickSecret(), engine)
		if err != nil {
			return err
		}
		fmt.Fprintln(out)
		fmt.Fprintln(out, session.State().Story)

		next, err := playRound(scanner, out, session)
		if err != nil || !next {
			return err
		}
	}
}

// playRound reads guesses for one secret. It reports whether a new game
// was asked for.
func playRound(scanner *bufio.Scanner, out io.Writer, session *game.Session) (bool, error) {
	for {
		fmt.Fprint(out, "Enter a word: ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return false, scanner.Err()
		}
		input := strings.TrimSpace(scanner.Text())

		switch input {
		case "":
			continue
		case "/quit":
			return false, nil
		case "/new":
			return true, nil
		case "/giveup":
			if !session.Over() {
				session.GiveUp()
			}
			fmt.Fprintf(out, "The secret word is %s.\n", session.Secret())
			continue
		}

		g, repeated, err := session.Guess(input)
		if errors.Is(err, game.ErrUnknownWord) {
			fmt.Fprintf(out, "I don't know the word %s.\n", strings.ToLower(input))
			continue
		}
		if err != nil {
			return false, err
		}

		if repeated {
			fmt.Fprintln(out, "Already guessed:")
		}
		printGuess(out, g.Entry())
		if g.Found && !repeated {
			state := session.State()
			if state.Won {
				fmt.Fprintf(out, "You found it in %d guesses! Type /new for another word.\n", len(state.Guesses))
			}
		}
		if !repeated {
			printTop(out, session.State().Guesses)
		}
	}
}

func printGuess(out io.Writer, g gameModel.GuessEntry) {
	fmt.Fprintf(out, "%4d  %-20s %7.2f  %s\n", g.Number, g.Word, g.Similarity, g.Closeness())
}

func printTop(out io.Writer, guesses []gameModel.GuessEntry) {
	if len(guesses) < 2 {
		return
	}
	fmt.Fprintln(out, "   #  guess                similarity  closeness")
	for i, g := range guesses {
		if i == shownGuesses {
			break
		}
		printGuess(out, g)
	}
}
