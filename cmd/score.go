package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/tiggercwh/go-semantle/dataset"
	"github.com/tiggercwh/go-semantle/game"
	"github.com/tiggercwh/go-semantle/scoring"
)

var scoreCmd = &cobra.Command{
	Use:   "score <secret> <guess>...",
	Short: "Score guesses against a secret word",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup(cmd.Context())
		if err != nil {
			return err
		}
		corpus, err := e.loadCorpus(cmd.Context(), cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		return score(cmd.OutOrStdout(), corpus, args[0], args[1:])
	},
}

var storyCmd = &cobra.Command{
	Use:   "story <secret>",
	Short: "Show the similarity story of a secret word",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup(cmd.Context())
		if err != nil {
			return err
		}
		corpus, err := e.loadCorpus(cmd.Context(), cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		return story(cmd.OutOrStdout(), corpus, args[0])
	},
}

func init() {
	rootCmd.AddCommand(scoreCmd)
	rootCmd.AddCommand(storyCmd)
}

func score(out io.Writer, corpus *dataset.Corpus, secret string, guesses []string) error {
	secret = scoring.Normalize(secret)
	engine := corpus.Engine()
	summary, err := engine.Story(secret)
	if err != nil {
		return err
	}

	for i, guess := range guesses {
		result, err := engine.Score(secret, guess)
		if err != nil {
			return err
		}
		if !result.Known {
			fmt.Fprintf(out, "I don't know the word %s.\n", result.Word)
			continue
		}
		g := game.Guess{Result: result, Number: i + 1, Unusual: scoring.Unusual(result, summary)}
		printGuess(out, g.Entry())
	}
	return nil
}

func story(out io.Writer, corpus *dataset.Corpus, secret string) error {
	summary, err := corpus.Engine().Story(scoring.Normalize(secret))
	if err != nil {
		return err
	}
	fmt.Fprintln(out, game.StoryOf(summary))
	return nil
}
