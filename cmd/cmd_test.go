package cmd

import (
	"bytes"
	"context"
	"database/sql"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tiggercwh/go-semantle/dataset"
	"github.com/tiggercwh/go-semantle/dataset/datasettest"
	"github.com/tiggercwh/go-semantle/hints"
	"github.com/tiggercwh/go-semantle/logging"
)

func loadFixture(t *testing.T) (*datasettest.Fixture, *dataset.Corpus) {
	t.Helper()
	fixture := datasettest.Write(t, datasettest.Secrets(1))
	corpus, err := dataset.Load(context.Background(), dataset.NewDirSource(fixture.Dir), dataset.Options{TempDir: t.TempDir()}, nil)
	require.NoError(t, err)
	return fixture, corpus
}

func TestCommandsRegistered(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"serve", "play", "score", "story", "build-hints"} {
		assert.True(t, names[want], "missing command %s", want)
	}

	flag := buildHintsCmd.Flags().Lookup("out")
	require.NotNil(t, flag)
	assert.Equal(t, ".", flag.DefValue)
}

func TestProgressBar(t *testing.T) {
	var buf bytes.Buffer
	bar := newProgressBar(&buf)

	line := bar.render(50, 200)
	assert.Contains(t, line, "["+strings.Repeat("=", 10)+strings.Repeat(" ", 30)+"]")
	assert.Contains(t, line, " 25.0%")

	assert.Contains(t, bar.render(0, 0), "  0.0%")
	assert.Contains(t, bar.render(300, 200), "["+strings.Repeat("=", progressBarWidth)+"]")

	bar.update(1, 2)
	bar.finish()
	assert.True(t, strings.HasSuffix(buf.String(), "\r"))
}

func TestPlay(t *testing.T) {
	fixture, corpus := loadFixture(t)
	secret := fixture.Secrets[0]
	nearest := fixture.Neighbors[secret][0].Word

	input := strings.Join([]string{"xqzzy", nearest, "", nearest, "/giveup", secret, "/new", secret, "/quit"}, "\n")
	var out bytes.Buffer
	require.NoError(t, play(strings.NewReader(input), &out, corpus))

	text := out.String()
	assert.Contains(t, text, "I don't know the word xqzzy.")
	assert.Contains(t, text, "1/1000")
	assert.Contains(t, text, "Already guessed:")
	assert.Contains(t, text, "The secret word is "+secret+".")
	assert.Equal(t, 2, strings.Count(text, "The nearest word has a similarity of"))
	assert.Equal(t, 3, strings.Count(text, "FOUND!"))
	assert.Equal(t, 1, strings.Count(text, "You found it in 1 guesses!"), "only the second game is won")
}

func TestPlayEndOfInput(t *testing.T) {
	_, corpus := loadFixture(t)
	var out bytes.Buffer
	assert.NoError(t, play(strings.NewReader(""), &out, corpus))
}

func TestScoreAndStory(t *testing.T) {
	fixture, corpus := loadFixture(t)
	secret := fixture.Secrets[0]
	nearest := fixture.Neighbors[secret][0]

	var out bytes.Buffer
	require.NoError(t, score(&out, corpus, strings.ToUpper(secret), []string{secret, nearest.Word, "xqzzy"}))
	text := out.String()
	assert.Contains(t, text, "FOUND!")
	assert.Contains(t, text, "1/1000")
	assert.Contains(t, text, "I don't know the word xqzzy.")

	out.Reset()
	require.NoError(t, story(&out, corpus, secret))
	assert.Contains(t, out.String(), "The nearest word has a similarity of")

	assert.Error(t, story(&out, corpus, "nosuchsecret"))
}

func readHints(t *testing.T, dir string) *hints.Table {
	t.Helper()
	table := hints.NewTable()
	for name, read := range map[string]func(context.Context, *sql.DB) error{
		dataset.HintsFile:        table.ReadHints,
		dataset.SimilaritiesFile: table.ReadSimilarities,
	} {
		db, err := sql.Open("sqlite", filepath.Join(dir, name))
		require.NoError(t, err)
		require.NoError(t, read(context.Background(), db))
		require.NoError(t, db.Close())
	}
	table.Freeze()
	return table
}

func TestBuildHints(t *testing.T) {
	fixture := datasettest.Write(t)
	store, err := dataset.LoadVectors(context.Background(), dataset.NewDirSource(fixture.Dir), dataset.Options{TempDir: t.TempDir()}, nil)
	require.NoError(t, err)

	secret := fixture.Secrets[0]
	banned := hints.Banned{hints.BannedDigest(fixture.Neighbors[secret][0].Word): {}}
	out := filepath.Join(t.TempDir(), "out")

	require.NoError(t, buildHints(context.Background(), logging.NewDiscardLogger(), store, fixture.Secrets, nil, nil, out, 2))
	table := readHints(t, out)
	for _, s := range fixture.Secrets {
		list, err := table.HintsFor(s)
		require.NoError(t, err)
		require.Len(t, list, hints.Size)
		for i, n := range fixture.Neighbors[s] {
			assert.Equal(t, n.Word, list[i])
		}
	}

	bannedOut := filepath.Join(t.TempDir(), "banned")
	require.NoError(t, buildHints(context.Background(), logging.NewDiscardLogger(), store, []string{secret}, nil, banned, bannedOut, 1))
	list, err := readHints(t, bannedOut).HintsFor(secret)
	require.NoError(t, err)
	assert.NotContains(t, list, fixture.Neighbors[secret][0].Word)
	assert.Equal(t, fixture.Neighbors[secret][1].Word, list[0])
}

func TestBuildHintsUnknownSecret(t *testing.T) {
	fixture := datasettest.Write(t)
	store, err := dataset.LoadVectors(context.Background(), dataset.NewDirSource(fixture.Dir), dataset.Options{TempDir: t.TempDir()}, nil)
	require.NoError(t, err)

	err = buildHints(context.Background(), logging.NewDiscardLogger(), store, []string{"zzzzz"}, nil, nil, t.TempDir(), 1)
	assert.Error(t, err)
}
