package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/wordwise/internal/config"
	"github.com/abhisek/wordwise/internal/performance"
	"github.com/abhisek/wordwise/internal/selection"
	"github.com/abhisek/wordwise/internal/spacedrep"
	"github.com/abhisek/wordwise/internal/vocab"
)

type fixedRand float64

func (r fixedRand) Float64() float64 { return float64(r) }

const words = `languages:
  de:
    beginner: [Haus, Baum, Auto, Hund, Katze]
    elementary: [Bahnhof, Flughafen]
`

func newEngine(t *testing.T, now time.Time) *Engine {
	t.Helper()
	dir := t.TempDir()
	vocabFile := filepath.Join(dir, "words.yaml")
	require.NoError(t, os.WriteFile(vocabFile, []byte(words), 0o600))

	cfg := config.Defaults()
	cfg.Vocabulary.File = vocabFile
	e, err := New(context.Background(), Options{
		Config: &cfg,
		DBPath: filepath.Join(dir, "wordwise.db"),
		Rand:   fixedRand(0.5),
		Now:    func() time.Time { return now },
	})
	require.NoError(t, err)
	t.Cleanup(func() { e.Close() })
	return e
}

func TestNewRequiresDatabase(t *testing.T) {
	_, err := New(context.Background(), Options{})
	assert.Error(t, err)
}

func TestEngineLoadsVocabulary(t *testing.T) {
	e := newEngine(t, time.Now())
	got, err := e.Vocabulary.WordsFor(context.Background(), "de", vocab.Elementary)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Bahnhof", "Flughafen"}, got)
}

func TestEngineSelectAnswerCycle(t *testing.T) {
	now := time.Now().UTC()
	e := newEngine(t, now)
	ctx := context.Background()

	req := selection.Request{
		UserID:      "u1",
		Language:    "de",
		Difficulty:  vocab.Beginner,
		SessionID:   "s1",
		TargetCount: 3,
	}
	res := e.Selector.Select(ctx, req, e.SelectionConfig())
	require.Len(t, res.SelectedWords, 3)
	assert.False(t, res.Degraded)
	require.NoError(t, e.Selector.MarkPresented(ctx, req, res))

	for _, w := range res.SelectedWords {
		_, err := e.Scheduler.RecordAnswer(ctx, spacedrep.Answer{
			UserID: "u1", Word: w, Language: "de", SessionID: "s1", Correct: true,
		})
		require.NoError(t, err)
	}

	usage, err := e.Cooldown.UsageStats(ctx, "s1", 0)
	require.NoError(t, err)
	assert.Len(t, usage, 3)

	rec, err := e.Ledger.Get(ctx, performance.Key("u1", res.SelectedWords[0], "de"))
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, 1, rec.TotalReviews)

	// Presented words sit out the recent-use window on the next call.
	next := e.Selector.Select(ctx, req, e.SelectionConfig())
	for _, w := range res.SelectedWords {
		assert.NotContains(t, next.SelectedWords, w)
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	e := newEngine(t, time.Now())
	require.NoError(t, e.Close())
	assert.NoError(t, e.Close())
}
