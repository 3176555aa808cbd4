package scorer

import (
	"context"
	"errors"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/abhisek/wordwise/internal/cooldown"
	"github.com/abhisek/wordwise/internal/store"
	"github.com/abhisek/wordwise/internal/vocab"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type mockPerf struct {
	records map[string]*store.PerformanceRecord
	fail    map[string]bool
}

func (m *mockPerf) Get(_ context.Context, key store.PerformanceKey) (*store.PerformanceRecord, error) {
	if m.fail[key.Word] {
		return nil, errors.New("store unavailable")
	}
	rec := m.records[key.Word]
	if rec == nil {
		return nil, nil
	}
	cp := *rec
	return &cp, nil
}

type mockUsage struct {
	usage cooldown.Usage
	err   error
}

func (m *mockUsage) Usage(context.Context, string, time.Duration) (cooldown.Usage, error) {
	if m.err != nil {
		return cooldown.Usage{}, m.err
	}
	return m.usage, nil
}

func emptyUsage() *mockUsage {
	return &mockUsage{usage: cooldown.Usage{Counts: map[string]int{}, LastUsed: map[string]time.Time{}}}
}

func noJitter() Config {
	cfg := DefaultConfig()
	cfg.Jitter = 0
	return cfg
}

func newScorer(perf PerformanceReader, usage UsageReader, cfg Config, rng RandomSource) *Scorer {
	s := New(perf, usage, cfg, rng, nil)
	s.SetClock(func() time.Time { return now })
	return s
}

func byWord(cands []vocab.Candidate) map[string]vocab.Candidate {
	m := make(map[string]vocab.Candidate, len(cands))
	for _, c := range cands {
		m[c.Word] = c
	}
	return m
}

func TestScoreNewWord(t *testing.T) {
	perf := &mockPerf{records: map[string]*store.PerformanceRecord{
		"Haus": {Word: "Haus", MasteryLevel: 1},
	}}
	s := newScorer(perf, emptyUsage(), noJitter(), nil)

	got, err := s.Score(context.Background(), Request{Words: []string{"Haus", "Baum"}, UserID: "u", Language: "de"})
	require.NoError(t, err)
	require.Len(t, got, 2)

	for _, c := range got {
		assert.True(t, c.IsNew, c.Word)
		assert.False(t, c.IsReview, c.Word)
		assert.False(t, c.IsStruggling, c.Word)
		assert.InDelta(t, 0.3, c.ReviewUrgency, 1e-9, c.Word)
		assert.InDelta(t, 1.0, c.NoveltyScore, 1e-9, c.Word)
		assert.InDelta(t, 50+20+20, c.Score, 1e-9, c.Word)
		assert.Equal(t, -1.0, c.LastUsedDays, c.Word)
		assert.Equal(t, 1, c.MasteryLevel, c.Word)
		assert.Contains(t, c.Reasons, "new word")
	}
	// Equal scores break ties by word.
	assert.Equal(t, "Baum", got[0].Word)
	// len("Haus")=4: 0.3*0.4 + 0.7*1
	assert.InDelta(t, 0.82, byWord(got)["Haus"].DifficultyScore, 1e-9)
}

func TestScoreStrugglingAndDue(t *testing.T) {
	perf := &mockPerf{records: map[string]*store.PerformanceRecord{
		"schwer": {Word: "schwer", MasteryLevel: 2, TotalReviews: 5, CorrectReviews: 1,
			LastReviewedAt: now.Add(-7 * 24 * time.Hour), NextReviewDate: now.Add(-time.Hour)},
		"fällig": {Word: "fällig", MasteryLevel: 3, TotalReviews: 4, CorrectReviews: 4,
			LastReviewedAt: now.Add(-3.5 * 24 * time.Hour), NextReviewDate: now.Add(-24 * time.Hour)},
		"später": {Word: "später", MasteryLevel: 3, TotalReviews: 4, CorrectReviews: 4,
			LastReviewedAt: now.Add(-3.5 * 24 * time.Hour), NextReviewDate: now.Add(24 * time.Hour)},
	}}
	s := newScorer(perf, emptyUsage(), noJitter(), nil)

	got, err := s.Score(context.Background(), Request{Words: []string{"später", "fällig", "schwer"}, UserID: "u", Language: "de"})
	require.NoError(t, err)
	m := byWord(got)

	hard := m["schwer"]
	assert.True(t, hard.IsStruggling)
	assert.True(t, hard.IsReview, "due flag is independent of struggling")
	assert.Equal(t, 1.0, hard.ReviewUrgency)
	// 50 + 40 + 20*(0.6 + 0.4*1)
	assert.InDelta(t, 110, hard.Score, 1e-9)

	due := m["fällig"]
	assert.False(t, due.IsStruggling)
	assert.True(t, due.IsReview)
	assert.Equal(t, 0.8, due.ReviewUrgency)
	// 50 + 30 + 20*(0.6 + 0.4*0.5)
	assert.InDelta(t, 96, due.Score, 1e-9)
	assert.InDelta(t, 3.5, due.LastUsedDays, 1e-9)

	later := m["später"]
	assert.False(t, later.IsReview)
	assert.InDelta(t, 0.5, later.ReviewUrgency, 1e-9)
	assert.InDelta(t, 66, later.Score, 1e-9)

	assert.Equal(t, []string{"schwer", "fällig", "später"}, []string{got[0].Word, got[1].Word, got[2].Word})
}

func TestScoreUsagePenalty(t *testing.T) {
	usage := &mockUsage{usage: cooldown.Usage{
		Counts:   map[string]int{"oft": 3, "zweimal": 2},
		LastUsed: map[string]time.Time{"oft": now.Add(-12 * time.Hour), "zweimal": now.Add(-time.Hour)},
	}}
	s := newScorer(&mockPerf{}, usage, noJitter(), nil)

	got, err := s.Score(context.Background(), Request{Words: []string{"Oft", "zweimal"}, UserID: "u", Language: "de", SessionID: "s"})
	require.NoError(t, err)
	m := byWord(got)

	oft := m["Oft"]
	assert.Equal(t, 3, oft.UsageFrequency)
	// novelty 0.6*(1-3/5) + 0.4 = 0.64; 50 + 20 + 12.8 - 45
	assert.InDelta(t, 0.64, oft.NoveltyScore, 1e-9)
	assert.InDelta(t, 37.8, oft.Score, 1e-9)
	assert.InDelta(t, 0.5, oft.LastUsedDays, 1e-9)

	two := m["zweimal"]
	// no penalty at the threshold; novelty 0.76
	assert.InDelta(t, 50+20+15.2, two.Score, 1e-9)
}

func TestScoreDegradesFailedLookup(t *testing.T) {
	perf := &mockPerf{
		records: map[string]*store.PerformanceRecord{
			"kaputt": {Word: "kaputt", MasteryLevel: 5, TotalReviews: 10, CorrectReviews: 2},
		},
		fail: map[string]bool{"kaputt": true},
	}
	core, logs := observer.New(zap.WarnLevel)
	s := New(perf, emptyUsage(), noJitter(), nil, zap.New(core))
	s.SetClock(func() time.Time { return now })

	got, err := s.Score(context.Background(), Request{Words: []string{"kaputt", "gut"}, UserID: "u", Language: "de"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	k := byWord(got)["kaputt"]
	assert.True(t, k.IsNew)
	assert.False(t, k.IsStruggling)
	assert.Equal(t, 1, logs.Len())
}

func TestScoreUsageFailureFailsBatch(t *testing.T) {
	s := newScorer(&mockPerf{}, &mockUsage{err: errors.New("redis down")}, noJitter(), nil)
	_, err := s.Score(context.Background(), Request{Words: []string{"a"}})
	assert.Error(t, err)
}

func TestScoreDedupesAndSkipsBlank(t *testing.T) {
	s := newScorer(&mockPerf{}, emptyUsage(), noJitter(), nil)
	got, err := s.Score(context.Background(), Request{Words: []string{"a", " a", "", "b", "A"}})
	require.NoError(t, err)
	assert.Len(t, got, 3)

	none, err := s.Score(context.Background(), Request{})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestScoreJitterIsBoundedAndSeedable(t *testing.T) {
	words := []string{"a", "b", "c", "d", "e", "f", "g", "h"}
	run := func(seed uint64) []vocab.Candidate {
		s := newScorer(&mockPerf{}, emptyUsage(), DefaultConfig(), rand.New(rand.NewPCG(seed, seed)))
		got, err := s.Score(context.Background(), Request{Words: words})
		require.NoError(t, err)
		return got
	}

	first, second := run(42), run(42)
	assert.Equal(t, first, second, "same seed must give the same ranking")
	for _, c := range first {
		assert.InDelta(t, 90, c.Score, 5, c.Word)
	}
	for i := 1; i < len(first); i++ {
		assert.GreaterOrEqual(t, first[i-1].Score, first[i].Score)
	}
}

func TestScoreDoesNotMutateInput(t *testing.T) {
	words := []string{" b", "a"}
	s := newScorer(&mockPerf{}, emptyUsage(), noJitter(), nil)
	_, err := s.Score(context.Background(), Request{Words: words})
	require.NoError(t, err)
	assert.Equal(t, []string{" b", "a"}, words)
}
