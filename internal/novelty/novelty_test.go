package novelty

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/wordwise/internal/store"
	"github.com/abhisek/wordwise/internal/vocab"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type fixedRand float64

func (r fixedRand) Float64() float64 { return float64(r) }

type mockPerf struct {
	records map[string]*store.PerformanceRecord
	err     error
}

func (m *mockPerf) Get(_ context.Context, key store.PerformanceKey) (*store.PerformanceRecord, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.records[key.Word], nil
}

func (m *mockPerf) Update(_ context.Context, key store.PerformanceKey, fn func(*store.PerformanceRecord, bool) error) (*store.PerformanceRecord, error) {
	rec, ok := m.records[key.Word]
	if !ok {
		rec = &store.PerformanceRecord{UserID: key.UserID, Word: key.Word, Language: key.Language, MasteryLevel: 1}
	}
	if err := fn(rec, ok); err != nil {
		return nil, err
	}
	m.records[key.Word] = rec
	return rec, nil
}

type mockAnswers struct {
	sessions []store.SessionStat
	err      error
}

func (m *mockAnswers) AppendAnswer(context.Context, store.AnswerEvent) error { return nil }

func (m *mockAnswers) RecentSessions(_ context.Context, _, _ string, limit int) ([]store.SessionStat, error) {
	if m.err != nil {
		return nil, m.err
	}
	if limit > 0 && len(m.sessions) > limit {
		return m.sessions[:limit], nil
	}
	return m.sessions, nil
}

type mockIntros struct {
	intros []store.NoveltyIntroduction
}

func (m *mockIntros) AppendIntroduction(_ context.Context, in store.NoveltyIntroduction) error {
	m.intros = append(m.intros, in)
	return nil
}

func (m *mockIntros) CountIntroductions(_ context.Context, _, _ string, since time.Time) (int, error) {
	n := 0
	for _, in := range m.intros {
		if !in.IntroducedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

type fixture struct {
	policy  *Policy
	perf    *mockPerf
	answers *mockAnswers
	intros  *mockIntros
	pool    *vocab.StaticProvider
}

func newFixture(t *testing.T, draw float64) *fixture {
	t.Helper()
	f := &fixture{
		perf:    &mockPerf{records: map[string]*store.PerformanceRecord{}},
		answers: &mockAnswers{},
		intros:  &mockIntros{},
		pool:    vocab.NewStaticProvider(),
	}
	f.policy = NewPolicy(f.perf, f.pool, f.answers, f.intros,
		WithRand(fixedRand(draw)),
		WithClock(func() time.Time { return now }))
	return f
}

func readyProfile() Profile {
	return Profile{AverageAccuracy: 0.9, NoveltySensitivity: 1, PreferredComplexity: 0.5, AdaptationRate: 1}
}

func TestBuildProfileNoHistory(t *testing.T) {
	f := newFixture(t, 0)
	prof, err := f.policy.BuildProfile(context.Background(), "u", "de", 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, EmptyProfile(), prof)

	d := f.policy.ShouldInject(prof, 1, vocab.DefaultSelectionConfig())
	assert.False(t, d.Inject)
	assert.Contains(t, d.Reason, "accuracy gate")
}

func TestBuildProfile(t *testing.T) {
	f := newFixture(t, 0)
	// Most recent first: accuracy climbing from 0.5 to 1.0.
	f.answers.sessions = []store.SessionStat{
		{SessionID: "s4", Answers: 4, Correct: 4},
		{SessionID: "s3", Answers: 4, Correct: 3},
		{SessionID: "s2", Answers: 4, Correct: 3},
		{SessionID: "s1", Answers: 4, Correct: 2},
		{SessionID: "empty"},
	}
	f.intros.intros = []store.NoveltyIntroduction{
		{IntroducedAt: now.Add(-time.Hour)},
		{IntroducedAt: now.Add(-48 * time.Hour)},
	}

	prof, err := f.policy.BuildProfile(context.Background(), "u", "de", 24*time.Hour)
	require.NoError(t, err)

	assert.Equal(t, 4, prof.Sessions)
	assert.InDelta(t, 0.75, prof.AverageAccuracy, 1e-9)
	// trend = mean(0.75, 1.0) - mean(0.5, 0.75) = 0.25
	assert.InDelta(t, 1.0, prof.AdaptationRate, 1e-9)
	// stddev of {0.5, 0.75, 0.75, 1.0} = sqrt(0.03125)
	assert.InDelta(t, 0.75*(1-0.1767766953), prof.NoveltySensitivity, 1e-6)
	// EMA oldest to newest: 0.5 -> 0.625 -> 0.6875 -> 0.84375
	assert.InDelta(t, 0.84375, prof.PreferredComplexity, 1e-9)
	assert.Equal(t, 1, prof.RecentNoveltyCount)
}

func TestBuildProfileDecliningTrend(t *testing.T) {
	prof := profileFromSessions([]store.SessionStat{
		{Answers: 10, Correct: 5},
		{Answers: 10, Correct: 10},
	})
	// trend = 0.5 - 1.0
	assert.Zero(t, prof.AdaptationRate)
}

func TestBuildProfileError(t *testing.T) {
	f := newFixture(t, 0)
	f.answers.err = errors.New("db down")
	_, err := f.policy.BuildProfile(context.Background(), "u", "de", time.Hour)
	assert.Error(t, err)
}

func TestShouldInjectScenario(t *testing.T) {
	cfg := vocab.DefaultSelectionConfig()
	prof := readyProfile()

	assert.InDelta(t, 0.25, Probability(prof, 1, cfg), 1e-9)

	d := newFixture(t, 0.1).policy.ShouldInject(prof, 1, cfg)
	assert.True(t, d.Inject)
	assert.InDelta(t, 0.25, d.Probability, 1e-9)
	assert.InDelta(t, 0.15/0.75, d.Confidence, 1e-9)

	d = newFixture(t, 0.3).policy.ShouldInject(prof, 1, cfg)
	assert.False(t, d.Inject)
}

func TestShouldInjectBudgetGateIgnoresDraw(t *testing.T) {
	cfg := vocab.DefaultSelectionConfig()
	prof := readyProfile()
	prof.RecentNoveltyCount = cfg.MaxNoveltyPerSession

	d := newFixture(t, 0).policy.ShouldInject(prof, 1, cfg)
	assert.False(t, d.Inject)
	assert.Contains(t, d.Reason, "novelty budget")
	assert.Equal(t, 1.0, d.Confidence)
}

func TestShouldInjectIsADistribution(t *testing.T) {
	cfg := vocab.DefaultSelectionConfig()
	prof := readyProfile()
	f := newFixture(t, 0)
	f.policy.rand = seqRand(1000)

	injected := 0
	for i := 0; i < 1000; i++ {
		if f.policy.ShouldInject(prof, 0, cfg).Inject {
			injected++
		}
	}
	// progress 0 halves the probability to 0.125.
	assert.InDelta(t, 125, injected, 2)
}

// seqRand walks evenly through [0,1).
func seqRand(n int) RandomSource {
	return &stepRand{n: n}
}

type stepRand struct {
	i, n int
}

func (s *stepRand) Float64() float64 {
	v := float64(s.i%s.n) / float64(s.n)
	s.i++
	return v
}

func TestSelectNoveltyWords(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()
	_, _ = f.pool.AddWords(ctx, "de", vocab.Beginner, []string{"Haus", "Hund", "Katze", "Baum"})
	_, _ = f.pool.AddWords(ctx, "de", vocab.Elementary, []string{"Bahnhof", "Flughafen"})
	f.perf.records["Hund"] = &store.PerformanceRecord{Word: "Hund", TotalReviews: 3, CorrectReviews: 3, MasteryLevel: 2}
	f.perf.records["Baum"] = &store.PerformanceRecord{Word: "Baum", MasteryLevel: 1}

	got, err := f.policy.SelectNoveltyWords(ctx, SelectRequest{
		Profile:      readyProfile(),
		UserID:       "u",
		Language:     "de",
		Difficulty:   vocab.Beginner,
		ContextHints: []string{"am bahnhof"},
		AvoidWords:   []string{"katze"},
		TargetCount:  10,
	}, vocab.DefaultSelectionConfig())
	require.NoError(t, err)

	// Budget of 3 caps the result. Hund and the introduced Baum are known,
	// Katze is avoided.
	require.Len(t, got, 3)
	words := []string{got[0].Word, got[1].Word, got[2].Word}
	// Bahnhof:   0.4 + 0.3*0.75 + 0.4 + 0.1 = 1.125
	// Haus:      0.4 + 0.3 + 0.1            = 0.8
	// Flughafen: 0.4 + 0.3*0.75 + 0.1       = 0.725
	assert.Equal(t, []string{"Bahnhof", "Haus", "Flughafen"}, words)
	assert.InDelta(t, 112.5, got[0].Score, 1e-9)
	assert.InDelta(t, 80, got[1].Score, 1e-9)
	assert.InDelta(t, 72.5, got[2].Score, 1e-9)
	assert.Contains(t, got[2].Reasons, "stretch tier")
	for _, c := range got {
		assert.True(t, c.IsNew)
		assert.Equal(t, vocab.CategoryNovel, c.Category)
	}
}

func TestSelectNoveltyWordsRespectsGatesAndBudget(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()
	_, _ = f.pool.AddWords(ctx, "de", vocab.Advanced, []string{"Weltanschauung", "Zeitgeist"})
	cfg := vocab.DefaultSelectionConfig()

	low := readyProfile()
	low.AverageAccuracy = 0.3
	got, err := f.policy.SelectNoveltyWords(ctx, SelectRequest{Profile: low, Language: "de", Difficulty: vocab.Advanced, TargetCount: 2}, cfg)
	require.NoError(t, err)
	assert.Empty(t, got)

	partial := readyProfile()
	partial.RecentNoveltyCount = 2
	got, err = f.policy.SelectNoveltyWords(ctx, SelectRequest{Profile: partial, Language: "de", Difficulty: vocab.Advanced, TargetCount: 2}, cfg)
	require.NoError(t, err)
	assert.Len(t, got, 1, "only one slot of budget left")
}

func TestSelectNoveltyWordsSkipsFailedLookups(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()
	_, _ = f.pool.AddWords(ctx, "de", vocab.Beginner, []string{"Haus"})
	f.perf.err = errors.New("down")

	got, err := f.policy.SelectNoveltyWords(ctx, SelectRequest{Profile: readyProfile(), Language: "de", Difficulty: vocab.Beginner, TargetCount: 1}, vocab.DefaultSelectionConfig())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestTrackIntroduction(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()

	require.NoError(t, f.policy.TrackIntroduction(ctx, "u", "de", " Zeitgeist ", "s1"))
	rec := f.perf.records["Zeitgeist"]
	require.NotNil(t, rec)
	assert.Equal(t, 1, rec.MasteryLevel)
	assert.Zero(t, rec.TotalReviews)
	require.Len(t, f.intros.intros, 1)
	assert.Equal(t, "s1", f.intros.intros[0].SessionID)

	prof, err := f.policy.BuildProfile(ctx, "u", "de", 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, prof.RecentNoveltyCount)

	// An introduced word is known from now on and never offered again.
	_, _ = f.pool.AddWords(ctx, "de", vocab.Beginner, []string{"Zeitgeist", "Fernweh"})
	got, err := f.policy.SelectNoveltyWords(ctx, SelectRequest{Profile: readyProfile(), Language: "de", Difficulty: vocab.Beginner, TargetCount: 2}, vocab.DefaultSelectionConfig())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Fernweh", got[0].Word)
	assert.Equal(t, 1.0, got[0].NoveltyScore)
}
