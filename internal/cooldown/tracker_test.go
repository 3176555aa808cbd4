package cooldown

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/wordwise/internal/store"
)

// memLog is an in-memory exercise log.
type memLog struct {
	mu        sync.Mutex
	exercises []store.Exercise
	err       error
}

func (m *memLog) AppendExercise(_ context.Context, ex store.Exercise) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.exercises = append(m.exercises, ex)
	return nil
}

func (m *memLog) RecentExercises(_ context.Context, sessionID string, since time.Time) ([]store.Exercise, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	var out []store.Exercise
	for _, ex := range m.exercises {
		if ex.SessionID == sessionID && !ex.CreatedAt.Before(since) {
			out = append(out, ex)
		}
	}
	return out, nil
}

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTracker(log *memLog) *Tracker {
	tr := NewTracker(log, DefaultConfig(), nil)
	tr.SetClock(func() time.Time { return now })
	return tr
}

func TestAvailableWordsExcludesRecent(t *testing.T) {
	log := &memLog{exercises: []store.Exercise{
		{SessionID: "s", TargetWords: []string{"Haus", "Baum"}, CreatedAt: now.Add(-time.Hour)},
		{SessionID: "s", TargetWords: []string{"Auto"}, CreatedAt: now.Add(-30 * time.Hour)},
		{SessionID: "other", TargetWords: []string{"Hund"}, CreatedAt: now.Add(-time.Hour)},
	}}
	tr := newTracker(log)

	got, err := tr.AvailableWords(context.Background(), "s", []string{"haus", "Auto", "Hund", "Baum", "Katze"}, 24*time.Hour, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"Auto", "Hund", "Katze"}, got)
}

func TestAvailableWordsExemptKeepsStruggling(t *testing.T) {
	log := &memLog{exercises: []store.Exercise{
		{SessionID: "s", TargetWords: []string{"Haus", "Baum"}, CreatedAt: now.Add(-time.Hour)},
	}}
	tr := newTracker(log)

	exempt := func(w string) bool { return w == "Baum" }
	got, err := tr.AvailableWords(context.Background(), "s", []string{"Haus", "Baum"}, 0, exempt)
	require.NoError(t, err)
	assert.Equal(t, []string{"Baum"}, got)
}

func TestAvailableWordsError(t *testing.T) {
	tr := newTracker(&memLog{err: errors.New("down")})
	_, err := tr.AvailableWords(context.Background(), "s", []string{"a"}, time.Hour, nil)
	assert.Error(t, err)
}

func TestUsageStatsAndLastUsed(t *testing.T) {
	log := &memLog{exercises: []store.Exercise{
		{SessionID: "s", TargetWords: []string{"Haus"}, CreatedAt: now.Add(-3 * time.Hour)},
		{SessionID: "s", TargetWords: []string{"haus", "Baum"}, CreatedAt: now.Add(-time.Hour)},
	}}
	tr := newTracker(log)
	ctx := context.Background()

	stats, err := tr.UsageStats(ctx, "s", 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"haus": 2, "baum": 1}, stats)

	last, err := tr.LastUsed(ctx, "s", 24*time.Hour)
	require.NoError(t, err)
	assert.True(t, last["haus"].Equal(now.Add(-time.Hour)))

	stats, err = tr.UsageStats(ctx, "s", 2*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, stats["haus"])

	u, err := tr.Usage(ctx, "", time.Hour)
	require.NoError(t, err)
	assert.Empty(t, u.Counts)
}

func TestCooldownDuration(t *testing.T) {
	tr := newTracker(&memLog{})
	tests := []struct {
		count int
		want  time.Duration
	}{
		{0, 0},
		{1, 2 * time.Hour},
		{2, 2 * time.Hour},
		{3, 3 * time.Hour},
		{4, 270 * time.Minute},
		{20, 48 * time.Hour},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tr.CooldownDuration(tt.count), "count=%d", tt.count)
	}
}

func TestTrackUsage(t *testing.T) {
	log := &memLog{}
	tr := newTracker(log)
	ctx := context.Background()

	require.NoError(t, tr.TrackUsage(ctx, "s", []string{"Haus", " haus", "Baum", ""}))
	require.Len(t, log.exercises, 1)
	assert.Equal(t, []string{"Haus", "Baum"}, log.exercises[0].TargetWords)
	assert.True(t, log.exercises[0].CreatedAt.Equal(now))

	require.NoError(t, tr.TrackUsage(ctx, "s", nil))
	require.NoError(t, tr.TrackUsage(ctx, "", []string{"x"}))
	assert.Len(t, log.exercises, 1)

	stats, err := tr.UsageStats(ctx, "s", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, stats["haus"])
}
