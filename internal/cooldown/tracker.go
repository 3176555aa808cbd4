// Package cooldown keeps recently shown words out of new exercises.
package cooldown

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/abhisek/wordwise/internal/store"
	"github.com/abhisek/wordwise/internal/vocab"
)

// Config holds cooldown parameters.
type Config struct {
	BaseCooldown       time.Duration `koanf:"base_cooldown"`
	UsageThreshold     int           `koanf:"usage_threshold"`
	CooldownMultiplier float64       `koanf:"cooldown_multiplier"`
	MaxCooldown        time.Duration `koanf:"max_cooldown"`
	DefaultLookback    time.Duration `koanf:"default_lookback"`
}

// DefaultConfig returns the standard cooldown parameters.
func DefaultConfig() Config {
	return Config{
		BaseCooldown:       2 * time.Hour,
		UsageThreshold:     2,
		CooldownMultiplier: 1.5,
		MaxCooldown:        48 * time.Hour,
		DefaultLookback:    24 * time.Hour,
	}
}

// Usage summarizes a session's exercise history. Keys are folded words.
type Usage struct {
	Counts   map[string]int
	LastUsed map[string]time.Time
}

// Count returns how often word was shown.
func (u Usage) Count(word string) int {
	return u.Counts[vocab.Fold(word)]
}

// Last returns when word was last shown and whether it was shown at all.
func (u Usage) Last(word string) (time.Time, bool) {
	t, ok := u.LastUsed[vocab.Fold(word)]
	return t, ok
}

// Tracker reads and writes the session exercise log.
type Tracker struct {
	log    store.ExerciseRepo
	cfg    Config
	now    func() time.Time
	logger *zap.Logger
}

// NewTracker creates a tracker over the exercise log.
func NewTracker(log store.ExerciseRepo, cfg Config, logger *zap.Logger) *Tracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tracker{log: log, cfg: cfg, now: time.Now, logger: logger}
}

// SetClock overrides the time source.
func (t *Tracker) SetClock(now func() time.Time) {
	t.now = now
}

// Usage reads the session's history within lookback. A non-positive
// lookback uses the configured default.
func (t *Tracker) Usage(ctx context.Context, sessionID string, lookback time.Duration) (Usage, error) {
	if lookback <= 0 {
		lookback = t.cfg.DefaultLookback
	}
	u := Usage{Counts: map[string]int{}, LastUsed: map[string]time.Time{}}
	if sessionID == "" {
		return u, nil
	}

	exercises, err := t.log.RecentExercises(ctx, sessionID, t.now().Add(-lookback))
	if err != nil {
		return u, fmt.Errorf("read exercise history: %w", err)
	}
	for _, ex := range exercises {
		for _, w := range ex.TargetWords {
			k := vocab.Fold(w)
			if k == "" {
				continue
			}
			u.Counts[k]++
			if ex.CreatedAt.After(u.LastUsed[k]) {
				u.LastUsed[k] = ex.CreatedAt
			}
		}
	}
	return u, nil
}

// AvailableWords returns candidates not shown in the session within
// lookback, preserving order. Words for which exempt returns true are
// kept regardless.
func (t *Tracker) AvailableWords(ctx context.Context, sessionID string, candidates []string, lookback time.Duration, exempt func(word string) bool) ([]string, error) {
	u, err := t.Usage(ctx, sessionID, lookback)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(candidates))
	for _, w := range candidates {
		if u.Count(w) > 0 && (exempt == nil || !exempt(w)) {
			continue
		}
		out = append(out, w)
	}
	return out, nil
}

// UsageStats returns how often each word was shown within lookback.
func (t *Tracker) UsageStats(ctx context.Context, sessionID string, lookback time.Duration) (map[string]int, error) {
	u, err := t.Usage(ctx, sessionID, lookback)
	if err != nil {
		return nil, err
	}
	return u.Counts, nil
}

// LastUsed returns when each word was last shown within lookback.
func (t *Tracker) LastUsed(ctx context.Context, sessionID string, lookback time.Duration) (map[string]time.Time, error) {
	u, err := t.Usage(ctx, sessionID, lookback)
	if err != nil {
		return nil, err
	}
	return u.LastUsed, nil
}

// CooldownDuration is how long a word shown usageCount times rests. It
// grows by CooldownMultiplier per use beyond UsageThreshold, capped at
// MaxCooldown. Unused words have no cooldown.
func (t *Tracker) CooldownDuration(usageCount int) time.Duration {
	return t.cfg.CooldownDuration(usageCount)
}

// CooldownDuration is Tracker.CooldownDuration for a bare config.
func (c Config) CooldownDuration(usageCount int) time.Duration {
	if usageCount <= 0 {
		return 0
	}
	d := float64(c.BaseCooldown)
	if extra := usageCount - c.UsageThreshold; extra > 0 {
		d *= math.Pow(c.CooldownMultiplier, float64(extra))
	}
	if c.MaxCooldown > 0 && d > float64(c.MaxCooldown) {
		return c.MaxCooldown
	}
	return time.Duration(d)
}

// TrackUsage records one presentation of words. Call it once per exercise
// actually shown; duplicate words within the call count once.
func (t *Tracker) TrackUsage(ctx context.Context, sessionID string, words []string) error {
	if sessionID == "" {
		return nil
	}
	seen := make(map[string]bool, len(words))
	unique := make([]string, 0, len(words))
	for _, w := range words {
		w = vocab.Normalize(w)
		k := vocab.Fold(w)
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		unique = append(unique, w)
	}
	if len(unique) == 0 {
		return nil
	}
	if err := t.log.AppendExercise(ctx, store.Exercise{
		SessionID:   sessionID,
		TargetWords: unique,
		CreatedAt:   t.now().UTC(),
	}); err != nil {
		return fmt.Errorf("track usage: %w", err)
	}
	t.logger.Debug("tracked word usage", zap.String("session_id", sessionID), zap.Int("words", len(unique)))
	return nil
}
