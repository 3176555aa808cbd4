// Package novelty decides when to introduce unseen words and which ones.
package novelty

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/abhisek/wordwise/internal/store"
)

// DefaultSessionWindow is how many recent sessions feed a profile.
const DefaultSessionWindow = 10

// Profile summarizes a learner's readiness for new material. It is
// rebuilt on every request and never stored.
type Profile struct {
	AverageAccuracy     float64 `json:"average_accuracy"`
	NoveltySensitivity  float64 `json:"novelty_sensitivity"`
	PreferredComplexity float64 `json:"preferred_complexity"`
	AdaptationRate      float64 `json:"adaptation_rate"`
	RecentNoveltyCount  int     `json:"recent_novelty_count"`
	Sessions            int     `json:"sessions"`
}

// EmptyProfile is the profile of a learner with no history. Accuracy is
// zero so the accuracy gate refuses novelty.
func EmptyProfile() Profile {
	return Profile{
		NoveltySensitivity:  0.5,
		PreferredComplexity: 0.5,
		AdaptationRate:      0.5,
	}
}

// BuildProfile derives a profile from the learner's most recent sessions
// and the novel words introduced within lookback.
func (p *Policy) BuildProfile(ctx context.Context, userID, language string, lookback time.Duration) (Profile, error) {
	sessions, err := p.answers.RecentSessions(ctx, userID, language, p.sessionWindow)
	if err != nil {
		return Profile{}, fmt.Errorf("build novelty profile: %w", err)
	}
	prof := profileFromSessions(sessions)

	n, err := p.intros.CountIntroductions(ctx, userID, language, p.now().Add(-lookback))
	if err != nil {
		return Profile{}, fmt.Errorf("build novelty profile: %w", err)
	}
	prof.RecentNoveltyCount = n
	return prof, nil
}

// profileFromSessions expects sessions most recent first.
func profileFromSessions(sessions []store.SessionStat) Profile {
	accs := make([]float64, 0, len(sessions))
	for i := len(sessions) - 1; i >= 0; i-- {
		if sessions[i].Answers > 0 {
			accs = append(accs, sessions[i].Accuracy())
		}
	}
	if len(accs) == 0 {
		return EmptyProfile()
	}

	avg := mean(accs)
	var trend float64
	if len(accs) >= 2 {
		half := len(accs) / 2
		trend = mean(accs[half:]) - mean(accs[:half])
	}

	ema := accs[0]
	for _, a := range accs[1:] {
		ema = 0.5*a + 0.5*ema
	}

	return Profile{
		AverageAccuracy:     clamp01(avg),
		NoveltySensitivity:  clamp01(avg * (1 - stddev(accs, avg))),
		PreferredComplexity: clamp01(ema),
		AdaptationRate:      clamp01(0.5 + 2*trend),
		Sessions:            len(accs),
	}
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func stddev(xs []float64, avg float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var ss float64
	for _, x := range xs {
		ss += (x - avg) * (x - avg)
	}
	return math.Sqrt(ss / float64(len(xs)))
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
