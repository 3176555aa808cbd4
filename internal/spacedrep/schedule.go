package spacedrep

import (
	"math"
	"time"

	"github.com/abhisek/wordwise/internal/mastery"
)

// Config holds the scheduling parameters.
type Config struct {
	InitialIntervalDays     float64 `koanf:"initial_interval_days"`
	EasyMultiplier          float64 `koanf:"easy_multiplier"`
	HardMultiplier          float64 `koanf:"hard_multiplier"`
	MaxIntervalDays         float64 `koanf:"max_interval_days"`
	MinAccuracyForPromotion float64 `koanf:"min_accuracy_for_promotion"`
	StrugglingThreshold     float64 `koanf:"struggling_threshold"`
	DemotionMinReviews      int     `koanf:"demotion_min_reviews"`
	StrugglingMinReviews    int     `koanf:"struggling_min_reviews"`
}

// DefaultConfig returns the standard schedule.
func DefaultConfig() Config {
	return Config{
		InitialIntervalDays:     1,
		EasyMultiplier:          2.5,
		HardMultiplier:          1.2,
		MaxIntervalDays:         180,
		MinAccuracyForPromotion: 0.8,
		StrugglingThreshold:     0.6,
		DemotionMinReviews:      5,
		StrugglingMinReviews:    3,
	}
}

// Rules returns the mastery thresholds embedded in the config.
func (c Config) Rules() mastery.Rules {
	return mastery.Rules{
		MinAccuracyForPromotion: c.MinAccuracyForPromotion,
		StrugglingThreshold:     c.StrugglingThreshold,
		DemotionMinReviews:      c.DemotionMinReviews,
	}
}

// Accuracy bands that stretch or shrink the interval multiplier.
const (
	highAccuracy      = 0.9
	lowAccuracy       = 0.7
	highAccuracyBoost = 1.2
	lowAccuracyDamp   = 0.8
)

// IntervalDays returns the review interval for a word at level after an
// answer: initial * multiplier^(level-1), capped at MaxIntervalDays.
func (c Config) IntervalDays(level int, correct bool, accuracy float64) float64 {
	m := c.HardMultiplier
	if correct {
		m = c.EasyMultiplier
	}
	switch {
	case accuracy > highAccuracy:
		m *= highAccuracyBoost
	case accuracy < lowAccuracy:
		m *= lowAccuracyDamp
	}

	days := c.InitialIntervalDays * math.Pow(m, float64(mastery.Clamp(level)-1))
	if c.MaxIntervalDays > 0 && days > c.MaxIntervalDays {
		days = c.MaxIntervalDays
	}
	if days < 0 {
		days = 0
	}
	return days
}

// Interval is IntervalDays as a duration.
func (c Config) Interval(level int, correct bool, accuracy float64) time.Duration {
	return time.Duration(c.IntervalDays(level, correct, accuracy) * float64(24*time.Hour))
}
