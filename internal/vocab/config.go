package vocab

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidConfig is returned by SelectionConfig.Validate.
var ErrInvalidConfig = errors.New("invalid selection config")

// SelectionConfig holds the category ratios and thresholds for one
// selection call. It is a value: callers copy DefaultSelectionConfig and
// override fields.
type SelectionConfig struct {
	ReviewWordRatio     float64 `koanf:"review_word_ratio" json:"review_word_ratio"`
	StrugglingWordRatio float64 `koanf:"struggling_word_ratio" json:"struggling_word_ratio"`
	NewWordRatio        float64 `koanf:"new_word_ratio" json:"new_word_ratio"`
	NoveltyWordRatio    float64 `koanf:"novelty_word_ratio" json:"novelty_word_ratio"`

	MinNoveltyScore      float64 `koanf:"min_novelty_score" json:"min_novelty_score"`
	MaxUsageFrequency    int     `koanf:"max_usage_frequency" json:"max_usage_frequency"`
	AdaptiveThreshold    float64 `koanf:"adaptive_threshold" json:"adaptive_threshold"`
	MaxNoveltyPerSession int     `koanf:"max_novelty_per_session" json:"max_novelty_per_session"`
	TargetNoveltyRatio   float64 `koanf:"target_novelty_ratio" json:"target_novelty_ratio"`
	ContextFitWeight     float64 `koanf:"context_fit_weight" json:"context_fit_weight"`
	HighNoveltyScore     float64 `koanf:"high_novelty_score" json:"high_novelty_score"`
	StrugglingThreshold  float64 `koanf:"struggling_threshold" json:"struggling_threshold"`

	RecentUseWindow  time.Duration `koanf:"recent_use_window" json:"recent_use_window"`
	CooldownLookback time.Duration `koanf:"cooldown_lookback" json:"cooldown_lookback"`
	NoveltyLookback  time.Duration `koanf:"novelty_lookback" json:"novelty_lookback"`
	StoreTimeout     time.Duration `koanf:"store_timeout" json:"store_timeout"`
}

// DefaultSelectionConfig returns the library defaults.
func DefaultSelectionConfig() SelectionConfig {
	return SelectionConfig{
		ReviewWordRatio:     0.4,
		StrugglingWordRatio: 0.3,
		NewWordRatio:        0.2,
		NoveltyWordRatio:    0.1,

		MinNoveltyScore:      0.2,
		MaxUsageFrequency:    3,
		AdaptiveThreshold:    0.6,
		MaxNoveltyPerSession: 3,
		TargetNoveltyRatio:   0.25,
		ContextFitWeight:     0.4,
		HighNoveltyScore:     0.7,
		StrugglingThreshold:  0.6,

		RecentUseWindow:  24 * time.Hour,
		CooldownLookback: 24 * time.Hour,
		NoveltyLookback:  24 * time.Hour,
		StoreTimeout:     2 * time.Second,
	}
}

// Resolve returns the config to use for a call: defaults when cfg is nil.
func Resolve(cfg *SelectionConfig) SelectionConfig {
	if cfg == nil {
		return DefaultSelectionConfig()
	}
	return *cfg
}

// Validate checks ratio and threshold ranges. Ratios need not sum to 1;
// leftover capacity is backfilled by score.
func (c SelectionConfig) Validate() error {
	ratios := map[string]float64{
		"review_word_ratio":     c.ReviewWordRatio,
		"struggling_word_ratio": c.StrugglingWordRatio,
		"new_word_ratio":        c.NewWordRatio,
		"novelty_word_ratio":    c.NoveltyWordRatio,
	}
	sum := 0.0
	for name, r := range ratios {
		if r < 0 || r > 1 {
			return fmt.Errorf("%w: %s=%v out of [0,1]", ErrInvalidConfig, name, r)
		}
		sum += r
	}
	if sum > 1.0+1e-9 {
		return fmt.Errorf("%w: ratios sum to %.3f > 1", ErrInvalidConfig, sum)
	}

	unit := map[string]float64{
		"min_novelty_score":    c.MinNoveltyScore,
		"adaptive_threshold":   c.AdaptiveThreshold,
		"target_novelty_ratio": c.TargetNoveltyRatio,
		"context_fit_weight":   c.ContextFitWeight,
		"high_novelty_score":   c.HighNoveltyScore,
		"struggling_threshold": c.StrugglingThreshold,
	}
	for name, v := range unit {
		if v < 0 || v > 1 {
			return fmt.Errorf("%w: %s=%v out of [0,1]", ErrInvalidConfig, name, v)
		}
	}
	if c.MaxUsageFrequency < 0 || c.MaxNoveltyPerSession < 0 {
		return fmt.Errorf("%w: negative limit", ErrInvalidConfig)
	}
	if c.RecentUseWindow < 0 || c.CooldownLookback < 0 || c.NoveltyLookback < 0 || c.StoreTimeout < 0 {
		return fmt.Errorf("%w: negative duration", ErrInvalidConfig)
	}
	return nil
}
