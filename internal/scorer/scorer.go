// Package scorer ranks candidate words by learning value.
package scorer

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/abhisek/wordwise/internal/cooldown"
	"github.com/abhisek/wordwise/internal/metrics"
	"github.com/abhisek/wordwise/internal/performance"
	"github.com/abhisek/wordwise/internal/store"
	"github.com/abhisek/wordwise/internal/vocab"
)

// Score weights, in points.
const (
	BaseScore        = 50.0
	StrugglingBonus  = 40.0
	DueBonus         = 30.0
	NewBonus         = 20.0
	NoveltyBonus     = 20.0
	OveruseThreshold = 2
	OverusePenalty   = 15.0
)

// PerformanceReader looks up performance records.
type PerformanceReader interface {
	Get(ctx context.Context, key store.PerformanceKey) (*store.PerformanceRecord, error)
}

// UsageReader reads session usage.
type UsageReader interface {
	Usage(ctx context.Context, sessionID string, lookback time.Duration) (cooldown.Usage, error)
}

// RandomSource yields uniform values in [0,1).
type RandomSource interface {
	Float64() float64
}

// Config holds scorer parameters.
type Config struct {
	StrugglingThreshold  float64
	StrugglingMinReviews int
	// Jitter is the maximum absolute random adjustment; 0 disables it.
	Jitter float64
	// Concurrency bounds parallel performance lookups.
	Concurrency int
}

// DefaultConfig returns the standard scorer parameters.
func DefaultConfig() Config {
	return Config{
		StrugglingThreshold:  0.6,
		StrugglingMinReviews: 3,
		Jitter:               5,
		Concurrency:          8,
	}
}

// Request is one scoring pass.
type Request struct {
	Words     []string
	UserID    string
	Language  string
	SessionID string
	Lookback  time.Duration
	// StrugglingThreshold overrides Config.StrugglingThreshold when > 0.
	StrugglingThreshold float64
}

// Scorer combines performance, usage and novelty into ranked candidates.
type Scorer struct {
	perf   PerformanceReader
	usage  UsageReader
	cfg    Config
	rand   RandomSource
	now    func() time.Time
	logger *zap.Logger
}

// New creates a scorer. A nil rand disables jitter.
func New(perf PerformanceReader, usage UsageReader, cfg Config, rand RandomSource, logger *zap.Logger) *Scorer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	return &Scorer{perf: perf, usage: usage, cfg: cfg, rand: rand, now: time.Now, logger: logger}
}

// SetClock overrides the time source.
func (s *Scorer) SetClock(now func() time.Time) {
	s.now = now
}

type lookup struct {
	rec *store.PerformanceRecord
	err error
}

// Score returns one candidate per distinct word, sorted by score
// descending then word. A failed lookup scores the word as new; only a
// failed usage read fails the batch.
func (s *Scorer) Score(ctx context.Context, req Request) ([]vocab.Candidate, error) {
	words := dedupe(req.Words)
	if len(words) == 0 {
		return nil, nil
	}

	usage, err := s.usage.Usage(ctx, req.SessionID, req.Lookback)
	if err != nil {
		return nil, fmt.Errorf("score candidates: %w", err)
	}

	lookups := make([]lookup, len(words))
	var g errgroup.Group
	g.SetLimit(s.cfg.Concurrency)
	for i, w := range words {
		g.Go(func() error {
			rec, err := s.perf.Get(ctx, performance.Key(req.UserID, w, req.Language))
			lookups[i] = lookup{rec: rec, err: err}
			return nil
		})
	}
	_ = g.Wait()

	threshold := s.cfg.StrugglingThreshold
	if req.StrugglingThreshold > 0 {
		threshold = req.StrugglingThreshold
	}
	now := s.now()

	out := make([]vocab.Candidate, len(words))
	for i, w := range words {
		rec := lookups[i].rec
		var reasons []string
		if err := lookups[i].err; err != nil {
			metrics.DegradedLookups.Inc()
			s.logger.Warn("performance lookup failed, scoring as new",
				zap.String("user_id", req.UserID),
				zap.String("language", req.Language),
				zap.String("session_id", req.SessionID),
				zap.String("word", w),
				zap.Error(err))
			rec = nil
			reasons = append(reasons, "performance unavailable, treated as new")
		}
		c := s.candidate(w, rec, usage, threshold, now, reasons)
		if s.rand != nil && s.cfg.Jitter > 0 {
			c.Score += (s.rand.Float64()*2 - 1) * s.cfg.Jitter
		}
		c.Score = math.Max(0, c.Score)
		out[i] = c
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Word < out[j].Word
	})
	return out, nil
}

func (s *Scorer) candidate(word string, rec *store.PerformanceRecord, usage cooldown.Usage, threshold float64, now time.Time, reasons []string) vocab.Candidate {
	isNew := rec == nil || rec.TotalReviews == 0
	isStruggling := !isNew && rec.IsStruggling(threshold, s.cfg.StrugglingMinReviews)
	isDue := !isNew && rec.IsDue(now)

	daysSince := -1.0
	level := 1
	if rec != nil {
		daysSince = rec.DaysSinceReview(now)
		level = rec.MasteryLevel
	}

	freq := usage.Count(word)
	recency := 1.0
	if !isNew && daysSince >= 0 {
		recency = math.Min(1, daysSince/7)
	}
	novelty := clamp01(0.6*(1-float64(freq)/5) + 0.4*recency)

	masteryScore := performance.MasteryScore(rec)
	lengthFactor := math.Min(1, float64(utf8.RuneCountInString(word))/10)
	difficulty := clamp01(0.3*lengthFactor + 0.7*(1-masteryScore/100))

	var urgency float64
	switch {
	case isStruggling:
		urgency = 1
	case isDue:
		urgency = 0.8
	case isNew || daysSince < 0:
		urgency = 0.3
	default:
		urgency = math.Min(1, daysSince/7)
	}

	score := BaseScore
	switch {
	case isStruggling:
		score += StrugglingBonus
		reasons = append(reasons, fmt.Sprintf("struggling: %.0f%% accuracy over %d reviews", rec.Accuracy()*100, rec.TotalReviews))
	case isDue:
		score += DueBonus
		reasons = append(reasons, fmt.Sprintf("due for review (%.1f days overdue)", now.Sub(rec.NextReviewDate).Hours()/24))
	}
	if isNew {
		score += NewBonus
		reasons = append(reasons, "new word")
	}
	score += NoveltyBonus * novelty
	if novelty >= 0.7 {
		reasons = append(reasons, fmt.Sprintf("high novelty (%.2f)", novelty))
	}
	if freq > OveruseThreshold {
		penalty := OverusePenalty * float64(freq)
		score -= penalty
		reasons = append(reasons, fmt.Sprintf("used %d times recently (-%.0f)", freq, penalty))
	}

	lastUsed := daysSince
	if t, ok := usage.Last(word); ok {
		lastUsed = math.Max(0, now.Sub(t).Hours()/24)
	}

	return vocab.Candidate{
		Word:            word,
		Score:           score,
		NoveltyScore:    novelty,
		DifficultyScore: difficulty,
		ReviewUrgency:   urgency,
		UsageFrequency:  freq,
		LastUsedDays:    lastUsed,
		MasteryLevel:    level,
		IsReview:        isDue,
		IsStruggling:    isStruggling,
		IsNew:           isNew,
		Reasons:         reasons,
	}
}

func dedupe(words []string) []string {
	seen := make(map[string]bool, len(words))
	out := make([]string, 0, len(words))
	for _, w := range words {
		w = vocab.Normalize(w)
		if w == "" || seen[w] {
			continue
		}
		seen[w] = true
		out = append(out, w)
	}
	return out
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
