package novelty

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/abhisek/wordwise/internal/contextfit"
	"github.com/abhisek/wordwise/internal/metrics"
	"github.com/abhisek/wordwise/internal/performance"
	"github.com/abhisek/wordwise/internal/store"
	"github.com/abhisek/wordwise/internal/vocab"
)

// Weights of the novelty word formula. The context fit weight comes from
// SelectionConfig.ContextFitWeight.
const (
	noveltyWeight    = 0.4
	difficultyWeight = 0.3
	adaptationWeight = 0.1
)

// PerformanceStore reads and updates performance records.
type PerformanceStore interface {
	Get(ctx context.Context, key store.PerformanceKey) (*store.PerformanceRecord, error)
	Update(ctx context.Context, key store.PerformanceKey, fn func(rec *store.PerformanceRecord, exists bool) error) (*store.PerformanceRecord, error)
}

// RandomSource yields uniform values in [0,1).
type RandomSource interface {
	Float64() float64
}

type globalRand struct{}

func (globalRand) Float64() float64 { return rand.Float64() }

// Policy decides whether to inject novel words and scores them.
type Policy struct {
	perf          PerformanceStore
	provider      vocab.Provider
	answers       store.AnswerRepo
	intros        store.NoveltyRepo
	matcher       contextfit.Matcher
	rand          RandomSource
	now           func() time.Time
	logger        *zap.Logger
	sessionWindow int
}

// Option configures a Policy.
type Option func(*Policy)

// WithMatcher sets the context fit strategy. Defaults to keyword matching.
func WithMatcher(m contextfit.Matcher) Option {
	return func(p *Policy) {
		if m != nil {
			p.matcher = m
		}
	}
}

// WithRand sets the random source for the injection draw.
func WithRand(r RandomSource) Option {
	return func(p *Policy) {
		if r != nil {
			p.rand = r
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(p *Policy) { p.now = now }
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(p *Policy) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithSessionWindow sets how many recent sessions feed a profile.
func WithSessionWindow(n int) Option {
	return func(p *Policy) {
		if n > 0 {
			p.sessionWindow = n
		}
	}
}

// NewPolicy creates a novelty policy.
func NewPolicy(perf PerformanceStore, provider vocab.Provider, answers store.AnswerRepo, intros store.NoveltyRepo, opts ...Option) *Policy {
	p := &Policy{
		perf:          perf,
		provider:      provider,
		answers:       answers,
		intros:        intros,
		matcher:       contextfit.KeywordMatcher{},
		rand:          globalRand{},
		now:           time.Now,
		logger:        zap.NewNop(),
		sessionWindow: DefaultSessionWindow,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Decision is the outcome of the injection gate.
type Decision struct {
	Inject      bool    `json:"inject"`
	Reason      string  `json:"reason"`
	Confidence  float64 `json:"confidence"`
	Probability float64 `json:"probability"`
}

// gate applies the deterministic checks. It returns a refusal reason, or
// "" when novelty is allowed.
func gate(prof Profile, cfg vocab.SelectionConfig) string {
	if prof.AverageAccuracy < cfg.AdaptiveThreshold {
		return fmt.Sprintf("accuracy gate: average accuracy %.2f below %.2f", prof.AverageAccuracy, cfg.AdaptiveThreshold)
	}
	if prof.RecentNoveltyCount >= cfg.MaxNoveltyPerSession {
		return fmt.Sprintf("novelty budget: %d of %d novel words already introduced", prof.RecentNoveltyCount, cfg.MaxNoveltyPerSession)
	}
	return ""
}

// Probability is the injection probability for a profile that passed
// the gates.
func Probability(prof Profile, sessionProgress float64, cfg vocab.SelectionConfig) float64 {
	progress := clamp01(sessionProgress)
	return clamp01(cfg.TargetNoveltyRatio * prof.NoveltySensitivity * (0.5 + 0.5*progress) * prof.AdaptationRate)
}

// ShouldInject applies the gates, then draws once against the injection
// probability. sessionProgress is in [0,1].
func (p *Policy) ShouldInject(prof Profile, sessionProgress float64, cfg vocab.SelectionConfig) Decision {
	if reason := gate(prof, cfg); reason != "" {
		metrics.NoveltyDecisions.WithLabelValues("gated").Inc()
		p.logger.Debug("novelty refused", zap.String("reason", reason))
		return Decision{Reason: reason, Confidence: 1}
	}

	prob := Probability(prof, sessionProgress, cfg)
	draw := p.rand.Float64()
	d := Decision{
		Inject:      draw < prob,
		Probability: prob,
		Confidence:  math.Abs(prob-draw) / math.Max(prob, 1-prob),
	}
	if d.Inject {
		d.Reason = fmt.Sprintf("novelty draw %.2f below probability %.2f", draw, prob)
		metrics.NoveltyDecisions.WithLabelValues("inject").Inc()
	} else {
		d.Reason = fmt.Sprintf("novelty draw %.2f not below probability %.2f", draw, prob)
		metrics.NoveltyDecisions.WithLabelValues("skip").Inc()
	}
	return d
}

// SelectRequest describes a novelty word selection.
type SelectRequest struct {
	Profile      Profile
	UserID       string
	Language     string
	Difficulty   vocab.Difficulty
	ContextHints []string
	AvoidWords   []string
	TargetCount  int
}

// SelectNoveltyWords scores unseen words from the target tier and the
// next tier up and returns the best min(TargetCount, remaining budget).
// It returns nothing when the gates refuse.
func (p *Policy) SelectNoveltyWords(ctx context.Context, req SelectRequest, cfg vocab.SelectionConfig) ([]vocab.Candidate, error) {
	if gate(req.Profile, cfg) != "" {
		return nil, nil
	}
	n := req.TargetCount
	if remaining := cfg.MaxNoveltyPerSession - req.Profile.RecentNoveltyCount; remaining < n {
		n = remaining
	}
	if n <= 0 {
		return nil, nil
	}

	avoid := make(map[string]bool, len(req.AvoidWords))
	for _, w := range req.AvoidWords {
		avoid[vocab.Fold(w)] = true
	}

	tiers := []vocab.Difficulty{req.Difficulty}
	if next := req.Difficulty.Next(); next != req.Difficulty {
		tiers = append(tiers, next)
	}

	var out []vocab.Candidate
	for _, tier := range tiers {
		words, err := p.provider.WordsFor(ctx, req.Language, tier)
		if err != nil {
			return nil, fmt.Errorf("novelty pool %s/%s: %w", req.Language, tier, err)
		}
		for _, w := range words {
			w = vocab.Normalize(w)
			k := vocab.Fold(w)
			if k == "" || avoid[k] {
				continue
			}
			avoid[k] = true

			c, ok := p.scoreWord(ctx, w, tier, req, cfg)
			if ok {
				out = append(out, c)
			}
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Word < out[j].Word
	})
	if len(out) > n {
		out = out[:n]
	}
	return out, nil
}

func (p *Policy) scoreWord(ctx context.Context, word string, tier vocab.Difficulty, req SelectRequest, cfg vocab.SelectionConfig) (vocab.Candidate, bool) {
	rec, err := p.perf.Get(ctx, performance.Key(req.UserID, word, req.Language))
	if err != nil {
		p.logger.Warn("novelty lookup failed, skipping word",
			zap.String("user_id", req.UserID),
			zap.String("language", req.Language),
			zap.String("word", word),
			zap.Error(err))
		return vocab.Candidate{}, false
	}
	// Introduced words have a record and are known from then on.
	if rec != nil {
		return vocab.Candidate{}, false
	}
	const novelty = 1.0

	// Learners with higher preferred complexity lean half a tier up.
	step := 1.0 / float64(vocab.MaxDifficulty-vocab.MinDifficulty)
	desired := req.Difficulty.Norm() + (req.Profile.PreferredComplexity-0.5)*step
	difficultyFit := clamp01(1 - math.Abs(tier.Norm()-desired))

	fit, err := p.matcher.Fit(ctx, word, req.ContextHints)
	if err != nil {
		p.logger.Warn("context fit failed", zap.String("word", word), zap.Error(err))
		fit = 0
	}
	fit = clamp01(fit)

	score := noveltyWeight*novelty +
		difficultyWeight*difficultyFit +
		cfg.ContextFitWeight*fit +
		adaptationWeight*req.Profile.AdaptationRate

	reasons := []string{fmt.Sprintf("novel word (%s tier)", tier)}
	if tier != req.Difficulty {
		reasons = append(reasons, "stretch tier")
	}
	if fit > 0 {
		reasons = append(reasons, fmt.Sprintf("context fit %.2f", fit))
	}

	return vocab.Candidate{
		Word:            word,
		Score:           score * 100,
		NoveltyScore:    novelty,
		DifficultyScore: tier.Norm(),
		ReviewUrgency:   0.3,
		LastUsedDays:    -1,
		MasteryLevel:    1,
		IsNew:           true,
		Category:        vocab.CategoryNovel,
		Reasons:         reasons,
	}, true
}

// TrackIntroduction records word as introduced: a level-1 record with no
// reviews (kept as is when one exists) plus an introduction event that
// counts against the novelty budget.
func (p *Policy) TrackIntroduction(ctx context.Context, userID, language, word, sessionID string) error {
	word = vocab.Normalize(word)
	now := p.now().UTC()
	_, err := p.perf.Update(ctx, performance.Key(userID, word, language), func(rec *store.PerformanceRecord, exists bool) error {
		if !exists {
			rec.MasteryLevel = 1
			rec.NextReviewDate = now
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("track novelty introduction: %w", err)
	}
	if err := p.intros.AppendIntroduction(ctx, store.NoveltyIntroduction{
		UserID:       userID,
		Language:     language,
		Word:         word,
		SessionID:    sessionID,
		IntroducedAt: now,
	}); err != nil {
		return fmt.Errorf("track novelty introduction: %w", err)
	}
	return nil
}
