// Package selection picks the words for each practice request.
package selection

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/abhisek/wordwise/internal/metrics"
	"github.com/abhisek/wordwise/internal/novelty"
	"github.com/abhisek/wordwise/internal/scorer"
	"github.com/abhisek/wordwise/internal/vocab"
)

// Scorer ranks candidate words.
type Scorer interface {
	Score(ctx context.Context, req scorer.Request) ([]vocab.Candidate, error)
}

// NoveltyPolicy decides on and picks novel words.
type NoveltyPolicy interface {
	BuildProfile(ctx context.Context, userID, language string, lookback time.Duration) (novelty.Profile, error)
	ShouldInject(prof novelty.Profile, sessionProgress float64, cfg vocab.SelectionConfig) novelty.Decision
	SelectNoveltyWords(ctx context.Context, req novelty.SelectRequest, cfg vocab.SelectionConfig) ([]vocab.Candidate, error)
	TrackIntroduction(ctx context.Context, userID, language, word, sessionID string) error
}

// UsageTracker records presented words and reports session usage.
type UsageTracker interface {
	TrackUsage(ctx context.Context, sessionID string, words []string) error
	UsageStats(ctx context.Context, sessionID string, lookback time.Duration) (map[string]int, error)
}

// Orchestrator is the public entry point for word selection.
type Orchestrator struct {
	provider vocab.Provider
	scorer   Scorer
	novelty  NoveltyPolicy
	usage    UsageTracker
	logger   *zap.Logger
}

// NewOrchestrator wires the selection pipeline.
func NewOrchestrator(provider vocab.Provider, sc Scorer, nov NoveltyPolicy, usage UsageTracker, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		provider: provider,
		scorer:   sc,
		novelty:  nov,
		usage:    usage,
		logger:   logger,
	}
}

// Select returns at most req.TargetCount words. It never fails: scoring
// errors fall back to a slice of the raw pool, and an empty pool yields
// an empty result with zero quality. A nil cfg uses the defaults.
func (o *Orchestrator) Select(ctx context.Context, req Request, cfg *vocab.SelectionConfig) (res *Result) {
	start := time.Now()
	c := vocab.Resolve(cfg)
	if err := c.Validate(); err != nil {
		o.logger.Warn("invalid selection config, using defaults", zap.Error(err))
		c = vocab.DefaultSelectionConfig()
	}
	log := o.logger.With(
		zap.String("user_id", req.UserID),
		zap.String("language", req.Language),
		zap.String("session_id", req.SessionID))

	if req.TargetCount <= 0 {
		return &Result{}
	}

	callCtx := ctx
	if c.StoreTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, c.StoreTimeout)
		defer cancel()
	}

	pool, err := o.provider.WordsFor(callCtx, req.Language, req.Difficulty)
	if err != nil {
		log.Warn("candidate pool unavailable", zap.Error(err))
		metrics.RecordSelection(metrics.OutcomeFallback, 0, time.Since(start).Seconds())
		return &Result{Degraded: true, Reason: fmt.Sprintf("candidate pool unavailable: %v", err)}
	}
	if len(pool) == 0 {
		metrics.RecordSelection(metrics.OutcomeEmpty, 0, time.Since(start).Seconds())
		return &Result{Reason: "empty candidate pool"}
	}

	defer func() {
		if r := recover(); r != nil {
			log.Error("selection panicked, using fallback", zap.Any("panic", r))
			res = fallback(pool, req.TargetCount, fmt.Sprintf("selection failed: %v", r))
			metrics.RecordSelection(metrics.OutcomeFallback, res.SelectionQuality, time.Since(start).Seconds())
		}
	}()

	res, err = o.selectFrom(callCtx, log, pool, req, c)
	if err != nil {
		log.Warn("selection degraded to fallback", zap.Error(err))
		res = fallback(pool, req.TargetCount, err.Error())
		metrics.RecordSelection(metrics.OutcomeFallback, res.SelectionQuality, time.Since(start).Seconds())
		return res
	}

	metrics.RecordSelection(metrics.OutcomeOK, res.SelectionQuality, time.Since(start).Seconds())
	for cat, n := range res.CountByCategory() {
		metrics.SelectedWords.WithLabelValues(string(cat)).Add(float64(n))
	}
	return res
}

func (o *Orchestrator) selectFrom(ctx context.Context, log *zap.Logger, pool []string, req Request, cfg vocab.SelectionConfig) (*Result, error) {
	scored, err := o.scorer.Score(ctx, scorer.Request{
		Words:               pool,
		UserID:              req.UserID,
		Language:            req.Language,
		SessionID:           req.SessionID,
		Lookback:            cfg.CooldownLookback,
		StrugglingThreshold: cfg.StrugglingThreshold,
	})
	if err != nil {
		return nil, err
	}

	eligible := filter(scored, cfg)
	b := partition(eligible, cfg)
	target := req.TargetCount
	p := newPicker(target)

	p.take(b.struggling, quota(target, cfg.StrugglingWordRatio), vocab.CategoryStruggling)
	p.take(b.review, quota(target, cfg.ReviewWordRatio), vocab.CategoryReview)
	p.take(b.fresh, quota(target, cfg.NewWordRatio), vocab.CategoryNew)

	decision := o.noveltyDecision(ctx, log, req, cfg)
	if decision.Inject {
		limit := quota(target, cfg.NoveltyWordRatio)
		added := o.takeNovel(ctx, log, p, scored, limit, req, cfg, decision)
		p.take(b.novel, limit-added, vocab.CategoryNovel)
	}

	p.backfill(eligible)

	quality, diversity := diagnostics(p.picked)
	return &Result{
		SelectedWords:    p.words(),
		Candidates:       p.picked,
		SelectionQuality: quality,
		DiversityScore:   diversity,
		NoveltyDecision:  decision.Decision,
	}, nil
}

type injection struct {
	novelty.Decision
	profile novelty.Profile
}

func (o *Orchestrator) noveltyDecision(ctx context.Context, log *zap.Logger, req Request, cfg vocab.SelectionConfig) injection {
	if o.novelty == nil {
		return injection{Decision: novelty.Decision{Reason: "novelty disabled"}}
	}
	prof, err := o.novelty.BuildProfile(ctx, req.UserID, req.Language, cfg.NoveltyLookback)
	if err != nil {
		log.Warn("novelty profile unavailable", zap.Error(err))
		return injection{Decision: novelty.Decision{Reason: "novelty profile unavailable"}}
	}
	return injection{
		Decision: o.novelty.ShouldInject(prof, req.SessionProgress, cfg),
		profile:  prof,
	}
}

// takeNovel picks words from the novelty policy's own pool, avoiding
// anything already selected or shown in the session. The policy pool spans
// tiers that were never scored, so session usage is read directly.
func (o *Orchestrator) takeNovel(ctx context.Context, log *zap.Logger, p *picker, scored []vocab.Candidate, limit int, req Request, cfg vocab.SelectionConfig, d injection) int {
	if limit <= 0 || p.remaining() <= 0 {
		return 0
	}
	avoid := p.words()
	for _, c := range scored {
		if c.UsageFrequency > 0 {
			avoid = append(avoid, c.Word)
		}
	}
	if o.usage != nil {
		stats, err := o.usage.UsageStats(ctx, req.SessionID, max(cfg.CooldownLookback, cfg.RecentUseWindow))
		if err != nil {
			log.Warn("session usage unavailable, skipping novel words", zap.Error(err))
			return 0
		}
		for w, n := range stats {
			if n > 0 {
				avoid = append(avoid, w)
			}
		}
	}
	words, err := o.novelty.SelectNoveltyWords(ctx, novelty.SelectRequest{
		Profile:      d.profile,
		UserID:       req.UserID,
		Language:     req.Language,
		Difficulty:   req.Difficulty,
		ContextHints: req.ContextHints,
		AvoidWords:   avoid,
		TargetCount:  limit,
	}, cfg)
	if err != nil {
		log.Warn("novelty word selection failed", zap.Error(err))
		return 0
	}
	return p.take(words, limit, vocab.CategoryNovel)
}

func fallback(pool []string, target int, reason string) *Result {
	n := min(target, len(pool))
	res := &Result{
		SelectedWords:    make([]string, 0, n),
		Candidates:       make([]vocab.Candidate, 0, n),
		SelectionQuality: FallbackQuality,
		DiversityScore:   FallbackDiversity,
		Degraded:         true,
		Reason:           reason,
	}
	for _, w := range pool[:n] {
		res.SelectedWords = append(res.SelectedWords, w)
		res.Candidates = append(res.Candidates, vocab.Candidate{
			Word:         w,
			LastUsedDays: -1,
			Category:     vocab.CategoryBackfill,
			Reasons:      []string{"fallback"},
		})
	}
	return res
}

// MarkPresented records that res was shown to the learner: one usage
// event for the selected words and a novelty introduction for each novel
// word. Call it once per presentation.
func (o *Orchestrator) MarkPresented(ctx context.Context, req Request, res *Result) error {
	if res == nil || len(res.SelectedWords) == 0 {
		return nil
	}
	var errs []error
	if o.usage != nil {
		if err := o.usage.TrackUsage(ctx, req.SessionID, res.SelectedWords); err != nil {
			errs = append(errs, err)
		}
	}
	if o.novelty != nil {
		for _, c := range res.Candidates {
			if c.Category != vocab.CategoryNovel || !c.IsNew {
				continue
			}
			if err := o.novelty.TrackIntroduction(ctx, req.UserID, req.Language, c.Word, req.SessionID); err != nil {
				errs = append(errs, err)
			}
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("mark presented: %w", err)
	}
	return nil
}
