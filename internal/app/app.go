// Package app wires the selection engine from configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"

	"github.com/abhisek/wordwise/internal/config"
	"github.com/abhisek/wordwise/internal/contextfit"
	"github.com/abhisek/wordwise/internal/cooldown"
	"github.com/abhisek/wordwise/internal/novelty"
	"github.com/abhisek/wordwise/internal/performance"
	"github.com/abhisek/wordwise/internal/scorer"
	"github.com/abhisek/wordwise/internal/selection"
	"github.com/abhisek/wordwise/internal/spacedrep"
	"github.com/abhisek/wordwise/internal/store"
	"github.com/abhisek/wordwise/internal/vocab"
)

// RandomSource yields uniform values in [0,1).
type RandomSource interface {
	Float64() float64
}

type systemRand struct{}

func (systemRand) Float64() float64 { return rand.Float64() }

// Options configures New. Zero fields take defaults.
type Options struct {
	Config *config.Config
	// DBPath is the SQLite file used when Config.Database.DSN is empty.
	DBPath string
	Logger *zap.Logger
	Rand   RandomSource
	Now    func() time.Time
}

// Engine holds the wired components. Close releases the store and Redis.
type Engine struct {
	Config     config.Config
	Store      *store.Store
	Vocabulary store.VocabularyRepo
	Ledger     *performance.Ledger
	Scheduler  *spacedrep.Scheduler
	Cooldown   *cooldown.Tracker
	Scorer     *scorer.Scorer
	Novelty    *novelty.Policy
	Selector   *selection.Orchestrator
	Logger     *zap.Logger

	closers []func() error
}

// New opens the store and builds every component. When Redis is
// configured the session exercise log lives there instead of SQL.
func New(ctx context.Context, opts Options) (*Engine, error) {
	cfg := config.Defaults()
	if opts.Config != nil {
		cfg = *opts.Config
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	rnd := opts.Rand
	if rnd == nil {
		rnd = systemRand{}
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	dsn := cfg.Database.DSN
	if dsn == "" {
		dsn = opts.DBPath
	}
	if dsn == "" {
		return nil, errors.New("no database configured")
	}
	st, err := store.OpenDriver(cfg.Database.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	e := &Engine{
		Config:     cfg,
		Store:      st,
		Vocabulary: st.VocabularyRepo(),
		Logger:     logger,
		closers:    []func() error{st.Close},
	}

	var exercises store.ExerciseRepo = st.ExerciseRepo()
	if cfg.Redis.Addr != "" {
		rlog, err := store.OpenRedisExerciseLog(ctx, cfg.Redis)
		if err != nil {
			e.Close()
			return nil, fmt.Errorf("open redis exercise log: %w", err)
		}
		e.closers = append(e.closers, rlog.Close)
		exercises = rlog
		logger.Debug("using redis exercise log", zap.String("addr", cfg.Redis.Addr))
	}

	if cfg.Vocabulary.File != "" {
		ic := vocab.DefaultImportConfig()
		ic.FilePath = cfg.Vocabulary.File
		res, err := vocab.ImportFile(ctx, e.Vocabulary, ic)
		if err != nil {
			e.Close()
			return nil, fmt.Errorf("load vocabulary: %w", err)
		}
		logger.Debug("loaded vocabulary",
			zap.String("file", cfg.Vocabulary.File),
			zap.Int("added", res.Added),
			zap.Int("skipped", res.Skipped))
	}

	var matcher contextfit.Matcher = contextfit.KeywordMatcher{}
	if cfg.Embeddings.Enabled() {
		matcher = contextfit.NewEmbeddingMatcher(
			contextfit.WithRetry(contextfit.NewOpenAIEmbedder(cfg.Embeddings), cfg.Embeddings.Retry),
			matcher, logger)
	}

	e.Ledger = performance.NewLedger(st.PerformanceRepo(), logger)
	e.Scheduler = spacedrep.NewScheduler(e.Ledger, cfg.Scheduler,
		spacedrep.WithAnswerLog(st.AnswerRepo()),
		spacedrep.WithClock(now),
		spacedrep.WithLogger(logger))

	e.Cooldown = cooldown.NewTracker(exercises, cfg.Cooldown, logger)
	e.Cooldown.SetClock(now)

	sc := scorer.DefaultConfig()
	sc.StrugglingThreshold = cfg.Scheduler.StrugglingThreshold
	sc.StrugglingMinReviews = cfg.Scheduler.StrugglingMinReviews
	e.Scorer = scorer.New(e.Ledger, e.Cooldown, sc, rnd, logger)
	e.Scorer.SetClock(now)

	e.Novelty = novelty.NewPolicy(e.Ledger, e.Vocabulary, st.AnswerRepo(), st.NoveltyRepo(),
		novelty.WithMatcher(matcher),
		novelty.WithRand(rnd),
		novelty.WithClock(now),
		novelty.WithLogger(logger))

	e.Selector = selection.NewOrchestrator(e.Vocabulary, e.Scorer, e.Novelty, e.Cooldown, logger)
	return e, nil
}

// SelectionConfig returns a copy of the configured selection parameters.
func (e *Engine) SelectionConfig() *vocab.SelectionConfig {
	c := e.Config.Selection
	return &c
}

// Close releases resources in reverse order of acquisition.
func (e *Engine) Close() error {
	var errs []error
	for i := len(e.closers) - 1; i >= 0; i-- {
		if err := e.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	e.closers = nil
	return errors.Join(errs...)
}
