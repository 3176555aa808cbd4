package spacedrep

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/abhisek/wordwise/internal/mastery"
	"github.com/abhisek/wordwise/internal/metrics"
	"github.com/abhisek/wordwise/internal/performance"
	"github.com/abhisek/wordwise/internal/store"
	"github.com/abhisek/wordwise/internal/vocab"
)

// Answer is one answered exercise for one word.
type Answer struct {
	UserID    string
	Word      string
	Language  string
	SessionID string
	Correct   bool
}

// Scheduler owns the mastery state machine and review dates.
type Scheduler struct {
	ledger  *performance.Ledger
	answers store.AnswerRepo
	cfg     Config
	now     func() time.Time
	logger  *zap.Logger
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithAnswerLog records every answer as an event for novelty profiles.
func WithAnswerLog(repo store.AnswerRepo) Option {
	return func(s *Scheduler) { s.answers = repo }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Scheduler) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewScheduler creates a scheduler backed by the ledger.
func NewScheduler(ledger *performance.Ledger, cfg Config, opts ...Option) *Scheduler {
	s := &Scheduler{
		ledger: ledger,
		cfg:    cfg,
		now:    time.Now,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Config returns the scheduler's configuration.
func (s *Scheduler) Config() Config {
	return s.cfg
}

// RecordAnswer updates the word's counters, interval and mastery level.
// Returns a Transition if the level changed, nil otherwise.
func (s *Scheduler) RecordAnswer(ctx context.Context, a Answer) (*mastery.Transition, error) {
	word := vocab.Normalize(a.Word)
	if word == "" {
		return nil, fmt.Errorf("record answer: empty word")
	}
	now := s.now().UTC()
	rules := s.cfg.Rules()

	var transition *mastery.Transition
	_, err := s.ledger.Update(ctx, performance.Key(a.UserID, word, a.Language), func(rec *store.PerformanceRecord, _ bool) error {
		transition = nil
		level := mastery.Clamp(rec.MasteryLevel)

		rec.TotalReviews++
		if a.Correct {
			rec.CorrectReviews++
		}
		acc := rec.Accuracy()

		rec.LastReviewedAt = now
		rec.NextReviewDate = now.Add(s.cfg.Interval(level, a.Correct, acc))

		next, trigger := mastery.Next(level, rec.CorrectReviews, rec.TotalReviews, rules)
		rec.MasteryLevel = next
		if trigger != "" {
			transition = &mastery.Transition{
				UserID:   a.UserID,
				Word:     word,
				Language: a.Language,
				From:     level,
				To:       next,
				Trigger:  trigger,
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("record answer: %w", err)
	}

	metrics.RecordAnswer(a.Correct)
	if transition != nil {
		metrics.MasteryTransitions.WithLabelValues(string(transition.Trigger)).Inc()
		s.logger.Debug("mastery transition",
			zap.String("user_id", a.UserID),
			zap.String("language", a.Language),
			zap.String("word", word),
			zap.Int("from", transition.From),
			zap.Int("to", transition.To))
	}

	if s.answers != nil {
		ev := store.AnswerEvent{
			SessionID:  a.SessionID,
			UserID:     a.UserID,
			Word:       word,
			Language:   a.Language,
			Correct:    a.Correct,
			AnsweredAt: now,
		}
		if err := s.answers.AppendAnswer(ctx, ev); err != nil {
			s.logger.Warn("append answer event failed",
				zap.String("user_id", a.UserID),
				zap.String("session_id", a.SessionID),
				zap.String("word", word),
				zap.Error(err))
		}
	}
	return transition, nil
}

// WordsForReview returns words due at the current time, most overdue first.
func (s *Scheduler) WordsForReview(ctx context.Context, userID, language string, limit int) ([]string, error) {
	recs, err := s.DueRecords(ctx, userID, language, limit)
	if err != nil {
		return nil, err
	}
	return words(recs), nil
}

// DueRecords is WordsForReview returning full records.
func (s *Scheduler) DueRecords(ctx context.Context, userID, language string, limit int) ([]store.PerformanceRecord, error) {
	recs, err := s.ledger.ListDue(ctx, userID, language, s.now().UTC(), limit)
	if err != nil {
		return nil, fmt.Errorf("words for review: %w", err)
	}
	return recs, nil
}

// StrugglingWords returns words with enough reviews and accuracy below the
// struggling threshold, fewest correct answers first.
func (s *Scheduler) StrugglingWords(ctx context.Context, userID, language string, limit int) ([]string, error) {
	recs, err := s.StrugglingRecords(ctx, userID, language, limit)
	if err != nil {
		return nil, err
	}
	return words(recs), nil
}

// StrugglingRecords is StrugglingWords returning full records.
func (s *Scheduler) StrugglingRecords(ctx context.Context, userID, language string, limit int) ([]store.PerformanceRecord, error) {
	recs, err := s.ledger.ListStruggling(ctx, userID, language, s.cfg.StrugglingThreshold, s.cfg.StrugglingMinReviews, limit)
	if err != nil {
		return nil, fmt.Errorf("struggling words: %w", err)
	}
	return recs, nil
}

func words(recs []store.PerformanceRecord) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.Word
	}
	return out
}
