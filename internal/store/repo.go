package store

import (
	"context"
	"database/sql"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/wordwise/internal/vocab"
)

// PerformanceKey identifies a performance record.
type PerformanceKey struct {
	UserID   string
	Word     string
	Language string
}

// PerformanceRecord is the per user×word×language learning history.
// Counters never decrease and records are never deleted.
type PerformanceRecord struct {
	UserID         string
	Word           string
	Language       string
	TotalReviews   int
	CorrectReviews int
	MasteryLevel   int
	LastReviewedAt time.Time // zero when never reviewed
	NextReviewDate time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Key returns the record's identity.
func (r *PerformanceRecord) Key() PerformanceKey {
	return PerformanceKey{UserID: r.UserID, Word: r.Word, Language: r.Language}
}

// Accuracy is correct/total, 0 when there are no reviews.
func (r *PerformanceRecord) Accuracy() float64 {
	if r.TotalReviews == 0 {
		return 0
	}
	return float64(r.CorrectReviews) / float64(r.TotalReviews)
}

// IsDue reports whether the next review date is at or before now.
func (r *PerformanceRecord) IsDue(now time.Time) bool {
	return !now.Before(r.NextReviewDate)
}

// IsStruggling reports accuracy below threshold with enough reviews to judge.
func (r *PerformanceRecord) IsStruggling(threshold float64, minReviews int) bool {
	return r.TotalReviews >= minReviews && r.Accuracy() < threshold
}

// DaysSinceReview returns fractional days since the last review, or -1
// when the word was never reviewed.
func (r *PerformanceRecord) DaysSinceReview(now time.Time) float64 {
	if r.LastReviewedAt.IsZero() {
		return -1
	}
	d := now.Sub(r.LastReviewedAt).Hours() / 24.0
	if d < 0 {
		return 0
	}
	return d
}

// PerformanceRepo persists performance records.
type PerformanceRepo interface {
	// GetPerformance returns the record, or nil when none exists.
	GetPerformance(ctx context.Context, key PerformanceKey) (*PerformanceRecord, error)

	// UpsertPerformance writes the record keyed by (user, word, language).
	UpsertPerformance(ctx context.Context, rec *PerformanceRecord) error

	// UpdatePerformance re-reads the record inside a transaction, applies
	// fn and writes the result. fn receives a fresh level-1 record when
	// none exists (exists=false).
	UpdatePerformance(ctx context.Context, key PerformanceKey, fn func(rec *PerformanceRecord, exists bool) error) (*PerformanceRecord, error)

	// ListDue returns reviewed records due at now, most overdue first, ties
	// by word. Words never reviewed are new, not due.
	ListDue(ctx context.Context, userID, language string, now time.Time, limit int) ([]PerformanceRecord, error)

	// ListStruggling returns records with at least minReviews reviews and
	// accuracy below threshold, fewest correct reviews first.
	ListStruggling(ctx context.Context, userID, language string, threshold float64, minReviews, limit int) ([]PerformanceRecord, error)
}

// Exercise is one presented exercise and the words it targeted.
type Exercise struct {
	ID          string
	SessionID   string
	TargetWords []string
	CreatedAt   time.Time
}

// ExerciseRepo is the session exercise log.
type ExerciseRepo interface {
	AppendExercise(ctx context.Context, ex Exercise) error

	// RecentExercises returns exercises of the session created at or after
	// since, oldest first.
	RecentExercises(ctx context.Context, sessionID string, since time.Time) ([]Exercise, error)
}

// AnswerEvent records one answered exercise for one word.
type AnswerEvent struct {
	SessionID  string
	UserID     string
	Word       string
	Language   string
	Correct    bool
	AnsweredAt time.Time
}

// SessionStat aggregates the answers of one session.
type SessionStat struct {
	SessionID      string
	Answers        int
	Correct        int
	LastAnsweredAt time.Time
}

// Accuracy is correct/answers, 0 for an empty session.
func (s SessionStat) Accuracy() float64 {
	if s.Answers == 0 {
		return 0
	}
	return float64(s.Correct) / float64(s.Answers)
}

// AnswerRepo persists answer events.
type AnswerRepo interface {
	AppendAnswer(ctx context.Context, ev AnswerEvent) error

	// RecentSessions returns per-session aggregates for the user and
	// language, most recent session first.
	RecentSessions(ctx context.Context, userID, language string, limit int) ([]SessionStat, error)
}

// NoveltyIntroduction records a novel word shown to a learner.
type NoveltyIntroduction struct {
	UserID       string
	Language     string
	Word         string
	SessionID    string
	IntroducedAt time.Time
}

// NoveltyRepo persists novelty introductions.
type NoveltyRepo interface {
	AppendIntroduction(ctx context.Context, intro NoveltyIntroduction) error
	CountIntroductions(ctx context.Context, userID, language string, since time.Time) (int, error)
}

// VocabularyRepo stores candidate pools.
type VocabularyRepo interface {
	vocab.Provider
	vocab.Sink
}

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// base carries what every SQL repo needs.
type base struct {
	db      *sql.DB
	dialect string
}

// builder returns an ent SQL builder for the store's dialect.
func (b base) builder() *entsql.DialectBuilder {
	return entsql.Dialect(b.dialect)
}

func toMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}
