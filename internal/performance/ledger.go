// Package performance provides the ledger of per-word learning history.
package performance

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/abhisek/wordwise/internal/mastery"
	"github.com/abhisek/wordwise/internal/store"
	"github.com/abhisek/wordwise/internal/vocab"
)

// Ledger reads and writes performance records. Updates to the same key are
// serialized in-process and re-read inside a store transaction, so
// concurrent answers for one word never lose an increment.
type Ledger struct {
	repo   store.PerformanceRepo
	logger *zap.Logger

	mu    sync.Mutex
	locks map[store.PerformanceKey]*keyLock
}

type keyLock struct {
	mu   sync.Mutex
	refs int
}

// NewLedger creates a ledger over repo.
func NewLedger(repo store.PerformanceRepo, logger *zap.Logger) *Ledger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ledger{
		repo:   repo,
		logger: logger,
		locks:  make(map[store.PerformanceKey]*keyLock),
	}
}

// Key builds a normalized record key.
func Key(userID, word, language string) store.PerformanceKey {
	return store.PerformanceKey{UserID: userID, Word: vocab.Normalize(word), Language: language}
}

// Get returns the record for key, or nil when the word was never seen.
func (l *Ledger) Get(ctx context.Context, key store.PerformanceKey) (*store.PerformanceRecord, error) {
	key.Word = vocab.Normalize(key.Word)
	return l.repo.GetPerformance(ctx, key)
}

// Upsert writes rec directly. Use Update for read-modify-write.
func (l *Ledger) Upsert(ctx context.Context, rec *store.PerformanceRecord) error {
	rec.Word = vocab.Normalize(rec.Word)
	unlock := l.lock(rec.Key())
	defer unlock()
	return l.repo.UpsertPerformance(ctx, rec)
}

// Update applies fn to a freshly read record under the key's lock and
// persists the result. fn sees a level-1 record with zero reviews when
// none exists.
func (l *Ledger) Update(ctx context.Context, key store.PerformanceKey, fn func(rec *store.PerformanceRecord, exists bool) error) (*store.PerformanceRecord, error) {
	key.Word = vocab.Normalize(key.Word)
	if key.Word == "" {
		return nil, fmt.Errorf("update performance: empty word")
	}
	unlock := l.lock(key)
	defer unlock()

	rec, err := l.repo.UpdatePerformance(ctx, key, fn)
	if err != nil {
		l.logger.Debug("performance update failed",
			zap.String("user_id", key.UserID),
			zap.String("language", key.Language),
			zap.String("word", key.Word),
			zap.Error(err))
		return nil, fmt.Errorf("update performance %s/%s: %w", key.Language, key.Word, err)
	}
	return rec, nil
}

// ListDue returns records due for review at now, most overdue first.
func (l *Ledger) ListDue(ctx context.Context, userID, language string, now time.Time, limit int) ([]store.PerformanceRecord, error) {
	return l.repo.ListDue(ctx, userID, language, now, limit)
}

// ListStruggling returns struggling records, worst first.
func (l *Ledger) ListStruggling(ctx context.Context, userID, language string, threshold float64, minReviews, limit int) ([]store.PerformanceRecord, error) {
	return l.repo.ListStruggling(ctx, userID, language, threshold, minReviews, limit)
}

// MasteryScore returns the record's mastery score in [0,100]; 0 for nil.
func (l *Ledger) MasteryScore(rec *store.PerformanceRecord) float64 {
	return MasteryScore(rec)
}

// MasteryScore returns the record's mastery score in [0,100]; 0 for nil.
func MasteryScore(rec *store.PerformanceRecord) float64 {
	if rec == nil {
		return 0
	}
	return mastery.Score(rec.MasteryLevel, rec.Accuracy())
}

func (l *Ledger) lock(key store.PerformanceKey) func() {
	l.mu.Lock()
	kl := l.locks[key]
	if kl == nil {
		kl = &keyLock{}
		l.locks[key] = kl
	}
	kl.refs++
	l.mu.Unlock()

	kl.mu.Lock()
	return func() {
		kl.mu.Unlock()
		l.mu.Lock()
		kl.refs--
		if kl.refs == 0 {
			delete(l.locks, key)
		}
		l.mu.Unlock()
	}
}
