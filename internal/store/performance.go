package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
)

var performanceColumns = []string{
	"user_id", "word", "language",
	"total_reviews", "correct_reviews", "mastery_level",
	"last_reviewed_at", "next_review_at", "created_at", "updated_at",
}

type performanceRepo struct {
	base
}

func (r *performanceRepo) GetPerformance(ctx context.Context, key PerformanceKey) (*PerformanceRecord, error) {
	rec, err := r.get(ctx, r.db, key, false)
	if err != nil {
		return nil, fmt.Errorf("get performance: %w", err)
	}
	return rec, nil
}

func (r *performanceRepo) UpsertPerformance(ctx context.Context, rec *PerformanceRecord) error {
	if err := r.upsert(ctx, r.db, rec); err != nil {
		return fmt.Errorf("upsert performance: %w", err)
	}
	return nil
}

func (r *performanceRepo) UpdatePerformance(ctx context.Context, key PerformanceKey, fn func(rec *PerformanceRecord, exists bool) error) (*PerformanceRecord, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	rec, err := r.get(ctx, tx, key, r.dialect == dialect.Postgres)
	if err != nil {
		return nil, fmt.Errorf("read performance: %w", err)
	}
	exists := rec != nil
	if !exists {
		rec = &PerformanceRecord{
			UserID:       key.UserID,
			Word:         key.Word,
			Language:     key.Language,
			MasteryLevel: 1,
		}
	}
	if err := fn(rec, exists); err != nil {
		return nil, err
	}
	if err := r.upsert(ctx, tx, rec); err != nil {
		return nil, fmt.Errorf("write performance: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return rec, nil
}

func (r *performanceRepo) ListDue(ctx context.Context, userID, language string, now time.Time, limit int) ([]PerformanceRecord, error) {
	b := r.builder()
	q := b.Select(performanceColumns...).
		From(b.Table(tableWordPerformance)).
		Where(entsql.And(
			entsql.EQ("user_id", userID),
			entsql.EQ("language", language),
			entsql.GT("total_reviews", 0),
			entsql.LTE("next_review_at", now.UnixMilli()),
		)).
		OrderBy(entsql.Asc("next_review_at"), entsql.Asc("word"))
	if limit > 0 {
		q.Limit(limit)
	}
	recs, err := r.list(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list due: %w", err)
	}
	return recs, nil
}

func (r *performanceRepo) ListStruggling(ctx context.Context, userID, language string, threshold float64, minReviews, limit int) ([]PerformanceRecord, error) {
	b := r.builder()
	q := b.Select(performanceColumns...).
		From(b.Table(tableWordPerformance)).
		Where(entsql.And(
			entsql.EQ("user_id", userID),
			entsql.EQ("language", language),
			entsql.GTE("total_reviews", minReviews),
			entsql.GT("total_reviews", 0),
			entsql.ExprP(fmt.Sprintf("correct_reviews < total_reviews * %g", threshold)),
		)).
		OrderBy(entsql.Asc("correct_reviews"), entsql.Asc("word"))
	if limit > 0 {
		q.Limit(limit)
	}
	recs, err := r.list(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list struggling: %w", err)
	}
	return recs, nil
}

func (r *performanceRepo) get(ctx context.Context, qr querier, key PerformanceKey, lock bool) (*PerformanceRecord, error) {
	b := r.builder()
	q := b.Select(performanceColumns...).
		From(b.Table(tableWordPerformance)).
		Where(entsql.And(
			entsql.EQ("user_id", key.UserID),
			entsql.EQ("word", key.Word),
			entsql.EQ("language", key.Language),
		)).
		Limit(1)
	if lock {
		q.ForUpdate()
	}
	query, args := q.Query()
	rows, err := qr.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	if !rows.Next() {
		return nil, rows.Err()
	}
	rec, err := scanPerformance(rows)
	if err != nil {
		return nil, err
	}
	return rec, rows.Err()
}

func (r *performanceRepo) upsert(ctx context.Context, qr querier, rec *PerformanceRecord) error {
	now := time.Now().UTC()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now

	query, args := r.builder().Insert(tableWordPerformance).
		Columns(performanceColumns...).
		Values(
			rec.UserID, rec.Word, rec.Language,
			rec.TotalReviews, rec.CorrectReviews, rec.MasteryLevel,
			toMillis(rec.LastReviewedAt), toMillis(rec.NextReviewDate),
			toMillis(rec.CreatedAt), toMillis(rec.UpdatedAt),
		).
		OnConflict(
			entsql.ConflictColumns("user_id", "word", "language"),
			entsql.ResolveWith(func(u *entsql.UpdateSet) {
				u.SetExcluded("total_reviews")
				u.SetExcluded("correct_reviews")
				u.SetExcluded("mastery_level")
				u.SetExcluded("last_reviewed_at")
				u.SetExcluded("next_review_at")
				u.SetExcluded("updated_at")
			}),
		).
		Query()
	_, err := qr.ExecContext(ctx, query, args...)
	return err
}

func (r *performanceRepo) list(ctx context.Context, q *entsql.Selector) ([]PerformanceRecord, error) {
	query, args := q.Query()
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PerformanceRecord
	for rows.Next() {
		rec, err := scanPerformance(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

func scanPerformance(rows *sql.Rows) (*PerformanceRecord, error) {
	var (
		rec                                    PerformanceRecord
		lastReviewed, nextReview, created, upd int64
	)
	if err := rows.Scan(
		&rec.UserID, &rec.Word, &rec.Language,
		&rec.TotalReviews, &rec.CorrectReviews, &rec.MasteryLevel,
		&lastReviewed, &nextReview, &created, &upd,
	); err != nil {
		return nil, fmt.Errorf("scan performance: %w", err)
	}
	rec.LastReviewedAt = fromMillis(lastReviewed)
	rec.NextReviewDate = fromMillis(nextReview)
	rec.CreatedAt = fromMillis(created)
	rec.UpdatedAt = fromMillis(upd)
	return &rec, nil
}
