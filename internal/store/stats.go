package store

import (
	"context"
	"database/sql"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"
)

// LevelStat aggregates the records at one mastery level.
type LevelStat struct {
	Level   int
	Words   int
	Reviews int
	Correct int
}

// StatsRepo provides reporting aggregates over performance records.
type StatsRepo interface {
	// LevelStats returns one row per populated mastery level, lowest first.
	LevelStats(ctx context.Context, userID, language string) ([]LevelStat, error)
}

type statsRepo struct {
	base
}

func (r *statsRepo) LevelStats(ctx context.Context, userID, language string) ([]LevelStat, error) {
	b := r.builder()
	query, args := b.Select(
		"mastery_level",
		entsql.As(entsql.Count("*"), "words"),
		entsql.As(entsql.Sum("total_reviews"), "reviews"),
		entsql.As(entsql.Sum("correct_reviews"), "correct"),
	).
		From(b.Table(tableWordPerformance)).
		Where(entsql.And(
			entsql.EQ("user_id", userID),
			entsql.EQ("language", language),
		)).
		GroupBy("mastery_level").
		OrderBy(entsql.Asc("mastery_level")).
		Query()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("level stats: %w", err)
	}
	defer rows.Close()

	var out []LevelStat
	for rows.Next() {
		var (
			st               LevelStat
			reviews, correct sql.NullInt64
		)
		if err := rows.Scan(&st.Level, &st.Words, &reviews, &correct); err != nil {
			return nil, fmt.Errorf("scan level stat: %w", err)
		}
		st.Reviews = int(reviews.Int64)
		st.Correct = int(correct.Int64)
		out = append(out, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("level stats: %w", err)
	}
	return out, nil
}
