package store

import (
	"context"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

type noveltyRepo struct {
	base
}

func (r *noveltyRepo) AppendIntroduction(ctx context.Context, intro NoveltyIntroduction) error {
	if intro.IntroducedAt.IsZero() {
		intro.IntroducedAt = time.Now().UTC()
	}
	query, args := r.builder().Insert(tableNoveltyIntroductions).
		Columns("user_id", "language", "word", "session_id", "introduced_at").
		Values(intro.UserID, intro.Language, intro.Word, intro.SessionID, toMillis(intro.IntroducedAt)).
		Query()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("append novelty introduction: %w", err)
	}
	return nil
}

func (r *noveltyRepo) CountIntroductions(ctx context.Context, userID, language string, since time.Time) (int, error) {
	b := r.builder()
	query, args := b.Select(entsql.Count("*")).
		From(b.Table(tableNoveltyIntroductions)).
		Where(entsql.And(
			entsql.EQ("user_id", userID),
			entsql.EQ("language", language),
			entsql.GTE("introduced_at", toMillis(since)),
		)).
		Query()

	var n int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count novelty introductions: %w", err)
	}
	return n, nil
}
