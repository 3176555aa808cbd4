package store

import (
	"context"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/wordwise/internal/vocab"
)

type vocabularyRepo struct {
	base
}

func (r *vocabularyRepo) WordsFor(ctx context.Context, language string, tier vocab.Difficulty) ([]string, error) {
	b := r.builder()
	query, args := b.Select("word").
		From(b.Table(tableVocabulary)).
		Where(entsql.And(
			entsql.EQ("language", language),
			entsql.EQ("tier", int(tier)),
		)).
		OrderBy(entsql.Asc("id")).
		Query()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("vocabulary for %s/%s: %w", language, tier, err)
	}
	defer rows.Close()

	var words []string
	for rows.Next() {
		var w string
		if err := rows.Scan(&w); err != nil {
			return nil, fmt.Errorf("scan vocabulary: %w", err)
		}
		words = append(words, w)
	}
	return words, rows.Err()
}

// AddWords inserts words into the tier's pool, ignoring ones already
// present. It returns the number of new rows.
func (r *vocabularyRepo) AddWords(ctx context.Context, language string, tier vocab.Difficulty, words []string) (int, error) {
	if !tier.Valid() {
		return 0, fmt.Errorf("add words: %w: %d", vocab.ErrUnknownDifficulty, int(tier))
	}
	added := 0
	for _, w := range words {
		w = vocab.Normalize(w)
		if w == "" {
			continue
		}
		query, args := r.builder().Insert(tableVocabulary).
			Columns("language", "tier", "word").
			Values(language, int(tier), w).
			OnConflict(
				entsql.ConflictColumns("language", "tier", "word"),
				entsql.DoNothing(),
			).
			Query()
		res, err := r.db.ExecContext(ctx, query, args...)
		if err != nil {
			return added, fmt.Errorf("add word %q: %w", w, err)
		}
		if n, err := res.RowsAffected(); err == nil {
			added += int(n)
		}
	}
	return added, nil
}
