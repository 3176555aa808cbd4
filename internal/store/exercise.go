package store

import (
	"context"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"
)

type exerciseRepo struct {
	base
}

func (r *exerciseRepo) AppendExercise(ctx context.Context, ex Exercise) error {
	if len(ex.TargetWords) == 0 {
		return nil
	}
	if ex.ID == "" {
		ex.ID = uuid.NewString()
	}
	if ex.CreatedAt.IsZero() {
		ex.CreatedAt = time.Now().UTC()
	}

	ins := r.builder().Insert(tableExerciseWords).
		Columns("exercise_id", "session_id", "word", "position", "created_at")
	for i, w := range ex.TargetWords {
		ins.Values(ex.ID, ex.SessionID, w, i, toMillis(ex.CreatedAt))
	}
	query, args := ins.Query()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("append exercise: %w", err)
	}
	return nil
}

func (r *exerciseRepo) RecentExercises(ctx context.Context, sessionID string, since time.Time) ([]Exercise, error) {
	b := r.builder()
	query, args := b.Select("exercise_id", "word", "created_at").
		From(b.Table(tableExerciseWords)).
		Where(entsql.And(
			entsql.EQ("session_id", sessionID),
			entsql.GTE("created_at", toMillis(since)),
		)).
		OrderBy(entsql.Asc("created_at"), entsql.Asc("id")).
		Query()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("recent exercises: %w", err)
	}
	defer rows.Close()

	var (
		out   []Exercise
		index = make(map[string]int)
	)
	for rows.Next() {
		var (
			id, word string
			created  int64
		)
		if err := rows.Scan(&id, &word, &created); err != nil {
			return nil, fmt.Errorf("scan exercise: %w", err)
		}
		i, ok := index[id]
		if !ok {
			i = len(out)
			index[id] = i
			out = append(out, Exercise{ID: id, SessionID: sessionID, CreatedAt: fromMillis(created)})
		}
		out[i].TargetWords = append(out[i].TargetWords, word)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("recent exercises: %w", err)
	}
	return out, nil
}
