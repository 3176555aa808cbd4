package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

type answerRepo struct {
	base
}

func (r *answerRepo) AppendAnswer(ctx context.Context, ev AnswerEvent) error {
	if ev.AnsweredAt.IsZero() {
		ev.AnsweredAt = time.Now().UTC()
	}
	correct := 0
	if ev.Correct {
		correct = 1
	}
	query, args := r.builder().Insert(tableAnswerEvents).
		Columns("session_id", "user_id", "word", "language", "correct", "answered_at").
		Values(ev.SessionID, ev.UserID, ev.Word, ev.Language, correct, toMillis(ev.AnsweredAt)).
		Query()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("append answer: %w", err)
	}
	return nil
}

func (r *answerRepo) RecentSessions(ctx context.Context, userID, language string, limit int) ([]SessionStat, error) {
	b := r.builder()
	q := b.Select(
		"session_id",
		entsql.As(entsql.Count("*"), "answers"),
		entsql.As(entsql.Sum("correct"), "correct_count"),
		entsql.As(entsql.Max("answered_at"), "last_answered_at"),
	).
		From(b.Table(tableAnswerEvents)).
		Where(entsql.And(
			entsql.EQ("user_id", userID),
			entsql.EQ("language", language),
			entsql.NEQ("session_id", ""),
		)).
		GroupBy("session_id").
		OrderBy(entsql.Desc("last_answered_at"), entsql.Asc("session_id"))
	if limit > 0 {
		q.Limit(limit)
	}
	query, args := q.Query()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("recent sessions: %w", err)
	}
	defer rows.Close()

	var out []SessionStat
	for rows.Next() {
		var (
			st      SessionStat
			correct sql.NullInt64
			last    sql.NullInt64
		)
		if err := rows.Scan(&st.SessionID, &st.Answers, &correct, &last); err != nil {
			return nil, fmt.Errorf("scan session stat: %w", err)
		}
		st.Correct = int(correct.Int64)
		st.LastAnsweredAt = fromMillis(last.Int64)
		out = append(out, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("recent sessions: %w", err)
	}
	return out, nil
}
