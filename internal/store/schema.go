package store

import (
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

// Table names.
const (
	tableWordPerformance      = "word_performance"
	tableExerciseWords        = "exercise_words"
	tableAnswerEvents         = "answer_events"
	tableNoveltyIntroductions = "novelty_introductions"
	tableVocabulary           = "vocabulary"
)

// Timestamps are stored as Unix milliseconds so ordering and range
// predicates behave the same on SQLite and Postgres.
var (
	wordPerformanceColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "user_id", Type: field.TypeString},
		{Name: "word", Type: field.TypeString},
		{Name: "language", Type: field.TypeString},
		{Name: "total_reviews", Type: field.TypeInt, Default: 0},
		{Name: "correct_reviews", Type: field.TypeInt, Default: 0},
		{Name: "mastery_level", Type: field.TypeInt, Default: 1},
		{Name: "last_reviewed_at", Type: field.TypeInt64, Default: 0},
		{Name: "next_review_at", Type: field.TypeInt64, Default: 0},
		{Name: "created_at", Type: field.TypeInt64},
		{Name: "updated_at", Type: field.TypeInt64},
	}
	// WordPerformanceTable holds one row per user×word×language.
	WordPerformanceTable = &schema.Table{
		Name:       tableWordPerformance,
		Columns:    wordPerformanceColumns,
		PrimaryKey: []*schema.Column{wordPerformanceColumns[0]},
		Indexes: []*schema.Index{
			{
				Name:    "wordperformance_user_id_word_language",
				Unique:  true,
				Columns: []*schema.Column{wordPerformanceColumns[1], wordPerformanceColumns[2], wordPerformanceColumns[3]},
			},
			{
				Name:    "wordperformance_user_id_language_next_review_at",
				Columns: []*schema.Column{wordPerformanceColumns[1], wordPerformanceColumns[3], wordPerformanceColumns[8]},
			},
		},
	}

	exerciseWordsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "exercise_id", Type: field.TypeString},
		{Name: "session_id", Type: field.TypeString},
		{Name: "word", Type: field.TypeString},
		{Name: "position", Type: field.TypeInt},
		{Name: "created_at", Type: field.TypeInt64},
	}
	// ExerciseWordsTable records which words each exercise showed.
	ExerciseWordsTable = &schema.Table{
		Name:       tableExerciseWords,
		Columns:    exerciseWordsColumns,
		PrimaryKey: []*schema.Column{exerciseWordsColumns[0]},
		Indexes: []*schema.Index{
			{
				Name:    "exercisewords_session_id_created_at",
				Columns: []*schema.Column{exerciseWordsColumns[2], exerciseWordsColumns[5]},
			},
		},
	}

	answerEventsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "session_id", Type: field.TypeString},
		{Name: "user_id", Type: field.TypeString},
		{Name: "word", Type: field.TypeString},
		{Name: "language", Type: field.TypeString},
		{Name: "correct", Type: field.TypeInt},
		{Name: "answered_at", Type: field.TypeInt64},
	}
	// AnswerEventsTable is the append-only log of answered exercises.
	AnswerEventsTable = &schema.Table{
		Name:       tableAnswerEvents,
		Columns:    answerEventsColumns,
		PrimaryKey: []*schema.Column{answerEventsColumns[0]},
		Indexes: []*schema.Index{
			{
				Name:    "answerevents_user_id_language_answered_at",
				Columns: []*schema.Column{answerEventsColumns[2], answerEventsColumns[4], answerEventsColumns[6]},
			},
		},
	}

	noveltyIntroductionsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "user_id", Type: field.TypeString},
		{Name: "language", Type: field.TypeString},
		{Name: "word", Type: field.TypeString},
		{Name: "session_id", Type: field.TypeString, Default: ""},
		{Name: "introduced_at", Type: field.TypeInt64},
	}
	// NoveltyIntroductionsTable counts novel words against the novelty budget.
	NoveltyIntroductionsTable = &schema.Table{
		Name:       tableNoveltyIntroductions,
		Columns:    noveltyIntroductionsColumns,
		PrimaryKey: []*schema.Column{noveltyIntroductionsColumns[0]},
		Indexes: []*schema.Index{
			{
				Name:    "noveltyintroductions_user_id_language_introduced_at",
				Columns: []*schema.Column{noveltyIntroductionsColumns[1], noveltyIntroductionsColumns[2], noveltyIntroductionsColumns[5]},
			},
		},
	}

	vocabularyColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "language", Type: field.TypeString},
		{Name: "tier", Type: field.TypeInt},
		{Name: "word", Type: field.TypeString},
	}
	// VocabularyTable holds the candidate pools per language and tier.
	VocabularyTable = &schema.Table{
		Name:       tableVocabulary,
		Columns:    vocabularyColumns,
		PrimaryKey: []*schema.Column{vocabularyColumns[0]},
		Indexes: []*schema.Index{
			{
				Name:    "vocabulary_language_tier_word",
				Unique:  true,
				Columns: []*schema.Column{vocabularyColumns[1], vocabularyColumns[2], vocabularyColumns[3]},
			},
		},
	}

	// Tables lists every table created by auto-migration.
	Tables = []*schema.Table{
		WordPerformanceTable,
		ExerciseWordsTable,
		AnswerEventsTable,
		NoveltyIntroductionsTable,
		VocabularyTable,
	}
)
