package vocab

import "strings"

// Category is the selection bucket a candidate was picked from.
type Category string

const (
	CategoryStruggling Category = "struggling"
	CategoryReview     Category = "review"
	CategoryNew        Category = "new"
	CategoryNovel      Category = "novel"
	CategoryBackfill   Category = "backfill"
)

// Candidate is a scored word considered during a single selection call.
// Score is in points (base 50 plus bonuses); the other scores are in [0,1].
type Candidate struct {
	Word            string   `json:"word"`
	Score           float64  `json:"score"`
	NoveltyScore    float64  `json:"novelty_score"`
	DifficultyScore float64  `json:"difficulty_score"`
	ReviewUrgency   float64  `json:"review_urgency"`
	UsageFrequency  int      `json:"usage_frequency"`
	LastUsedDays    float64  `json:"last_used_days"` // -1 when never used
	MasteryLevel    int      `json:"mastery_level"`
	IsReview        bool     `json:"is_review"`
	IsStruggling    bool     `json:"is_struggling"`
	IsNew           bool     `json:"is_new"`
	Category        Category `json:"category,omitempty"`
	Reasons         []string `json:"reasons"`
}

// Normalize trims surrounding whitespace. Word identity is otherwise
// case-sensitive.
func Normalize(word string) string {
	return strings.TrimSpace(word)
}

// Fold returns the case-insensitive comparison key for a word.
func Fold(word string) string {
	return strings.ToLower(strings.TrimSpace(word))
}
