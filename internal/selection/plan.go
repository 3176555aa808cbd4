package selection

import (
	"github.com/abhisek/wordwise/internal/novelty"
	"github.com/abhisek/wordwise/internal/vocab"
)

// Request is one selection call.
type Request struct {
	UserID      string
	Language    string
	Difficulty  vocab.Difficulty
	SessionID   string
	TargetCount int
	// SessionProgress in [0,1] raises the novelty probability late in a
	// session.
	SessionProgress float64
	ContextHints    []string
}

// Fallback diagnostics reported when scoring fails.
const (
	FallbackQuality   = 50.0
	FallbackDiversity = 30.0
)

// Result is the outcome of a selection call. It is never nil.
type Result struct {
	SelectedWords    []string          `json:"selected_words"`
	Candidates       []vocab.Candidate `json:"candidates"`
	SelectionQuality float64           `json:"selection_quality"`
	DiversityScore   float64           `json:"diversity_score"`
	NoveltyDecision  novelty.Decision  `json:"novelty_decision"`
	Degraded         bool              `json:"degraded"`
	Reason           string            `json:"reason,omitempty"`
}

// CountByCategory returns how many selected words came from each bucket.
func (r *Result) CountByCategory() map[vocab.Category]int {
	counts := make(map[vocab.Category]int)
	for _, c := range r.Candidates {
		counts[c.Category]++
	}
	return counts
}
