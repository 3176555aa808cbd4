package selection

import (
	"math"
	"time"

	"github.com/abhisek/wordwise/internal/vocab"
)

// buckets partitions scored candidates. A word lands in the first bucket
// it qualifies for: struggling, review, new, novel. Each bucket keeps
// the scorer's order.
type buckets struct {
	struggling []vocab.Candidate
	review     []vocab.Candidate
	fresh      []vocab.Candidate
	novel      []vocab.Candidate
	rest       []vocab.Candidate
}

// filter drops candidates that should not be shown now. Struggling words
// are exempt from every filter; review words from the novelty floor.
func filter(cands []vocab.Candidate, cfg vocab.SelectionConfig) []vocab.Candidate {
	out := make([]vocab.Candidate, 0, len(cands))
	for _, c := range cands {
		if c.IsStruggling {
			out = append(out, c)
			continue
		}
		if c.NoveltyScore < cfg.MinNoveltyScore && !c.IsReview {
			continue
		}
		if c.UsageFrequency > cfg.MaxUsageFrequency {
			continue
		}
		if usedWithin(c, cfg.RecentUseWindow) {
			continue
		}
		out = append(out, c)
	}
	return out
}

// usedWithin reports whether the candidate was shown within window.
// LastUsedDays only reflects a presentation when UsageFrequency > 0.
func usedWithin(c vocab.Candidate, window time.Duration) bool {
	if c.UsageFrequency == 0 || c.LastUsedDays < 0 || window <= 0 {
		return false
	}
	return c.LastUsedDays*24 < window.Hours()
}

func partition(cands []vocab.Candidate, cfg vocab.SelectionConfig) buckets {
	var b buckets
	for _, c := range cands {
		switch {
		case c.IsStruggling:
			b.struggling = append(b.struggling, c)
		case c.IsReview:
			b.review = append(b.review, c)
		case c.IsNew:
			b.fresh = append(b.fresh, c)
		case c.NoveltyScore >= cfg.HighNoveltyScore:
			b.novel = append(b.novel, c)
		default:
			b.rest = append(b.rest, c)
		}
	}
	return b
}

// quota is the slot target for a bucket: ceil(target * ratio).
func quota(target int, ratio float64) int {
	if ratio <= 0 || target <= 0 {
		return 0
	}
	return int(math.Ceil(float64(target) * ratio))
}

// picker accumulates the selection, never exceeding its capacity or
// picking a word twice.
type picker struct {
	capacity int
	picked   []vocab.Candidate
	seen     map[string]bool
}

func newPicker(capacity int) *picker {
	return &picker{capacity: capacity, seen: make(map[string]bool)}
}

func (p *picker) remaining() int {
	return p.capacity - len(p.picked)
}

// take adds up to limit candidates from src under category and returns
// how many were added.
func (p *picker) take(src []vocab.Candidate, limit int, cat vocab.Category) int {
	added := 0
	for _, c := range src {
		if added >= limit || p.remaining() <= 0 {
			break
		}
		if p.seen[c.Word] {
			continue
		}
		p.seen[c.Word] = true
		c.Category = cat
		p.picked = append(p.picked, c)
		added++
	}
	return added
}

// backfill fills the remaining capacity from cands, highest score first.
// cands must already be sorted by score.
func (p *picker) backfill(cands []vocab.Candidate) {
	p.take(cands, p.remaining(), vocab.CategoryBackfill)
}

func (p *picker) words() []string {
	out := make([]string, len(p.picked))
	for i, c := range p.picked {
		out[i] = c.Word
	}
	return out
}

// diagnostics returns the mean score (capped at 100) and the mean
// novelty scaled to 100 (capped at 100).
func diagnostics(cands []vocab.Candidate) (quality, diversity float64) {
	if len(cands) == 0 {
		return 0, 0
	}
	var score, nov float64
	for _, c := range cands {
		score += c.Score
		nov += c.NoveltyScore
	}
	n := float64(len(cands))
	return math.Min(100, score/n), math.Min(100, nov/n*100)
}
