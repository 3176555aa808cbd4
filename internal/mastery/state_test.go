package mastery

import (
	"math/rand/v2"
	"testing"
)

func TestNext(t *testing.T) {
	r := DefaultRules()
	tests := []struct {
		name           string
		level          int
		correct, total int
		want           int
		trigger        Trigger
	}{
		{"fresh correct answer stays", 1, 1, 1, 1, ""},
		{"promote level 1", 1, 3, 3, 2, TriggerPromotion},
		{"promote needs level*2 correct", 3, 5, 5, 3, ""},
		{"promote at exactly level*2", 3, 6, 7, 4, TriggerPromotion},
		{"accuracy below promotion", 1, 3, 4, 1, ""},
		{"capped at max", MaxLevel, 40, 40, MaxLevel, ""},
		{"demote", 4, 2, 5, 3, TriggerDemotion},
		{"demote needs five reviews", 4, 1, 4, 4, ""},
		{"floored at min", 1, 0, 9, 1, ""},
		{"middle band unchanged", 2, 7, 10, 2, ""},
		{"out of range level clamped", 0, 0, 0, 1, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, trig := Next(tt.level, tt.correct, tt.total, r)
			if got != tt.want || trig != tt.trigger {
				t.Errorf("Next(%d, %d, %d) = %d %q, want %d %q",
					tt.level, tt.correct, tt.total, got, trig, tt.want, tt.trigger)
			}
		})
	}
}

func TestNextStaysInBoundsAndStepsByOne(t *testing.T) {
	r := DefaultRules()
	rng := rand.New(rand.NewPCG(1, 2))
	level, correct, total := MinLevel, 0, 0
	for i := 0; i < 5000; i++ {
		total++
		if rng.Float64() < 0.7 {
			correct++
		}
		next, _ := Next(level, correct, total, r)
		if next < MinLevel || next > MaxLevel {
			t.Fatalf("level %d out of bounds at step %d", next, i)
		}
		if d := next - level; d < -1 || d > 1 {
			t.Fatalf("level jumped from %d to %d", level, next)
		}
		level = next
	}
}

func TestScore(t *testing.T) {
	tests := []struct {
		level int
		acc   float64
		want  float64
	}{
		{1, 0, 0},
		{10, 1, 100},
		{1, 1, 40},
		{10, 0, 60},
		{4, 0.5, 40},
		{20, 2, 100},
	}
	for _, tt := range tests {
		got := Score(tt.level, tt.acc)
		if diff := got - tt.want; diff > 1e-9 || diff < -1e-9 {
			t.Errorf("Score(%d, %v) = %v, want %v", tt.level, tt.acc, got, tt.want)
		}
	}
}

func TestTransitionPromoted(t *testing.T) {
	var nilT *Transition
	if nilT.Promoted() {
		t.Error("nil transition is not a promotion")
	}
	if !(&Transition{From: 1, To: 2}).Promoted() {
		t.Error("expected promotion")
	}
	if (&Transition{From: 3, To: 2}).Promoted() {
		t.Error("demotion reported as promotion")
	}
}
