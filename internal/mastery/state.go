package mastery

// Mastery levels run from MinLevel to MaxLevel and move by at most one
// step per answer.
const (
	MinLevel = 1
	MaxLevel = 10
)

// Trigger names the rule that caused a level change.
type Trigger string

const (
	TriggerPromotion Trigger = "promotion"
	TriggerDemotion  Trigger = "demotion"
)

// Transition records a mastery level change for display and event logging.
type Transition struct {
	UserID   string
	Word     string
	Language string
	From     int
	To       int
	Trigger  Trigger
}

// Promoted reports whether the transition moved the word up a level.
func (t *Transition) Promoted() bool {
	return t != nil && t.To > t.From
}

// Rules holds the promotion and demotion thresholds.
type Rules struct {
	MinAccuracyForPromotion float64
	StrugglingThreshold     float64
	DemotionMinReviews      int
}

// DefaultRules returns the standard thresholds.
func DefaultRules() Rules {
	return Rules{
		MinAccuracyForPromotion: 0.8,
		StrugglingThreshold:     0.6,
		DemotionMinReviews:      5,
	}
}

// Clamp bounds a level to [MinLevel, MaxLevel].
func Clamp(level int) int {
	switch {
	case level < MinLevel:
		return MinLevel
	case level > MaxLevel:
		return MaxLevel
	default:
		return level
	}
}

// Next returns the level after an answer, given the updated counters.
// Promotion needs accuracy at or above the promotion threshold and at
// least level*2 correct reviews. Demotion needs accuracy below the
// struggling threshold and at least DemotionMinReviews reviews. The
// returned trigger is empty when the level is unchanged.
func Next(level, correct, total int, r Rules) (int, Trigger) {
	level = Clamp(level)
	acc := accuracy(correct, total)

	switch {
	case acc >= r.MinAccuracyForPromotion && correct >= level*2:
		if level < MaxLevel {
			return level + 1, TriggerPromotion
		}
	case acc < r.StrugglingThreshold && total >= r.DemotionMinReviews:
		if level > MinLevel {
			return level - 1, TriggerDemotion
		}
	}
	return level, ""
}

// Score maps a level and accuracy to [0,100]. Level contributes 60% and
// accuracy 40%.
func Score(level int, accuracy float64) float64 {
	level = Clamp(level)
	if accuracy < 0 {
		accuracy = 0
	}
	if accuracy > 1 {
		accuracy = 1
	}
	levelPart := float64(level-MinLevel) / float64(MaxLevel-MinLevel)
	return 100 * (0.6*levelPart + 0.4*accuracy)
}

func accuracy(correct, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(correct) / float64(total)
}
