package vocab

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Difficulty is a vocabulary tier. Tiers are ordered; higher is harder.
type Difficulty int

const (
	Beginner Difficulty = iota + 1
	Elementary
	Intermediate
	UpperIntermediate
	Advanced
)

// MinDifficulty and MaxDifficulty bound the valid tiers.
const (
	MinDifficulty = Beginner
	MaxDifficulty = Advanced
)

// ErrUnknownDifficulty is returned when a tier name or number cannot be parsed.
var ErrUnknownDifficulty = errors.New("unknown difficulty")

var difficultyNames = map[Difficulty]string{
	Beginner:          "beginner",
	Elementary:        "elementary",
	Intermediate:      "intermediate",
	UpperIntermediate: "upper-intermediate",
	Advanced:          "advanced",
}

func (d Difficulty) String() string {
	if name, ok := difficultyNames[d]; ok {
		return name
	}
	return fmt.Sprintf("difficulty(%d)", int(d))
}

// Valid reports whether d is a known tier.
func (d Difficulty) Valid() bool {
	return d >= MinDifficulty && d <= MaxDifficulty
}

// Norm maps the tier onto [0,1], beginner = 0 and advanced = 1.
func (d Difficulty) Norm() float64 {
	if d <= MinDifficulty {
		return 0
	}
	if d >= MaxDifficulty {
		return 1
	}
	return float64(d-MinDifficulty) / float64(MaxDifficulty-MinDifficulty)
}

// Next returns the next harder tier, or d itself at the top.
func (d Difficulty) Next() Difficulty {
	if d >= MaxDifficulty {
		return MaxDifficulty
	}
	return d + 1
}

// ParseDifficulty accepts a tier name ("beginner", "advanced", ...) or its
// number ("1".."5").
func ParseDifficulty(s string) (Difficulty, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if n, err := strconv.Atoi(s); err == nil {
		d := Difficulty(n)
		if !d.Valid() {
			return 0, fmt.Errorf("%w: %d", ErrUnknownDifficulty, n)
		}
		return d, nil
	}
	for d, name := range difficultyNames {
		if name == s || strings.ReplaceAll(name, "-", "_") == s {
			return d, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownDifficulty, s)
}
