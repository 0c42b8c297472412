package economy

import "fmt"

// Level is a fixed task difficulty tier. Each level carries a base XP value;
// the actual award is the base scaled by the child's credibility tier.
type Level string

const (
	LevelQuick  Level = "quick"
	LevelEasy   Level = "easy"
	LevelMedium Level = "medium"
	LevelHard   Level = "hard"
	LevelEpic   Level = "epic"
)

var levelBaseXP = map[Level]int{
	LevelQuick:  10,
	LevelEasy:   15,
	LevelMedium: 30,
	LevelHard:   45,
	LevelEpic:   60,
}

// Levels returns all levels in ascending difficulty order.
func Levels() []Level {
	return []Level{LevelQuick, LevelEasy, LevelMedium, LevelHard, LevelEpic}
}

// Valid reports whether l is a recognized level.
func (l Level) Valid() bool {
	_, ok := levelBaseXP[l]
	return ok
}

// BaseXP returns the unscaled XP value for the level, or 0 for an unknown level.
func (l Level) BaseXP() int {
	return levelBaseXP[l]
}

// ParseLevel converts a string into a Level.
func ParseLevel(s string) (Level, error) {
	l := Level(s)
	if !l.Valid() {
		return "", fmt.Errorf("unknown task level %q", s)
	}
	return l, nil
}
