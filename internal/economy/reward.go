package economy

import "math"

// EarnedXP computes the XP award for completing a task at the given level
// with the given credibility score: baseXP × tier multiplier, rounded half up.
//
// Pure function — it is used both at approval time (the actual deposit) and
// by preview endpoints, and must return the same value for the same inputs.
// The credibility multiplier is applied here and only here; XP converts to
// screen-time minutes 1:1 at read time (see ScreenTimeMinutes).
func EarnedXP(level Level, credibilityScore int) int {
	base := float64(level.BaseXP())
	mult := TierFor(credibilityScore).Multiplier
	return int(math.Floor(base*mult + 0.5))
}

// ScreenTimeMinutes converts an XP amount to screen-time minutes. The rate is
// a flat 1 XP = 1 minute; credibility is already baked into the award.
func ScreenTimeMinutes(xp int) int {
	if xp < 0 {
		return 0
	}
	return xp
}
