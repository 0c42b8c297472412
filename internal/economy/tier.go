package economy

// Credibility score bounds and the fixed adjustments applied on review.
// A decline always costs 10 points; the larger penalty the older flows used
// was dropped in favor of one consistent policy.
const (
	MinScore     = 0
	MaxScore     = 100
	DefaultScore = 100

	ApproveBonus   = 5
	DeclinePenalty = 10
)

// Tier is a named band of credibility scores with a reward multiplier.
type Tier struct {
	Name       string  `json:"name"`
	Min        int     `json:"min"`
	Max        int     `json:"max"`
	Multiplier float64 `json:"multiplier"`
}

// tiers covers [0,100] with no gaps, highest band first.
var tiers = []Tier{
	{Name: "Excellent", Min: 90, Max: 100, Multiplier: 1.2},
	{Name: "Good", Min: 75, Max: 89, Multiplier: 1.0},
	{Name: "Fair", Min: 60, Max: 74, Multiplier: 0.8},
	{Name: "Poor", Min: 40, Max: 59, Multiplier: 0.5},
	{Name: "Very Poor", Min: 0, Max: 39, Multiplier: 0.3},
}

// Tiers returns the full tier table, highest band first.
func Tiers() []Tier {
	out := make([]Tier, len(tiers))
	copy(out, tiers)
	return out
}

// TierFor returns the tier containing the given credibility score.
// Scores outside [0,100] are clamped first.
func TierFor(score int) Tier {
	score = ClampScore(score)
	for _, t := range tiers {
		if score >= t.Min {
			return t
		}
	}
	return tiers[len(tiers)-1]
}

// ClampScore bounds a credibility score to [MinScore, MaxScore].
func ClampScore(score int) int {
	if score < MinScore {
		return MinScore
	}
	if score > MaxScore {
		return MaxScore
	}
	return score
}
