package domain

// Tier is the discrete quality classification of a setup.
type Tier string

const (
	TierAPlus Tier = "A+"
	TierB     Tier = "B"
	TierC     Tier = "C"
)

// ClassifierThresholds hold the tier boundaries. A score strictly above
// APlusAbove is A+; scores from BFrom up to and including APlusAbove are B;
// everything below BFrom is C.
type ClassifierThresholds struct {
	APlusAbove float64 `yaml:"a_plus_above" default:"85" validate:"gte=0,lte=100,gtefield=BFrom"`
	BFrom      float64 `yaml:"b_from" default:"60" validate:"gte=0,lte=100"`
}

func DefaultClassifierThresholds() ClassifierThresholds {
	return ClassifierThresholds{APlusAbove: 85, BFrom: 60}
}

// ClassifyTier maps a composite score to its tier. Pure function of the
// score; boundary semantics follow the thresholds exactly (85 itself is B,
// 60 itself is B).
func ClassifyTier(score float64, th ClassifierThresholds) Tier {
	switch {
	case score > th.APlusAbove:
		return TierAPlus
	case score >= th.BFrom:
		return TierB
	default:
		return TierC
	}
}

// Admitted reports whether the tier clears the go/no-go decision. C-grade
// setups are never surfaced.
func (t Tier) Admitted() bool {
	return t == TierAPlus || t == TierB
}
