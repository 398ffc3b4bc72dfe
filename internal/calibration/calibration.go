// Package calibration corrects the compression and upward shift that language
// models show on Likert-style questions. Raw summed scores are re-centred and
// re-scaled with a z-score transform using fixed, empirically chosen
// distribution parameters per inventory, then clamped to the inventory's range.
// No LLM calls or I/O happen here.
package calibration

// Params describes one inventory's calibration: the observed model
// distribution, the target distribution, and the valid score range.
// ObservedStd must be strictly positive.
type Params struct {
	ObservedMean float64
	ObservedStd  float64
	TargetMean   float64
	TargetStd    float64
	Min          float64
	Max          float64
}

// Apply calibrates raw with p.
func (p Params) Apply(raw float64) float64 {
	return Score(raw, p.ObservedMean, p.ObservedStd, p.TargetMean, p.TargetStd, p.Min, p.Max)
}

// Midpoint returns the neutral point of the valid range.
func (p Params) Midpoint() float64 {
	return (p.Min + p.Max) / 2
}

// Baseline parameters. These are tuning constants observed offline, not
// values derived at runtime; recalibrating against new baseline data means
// editing this table.
var (
	// BigFive: 24 items per domain, 1-5 each. A model answering 3.2 on average
	// lands at 76.8 instead of the neutral 72.
	BigFive = Params{ObservedMean: 76.8, ObservedStd: 8.0, TargetMean: 72, TargetStd: 14.0, Min: 24, Max: 120}

	// MBTI: 8 items per dimension, 1-5 each. Observed neutral 25.6, true neutral 24.
	MBTI = Params{ObservedMean: 25.6, ObservedStd: 3.5, TargetMean: 24, TargetStd: 5.0, Min: 8, Max: 40}

	// DISC: quadrant scores stay centred; only the variance is expanded.
	DISC = Params{ObservedMean: 14, ObservedStd: 3.5, TargetMean: 14, TargetStd: 5.5, Min: 0, Max: 28}
)

// Table maps inventory keys to their calibration parameters. Dark Triad is
// absent on purpose: it is rescaled linearly and never calibrated.
var Table = map[string]Params{
	"bigfive": BigFive,
	"mbti":    MBTI,
	"disc":    DISC,
}

// Score applies the z-score transform and clamps the result to [minValue, maxValue]:
//
//	z = (raw - observedMean) / observedStd
//	calibrated = z*targetStd + targetMean
func Score(raw, observedMean, observedStd, targetMean, targetStd, minValue, maxValue float64) float64 {
	z := (raw - observedMean) / observedStd
	return clamp(z*targetStd+targetMean, minValue, maxValue)
}

// BigFiveDomain calibrates a raw Big Five domain sum (range 24-120).
func BigFiveDomain(raw float64) float64 { return BigFive.Apply(raw) }

// MBTIDimension calibrates a raw MBTI dimension sum (range 8-40).
func MBTIDimension(raw float64) float64 { return MBTI.Apply(raw) }

// DISCQuadrant calibrates a raw DISC quadrant score (range 0-28).
func DISCQuadrant(raw float64) float64 { return DISC.Apply(raw) }

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
