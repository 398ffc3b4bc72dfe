package scoring

import (
	"math"

	"github.com/dshills/psyche/internal/calibration"
	"github.com/dshills/psyche/internal/inventory"
	"github.com/dshills/psyche/internal/schema"
)

const (
	// mbtiMidpoint is the neutral dimension sum for 8 items on a 1-5 scale.
	mbtiMidpoint = 24
	// mbtiMaxDelta is the largest distance from the midpoint (24 to 8 or 40).
	mbtiMaxDelta = 16
	// mbtiPairSum is the total of a dimension score and its complement.
	mbtiPairSum = 48

	derivedMidpoint = 72
	derivedMaxDelta = 48
	derivedPairSum  = 144
)

// ScoreMBTI scores the bipolar OEJTS items directly. Per-item sample means
// are summed per dimension, optionally calibrated, and classified with a
// strict comparison: a dimension at exactly 24 takes its low-pole letter.
//
// TraitScores holds the four dimension scores (IE, SN, TF, JP), the eight
// single-letter scores where each pair sums to 48, and _raw_ sums. PSI is
// capped at 1: uncalibrated sums over sparse data can fall below 8.
func ScoreMBTI(items []inventory.Item, rs schema.ResponseSet, calibrate bool) *schema.InventoryResult {
	sums := make(map[inventory.Dimension]*Partial, len(inventory.Dimensions))
	for _, d := range inventory.Dimensions {
		sums[d] = &Partial{}
	}
	for _, it := range items {
		mean, ok := sampleMean(rs[it.ID])
		if !ok {
			continue
		}
		if p, known := sums[it.Dimension]; known {
			p.Add(mean)
		}
	}

	traits := make(map[string]float64, 16)
	psi := make(map[string]float64, len(inventory.Dimensions))
	typeCode := make([]byte, 0, 4)
	for _, d := range inventory.Dimensions {
		raw := sums[d].Sum
		v := raw
		if calibrate {
			v = calibration.MBTIDimension(raw)
		}
		key := string(d)
		traits[key] = v
		traits[d.High()] = v
		traits[d.Low()] = mbtiPairSum - v
		traits[schema.RawPrefix+key] = raw
		psi[key] = strength(v, mbtiMidpoint, mbtiMaxDelta)

		if v > mbtiMidpoint {
			typeCode = append(typeCode, d.High()...)
		} else {
			typeCode = append(typeCode, d.Low()...)
		}
	}

	return &schema.InventoryResult{
		InventoryName: "MBTI (OEJTS 1.2)",
		RawScores:     rs,
		TraitScores:   traits,
		Type:          string(typeCode),
		PSI:           psi,
		Details: map[string]any{
			"derived":    false,
			"source":     "OEJTS 1.2",
			"calibrated": calibrate,
		},
	}
}

// DeriveMBTI approximates an MBTI type from a scored Big Five result:
// Extraversion drives E/I, Openness N/S, Agreeableness F/T (high A is F) and
// Conscientiousness J/P (high C is J). A domain score that is missing, zero or
// NaN is treated as the Big Five midpoint 72.
//
// Unlike ScoreMBTI, a domain at exactly 72 takes the first letter of each
// pair (E, N, F, J). PSI is the distance from 72 over 48 on the Big Five
// scale, capped at 1, and each letter pair sums to 144.
func DeriveMBTI(bigFive *schema.InventoryResult) *schema.InventoryResult {
	e := domainOrMidpoint(bigFive, "E")
	o := domainOrMidpoint(bigFive, "O")
	a := domainOrMidpoint(bigFive, "A")
	c := domainOrMidpoint(bigFive, "C")

	typeCode := pick(e >= derivedMidpoint, "E", "I") +
		pick(o >= derivedMidpoint, "N", "S") +
		pick(a >= derivedMidpoint, "F", "T") +
		pick(c >= derivedMidpoint, "J", "P")

	return &schema.InventoryResult{
		InventoryName: "MBTI (Derived from Big Five)",
		RawScores:     schema.ResponseSet{},
		TraitScores: map[string]float64{
			"E": e, "I": derivedPairSum - e,
			"N": o, "S": derivedPairSum - o,
			"F": a, "T": derivedPairSum - a,
			"J": c, "P": derivedPairSum - c,
		},
		Type: typeCode,
		PSI: map[string]float64{
			"IE": strength(e, derivedMidpoint, derivedMaxDelta),
			"SN": strength(o, derivedMidpoint, derivedMaxDelta),
			"TF": strength(a, derivedMidpoint, derivedMaxDelta),
			"JP": strength(c, derivedMidpoint, derivedMaxDelta),
		},
		Details: map[string]any{
			"derived": true,
			"source":  "IPIP-NEO-120",
		},
	}
}

// strength is the distance of v from mid over maxDelta, capped at 1.
func strength(v, mid, maxDelta float64) float64 {
	return math.Min(math.Abs(v-mid)/maxDelta, 1)
}

func domainOrMidpoint(r *schema.InventoryResult, key string) float64 {
	v, ok := r.Trait(key)
	if !ok || v == 0 || math.IsNaN(v) {
		return derivedMidpoint
	}
	return v
}

func pick(cond bool, yes, no string) string {
	if cond {
		return yes
	}
	return no
}
