package scoring

import (
	"fmt"
	"math"

	"github.com/dshills/psyche/internal/calibration"
	"github.com/dshills/psyche/internal/inventory"
	"github.com/dshills/psyche/internal/schema"
)

// discItems is the length of the DISC bank; it fixes the quadrant scale at
// 0-28 independent of how many items were answered.
const discItems = 28

// SampleStrategy selects the one sample of a forced-choice item that is
// scored. Categorical picks are not averaged.
type SampleStrategy string

const (
	// LastSample scores the final recorded sample.
	LastSample SampleStrategy = "last"
	// ModeSample scores the most frequent encoded value; ties go to the
	// value whose latest occurrence comes last.
	ModeSample SampleStrategy = "mode"
)

// ParseSampleStrategy maps a flag value to a strategy.
func ParseSampleStrategy(name string) (SampleStrategy, error) {
	switch SampleStrategy(name) {
	case LastSample, "":
		return LastSample, nil
	case ModeSample:
		return ModeSample, nil
	}
	return "", fmt.Errorf("scoring: unknown DISC sample strategy %q (available: last, mode)", name)
}

// Pick returns the sample to score and false when samples is empty.
func (s SampleStrategy) Pick(samples []float64) (float64, bool) {
	if len(samples) == 0 {
		return 0, false
	}
	if s != ModeSample {
		return samples[len(samples)-1], true
	}
	counts := make(map[float64]int, len(samples))
	best, bestCount := samples[0], 0
	for _, v := range samples {
		counts[v]++
		if counts[v] >= bestCount {
			best, bestCount = v, counts[v]
		}
	}
	return best, true
}

// EncodeChoice packs 0-based most/least word indices as most*10 + least.
func EncodeChoice(most, least int) float64 {
	return float64(most*10 + least)
}

// DecodeChoice unpacks an encoded sample. An index that cannot address a
// four-word item is returned as -1.
func DecodeChoice(v float64) (most, least int) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return -1, -1
	}
	most = int(math.Floor(v / 10))
	l := math.Mod(v, 10)
	least = int(l)
	if l != math.Trunc(l) {
		least = -1
	}
	if most < 0 || most > 3 {
		most = -1
	}
	if least < 0 || least > 3 {
		least = -1
	}
	return most, least
}

// ScoreDISC tallies the most/least picks of each forced-choice item into
// Graph I (most) and Graph II (least) per quadrant, then maps the difference
// onto 0-28 as (most - least + 28) / 2. An invalid index drops only its own
// contribution.
//
// TraitScores holds D, I, S and C (calibrated when calibrate is true) and the
// pre-calibration values under _raw_; Details carries graph1 and graph2.
func ScoreDISC(items []inventory.Item, rs schema.ResponseSet, calibrate bool, strategy SampleStrategy) *schema.InventoryResult {
	graph1 := make(map[string]int, len(inventory.Quadrants))
	graph2 := make(map[string]int, len(inventory.Quadrants))
	for _, q := range inventory.Quadrants {
		graph1[string(q)] = 0
		graph2[string(q)] = 0
	}

	for _, it := range items {
		v, ok := strategy.Pick(rs[it.ID])
		if !ok {
			continue
		}
		most, least := DecodeChoice(v)
		if most >= 0 && most < len(it.Words) {
			graph1[string(it.Words[most].Quadrant)]++
		}
		if least >= 0 && least < len(it.Words) {
			graph2[string(it.Words[least].Quadrant)]++
		}
	}

	traits := make(map[string]float64, 2*len(inventory.Quadrants))
	for _, q := range inventory.Quadrants {
		k := string(q)
		raw := float64(graph1[k]-graph2[k]+discItems) / 2
		v := raw
		if calibrate {
			v = calibration.DISCQuadrant(raw)
		}
		traits[k] = v
		traits[schema.RawPrefix+k] = raw
	}

	if strategy == "" {
		strategy = LastSample
	}
	return &schema.InventoryResult{
		InventoryName: "DISC Assessment",
		RawScores:     rs,
		TraitScores:   traits,
		Details: map[string]any{
			"graph1":     graph1,
			"graph2":     graph2,
			"calibrated": calibrate,
			"strategy":   string(strategy),
		},
	}
}
