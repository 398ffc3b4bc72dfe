package scoring

import (
	"github.com/dshills/psyche/internal/calibration"
	"github.com/dshills/psyche/internal/inventory"
	"github.com/dshills/psyche/internal/schema"
)

// BigFiveDomains lists the five domain letters in display order.
var BigFiveDomains = []string{"N", "E", "O", "A", "C"}

// ScoreBigFive scores an IPIP-NEO style response set. Each item's samples are
// averaged, reverse keyed items are reflected, and the per-item values are
// summed into facets (category codes such as "N1"). A domain is the sum of
// the facets sharing its first letter.
//
// TraitScores holds every facet sum that received data, the five domain
// scores (calibrated when calibrate is true), and the pre-calibration domain
// sums under _raw_N.._raw_C.
func ScoreBigFive(items []inventory.Item, rs schema.ResponseSet, calibrate bool) *schema.InventoryResult {
	facets := make(map[string]*Partial)
	var order []string
	for _, it := range items {
		mean, ok := sampleMean(rs[it.ID])
		if !ok || it.Category == "" {
			continue
		}
		if it.Reversed() {
			mean = reverse(mean)
		}
		p, seen := facets[it.Category]
		if !seen {
			p = &Partial{}
			facets[it.Category] = p
			order = append(order, it.Category)
		}
		p.Add(mean)
	}

	raw := make(map[string]float64, len(BigFiveDomains))
	for _, d := range BigFiveDomains {
		raw[d] = 0
	}
	traits := make(map[string]float64, len(facets)+2*len(BigFiveDomains))
	answered := 0
	for _, f := range order {
		p := facets[f]
		traits[f] = p.Sum
		raw[f[:1]] += p.Sum
		answered += p.Count
	}

	for _, d := range BigFiveDomains {
		v := raw[d]
		if calibrate {
			v = calibration.BigFiveDomain(v)
		}
		traits[d] = v
		traits[schema.RawPrefix+d] = raw[d]
	}

	return &schema.InventoryResult{
		InventoryName: "Big Five (IPIP-NEO-120)",
		RawScores:     rs,
		TraitScores:   traits,
		Details: map[string]any{
			"calibrated": calibrate,
			"answered":   answered,
		},
	}
}
