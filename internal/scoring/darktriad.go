package scoring

import (
	"github.com/dshills/psyche/internal/inventory"
	"github.com/dshills/psyche/internal/schema"
)

// DarkTriadSubscales lists the SD3 subscales in display order.
var DarkTriadSubscales = []string{"Machiavellianism", "Narcissism", "Psychopathy"}

// ScoreDarkTriad scores the Short Dark Triad. Per-item sample means (reverse
// keyed items reflected) are averaged per subscale and rescaled linearly from
// 1-5 to 0-100. No calibration is applied.
//
// A subscale with no answered items scores 0 and is listed in
// Details["missing"].
func ScoreDarkTriad(items []inventory.Item, rs schema.ResponseSet) *schema.InventoryResult {
	subs := make(map[string]*Partial, len(DarkTriadSubscales))
	for _, s := range DarkTriadSubscales {
		subs[s] = &Partial{}
	}
	for _, it := range items {
		mean, ok := sampleMean(rs[it.ID])
		if !ok {
			continue
		}
		if it.Reversed() {
			mean = reverse(mean)
		}
		if p, known := subs[it.Category]; known {
			p.Add(mean)
		}
	}

	traits := make(map[string]float64, len(DarkTriadSubscales))
	counts := make(map[string]int, len(DarkTriadSubscales))
	var missing []string
	for _, s := range DarkTriadSubscales {
		p := subs[s]
		counts[s] = p.Count
		avg, ok := p.Mean()
		if !ok {
			traits[s] = 0
			missing = append(missing, s)
			continue
		}
		traits[s] = (avg - 1) * 25
	}

	details := map[string]any{"counts": counts}
	if len(missing) > 0 {
		details["missing"] = missing
	}
	return &schema.InventoryResult{
		InventoryName: "Dark Triad (SD3)",
		RawScores:     rs,
		TraitScores:   traits,
		Details:       details,
	}
}
