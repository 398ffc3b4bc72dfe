// Package scoring turns raw repeated-sample responses into trait scores for
// the four inventories, plus the Big Five based MBTI approximation.
//
// Scorers are pure: they read the response set and the item bank, allocate a
// fresh result, and never log, block, or return errors. Items with no samples
// are skipped rather than zero-filled, so missing data lowers sums instead of
// failing the run.
package scoring

// Partial is a running sum with the number of contributions behind it.
// Facet, dimension and subscale totals are Partials so that the effect of
// missing items on the denominator stays visible.
type Partial struct {
	Sum   float64
	Count int
}

// Add folds one contribution into p.
func (p *Partial) Add(v float64) {
	p.Sum += v
	p.Count++
}

// Mean returns Sum/Count and false when nothing has been added.
func (p Partial) Mean() (float64, bool) {
	if p.Count == 0 {
		return 0, false
	}
	return p.Sum / float64(p.Count), true
}

// sampleMean averages the samples for one item.
func sampleMean(samples []float64) (float64, bool) {
	var p Partial
	for _, s := range samples {
		p.Add(s)
	}
	return p.Mean()
}

// reverse reflects a 1-5 Likert value across the midpoint 3.
func reverse(v float64) float64 { return 6 - v }
