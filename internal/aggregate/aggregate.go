// Package aggregate summarises many stored runs: a leaderboard grouped by
// model and persona, and a synthetic per-model profile. It is pure and does
// no I/O; callers pass in the runs they loaded.
package aggregate

import (
	"sort"
	"time"

	"github.com/dshills/psyche/internal/schema"
	"github.com/dshills/psyche/internal/scoring"
)

// NoType is the leaderboard MBTI value when no run in a group has a type.
const NoType = "-"

var discQuadrants = []string{"D", "I", "S", "C"}

var mbtiLetters = []string{"I", "E", "S", "N", "T", "F", "J", "P"}

// Entry is one leaderboard row.
type Entry struct {
	ID        string             `json:"id"`
	Name      string             `json:"name"`
	Persona   string             `json:"persona"`
	Count     int                `json:"count"`
	Scores    map[string]float64 `json:"scores"`
	DISC      map[string]float64 `json:"disc"`
	DarkTriad map[string]float64 `json:"darkTriad,omitempty"`
	MBTI      string             `json:"mbti"`
}

// GroupKey identifies a leaderboard row.
func GroupKey(model, persona string) string { return model + "::" + persona }

type group struct {
	entry     *Entry
	bigFive   map[string]float64
	disc      map[string]float64
	darkTriad map[string]float64
	dtCount   int
	direct    counter
	derived   counter
}

// Leaderboard groups runs by (model, persona). Big Five and DISC scores are
// averaged over every run in the group, with a missing score counting as 0.
// Dark Triad is averaged over the runs that have it. The MBTI column is the
// most frequent direct type when any run in the group has one, else the most
// frequent derived type, else NoType.
//
// Rows are ordered by run count descending, then model, then persona.
func Leaderboard(runs []*schema.ModelProfile) []Entry {
	groups := make(map[string]*group)
	var order []string
	for _, run := range runs {
		persona := run.PersonaOrDefault()
		key := GroupKey(run.ModelName, persona)
		g, ok := groups[key]
		if !ok {
			g = &group{
				entry:     &Entry{ID: key, Name: run.ModelName, Persona: persona},
				bigFive:   make(map[string]float64),
				disc:      make(map[string]float64),
				darkTriad: make(map[string]float64),
			}
			groups[key] = g
			order = append(order, key)
		}
		g.entry.Count++

		addTraits(g.bigFive, run.Result(schema.KeyBigFive), scoring.BigFiveDomains)
		addTraits(g.disc, run.Result(schema.KeyDISC), discQuadrants)
		if addTraits(g.darkTriad, run.Result(schema.KeyDarkTriad), scoring.DarkTriadSubscales) {
			g.dtCount++
		}

		if r := run.Result(schema.KeyMBTI); r != nil && r.Type != "" {
			g.direct.add(r.Type)
		} else if r := run.Result(schema.KeyMBTIDerived); r != nil && r.Type != "" {
			g.derived.add(r.Type)
		}
	}

	out := make([]Entry, 0, len(order))
	for _, key := range order {
		g := groups[key]
		e := g.entry
		e.Scores = average(g.bigFive, scoring.BigFiveDomains, e.Count)
		e.DISC = average(g.disc, discQuadrants, e.Count)
		if g.dtCount > 0 {
			e.DarkTriad = average(g.darkTriad, scoring.DarkTriadSubscales, g.dtCount)
		}
		counts := g.derived
		if g.direct.len() > 0 {
			counts = g.direct
		}
		e.MBTI = NoType
		if t, n := counts.mode(); n > 0 {
			e.MBTI = t
		}
		out = append(out, *e)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].Persona < out[j].Persona
	})
	return out
}

// ModelSummary builds a synthetic profile for one model from its runs. Each
// inventory is averaged over the runs that contain it; the MBTI type is the
// mode of each run's direct-or-derived type and the persona is the most
// frequent persona. It returns nil when runs is empty.
func ModelSummary(model string, runs []*schema.ModelProfile, now time.Time) *schema.ModelProfile {
	if len(runs) == 0 {
		return nil
	}
	var (
		bigFive   = make(map[string]float64)
		disc      = make(map[string]float64)
		darkTriad = make(map[string]float64)
		mbti      = make(map[string]float64)

		bfCount, discCount, dtCount, mbtiCount int

		types    counter
		personas counter
	)
	for _, run := range runs {
		if addTraits(bigFive, run.Result(schema.KeyBigFive), scoring.BigFiveDomains) {
			bfCount++
		}
		if addTraits(disc, run.Result(schema.KeyDISC), discQuadrants) {
			discCount++
		}
		if addTraits(darkTriad, run.Result(schema.KeyDarkTriad), scoring.DarkTriadSubscales) {
			dtCount++
		}
		if t := run.MBTIType(); t != "" {
			types.add(t)
		}
		letters := run.Result(schema.KeyMBTI)
		if letters == nil || letters.TraitScores == nil {
			letters = run.Result(schema.KeyMBTIDerived)
		}
		if letters != nil && letters.TraitScores != nil {
			for _, k := range mbtiLetters {
				if v, ok := letters.TraitScores[k]; ok {
					mbti[k] += v
				}
			}
			mbtiCount++
		}
		personas.add(run.PersonaOrDefault())
	}

	persona, _ := personas.mode()
	p := &schema.ModelProfile{
		ModelName: model,
		Persona:   persona,
		Timestamp: now.UnixMilli(),
		Results:   make(map[string]*schema.InventoryResult),
	}
	if bfCount > 0 {
		p.Results[schema.KeyBigFive] = aggregated("Big Five (Aggregated)", average(bigFive, scoring.BigFiveDomains, bfCount), bfCount)
	}
	if discCount > 0 {
		p.Results[schema.KeyDISC] = aggregated("DISC (Aggregated)", average(disc, discQuadrants, discCount), discCount)
	}
	if dtCount > 0 {
		p.Results[schema.KeyDarkTriad] = aggregated("Dark Triad (Aggregated)", average(darkTriad, scoring.DarkTriadSubscales, dtCount), dtCount)
	}
	if t, n := types.mode(); n > 0 {
		traits := map[string]float64{}
		if mbtiCount > 0 {
			traits = average(mbti, mbtiLetters, mbtiCount)
		}
		r := aggregated("MBTI (Most Frequent)", traits, n)
		r.Type = t
		r.Details["total"] = len(runs)
		p.Results[schema.KeyMBTIDerived] = r
	}
	return p
}

// FilterModel returns the runs whose model name equals model.
func FilterModel(runs []*schema.ModelProfile, model string) []*schema.ModelProfile {
	var out []*schema.ModelProfile
	for _, r := range runs {
		if r.ModelName == model {
			out = append(out, r)
		}
	}
	return out
}

func aggregated(name string, traits map[string]float64, count int) *schema.InventoryResult {
	return &schema.InventoryResult{
		InventoryName: name,
		RawScores:     schema.ResponseSet{},
		TraitScores:   traits,
		Details:       map[string]any{"count": count},
	}
}

// addTraits adds r's scores for keys into totals, treating absent keys as 0.
// It reports whether r had trait scores at all.
func addTraits(totals map[string]float64, r *schema.InventoryResult, keys []string) bool {
	if r == nil || r.TraitScores == nil {
		return false
	}
	for _, k := range keys {
		totals[k] += r.TraitScores[k]
	}
	return true
}

func average(totals map[string]float64, keys []string, n int) map[string]float64 {
	out := make(map[string]float64, len(keys))
	for _, k := range keys {
		out[k] = totals[k] / float64(n)
	}
	return out
}

// counter is a frequency table that remembers first-seen order so that ties
// in mode resolve to the value seen first.
type counter struct {
	counts map[string]int
	order  []string
}

func (c *counter) add(v string) {
	if c.counts == nil {
		c.counts = make(map[string]int)
	}
	if _, ok := c.counts[v]; !ok {
		c.order = append(c.order, v)
	}
	c.counts[v]++
}

func (c *counter) len() int { return len(c.order) }

func (c *counter) mode() (string, int) {
	best, n := "", 0
	for _, v := range c.order {
		if c.counts[v] > n {
			best, n = v, c.counts[v]
		}
	}
	return best, n
}
