package aggregate

import (
	"testing"
	"time"

	"github.com/dshills/psyche/internal/schema"
)

func run(model, persona string, results map[string]*schema.InventoryResult) *schema.ModelProfile {
	return &schema.ModelProfile{ModelName: model, Persona: persona, Results: results}
}

func bigFive(v float64) *schema.InventoryResult {
	return &schema.InventoryResult{TraitScores: map[string]float64{"N": v, "E": v, "O": v, "A": v, "C": v}}
}

func typed(t string) *schema.InventoryResult {
	return &schema.InventoryResult{Type: t, TraitScores: map[string]float64{"E": 30, "I": 18}}
}

func TestLeaderboard_GroupsAndAverages(t *testing.T) {
	runs := []*schema.ModelProfile{
		run("m1", "", map[string]*schema.InventoryResult{schema.KeyBigFive: bigFive(60)}),
		run("m1", "Base Model", map[string]*schema.InventoryResult{schema.KeyBigFive: bigFive(80)}),
		run("m1", "Base Model", nil),
		run("m2", "Creative Writer", map[string]*schema.InventoryResult{
			schema.KeyDISC: {TraitScores: map[string]float64{"D": 10, "I": 20}},
		}),
	}
	got := Leaderboard(runs)
	if len(got) != 2 {
		t.Fatalf("Leaderboard rows = %d, want 2", len(got))
	}
	top := got[0]
	if top.ID != "m1::Base Model" || top.Count != 3 {
		t.Errorf("top row = %s count %d, want m1::Base Model count 3", top.ID, top.Count)
	}
	// (60 + 80 + 0) / 3: a run without Big Five still counts.
	if want := 140.0 / 3; top.Scores["E"] != want {
		t.Errorf("E = %v, want %v", top.Scores["E"], want)
	}
	if top.MBTI != NoType {
		t.Errorf("MBTI = %q, want %q", top.MBTI, NoType)
	}
	second := got[1]
	if second.DISC["I"] != 20 || second.DISC["S"] != 0 {
		t.Errorf("DISC = %v", second.DISC)
	}
	if second.Scores["N"] != 0 {
		t.Errorf("Scores[N] = %v, want 0", second.Scores["N"])
	}
}

func TestLeaderboard_MBTIPrefersDirect(t *testing.T) {
	runs := []*schema.ModelProfile{
		run("m", "p", map[string]*schema.InventoryResult{schema.KeyMBTIDerived: typed("ESFP")}),
		run("m", "p", map[string]*schema.InventoryResult{schema.KeyMBTIDerived: typed("ESFP")}),
		run("m", "p", map[string]*schema.InventoryResult{
			schema.KeyMBTI:        typed("INTJ"),
			schema.KeyMBTIDerived: typed("ESFP"),
		}),
	}
	got := Leaderboard(runs)
	if got[0].MBTI != "INTJ" {
		t.Errorf("MBTI = %q, want INTJ (direct wins even when outnumbered)", got[0].MBTI)
	}

	derivedOnly := Leaderboard(runs[:2])
	if derivedOnly[0].MBTI != "ESFP" {
		t.Errorf("MBTI = %q, want ESFP", derivedOnly[0].MBTI)
	}
}

func TestLeaderboard_DarkTriadOverRunsHavingIt(t *testing.T) {
	runs := []*schema.ModelProfile{
		run("m", "p", map[string]*schema.InventoryResult{
			schema.KeyDarkTriad: {TraitScores: map[string]float64{"Machiavellianism": 40, "Narcissism": 20, "Psychopathy": 10}},
		}),
		run("m", "p", nil),
	}
	got := Leaderboard(runs)
	if got[0].DarkTriad["Machiavellianism"] != 40 {
		t.Errorf("Machiavellianism = %v, want 40", got[0].DarkTriad["Machiavellianism"])
	}
	if Leaderboard(runs[1:])[0].DarkTriad != nil {
		t.Error("DarkTriad set for a group with no Dark Triad runs")
	}
}

func TestLeaderboard_Ordering(t *testing.T) {
	runs := []*schema.ModelProfile{
		run("b", "x", nil),
		run("a", "y", nil),
		run("a", "x", nil),
		run("c", "x", nil),
		run("c", "x", nil),
	}
	got := Leaderboard(runs)
	want := []string{"c::x", "a::x", "a::y", "b::x"}
	for i, id := range want {
		if got[i].ID != id {
			t.Errorf("row %d = %s, want %s", i, got[i].ID, id)
		}
	}
}

func TestModelSummary(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	runs := []*schema.ModelProfile{
		run("m", "Skeptical Scientist", map[string]*schema.InventoryResult{
			schema.KeyBigFive:     bigFive(60),
			schema.KeyMBTIDerived: typed("ISTJ"),
		}),
		run("m", "Skeptical Scientist", map[string]*schema.InventoryResult{
			schema.KeyBigFive: bigFive(90),
			schema.KeyMBTI:    typed("ENTP"),
		}),
		run("m", "", map[string]*schema.InventoryResult{
			schema.KeyMBTI: typed("ENTP"),
		}),
	}
	p := ModelSummary("m", runs, now)
	if p == nil {
		t.Fatal("ModelSummary returned nil")
	}
	if p.Persona != "Skeptical Scientist" {
		t.Errorf("Persona = %q, want Skeptical Scientist", p.Persona)
	}
	if p.Timestamp != now.UnixMilli() {
		t.Errorf("Timestamp = %d, want %d", p.Timestamp, now.UnixMilli())
	}
	bf := p.Result(schema.KeyBigFive)
	if bf == nil || bf.TraitScores["O"] != 75 {
		t.Fatalf("bigfive = %+v, want O=75 averaged over 2 runs", bf)
	}
	if bf.Details["count"] != 2 {
		t.Errorf("bigfive count = %v, want 2", bf.Details["count"])
	}
	mbti := p.Result(schema.KeyMBTIDerived)
	if mbti == nil || mbti.Type != "ENTP" {
		t.Fatalf("mbti = %+v, want type ENTP", mbti)
	}
	if mbti.Details["count"] != 2 || mbti.Details["total"] != 3 {
		t.Errorf("mbti details = %v", mbti.Details)
	}
	if mbti.TraitScores["E"] != 30 {
		t.Errorf("mbti E = %v, want 30", mbti.TraitScores["E"])
	}
	if p.Result(schema.KeyDISC) != nil || p.Result(schema.KeyDarkTriad) != nil {
		t.Error("inventories with no runs should be absent")
	}
}

func TestModelSummary_Empty(t *testing.T) {
	if p := ModelSummary("m", nil, time.Now()); p != nil {
		t.Errorf("ModelSummary(empty) = %+v, want nil", p)
	}
}

func TestFilterModel(t *testing.T) {
	runs := []*schema.ModelProfile{run("a", "", nil), run("b", "", nil), run("a", "", nil)}
	if got := FilterModel(runs, "a"); len(got) != 2 {
		t.Errorf("FilterModel(a) = %d runs, want 2", len(got))
	}
}
