package schema_test

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"

	"github.com/dshills/psyche/internal/schema"
)

func TestModelProfile_JSONFieldNames(t *testing.T) {
	p := &schema.ModelProfile{
		ModelName:    "openai/gpt-4o",
		Persona:      "Skeptical Scientist",
		SystemPrompt: "You are a skeptical scientist.",
		Timestamp:    1700000000000,
		Results: map[string]*schema.InventoryResult{
			schema.KeyMBTI: {
				InventoryName: "MBTI (OEJTS 1.2)",
				RawScores:     schema.ResponseSet{"mbti_1": {1, 2}},
				TraitScores:   map[string]float64{"E": 30},
				Type:          "ENTP",
				PSI:           map[string]float64{"IE": 0.375},
				Details:       map[string]any{"derived": false},
			},
		},
		Logs: []schema.LogEntry{{Timestamp: "10:00:00", Message: "start", Type: schema.LogInfo}},
	}
	b, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	s := string(b)
	for _, want := range []string{
		`"modelName":"openai/gpt-4o"`,
		`"systemPrompt":`,
		`"inventoryName":"MBTI (OEJTS 1.2)"`,
		`"rawScores":{"mbti_1":[1,2]}`,
		`"traitScores":{"E":30}`,
		`"psi":{"IE":0.375}`,
		`"type":"info"`,
	} {
		if !strings.Contains(s, want) {
			t.Errorf("JSON %s missing %s", s, want)
		}
	}

	var got schema.ModelProfile
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Result(schema.KeyMBTI).Type != "ENTP" {
		t.Errorf("round-trip type = %q, want ENTP", got.Result(schema.KeyMBTI).Type)
	}
}

func TestInventoryResult_OmitsEmptyOptionals(t *testing.T) {
	r := schema.InventoryResult{InventoryName: "Dark Triad (SD3)", TraitScores: map[string]float64{}}
	b, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	for _, absent := range []string{`"type"`, `"psi"`, `"details"`} {
		if strings.Contains(string(b), absent) {
			t.Errorf("JSON %s should omit %s", b, absent)
		}
	}
}

func TestPersonaOrDefault(t *testing.T) {
	if got := (&schema.ModelProfile{}).PersonaOrDefault(); got != schema.DefaultPersona {
		t.Errorf("PersonaOrDefault() = %q, want %q", got, schema.DefaultPersona)
	}
	if got := (&schema.ModelProfile{Persona: "Creative Writer"}).PersonaOrDefault(); got != "Creative Writer" {
		t.Errorf("PersonaOrDefault() = %q, want Creative Writer", got)
	}
}

func TestMBTIType_PrefersDirect(t *testing.T) {
	cases := []struct {
		name    string
		results map[string]*schema.InventoryResult
		want    string
	}{
		{"both", map[string]*schema.InventoryResult{
			schema.KeyMBTI:        {Type: "INTJ"},
			schema.KeyMBTIDerived: {Type: "ESFP"},
		}, "INTJ"},
		{"derived only", map[string]*schema.InventoryResult{
			schema.KeyMBTIDerived: {Type: "ESFP"},
		}, "ESFP"},
		{"none", nil, ""},
	}
	for _, c := range cases {
		p := &schema.ModelProfile{Results: c.results}
		if got := p.MBTIType(); got != c.want {
			t.Errorf("%s: MBTIType() = %q, want %q", c.name, got, c.want)
		}
	}
}

func TestTraitKeys(t *testing.T) {
	r := &schema.InventoryResult{TraitScores: map[string]float64{"N": 1, "_raw_N": 2, "E": 3}}
	if got, want := r.TraitKeys(false), []string{"E", "N"}; !reflect.DeepEqual(got, want) {
		t.Errorf("TraitKeys(false) = %v, want %v", got, want)
	}
	if got := r.TraitKeys(true); len(got) != 3 {
		t.Errorf("TraitKeys(true) = %v, want 3 keys", got)
	}
}

func TestResponseSet_Clone(t *testing.T) {
	rs := schema.ResponseSet{"1": {1, 2, 3}}
	c := rs.Clone()
	c["1"][0] = 5
	if rs["1"][0] != 1 {
		t.Error("Clone shares backing arrays with the original")
	}
	if schema.ResponseSet(nil).Clone() != nil {
		t.Error("Clone of nil should be nil")
	}
}
