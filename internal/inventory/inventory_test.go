package inventory

import (
	"errors"
	"strings"
	"testing"
)

func TestLoad_Counts(t *testing.T) {
	cases := []struct {
		key  string
		want int
	}{
		{BigFive, 120},
		{MBTI, 32},
		{DISC, 28},
		{DarkTriad, 27},
	}
	for _, c := range cases {
		b, err := Load(c.key)
		if err != nil {
			t.Fatalf("Load(%q): %v", c.key, err)
		}
		if len(b.Items) != c.want {
			t.Errorf("Load(%q) items = %d, want %d", c.key, len(b.Items), c.want)
		}
		if b.Name == "" {
			t.Errorf("Load(%q).Name is empty", c.key)
		}
	}
}

func TestLoad_Unknown(t *testing.T) {
	_, err := Load("enneagram")
	if !errors.Is(err, ErrUnknownInventory) {
		t.Fatalf("Load(enneagram) err = %v, want ErrUnknownInventory", err)
	}
}

func TestBigFive_FacetLayout(t *testing.T) {
	b := MustLoad(BigFive)
	facets := map[string]int{}
	for _, it := range b.Items {
		if len(it.Category) != 2 || !strings.ContainsRune("NEOAC", rune(it.Category[0])) {
			t.Fatalf("item %s: unexpected facet %q", it.ID, it.Category)
		}
		facets[it.Category]++
	}
	if len(facets) != 30 {
		t.Errorf("facet count = %d, want 30", len(facets))
	}
	for f, n := range facets {
		if n != 4 {
			t.Errorf("facet %s has %d items, want 4", f, n)
		}
	}
}

func TestMBTI_Dimensions(t *testing.T) {
	b := MustLoad(MBTI)
	counts := map[Dimension]int{}
	for _, it := range b.Items {
		if it.LeftText == "" || it.RightText == "" {
			t.Errorf("item %s missing anchor text", it.ID)
		}
		counts[it.Dimension]++
	}
	for _, d := range Dimensions {
		if counts[d] != 8 {
			t.Errorf("dimension %s has %d items, want 8", d, counts[d])
		}
	}
}

func TestDISC_Words(t *testing.T) {
	b := MustLoad(DISC)
	for _, it := range b.Items {
		if it.Type != TypeChoiceBinary {
			t.Errorf("item %s type = %q, want choice_binary", it.ID, it.Type)
		}
		if len(it.Words) != 4 {
			t.Errorf("item %s has %d words, want 4", it.ID, len(it.Words))
		}
	}
}

func TestDarkTriad_Subscales(t *testing.T) {
	b := MustLoad(DarkTriad)
	counts := map[string]int{}
	reversed := 0
	for _, it := range b.Items {
		counts[it.Category]++
		if it.Reversed() {
			reversed++
		}
	}
	for _, s := range []string{"Machiavellianism", "Narcissism", "Psychopathy"} {
		if counts[s] != 9 {
			t.Errorf("subscale %s has %d items, want 9", s, counts[s])
		}
	}
	if reversed != 5 {
		t.Errorf("reverse-keyed items = %d, want 5", reversed)
	}
}

func TestDimensionPoles(t *testing.T) {
	cases := []struct {
		d         Dimension
		low, high string
	}{
		{DimIE, "I", "E"},
		{DimSN, "S", "N"},
		{DimTF, "F", "T"},
		{DimJP, "J", "P"},
	}
	for _, c := range cases {
		if c.d.Low() != c.low || c.d.High() != c.high {
			t.Errorf("%s poles = %s/%s, want %s/%s", c.d, c.d.Low(), c.d.High(), c.low, c.high)
		}
	}
}

func TestParse_Invalid(t *testing.T) {
	data := []byte(`
key: disc
name: broken
items:
  - id: x1
    text: pick
    type: choice_binary
    words:
      - {text: a, quadrant: D}
      - {text: b, quadrant: Q}
  - id: x1
    text: dup
    type: likert_5
    category: N1
    keyed: sideways
`)
	_, err := Parse(data)
	if err == nil {
		t.Fatal("Parse: expected error, got nil")
	}
	msg := err.Error()
	for _, want := range []string{"2 words", "invalid quadrant", "duplicate id", "invalid keyed"} {
		if !strings.Contains(msg, want) {
			t.Errorf("Parse error %q does not mention %q", msg, want)
		}
	}
}

func TestItems_Concatenates(t *testing.T) {
	items, err := Items(MBTI, DarkTriad)
	if err != nil {
		t.Fatalf("Items: %v", err)
	}
	if len(items) != 59 {
		t.Errorf("Items(mbti, darktriad) = %d, want 59", len(items))
	}
	if items[0].ID != "mbti_1" {
		t.Errorf("first item = %q, want mbti_1", items[0].ID)
	}
}
