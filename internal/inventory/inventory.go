// Package inventory holds the four psychometric item banks (Big Five, MBTI,
// DISC, Dark Triad). The banks ship as embedded YAML, are parsed and validated
// once, and are read-only for the life of the process.
package inventory

import (
	"embed"
	"errors"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"
)

// Inventory keys, also used as result keys in a ModelProfile.
const (
	BigFive   = "bigfive"
	MBTI      = "mbti"
	DISC      = "disc"
	DarkTriad = "darktriad"
)

// Keys lists the administrable inventories in administration order.
var Keys = []string{BigFive, MBTI, DISC, DarkTriad}

// ErrUnknownInventory is returned by Load for a key outside Keys.
var ErrUnknownInventory = errors.New("inventory: unknown inventory")

// ItemType is the response format of an item.
type ItemType string

const (
	TypeLikert5      ItemType = "likert_5"
	TypeChoiceBinary ItemType = "choice_binary"
	TypeChoiceText   ItemType = "choice_text"
)

// Keyed is the reverse-coding flag. The empty value means forward keyed.
type Keyed string

const (
	KeyedPlus  Keyed = "plus"
	KeyedMinus Keyed = "minus"
)

// Dimension is an MBTI axis. Items are answered 1 (left anchor) to 5 (right
// anchor); the pole letters do not follow the order of the name (TF runs from
// Feeling to Thinking).
type Dimension string

const (
	DimIE Dimension = "IE"
	DimSN Dimension = "SN"
	DimTF Dimension = "TF"
	DimJP Dimension = "JP"
)

// Dimensions lists the MBTI axes in type-code order.
var Dimensions = []Dimension{DimIE, DimSN, DimTF, DimJP}

var poles = map[Dimension][2]string{
	DimIE: {"I", "E"},
	DimSN: {"S", "N"},
	DimTF: {"F", "T"},
	DimJP: {"J", "P"},
}

// Low returns the letter for the low (left-anchor) pole: I, S, F or J.
func (d Dimension) Low() string { return poles[d][0] }

// High returns the letter for the high (right-anchor) pole: E, N, T or P.
func (d Dimension) High() string { return poles[d][1] }

// Quadrant is a DISC quadrant letter.
type Quadrant string

const (
	QuadD Quadrant = "D"
	QuadI Quadrant = "I"
	QuadS Quadrant = "S"
	QuadC Quadrant = "C"
)

// Quadrants lists the DISC quadrants in display order.
var Quadrants = []Quadrant{QuadD, QuadI, QuadS, QuadC}

// Word is one option of a DISC forced-choice item.
type Word struct {
	Text     string   `yaml:"text" json:"text"`
	Quadrant Quadrant `yaml:"quadrant" json:"quadrant"`
}

// Item is a single question or stimulus.
type Item struct {
	ID        string    `yaml:"id" json:"id"`
	Text      string    `yaml:"text" json:"text"`
	Type      ItemType  `yaml:"type" json:"type"`
	Category  string    `yaml:"category,omitempty" json:"category,omitempty"`
	Keyed     Keyed     `yaml:"keyed,omitempty" json:"keyed,omitempty"`
	Dimension Dimension `yaml:"dimension,omitempty" json:"dimension,omitempty"`
	LeftText  string    `yaml:"left_text,omitempty" json:"leftText,omitempty"`
	RightText string    `yaml:"right_text,omitempty" json:"rightText,omitempty"`
	Words     []Word    `yaml:"words,omitempty" json:"words,omitempty"`
}

// Reversed reports whether the item is reverse keyed.
func (it Item) Reversed() bool { return it.Keyed == KeyedMinus }

// Bank is a complete item bank for one inventory.
type Bank struct {
	Key         string `yaml:"key"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Items       []Item `yaml:"items"`
}

//go:embed banks/*.yaml
var bankFS embed.FS

// expectedCounts is the number of items each bank must contain.
var expectedCounts = map[string]int{
	BigFive:   120,
	MBTI:      32,
	DISC:      28,
	DarkTriad: 27,
}

var (
	loadOnce sync.Once
	banks    map[string]*Bank
	loadErr  error
)

// Load returns the named bank. Banks are parsed on first use and shared; the
// returned Bank must not be modified.
func Load(key string) (*Bank, error) {
	loadOnce.Do(func() {
		banks, loadErr = loadAll()
	})
	if loadErr != nil {
		return nil, loadErr
	}
	b, ok := banks[key]
	if !ok {
		return nil, fmt.Errorf("%w %q (available: bigfive, mbti, disc, darktriad)", ErrUnknownInventory, key)
	}
	return b, nil
}

// MustLoad is Load for the built-in keys, which cannot fail once the embedded
// banks have passed validation.
func MustLoad(key string) *Bank {
	b, err := Load(key)
	if err != nil {
		panic(err)
	}
	return b
}

func loadAll() (map[string]*Bank, error) {
	out := make(map[string]*Bank, len(Keys))
	for _, key := range Keys {
		data, err := bankFS.ReadFile("banks/" + key + ".yaml")
		if err != nil {
			return nil, fmt.Errorf("inventory: read %s: %w", key, err)
		}
		b, err := Parse(data)
		if err != nil {
			return nil, fmt.Errorf("inventory: %s: %w", key, err)
		}
		if b.Key != key {
			return nil, fmt.Errorf("inventory: %s: bank declares key %q", key, b.Key)
		}
		if want := expectedCounts[key]; len(b.Items) != want {
			return nil, fmt.Errorf("inventory: %s: %d items, want %d", key, len(b.Items), want)
		}
		out[key] = b
	}
	return out, nil
}

// Parse decodes a YAML bank and validates each item against its type.
func Parse(data []byte) (*Bank, error) {
	var b Bank
	if err := yaml.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("yaml: %w", err)
	}
	if errs := Validate(&b); len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return &b, nil
}

// Validate returns one error per malformed item.
func Validate(b *Bank) []error {
	var errs []error
	seen := make(map[string]bool, len(b.Items))
	for i, it := range b.Items {
		field := fmt.Sprintf("items[%d]", i)
		if it.ID == "" {
			errs = append(errs, fmt.Errorf("%s: id is required", field))
		} else if seen[it.ID] {
			errs = append(errs, fmt.Errorf("%s: duplicate id %q", field, it.ID))
		}
		seen[it.ID] = true

		switch it.Keyed {
		case "", KeyedPlus, KeyedMinus:
		default:
			errs = append(errs, fmt.Errorf("%s: invalid keyed %q", field, it.Keyed))
		}

		switch it.Type {
		case TypeLikert5:
			if it.Dimension == "" && it.Category == "" {
				errs = append(errs, fmt.Errorf("%s: likert item needs a category or dimension", field))
			}
			if it.Dimension != "" && !validDimension(it.Dimension) {
				errs = append(errs, fmt.Errorf("%s: invalid dimension %q", field, it.Dimension))
			}
		case TypeChoiceBinary:
			if len(it.Words) != 4 {
				errs = append(errs, fmt.Errorf("%s: forced-choice item has %d words, want 4", field, len(it.Words)))
			}
			for j, w := range it.Words {
				if !validQuadrant(w.Quadrant) {
					errs = append(errs, fmt.Errorf("%s.words[%d]: invalid quadrant %q", field, j, w.Quadrant))
				}
			}
		case TypeChoiceText:
		default:
			errs = append(errs, fmt.Errorf("%s: invalid type %q", field, it.Type))
		}
	}
	return errs
}

func validDimension(d Dimension) bool {
	for _, v := range Dimensions {
		if v == d {
			return true
		}
	}
	return false
}

func validQuadrant(q Quadrant) bool {
	for _, v := range Quadrants {
		if v == q {
			return true
		}
	}
	return false
}

// Items returns the concatenated items of the given banks, in the order given.
func Items(keys ...string) ([]Item, error) {
	var out []Item
	for _, k := range keys {
		b, err := Load(k)
		if err != nil {
			return nil, err
		}
		out = append(out, b.Items...)
	}
	return out, nil
}
