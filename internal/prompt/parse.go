package prompt

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/dshills/psyche/internal/inventory"
	"github.com/dshills/psyche/internal/scoring"
)

// Neutral substitutes for a sample that could not be collected or parsed. A
// forced-choice 0 picks the same word as most and least, which cancels out.
const (
	NeutralLikert = 3
	NeutralChoice = 0
)

var (
	// ErrInvalidStructure is returned when the reply is a JSON document
	// (typically a provider debug payload) instead of an answer.
	ErrInvalidStructure = errors.New("prompt: model returned invalid structure")
	// ErrNoAnswer is returned when no usable number is found in the reply.
	ErrNoAnswer = errors.New("prompt: no answer in response")
)

// Answer is a parsed reply.
type Answer struct {
	Value    float64
	Fallback bool // Likert score taken from the last digit rather than a standalone 1-5
	Most     int  // 0-based, forced-choice only
	Least    int  // 0-based, forced-choice only
}

// Neutral returns the substitute sample for it.
func Neutral(it inventory.Item) float64 {
	if it.Type == inventory.TypeChoiceBinary {
		return NeutralChoice
	}
	return NeutralLikert
}

// Parse interprets reply as an answer to it.
func Parse(it inventory.Item, reply string) (Answer, error) {
	if it.Type == inventory.TypeChoiceBinary {
		return ParseChoice(reply, len(it.Words))
	}
	return ParseLikert(reply)
}

var (
	likertRe = regexp.MustCompile(`\b([1-5])\b`)
	digitRe  = regexp.MustCompile(`\d`)
	numberRe = regexp.MustCompile(`\d+`)
)

// ParseLikert takes the first standalone digit 1-5. Failing that, the last
// digit anywhere in the reply is used when it is 1-5, and the answer is
// marked as a fallback.
func ParseLikert(reply string) (Answer, error) {
	text, err := normalize(reply)
	if err != nil {
		return Answer{}, err
	}
	if m := likertRe.FindStringSubmatch(text); m != nil {
		v, _ := strconv.Atoi(m[1])
		return Answer{Value: float64(v)}, nil
	}
	if digits := digitRe.FindAllString(text, -1); len(digits) > 0 {
		v, _ := strconv.Atoi(digits[len(digits)-1])
		if v >= 1 && v <= 5 {
			return Answer{Value: float64(v), Fallback: true}, nil
		}
	}
	return Answer{}, fmt.Errorf("%w: %q", ErrNoAnswer, reply)
}

// ParseChoice reads the first two integers of the reply as 1-based most and
// least word numbers and encodes them as most*10 + least (0-based). Numbers
// outside 1..words are rejected.
func ParseChoice(reply string, words int) (Answer, error) {
	text, err := normalize(reply)
	if err != nil {
		return Answer{}, err
	}
	nums := numberRe.FindAllString(text, 2)
	if len(nums) < 2 {
		return Answer{}, fmt.Errorf("%w: %q", ErrNoAnswer, reply)
	}
	most, err1 := strconv.Atoi(nums[0])
	least, err2 := strconv.Atoi(nums[1])
	if err1 != nil || err2 != nil || most < 1 || most > words || least < 1 || least > words {
		return Answer{}, fmt.Errorf("%w: choice %s, %s out of range 1-%d", ErrNoAnswer, nums[0], nums[1], words)
	}
	return Answer{
		Value: scoring.EncodeChoice(most-1, least-1),
		Most:  most - 1,
		Least: least - 1,
	}, nil
}

func normalize(reply string) (string, error) {
	text := stripMarkdownFences(reply)
	if strings.HasPrefix(text, "{") {
		return "", ErrInvalidStructure
	}
	return text, nil
}

// fenceRe matches a markdown code fence block (``` or ~~~) with an optional
// language tag and captures the content between the fences.
var fenceRe = regexp.MustCompile("(?s)^(?:`{3}|~{3})[^\\n]*\\n(.*?)(?:`{3}|~{3})\\s*$")

// stripMarkdownFences removes a code fence some models wrap around even a
// one-token answer.
func stripMarkdownFences(s string) string {
	s = strings.TrimSpace(s)
	if m := fenceRe.FindStringSubmatch(s); m != nil {
		return strings.TrimSpace(m[1])
	}
	return s
}
