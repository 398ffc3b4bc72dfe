package scoring

import (
	"fmt"

	"github.com/dshills/psyche/internal/inventory"
	"github.com/dshills/psyche/internal/schema"
)

// Option configures a Scorer.
type Option func(*config)

type config struct {
	calibrate bool
	disc      SampleStrategy
}

// WithCalibration turns the z-score calibration on or off (default on).
func WithCalibration(on bool) Option { return func(c *config) { c.calibrate = on } }

// WithDISCStrategy selects how DISC samples are reduced (default LastSample).
func WithDISCStrategy(s SampleStrategy) Option { return func(c *config) { c.disc = s } }

// Scorer scores response sets against the embedded item banks.
type Scorer struct {
	cfg config
}

// New returns a Scorer with calibration enabled and LastSample DISC reduction
// unless overridden.
func New(opts ...Option) *Scorer {
	cfg := config{calibrate: true, disc: LastSample}
	for _, o := range opts {
		o(&cfg)
	}
	return &Scorer{cfg: cfg}
}

// Calibrated reports whether s applies calibration.
func (s *Scorer) Calibrated() bool { return s.cfg.calibrate }

// Score scores rs for one inventory key.
func (s *Scorer) Score(key string, rs schema.ResponseSet) (*schema.InventoryResult, error) {
	b, err := inventory.Load(key)
	if err != nil {
		return nil, err
	}
	switch key {
	case inventory.BigFive:
		return ScoreBigFive(b.Items, rs, s.cfg.calibrate), nil
	case inventory.MBTI:
		return ScoreMBTI(b.Items, rs, s.cfg.calibrate), nil
	case inventory.DISC:
		return ScoreDISC(b.Items, rs, s.cfg.calibrate, s.cfg.disc), nil
	case inventory.DarkTriad:
		return ScoreDarkTriad(b.Items, rs), nil
	}
	return nil, fmt.Errorf("%w %q", inventory.ErrUnknownInventory, key)
}

// ScoreAll scores rs for each key and returns results keyed as in a
// ModelProfile. Scoring Big Five also adds the derived MBTI result.
func (s *Scorer) ScoreAll(rs schema.ResponseSet, keys ...string) (map[string]*schema.InventoryResult, error) {
	out := make(map[string]*schema.InventoryResult, len(keys)+1)
	for _, k := range keys {
		r, err := s.Score(k, rs)
		if err != nil {
			return nil, err
		}
		out[k] = r
		if k == inventory.BigFive {
			out[schema.KeyMBTIDerived] = DeriveMBTI(r)
		}
	}
	return out, nil
}

// DetectInventories returns, in administration order, the keys of every bank
// that has at least one item present in rs.
func DetectInventories(rs schema.ResponseSet) []string {
	var keys []string
	for _, k := range inventory.Keys {
		b := inventory.MustLoad(k)
		for _, it := range b.Items {
			if _, ok := rs[it.ID]; ok {
				keys = append(keys, k)
				break
			}
		}
	}
	return keys
}
