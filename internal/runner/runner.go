// Package runner administers inventories to a model. It sends every item of
// the selected banks to an llm.Provider several times, parses each reply,
// substitutes a neutral value when a sample cannot be used, scores the
// collected responses and assembles a schema.ModelProfile with its
// verification log.
package runner

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/dshills/psyche/internal/inventory"
	"github.com/dshills/psyche/internal/llm"
	"github.com/dshills/psyche/internal/prompt"
	"github.com/dshills/psyche/internal/schema"
	"github.com/dshills/psyche/internal/scoring"
)

// Defaults used when the corresponding Options field is zero.
const (
	DefaultSamples     = 5
	DefaultChunkSize   = 3
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 4096
)

// ErrNoItems is returned when the selection resolves to no items.
var ErrNoItems = errors.New("runner: no items selected")

// Options configures a run.
type Options struct {
	Model        string
	Persona      string // label stored with the run; DefaultPersona when empty
	SystemPrompt string
	Inventories  []string // inventory keys; all banks when empty

	Samples     int      // replies requested per item
	ChunkSize   int      // items in flight at once
	Temperature *float64 // sampling temperature; nil means DefaultTemperature
	MaxTokens   int

	Scorer   *scoring.Scorer
	Logger   zerolog.Logger
	Progress func(done, total int) // called after each chunk
	Now      func() time.Time
}

func (o Options) withDefaults() Options {
	if o.Samples <= 0 {
		o.Samples = DefaultSamples
	}
	if o.ChunkSize <= 0 {
		o.ChunkSize = DefaultChunkSize
	}
	if o.Temperature == nil {
		t := DefaultTemperature
		o.Temperature = &t
	}
	if o.MaxTokens <= 0 {
		o.MaxTokens = DefaultMaxTokens
	}
	if o.Scorer == nil {
		o.Scorer = scoring.New()
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.Persona == "" {
		o.Persona = schema.DefaultPersona
	}
	return o
}

// Runner administers inventories through one provider.
type Runner struct {
	provider llm.Provider
	opts     Options
}

// New returns a Runner for p.
func New(p llm.Provider, opts Options) *Runner {
	return &Runner{provider: p, opts: opts.withDefaults()}
}

// Selection normalizes a list of inventory keys: duplicates are dropped,
// order follows inventory.Keys, and an empty list selects every bank.
func Selection(keys []string) ([]string, error) {
	if len(keys) == 0 {
		return append([]string(nil), inventory.Keys...), nil
	}
	want := make(map[string]bool, len(keys))
	for _, k := range keys {
		k = strings.ToLower(strings.TrimSpace(k))
		if _, err := inventory.Load(k); err != nil {
			return nil, err
		}
		want[k] = true
	}
	var out []string
	for _, k := range inventory.Keys {
		if want[k] {
			out = append(out, k)
		}
	}
	return out, nil
}

// Run administers the selected inventories and returns the scored profile.
// A cancelled ctx stops dispatch and returns the context error.
func (r *Runner) Run(ctx context.Context) (*schema.ModelProfile, error) {
	keys, err := Selection(r.opts.Inventories)
	if err != nil {
		return nil, err
	}
	items, err := inventory.Items(keys...)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrNoItems
	}

	log := newRunLog(r.opts.Logger, r.opts.Now)
	log.info(fmt.Sprintf("Starting test for model: %s [%s]", r.opts.Model, r.opts.Persona))
	log.info(fmt.Sprintf("Total items to query: %d (x%d samples = %d requests)",
		len(items), r.opts.Samples, len(items)*r.opts.Samples))

	rs, err := r.collect(ctx, items, log)
	if err != nil {
		return nil, err
	}

	log.info("Calculating scores...")
	results, err := r.opts.Scorer.ScoreAll(rs, keys...)
	if err != nil {
		return nil, fmt.Errorf("runner: score: %w", err)
	}
	log.success("Test completed successfully!")

	return &schema.ModelProfile{
		ModelName:    r.opts.Model,
		Persona:      r.opts.Persona,
		SystemPrompt: r.opts.SystemPrompt,
		Timestamp:    r.opts.Now().UnixMilli(),
		Results:      results,
		Logs:         log.entries(),
	}, nil
}

// Collect administers items and returns the raw response set without scoring.
func (r *Runner) Collect(ctx context.Context, items []inventory.Item) (schema.ResponseSet, error) {
	return r.collect(ctx, items, newRunLog(r.opts.Logger, r.opts.Now))
}

func (r *Runner) collect(ctx context.Context, items []inventory.Item, log *runLog) (schema.ResponseSet, error) {
	rs := make(schema.ResponseSet, len(items))
	var mu sync.Mutex

	for start := 0; start < len(items); start += r.opts.ChunkSize {
		end := min(start+r.opts.ChunkSize, len(items))
		g, gctx := errgroup.WithContext(ctx)
		for _, it := range items[start:end] {
			g.Go(func() error {
				samples, err := r.administer(gctx, it, log)
				if err != nil {
					return err
				}
				mu.Lock()
				rs[it.ID] = samples
				mu.Unlock()
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			log.errorf("Test failed: %v", err)
			return nil, fmt.Errorf("runner: collect: %w", err)
		}
		if r.opts.Progress != nil {
			r.opts.Progress(end, len(items))
		}
	}
	return rs, nil
}

// administer collects the samples for one item. Samples are requested one
// after another so each reply comes from an independent request. Only
// cancellation of ctx is returned as an error; every other failure is logged
// and replaced by the item's neutral value.
func (r *Runner) administer(ctx context.Context, it inventory.Item, log *runLog) ([]float64, error) {
	text := prompt.ForItem(it)
	samples := make([]float64, 0, r.opts.Samples)
	for s := 0; s < r.opts.Samples; s++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		reply, err := r.provider.Complete(ctx, r.opts.SystemPrompt, text, r.opts.MaxTokens, *r.opts.Temperature)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			log.errorf("Error fetching item %q: %v", label(it), err)
			samples = append(samples, prompt.Neutral(it))
			continue
		}
		ans, err := prompt.Parse(it, reply)
		switch {
		case errors.Is(err, prompt.ErrInvalidStructure):
			log.errorf("Model returned invalid structure (Debug Info): %s", reply)
			samples = append(samples, prompt.Neutral(it))
		case err != nil && it.Type == inventory.TypeChoiceBinary:
			log.errorf("Failed to parse DISC response: %q", reply)
			samples = append(samples, prompt.Neutral(it))
		case err != nil:
			log.errorf("Failed to parse response for item %q. Raw response: %q", it.Text, reply)
			samples = append(samples, prompt.Neutral(it))
		default:
			samples = append(samples, ans.Value)
			log.answer(it, s, reply, ans)
		}
	}
	return samples, nil
}

// label is the human-facing name of an item in log lines.
func label(it inventory.Item) string {
	if it.Text != "" {
		return it.Text
	}
	return it.ID
}
