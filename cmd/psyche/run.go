package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dshills/psyche/internal/cache"
	"github.com/dshills/psyche/internal/llm"
	"github.com/dshills/psyche/internal/persona"
	"github.com/dshills/psyche/internal/render"
	"github.com/dshills/psyche/internal/runner"
	"github.com/dshills/psyche/internal/schema"
	"github.com/dshills/psyche/internal/scoring"
	"github.com/dshills/psyche/internal/store"
)

func newRunCmd(a *app) *cobra.Command {
	var (
		model, provider string
		personaName     string
		systemPrompt    string
		inventories     []string
		samples, chunk  int
		temperature     float64
		noCalibration   bool
		discStrategy    string
		format, outPath string
		noSave          bool
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Administer inventories to a model and store the scored profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.cfg
			if model == "" {
				model = cfg.Model
			}
			if model == "" {
				return errors.New("run: --model is required (or set PSYCHE_MODEL)")
			}
			if provider != "" {
				cfg.Provider = provider
			}
			if samples > 0 {
				cfg.Samples = samples
			}
			if chunk > 0 {
				cfg.ChunkSize = chunk
			}
			if cmd.Flags().Changed("temperature") {
				cfg.Temperature = temperature
			}
			cfg.Model = model

			p, err := persona.Resolve(personaName, systemPrompt)
			if err != nil {
				return err
			}
			strategy, err := scoring.ParseSampleStrategy(discStrategy)
			if err != nil {
				return err
			}
			keys, err := runner.Selection(inventories)
			if err != nil {
				return err
			}

			prov, err := llm.NewProvider(cfg.LLM())
			if err != nil {
				return fmt.Errorf("llm: create provider: %w", err)
			}
			retry := cfg.Retry()
			retry.Logger = a.log
			prov = llm.NewRetrying(prov, retry)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			r := runner.New(prov, runner.Options{
				Model:        model,
				Persona:      p.Name,
				SystemPrompt: p.SystemPrompt,
				Inventories:  keys,
				Samples:      cfg.Samples,
				ChunkSize:    cfg.ChunkSize,
				Temperature:  &cfg.Temperature,
				MaxTokens:    cfg.MaxTokens,
				Scorer:       scoring.New(scoring.WithCalibration(!noCalibration), scoring.WithDISCStrategy(strategy)),
				Logger:       a.log,
				Progress: func(done, total int) {
					a.log.Info().Int("done", done).Int("total", total).Msg("progress")
				},
			})
			a.log.Info().Str("model", model).Str("persona", p.Name).Strs("inventories", keys).Msg("starting run")
			prof, err := r.Run(ctx)
			if err != nil {
				return err
			}

			if !noSave {
				id, err := a.save(ctx, prof)
				if err != nil {
					return err
				}
				a.log.Info().Str("id", id).Msg("run saved")
			}
			return a.writeProfile(prof, format, outPath)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&model, "model", "m", "", "model id, e.g. openai/gpt-4o-mini (default from PSYCHE_MODEL)")
	f.StringVar(&provider, "provider", "", "openrouter, openai, anthropic or google (default from PSYCHE_PROVIDER)")
	f.StringVarP(&personaName, "persona", "p", schema.DefaultPersona, "persona name; see 'psyche personas'")
	f.StringVar(&systemPrompt, "system-prompt", "", "custom system prompt; labels the run with --persona")
	f.StringSliceVarP(&inventories, "inventories", "i", nil, "inventories to administer: bigfive, mbti, disc, darktriad (default all)")
	f.IntVar(&samples, "samples", 0, "replies per item (default from PSYCHE_SAMPLES)")
	f.IntVar(&chunk, "chunk-size", 0, "items in flight at once (default from PSYCHE_CHUNK_SIZE)")
	f.Float64Var(&temperature, "temperature", runner.DefaultTemperature, "sampling temperature")
	f.BoolVar(&noCalibration, "no-calibration", false, "report raw sums without calibration")
	f.StringVar(&discStrategy, "disc-strategy", string(scoring.LastSample), "DISC sample reduction: last or mode")
	f.StringVarP(&format, "format", "f", "md", "output format: md or json")
	f.StringVarP(&outPath, "out", "o", "", "write output to a file instead of stdout")
	f.BoolVar(&noSave, "no-save", false, "do not store the run")
	return cmd
}

// save stores prof and drops cached aggregates for its model. A cache
// failure is logged, not returned.
func (a *app) save(ctx context.Context, prof *schema.ModelProfile) (string, error) {
	st, err := a.openStore(ctx)
	if err != nil {
		return "", err
	}
	defer st.Close()
	run, err := st.Insert(ctx, prof)
	if err != nil {
		return "", err
	}
	if c := a.openCache(ctx); c != nil {
		defer c.Close()
		if err := c.Invalidate(ctx, prof.ModelName); err != nil {
			a.log.Warn().Err(err).Msg("cache invalidate failed")
		}
	}
	return run.ID, nil
}

func (a *app) openStore(ctx context.Context) (*store.Store, error) {
	driver, err := store.ParseDriver(a.cfg.DBDriver)
	if err != nil {
		return nil, err
	}
	return store.Open(ctx, driver, a.cfg.DBDSN)
}

// openCache returns nil when no Redis address is configured or the server is
// unreachable.
func (a *app) openCache(ctx context.Context) *cache.Leaderboard {
	if a.cfg.RedisAddr == "" {
		return nil
	}
	c, err := cache.Dial(ctx, a.cfg.RedisAddr, a.cfg.CacheTTL)
	if err != nil {
		a.log.Warn().Err(err).Msg("leaderboard cache disabled")
		return nil
	}
	return c
}

func (a *app) writeProfile(prof *schema.ModelProfile, format, outPath string) error {
	var out []byte
	switch strings.ToLower(format) {
	case "json":
		b, err := render.RenderJSON(prof)
		if err != nil {
			return err
		}
		out = append(b, '\n')
	case "md", "markdown":
		out = []byte(render.RenderMarkdown(prof))
	default:
		return fmt.Errorf("unknown format %q (available: md, json)", format)
	}
	return a.write(out, outPath)
}

func (a *app) write(out []byte, outPath string) error {
	if outPath == "" {
		_, err := a.out.Write(out)
		return err
	}
	if err := os.WriteFile(outPath, out, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", outPath, err)
	}
	return nil
}
