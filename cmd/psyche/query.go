package main

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/dshills/psyche/internal/aggregate"
	"github.com/dshills/psyche/internal/render"
	"github.com/dshills/psyche/internal/schema"
	"github.com/dshills/psyche/internal/store"
)

func newShowCmd(a *app) *cobra.Command {
	var format, outPath string
	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Print a stored run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()
			run, err := st.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.writeProfile(run.Profile, format, outPath)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "md", "output format: md or json")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "write output to a file instead of stdout")
	return cmd
}

func newRunsCmd(a *app) *cobra.Command {
	var (
		limit int
		model string
	)
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List stored runs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()
			var runs []store.Run
			if model != "" {
				runs, err = st.ListByModel(cmd.Context(), model, limit)
			} else {
				runs, err = st.List(cmd.Context(), limit)
			}
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tCREATED\tMODEL\tPERSONA\tMBTI\tINVENTORIES")
			for _, r := range runs {
				mbti := r.Profile.MBTIType()
				if mbti == "" {
					mbti = aggregate.NoType
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
					r.ID, r.CreatedAt.Format(time.DateTime), r.Profile.ModelName,
					r.Profile.PersonaOrDefault(), mbti, strings.Join(resultKeys(r), ","))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "maximum runs to list")
	cmd.Flags().StringVarP(&model, "model", "m", "", "only runs of this model")
	return cmd
}

func resultKeys(r store.Run) []string {
	var keys []string
	for _, k := range schema.ResultKeys {
		if r.Profile.Result(k) != nil {
			keys = append(keys, k)
		}
	}
	return keys
}

func newLeaderboardCmd(a *app) *cobra.Command {
	var format, outPath, model string
	cmd := &cobra.Command{
		Use:   "leaderboard",
		Short: "Aggregate stored runs per model and persona",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			if model != "" {
				runs, err := st.ListByModel(ctx, model, store.DefaultLimit)
				if err != nil {
					return err
				}
				summary := aggregate.ModelSummary(model, store.Profiles(runs), time.Now())
				if summary == nil {
					return fmt.Errorf("leaderboard: no runs for model %q", model)
				}
				return a.writeProfile(summary, format, outPath)
			}

			runs, err := st.List(ctx, store.DefaultLimit)
			if err != nil {
				return err
			}
			entries := aggregate.Leaderboard(store.Profiles(runs))
			switch strings.ToLower(format) {
			case "json":
				b, err := render.RenderLeaderboardJSON(entries)
				if err != nil {
					return err
				}
				return a.write(append(b, '\n'), outPath)
			case "md", "markdown":
				return a.write([]byte(render.RenderLeaderboardMarkdown(entries)), outPath)
			}
			return fmt.Errorf("unknown format %q (available: md, json)", format)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "md", "output format: md or json")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "write output to a file instead of stdout")
	cmd.Flags().StringVarP(&model, "model", "m", "", "show the aggregated profile of one model instead")
	return cmd
}
