package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dshills/psyche/internal/persona"
)

func newPersonasCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "personas",
		Short: "List the built-in personas",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tSYSTEM PROMPT")
			for _, p := range persona.All() {
				prompt := p.SystemPrompt
				if prompt == "" {
					prompt = "(none)"
				}
				fmt.Fprintf(tw, "%s\t%s\n", p.Name, prompt)
			}
			return tw.Flush()
		},
	}
}
