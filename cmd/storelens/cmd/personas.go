package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var personasCmd = &cobra.Command{
	Use:   "personas",
	Short: "List the expert panel roster",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tWEIGHT\tFOCUS")
		for _, p := range cfg.Analysis.Personas {
			focus := make([]string, len(p.Focus))
			for i, f := range p.Focus {
				focus[i] = string(f)
			}
			fmt.Fprintf(w, "%s\t%s\t%.1f\t%s\n", p.ID, p.Name, p.Weight, strings.Join(focus, ","))
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(personasCmd)
}
