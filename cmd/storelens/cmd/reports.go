package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/bryanwahyu/storelens/internal/app"
	"github.com/bryanwahyu/storelens/internal/domain/analysis"
)

var (
	historyPage     int
	historyPageSize int
)

var reportCmd = &cobra.Command{
	Use:   "report <tenant> <report-id>",
	Short: "Print a stored report as JSON",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), app.Options{}, func(a *app.App) error {
			r, err := a.Service.Get(cmd.Context(), args[0], analysis.ReportID(args[1]))
			if err != nil {
				return err
			}
			return outputJSON(cmd.OutOrStdout(), r)
		})
	},
}

var historyCmd = &cobra.Command{
	Use:   "history <tenant> <store-id>",
	Short: "List the reports of a store, newest first",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), app.Options{}, func(a *app.App) error {
			page, err := a.Service.History(cmd.Context(), args[0], args[1], historyPage, historyPageSize)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "REPORT\tCREATED\tTIER\tSCORE")
			for _, r := range page.Data {
				fmt.Fprintf(w, "%s\t%s\t%s\t%.1f\n", r.ID, r.CreatedAt.Format("2006-01-02 15:04"), r.Tier, r.OverallScore)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(out, "page %d of %d (%d reports)\n", page.Page, page.TotalPages, page.Total)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(reportCmd, historyCmd)
	historyCmd.Flags().IntVar(&historyPage, "page", 1, "page number")
	historyCmd.Flags().IntVar(&historyPageSize, "page-size", 20, "reports per page")
}
