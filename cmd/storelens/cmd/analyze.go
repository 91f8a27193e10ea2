package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/bryanwahyu/storelens/internal/app"
	appanalysis "github.com/bryanwahyu/storelens/internal/application/analysis"
	"github.com/bryanwahyu/storelens/internal/domain/store"
)

var (
	analyzeTenant    string
	analyzeTier      string
	analyzeRecipient string
	analyzeJSON      bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <profile.json>",
	Short: "Run one analysis for a store profile",
	Long: `Reads a store profile as JSON, runs the full analysis and prints a summary.
Relative media paths in the profile resolve against the profile's directory
unless object storage is enabled.`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().StringVar(&analyzeTenant, "tenant", "local", "tenant the report belongs to")
	analyzeCmd.Flags().StringVar(&analyzeTier, "tier", string(store.TierBasic), "service tier (basic, professional, enterprise)")
	analyzeCmd.Flags().StringVar(&analyzeRecipient, "recipient", "", "notification recipient")
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "print the full report as JSON")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	profile, err := readProfile(args[0])
	if err != nil {
		return err
	}
	if !cfg.Minio.Enabled {
		cfg.Media.LocalRoot = filepath.Dir(args[0])
	}

	return withApp(cmd.Context(), app.Options{}, func(a *app.App) error {
		res, err := a.Service.Analyze(cmd.Context(), appanalysis.AnalyzeCommand{
			TenantID:  analyzeTenant,
			Tier:      store.Tier(analyzeTier),
			Profile:   profile,
			Recipient: analyzeRecipient,
		})
		if err != nil {
			return err
		}
		if analyzeJSON {
			return outputJSON(cmd.OutOrStdout(), res.Report)
		}
		return printSummary(cmd.OutOrStdout(), res)
	})
}

func readProfile(path string) (store.StoreProfile, error) {
	var p store.StoreProfile
	data, err := os.ReadFile(path)
	if err != nil {
		return p, err
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("parse %s: %w", path, err)
	}
	return p, nil
}

func printSummary(out io.Writer, res appanalysis.AnalyzeResult) error {
	r := res.Report
	fmt.Fprintf(out, "Report:     %s\n", res.ReportID)
	fmt.Fprintf(out, "Store:      %s (%s)\n", r.StoreName, r.StoreID)
	fmt.Fprintf(out, "Score:      %.1f\n", r.OverallScore)
	fmt.Fprintf(out, "Confidence: %d%%\n", r.Confidence.Percent())
	if res.ExportURL != "" {
		fmt.Fprintf(out, "Export:     %s\n", res.ExportURL)
	}
	fmt.Fprintln(out)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SECTION\tSOURCE\tCONFIDENCE")
	for _, s := range r.Sections {
		fmt.Fprintf(w, "%s\t%s\t%.2f\n", s.Kind, s.Provenance, s.Confidence)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	for _, warn := range r.Warnings {
		fmt.Fprintf(out, "warning: %s: %s\n", warn.AssetID, warn.Reason)
	}
	return nil
}

func outputJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
