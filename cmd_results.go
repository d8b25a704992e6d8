package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"speaksure/analysis"
	"speaksure/clipboard"
	"speaksure/log"
	"speaksure/results"
)

type resultsOptions struct {
	id     string
	asJSON bool
	copy   bool
}

func newResultsCommand() *cobra.Command {
	var opts resultsOptions
	cmd := &cobra.Command{
		Use:   "results",
		Short: "Show analyzed interviews",
		Long: `Show every interview stored by the analysis service.

Without --id a summary of each interview is listed. With --id the full
per-question breakdown of that interview is shown.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := log.Init(); err == nil {
				defer log.Close()
			}
			agg := results.NewAggregator(analysis.NewClient(appConfig.API.BaseURL))
			return runResults(cmd.Context(), cmd.OutOrStdout(), agg, opts)
		},
	}

	cmd.Flags().StringVar(&opts.id, "id", "", "show the detail view of one interview")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "print JSON instead of the dashboard")
	cmd.Flags().BoolVar(&opts.copy, "copy", false, "copy the summary of --id to the clipboard")

	return cmd
}

type resultDetail struct {
	Summary   results.Summary           `json:"summary"`
	Responses []results.ResponseMetrics `json:"responses"`
}

func runResults(ctx context.Context, w io.Writer, agg *results.Aggregator, opts resultsOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	recs := agg.FetchAll(ctx)

	if opts.id == "" {
		if opts.asJSON {
			sums := make([]results.Summary, len(recs))
			for i, rec := range recs {
				sums[i] = results.Summarize(rec)
			}
			return writeJSON(w, sums)
		}
		fmt.Fprint(w, renderResultsList(recs, terminalWidth()))
		return nil
	}

	rec, ok := results.Find(recs, opts.id)
	if !ok {
		return fmt.Errorf("no interview with id %q", opts.id)
	}
	if opts.copy {
		if err := clipboard.Copy(summaryText(rec)); err != nil {
			return fmt.Errorf("copying summary: %w", err)
		}
	}
	if opts.asJSON {
		return writeJSON(w, resultDetail{Summary: results.Summarize(rec), Responses: rec.Responses})
	}
	fmt.Fprint(w, renderResultDetail(rec, terminalWidth()))
	if opts.copy {
		fmt.Fprintln(w, okStyle.Render("✓ summary copied to clipboard"))
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func terminalWidth() int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		return maxBodyWidth
	}
	return w - 2
}
