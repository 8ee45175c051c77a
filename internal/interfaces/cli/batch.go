package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dealershipai/visibility-engine/internal/app"
	"github.com/dealershipai/visibility-engine/internal/domain/scoring"
)

// printTrend renders the cycle-over-cycle comparison; shared by score and
// batch output paths.
func printTrend(ctx context.Context, a *app.App, r *scoring.Result) {
	trend, err := a.Engine.Trend(ctx, r)
	if err != nil {
		fmt.Printf("  Trend unavailable: %v\n", err)
		return
	}
	if trend == nil {
		fmt.Println("  Trend: first cycle for this dealer")
		return
	}
	fmt.Printf("  Trend: overall %+.1f", trend.OverallDelta)
	if trend.TopImprover != "" {
		fmt.Printf(", biggest gain %s", trend.TopImprover)
	}
	if trend.TopDecliner != "" {
		fmt.Printf(", biggest drop %s", trend.TopDecliner)
	}
	fmt.Println()
}

func newBatchCmd(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "batch",
		Short: "Score the whole active fleet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWithApp(cmd, opts, false, func(ctx context.Context, a *app.App) error {
				report, err := a.Batch.Run(ctx)
				if report == nil && err != nil {
					return err
				}

				printErr := printResult(opts, report, func() {
					fmt.Printf("Batch finished in %s\n", report.FinishedAt.Sub(report.StartedAt).Truncate(time.Millisecond))
					fmt.Printf("  Attempted %d, succeeded %d, failed %d\n",
						report.Attempted, report.Succeeded, len(report.Failures))
					for _, f := range report.Failures {
						fmt.Printf("  - %s: %s\n", f.DealerID, f.Error)
					}
					if report.Aborted {
						fmt.Println("  Run aborted before the full fleet was processed")
					}
				})
				if printErr != nil {
					return printErr
				}
				return err
			})
		},
	}
}
