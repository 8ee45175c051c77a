package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dealershipai/visibility-engine/internal/app"
)

func newHealthCmd(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Compute and print a fresh system health snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWithApp(cmd, opts, false, func(ctx context.Context, a *app.App) error {
				snap := a.Health.Refresh(ctx)

				return printResult(opts, snap, func() {
					fmt.Println("System health")
					fmt.Printf("  Accuracy      SEO %.3f  AEO %.3f  GEO %.3f  model R2 %.3f\n",
						snap.SEOAccuracy, snap.AEOAccuracy, snap.GEOAccuracy, snap.ModelR2)
					fmt.Printf("  Operations    uptime %.4f  success %.3f  cache %.3f  latency %.2fs\n",
						snap.Uptime, snap.SuccessRate, snap.CacheHitRate, snap.AvgLatencySeconds)
					fmt.Printf("  Economics     cost/dealer $%.2f  margin %.3f\n",
						snap.CostPerDealerUSD, snap.GrossMargin)
					fmt.Printf("  Customers     satisfaction %.1f/5  churn %.3f  spot-check %.3f  disputes %.3f\n",
						snap.Satisfaction, snap.ChurnRate, snap.SpotCheckAccuracy, snap.DisputeRate)
					if len(snap.Alerts) == 0 {
						fmt.Println("  No threshold breaches")
						return
					}
					for _, a := range snap.Alerts {
						fmt.Printf("  [%s] %s: %s\n", a.Severity, a.Type, a.Message)
					}
				})
			})
		},
	}
}
