package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dealershipai/visibility-engine/internal/app"
	"github.com/dealershipai/visibility-engine/pkg/types/common"
)

func newScoreCmd(opts *RootOptions) *cobra.Command {
	var withTrend bool

	cmd := &cobra.Command{
		Use:   "score <dealer-id>",
		Short: "Run one scoring cycle for a dealer and print the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithApp(cmd, opts, false, func(ctx context.Context, a *app.App) error {
				d, err := a.Dealers.GetByID(ctx, common.ID(args[0]))
				if err != nil {
					return err
				}
				r, err := a.Engine.ScoreDealer(ctx, d)
				if err != nil {
					return err
				}

				return printResult(opts, r, func() {
					fmt.Printf("%s (%s)\n", r.DealerName, r.DealerID)
					fmt.Printf("  Overall     %6.1f  (confidence %.2f)\n", r.Overall, r.OverallConfidence)
					fmt.Printf("  SEO         %6.1f  (confidence %.2f)\n", r.SEO.Score, r.SEO.Confidence)
					fmt.Printf("  AEO         %6.1f  (confidence %.2f)\n", r.AEO.Score, r.AEO.Confidence)
					fmt.Printf("  GEO         %6.1f  (confidence %.2f)\n", r.GEO.Score, r.GEO.Confidence)
					fmt.Printf("  Credibility %6.1f  (confidence %.2f)\n", r.Credibility.Overall, r.Credibility.Confidence)
					fmt.Printf("  Cost        $%.2f per cycle\n", r.Cost.TotalUSD)
					if r.Validation.RequiresManualReview {
						fmt.Printf("  Flagged for review: %v\n", r.Validation.Reasons)
					}
					for _, ins := range r.Insights {
						fmt.Printf("  - %s\n", ins.Message)
					}
					if withTrend {
						printTrend(ctx, a, r)
					}
				})
			})
		},
	}

	cmd.Flags().BoolVar(&withTrend, "trend", false, "compare against the previous cycle")
	return cmd
}
