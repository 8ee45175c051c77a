package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dealershipai/visibility-engine/internal/app"
)

func newTrainCmd(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "train",
		Short: "Retrain the credibility model from historical samples",
		Long: "Fits a fresh credibility model on the stored training samples, " +
			"evaluates it on the held-out split, and deploys it only when the " +
			"R-squared gate clears.  A rejected candidate leaves the current " +
			"deployment untouched.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWithApp(cmd, opts, false, func(ctx context.Context, a *app.App) error {
				model, err := a.Trainer.Train(ctx)
				if err != nil {
					return err
				}

				return printResult(opts, model, func() {
					fmt.Printf("Deployed model v%d\n", model.Version)
					fmt.Printf("  R2 %.4f  RMSE %.2f  confidence %.2f\n",
						model.R2, model.TestRMSE, model.Confidence)
				})
			})
		},
	}
}
