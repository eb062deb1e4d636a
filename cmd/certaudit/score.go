package main

import (
	"github.com/spf13/cobra"

	"certaudit/internal/app"
	"certaudit/internal/services"
)

func newScoreCmd(c *cli) *cobra.Command {
	var req services.ScoreRequest
	cmd := &cobra.Command{
		Use:   "score [folder...]",
		Short: "Score the suppliers of the given folders",
		RunE: func(cmd *cobra.Command, args []string) error {
			folders, err := c.folders(args)
			if err != nil {
				return err
			}
			req.Folders = folders

			a, err := app.New(cmd.Context(), c.cfg, c.logger)
			if err != nil {
				return err
			}
			defer a.Close(cmd.Context())

			summary, err := a.Scores.Score(cmd.Context(), req)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), summary)
		},
	}
	cmd.Flags().StringVar(&req.SuppliersFile, "suppliers", "", "supplier table (default paths.suppliers_file)")
	cmd.Flags().StringVar(&req.WeightsFile, "weights", "", "special score table (default paths.weights_file)")
	return cmd
}
