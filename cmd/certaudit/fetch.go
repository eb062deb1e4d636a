package main

import (
	"github.com/spf13/cobra"

	"certaudit/internal/app"
	"certaudit/internal/fetch"
)

func newFetchCmd(c *cli) *cobra.Command {
	var kinds []string
	cmd := &cobra.Command{
		Use:   "fetch [folder...]",
		Short: "Download folder files from the collection server",
		RunE: func(cmd *cobra.Command, args []string) error {
			folders, err := c.folders(args)
			if err != nil {
				return err
			}

			a, err := app.New(cmd.Context(), c.cfg, c.logger)
			if err != nil {
				return err
			}
			defer a.Close(cmd.Context())

			fk := make([]fetch.Kind, len(kinds))
			for i, k := range kinds {
				fk[i] = fetch.Kind(k)
			}
			results, err := a.Fetcher.Fetch(cmd.Context(), folders, fk...)
			if perr := printJSON(cmd.OutOrStdout(), results); perr != nil && err == nil {
				err = perr
			}
			return err
		},
	}
	cmd.Flags().StringSliceVar(&kinds, "kind", nil, "files to download: case, positives (default both)")
	return cmd
}
