package main

import (
	"github.com/spf13/cobra"

	"certaudit/internal/app"
	"certaudit/internal/services"
)

func newAuditCmd(c *cli) *cobra.Command {
	var req services.AuditRequest
	cmd := &cobra.Command{
		Use:   "audit [folder...]",
		Short: "Run every check over the given folders and write the reports",
		Example: `  certaudit audit 12 13
  certaudit audit 12 --reference-date 01/06/2024 --format xlsx --format csv`,
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

			summary, err := a.Audits.Run(cmd.Context(), req)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), summary)
		},
	}

	fs := cmd.Flags()
	fs.StringVar(&req.ReferenceDate, "reference-date", "", "date validity is checked against, DD/MM/YYYY (default today)")
	fs.StringVar(&req.Outcomes, "outcomes", "", "outcomes counted in the map: all, P, N or PN")
	fs.StringSliceVar(&req.Formats, "format", nil, "finding report formats: xlsx, csv")
	fs.BoolVar(&req.Download, "download", false, "download missing folder files before auditing")
	return cmd
}
