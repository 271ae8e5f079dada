package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/doodlesbykumbi/handover-tracker/pkg/audit"
	"github.com/doodlesbykumbi/handover-tracker/pkg/config"
	"github.com/doodlesbykumbi/handover-tracker/pkg/db"
	"github.com/doodlesbykumbi/handover-tracker/pkg/logger"
	"github.com/doodlesbykumbi/handover-tracker/pkg/server"
	"github.com/doodlesbykumbi/handover-tracker/pkg/sheetsync"
)

// syncSheetsCmd represents the sync sheets command
var syncSheetsCmd = &cobra.Command{
	Use:   "sheets",
	Short: "Import the configured Google Sheet once",
	Long: `Import the configured Google Sheet into the handovers table.

Rows are matched on their external reference: new references are
created and existing ones updated. Rows that fail validation are
skipped and listed in the report.

Requires DATABASE_URL, GOOGLE_SERVICE_ACCOUNT_EMAIL, GOOGLE_PRIVATE_KEY
and GOOGLE_SHEET_ID.

Example:
  handoverctl sync sheets
  handoverctl sync sheets --output json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		output, _ := cmd.Flags().GetString("output")

		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if !cfg.GoogleConfigured() {
			return sheetsync.ErrNotConfigured
		}
		lggr, err := logger.New(cfg.LogLevel)
		if err != nil {
			return err
		}
		defer func() { _ = lggr.Sync() }()
		audit.SetLogger(lggr)

		database, err := db.Connect(db.Config{URL: cfg.DatabaseURL})
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		syncer, err := server.NewServer(cfg, database, lggr).Syncer(ctx)
		if err != nil {
			return err
		}
		report, err := syncer.Run(ctx, "cli")
		if report != nil {
			if perr := printReport(cmd.OutOrStdout(), report, output); perr != nil {
				return perr
			}
		}
		return err
	},
}

func init() {
	syncCmd.AddCommand(syncSheetsCmd)
	syncSheetsCmd.Flags().StringP("output", "o", "text", "Output format (text or json)")
}

func printReport(w io.Writer, report *sheetsync.Report, output string) error {
	if output == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	fmt.Fprintf(w, "Sheet %s: %s rows read, %s created, %s updated, %s skipped\n",
		report.SheetID,
		humanize.Comma(int64(report.RowsRead)),
		humanize.Comma(int64(report.Created)),
		humanize.Comma(int64(report.Updated)),
		humanize.Comma(int64(report.Skipped)))
	for _, e := range report.Errors {
		ref := e.Ref
		if ref == "" {
			ref = "-"
		}
		fmt.Fprintf(w, "  row %d (%s): %s\n", e.Row, ref, e.Error)
	}
	return nil
}
