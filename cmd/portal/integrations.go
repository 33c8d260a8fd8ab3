package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/honeycarbs/career-compass/internal/domain/snapshot"
	"github.com/honeycarbs/career-compass/internal/export"
)

func (c *cli) exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export portal data to external tools",
	}

	var target export.Target
	sheets := &cobra.Command{
		Use:   "sheets",
		Short: "Write your favorite careers to a Google Sheets tab",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			res, err := c.resourcesFor(ctx)
			if err != nil {
				return err
			}
			if res.Exporter == nil {
				return fmt.Errorf("sheets export is not configured; set GOOGLE_SHEETS_CREDENTIALS_PATH")
			}
			if !res.Session.LoggedIn() {
				return errSignedOut
			}

			if target.SpreadsheetID == "" {
				target.SpreadsheetID = c.cfg.Sheets.SpreadsheetID
			}
			if target.Tab == "" {
				target.Tab = c.cfg.Sheets.Tab
			}

			favs, err := res.Careers.Favorites(ctx)
			if err != nil {
				return sessionErr(ctx, res.Session, err)
			}
			out, err := res.Exporter.Export(ctx, target, favs)
			if err != nil {
				return err
			}
			return c.emit(cmd.OutOrStdout(), out, func(w io.Writer) error {
				return success(w, "%d rows written to %s!%s", out.RowsWritten, out.SpreadsheetID, out.Tab)
			})
		},
	}
	sheets.Flags().StringVar(&target.SpreadsheetID, "spreadsheet", "", "spreadsheet id (default from config)")
	sheets.Flags().StringVar(&target.Tab, "tab", "", "tab name (default from config)")
	sheets.Flags().BoolVar(&target.Replace, "replace", false, "clear the tab before writing")

	cmd.AddCommand(sheets)
	return cmd
}

func (c *cli) snapshotCmd() *cobra.Command {
	var req snapshot.Request
	cmd := &cobra.Command{
		Use:   "snapshot <category-id> [category-id...]",
		Short: "Copy categories, and optionally a user's favorites, into Neo4j",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			res, err := c.resourcesFor(ctx)
			if err != nil {
				return err
			}
			if res.Snapshot == nil {
				return fmt.Errorf("graph snapshot is not configured; set NEO4J_URI")
			}

			for _, arg := range args {
				for _, id := range strings.Split(arg, ",") {
					if id = strings.TrimSpace(id); id != "" {
						req.Categories = append(req.Categories, id)
					}
				}
			}
			report, err := res.Snapshot.Run(ctx, req)
			if err != nil {
				return err
			}
			return c.emit(cmd.OutOrStdout(), report, func(w io.Writer) error {
				return success(w, "%d careers and %d favorites copied", report.Careers, report.Favorites)
			})
		},
	}
	cmd.Flags().StringVar(&req.UserID, "user", "", "also copy this user's favorites")
	return cmd
}
