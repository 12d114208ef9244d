package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/orrn/printgate/internal/archive"
	"github.com/orrn/printgate/internal/db"
)

var (
	auditPrinter string
	auditAction  string
	auditLimit   int
	auditJSON    bool
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "List recorded print and command requests",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := db.Open(db.Config{Path: cfg.Database.Path})
		if err != nil {
			return err
		}
		defer store.Close()

		entries, err := store.ListAudit(context.Background(), db.AuditFilter{
			Printer: auditPrinter,
			Action:  auditAction,
			Limit:   auditLimit,
		})
		if err != nil {
			return err
		}
		if auditJSON {
			return writeJSON(entries)
		}
		for _, e := range entries {
			fmt.Printf("%s  %-7s  %-8s  %-20s  %s\n",
				e.CreatedAt.Format("2006-01-02 15:04:05"), e.Action, e.Outcome, e.Printer, e.Message)
		}
		return nil
	},
}

var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Move old audit entries into monthly archive files now",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := db.Open(db.Config{Path: cfg.Database.Path})
		if err != nil {
			return err
		}
		defer store.Close()

		a, err := archive.NewArchiver(store, archive.ArchiveConfig{
			ArchivePath: cfg.Database.ArchivePath,
			ArchiveDays: cfg.Database.ArchiveDays,
		}, log)
		if err != nil {
			return err
		}

		n, err := a.RunArchive(context.Background())
		if err != nil {
			return err
		}
		fmt.Printf("archived %d entries older than %d days\n", n, a.ArchiveDays())
		return nil
	},
}

func init() {
	auditCmd.Flags().StringVar(&auditPrinter, "printer", "", "Filter by printer")
	auditCmd.Flags().StringVar(&auditAction, "action", "", "Filter by action (print|command)")
	auditCmd.Flags().IntVar(&auditLimit, "limit", 50, "Max rows")
	auditCmd.Flags().BoolVar(&auditJSON, "json", false, "JSON output")
	rootCmd.AddCommand(auditCmd, archiveCmd)
}
