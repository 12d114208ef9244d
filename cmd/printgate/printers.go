package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var printersJSON bool

var printersCmd = &cobra.Command{
	Use:   "printers",
	Short: "List installed printers",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newService(cfg, log)
		if err != nil {
			return err
		}
		printers, err := svc.ListPrinters(context.Background())
		if err != nil {
			return err
		}
		if printersJSON {
			return writeJSON(printers)
		}
		for _, p := range printers {
			fmt.Printf("%-30s  port=%-20s  type=%-8s  driver=%q\n", p.Name, p.Port, p.DefaultDataType, p.Driver)
		}
		return nil
	},
}

func writeJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	printersCmd.Flags().BoolVar(&printersJSON, "json", false, "JSON output")
	rootCmd.AddCommand(printersCmd)
}
