package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/orrn/printgate/internal/core"
)

var (
	printPrinter  string
	printName     string
	printDataType string
	printFile     string
)

var printCmd = &cobra.Command{
	Use:   "print",
	Short: "Spool raw data to a printer",
	Long:  "Spool the contents of --file (or stdin) to a printer as a single raw document.",
	RunE: func(cmd *cobra.Command, args []string) error {
		var (
			data []byte
			err  error
		)
		if printFile == "" || printFile == "-" {
			data, err = io.ReadAll(os.Stdin)
		} else {
			data, err = os.ReadFile(printFile)
		}
		if err != nil {
			return fmt.Errorf("failed to read data: %w", err)
		}

		svc, err := newService(cfg, log)
		if err != nil {
			return err
		}

		payload := string(data)
		req := core.PrintRequest{Printer: &printPrinter, Name: &printName, Data: &payload}
		if cmd.Flags().Changed("type") {
			req.DataType = &printDataType
		}

		res, err := svc.Print(context.Background(), req)
		fmt.Println(core.PrintMessage(res, err))
		return err
	},
}

func init() {
	printCmd.Flags().StringVarP(&printPrinter, "printer", "p", "", "Printer name")
	printCmd.Flags().StringVarP(&printName, "name", "n", "printgate", "Document name")
	printCmd.Flags().StringVarP(&printDataType, "type", "t", "", "Data type (RAW, TEXT, ...)")
	printCmd.Flags().StringVarP(&printFile, "file", "f", "", "File to print, - or empty for stdin")
	printCmd.MarkFlagRequired("printer")
	rootCmd.AddCommand(printCmd)
}
