package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/orrn/printgate/internal/core"
)

var (
	commandJobID    string
	commandDocument string
)

var commandCmd = &cobra.Command{
	Use:   "command <purge|pause|resume> <printer>",
	Short: "Apply a job command to a printer's queue",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newService(cfg, log)
		if err != nil {
			return err
		}

		req := core.CommandRequest{Command: &args[0], Printer: &args[1]}
		if cmd.Flags().Changed("job") {
			req.JobID = &commandJobID
		}
		if cmd.Flags().Changed("document") {
			req.DocumentName = &commandDocument
		}

		res, err := svc.Command(context.Background(), req)
		fmt.Println(core.CommandMessage(res, err))
		return err
	},
}

func init() {
	commandCmd.Flags().StringVar(&commandJobID, "job", "", "Job id, or * for every job")
	commandCmd.Flags().StringVar(&commandDocument, "document", "", "Document name")
	rootCmd.AddCommand(commandCmd)
}
