package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var queueJSON bool

var queueCmd = &cobra.Command{
	Use:   "queue",
	Short: "Show print queues and their jobs",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newService(cfg, log)
		if err != nil {
			return err
		}
		queues, err := svc.ListQueues(context.Background())
		if err != nil {
			return err
		}
		if queueJSON {
			return writeJSON(queues)
		}
		for _, q := range queues {
			st := q.Status
			fmt.Printf("%s  jobs=%d  offline=%t  paused=%t  error=%t\n",
				q.Printer, len(q.Jobs), st.Offline, st.Paused, st.InError)
			for _, j := range q.Jobs {
				fmt.Printf("  %-6s  %-30q  pos=%d  paused=%t  printing=%t\n",
					j.ID, j.Name, j.Priority, j.IsPaused, j.IsPrinting)
			}
		}
		return nil
	},
}

func init() {
	queueCmd.Flags().BoolVar(&queueJSON, "json", false, "JSON output")
	rootCmd.AddCommand(queueCmd)
}
