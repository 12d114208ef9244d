package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/orrn/printgate/internal/config"
	"github.com/orrn/printgate/internal/logger"
)

var (
	configPath string
	cfg        *config.Config
	log        logger.Logger
)

var rootCmd = &cobra.Command{
	Use:           "printgate",
	Short:         "HTTP gateway to the local print spooler.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cfg != nil {
			return nil
		}

		c, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if err := c.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}

		l, err := logger.Init(logger.Config{
			Level:  c.Logging.Level,
			Format: c.Logging.Format,
			Output: "stderr",
		})
		if err != nil {
			return fmt.Errorf("invalid logging config: %w", err)
		}

		cfg = c
		log = l
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "Path to YAML config file")
}
