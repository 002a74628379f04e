package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/privacy-cli/internal/config"
	"github.com/sells-group/privacy-cli/internal/pipeline"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "privacy-cli",
	Short: "Generate and publish per-app privacy policy pages",
	Long: "Looks up an order in the table API, harvests the contact email and company from its links, " +
		"fills the privacy policy template and publishes it as a static page.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(pipeline.ExitCode(err))
	}
}
