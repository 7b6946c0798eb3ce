package cli

import (
	"fmt"
	"os"

	"github.com/NeuralTrust/TrailTrigger/pkg/config"
	infraLogger "github.com/NeuralTrust/TrailTrigger/pkg/infra/logger"
	"github.com/NeuralTrust/TrailTrigger/pkg/infra/prometheus"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	configDir string
	envFile   string
	cfg       *config.Config
	logger    *logrus.Logger

	closeLogger = func() error { return nil }
)

var rootCmd = &cobra.Command{
	Use:   "trailtrigger",
	Short: "Run commands on EC2 instances in reaction to CloudTrail events",
	Long: `TrailTrigger watches CloudTrail log objects for API calls matching a source
and name pattern, fans them out on a notification channel, and sends an SSM
command to every instance named in a notification that carries an accepted tag.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := godotenv.Load(envFile); err != nil && cmd.Flags().Changed("env-file") {
			return fmt.Errorf("loading env file: %w", err)
		}

		var err error
		cfg, err = config.Load(configDir)
		if err != nil {
			return err
		}

		var closeFn func() error
		logger, closeFn, err = infraLogger.NewLogger(cfg.Log.Level, cfg.Log.File)
		if err != nil {
			return fmt.Errorf("creating logger: %w", err)
		}
		closeLogger = closeFn

		if cfg.Metrics.Enabled {
			prometheus.Initialize()
		}
		return nil
	},
}

func init() {
	cobra.OnFinalize(func() {
		if err := closeLogger(); err != nil {
			fmt.Fprintf(os.Stderr, "closing log file: %v\n", err)
		}
	})
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", os.Getenv("CONFIG_DIR"), "directory holding config.yaml")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before the configuration")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
