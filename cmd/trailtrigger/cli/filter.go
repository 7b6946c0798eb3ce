package cli

import (
	"errors"
	"fmt"

	"github.com/NeuralTrust/TrailTrigger/pkg/dependency_container"
	domain "github.com/NeuralTrust/TrailTrigger/pkg/domain/errors"
	"github.com/NeuralTrust/TrailTrigger/pkg/domain/trail"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	replayBucket string
	replayKey    string
)

var filterCmd = &cobra.Command{
	Use:     "filter",
	Short:   "Run the record filter once against a log object",
	Example: `  trailtrigger filter --bucket trail-logs --key AWSLogs/123456789012/CloudTrail/eu-west-1/2024/05/01/file.json.gz`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if replayBucket == "" || replayKey == "" {
			return errors.New("--bucket and --key are required")
		}
		if err := cfg.ValidateNotifier(); err != nil {
			return fmt.Errorf("invalid notifier configuration: %w", err)
		}
		c, err := dependency_container.NewContainer(cmd.Context(), dependency_container.ContainerDI{
			Cfg:    cfg,
			Logger: logger,
			Mode:   dependency_container.ModeNotifier,
		})
		if err != nil {
			return err
		}
		defer func() { _ = c.Close() }()

		ref := trail.LogBatchReference{Bucket: replayBucket, Key: replayKey}
		published, err := c.Filter.Process(cmd.Context(), ref)
		if err != nil {
			return errors.New(domain.Describe(err))
		}
		logger.WithFields(logrus.Fields{
			"object":    ref.String(),
			"published": published,
		}).Info("log object replayed")
		return nil
	},
}

func init() {
	filterCmd.Flags().StringVar(&replayBucket, "bucket", "", "bucket of the log object")
	filterCmd.Flags().StringVar(&replayKey, "key", "", "key of the log object, not URL-encoded")
	rootCmd.AddCommand(filterCmd)
}
