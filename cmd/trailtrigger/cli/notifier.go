package cli

import (
	"fmt"

	"github.com/NeuralTrust/TrailTrigger/pkg/dependency_container"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/spf13/cobra"
)

var notifierCmd = &cobra.Command{
	Use:   "notifier",
	Short: "Start the Lambda handler for CloudTrail S3 object notifications",
	RunE: func(cmd *cobra.Command, args []string) error {
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

		logger.WithField("topic", cfg.Channel.Topic).Info("starting notifier lambda")
		lambda.Start(c.NotifierHandler.Handle)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(notifierCmd)
}
