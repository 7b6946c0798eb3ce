package cli

import (
	"fmt"

	"github.com/NeuralTrust/TrailTrigger/pkg/dependency_container"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/spf13/cobra"
)

var dispatcherCmd = &cobra.Command{
	Use:   "dispatcher",
	Short: "Start the Lambda handler for event notifications",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.ValidateDispatcher(); err != nil {
			return fmt.Errorf("invalid dispatcher configuration: %w", err)
		}
		c, err := dependency_container.NewContainer(cmd.Context(), dependency_container.ContainerDI{
			Cfg:    cfg,
			Logger: logger,
			Mode:   dependency_container.ModeDispatcher,
		})
		if err != nil {
			return err
		}
		defer func() { _ = c.Close() }()

		logger.WithField("document", cfg.Dispatch.DocumentName).Info("starting dispatcher lambda")
		lambda.Start(c.DispatcherHandler.Handle)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(dispatcherCmd)
}
