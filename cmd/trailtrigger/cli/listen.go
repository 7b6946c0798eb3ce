package cli

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/NeuralTrust/TrailTrigger/pkg/dependency_container"
	"github.com/NeuralTrust/TrailTrigger/pkg/server"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var listenCmd = &cobra.Command{
	Use:   "listen",
	Short: "Dispatch notifications from a Redis or Kafka channel",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.ValidateListener(); err != nil {
			return fmt.Errorf("invalid listener configuration: %w", err)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		c, err := dependency_container.NewContainer(ctx, dependency_container.ContainerDI{
			Cfg:    cfg,
			Logger: logger,
			Mode:   dependency_container.ModeListen,
		})
		if err != nil {
			return err
		}
		defer func() {
			if err := c.Close(); err != nil {
				logger.WithError(err).Warn("failed to close channel connections")
			}
		}()

		srv := server.NewBaseServer(cfg, logger)
		go func() {
			if err := srv.Run(); err != nil {
				logger.WithError(err).Error("health server stopped")
			}
		}()
		defer func() {
			if err := srv.Shutdown(); err != nil {
				logger.WithError(err).Warn("error shutting down server")
			}
		}()

		logger.WithFields(logrus.Fields{
			"channel": cfg.Channel.Type,
			"topic":   cfg.Channel.Topic,
		}).Info("listening for notifications")

		if err := c.Subscriber.Subscribe(ctx, cfg.Channel.Topic, c.MessageHandler); err != nil && ctx.Err() == nil {
			return err
		}
		logger.Info("listener stopped")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listenCmd)
}
