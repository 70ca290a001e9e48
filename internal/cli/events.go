package cli

import (
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var eventsCmd = &cobra.Command{
	Use:   "events-tail",
	Short: "Prints domain events from the redis channel as they arrive",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !cfg.Redis.Enabled {
			return errors.New("redis is disabled; set redis.enabled to tail events")
		}
		broker, err := openBroker()
		if err != nil {
			return err
		}
		defer broker.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		messages, err := broker.Subscribe(ctx, cfg.Redis.Channel)
		if err != nil {
			return err
		}
		appLog.Info("tailing events", "channel", cfg.Redis.Channel)
		for msg := range messages {
			cmd.Println(string(msg))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(eventsCmd)
}
