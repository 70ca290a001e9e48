package cli

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"
)

var workCmd = &cobra.Command{
	Use:   "work",
	Short: "Runs the background workers",
	Long:  `Runs the retention purge on its interval and, when enabled, the daily income digest until interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWorkers()
	},
}

func init() {
	rootCmd.AddCommand(workCmd)
}

func runWorkers() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := openDatabase(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		newRetentionWorker(db).Start(ctx)
	}()

	if cfg.Digest.Enabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			newDigestWorker(db).Start(ctx)
		}()
	} else {
		appLog.Info("daily digest disabled")
	}

	<-ctx.Done()
	appLog.Warn("shutdown signal received, waiting for workers")
	wg.Wait()
	return nil
}
