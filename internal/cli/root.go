package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/jwalitptl/clinic-api/internal/config"
	"github.com/jwalitptl/clinic-api/pkg/logger"
	"github.com/jwalitptl/clinic-api/pkg/metrics"
)

var (
	cfgFile string
	cfg     *config.Config
	appLog  *logger.Logger
	reg     *prometheus.Registry
	appMet  *metrics.Metrics
)

var rootCmd = &cobra.Command{
	Use:           "clinicctl",
	Short:         "Multi-tenant clinic operations API and maintenance tools.",
	SilenceUsage:  true,
	SilenceErrors: true,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.LoadConfig(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		appLog = logger.NewLogger(&logger.Config{
			Level:      logger.ParseLevel(cfg.Log.Level),
			Format:     cfg.Log.Format,
			TimeFormat: time.RFC3339,
			Output:     os.Stdout,
		})
		// request-scoped middleware logs through the global logger
		log.Logger = *appLog.Zerolog()

		reg = prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		appMet = metrics.NewMetrics(cfg.Metrics.Namespace, "", reg)
		return nil
	},
}

// Execute runs the command line with os.Args.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		os.Exit(1)
	}
}

// ExecuteCommand runs one subcommand as if it had been named first on the
// command line. Used by the single-purpose binaries.
func ExecuteCommand(name string) {
	rootCmd.SetArgs(append([]string{name}, os.Args[1:]...))
	Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is ./config.yaml or ./config/config.yaml)")
}
