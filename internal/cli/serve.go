package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	authhandler "github.com/jwalitptl/clinic-api/internal/handler/auth"
	claimshandler "github.com/jwalitptl/clinic-api/internal/handler/claims"
	"github.com/jwalitptl/clinic-api/internal/handler/health"
	paymenthandler "github.com/jwalitptl/clinic-api/internal/handler/payment"
	prometheushandler "github.com/jwalitptl/clinic-api/internal/handler/prometheus"
	registryhandler "github.com/jwalitptl/clinic-api/internal/handler/registry"
	reporthandler "github.com/jwalitptl/clinic-api/internal/handler/report"
	visithandler "github.com/jwalitptl/clinic-api/internal/handler/visit"
	"github.com/jwalitptl/clinic-api/internal/middleware"
	"github.com/jwalitptl/clinic-api/internal/repository/postgres"
	"github.com/jwalitptl/clinic-api/internal/router"
	authservice "github.com/jwalitptl/clinic-api/internal/service/auth"
	"github.com/jwalitptl/clinic-api/internal/service/claims"
	"github.com/jwalitptl/clinic-api/internal/service/payment"
	"github.com/jwalitptl/clinic-api/internal/service/registry"
	"github.com/jwalitptl/clinic-api/internal/service/report"
	"github.com/jwalitptl/clinic-api/internal/service/seed"
	"github.com/jwalitptl/clinic-api/internal/service/visit"
	"github.com/jwalitptl/clinic-api/pkg/auth"
	"github.com/jwalitptl/clinic-api/pkg/security"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Starts the clinic API server",
	Long:  `Connects to postgres, applies the schema, optionally seeds demo data and serves the HTTP API until interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServer() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := openDatabase(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	broker, err := openBroker()
	if err != nil {
		return err
	}
	if broker != nil {
		defer broker.Close()
	}
	publisher := newPublisher(broker)

	uows := postgres.NewUnitOfWorkFactory(db, appLog, appMet)
	directory := postgres.NewClinicDirectory(db)
	hasher := security.NewBcryptHasher(0)

	if cfg.Seed.Enabled {
		if _, err := seed.NewService(uows, directory, hasher, appLog).Seed(ctx); err != nil {
			return err
		}
	}

	authSvc := authservice.NewService(uows, auth.NewJWTService(cfg.JWT.Secret, time.Duration(cfg.JWT.ExpiryHours)*time.Hour), hasher, appLog)
	authHandler := authhandler.NewHandler(authSvc)

	if gin.Mode() == gin.DebugMode && cfg.Log.Format == "json" {
		gin.SetMode(gin.ReleaseMode)
	}

	cors := middleware.DefaultCORSConfig()
	if len(cfg.Server.AllowOrigins) > 0 {
		cors.AllowOrigins = cfg.Server.AllowOrigins
	}

	r, err := router.NewRouter(
		router.Config{
			Timeout:   cfg.Server.Timeout(),
			RateLimit: rate.Limit(cfg.Server.RateLimitRPS),
			RateBurst: cfg.Server.RateLimitBurst,
			CORS:      cors,
		},
		middleware.NewAuthMiddleware(authSvc, directory, time.Minute),
		appMet,
		router.Handlers{
			Health:   health.NewHandler(db),
			Metrics:  prometheushandler.New(reg),
			Auth:     authHandler,
			Users:    router.HandlerFunc(authHandler.RegisterUserRoutes),
			Visits:   visithandler.NewHandler(visit.NewService(uows, publisher, appLog)),
			Payments: paymenthandler.NewHandler(payment.NewService(uows, publisher, appLog)),
			Reports:  reporthandler.NewHandler(report.NewService(uows, appLog)),
			Claims:   claimshandler.NewHandler(claims.NewService(uows, appLog)),
			Registry: registryhandler.NewHandler(registry.NewService(uows, appLog)),
		},
	)
	if err != nil {
		return fmt.Errorf("failed to build router: %w", err)
	}

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           r.Engine(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("clinic API listening", "addr", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
		appLog.Warn("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	appLog.Info("server stopped")
	return nil
}
