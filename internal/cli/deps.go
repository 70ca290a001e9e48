package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/clinic-api/internal/email"
	"github.com/jwalitptl/clinic-api/internal/repository/postgres"
	"github.com/jwalitptl/clinic-api/internal/service/report"
	"github.com/jwalitptl/clinic-api/internal/worker"
	"github.com/jwalitptl/clinic-api/pkg/messaging"
	"github.com/jwalitptl/clinic-api/pkg/messaging/redis"
)

// openDatabase connects and applies the schema.
func openDatabase(ctx context.Context) (*sqlx.DB, error) {
	appLog.Info("connecting to database", "host", cfg.Database.Host, "name", cfg.Database.Name)
	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		return nil, err
	}
	if err := postgres.EnsureSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// openBroker returns nil when redis is disabled.
func openBroker() (messaging.Broker, error) {
	if !cfg.Redis.Enabled {
		return nil, nil
	}
	broker, err := redis.NewRedisBroker(redis.Config{
		URL:          cfg.Redis.URL,
		MaxRetries:   cfg.Redis.MaxRetries,
		RetryBackoff: cfg.Redis.RetryBackoff,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
	}, appLog.Zerolog())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return broker, nil
}

func newPublisher(broker messaging.Broker) messaging.Publisher {
	if broker == nil {
		return messaging.NopPublisher{}
	}
	return messaging.NewBrokerPublisher(broker, cfg.Redis.Channel, appMet)
}

func newRetentionWorker(db *sqlx.DB) *worker.RetentionWorker {
	return worker.NewRetentionWorker(
		postgres.NewUnitOfWorkFactory(db, appLog, appMet),
		postgres.NewClinicDirectory(db),
		cfg.Retention.Days,
		time.Duration(cfg.Retention.IntervalMinutes)*time.Minute,
		appLog,
		appMet,
	)
}

func newDigestWorker(db *sqlx.DB) *worker.DigestWorker {
	uows := postgres.NewUnitOfWorkFactory(db, appLog, appMet)
	return worker.NewDigestWorker(
		postgres.NewClinicDirectory(db),
		report.NewService(uows, appLog),
		email.NewSMTPService(cfg.Digest.SMTP),
		cfg.Digest.Hour,
		appLog,
		appMet,
	)
}
