package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
	"github.com/jwalitptl/clinic-api/pkg/logger"
	"github.com/jwalitptl/clinic-api/pkg/metrics"
)

const retentionWorker = "retention"

// RetentionWorker hard-deletes rows that were soft-deleted longer ago than
// the retention period. Each clinic is purged in its own unit of work.
type RetentionWorker struct {
	uows          repository.Factory
	clinics       ClinicLister
	retentionDays int
	interval      time.Duration
	logger        *logger.Logger
	metrics       *metrics.Metrics
	now           func() time.Time
}

func NewRetentionWorker(uows repository.Factory, clinics ClinicLister, retentionDays int, interval time.Duration, log *logger.Logger, m *metrics.Metrics) *RetentionWorker {
	if log == nil {
		log = logger.Nop()
	}
	return &RetentionWorker{
		uows:          uows,
		clinics:       clinics,
		retentionDays: retentionDays,
		interval:      interval,
		logger:        log,
		metrics:       m,
		now:           time.Now,
	}
}

func (w *RetentionWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("starting retention worker", "retention_days", w.retentionDays, "interval", w.interval.String())
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("shutting down retention worker")
			return
		case <-ticker.C:
			if _, err := w.RunOnce(ctx); err != nil {
				w.logger.Error(err, "retention run failed")
			}
		}
	}
}

// RunOnce purges every active clinic and returns the number of rows removed.
// A failing clinic does not stop the others.
func (w *RetentionWorker) RunOnce(ctx context.Context) (int, error) {
	clinics, err := w.clinics.Active(ctx)
	if err != nil {
		w.metrics.ObserveWorkerRun(retentionWorker, err)
		return 0, fmt.Errorf("failed to list clinics: %w", err)
	}

	cutoff := w.now().UTC().AddDate(0, 0, -w.retentionDays)
	var (
		total int
		errs  []error
	)
	for _, clinic := range clinics {
		n, err := w.purgeClinic(ctx, clinic, cutoff)
		if err != nil {
			w.logger.Error(err, "failed to purge clinic", "clinic_id", clinic.ID.String())
			errs = append(errs, fmt.Errorf("clinic %s: %w", clinic.ID, err))
			continue
		}
		total += n
	}

	err = errors.Join(errs...)
	w.metrics.ObserveWorkerRun(retentionWorker, err)
	w.logger.Info("retention run finished", "purged", total, "clinics", len(clinics), "cutoff", cutoff.Format(time.RFC3339))
	return total, err
}

// purgeClinic removes dependants before the rows they reference.
func (w *RetentionWorker) purgeClinic(ctx context.Context, clinic *model.Clinic, cutoff time.Time) (int, error) {
	uow, err := w.uows.Begin(ctx, caller(clinic, model.RoleAdmin))
	if err != nil {
		return 0, err
	}
	defer uow.Close()

	expired := goqu.And(
		goqu.C("is_deleted").IsTrue(),
		goqu.C("updated_at").Lt(cutoff),
	)

	counts := make(map[string]int)
	steps := []func() error{
		func() error { return purge(ctx, uow.Payments(), expired, counts) },
		func() error { return purge(ctx, uow.Visits(), expired, counts) },
		func() error { return purge(ctx, uow.Patients(), expired, counts) },
		func() error { return purge(ctx, uow.Doctors(), expired, counts) },
		func() error { return purge(ctx, uow.Rooms(), expired, counts) },
		func() error { return purge(ctx, uow.InsuranceCompanies(), expired, counts) },
		func() error { return purge(ctx, uow.Users(), expired, counts) },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return 0, err
		}
	}

	total := 0
	for _, n := range counts {
		total += n
	}
	if total == 0 {
		return 0, nil
	}
	if _, err := uow.SaveChanges(ctx); err != nil {
		return 0, err
	}
	for table, n := range counts {
		w.metrics.ObservePurge(table, n)
	}
	return total, nil
}

func purge[T model.Entity](ctx context.Context, repo repository.Repository[T], expired repository.Predicate, counts map[string]int) error {
	rows, err := repo.ListIncludingDeleted(ctx, expired)
	if err != nil {
		return err
	}
	for _, row := range rows {
		if err := repo.HardDelete(row); err != nil {
			return err
		}
	}
	if len(rows) > 0 {
		var zero T
		counts[zero.TableName()] += len(rows)
	}
	return nil
}
