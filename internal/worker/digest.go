package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jwalitptl/clinic-api/internal/email"
	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/pkg/logger"
	"github.com/jwalitptl/clinic-api/pkg/metrics"
)

const digestWorker = "digest"

// IncomeReporter is the part of the report service the digest needs.
type IncomeReporter interface {
	DailyIncome(ctx context.Context, caller model.Caller, date time.Time) (*model.DailyIncome, error)
}

// DigestWorker emails every clinic that has an address its income for the
// previous UTC day, once a day at a fixed hour.
type DigestWorker struct {
	clinics ClinicLister
	reports IncomeReporter
	mailer  email.Service
	hour    int
	logger  *logger.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewDigestWorker(clinics ClinicLister, reports IncomeReporter, mailer email.Service, hour int, log *logger.Logger, m *metrics.Metrics) *DigestWorker {
	if log == nil {
		log = logger.Nop()
	}
	return &DigestWorker{
		clinics: clinics,
		reports: reports,
		mailer:  mailer,
		hour:    hour,
		logger:  log,
		metrics: m,
		now:     time.Now,
	}
}

// NextRun returns the first moment at hour:00 UTC strictly after now.
func NextRun(now time.Time, hour int) time.Time {
	now = now.UTC()
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, time.UTC)
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

func (w *DigestWorker) Start(ctx context.Context) {
	w.logger.Info("starting digest worker", "hour", w.hour)
	for {
		next := NextRun(w.now(), w.hour)
		timer := time.NewTimer(next.Sub(w.now()))
		select {
		case <-ctx.Done():
			timer.Stop()
			w.logger.Info("shutting down digest worker")
			return
		case <-timer.C:
			yesterday := next.AddDate(0, 0, -1)
			if _, err := w.RunOnce(ctx, yesterday); err != nil {
				w.logger.Error(err, "digest run failed")
			}
		}
	}
}

// RunOnce sends the digest for day to every clinic with an email address
// and returns how many were sent.
func (w *DigestWorker) RunOnce(ctx context.Context, day time.Time) (int, error) {
	clinics, err := w.clinics.Active(ctx)
	if err != nil {
		w.metrics.ObserveWorkerRun(digestWorker, err)
		return 0, fmt.Errorf("failed to list clinics: %w", err)
	}

	sent := 0
	var errs []error
	for _, clinic := range clinics {
		if clinic.Email == "" {
			continue
		}
		err := w.send(ctx, clinic, day)
		w.metrics.ObserveDigest(err)
		if err != nil {
			w.logger.Error(err, "failed to send digest", "clinic_id", clinic.ID.String())
			errs = append(errs, fmt.Errorf("clinic %s: %w", clinic.ID, err))
			continue
		}
		sent++
	}

	err = errors.Join(errs...)
	w.metrics.ObserveWorkerRun(digestWorker, err)
	return sent, err
}

func (w *DigestWorker) send(ctx context.Context, clinic *model.Clinic, day time.Time) error {
	income, err := w.reports.DailyIncome(ctx, caller(clinic, model.RoleAccountant), day)
	if err != nil {
		return err
	}
	return w.mailer.SendDailyDigest(ctx, clinic.Email, clinic.Name, income)
}
