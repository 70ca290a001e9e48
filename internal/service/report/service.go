package report

import (
	"context"
	"sort"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
	"github.com/jwalitptl/clinic-api/internal/service"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
	"github.com/jwalitptl/clinic-api/pkg/logger"
)

// Service computes income reports. Every call reads the tenant's data as it
// is at that moment; nothing is cached.
type Service struct {
	uows   repository.Factory
	logger *logger.Logger
}

func NewService(uows repository.Factory, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{uows: uows, logger: log}
}

// Day truncates t to the start of its UTC calendar day.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// createdWithin matches rows created in [from, to).
func createdWithin(from, to time.Time) repository.Predicate {
	return goqu.And(
		goqu.C("created_at").Gte(from),
		goqu.C("created_at").Lt(to),
	)
}

// span turns an inclusive day range into a half-open time range.
func span(start, end time.Time) (time.Time, time.Time, error) {
	from, to := Day(start), Day(end)
	if to.Before(from) {
		return time.Time{}, time.Time{}, apperrors.Validation("end_date", "end date must not be before start date")
	}
	return from, to.AddDate(0, 0, 1), nil
}

// DailyIncome sums patient_paid over visits created on date's UTC day,
// split by payment type.
func (s *Service) DailyIncome(ctx context.Context, caller model.Caller, date time.Time) (*model.DailyIncome, error) {
	day := Day(date)
	income, err := service.Do(ctx, s.uows, caller, func(uow repository.UnitOfWork) (*model.DailyIncome, error) {
		totals, err := uow.Visits().SumBy(ctx, "patient_paid", "payment_type", createdWithin(day, day.AddDate(0, 0, 1)))
		if err != nil {
			return nil, err
		}

		income := &model.DailyIncome{Date: day, CashIncome: decimal.Zero, InsuranceIncome: decimal.Zero}
		for _, t := range totals {
			income.VisitCount += int(t.Count)
			switch model.PaymentType(t.Key.String) {
			case model.PaymentCash:
				income.CashIncome = income.CashIncome.Add(t.Sum)
			case model.PaymentInsurance:
				income.InsuranceIncome = income.InsuranceIncome.Add(t.Sum)
			}
		}
		income.TotalIncome = income.CashIncome.Add(income.InsuranceIncome)
		return income, nil
	})
	if err != nil {
		return nil, service.Fail(s.logger, err, "failed to compute daily income", "date", day.Format(time.DateOnly))
	}
	return income, nil
}

// RangeIncome returns one summary per UTC day in [start, end] that has at
// least one visit, oldest first. Days without visits are omitted.
func (s *Service) RangeIncome(ctx context.Context, caller model.Caller, start, end time.Time) ([]model.DailyIncome, error) {
	from, to, err := span(start, end)
	if err != nil {
		return nil, err
	}

	days, err := service.Do(ctx, s.uows, caller, func(uow repository.UnitOfWork) ([]model.DailyIncome, error) {
		visits, err := uow.Visits().List(ctx, createdWithin(from, to))
		if err != nil {
			return nil, err
		}

		byDay := make(map[time.Time]*model.DailyIncome)
		for _, v := range visits {
			day := Day(v.CreatedAt)
			income, ok := byDay[day]
			if !ok {
				income = &model.DailyIncome{Date: day, CashIncome: decimal.Zero, InsuranceIncome: decimal.Zero, TotalIncome: decimal.Zero}
				byDay[day] = income
			}
			income.VisitCount++
			switch v.PaymentType {
			case model.PaymentCash:
				income.CashIncome = income.CashIncome.Add(v.PatientPaid)
			case model.PaymentInsurance:
				income.InsuranceIncome = income.InsuranceIncome.Add(v.PatientPaid)
			}
			income.TotalIncome = income.TotalIncome.Add(v.PatientPaid)
		}

		days := make([]model.DailyIncome, 0, len(byDay))
		for _, income := range byDay {
			days = append(days, *income)
		}
		sort.Slice(days, func(i, j int) bool { return days[i].Date.Before(days[j].Date) })
		return days, nil
	})
	if err != nil {
		return nil, service.Fail(s.logger, err, "failed to compute range income")
	}
	return days, nil
}

// DoctorRevenues reports every doctor of the tenant, highest revenue first.
// Doctors without visits in range are listed with zero revenue; ties keep
// the doctors' creation order.
func (s *Service) DoctorRevenues(ctx context.Context, caller model.Caller, start, end time.Time) ([]model.DoctorRevenue, error) {
	from, to, err := span(start, end)
	if err != nil {
		return nil, err
	}

	revenues, err := service.Do(ctx, s.uows, caller, func(uow repository.UnitOfWork) ([]model.DoctorRevenue, error) {
		doctors, err := uow.Doctors().List(ctx, nil)
		if err != nil {
			return nil, err
		}
		totals, err := uow.Visits().SumBy(ctx, "patient_paid", "doctor_id", createdWithin(from, to))
		if err != nil {
			return nil, err
		}

		byDoctor := make(map[uuid.UUID]repository.GroupTotal, len(totals))
		for _, t := range totals {
			id, err := uuid.Parse(t.Key.String)
			if err != nil {
				continue
			}
			byDoctor[id] = t
		}

		revenues := make([]model.DoctorRevenue, 0, len(doctors))
		for _, d := range doctors {
			t := byDoctor[d.ID]
			revenues = append(revenues, model.DoctorRevenue{
				DoctorID:     d.ID,
				DoctorName:   d.FullName,
				Specialty:    d.Specialty,
				VisitCount:   int(t.Count),
				TotalRevenue: t.Sum,
			})
		}
		sort.SliceStable(revenues, func(i, j int) bool {
			return revenues[i].TotalRevenue.GreaterThan(revenues[j].TotalRevenue)
		})
		return revenues, nil
	})
	if err != nil {
		return nil, service.Fail(s.logger, err, "failed to compute doctor revenues")
	}
	return revenues, nil
}

// DoctorRevenue reports a single doctor over [start, end]. A doctor without
// visits in range gets zero revenue.
func (s *Service) DoctorRevenue(ctx context.Context, caller model.Caller, doctorID uuid.UUID, start, end time.Time) (*model.DoctorRevenue, error) {
	from, to, err := span(start, end)
	if err != nil {
		return nil, err
	}

	revenue, err := service.Do(ctx, s.uows, caller, func(uow repository.UnitOfWork) (*model.DoctorRevenue, error) {
		doctor, err := uow.Doctors().GetByID(ctx, doctorID)
		if err != nil {
			return nil, err
		}
		if doctor == nil {
			return nil, apperrors.NotFound("doctor", nil)
		}

		totals, err := uow.Visits().SumBy(ctx, "patient_paid", "doctor_id",
			goqu.And(goqu.C("doctor_id").Eq(doctorID), createdWithin(from, to)))
		if err != nil {
			return nil, err
		}

		revenue := &model.DoctorRevenue{
			DoctorID:     doctor.ID,
			DoctorName:   doctor.FullName,
			Specialty:    doctor.Specialty,
			TotalRevenue: decimal.Zero,
		}
		for _, t := range totals {
			revenue.VisitCount += int(t.Count)
			revenue.TotalRevenue = revenue.TotalRevenue.Add(t.Sum)
		}
		return revenue, nil
	})
	if err != nil {
		return nil, service.Fail(s.logger, err, "failed to compute doctor revenue", "doctor_id", doctorID)
	}
	return revenue, nil
}
