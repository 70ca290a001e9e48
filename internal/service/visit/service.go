package visit

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
	"github.com/jwalitptl/clinic-api/internal/service"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
	"github.com/jwalitptl/clinic-api/pkg/logger"
	"github.com/jwalitptl/clinic-api/pkg/messaging"
)

// UnknownName stands in for a reference that no longer resolves.
const UnknownName = "Unknown"

type CreateInput struct {
	PatientID          uuid.UUID
	DoctorID           uuid.UUID
	RoomID             uuid.UUID
	InsuranceCompanyID *uuid.UUID
	PaymentType        string
	TotalAmount        decimal.Decimal
	PatientPaid        decimal.Decimal
}

// ReassignInput moves a visit. Nil fields are left alone.
type ReassignInput struct {
	DoctorID *uuid.UUID
	RoomID   *uuid.UUID
}

type Service struct {
	uows      repository.Factory
	publisher messaging.Publisher
	logger    *logger.Logger
}

func NewService(uows repository.Factory, publisher messaging.Publisher, log *logger.Logger) *Service {
	if publisher == nil {
		publisher = messaging.NopPublisher{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Service{uows: uows, publisher: publisher, logger: log}
}

// Split returns the insurance share of a visit. Cash visits owe nothing to
// insurance; insurance visits owe whatever the patient did not pay.
func Split(paymentType model.PaymentType, total, patientPaid decimal.Decimal) (decimal.Decimal, error) {
	if err := checkAmount("total_amount", total); err != nil {
		return decimal.Zero, err
	}
	if err := checkAmount("patient_paid", patientPaid); err != nil {
		return decimal.Zero, err
	}

	switch paymentType {
	case model.PaymentCash:
		return decimal.Zero, nil
	case model.PaymentInsurance:
		due := total.Sub(patientPaid)
		if due.IsNegative() {
			return decimal.Zero, apperrors.Validation("patient_paid", "patient paid exceeds total amount")
		}
		return model.RoundMoney(due), nil
	}
	return decimal.Zero, apperrors.Validation("payment_type", "invalid payment type")
}

func checkAmount(field string, d decimal.Decimal) error {
	if d.IsNegative() {
		return apperrors.Validation(field, fmt.Sprintf("%s must not be negative", field))
	}
	if !d.Equal(model.RoundMoney(d)) {
		return apperrors.Validation(field, fmt.Sprintf("%s must have at most %d decimal places", field, model.MoneyPlaces))
	}
	if !model.MoneyFits(d) {
		return apperrors.Validation(field, fmt.Sprintf("%s must have at most %d integer digits", field, model.MoneyIntegerDigits))
	}
	return nil
}

func (s *Service) CreateVisit(ctx context.Context, caller model.Caller, in CreateInput) (*model.VisitView, error) {
	view, err := service.Do(ctx, s.uows, caller, func(uow repository.UnitOfWork) (*model.VisitView, error) {
		patient, err := uow.Patients().GetByID(ctx, in.PatientID)
		if err != nil {
			return nil, err
		}
		if patient == nil {
			return nil, apperrors.NotFound("patient", nil)
		}
		doctor, err := uow.Doctors().GetByID(ctx, in.DoctorID)
		if err != nil {
			return nil, err
		}
		if doctor == nil {
			return nil, apperrors.NotFound("doctor", nil)
		}
		room, err := uow.Rooms().GetByID(ctx, in.RoomID)
		if err != nil {
			return nil, err
		}
		if room == nil {
			return nil, apperrors.NotFound("room", nil)
		}

		paymentType, ok := model.ParsePaymentType(in.PaymentType)
		if !ok {
			return nil, apperrors.Validation("payment_type", "invalid payment type")
		}
		due, err := Split(paymentType, in.TotalAmount, in.PatientPaid)
		if err != nil {
			return nil, err
		}

		var company *model.InsuranceCompany
		if paymentType == model.PaymentInsurance {
			company, err = s.attribute(ctx, uow, patient, in.InsuranceCompanyID)
			if err != nil {
				return nil, err
			}
		}

		visit := &model.Visit{
			PatientID:    patient.ID,
			DoctorID:     doctor.ID,
			RoomID:       room.ID,
			PaymentType:  paymentType,
			TotalAmount:  in.TotalAmount,
			PatientPaid:  in.PatientPaid,
			InsuranceDue: due,
			Status:       model.StatusWaiting,
		}
		companyName := ""
		if company != nil {
			id := company.ID
			visit.InsuranceCompanyID = &id
			companyName = company.Name
		}

		if err := uow.Visits().Add(visit); err != nil {
			return nil, err
		}
		if err := service.Save(ctx, s.logger, uow, "visit"); err != nil {
			return nil, err
		}
		return newView(visit, patient.FullName, doctor.FullName, room.Name, companyName), nil
	})
	if err != nil {
		return nil, service.Fail(s.logger, err, "failed to create visit")
	}

	s.publish(ctx, caller, messaging.EventVisitCreated, view)
	return view, nil
}

// attribute picks the company an insurance visit is billed to: the
// requested one, which must exist, or the patient's own if it still does.
func (s *Service) attribute(ctx context.Context, uow repository.UnitOfWork, patient *model.Patient, requested *uuid.UUID) (*model.InsuranceCompany, error) {
	if requested != nil {
		company, err := uow.InsuranceCompanies().GetByID(ctx, *requested)
		if err != nil {
			return nil, err
		}
		if company == nil {
			return nil, apperrors.NotFound("insurance company", nil)
		}
		return company, nil
	}
	if patient.InsuranceCompanyID == nil {
		return nil, nil
	}
	return uow.InsuranceCompanies().GetByID(ctx, *patient.InsuranceCompanyID)
}

func (s *Service) GetVisit(ctx context.Context, caller model.Caller, id uuid.UUID) (*model.VisitView, error) {
	view, err := service.Do(ctx, s.uows, caller, func(uow repository.UnitOfWork) (*model.VisitView, error) {
		visit, err := uow.Visits().GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if visit == nil {
			return nil, apperrors.NotFound("visit", nil)
		}
		views, err := resolve(ctx, uow, []*model.Visit{visit})
		if err != nil {
			return nil, err
		}
		return views[0], nil
	})
	if err != nil {
		return nil, service.Fail(s.logger, err, "failed to get visit", "visit_id", id.String())
	}
	return view, nil
}

// ListVisits returns one page of visits, newest first, and the total count.
func (s *Service) ListVisits(ctx context.Context, caller model.Caller, page model.Page) ([]*model.VisitView, int64, error) {
	type result struct {
		views []*model.VisitView
		total int64
	}
	res, err := service.Do(ctx, s.uows, caller, func(uow repository.UnitOfWork) (result, error) {
		total, err := uow.Visits().Count(ctx, nil)
		if err != nil {
			return result{}, err
		}
		visits, err := uow.Visits().List(ctx, nil,
			repository.OrderBy(repository.NewestFirst()...),
			repository.Paginate(page))
		if err != nil {
			return result{}, err
		}
		views, err := resolve(ctx, uow, visits)
		if err != nil {
			return result{}, err
		}
		return result{views: views, total: total}, nil
	})
	if err != nil {
		return nil, 0, service.Fail(s.logger, err, "failed to list visits")
	}
	return res.views, res.total, nil
}

func (s *Service) UpdateStatus(ctx context.Context, caller model.Caller, id uuid.UUID, status string) (*model.VisitView, error) {
	var previous model.VisitStatus
	view, err := service.Do(ctx, s.uows, caller, func(uow repository.UnitOfWork) (*model.VisitView, error) {
		visit, err := uow.Visits().GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if visit == nil {
			return nil, apperrors.NotFound("visit", nil)
		}
		next, ok := model.ParseVisitStatus(status)
		if !ok {
			return nil, apperrors.Validation("status", "invalid visit status")
		}

		previous = visit.Status
		visit.Status = next
		if err := uow.Visits().Update(visit); err != nil {
			return nil, err
		}
		if err := service.Save(ctx, s.logger, uow, "visit"); err != nil {
			return nil, err
		}
		views, err := resolve(ctx, uow, []*model.Visit{visit})
		if err != nil {
			return nil, err
		}
		return views[0], nil
	})
	if err != nil {
		return nil, service.Fail(s.logger, err, "failed to update visit status", "visit_id", id.String())
	}

	s.publish(ctx, caller, messaging.EventVisitStatusChanged, map[string]interface{}{
		"visit_id": view.ID,
		"from":     previous,
		"to":       view.Status,
	})
	return view, nil
}

// Reassign resolves every requested target before touching the visit, so a
// missing doctor or room leaves it unchanged. At least one target is required.
func (s *Service) Reassign(ctx context.Context, caller model.Caller, id uuid.UUID, in ReassignInput) (*model.VisitView, error) {
	if in.DoctorID == nil && in.RoomID == nil {
		return nil, apperrors.Validation("doctor_id", "doctor_id or room_id is required")
	}

	view, err := service.Do(ctx, s.uows, caller, func(uow repository.UnitOfWork) (*model.VisitView, error) {
		visit, err := uow.Visits().GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if visit == nil {
			return nil, apperrors.NotFound("visit", nil)
		}

		doctorID, roomID := visit.DoctorID, visit.RoomID
		if in.DoctorID != nil {
			doctor, err := uow.Doctors().GetByID(ctx, *in.DoctorID)
			if err != nil {
				return nil, err
			}
			if doctor == nil {
				return nil, apperrors.NotFound("doctor", nil)
			}
			doctorID = doctor.ID
		}
		if in.RoomID != nil {
			room, err := uow.Rooms().GetByID(ctx, *in.RoomID)
			if err != nil {
				return nil, err
			}
			if room == nil {
				return nil, apperrors.NotFound("room", nil)
			}
			roomID = room.ID
		}

		visit.DoctorID, visit.RoomID = doctorID, roomID
		if err := uow.Visits().Update(visit); err != nil {
			return nil, err
		}
		if err := service.Save(ctx, s.logger, uow, "visit"); err != nil {
			return nil, err
		}
		views, err := resolve(ctx, uow, []*model.Visit{visit})
		if err != nil {
			return nil, err
		}
		return views[0], nil
	})
	if err != nil {
		return nil, service.Fail(s.logger, err, "failed to reassign visit", "visit_id", id.String())
	}

	s.publish(ctx, caller, messaging.EventVisitReassigned, map[string]interface{}{
		"visit_id":  view.ID,
		"doctor_id": view.DoctorID,
		"room_id":   view.RoomID,
	})
	return view, nil
}

func (s *Service) publish(ctx context.Context, caller model.Caller, eventType string, payload interface{}) {
	if err := s.publisher.Publish(ctx, caller.TenantID, eventType, payload); err != nil {
		s.logger.Error(err, "failed to publish event", "event", eventType, "tenant_id", caller.TenantID.String())
	}
}

func newView(v *model.Visit, patient, doctor, room, company string) *model.VisitView {
	return &model.VisitView{
		ID:                   v.ID,
		PatientID:            v.PatientID,
		PatientName:          patient,
		DoctorID:             v.DoctorID,
		DoctorName:           doctor,
		RoomID:               v.RoomID,
		RoomName:             room,
		InsuranceCompanyID:   v.InsuranceCompanyID,
		InsuranceCompanyName: company,
		PaymentType:          v.PaymentType,
		TotalAmount:          v.TotalAmount,
		PatientPaid:          v.PatientPaid,
		InsuranceDue:         v.InsuranceDue,
		Status:               v.Status,
		CreatedAt:            v.CreatedAt,
	}
}
