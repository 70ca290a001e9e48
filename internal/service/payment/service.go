package payment

import (
	"context"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
	"github.com/jwalitptl/clinic-api/internal/service"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
	"github.com/jwalitptl/clinic-api/pkg/logger"
	"github.com/jwalitptl/clinic-api/pkg/messaging"
)

type RecordInput struct {
	VisitID uuid.UUID
	Type    string
	Amount  decimal.Decimal
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

// RecordPayment books money received against a visit. Insurance payments
// reduce the outstanding amount of the visit's claim.
func (s *Service) RecordPayment(ctx context.Context, caller model.Caller, in RecordInput) (*model.Payment, error) {
	payment, err := service.Do(ctx, s.uows, caller, func(uow repository.UnitOfWork) (*model.Payment, error) {
		visit, err := uow.Visits().GetByID(ctx, in.VisitID)
		if err != nil {
			return nil, err
		}
		if visit == nil {
			return nil, apperrors.NotFound("visit", nil)
		}

		paymentType, ok := model.ParsePaymentType(in.Type)
		if !ok {
			return nil, apperrors.Validation("type", "invalid payment type")
		}
		if !in.Amount.IsPositive() {
			return nil, apperrors.Validation("amount", "amount must be greater than zero")
		}
		if !in.Amount.Equal(model.RoundMoney(in.Amount)) {
			return nil, apperrors.Validation("amount", "amount must have at most 2 decimal places")
		}
		if !model.MoneyFits(in.Amount) {
			return nil, apperrors.Validation("amount", "amount must have at most 16 integer digits")
		}

		payment := &model.Payment{VisitID: visit.ID, Type: paymentType, Amount: in.Amount}
		if err := uow.Payments().Add(payment); err != nil {
			return nil, err
		}
		if err := service.Save(ctx, s.logger, uow, "payment"); err != nil {
			return nil, err
		}
		return payment, nil
	})
	if err != nil {
		return nil, service.Fail(s.logger, err, "failed to record payment", "visit_id", in.VisitID.String())
	}

	if err := s.publisher.Publish(ctx, caller.TenantID, messaging.EventPaymentRecorded, payment); err != nil {
		s.logger.Error(err, "failed to publish event", "event", messaging.EventPaymentRecorded)
	}
	return payment, nil
}

func (s *Service) ListPayments(ctx context.Context, caller model.Caller, visitID uuid.UUID) ([]*model.Payment, error) {
	payments, err := service.Do(ctx, s.uows, caller, func(uow repository.UnitOfWork) ([]*model.Payment, error) {
		visit, err := uow.Visits().GetByID(ctx, visitID)
		if err != nil {
			return nil, err
		}
		if visit == nil {
			return nil, apperrors.NotFound("visit", nil)
		}
		return uow.Payments().List(ctx, goqu.C("visit_id").Eq(visit.ID))
	})
	if err != nil {
		return nil, service.Fail(s.logger, err, "failed to list payments", "visit_id", visitID.String())
	}
	return payments, nil
}
