package payment

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository/postgres/pgtest"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
)

type failingPublisher struct{ calls int }

func (p *failingPublisher) Publish(context.Context, uuid.UUID, string, interface{}) error {
	p.calls++
	return errors.New("broker down")
}

func storedVisit() *model.Visit {
	return pgtest.Entity(&model.Visit{
		PatientID:    uuid.New(),
		DoctorID:     uuid.New(),
		RoomID:       uuid.New(),
		PaymentType:  model.PaymentInsurance,
		TotalAmount:  decimal.RequireFromString("500"),
		PatientPaid:  decimal.RequireFromString("100"),
		InsuranceDue: decimal.RequireFromString("400"),
		Status:       model.StatusDone,
	})
}

func TestRecordPayment(t *testing.T) {
	db := pgtest.New(t)
	publisher := &failingPublisher{}
	svc := NewService(db, publisher, nil)
	visit := storedVisit()

	db.ExpectSelect("visits", visit)
	db.ExpectCommit(`INSERT INTO "payments"`)

	payment, err := svc.RecordPayment(context.Background(), pgtest.Caller(), RecordInput{
		VisitID: visit.ID,
		Type:    "insurance",
		Amount:  decimal.RequireFromString("150.50"),
	})

	require.NoError(t, err)
	assert.Equal(t, visit.ID, payment.VisitID)
	assert.Equal(t, model.PaymentInsurance, payment.Type)
	assert.Equal(t, pgtest.TenantID, payment.TenantID)
	assert.Contains(t, db.Last(), pgtest.Quoted(visit.ID))
	assert.Equal(t, 1, publisher.calls, "publish failure must not fail the payment")
	assert.NoError(t, db.Mock.ExpectationsWereMet())
}

func TestRecordPayment_Validation(t *testing.T) {
	tests := []struct {
		name   string
		typ    string
		amount string
		field  string
	}{
		{"zero amount", "Cash", "0", "amount"},
		{"negative amount", "Cash", "-10", "amount"},
		{"sub-cent amount", "Cash", "0.001", "amount"},
		{"amount beyond column precision", "Cash", "10000000000000000", "amount"},
		{"unknown type", "cheque", "10", "type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := pgtest.New(t)
			svc := NewService(db, nil, nil)
			visit := storedVisit()
			db.ExpectSelect("visits", visit)

			_, err := svc.RecordPayment(context.Background(), pgtest.Caller(), RecordInput{
				VisitID: visit.ID,
				Type:    tt.typ,
				Amount:  decimal.RequireFromString(tt.amount),
			})

			appErr, ok := apperrors.As(err)
			require.True(t, ok)
			assert.Equal(t, apperrors.ErrBadRequest, appErr.Code)
			assert.Equal(t, tt.field, appErr.Field)
			assert.NoError(t, db.Mock.ExpectationsWereMet())
		})
	}
}

func TestRecordPayment_UnknownVisit(t *testing.T) {
	db := pgtest.New(t)
	svc := NewService(db, nil, nil)
	db.ExpectSelect("visits")

	_, err := svc.RecordPayment(context.Background(), pgtest.Caller(), RecordInput{
		VisitID: uuid.New(),
		Type:    "Cash",
		Amount:  decimal.RequireFromString("10"),
	})

	assert.EqualError(t, err, "visit not found")
	assert.NoError(t, db.Mock.ExpectationsWereMet())
}

func TestListPayments(t *testing.T) {
	db := pgtest.New(t)
	svc := NewService(db, nil, nil)
	visit := storedVisit()
	p1 := pgtest.Entity(&model.Payment{VisitID: visit.ID, Type: model.PaymentInsurance, Amount: decimal.RequireFromString("150")})
	p2 := pgtest.Entity(&model.Payment{VisitID: visit.ID, Type: model.PaymentInsurance, Amount: decimal.RequireFromString("250")})

	db.ExpectSelect("visits", visit)
	db.Mock.ExpectQuery(pgtest.Like(`FROM "payments"`, `"visit_id" = `+pgtest.Quoted(visit.ID))).
		WillReturnRows(pgtest.Rows(p1, p2))

	payments, err := svc.ListPayments(context.Background(), pgtest.Caller(), visit.ID)

	require.NoError(t, err)
	require.Len(t, payments, 2)
	assert.Equal(t, "250", payments[1].Amount.String())
	assert.NoError(t, db.Mock.ExpectationsWereMet())
}
