package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Visit is the ledger record. PatientPaid plus InsuranceDue equals
// TotalAmount for insurance visits; InsuranceDue is zero for cash visits.
type Visit struct {
	Base
	PatientID          uuid.UUID       `json:"patient_id" db:"patient_id"`
	DoctorID           uuid.UUID       `json:"doctor_id" db:"doctor_id"`
	RoomID             uuid.UUID       `json:"room_id" db:"room_id"`
	InsuranceCompanyID *uuid.UUID      `json:"insurance_company_id,omitempty" db:"insurance_company_id"`
	PaymentType        PaymentType     `json:"payment_type" db:"payment_type"`
	TotalAmount        decimal.Decimal `json:"total_amount" db:"total_amount"`
	PatientPaid        decimal.Decimal `json:"patient_paid" db:"patient_paid"`
	InsuranceDue       decimal.Decimal `json:"insurance_due" db:"insurance_due"`
	Status             VisitStatus     `json:"status" db:"status"`
}

func (*Visit) TableName() string { return "visits" }

func (v *Visit) Columns() map[string]interface{} {
	return map[string]interface{}{
		"patient_id":           v.PatientID,
		"doctor_id":            v.DoctorID,
		"room_id":              v.RoomID,
		"insurance_company_id": nullUUID(v.InsuranceCompanyID),
		"payment_type":         string(v.PaymentType),
		"total_amount":         v.TotalAmount,
		"patient_paid":         v.PatientPaid,
		"insurance_due":        v.InsuranceDue,
		"status":               string(v.Status),
	}
}

// VisitView is a visit with its references resolved to display names.
type VisitView struct {
	ID                   uuid.UUID       `json:"id"`
	PatientID            uuid.UUID       `json:"patient_id"`
	PatientName          string          `json:"patient_name"`
	DoctorID             uuid.UUID       `json:"doctor_id"`
	DoctorName           string          `json:"doctor_name"`
	RoomID               uuid.UUID       `json:"room_id"`
	RoomName             string          `json:"room_name"`
	InsuranceCompanyID   *uuid.UUID      `json:"insurance_company_id,omitempty"`
	InsuranceCompanyName string          `json:"insurance_company_name,omitempty"`
	PaymentType          PaymentType     `json:"payment_type"`
	TotalAmount          decimal.Decimal `json:"total_amount"`
	PatientPaid          decimal.Decimal `json:"patient_paid"`
	InsuranceDue         decimal.Decimal `json:"insurance_due"`
	Status               VisitStatus     `json:"status"`
	CreatedAt            time.Time       `json:"created_at"`
}

type Payment struct {
	Base
	VisitID uuid.UUID       `json:"visit_id" db:"visit_id"`
	Type    PaymentType     `json:"type" db:"type"`
	Amount  decimal.Decimal `json:"amount" db:"amount"`
}

func (*Payment) TableName() string { return "payments" }

func (p *Payment) Columns() map[string]interface{} {
	return map[string]interface{}{
		"visit_id": p.VisitID,
		"type":     string(p.Type),
		"amount":   p.Amount,
	}
}
