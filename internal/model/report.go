package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DailyIncome is patient_paid summed over one UTC day, split by payment type.
type DailyIncome struct {
	Date            time.Time       `json:"date"`
	VisitCount      int             `json:"visit_count"`
	CashIncome      decimal.Decimal `json:"cash_income"`
	InsuranceIncome decimal.Decimal `json:"insurance_income"`
	TotalIncome     decimal.Decimal `json:"total_income"`
}

type DoctorRevenue struct {
	DoctorID     uuid.UUID       `json:"doctor_id"`
	DoctorName   string          `json:"doctor_name"`
	Specialty    string          `json:"specialty"`
	VisitCount   int             `json:"visit_count"`
	TotalRevenue decimal.Decimal `json:"total_revenue"`
}

// ClaimsSummary is what one insurance company owes. A nil company id marks
// insurance visits with no company attributed.
type ClaimsSummary struct {
	InsuranceCompanyID *uuid.UUID      `json:"insurance_company_id"`
	CompanyName        string          `json:"company_name"`
	VisitCount         int             `json:"visit_count"`
	TotalDue           decimal.Decimal `json:"total_due"`
	TotalPaid          decimal.Decimal `json:"total_paid"`
	Outstanding        decimal.Decimal `json:"outstanding"`
}
