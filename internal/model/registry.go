package model

import (
	"time"

	"github.com/google/uuid"
)

type Doctor struct {
	Base
	FullName  string `json:"full_name" db:"full_name"`
	Specialty string `json:"specialty" db:"specialty"`
	Code      string `json:"code" db:"code"`
}

func (*Doctor) TableName() string { return "doctors" }

func (d *Doctor) Columns() map[string]interface{} {
	return map[string]interface{}{
		"full_name": d.FullName,
		"specialty": d.Specialty,
		"code":      d.Code,
	}
}

type Patient struct {
	Base
	FullName           string     `json:"full_name" db:"full_name"`
	DateOfBirth        *time.Time `json:"date_of_birth,omitempty" db:"date_of_birth"`
	Phone              string     `json:"phone" db:"phone"`
	InsuranceCompanyID *uuid.UUID `json:"insurance_company_id,omitempty" db:"insurance_company_id"`
}

func (*Patient) TableName() string { return "patients" }

func (p *Patient) Columns() map[string]interface{} {
	return map[string]interface{}{
		"full_name":            p.FullName,
		"date_of_birth":        nullTime(p.DateOfBirth),
		"phone":                p.Phone,
		"insurance_company_id": nullUUID(p.InsuranceCompanyID),
	}
}

type Room struct {
	Base
	Name string `json:"name" db:"name"`
}

func (*Room) TableName() string { return "rooms" }

func (r *Room) Columns() map[string]interface{} {
	return map[string]interface{}{"name": r.Name}
}

type InsuranceCompany struct {
	Base
	Name string `json:"name" db:"name"`
}

func (*InsuranceCompany) TableName() string { return "insurance_companies" }

func (i *InsuranceCompany) Columns() map[string]interface{} {
	return map[string]interface{}{"name": i.Name}
}
