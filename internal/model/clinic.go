package model

// Clinic is the tenant root. Its ID equals its TenantID.
type Clinic struct {
	Base
	Name  string `json:"name" db:"name"`
	Email string `json:"email" db:"email"`
	Phone string `json:"phone" db:"phone"`
}

func (*Clinic) TableName() string { return "clinics" }

func (c *Clinic) Columns() map[string]interface{} {
	return map[string]interface{}{
		"name":  c.Name,
		"email": c.Email,
		"phone": c.Phone,
	}
}
