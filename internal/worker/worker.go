package worker

import (
	"context"

	"github.com/jwalitptl/clinic-api/internal/model"
)

// ClinicLister lists the clinics a background job runs for.
type ClinicLister interface {
	Active(ctx context.Context) ([]*model.Clinic, error)
}

// caller acts inside one clinic on behalf of no particular user.
func caller(clinic *model.Clinic, role model.Role) model.Caller {
	return model.Caller{TenantID: clinic.TenantID, Role: role}
}
