package postgres

import (
	"context"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/clinic-api/internal/model"
)

// ClinicDirectory answers the few questions that span tenants: whether any
// clinic exists (seeding), which clinics are active (background workers) and
// whether a token's clinic is still active (auth).
// It only reads the clinics table; tenant data is always reached through a
// unit of work bound to one of the returned clinics.
type ClinicDirectory struct {
	db sqlx.QueryerContext
}

func NewClinicDirectory(db sqlx.QueryerContext) *ClinicDirectory {
	return &ClinicDirectory{db: db}
}

// Any reports whether at least one clinic row exists, deleted or not.
func (d *ClinicDirectory) Any(ctx context.Context) (bool, error) {
	query, args, err := dialect.From("clinics").
		Select(goqu.L("1")).
		Limit(1).
		ToSQL()
	if err != nil {
		return false, fmt.Errorf("failed to build clinic lookup: %w", err)
	}

	var found []int
	if err := sqlx.SelectContext(ctx, d.db, &found, query, args...); err != nil {
		return false, fmt.Errorf("failed to check clinics: %w", err)
	}
	return len(found) > 0, nil
}

// Active lists clinics that are not soft-deleted, oldest first.
func (d *ClinicDirectory) Active(ctx context.Context) ([]*model.Clinic, error) {
	query, args, err := dialect.From("clinics").
		Where(
			goqu.C("is_deleted").IsFalse(),
			goqu.C("id").Eq(goqu.C("tenant_id")),
		).
		Order(goqu.C("created_at").Asc()).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("failed to build clinic list: %w", err)
	}

	clinics := []*model.Clinic{}
	if err := sqlx.SelectContext(ctx, d.db, &clinics, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list clinics: %w", err)
	}
	return clinics, nil
}

// IsActive reports whether the clinic exists and is not soft-deleted.
func (d *ClinicDirectory) IsActive(ctx context.Context, id uuid.UUID) (bool, error) {
	query, args, err := dialect.From("clinics").
		Select(goqu.L("1")).
		Where(
			goqu.C("id").Eq(id),
			goqu.C("is_deleted").IsFalse(),
		).
		Limit(1).
		ToSQL()
	if err != nil {
		return false, fmt.Errorf("failed to build clinic lookup: %w", err)
	}

	var found []int
	if err := sqlx.SelectContext(ctx, d.db, &found, query, args...); err != nil {
		return false, fmt.Errorf("failed to check clinic %s: %w", id, err)
	}
	return len(found) > 0, nil
}
