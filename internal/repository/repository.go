package repository

import (
	"context"
	"database/sql"

	"github.com/doug-martin/goqu/v9/exp"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jwalitptl/clinic-api/internal/model"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
)

// Predicate narrows a read. Build with goqu.Ex, goqu.C(...).Eq and friends.
// A nil Predicate matches every row the repository can see.
type Predicate = exp.Expression

var (
	// ErrTenantMismatch is returned when a write targets an entity owned by
	// a different tenant than the one the repository is bound to.
	ErrTenantMismatch = apperrors.Forbidden("entity belongs to another tenant", nil)

	// ErrNoTenant is returned by writes on a unit of work without a tenant.
	ErrNoTenant = apperrors.Forbidden("no tenant bound to unit of work", nil)

	// ErrUnitOfWorkClosed is returned by any use after Close.
	ErrUnitOfWorkClosed = &apperrors.AppError{Code: apperrors.ErrInternal, Message: "unit of work is closed"}
)

// Repository reads and stages writes for one entity type within one tenant.
// Reads always filter by tenant and, unless stated otherwise, hide
// soft-deleted rows. Writes are staged until UnitOfWork.SaveChanges.
type Repository[T model.Entity] interface {
	List(ctx context.Context, where Predicate, opts ...QueryOption) ([]T, error)
	ListIncludingDeleted(ctx context.Context, where Predicate, opts ...QueryOption) ([]T, error)
	// GetByID returns a nil entity and a nil error when nothing matches.
	GetByID(ctx context.Context, id uuid.UUID) (T, error)
	// GetOne returns the first match in default order, or nil.
	GetOne(ctx context.Context, where Predicate) (T, error)
	Count(ctx context.Context, where Predicate) (int64, error)
	// SumBy groups visible rows by groupColumn and sums sumColumn per group.
	SumBy(ctx context.Context, sumColumn, groupColumn string, where Predicate) ([]GroupTotal, error)

	Add(entity T) error
	AddMany(entities ...T) error
	Update(entity T) error
	SoftDelete(entity T) error
	HardDelete(entity T) error
}

// GroupTotal is one row of a grouped aggregation.
type GroupTotal struct {
	Key   sql.NullString  `db:"group_key"`
	Count int64           `db:"row_count"`
	Sum   decimal.Decimal `db:"total"`
}

// UnitOfWork binds one tenant and one store session to one commit boundary.
// It must not be shared across goroutines serving different requests.
type UnitOfWork interface {
	TenantID() uuid.UUID

	Clinics() Repository[*model.Clinic]
	Users() Repository[*model.User]
	Doctors() Repository[*model.Doctor]
	Patients() Repository[*model.Patient]
	Rooms() Repository[*model.Room]
	InsuranceCompanies() Repository[*model.InsuranceCompany]
	Visits() Repository[*model.Visit]
	Payments() Repository[*model.Payment]

	// SaveChanges writes every staged change in one transaction and returns
	// the number of affected rows. On error nothing is persisted.
	SaveChanges(ctx context.Context) (int64, error)
	Close() error
}

// Factory opens a unit of work for a caller.
type Factory interface {
	Begin(ctx context.Context, caller model.Caller) (UnitOfWork, error)
}
