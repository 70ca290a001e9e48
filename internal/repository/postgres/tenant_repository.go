package postgres

import (
	"context"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
)

// TenantRepository is the only read/write path for one entity type. It is
// bound to the tenant of its unit of work and never sees other tenants' rows.
type TenantRepository[T model.Entity] struct {
	uow   *UnitOfWork
	table string
}

var _ repository.Repository[*model.Visit] = (*TenantRepository[*model.Visit])(nil)

func newTenantRepository[T model.Entity](uow *UnitOfWork) *TenantRepository[T] {
	var zero T
	return &TenantRepository[T]{
		uow:   uow,
		table: zero.TableName(),
	}
}

// scope ANDs the tenant filter, the soft-delete filter and the caller's
// predicate, in that order.
func (r *TenantRepository[T]) scope(where repository.Predicate, includeDeleted bool) exp.Expression {
	conds := []exp.Expression{goqu.C("tenant_id").Eq(r.uow.tenantID)}
	if !includeDeleted {
		conds = append(conds, goqu.C("is_deleted").IsFalse())
	}
	if where != nil {
		conds = append(conds, where)
	}
	return goqu.And(conds...)
}

func (r *TenantRepository[T]) List(ctx context.Context, where repository.Predicate, opts ...repository.QueryOption) ([]T, error) {
	return r.list(ctx, where, false, opts...)
}

func (r *TenantRepository[T]) ListIncludingDeleted(ctx context.Context, where repository.Predicate, opts ...repository.QueryOption) ([]T, error) {
	return r.list(ctx, where, true, opts...)
}

func (r *TenantRepository[T]) list(ctx context.Context, where repository.Predicate, includeDeleted bool, opts ...repository.QueryOption) ([]T, error) {
	if err := r.uow.ensureOpen(); err != nil {
		return nil, err
	}
	if r.uow.tenantID == uuid.Nil {
		return []T{}, nil
	}

	o := repository.BuildQueryOptions(opts...)
	ds := dialect.From(r.table).
		Where(r.scope(where, includeDeleted)).
		Order(o.Order...)
	if o.Limit > 0 {
		ds = ds.Limit(o.Limit)
	}
	if o.Offset > 0 {
		ds = ds.Offset(o.Offset)
	}

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, fmt.Errorf("failed to build %s query: %w", r.table, err)
	}

	items := []T{}
	if err := sqlx.SelectContext(ctx, r.uow.session, &items, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", r.table, err)
	}
	return items, nil
}

func (r *TenantRepository[T]) GetByID(ctx context.Context, id uuid.UUID) (T, error) {
	return r.GetOne(ctx, goqu.C("id").Eq(id))
}

func (r *TenantRepository[T]) GetOne(ctx context.Context, where repository.Predicate) (T, error) {
	var zero T
	items, err := r.list(ctx, where, false, repository.Limit(1))
	if err != nil {
		return zero, err
	}
	if len(items) == 0 {
		return zero, nil
	}
	return items[0], nil
}

func (r *TenantRepository[T]) Count(ctx context.Context, where repository.Predicate) (int64, error) {
	if err := r.uow.ensureOpen(); err != nil {
		return 0, err
	}
	if r.uow.tenantID == uuid.Nil {
		return 0, nil
	}

	query, args, err := dialect.From(r.table).
		Select(goqu.COUNT(goqu.Star())).
		Where(r.scope(where, false)).
		ToSQL()
	if err != nil {
		return 0, fmt.Errorf("failed to build %s count: %w", r.table, err)
	}

	var count int64
	if err := sqlx.GetContext(ctx, r.uow.session, &count, query, args...); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", r.table, err)
	}
	return count, nil
}

func (r *TenantRepository[T]) SumBy(ctx context.Context, sumColumn, groupColumn string, where repository.Predicate) ([]repository.GroupTotal, error) {
	if err := r.uow.ensureOpen(); err != nil {
		return nil, err
	}
	if r.uow.tenantID == uuid.Nil {
		return []repository.GroupTotal{}, nil
	}

	query, args, err := dialect.From(r.table).
		Select(
			goqu.C(groupColumn).As("group_key"),
			goqu.COUNT(goqu.Star()).As("row_count"),
			goqu.COALESCE(goqu.SUM(goqu.C(sumColumn)), 0).As("total"),
		).
		Where(r.scope(where, false)).
		GroupBy(goqu.C(groupColumn)).
		Order(goqu.C(groupColumn).Asc()).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("failed to build %s aggregate: %w", r.table, err)
	}

	totals := []repository.GroupTotal{}
	if err := sqlx.SelectContext(ctx, r.uow.session, &totals, query, args...); err != nil {
		return nil, fmt.Errorf("failed to aggregate %s: %w", r.table, err)
	}
	return totals, nil
}

// Add stamps the bound tenant onto entity, replacing whatever the caller set.
func (r *TenantRepository[T]) Add(entity T) error {
	if r.uow.tenantID == uuid.Nil {
		return repository.ErrNoTenant
	}
	meta := entity.Meta()
	meta.TenantID = r.uow.tenantID
	if meta.ID == uuid.Nil {
		meta.ID = uuid.New()
	}
	return r.uow.stage(changeInsert, r.table, entity)
}

func (r *TenantRepository[T]) AddMany(entities ...T) error {
	for _, e := range entities {
		if err := r.Add(e); err != nil {
			return err
		}
	}
	return nil
}

func (r *TenantRepository[T]) Update(entity T) error {
	if err := r.guard("update", entity); err != nil {
		return err
	}
	return r.uow.stage(changeUpdate, r.table, entity)
}

func (r *TenantRepository[T]) SoftDelete(entity T) error {
	if err := r.guard("soft delete", entity); err != nil {
		return err
	}
	entity.Meta().IsDeleted = true
	return r.uow.stage(changeUpdate, r.table, entity)
}

func (r *TenantRepository[T]) HardDelete(entity T) error {
	if err := r.guard("hard delete", entity); err != nil {
		return err
	}
	return r.uow.stage(changeDelete, r.table, entity)
}

// guard rejects writes to entities owned by another tenant. Nothing is
// staged when it fails.
func (r *TenantRepository[T]) guard(op string, entity T) error {
	if err := r.uow.ensureOpen(); err != nil {
		return err
	}
	meta := entity.Meta()
	if r.uow.tenantID == uuid.Nil || meta.TenantID != r.uow.tenantID {
		r.uow.logger.Error(repository.ErrTenantMismatch, "cross-tenant write rejected",
			"operation", op,
			"table", r.table,
			"entity_id", meta.ID.String(),
			"entity_tenant", meta.TenantID.String(),
			"bound_tenant", r.uow.tenantID.String(),
		)
		return fmt.Errorf("%s %s %s: %w", op, r.table, meta.ID, repository.ErrTenantMismatch)
	}
	return nil
}
