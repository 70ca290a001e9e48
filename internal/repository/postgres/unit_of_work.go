package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
	"github.com/jwalitptl/clinic-api/pkg/logger"
	"github.com/jwalitptl/clinic-api/pkg/metrics"
)

// Session is a store connection owned by exactly one unit of work.
// *sqlx.Conn satisfies it.
type Session interface {
	sqlx.QueryerContext
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
	Close() error
}

type changeKind int

const (
	changeInsert changeKind = iota
	changeUpdate
	changeDelete
	changeDiscarded
)

func (k changeKind) String() string {
	switch k {
	case changeInsert:
		return "insert"
	case changeUpdate:
		return "update"
	case changeDelete:
		return "delete"
	default:
		return "discarded"
	}
}

type change struct {
	kind   changeKind
	table  string
	entity model.Entity
}

// UnitOfWork stages writes from its repositories and flushes them in one
// transaction on SaveChanges.
type UnitOfWork struct {
	session  Session
	tenantID uuid.UUID
	actorID  uuid.UUID
	logger   *logger.Logger
	metrics  *metrics.Metrics
	now      func() time.Time

	mu      sync.Mutex
	closed  bool
	pending []*change
	tracked map[model.Entity]*change
	repos   map[string]interface{}
}

var _ repository.UnitOfWork = (*UnitOfWork)(nil)

// NewUnitOfWork takes ownership of session. tenantID scopes every
// repository; actorID is written to the audit columns.
func NewUnitOfWork(session Session, tenantID, actorID uuid.UUID, log *logger.Logger, m *metrics.Metrics) *UnitOfWork {
	if log == nil {
		log = logger.Nop()
	}
	return &UnitOfWork{
		session:  session,
		tenantID: tenantID,
		actorID:  actorID,
		logger:   log,
		metrics:  m,
		now:      time.Now,
		tracked:  make(map[model.Entity]*change),
		repos:    make(map[string]interface{}),
	}
}

// SetClock replaces the audit clock.
func (u *UnitOfWork) SetClock(now func() time.Time) {
	u.now = now
}

func (u *UnitOfWork) TenantID() uuid.UUID {
	return u.tenantID
}

func repositoryFor[T model.Entity](u *UnitOfWork) *TenantRepository[T] {
	var zero T
	key := zero.TableName()

	u.mu.Lock()
	defer u.mu.Unlock()
	if r, ok := u.repos[key]; ok {
		return r.(*TenantRepository[T])
	}
	r := newTenantRepository[T](u)
	u.repos[key] = r
	return r
}

func (u *UnitOfWork) Clinics() repository.Repository[*model.Clinic] {
	return repositoryFor[*model.Clinic](u)
}

func (u *UnitOfWork) Users() repository.Repository[*model.User] {
	return repositoryFor[*model.User](u)
}

func (u *UnitOfWork) Doctors() repository.Repository[*model.Doctor] {
	return repositoryFor[*model.Doctor](u)
}

func (u *UnitOfWork) Patients() repository.Repository[*model.Patient] {
	return repositoryFor[*model.Patient](u)
}

func (u *UnitOfWork) Rooms() repository.Repository[*model.Room] {
	return repositoryFor[*model.Room](u)
}

func (u *UnitOfWork) InsuranceCompanies() repository.Repository[*model.InsuranceCompany] {
	return repositoryFor[*model.InsuranceCompany](u)
}

func (u *UnitOfWork) Visits() repository.Repository[*model.Visit] {
	return repositoryFor[*model.Visit](u)
}

func (u *UnitOfWork) Payments() repository.Repository[*model.Payment] {
	return repositoryFor[*model.Payment](u)
}

func (u *UnitOfWork) ensureOpen() error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.closed {
		return repository.ErrUnitOfWorkClosed
	}
	return nil
}

// stage records a change. An entity staged twice keeps one slot: an insert
// followed by an update stays an insert, an insert followed by a delete is
// dropped, anything else takes the later kind.
func (u *UnitOfWork) stage(kind changeKind, table string, entity model.Entity) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.closed {
		return repository.ErrUnitOfWorkClosed
	}

	if prev, ok := u.tracked[entity]; ok {
		switch {
		case prev.kind == changeInsert && kind == changeUpdate:
		case prev.kind == changeInsert && kind == changeDelete:
			prev.kind = changeDiscarded
			delete(u.tracked, entity)
		default:
			prev.kind = kind
		}
		return nil
	}

	c := &change{kind: kind, table: table, entity: entity}
	u.pending = append(u.pending, c)
	u.tracked[entity] = c
	return nil
}

func (u *UnitOfWork) actor() *uuid.UUID {
	if u.actorID == uuid.Nil {
		return nil
	}
	id := u.actorID
	return &id
}

// stamp sets audit columns just before flushing. Creation stamps are
// never touched by updates.
func (u *UnitOfWork) stamp(c *change, now time.Time) {
	meta := c.entity.Meta()
	switch c.kind {
	case changeInsert:
		meta.CreatedAt = now
		meta.CreatedBy = u.actor()
		meta.UpdatedAt = nil
		meta.UpdatedBy = nil
	case changeUpdate:
		meta.UpdatedAt = &now
		meta.UpdatedBy = u.actor()
	}
}

func (u *UnitOfWork) statement(c *change) (string, []interface{}, error) {
	meta := c.entity.Meta()
	owned := goqu.And(goqu.C("id").Eq(meta.ID), goqu.C("tenant_id").Eq(u.tenantID))

	switch c.kind {
	case changeInsert:
		record := goqu.Record(c.entity.Columns())
		record["id"] = meta.ID
		record["tenant_id"] = meta.TenantID
		record["created_at"] = meta.CreatedAt
		record["created_by"] = nullableUUID(meta.CreatedBy)
		record["updated_at"] = nil
		record["updated_by"] = nil
		record["is_deleted"] = meta.IsDeleted
		return dialect.Insert(c.table).Rows(record).ToSQL()
	case changeUpdate:
		record := goqu.Record(c.entity.Columns())
		record["updated_at"] = *meta.UpdatedAt
		record["updated_by"] = nullableUUID(meta.UpdatedBy)
		record["is_deleted"] = meta.IsDeleted
		return dialect.Update(c.table).Set(record).Where(owned).ToSQL()
	case changeDelete:
		return dialect.Delete(c.table).Where(owned).ToSQL()
	}
	return "", nil, fmt.Errorf("unknown change kind %d", c.kind)
}

func nullableUUID(id *uuid.UUID) interface{} {
	if id == nil {
		return nil
	}
	return *id
}

// SaveChanges flushes staged changes in staging order inside one
// transaction. A cancelled ctx aborts the transaction.
func (u *UnitOfWork) SaveChanges(ctx context.Context) (int64, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.closed {
		return 0, repository.ErrUnitOfWorkClosed
	}

	changes := make([]*change, 0, len(u.pending))
	for _, c := range u.pending {
		if c.kind != changeDiscarded {
			changes = append(changes, c)
		}
	}
	if len(changes) == 0 {
		u.reset()
		return 0, nil
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	started := time.Now()
	now := u.now().UTC()
	for _, c := range changes {
		u.stamp(c, now)
	}

	affected, err := u.flush(ctx, changes)
	u.metrics.ObserveDatabase("save_changes", started, err)
	if err != nil {
		u.logger.Error(err, "save changes failed", "tenant_id", u.tenantID.String(), "changes", len(changes))
		return 0, err
	}

	for _, c := range changes {
		u.metrics.ObserveChange(c.table, c.kind.String())
	}
	u.reset()
	return affected, nil
}

func (u *UnitOfWork) flush(ctx context.Context, changes []*change) (int64, error) {
	tx, err := u.session.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}

	var affected int64
	for _, c := range changes {
		query, args, err := u.statement(c)
		if err != nil {
			tx.Rollback()
			return 0, fmt.Errorf("failed to build %s %s: %w", c.kind, c.table, err)
		}
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			tx.Rollback()
			return 0, translate(c, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			tx.Rollback()
			return 0, fmt.Errorf("failed to read affected rows: %w", err)
		}
		affected += n
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return affected, nil
}

const uniqueViolation = "23505"

func translate(c *change, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return apperrors.Conflict(fmt.Sprintf("duplicate %s", c.table), err)
	}
	return fmt.Errorf("failed to %s %s: %w", c.kind, c.table, err)
}

func (u *UnitOfWork) reset() {
	u.pending = nil
	u.tracked = make(map[model.Entity]*change)
}

// Close discards unsaved changes and releases the session. The unit of
// work is unusable afterwards.
func (u *UnitOfWork) Close() error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.closed {
		return nil
	}
	u.closed = true
	u.reset()
	if err := u.session.Close(); err != nil {
		return fmt.Errorf("failed to release session: %w", err)
	}
	return nil
}

// UnitOfWorkFactory opens units of work on dedicated pool connections.
type UnitOfWorkFactory struct {
	db      *sqlx.DB
	logger  *logger.Logger
	metrics *metrics.Metrics
}

var _ repository.Factory = (*UnitOfWorkFactory)(nil)

func NewUnitOfWorkFactory(db *sqlx.DB, log *logger.Logger, m *metrics.Metrics) *UnitOfWorkFactory {
	return &UnitOfWorkFactory{db: db, logger: log, metrics: m}
}

func (f *UnitOfWorkFactory) Begin(ctx context.Context, caller model.Caller) (repository.UnitOfWork, error) {
	conn, err := f.db.Connx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}
	return NewUnitOfWork(conn, caller.TenantID, caller.UserID, f.logger, f.metrics), nil
}
