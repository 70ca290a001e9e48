// Package pgtest drives service code against the real postgres unit of work
// over go-sqlmock.
package pgtest

import (
	"context"
	"database/sql/driver"
	"regexp"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
	"github.com/jwalitptl/clinic-api/internal/repository/postgres"
)

var (
	TenantID = uuid.MustParse("550e8400-e29b-41d4-a716-446655440000")
	UserID   = uuid.MustParse("9f1c1b1e-2f4e-4a8e-9d57-1d2f3c4b5a69")
	Now      = time.Date(2024, 1, 1, 9, 30, 0, 0, time.UTC)
)

// Caller is an admin of TenantID.
func Caller() model.Caller {
	return model.Caller{TenantID: TenantID, UserID: UserID, Role: model.RoleAdmin}
}

// Factory is a repository.Factory whose units of work share one mocked
// database. Every statement is recorded.
type Factory struct {
	DB   *sqlx.DB
	Mock sqlmock.Sqlmock

	mu   sync.Mutex
	seen []string
}

var _ repository.Factory = (*Factory)(nil)

func New(t testing.TB) *Factory {
	t.Helper()

	f := &Factory{}
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherFunc(f.match)))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	f.DB = sqlx.NewDb(db, "postgres")
	f.Mock = mock
	return f
}

func (f *Factory) match(expectedSQL, actualSQL string) error {
	f.mu.Lock()
	f.seen = append(f.seen, actualSQL)
	f.mu.Unlock()
	return sqlmock.QueryMatcherRegexp.Match(expectedSQL, actualSQL)
}

// Statements returns every statement executed so far.
func (f *Factory) Statements() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.seen...)
}

// Last returns the most recent statement.
func (f *Factory) Last() string {
	seen := f.Statements()
	if len(seen) == 0 {
		return ""
	}
	return seen[len(seen)-1]
}

func (f *Factory) Begin(ctx context.Context, caller model.Caller) (repository.UnitOfWork, error) {
	conn, err := f.DB.Connx(ctx)
	if err != nil {
		return nil, err
	}
	uow := postgres.NewUnitOfWork(conn, caller.TenantID, caller.UserID, nil, nil)
	uow.SetClock(func() time.Time { return Now })
	return uow, nil
}

// ExpectSelect expects the next query to read table and answers with
// entities.
func (f *Factory) ExpectSelect(table string, entities ...model.Entity) *sqlmock.ExpectedQuery {
	return f.Mock.ExpectQuery(Like(`FROM "` + table + `"`)).WillReturnRows(Rows(entities...))
}

// ExpectSum expects a grouped aggregation over table.
func (f *Factory) ExpectSum(table string, rows *sqlmock.Rows) *sqlmock.ExpectedQuery {
	return f.Mock.ExpectQuery(Like(`SUM(`, `FROM "`+table+`"`)).WillReturnRows(rows)
}

// ExpectCommit expects one transaction executing statements in order, each
// given as a leading fragment such as `INSERT INTO "visits"`.
func (f *Factory) ExpectCommit(statements ...string) {
	f.Mock.ExpectBegin()
	for _, s := range statements {
		f.Mock.ExpectExec(Like(s)).WillReturnResult(sqlmock.NewResult(0, 1))
	}
	f.Mock.ExpectCommit()
}

// SumRows starts an empty result set in the SumBy shape.
func SumRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"group_key", "row_count", "total"})
}

// CountRows answers a COUNT(*) query.
func CountRows(n int64) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"count"}).AddRow(n)
}

// Like builds a regexp matching the literal fragments in order.
func Like(fragments ...string) string {
	quoted := make([]string, len(fragments))
	for i, frag := range fragments {
		quoted[i] = regexp.QuoteMeta(frag)
	}
	return strings.Join(quoted, ".*")
}

// Quoted renders id the way interpolated SQL does.
func Quoted(id uuid.UUID) string {
	return "'" + id.String() + "'"
}

// Rows renders entities as a result set. All entities must share a type.
func Rows(entities ...model.Entity) *sqlmock.Rows {
	if len(entities) == 0 {
		return sqlmock.NewRows(nil)
	}

	own := entities[0].Columns()
	names := make([]string, 0, len(own))
	for name := range own {
		names = append(names, name)
	}
	sort.Strings(names)

	columns := append([]string{"id", "seq", "tenant_id", "created_at", "created_by", "updated_at", "updated_by", "is_deleted"}, names...)
	rows := sqlmock.NewRows(columns)
	for _, e := range entities {
		meta := e.Meta()
		values := []driver.Value{
			meta.ID.String(), meta.Seq, meta.TenantID.String(), meta.CreatedAt,
			value(meta.CreatedBy), value(meta.UpdatedAt), value(meta.UpdatedBy), meta.IsDeleted,
		}
		cols := e.Columns()
		for _, name := range names {
			values = append(values, value(cols[name]))
		}
		rows.AddRow(values...)
	}
	return rows
}

func value(v interface{}) driver.Value {
	switch x := v.(type) {
	case nil:
		return nil
	case *uuid.UUID:
		if x == nil {
			return nil
		}
		return x.String()
	case *time.Time:
		if x == nil {
			return nil
		}
		return *x
	case driver.Valuer:
		out, err := x.Value()
		if err != nil {
			panic(err)
		}
		return out
	}
	return v
}

var seq atomic.Int64

// Entity fills in the Base of e as if it had been stored in TenantID.
func Entity[T model.Entity](e T) T {
	meta := e.Meta()
	if meta.ID == uuid.Nil {
		meta.ID = uuid.New()
	}
	if meta.Seq == 0 {
		meta.Seq = seq.Add(1)
	}
	meta.TenantID = TenantID
	if meta.CreatedAt.IsZero() {
		meta.CreatedAt = Now
	}
	return e
}
