package postgres

import (
	"context"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

var (
	tenantA = uuid.MustParse("550e8400-e29b-41d4-a716-446655440000")
	tenantB = uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	actorID = uuid.MustParse("9f1c1b1e-2f4e-4a8e-9d57-1d2f3c4b5a69")
	fixedAt = time.Date(2024, 1, 1, 9, 30, 0, 0, time.UTC)
)

// sqlLog records every statement the mock driver sees.
type sqlLog struct {
	mu   sync.Mutex
	seen []string
}

func (l *sqlLog) Match(expectedSQL, actualSQL string) error {
	l.mu.Lock()
	l.seen = append(l.seen, actualSQL)
	l.mu.Unlock()
	return sqlmock.QueryMatcherRegexp.Match(expectedSQL, actualSQL)
}

func (l *sqlLog) all() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.seen...)
}

func (l *sqlLog) last() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.seen) == 0 {
		return ""
	}
	return l.seen[len(l.seen)-1]
}

func newTestUnitOfWork(t *testing.T, tenantID uuid.UUID) (*UnitOfWork, sqlmock.Sqlmock, *sqlLog) {
	t.Helper()

	log := &sqlLog{}
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherFunc(log.Match)))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	conn, err := sqlx.NewDb(db, "postgres").Connx(context.Background())
	require.NoError(t, err)

	uow := NewUnitOfWork(conn, tenantID, actorID, nil, nil)
	uow.now = func() time.Time { return fixedAt }
	return uow, mock, log
}

// sqlLike builds a regexp matching the literal fragments in order.
func sqlLike(fragments ...string) string {
	quoted := make([]string, len(fragments))
	for i, f := range fragments {
		quoted[i] = regexp.QuoteMeta(f)
	}
	return strings.Join(quoted, ".*")
}

func quoted(id uuid.UUID) string {
	return "'" + id.String() + "'"
}

var baseColumns = []string{"id", "tenant_id", "created_at", "created_by", "updated_at", "updated_by", "is_deleted"}

func doctorRows() *sqlmock.Rows {
	return sqlmock.NewRows(append(append([]string{}, baseColumns...), "full_name", "specialty", "code"))
}
