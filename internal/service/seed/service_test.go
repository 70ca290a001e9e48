package seed

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jwalitptl/clinic-api/internal/repository/postgres/pgtest"
	"github.com/jwalitptl/clinic-api/pkg/security"
)

type stubDirectory struct {
	exists bool
	err    error
}

func (d stubDirectory) Any(context.Context) (bool, error) {
	return d.exists, d.err
}

func TestSeed_SkipsWhenClinicExists(t *testing.T) {
	db := pgtest.New(t)
	svc := NewService(db, stubDirectory{exists: true}, security.NewBcryptHasher(bcrypt.MinCost), nil)

	seeded, err := svc.Seed(context.Background())

	require.NoError(t, err)
	assert.False(t, seeded)
	assert.NoError(t, db.Mock.ExpectationsWereMet())
}

func TestSeed_CreatesDemoClinicInOneTransaction(t *testing.T) {
	db := pgtest.New(t)
	svc := NewService(db, stubDirectory{}, security.NewBcryptHasher(bcrypt.MinCost), nil)

	db.Mock.ExpectBegin()
	db.Mock.ExpectExec(pgtest.Like(`INSERT INTO "clinics"`, pgtest.Quoted(DemoClinicID))).
		WillReturnResult(sqlmock.NewResult(0, 1))
	for i := 0; i < 5; i++ {
		db.Mock.ExpectExec(pgtest.Like(`INSERT INTO "users"`)).WillReturnResult(sqlmock.NewResult(0, 1))
	}
	for i := 0; i < 3; i++ {
		db.Mock.ExpectExec(pgtest.Like(`INSERT INTO "doctors"`)).WillReturnResult(sqlmock.NewResult(0, 1))
	}
	for i := 0; i < 4; i++ {
		db.Mock.ExpectExec(pgtest.Like(`INSERT INTO "rooms"`)).WillReturnResult(sqlmock.NewResult(0, 1))
	}
	for i := 0; i < 3; i++ {
		db.Mock.ExpectExec(pgtest.Like(`INSERT INTO "insurance_companies"`)).WillReturnResult(sqlmock.NewResult(0, 1))
	}
	for i := 0; i < 3; i++ {
		db.Mock.ExpectExec(pgtest.Like(`INSERT INTO "patients"`)).WillReturnResult(sqlmock.NewResult(0, 1))
	}
	db.Mock.ExpectCommit()

	seeded, err := svc.Seed(context.Background())

	require.NoError(t, err)
	assert.True(t, seeded)
	for _, stmt := range db.Statements() {
		assert.Contains(t, stmt, pgtest.Quoted(DemoClinicID))
	}
	assert.NoError(t, db.Mock.ExpectationsWereMet())
}

func TestSeed_DirectoryFailure(t *testing.T) {
	db := pgtest.New(t)
	svc := NewService(db, stubDirectory{err: errors.New("db down")}, security.NewBcryptHasher(bcrypt.MinCost), nil)

	_, err := svc.Seed(context.Background())

	assert.ErrorContains(t, err, "db down")
}
