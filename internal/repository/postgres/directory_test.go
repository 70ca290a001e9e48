package postgres

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClinicDirectory(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	dir := NewClinicDirectory(sqlx.NewDb(db, "postgres"))

	mock.ExpectQuery(sqlLike(`SELECT 1 FROM "clinics"`, `LIMIT 1`)).
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}))

	exists, err := dir.Any(context.Background())
	require.NoError(t, err)
	assert.False(t, exists)

	mock.ExpectQuery(sqlLike(`FROM "clinics"`, `"is_deleted" IS FALSE`, `"id" = "tenant_id"`)).
		WillReturnRows(sqlmock.NewRows(append(append([]string{}, baseColumns...), "name", "email", "phone")).
			AddRow(tenantA.String(), tenantA.String(), fixedAt, nil, nil, nil, false, "Demo Clinic", "demo@clinic.local", "0100"))

	clinics, err := dir.Active(context.Background())
	require.NoError(t, err)
	require.Len(t, clinics, 1)
	assert.Equal(t, "Demo Clinic", clinics[0].Name)
	assert.Equal(t, tenantA, clinics[0].TenantID)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClinicDirectory_IsActive(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	dir := NewClinicDirectory(sqlx.NewDb(db, "postgres"))

	mock.ExpectQuery(sqlLike(`SELECT 1 FROM "clinics"`, `"id" = '`+tenantA.String()+`'`, `"is_deleted" IS FALSE`)).
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))
	mock.ExpectQuery(sqlLike(`SELECT 1 FROM "clinics"`, `"id" = '`+tenantB.String()+`'`)).
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}))

	active, err := dir.IsActive(context.Background(), tenantA)
	require.NoError(t, err)
	assert.True(t, active)

	active, err = dir.IsActive(context.Background(), tenantB)
	require.NoError(t, err)
	assert.False(t, active)

	assert.NoError(t, mock.ExpectationsWereMet())
}
