package registry

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository/postgres/pgtest"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
)

func TestCreateDoctor(t *testing.T) {
	db := pgtest.New(t)
	svc := NewService(db, nil)
	db.ExpectCommit(`INSERT INTO "doctors"`)

	doctor, err := svc.CreateDoctor(context.Background(), pgtest.Caller(), DoctorInput{
		FullName:  "  Dr. Ahmed Hassan ",
		Specialty: "Cardiology",
		Code:      "D-001",
	})

	require.NoError(t, err)
	assert.Equal(t, "Dr. Ahmed Hassan", doctor.FullName)
	assert.Equal(t, pgtest.TenantID, doctor.TenantID)
	assert.NotEqual(t, uuid.Nil, doctor.ID)
	assert.Equal(t, pgtest.Now, doctor.CreatedAt)
	assert.Contains(t, db.Last(), `'Dr. Ahmed Hassan'`)
	assert.NoError(t, db.Mock.ExpectationsWereMet())
}

func TestCreateDoctor_RequiresName(t *testing.T) {
	db := pgtest.New(t)
	svc := NewService(db, nil)

	_, err := svc.CreateDoctor(context.Background(), pgtest.Caller(), DoctorInput{FullName: "   "})

	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrBadRequest, appErr.Code)
	assert.Equal(t, "full_name", appErr.Field)
	assert.NoError(t, db.Mock.ExpectationsWereMet())
}

func TestCreatePatient_UnknownInsuranceCompany(t *testing.T) {
	db := pgtest.New(t)
	svc := NewService(db, nil)
	missing := uuid.New()
	db.ExpectSelect("insurance_companies")

	_, err := svc.CreatePatient(context.Background(), pgtest.Caller(), PatientInput{
		FullName:           "Layla Nasser",
		InsuranceCompanyID: &missing,
	})

	assert.EqualError(t, err, "insurance company not found")
	assert.NoError(t, db.Mock.ExpectationsWereMet())
}

func TestCreatePatient_WithInsurance(t *testing.T) {
	db := pgtest.New(t)
	svc := NewService(db, nil)
	company := pgtest.Entity(&model.InsuranceCompany{Name: "MedCare"})

	db.ExpectSelect("insurance_companies", company)
	db.ExpectCommit(`INSERT INTO "patients"`)

	patient, err := svc.CreatePatient(context.Background(), pgtest.Caller(), PatientInput{
		FullName:           "Layla Nasser",
		Phone:              "0501234567",
		InsuranceCompanyID: &company.ID,
	})

	require.NoError(t, err)
	require.NotNil(t, patient.InsuranceCompanyID)
	assert.Equal(t, company.ID, *patient.InsuranceCompanyID)
	assert.Contains(t, db.Last(), pgtest.Quoted(company.ID))
	assert.NoError(t, db.Mock.ExpectationsWereMet())
}

func TestGetRoom_NotFound(t *testing.T) {
	db := pgtest.New(t)
	svc := NewService(db, nil)
	db.ExpectSelect("rooms")

	_, err := svc.GetRoom(context.Background(), pgtest.Caller(), uuid.New())

	assert.EqualError(t, err, "room not found")
	assert.NoError(t, db.Mock.ExpectationsWereMet())
}

func TestListRooms_Paginates(t *testing.T) {
	db := pgtest.New(t)
	svc := NewService(db, nil)
	room := pgtest.Entity(&model.Room{Name: "Room 3"})

	db.Mock.ExpectQuery(pgtest.Like(`SELECT COUNT(*)`, `FROM "rooms"`)).WillReturnRows(pgtest.CountRows(3))
	db.Mock.ExpectQuery(pgtest.Like(`FROM "rooms"`, `ORDER BY "created_at" ASC`, `LIMIT 2 OFFSET 2`)).
		WillReturnRows(pgtest.Rows(room))

	rooms, total, err := svc.ListRooms(context.Background(), pgtest.Caller(), model.Page{Number: 2, Size: 2})

	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, rooms, 1)
	assert.Equal(t, "Room 3", rooms[0].Name)
	assert.NoError(t, db.Mock.ExpectationsWereMet())
}

func TestUpdateInsuranceCompany(t *testing.T) {
	db := pgtest.New(t)
	svc := NewService(db, nil)
	company := pgtest.Entity(&model.InsuranceCompany{Name: "MedCare"})

	db.ExpectSelect("insurance_companies", company)
	db.ExpectCommit(`UPDATE "insurance_companies"`)

	updated, err := svc.UpdateInsuranceCompany(context.Background(), pgtest.Caller(), company.ID, InsuranceCompanyInput{Name: "MedCare Gold"})

	require.NoError(t, err)
	assert.Equal(t, "MedCare Gold", updated.Name)
	require.NotNil(t, updated.UpdatedBy)
	assert.Equal(t, pgtest.UserID, *updated.UpdatedBy)
	assert.NotContains(t, db.Last(), "created_at")
	assert.NoError(t, db.Mock.ExpectationsWereMet())
}

func TestDeleteDoctor_IsSoft(t *testing.T) {
	db := pgtest.New(t)
	svc := NewService(db, nil)
	doctor := pgtest.Entity(&model.Doctor{FullName: "Dr. Leaving"})

	db.ExpectSelect("doctors", doctor)
	db.ExpectCommit(`UPDATE "doctors"`)

	err := svc.DeleteDoctor(context.Background(), pgtest.Caller(), doctor.ID)

	require.NoError(t, err)
	assert.Regexp(t, `"is_deleted"\s*=\s*TRUE`, db.Last())
	assert.NoError(t, db.Mock.ExpectationsWereMet())
}
