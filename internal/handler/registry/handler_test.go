package registry

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-api/internal/handler/handlertest"
	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository/postgres/pgtest"
	"github.com/jwalitptl/clinic-api/internal/service/registry"
)

func setup(t *testing.T) (*gin.Engine, *pgtest.Factory) {
	db := pgtest.New(t)
	caller := handlertest.Caller(model.RoleAdmin)
	h := NewHandler(registry.NewService(db, nil))
	return handlertest.Engine(t, &caller, h.RegisterRoutes), db
}

func TestCreateDoctor(t *testing.T) {
	r, db := setup(t)
	db.ExpectCommit(`INSERT INTO "doctors"`)

	w := handlertest.Do(r, http.MethodPost, "/api/v1/doctors", map[string]string{
		"full_name": "Dr. Ahmed Hassan",
		"specialty": "Cardiology",
		"code":      "D-001",
	})

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var doctor model.Doctor
	handlertest.DecodeData(t, w, &doctor)
	assert.Equal(t, "Dr. Ahmed Hassan", doctor.FullName)
	assert.Equal(t, pgtest.TenantID, doctor.TenantID)
	assert.NoError(t, db.Mock.ExpectationsWereMet())
}

func TestCreateDoctor_MissingName(t *testing.T) {
	r, db := setup(t)

	w := handlertest.Do(r, http.MethodPost, "/api/v1/doctors", map[string]string{"specialty": "Cardiology"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "full_name", handlertest.Decode(t, w).Field)
	assert.NoError(t, db.Mock.ExpectationsWereMet())
}

func TestCreatePatient_WithDateOfBirth(t *testing.T) {
	r, db := setup(t)
	db.ExpectCommit(`INSERT INTO "patients"`)

	w := handlertest.Do(r, http.MethodPost, "/api/v1/patients", map[string]string{
		"full_name":     "Omar Khaled",
		"date_of_birth": "1985-03-15",
		"phone":         "0551112222",
	})

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var patient model.Patient
	handlertest.DecodeData(t, w, &patient)
	require.NotNil(t, patient.DateOfBirth)
	assert.Equal(t, "1985-03-15", patient.DateOfBirth.Format("2006-01-02"))
	assert.Contains(t, db.Last(), `1985-03-15`)
	assert.NoError(t, db.Mock.ExpectationsWereMet())
}

func TestCreatePatient_BadDate(t *testing.T) {
	r, _ := setup(t)

	w := handlertest.Do(r, http.MethodPost, "/api/v1/patients", map[string]string{
		"full_name":     "Omar Khaled",
		"date_of_birth": "15/03/1985",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "date_of_birth", handlertest.Decode(t, w).Field)
}

func TestListRooms(t *testing.T) {
	r, db := setup(t)
	room := pgtest.Entity(&model.Room{Name: "Room 1"})
	db.Mock.ExpectQuery(pgtest.Like(`SELECT COUNT(*)`, `FROM "rooms"`)).WillReturnRows(pgtest.CountRows(1))
	db.ExpectSelect("rooms", room)

	w := handlertest.Do(r, http.MethodGet, "/api/v1/rooms", nil)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var list struct {
		Items    []model.Room `json:"items"`
		Total    int64        `json:"total"`
		PageSize int          `json:"page_size"`
	}
	handlertest.DecodeData(t, w, &list)
	require.Len(t, list.Items, 1)
	assert.Equal(t, "Room 1", list.Items[0].Name)
	assert.Equal(t, model.DefaultPageSize, list.PageSize)
	assert.NoError(t, db.Mock.ExpectationsWereMet())
}

func TestGetInsuranceCompany_NotFound(t *testing.T) {
	r, db := setup(t)
	db.ExpectSelect("insurance_companies")

	w := handlertest.Do(r, http.MethodGet, "/api/v1/insurance-companies/"+uuid.NewString(), nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "insurance company not found", handlertest.Decode(t, w).Message)
	assert.NoError(t, db.Mock.ExpectationsWereMet())
}

func TestUpdateRoom(t *testing.T) {
	r, db := setup(t)
	room := pgtest.Entity(&model.Room{Name: "Room 1"})
	db.ExpectSelect("rooms", room)
	db.ExpectCommit(`UPDATE "rooms"`)

	w := handlertest.Do(r, http.MethodPut, "/api/v1/rooms/"+room.ID.String(), map[string]string{"name": "Room 1A"})

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var updated model.Room
	handlertest.DecodeData(t, w, &updated)
	assert.Equal(t, "Room 1A", updated.Name)
	assert.NoError(t, db.Mock.ExpectationsWereMet())
}

func TestDeleteDoctor(t *testing.T) {
	r, db := setup(t)
	doctor := pgtest.Entity(&model.Doctor{FullName: "Dr. Leaving"})
	db.ExpectSelect("doctors", doctor)
	db.ExpectCommit(`UPDATE "doctors"`)

	w := handlertest.Do(r, http.MethodDelete, "/api/v1/doctors/"+doctor.ID.String(), nil)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.NoError(t, db.Mock.ExpectationsWereMet())
}
