package visit

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-api/internal/handler/handlertest"
	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/service/visit"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
)

type stubService struct {
	created  visit.CreateInput
	reassign visit.ReassignInput
	status   string
	page     model.Page
	err      error
}

func (s *stubService) view(id uuid.UUID) *model.VisitView {
	return &model.VisitView{ID: id, PatientName: "Ahmed Ali", Status: model.StatusWaiting, TotalAmount: decimal.NewFromInt(500)}
}

func (s *stubService) CreateVisit(_ context.Context, _ model.Caller, in visit.CreateInput) (*model.VisitView, error) {
	s.created = in
	if s.err != nil {
		return nil, s.err
	}
	return s.view(uuid.New()), nil
}

func (s *stubService) GetVisit(_ context.Context, _ model.Caller, id uuid.UUID) (*model.VisitView, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.view(id), nil
}

func (s *stubService) ListVisits(_ context.Context, _ model.Caller, page model.Page) ([]*model.VisitView, int64, error) {
	s.page = page
	return []*model.VisitView{s.view(uuid.New())}, 41, s.err
}

func (s *stubService) UpdateStatus(_ context.Context, _ model.Caller, id uuid.UUID, status string) (*model.VisitView, error) {
	s.status = status
	if s.err != nil {
		return nil, s.err
	}
	return s.view(id), nil
}

func (s *stubService) Reassign(_ context.Context, _ model.Caller, id uuid.UUID, in visit.ReassignInput) (*model.VisitView, error) {
	s.reassign = in
	return s.view(id), s.err
}

func setup(t *testing.T, svc *stubService) *gin.Engine {
	caller := handlertest.Caller(model.RoleReception)
	return handlertest.Engine(t, &caller, NewHandler(svc).RegisterRoutes)
}

func TestCreateVisit(t *testing.T) {
	svc := &stubService{}
	r := setup(t, svc)
	patient, doctor, room := uuid.New(), uuid.New(), uuid.New()

	w := handlertest.Do(r, http.MethodPost, "/api/v1/visits", map[string]interface{}{
		"patient_id":   patient,
		"doctor_id":    doctor,
		"room_id":      room,
		"payment_type": "insurance",
		"total_amount": "500",
		"patient_paid": 100,
	})

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var view model.VisitView
	handlertest.DecodeData(t, w, &view)
	assert.Equal(t, "Ahmed Ali", view.PatientName)
	assert.Equal(t, patient, svc.created.PatientID)
	assert.Equal(t, "insurance", svc.created.PaymentType)
	assert.Equal(t, "500", svc.created.TotalAmount.String())
	assert.Equal(t, "100", svc.created.PatientPaid.String())
	assert.Nil(t, svc.created.InsuranceCompanyID)
}

func TestCreateVisit_RejectsInvalidBody(t *testing.T) {
	tests := []struct {
		name  string
		body  interface{}
		field string
	}{
		{"missing doctor", map[string]interface{}{"patient_id": uuid.New(), "room_id": uuid.New(), "payment_type": "Cash", "total_amount": 10, "patient_paid": 10}, "doctor_id"},
		{"three decimals", map[string]interface{}{"patient_id": uuid.New(), "doctor_id": uuid.New(), "room_id": uuid.New(), "payment_type": "Cash", "total_amount": "10.005", "patient_paid": 0}, "total_amount"},
		{"negative paid", map[string]interface{}{"patient_id": uuid.New(), "doctor_id": uuid.New(), "room_id": uuid.New(), "payment_type": "Cash", "total_amount": 10, "patient_paid": -1}, "patient_paid"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubService{}
			w := handlertest.Do(setup(t, svc), http.MethodPost, "/api/v1/visits", tt.body)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tt.field, handlertest.Decode(t, w).Field)
			assert.Equal(t, uuid.Nil, svc.created.PatientID, "service not called")
		})
	}
}

func TestCreateVisit_MalformedJSON(t *testing.T) {
	w := handlertest.Do(setup(t, &stubService{}), http.MethodPost, "/api/v1/visits", `{"patient_id": `)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "malformed request", handlertest.Decode(t, w).Message)
}

func TestCreateVisit_MapsServiceErrors(t *testing.T) {
	tests := []struct {
		err    error
		status int
		field  string
	}{
		{apperrors.NotFound("doctor", nil), http.StatusNotFound, ""},
		{apperrors.Validation("patient_paid", "patient paid exceeds total amount"), http.StatusBadRequest, "patient_paid"},
		{apperrors.Internal(assert.AnError), http.StatusInternalServerError, ""},
	}
	for _, tt := range tests {
		svc := &stubService{err: tt.err}
		w := handlertest.Do(setup(t, svc), http.MethodPost, "/api/v1/visits", map[string]interface{}{
			"patient_id": uuid.New(), "doctor_id": uuid.New(), "room_id": uuid.New(),
			"payment_type": "Cash", "total_amount": 10, "patient_paid": 10,
		})

		assert.Equal(t, tt.status, w.Code)
		resp := handlertest.Decode(t, w)
		assert.Equal(t, tt.field, resp.Field)
		assert.NotContains(t, resp.Message, assert.AnError.Error())
	}
}

func TestListVisits(t *testing.T) {
	svc := &stubService{}
	w := handlertest.Do(setup(t, svc), http.MethodGet, "/api/v1/visits?page=3&page_size=10", nil)

	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Items    []model.VisitView `json:"items"`
		Total    int64             `json:"total"`
		Page     int               `json:"page"`
		PageSize int               `json:"page_size"`
	}
	handlertest.DecodeData(t, w, &list)
	assert.Len(t, list.Items, 1)
	assert.EqualValues(t, 41, list.Total)
	assert.Equal(t, 3, list.Page)
	assert.Equal(t, model.Page{Number: 3, Size: 10}, svc.page)
}

func TestGetVisit(t *testing.T) {
	id := uuid.New()
	w := handlertest.Do(setup(t, &stubService{}), http.MethodGet, "/api/v1/visits/"+id.String(), nil)

	require.Equal(t, http.StatusOK, w.Code)
	var view model.VisitView
	handlertest.DecodeData(t, w, &view)
	assert.Equal(t, id, view.ID)

	w = handlertest.Do(setup(t, &stubService{}), http.MethodGet, "/api/v1/visits/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "id", handlertest.Decode(t, w).Field)

	w = handlertest.Do(setup(t, &stubService{err: apperrors.NotFound("visit", nil)}), http.MethodGet, "/api/v1/visits/"+id.String(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "visit not found", handlertest.Decode(t, w).Message)
}

func TestUpdateStatusAndReassign(t *testing.T) {
	svc := &stubService{}
	r := setup(t, svc)
	id := uuid.New()

	w := handlertest.Do(r, http.MethodPatch, "/api/v1/visits/"+id.String()+"/status", map[string]string{"status": "inprogress"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "inprogress", svc.status)

	doctor := uuid.New()
	w = handlertest.Do(r, http.MethodPatch, "/api/v1/visits/"+id.String()+"/assignment", map[string]interface{}{"doctor_id": doctor})
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, svc.reassign.DoctorID)
	assert.Equal(t, doctor, *svc.reassign.DoctorID)
	assert.Nil(t, svc.reassign.RoomID)

	w = handlertest.Do(r, http.MethodPatch, "/api/v1/visits/"+id.String()+"/status", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "status", handlertest.Decode(t, w).Field)
}

func TestRequiresCaller(t *testing.T) {
	r := handlertest.Engine(t, nil, NewHandler(&stubService{}).RegisterRoutes)

	w := handlertest.Do(r, http.MethodGet, "/api/v1/visits", nil)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
