package registry

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
	"github.com/jwalitptl/clinic-api/pkg/logger"
)

// Service manages a clinic's master data: doctors, patients, rooms and
// insurance companies.
type Service struct {
	uows   repository.Factory
	logger *logger.Logger
}

func NewService(uows repository.Factory, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{uows: uows, logger: log}
}

var (
	doctors = kind[*model.Doctor]{
		name: "doctor",
		repo: func(uow repository.UnitOfWork) repository.Repository[*model.Doctor] { return uow.Doctors() },
	}
	patients = kind[*model.Patient]{
		name: "patient",
		repo: func(uow repository.UnitOfWork) repository.Repository[*model.Patient] { return uow.Patients() },
	}
	rooms = kind[*model.Room]{
		name: "room",
		repo: func(uow repository.UnitOfWork) repository.Repository[*model.Room] { return uow.Rooms() },
	}
	companies = kind[*model.InsuranceCompany]{
		name: "insurance company",
		repo: func(uow repository.UnitOfWork) repository.Repository[*model.InsuranceCompany] {
			return uow.InsuranceCompanies()
		},
	}
)

func required(field, value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", apperrors.Validation(field, field+" is required")
	}
	return value, nil
}

type DoctorInput struct {
	FullName  string
	Specialty string
	Code      string
}

func (in DoctorInput) fill(_ context.Context, _ repository.UnitOfWork, d *model.Doctor) error {
	name, err := required("full_name", in.FullName)
	if err != nil {
		return err
	}
	d.FullName = name
	d.Specialty = strings.TrimSpace(in.Specialty)
	d.Code = strings.TrimSpace(in.Code)
	return nil
}

func (s *Service) CreateDoctor(ctx context.Context, caller model.Caller, in DoctorInput) (*model.Doctor, error) {
	return create(ctx, s, caller, doctors, &model.Doctor{}, in.fill)
}

func (s *Service) GetDoctor(ctx context.Context, caller model.Caller, id uuid.UUID) (*model.Doctor, error) {
	return get(ctx, s, caller, doctors, id)
}

func (s *Service) ListDoctors(ctx context.Context, caller model.Caller, p model.Page) ([]*model.Doctor, int64, error) {
	return list(ctx, s, caller, doctors, p)
}

func (s *Service) UpdateDoctor(ctx context.Context, caller model.Caller, id uuid.UUID, in DoctorInput) (*model.Doctor, error) {
	return update(ctx, s, caller, doctors, id, in.fill)
}

func (s *Service) DeleteDoctor(ctx context.Context, caller model.Caller, id uuid.UUID) error {
	return remove(ctx, s, caller, doctors, id)
}

type PatientInput struct {
	FullName           string
	DateOfBirth        *time.Time
	Phone              string
	InsuranceCompanyID *uuid.UUID
}

// fill rejects an insurance company that is not visible in the tenant.
func (in PatientInput) fill(ctx context.Context, uow repository.UnitOfWork, p *model.Patient) error {
	name, err := required("full_name", in.FullName)
	if err != nil {
		return err
	}
	if in.DateOfBirth != nil && in.DateOfBirth.After(time.Now()) {
		return apperrors.Validation("date_of_birth", "date_of_birth must be in the past")
	}
	if in.InsuranceCompanyID != nil {
		if _, err := find(ctx, uow, companies, *in.InsuranceCompanyID); err != nil {
			return err
		}
	}

	p.FullName = name
	p.DateOfBirth = in.DateOfBirth
	p.Phone = strings.TrimSpace(in.Phone)
	p.InsuranceCompanyID = in.InsuranceCompanyID
	return nil
}

func (s *Service) CreatePatient(ctx context.Context, caller model.Caller, in PatientInput) (*model.Patient, error) {
	return create(ctx, s, caller, patients, &model.Patient{}, in.fill)
}

func (s *Service) GetPatient(ctx context.Context, caller model.Caller, id uuid.UUID) (*model.Patient, error) {
	return get(ctx, s, caller, patients, id)
}

func (s *Service) ListPatients(ctx context.Context, caller model.Caller, p model.Page) ([]*model.Patient, int64, error) {
	return list(ctx, s, caller, patients, p)
}

func (s *Service) UpdatePatient(ctx context.Context, caller model.Caller, id uuid.UUID, in PatientInput) (*model.Patient, error) {
	return update(ctx, s, caller, patients, id, in.fill)
}

func (s *Service) DeletePatient(ctx context.Context, caller model.Caller, id uuid.UUID) error {
	return remove(ctx, s, caller, patients, id)
}

type RoomInput struct {
	Name string
}

func (in RoomInput) fill(_ context.Context, _ repository.UnitOfWork, r *model.Room) error {
	name, err := required("name", in.Name)
	if err != nil {
		return err
	}
	r.Name = name
	return nil
}

func (s *Service) CreateRoom(ctx context.Context, caller model.Caller, in RoomInput) (*model.Room, error) {
	return create(ctx, s, caller, rooms, &model.Room{}, in.fill)
}

func (s *Service) GetRoom(ctx context.Context, caller model.Caller, id uuid.UUID) (*model.Room, error) {
	return get(ctx, s, caller, rooms, id)
}

func (s *Service) ListRooms(ctx context.Context, caller model.Caller, p model.Page) ([]*model.Room, int64, error) {
	return list(ctx, s, caller, rooms, p)
}

func (s *Service) UpdateRoom(ctx context.Context, caller model.Caller, id uuid.UUID, in RoomInput) (*model.Room, error) {
	return update(ctx, s, caller, rooms, id, in.fill)
}

func (s *Service) DeleteRoom(ctx context.Context, caller model.Caller, id uuid.UUID) error {
	return remove(ctx, s, caller, rooms, id)
}

type InsuranceCompanyInput struct {
	Name string
}

func (in InsuranceCompanyInput) fill(_ context.Context, _ repository.UnitOfWork, c *model.InsuranceCompany) error {
	name, err := required("name", in.Name)
	if err != nil {
		return err
	}
	c.Name = name
	return nil
}

func (s *Service) CreateInsuranceCompany(ctx context.Context, caller model.Caller, in InsuranceCompanyInput) (*model.InsuranceCompany, error) {
	return create(ctx, s, caller, companies, &model.InsuranceCompany{}, in.fill)
}

func (s *Service) GetInsuranceCompany(ctx context.Context, caller model.Caller, id uuid.UUID) (*model.InsuranceCompany, error) {
	return get(ctx, s, caller, companies, id)
}

func (s *Service) ListInsuranceCompanies(ctx context.Context, caller model.Caller, p model.Page) ([]*model.InsuranceCompany, int64, error) {
	return list(ctx, s, caller, companies, p)
}

func (s *Service) UpdateInsuranceCompany(ctx context.Context, caller model.Caller, id uuid.UUID, in InsuranceCompanyInput) (*model.InsuranceCompany, error) {
	return update(ctx, s, caller, companies, id, in.fill)
}

func (s *Service) DeleteInsuranceCompany(ctx context.Context, caller model.Caller, id uuid.UUID) error {
	return remove(ctx, s, caller, companies, id)
}
