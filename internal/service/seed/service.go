package seed

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
	"github.com/jwalitptl/clinic-api/pkg/logger"
	"github.com/jwalitptl/clinic-api/pkg/security"
)

// DemoClinicID is the fixed id of the seeded clinic.
var DemoClinicID = uuid.MustParse("550e8400-e29b-41d4-a716-446655440000")

// Directory reports whether any clinic exists yet.
type Directory interface {
	Any(ctx context.Context) (bool, error)
}

type demoUser struct {
	username, password, fullName string
	role                         model.Role
}

var demoUsers = []demoUser{
	{"admin", "admin123", "Admin User", model.RoleAdmin},
	{"reception", "reception123", "Reception Staff", model.RoleReception},
	{"doctor", "doctor123", "Dr. John Smith", model.RoleDoctor},
	{"accountant", "accountant123", "Accountant User", model.RoleAccountant},
	{"contract", "contract123", "Contract Manager", model.RoleContractManager},
}

type Service struct {
	uows      repository.Factory
	directory Directory
	hasher    security.PasswordHasher
	logger    *logger.Logger
}

func NewService(uows repository.Factory, directory Directory, hasher security.PasswordHasher, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{uows: uows, directory: directory, hasher: hasher, logger: log}
}

// Seed creates the demo clinic with one user per role and some master data.
// It does nothing if any clinic exists and reports whether it wrote.
func (s *Service) Seed(ctx context.Context) (bool, error) {
	exists, err := s.directory.Any(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to check existing clinics: %w", err)
	}
	if exists {
		s.logger.Info("clinics already present, skipping seed")
		return false, nil
	}

	adminID := uuid.New()
	uow, err := s.uows.Begin(ctx, model.Caller{TenantID: DemoClinicID, UserID: adminID, Role: model.RoleAdmin})
	if err != nil {
		return false, fmt.Errorf("failed to open unit of work: %w", err)
	}
	defer uow.Close()

	clinic := &model.Clinic{Name: "Demo Clinic", Email: "info@democlinic.com", Phone: "+1-555-0100"}
	clinic.ID = DemoClinicID
	if err := uow.Clinics().Add(clinic); err != nil {
		return false, err
	}

	for _, du := range demoUsers {
		hash, err := s.hasher.Hash(du.password)
		if err != nil {
			return false, fmt.Errorf("failed to hash password for %s: %w", du.username, err)
		}
		user := &model.User{Username: du.username, PasswordHash: hash, FullName: du.fullName, Role: du.role}
		if du.role == model.RoleAdmin {
			user.ID = adminID
		}
		if err := uow.Users().Add(user); err != nil {
			return false, err
		}
	}

	if err := uow.Doctors().AddMany(
		&model.Doctor{FullName: "Dr. Sarah Johnson", Specialty: "Cardiology", Code: "DR001"},
		&model.Doctor{FullName: "Dr. Michael Brown", Specialty: "General Medicine", Code: "DR002"},
		&model.Doctor{FullName: "Dr. Emma Davis", Specialty: "Pediatrics", Code: "DR003"},
	); err != nil {
		return false, err
	}

	if err := uow.Rooms().AddMany(
		&model.Room{Name: "Room A"},
		&model.Room{Name: "Room B"},
		&model.Room{Name: "Room C"},
		&model.Room{Name: "Emergency Room"},
	); err != nil {
		return false, err
	}

	if err := uow.InsuranceCompanies().AddMany(
		&model.InsuranceCompany{Name: "HealthCare Plus"},
		&model.InsuranceCompany{Name: "MediCare Insurance"},
		&model.InsuranceCompany{Name: "Global Health"},
	); err != nil {
		return false, err
	}

	if err := uow.Patients().AddMany(
		&model.Patient{FullName: "John Doe", DateOfBirth: birthday(1985, time.May, 15), Phone: "+1-555-0101"},
		&model.Patient{FullName: "Jane Smith", DateOfBirth: birthday(1990, time.August, 22), Phone: "+1-555-0102"},
		&model.Patient{FullName: "Robert Wilson", DateOfBirth: birthday(1975, time.March, 10), Phone: "+1-555-0103"},
	); err != nil {
		return false, err
	}

	affected, err := uow.SaveChanges(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to seed database: %w", err)
	}
	s.logger.Info("seeded demo clinic", "clinic_id", DemoClinicID.String(), "rows", affected)
	return true, nil
}

func birthday(year int, month time.Month, day int) *time.Time {
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return &t
}
