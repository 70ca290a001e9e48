package visit

import (
	"context"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
)

// resolve turns visits into views with one read per referenced table.
// References that are gone or soft-deleted render as UnknownName.
func resolve(ctx context.Context, uow repository.UnitOfWork, visits []*model.Visit) ([]*model.VisitView, error) {
	if len(visits) == 0 {
		return []*model.VisitView{}, nil
	}

	var patientIDs, doctorIDs, roomIDs, companyIDs []uuid.UUID
	for _, v := range visits {
		patientIDs = append(patientIDs, v.PatientID)
		doctorIDs = append(doctorIDs, v.DoctorID)
		roomIDs = append(roomIDs, v.RoomID)
		if v.InsuranceCompanyID != nil {
			companyIDs = append(companyIDs, *v.InsuranceCompanyID)
		}
	}

	patients, err := names(ctx, uow.Patients(), patientIDs, func(p *model.Patient) string { return p.FullName })
	if err != nil {
		return nil, err
	}
	doctors, err := names(ctx, uow.Doctors(), doctorIDs, func(d *model.Doctor) string { return d.FullName })
	if err != nil {
		return nil, err
	}
	rooms, err := names(ctx, uow.Rooms(), roomIDs, func(r *model.Room) string { return r.Name })
	if err != nil {
		return nil, err
	}
	companies, err := names(ctx, uow.InsuranceCompanies(), companyIDs, func(c *model.InsuranceCompany) string { return c.Name })
	if err != nil {
		return nil, err
	}

	views := make([]*model.VisitView, 0, len(visits))
	for _, v := range visits {
		company := ""
		if v.InsuranceCompanyID != nil {
			company = lookup(companies, *v.InsuranceCompanyID)
		}
		views = append(views, newView(v,
			lookup(patients, v.PatientID),
			lookup(doctors, v.DoctorID),
			lookup(rooms, v.RoomID),
			company))
	}
	return views, nil
}

func names[T model.Entity](ctx context.Context, repo repository.Repository[T], ids []uuid.UUID, name func(T) string) (map[uuid.UUID]string, error) {
	out := make(map[uuid.UUID]string)
	keys := distinct(ids)
	if len(keys) == 0 {
		return out, nil
	}

	entities, err := repo.List(ctx, goqu.C("id").In(keys))
	if err != nil {
		return nil, err
	}
	for _, e := range entities {
		out[e.Meta().ID] = name(e)
	}
	return out, nil
}

func distinct(ids []uuid.UUID) []string {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		keys = append(keys, id.String())
	}
	return keys
}

func lookup(names map[uuid.UUID]string, id uuid.UUID) string {
	if name, ok := names[id]; ok {
		return name
	}
	return UnknownName
}
