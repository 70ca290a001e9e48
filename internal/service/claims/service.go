package claims

import (
	"context"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
	"github.com/jwalitptl/clinic-api/internal/service"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
	"github.com/jwalitptl/clinic-api/pkg/logger"
)

// UnassignedName labels insurance visits billed to no company.
const UnassignedName = "Unassigned"

// Service reports what insurance companies owe. A visit is claimed from the
// company it was attributed to when it was booked.
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

// Summaries returns one summary per active insurance company ordered by
// name, followed by an unassigned summary when insurance visits without a
// company exist. A deleted company still gets a summary while visits billed
// to it remain.
func (s *Service) Summaries(ctx context.Context, caller model.Caller) ([]model.ClaimsSummary, error) {
	summaries, err := service.Do(ctx, s.uows, caller, func(uow repository.UnitOfWork) ([]model.ClaimsSummary, error) {
		visits, err := uow.Visits().List(ctx, goqu.C("payment_type").Eq(string(model.PaymentInsurance)))
		if err != nil {
			return nil, err
		}
		companies, err := billedCompanies(ctx, uow, visits)
		if err != nil {
			return nil, err
		}
		paid, err := paidByVisit(ctx, uow, visits)
		if err != nil {
			return nil, err
		}

		byCompany := make(map[uuid.UUID]*summary, len(companies))
		summaries := make([]*summary, 0, len(companies)+1)
		for _, c := range companies {
			id := c.ID
			cs := newSummary(&id, c.Name)
			byCompany[id] = cs
			summaries = append(summaries, cs)
		}

		unassigned := newSummary(nil, UnassignedName)
		for _, v := range visits {
			target := unassigned
			if v.InsuranceCompanyID != nil {
				if company, ok := byCompany[*v.InsuranceCompanyID]; ok {
					target = company
				}
			}
			target.add(v, paid)
		}
		if unassigned.VisitCount > 0 {
			summaries = append(summaries, unassigned)
		}

		out := make([]model.ClaimsSummary, 0, len(summaries))
		for _, cs := range summaries {
			out = append(out, cs.finish())
		}
		return out, nil
	})
	if err != nil {
		return nil, service.Fail(s.logger, err, "failed to compute claims summaries")
	}
	return summaries, nil
}

// ForCompany returns the claims summary of one insurance company.
func (s *Service) ForCompany(ctx context.Context, caller model.Caller, companyID uuid.UUID) (*model.ClaimsSummary, error) {
	summary, err := service.Do(ctx, s.uows, caller, func(uow repository.UnitOfWork) (*model.ClaimsSummary, error) {
		company, err := uow.InsuranceCompanies().GetByID(ctx, companyID)
		if err != nil {
			return nil, err
		}
		if company == nil {
			return nil, apperrors.NotFound("insurance company", nil)
		}

		visits, err := uow.Visits().List(ctx, goqu.Ex{
			"payment_type":         string(model.PaymentInsurance),
			"insurance_company_id": company.ID,
		})
		if err != nil {
			return nil, err
		}
		paid, err := paidByVisit(ctx, uow, visits)
		if err != nil {
			return nil, err
		}

		id := company.ID
		summary := newSummary(&id, company.Name)
		for _, v := range visits {
			summary.add(v, paid)
		}
		result := summary.finish()
		return &result, nil
	})
	if err != nil {
		return nil, service.Fail(s.logger, err, "failed to compute claims summary", "insurance_company_id", companyID.String())
	}
	return summary, nil
}

// billedCompanies lists the active companies plus any deleted company that
// visits are still billed to, ordered by name.
func billedCompanies(ctx context.Context, uow repository.UnitOfWork, visits []*model.Visit) ([]*model.InsuranceCompany, error) {
	byName := repository.OrderBy(goqu.C("name").Asc(), goqu.C("seq").Asc())

	seen := make(map[uuid.UUID]bool)
	ids := make([]string, 0)
	for _, v := range visits {
		if v.InsuranceCompanyID == nil || seen[*v.InsuranceCompanyID] {
			continue
		}
		seen[*v.InsuranceCompanyID] = true
		ids = append(ids, v.InsuranceCompanyID.String())
	}
	if len(ids) == 0 {
		return uow.InsuranceCompanies().List(ctx, nil, byName)
	}
	return uow.InsuranceCompanies().ListIncludingDeleted(ctx, goqu.Or(
		goqu.C("is_deleted").IsFalse(),
		goqu.C("id").In(ids),
	), byName)
}

// paidByVisit sums every payment recorded against visits.
func paidByVisit(ctx context.Context, uow repository.UnitOfWork, visits []*model.Visit) (map[uuid.UUID]decimal.Decimal, error) {
	paid := make(map[uuid.UUID]decimal.Decimal)
	if len(visits) == 0 {
		return paid, nil
	}

	ids := make([]string, 0, len(visits))
	for _, v := range visits {
		ids = append(ids, v.ID.String())
	}
	totals, err := uow.Payments().SumBy(ctx, "amount", "visit_id", goqu.C("visit_id").In(ids))
	if err != nil {
		return nil, err
	}
	for _, t := range totals {
		id, err := uuid.Parse(t.Key.String)
		if err != nil {
			continue
		}
		paid[id] = t.Sum
	}
	return paid, nil
}

type summary model.ClaimsSummary

func newSummary(companyID *uuid.UUID, name string) *summary {
	return &summary{
		InsuranceCompanyID: companyID,
		CompanyName:        name,
		TotalDue:           decimal.Zero,
		TotalPaid:          decimal.Zero,
	}
}

func (s *summary) add(v *model.Visit, paid map[uuid.UUID]decimal.Decimal) {
	s.VisitCount++
	s.TotalDue = s.TotalDue.Add(v.InsuranceDue)
	if amount, ok := paid[v.ID]; ok {
		s.TotalPaid = s.TotalPaid.Add(amount)
	}
}

// finish computes the outstanding amount. Overpayment leaves it negative.
func (s *summary) finish() model.ClaimsSummary {
	s.Outstanding = s.TotalDue.Sub(s.TotalPaid)
	return model.ClaimsSummary(*s)
}
