package registry

import (
	"context"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
	"github.com/jwalitptl/clinic-api/internal/service"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
)

// kind ties an entity type to its repository and display name.
type kind[T model.Entity] struct {
	name string
	repo func(repository.UnitOfWork) repository.Repository[T]
}

// apply copies input onto an entity. It may read through uow to check
// references.
type apply[T model.Entity] func(ctx context.Context, uow repository.UnitOfWork, entity T) error

func create[T model.Entity](ctx context.Context, s *Service, caller model.Caller, k kind[T], entity T, fill apply[T]) (T, error) {
	out, err := service.Do(ctx, s.uows, caller, func(uow repository.UnitOfWork) (T, error) {
		var zero T
		if err := fill(ctx, uow, entity); err != nil {
			return zero, err
		}
		if err := k.repo(uow).Add(entity); err != nil {
			return zero, err
		}
		if err := service.Save(ctx, s.logger, uow, k.name); err != nil {
			return zero, err
		}
		return entity, nil
	})
	if err != nil {
		var zero T
		return zero, service.Fail(s.logger, err, "failed to create "+k.name)
	}
	return out, nil
}

func find[T model.Entity](ctx context.Context, uow repository.UnitOfWork, k kind[T], id uuid.UUID) (T, error) {
	entity, err := k.repo(uow).GetByID(ctx, id)
	if err != nil {
		return entity, err
	}
	if isNil(entity) {
		return entity, apperrors.NotFound(k.name, nil)
	}
	return entity, nil
}

func get[T model.Entity](ctx context.Context, s *Service, caller model.Caller, k kind[T], id uuid.UUID) (T, error) {
	out, err := service.Do(ctx, s.uows, caller, func(uow repository.UnitOfWork) (T, error) {
		return find(ctx, uow, k, id)
	})
	if err != nil {
		var zero T
		return zero, service.Fail(s.logger, err, "failed to get "+k.name, "id", id.String())
	}
	return out, nil
}

type page[T model.Entity] struct {
	items []T
	total int64
}

func list[T model.Entity](ctx context.Context, s *Service, caller model.Caller, k kind[T], p model.Page) ([]T, int64, error) {
	out, err := service.Do(ctx, s.uows, caller, func(uow repository.UnitOfWork) (page[T], error) {
		total, err := k.repo(uow).Count(ctx, nil)
		if err != nil {
			return page[T]{}, err
		}
		items, err := k.repo(uow).List(ctx, nil, repository.Paginate(p))
		if err != nil {
			return page[T]{}, err
		}
		return page[T]{items: items, total: total}, nil
	})
	if err != nil {
		return nil, 0, service.Fail(s.logger, err, "failed to list "+k.name)
	}
	return out.items, out.total, nil
}

func update[T model.Entity](ctx context.Context, s *Service, caller model.Caller, k kind[T], id uuid.UUID, fill apply[T]) (T, error) {
	out, err := service.Do(ctx, s.uows, caller, func(uow repository.UnitOfWork) (T, error) {
		entity, err := find(ctx, uow, k, id)
		if err != nil {
			return entity, err
		}
		var zero T
		if err := fill(ctx, uow, entity); err != nil {
			return zero, err
		}
		if err := k.repo(uow).Update(entity); err != nil {
			return zero, err
		}
		if err := service.Save(ctx, s.logger, uow, k.name); err != nil {
			return zero, err
		}
		return entity, nil
	})
	if err != nil {
		var zero T
		return zero, service.Fail(s.logger, err, "failed to update "+k.name, "id", id.String())
	}
	return out, nil
}

// remove soft-deletes. The row stays until the retention worker purges it.
func remove[T model.Entity](ctx context.Context, s *Service, caller model.Caller, k kind[T], id uuid.UUID) error {
	_, err := service.Do(ctx, s.uows, caller, func(uow repository.UnitOfWork) (struct{}, error) {
		entity, err := find(ctx, uow, k, id)
		if err != nil {
			return struct{}{}, err
		}
		if err := k.repo(uow).SoftDelete(entity); err != nil {
			return struct{}{}, err
		}
		return struct{}{}, service.Save(ctx, s.logger, uow, k.name)
	})
	if err != nil {
		return service.Fail(s.logger, err, "failed to delete "+k.name, "id", id.String())
	}
	return nil
}

func isNil[T model.Entity](entity T) bool {
	var zero T
	return any(entity) == any(zero)
}
