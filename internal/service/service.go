package service

import (
	"context"
	"fmt"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
	"github.com/jwalitptl/clinic-api/pkg/logger"
)

// Do opens a unit of work for caller, runs fn in it and always closes it.
func Do[T any](ctx context.Context, uows repository.Factory, caller model.Caller, fn func(repository.UnitOfWork) (T, error)) (T, error) {
	var zero T
	uow, err := uows.Begin(ctx, caller)
	if err != nil {
		return zero, apperrors.Internal(fmt.Errorf("failed to open unit of work: %w", err))
	}
	defer uow.Close()

	return fn(uow)
}

// Fail passes AppErrors through and turns anything else into a logged
// internal error.
func Fail(log *logger.Logger, err error, msg string, fields ...interface{}) error {
	if _, ok := apperrors.As(err); ok {
		return err
	}
	log.Error(err, msg, fields...)
	return apperrors.Internal(err)
}

// Save commits uow, mapping failures through Fail.
func Save(ctx context.Context, log *logger.Logger, uow repository.UnitOfWork, what string) error {
	if _, err := uow.SaveChanges(ctx); err != nil {
		return Fail(log, err, "failed to save "+what, "tenant_id", uow.TenantID().String())
	}
	return nil
}
