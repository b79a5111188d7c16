package service

import (
	"errors"
	"fmt"

	"go-rbac-admin/internal/repository"
	"go-rbac-admin/pkg/validator"
)

// Error kinds returned by the administration API. Every error it returns
// wraps exactly one of them; test with errors.Is.
var (
	ErrNotFound   = repository.ErrNotFound
	ErrValidation = errors.New("validation failed")
	ErrForbidden  = errors.New("forbidden")
)

func validate(req interface{}) error {
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		firstErr := errs[0]
		return fmt.Errorf("%w: field '%s' failed on tag '%s'", ErrValidation, firstErr.FailedField, firstErr.Tag)
	}
	return nil
}
