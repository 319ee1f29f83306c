package api

import (
	"errors"

	"github.com/xraph/forge"

	"github.com/lecternhq/lectern"
)

// mapError maps domain errors to Forge HTTP errors.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if isNotFound(err) {
		return forge.NotFound(err.Error())
	}
	if errors.Is(err, lectern.ErrSystemRoleImmutable) || errors.Is(err, lectern.ErrSystemPermissionImmutable) {
		return forge.BadRequest(err.Error())
	}
	if errors.Is(err, lectern.ErrDuplicateAssignment) || errors.Is(err, lectern.ErrDuplicateGrant) {
		return forge.BadRequest(err.Error())
	}
	if errors.Is(err, lectern.ErrCycleDetected) || errors.Is(err, lectern.ErrUnknownPermission) {
		return forge.BadRequest(err.Error())
	}
	if errors.Is(err, lectern.ErrAccessDenied) {
		return forge.Forbidden(err.Error())
	}
	return err
}

func isNotFound(err error) bool {
	return errors.Is(err, lectern.ErrResourceNotFound) ||
		errors.Is(err, lectern.ErrRoleNotFound) ||
		errors.Is(err, lectern.ErrPermissionNotFound) ||
		errors.Is(err, lectern.ErrAssignmentNotFound) ||
		errors.Is(err, lectern.ErrGrantNotFound)
}

func defaultLimit(limit int) int {
	if limit <= 0 {
		return 50
	}
	if limit > 1000 {
		return 1000
	}
	return limit
}
