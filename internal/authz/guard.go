// Package authz decides whether a request may act on another user's data.
package authz

import apperrors "stockfolio/internal/errors"

// Identity is the authenticated caller of the current request, as resolved
// by the auth middleware.
type Identity struct {
	Email string
}

// Authorize allows access only when the authenticated identity owns the
// target data. Identifiers are compared as opaque, case-sensitive strings.
// An absent identity is an authentication failure, any mismatch a denial;
// both must be checked before any store or report operation that takes an
// explicit target owner.
func Authorize(identity Identity, targetOwner string) error {
	if identity.Email == "" {
		return apperrors.ErrUnauthorized
	}
	if identity.Email != targetOwner {
		return apperrors.ErrForbidden
	}
	return nil
}
