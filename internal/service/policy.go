package service

import "github.com/Skotchmaster/todo_list/internal/models"

// Authorize permits requester to act on resources owned by ownerID when the
// requester is an admin or is the owner. It never touches the store.
func Authorize(requester *models.User, ownerID uint) error {
	if requester == nil {
		return newErr(ErrAuthentication, msgInvalidToken)
	}
	if requester.IsAdmin || requester.ID == ownerID {
		return nil
	}
	return newErr(ErrPermission, msgForbidden)
}

// RequireAdmin guards collection-wide scans.
func RequireAdmin(requester *models.User) error {
	if requester == nil {
		return newErr(ErrAuthentication, msgInvalidToken)
	}
	if !requester.IsAdmin {
		return newErr(ErrPermission, msgForbidden)
	}
	return nil
}

// requireAdminForFlags rejects a non-admin requester that would change
// is_admin or disabled away from their current values.
func requireAdminForFlags(requester *models.User, isAdmin, disabled *bool, curAdmin, curDisabled bool) error {
	changed := (isAdmin != nil && *isAdmin != curAdmin) || (disabled != nil && *disabled != curDisabled)
	if !changed {
		return nil
	}
	if requester != nil && requester.IsAdmin {
		return nil
	}
	return newErr(ErrPermission, msgForbidden)
}
