package service

import "errors"

// ErrForbidden is returned when the caller lacks the standing an operation
// requires, either membership in the target organization or an admin role
// within the active one.
var ErrForbidden = errors.New("forbidden")

// ErrOrganizationNotExist is returned when the requested organization is
// unknown to the auth backend.
var ErrOrganizationNotExist = errors.New("organization does not exist")

// ErrUserNotExist is returned when an operation targets a user that cannot
// be resolved.
var ErrUserNotExist = errors.New("user does not exist")
