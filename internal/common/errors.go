// Package common defines shared constants and sentinel errors used across
// ledgerhouse components. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Validation errors (malformed registration input, uniqueness violations).
	ErrValidation = errors.New("validation error")

	// Authentication errors. ErrUnauthorized deliberately covers both "user
	// not found" and "wrong password" so callers cannot enumerate accounts.
	ErrUnauthorized    = errors.New("invalid credentials")
	ErrAccountDisabled = errors.New("account disabled")

	// Lookup errors.
	ErrNotFound = errors.New("not found")

	// Storage errors.
	ErrStorage         = errors.New("storage error")
	ErrVersionConflict = errors.New("version conflict")
	ErrVersionNotFound = errors.New("version not found")

	// Token lifecycle errors.
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)
