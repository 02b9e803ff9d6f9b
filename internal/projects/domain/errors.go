package domain

import "errors"

var (
	// ErrValidation covers documents failing shape or size checks.
	// It never reaches any tier and is always raised synchronously.
	ErrValidation = errors.New("project failed validation")

	// ErrLocalPersistence is a tier-2 I/O failure. Hard failure of
	// save/delete.
	ErrLocalPersistence = errors.New("local store write failed")

	// ErrRemotePersistence is a tier-3 I/O or authorization failure.
	// Non-fatal to save; fatal to publish.
	ErrRemotePersistence = errors.New("remote store write failed")

	// ErrQuotaExceeded is the owner-level creation cap. Distinct from
	// ErrValidation so callers can present an upgrade prompt.
	ErrQuotaExceeded = errors.New("creation limit reached")
)
