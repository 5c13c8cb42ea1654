package models

import "errors"

// Sentinel errors shared by the repository, ledger and profile layers.
var (
	// ErrUnauthenticated is returned by mutations when no user is signed in.
	ErrUnauthenticated = errors.New("you must be signed in")

	// ErrPermissionDenied is returned when the signed-in user does not own the target.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrStoreUnavailable wraps transient document store failures on writes and reads.
	ErrStoreUnavailable = errors.New("document store unavailable")

	// ErrInvalidForkTarget is returned when forking from the original was
	// requested but the root recipe cannot be resolved.
	ErrInvalidForkTarget = errors.New("original recipe cannot be resolved")
)
