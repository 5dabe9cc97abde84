package apperr

import "errors"

// Sentinel errors for the pairing and sync domain. Repositories and services
// wrap these with fmt.Errorf("...: %w", ...) so handlers can classify with
// errors.Is while logs keep the full chain.
var (
	// ErrNotFound means a couple id or record id did not resolve.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists means a create collided with an existing record.
	ErrAlreadyExists = errors.New("already exists")

	// ErrAlreadyFull means the couple already has both partners set.
	ErrAlreadyFull = errors.New("couple already has two partners")

	// ErrUsernameMismatch means the username matches neither partner.
	ErrUsernameMismatch = errors.New("username not found in this couple")

	// ErrUploadFailed means the blob store rejected or lost an upload.
	ErrUploadFailed = errors.New("upload failed")

	// ErrTransient marks failures the caller should retry by re-triggering
	// the action (timeouts, dropped connections).
	ErrTransient = errors.New("transient error")
)
