// Package common defines shared constants and sentinel errors used across
// FrameExtractor components. Callers should use errors.Is to match these
// values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrInternal = errors.New("internal error")

	// Account lifecycle errors.
	ErrUsernameTaken      = errors.New("username is already in use")
	ErrEmailTaken         = errors.New("email is already in use")
	ErrAccountNotFound    = errors.New("account not found")
	ErrInvalidStatus      = errors.New("status must be 'active' or 'inactive'")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrAccountInactive    = errors.New("account is deactivated")

	// Token errors (invalid signature, malformed, or past TTL).
	ErrInvalidOrExpiredToken = errors.New("invalid or expired token")

	// Extraction pipeline errors.
	ErrValidation        = errors.New("validation error")
	ErrTranscodeFailed   = errors.New("transcode failed")
	ErrNoFramesExtracted = errors.New("no frames were extracted from the video")
	ErrStorage           = errors.New("storage error")
)
