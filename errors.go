package goAccess

import "errors"

var (
	// ErrEngineNotReady is returned when an Engine method is called
	// before Build wired its collaborators.
	ErrEngineNotReady = errors.New("engine not ready")
	// ErrPrincipalInvalid is returned for snapshots violating the
	// two-factor invariant or missing an ID.
	ErrPrincipalInvalid = errors.New("invalid principal snapshot")
	// ErrRequirementInvalid marks a malformed access requirement:
	// empty with no authenticated-only marker, blank member names, or
	// an unknown combine mode. This is a programming error, expected
	// to surface in testing.
	ErrRequirementInvalid = errors.New("invalid access requirement")
	// ErrPrincipalNotFound is returned when the identity provider has
	// no record for a principal ID.
	ErrPrincipalNotFound = errors.New("principal not found")
	// ErrStepUpRequired is surfaced when authorization would succeed
	// but a confirmed two-factor secret is outstanding. Callers redirect
	// to the setup flow rather than denying outright.
	ErrStepUpRequired = errors.New("step-up authentication required")
	// ErrChallengeNotFound is returned when a challenge ID does not
	// resolve to a pending challenge.
	ErrChallengeNotFound = errors.New("two-factor challenge not found")
	// ErrChallengeExpired is returned once the challenge window has
	// passed; the caller must re-run primary authentication.
	ErrChallengeExpired = errors.New("two-factor challenge expired")
	// ErrChallengeAttemptsExceeded is returned when the attempt budget
	// for a challenge is exhausted.
	ErrChallengeAttemptsExceeded = errors.New("two-factor challenge attempts exceeded")
	// ErrChallengeUnavailable wraps challenge store backend failures.
	ErrChallengeUnavailable = errors.New("two-factor challenge backend unavailable")
	// ErrInvalidCode is returned for a rejected TOTP code. The message
	// is deliberately generic.
	ErrInvalidCode = errors.New("invalid two-factor code")
	// ErrInvalidRecoveryCode is returned for a rejected or already
	// consumed recovery code.
	ErrInvalidRecoveryCode = errors.New("invalid recovery code")
	// ErrTwoFactorNotConfigured is returned when a challenge is begun
	// for a principal without a provisioned secret.
	ErrTwoFactorNotConfigured = errors.New("two-factor authentication not configured")
	// ErrCatalogFrozen is returned for registrations after Freeze.
	ErrCatalogFrozen = errors.New("permission catalog frozen")
	// ErrPermissionUnknown is returned when a role assignment names a
	// permission absent from the catalog.
	ErrPermissionUnknown = errors.New("permission not registered")
	// ErrPermissionExists is returned for duplicate registrations.
	ErrPermissionExists = errors.New("permission already registered")
)
