package goAccess

import (
	"context"
	"fmt"
)

// CombineMode selects how a list of required roles or permissions is
// combined: Any passes when at least one entry matches, All requires
// every entry to match.
type CombineMode uint8

const (
	// CombineAny is the default mode for both role and permission lists.
	CombineAny CombineMode = iota
	// CombineAll requires every listed role or permission.
	CombineAll
)

// String returns "any" or "all" for logging and audit payloads.
func (m CombineMode) String() string {
	if m == CombineAll {
		return "all"
	}
	return "any"
}

// Principal is an immutable snapshot of an authenticated actor: its
// resolved role set, flattened permission set, and two-factor state.
// It is produced by an [IdentityProvider] (or [PermissionCatalog.Resolve])
// once per request and never mutated by the engine.
type Principal struct {
	ID string

	// Roles preserves assignment order for display; membership checks
	// treat it as a set.
	Roles []string

	// Permissions is the union of direct grants and role-inherited
	// grants, already flattened. The engine performs no role lookup.
	Permissions []string

	// TwoFactorSecretPresent reports whether a TOTP secret has been
	// provisioned for the principal.
	TwoFactorSecretPresent bool

	// TwoFactorConfirmed reports whether the provisioned secret has been
	// confirmed by a successful code verification. Implies
	// TwoFactorSecretPresent.
	TwoFactorConfirmed bool
}

// Validate checks the snapshot's internal invariants.
func (p *Principal) Validate() error {
	if p == nil || p.ID == "" {
		return ErrPrincipalInvalid
	}
	if p.TwoFactorConfirmed && !p.TwoFactorSecretPresent {
		return ErrPrincipalInvalid
	}
	return nil
}

// HasRole reports whether the principal holds the named role.
func (p *Principal) HasRole(role string) bool {
	if p == nil {
		return false
	}
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// HasAnyRole reports whether the principal holds at least one of the
// named roles.
func (p *Principal) HasAnyRole(roles ...string) bool {
	for _, r := range roles {
		if p.HasRole(r) {
			return true
		}
	}
	return false
}

// HasAllRoles reports whether the principal holds every named role.
func (p *Principal) HasAllRoles(roles ...string) bool {
	if p == nil {
		return false
	}
	for _, r := range roles {
		if !p.HasRole(r) {
			return false
		}
	}
	return true
}

// HasPermission reports whether the flattened permission set contains
// the named permission.
func (p *Principal) HasPermission(perm string) bool {
	if p == nil {
		return false
	}
	for _, g := range p.Permissions {
		if g == perm {
			return true
		}
	}
	return false
}

// HasAnyPermission reports whether the principal holds at least one of
// the named permissions.
func (p *Principal) HasAnyPermission(perms ...string) bool {
	for _, g := range perms {
		if p.HasPermission(g) {
			return true
		}
	}
	return false
}

// HasAllPermissions reports whether the principal holds every named
// permission.
func (p *Principal) HasAllPermissions(perms ...string) bool {
	if p == nil {
		return false
	}
	for _, g := range perms {
		if !p.HasPermission(g) {
			return false
		}
	}
	return true
}

// AccessRequirement declares, per guarded action, which roles and
// permissions must be present and how each list combines. The zero
// value is invalid; use [RequireAuthenticated] for an authenticated-only
// gate.
type AccessRequirement struct {
	RequiredRoles       []string
	RequiredPermissions []string
	RoleMode            CombineMode
	PermissionMode      CombineMode

	// AuthenticatedOnly marks a requirement with no role or permission
	// list as deliberate: any authenticated principal passes.
	AuthenticatedOnly bool
}

// RequireAuthenticated returns the requirement satisfied by any
// authenticated principal.
func RequireAuthenticated() AccessRequirement {
	return AccessRequirement{AuthenticatedOnly: true}
}

// RequireAnyRole returns a requirement passing when the principal holds
// at least one of the named roles.
func RequireAnyRole(roles ...string) AccessRequirement {
	return AccessRequirement{RequiredRoles: roles, RoleMode: CombineAny}
}

// RequireAllRoles returns a requirement passing only when the principal
// holds every named role.
func RequireAllRoles(roles ...string) AccessRequirement {
	return AccessRequirement{RequiredRoles: roles, RoleMode: CombineAll}
}

// RequireAnyPermission returns a requirement passing when the principal
// holds at least one of the named permissions.
func RequireAnyPermission(perms ...string) AccessRequirement {
	return AccessRequirement{RequiredPermissions: perms, PermissionMode: CombineAny}
}

// RequireAllPermissions returns a requirement passing only when the
// principal holds every named permission.
func RequireAllPermissions(perms ...string) AccessRequirement {
	return AccessRequirement{RequiredPermissions: perms, PermissionMode: CombineAll}
}

// Validate reports whether the requirement is well formed. An empty
// requirement without the AuthenticatedOnly marker is a caller bug, as
// are blank member names and unknown combine modes.
func (r AccessRequirement) Validate() error {
	if len(r.RequiredRoles) == 0 && len(r.RequiredPermissions) == 0 && !r.AuthenticatedOnly {
		return fmt.Errorf("%w: no roles, permissions or authenticated-only marker", ErrRequirementInvalid)
	}
	if r.RoleMode > CombineAll || r.PermissionMode > CombineAll {
		return fmt.Errorf("%w: unknown combine mode", ErrRequirementInvalid)
	}
	for _, name := range r.RequiredRoles {
		if name == "" {
			return fmt.Errorf("%w: empty role name", ErrRequirementInvalid)
		}
	}
	for _, name := range r.RequiredPermissions {
		if name == "" {
			return fmt.Errorf("%w: empty permission name", ErrRequirementInvalid)
		}
	}
	return nil
}

// DenialReason classifies why [Engine.Evaluate] denied a request.
type DenialReason uint8

const (
	// DenialNone is set on allowed decisions.
	DenialNone DenialReason = iota
	// DenialUnauthenticated means no principal was presented.
	DenialUnauthenticated
	// DenialMissingRole means the role gate failed.
	DenialMissingRole
	// DenialMissingPermission means the permission gate failed.
	DenialMissingPermission
)

// String returns the reason name used in audit payloads.
func (d DenialReason) String() string {
	switch d {
	case DenialUnauthenticated:
		return "unauthenticated"
	case DenialMissingRole:
		return "missing_role"
	case DenialMissingPermission:
		return "missing_permission"
	default:
		return "none"
	}
}

// Decision is the outcome of one authorization evaluation. Denials are
// values, not errors: the calling layer maps DenialUnauthenticated to a
// login redirect and the others to a 403-equivalent.
type Decision struct {
	Allowed bool
	Reason  DenialReason
}

// StepUpLevel is the two-factor requirement derived from a principal's
// role set.
type StepUpLevel uint8

const (
	// StepUpNone means the role set carries no two-factor expectation.
	StepUpNone StepUpLevel = iota
	// StepUpRecommended means two-factor setup is suggested but not
	// enforced.
	StepUpRecommended
	// StepUpRequired means the decision is honored only with a
	// confirmed two-factor secret.
	StepUpRequired
)

// String returns the level name used in audit payloads.
func (l StepUpLevel) String() string {
	switch l {
	case StepUpRecommended:
		return "recommended"
	case StepUpRequired:
		return "required"
	default:
		return "none"
	}
}

// StepUpOutstanding distinguishes what the principal must still do when
// step-up enforcement fails.
type StepUpOutstanding uint8

const (
	// StepUpNothing is set on allowed outcomes.
	StepUpNothing StepUpOutstanding = iota
	// StepUpEnroll means no secret has been provisioned.
	StepUpEnroll
	// StepUpConfirm means a secret exists but was never confirmed.
	StepUpConfirm
)

// EnforcementOutcome is the result of [Engine.EnforceStepUp]. On denial
// it carries the canonical setup-flow redirect target and a user-facing
// message distinguishing enrollment from confirmation.
type EnforcementOutcome struct {
	Allowed        bool
	Level          StepUpLevel
	Outstanding    StepUpOutstanding
	RedirectTarget string
	Message        string
}

// RecoveryCodeRecord stores one single-use recovery code as a SHA-256
// hash of its exact (case-sensitive) text.
type RecoveryCodeRecord struct {
	Hash [32]byte
}

// TwoFactorRecord is the provisioned TOTP state returned by an
// [IdentityProvider] for challenge verification.
type TwoFactorRecord struct {
	// Secret is the raw (decoded) TOTP secret. Empty when never
	// provisioned.
	Secret []byte
	// Confirmed reports whether the secret passed its initial
	// verification.
	Confirmed bool
}

// IdentityProvider is the interface callers implement to connect the
// engine to their identity storage. It supplies principal snapshots,
// two-factor secrets, and recovery code storage for the login-time
// challenge flow.
type IdentityProvider interface {
	// GetPrincipal returns the snapshot for the identified principal.
	GetPrincipal(ctx context.Context, principalID string) (*Principal, error)

	// GetTwoFactor returns the provisioned TOTP state, or a record with
	// an empty secret when none exists.
	GetTwoFactor(ctx context.Context, principalID string) (*TwoFactorRecord, error)

	// GetRecoveryCodes returns the unused recovery code records.
	GetRecoveryCodes(ctx context.Context, principalID string) ([]RecoveryCodeRecord, error)

	// ConsumeRecoveryCode atomically replaces the record matching used
	// with replacement, returning false when no record matched (already
	// consumed or never issued).
	ConsumeRecoveryCode(ctx context.Context, principalID string, used [32]byte, replacement RecoveryCodeRecord) (bool, error)

	// ReplaceRecoveryCodes swaps the entire recovery code set.
	ReplaceRecoveryCodes(ctx context.Context, principalID string, records []RecoveryCodeRecord) error
}

// ChallengeResult is returned by a successful challenge submission. The
// session token is a signed assertion of the authenticated principal,
// minted by the engine's token manager.
type ChallengeResult struct {
	Principal    *Principal
	SessionToken string

	// UsedRecoveryCode is set when authentication completed through a
	// recovery code rather than a TOTP code.
	UsedRecoveryCode bool

	// ReplacementRecoveryCode is the plain text of the code minted to
	// replace a consumed recovery code. Present only when
	// UsedRecoveryCode is true; shown to the user once.
	ReplacementRecoveryCode string
}
