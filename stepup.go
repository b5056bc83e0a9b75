package goAccess

import (
	"context"
	"strings"
)

const (
	stepUpMessageEnroll    = "Two-factor authentication is required for your role. Please set it up to continue."
	stepUpMessageConfirm   = "Please complete your two-factor authentication setup."
	stepUpMessageRecommend = "We recommend enabling two-factor authentication for enhanced security."
)

// StepUpRequirement derives the two-factor requirement level from the
// principal's role set. Roles in StepUp.RequiredRoles mandate a
// confirmed secret; roles in StepUp.RecommendedRoles get a suggestion.
func (e *Engine) StepUpRequirement(principal *Principal) StepUpLevel {
	if e == nil || principal == nil {
		return StepUpNone
	}
	if principal.HasAnyRole(e.config.StepUp.RequiredRoles...) {
		return StepUpRequired
	}
	if principal.HasAnyRole(e.config.StepUp.RecommendedRoles...) {
		return StepUpRecommended
	}
	return StepUpNone
}

// StepUpSatisfied reports whether the principal meets its role's
// two-factor requirement. Levels below Required are always satisfied.
func (e *Engine) StepUpSatisfied(principal *Principal) bool {
	if e.StepUpRequirement(principal) != StepUpRequired {
		return true
	}
	return principal.TwoFactorSecretPresent && principal.TwoFactorConfirmed
}

// StepUpEnforced reports whether enforcement is wired into the request
// pipeline. The policy is fully evaluated either way; this switch only
// tells callers whether to honor denying outcomes. It defaults to off.
func (e *Engine) StepUpEnforced() bool {
	return e != nil && e.config.StepUp.Enforce
}

// IsExemptRoute reports whether the identified route is excluded from
// step-up enforcement. The setup-flow routes must be exempt or a denial
// would redirect into itself.
func (e *Engine) IsExemptRoute(routeID string) bool {
	if e == nil || routeID == "" {
		return false
	}
	for _, r := range e.config.StepUp.ExemptRoutes {
		if routeID == r {
			return true
		}
	}
	for _, prefix := range e.config.StepUp.ExemptPrefixes {
		if strings.HasPrefix(routeID, prefix) {
			return true
		}
	}
	return false
}

// EnforceStepUp applies the step-up policy to a principal whose
// authorization already succeeded. On denial the outcome distinguishes
// enrollment (no secret) from confirmation (unconfirmed secret), each
// with its own message and the canonical setup redirect. Callers must
// consult [Engine.IsExemptRoute] first and skip enforcement on setup
// routes.
//
// A recommended-level principal without a secret is allowed through but
// carries the recommendation message.
func (e *Engine) EnforceStepUp(ctx context.Context, principal *Principal) EnforcementOutcome {
	level := e.StepUpRequirement(principal)

	if level != StepUpRequired {
		out := EnforcementOutcome{Allowed: true, Level: level}
		if level == StepUpRecommended && !principal.TwoFactorSecretPresent {
			out.Message = stepUpMessageRecommend
		}
		return out
	}

	if principal.TwoFactorSecretPresent && principal.TwoFactorConfirmed {
		return EnforcementOutcome{Allowed: true, Level: level}
	}

	out := EnforcementOutcome{
		Allowed:        false,
		Level:          level,
		RedirectTarget: e.config.StepUp.SetupRoute,
	}
	if !principal.TwoFactorSecretPresent {
		out.Outstanding = StepUpEnroll
		out.Message = stepUpMessageEnroll
	} else {
		out.Outstanding = StepUpConfirm
		out.Message = stepUpMessageConfirm
	}

	e.metricInc(MetricStepUpDenied)
	e.emitAudit(ctx, auditEventStepUpDenied, false, principal.ID, ErrStepUpRequired, func() map[string]string {
		outstanding := "confirm"
		if out.Outstanding == StepUpEnroll {
			outstanding = "enroll"
		}
		return map[string]string{
			"level":       level.String(),
			"outstanding": outstanding,
		}
	})

	return out
}
