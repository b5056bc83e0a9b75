package goAccess

import "context"

// Evaluate decides whether principal satisfies requirement. It is a
// pure function of its inputs: no I/O, no mutation, identical inputs
// yield identical decisions.
//
// The role gate and the permission gate are independent; when a
// requirement carries both, both must pass. A nil or unauthenticated
// principal short-circuits to DenialUnauthenticated before any gate
// runs. A malformed requirement returns ErrRequirementInvalid — that is
// a caller bug, not a denial.
func (e *Engine) Evaluate(ctx context.Context, principal *Principal, requirement AccessRequirement) (Decision, error) {
	if err := requirement.Validate(); err != nil {
		return Decision{}, err
	}

	decision := evaluate(principal, requirement)

	if decision.Allowed {
		e.metricInc(MetricEvaluateAllowed)
	} else {
		e.metricInc(MetricEvaluateDenied)
		pid := ""
		if principal != nil {
			pid = principal.ID
		}
		reason := decision.Reason
		e.emitAudit(ctx, auditEventAccessDenied, false, pid, nil, func() map[string]string {
			return map[string]string{
				"reason":          reason.String(),
				"role_mode":       requirement.RoleMode.String(),
				"permission_mode": requirement.PermissionMode.String(),
			}
		})
	}

	return decision, nil
}

// EvaluateRequirement is the audit-free form of [Engine.Evaluate] for
// callers that have no engine, e.g. table-driven policy tests.
func EvaluateRequirement(principal *Principal, requirement AccessRequirement) (Decision, error) {
	if err := requirement.Validate(); err != nil {
		return Decision{}, err
	}
	return evaluate(principal, requirement), nil
}

func evaluate(principal *Principal, requirement AccessRequirement) Decision {
	if principal == nil || principal.ID == "" {
		return Decision{Allowed: false, Reason: DenialUnauthenticated}
	}

	if len(requirement.RequiredRoles) > 0 {
		var ok bool
		if requirement.RoleMode == CombineAll {
			ok = principal.HasAllRoles(requirement.RequiredRoles...)
		} else {
			ok = principal.HasAnyRole(requirement.RequiredRoles...)
		}
		if !ok {
			return Decision{Allowed: false, Reason: DenialMissingRole}
		}
	}

	if len(requirement.RequiredPermissions) > 0 {
		var ok bool
		if requirement.PermissionMode == CombineAll {
			ok = principal.HasAllPermissions(requirement.RequiredPermissions...)
		} else {
			ok = principal.HasAnyPermission(requirement.RequiredPermissions...)
		}
		if !ok {
			return Decision{Allowed: false, Reason: DenialMissingPermission}
		}
	}

	return Decision{Allowed: true, Reason: DenialNone}
}
