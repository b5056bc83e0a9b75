package goAccess

import (
	"context"
	"time"
)

// Engine is the authorization decision engine. It evaluates access
// requirements against principal snapshots, applies the role-based
// step-up policy, and drives the login-time two-factor challenge flow.
//
// Engines are built once through [Builder.Build] and are safe for
// concurrent use: Evaluate and the step-up checks are pure functions
// over immutable snapshots, and the challenge stores serialize through
// Redis.
type Engine struct {
	config         Config
	catalog        *PermissionCatalog
	identity       IdentityProvider
	challengeStore *challengeStore
	totp           *totpManager
	tokens         *tokenManager
	audit          *auditDispatcher
	metrics        *Metrics
}

// Catalog returns the engine's permission catalog.
func (e *Engine) Catalog() *PermissionCatalog {
	if e == nil {
		return nil
	}
	return e.catalog
}

// Close flushes and stops the audit dispatcher.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped returns the number of audit events dropped because the
// buffer was full.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot returns the current counter values.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{Counters: map[MetricID]uint64{}}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	principalID string,
	err error,
	metadataBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := AuditEvent{
		Timestamp:   time.Now().UTC(),
		EventType:   eventType,
		PrincipalID: principalID,
		Route:       routeFromContext(ctx),
		IP:          clientIPFromContext(ctx),
		Success:     success,
		Metadata:    metadata,
	}
	if err != nil {
		event.Error = err.Error()
	}

	e.audit.Emit(ctx, event)
}
