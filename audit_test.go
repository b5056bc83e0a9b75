package goAccess

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestAuditDispatcherDelivers(t *testing.T) {
	sink := NewChannelSink(16)
	d := newAuditDispatcher(AuditConfig{Enabled: true, BufferSize: 16}, sink)
	defer d.Close()

	d.Emit(context.Background(), AuditEvent{EventType: auditEventChallengeBegun, PrincipalID: "u1", Success: true})

	select {
	case event := <-sink.Events():
		if event.EventType != auditEventChallengeBegun || event.PrincipalID != "u1" {
			t.Fatalf("unexpected event: %+v", event)
		}
	case <-time.After(time.Second):
		t.Fatalf("event never delivered")
	}
}

func TestAuditDispatcherDrainsOnClose(t *testing.T) {
	sink := NewChannelSink(64)
	d := newAuditDispatcher(AuditConfig{Enabled: true, BufferSize: 64}, sink)

	for i := 0; i < 10; i++ {
		d.Emit(context.Background(), AuditEvent{EventType: auditEventAccessDenied})
	}
	d.Close()

	delivered := 0
	for {
		select {
		case <-sink.Events():
			delivered++
		default:
			if delivered != 10 {
				t.Fatalf("expected 10 events after drain, got %d", delivered)
			}
			return
		}
	}
}

func TestAuditDispatcherDropsWhenFull(t *testing.T) {
	// A sink that never consumes; one slot fills, the rest drop.
	blocked := make(chan struct{})
	sink := blockingSink{release: blocked}
	d := newAuditDispatcher(AuditConfig{Enabled: true, BufferSize: 1, DropIfFull: true}, sink)
	defer func() {
		close(blocked)
		d.Close()
	}()

	for i := 0; i < 50; i++ {
		d.Emit(context.Background(), AuditEvent{EventType: auditEventAccessDenied})
	}

	if d.Dropped() == 0 {
		t.Fatalf("expected dropped events with a full buffer")
	}
}

type blockingSink struct {
	release chan struct{}
}

func (s blockingSink) Emit(_ context.Context, _ AuditEvent) {
	<-s.release
}

func TestAuditDispatcherDisabled(t *testing.T) {
	d := newAuditDispatcher(AuditConfig{Enabled: false}, NoOpSink{})
	if d != nil {
		t.Fatalf("disabled config must yield a nil dispatcher")
	}
	d.Emit(context.Background(), AuditEvent{})
	if d.Dropped() != 0 {
		t.Fatalf("nil dispatcher must report zero drops")
	}
	d.Close()
}

func TestJSONWriterSink(t *testing.T) {
	var buf bytes.Buffer
	sink := NewJSONWriterSink(&buf)

	sink.Emit(context.Background(), AuditEvent{
		Timestamp:   time.Now(),
		EventType:   auditEventChallengeSuccess,
		PrincipalID: "u1",
		Success:     true,
		Metadata:    map[string]string{"method": "totp"},
	})
	sink.Emit(context.Background(), AuditEvent{EventType: auditEventAccessDenied})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 JSON lines, got %d", len(lines))
	}

	var event AuditEvent
	if err := json.Unmarshal([]byte(lines[0]), &event); err != nil {
		t.Fatalf("line is not valid JSON: %v", err)
	}
	if event.EventType != auditEventChallengeSuccess || event.Metadata["method"] != "totp" {
		t.Fatalf("unexpected decoded event: %+v", event)
	}
}

func TestEngineAuditPipeline(t *testing.T) {
	sink := NewChannelSink(16)
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	defer mr.Close()
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	cfg := defaultConfig()
	cfg.Audit.Enabled = true
	cfg.Audit.BufferSize = 16

	engine, err := New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithIdentityProvider(newFakeIdentity()).
		WithAuditSink(sink).
		Build()
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	defer engine.Close()

	ctx := WithClientIP(WithRoute(context.Background(), "pages.edit"), "203.0.113.9")
	if _, err := engine.Evaluate(ctx, nil, RequireAnyRole("Editor")); err != nil {
		t.Fatalf("evaluate failed: %v", err)
	}

	select {
	case event := <-sink.Events():
		if event.EventType != auditEventAccessDenied {
			t.Fatalf("unexpected event type: %q", event.EventType)
		}
		if event.Route != "pages.edit" || event.IP != "203.0.113.9" {
			t.Fatalf("context fields missing: %+v", event)
		}
		if event.Metadata["reason"] != "unauthenticated" {
			t.Fatalf("unexpected metadata: %v", event.Metadata)
		}
	case <-time.After(time.Second):
		t.Fatalf("denial never audited")
	}
}
