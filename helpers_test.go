package goAccess

import (
	"context"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

// fakeIdentity is an in-memory IdentityProvider for engine tests.
type fakeIdentity struct {
	mu         sync.Mutex
	principals map[string]*Principal
	twoFactor  map[string]*TwoFactorRecord
	recovery   map[string][]RecoveryCodeRecord
}

func newFakeIdentity() *fakeIdentity {
	return &fakeIdentity{
		principals: make(map[string]*Principal),
		twoFactor:  make(map[string]*TwoFactorRecord),
		recovery:   make(map[string][]RecoveryCodeRecord),
	}
}

func (f *fakeIdentity) GetPrincipal(_ context.Context, principalID string) (*Principal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	principal, ok := f.principals[principalID]
	if !ok {
		return nil, ErrPrincipalNotFound
	}
	return principal, nil
}

func (f *fakeIdentity) GetTwoFactor(_ context.Context, principalID string) (*TwoFactorRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	record, ok := f.twoFactor[principalID]
	if !ok {
		return &TwoFactorRecord{}, nil
	}
	return record, nil
}

func (f *fakeIdentity) GetRecoveryCodes(_ context.Context, principalID string) ([]RecoveryCodeRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]RecoveryCodeRecord(nil), f.recovery[principalID]...), nil
}

func (f *fakeIdentity) ConsumeRecoveryCode(_ context.Context, principalID string, used [32]byte, replacement RecoveryCodeRecord) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	records := f.recovery[principalID]
	for i, rec := range records {
		if rec.Hash == used {
			records[i] = replacement
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeIdentity) ReplaceRecoveryCodes(_ context.Context, principalID string, records []RecoveryCodeRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.recovery[principalID] = append([]RecoveryCodeRecord(nil), records...)
	return nil
}

func newTestEngine(t *testing.T, mutate func(*Config), identity IdentityProvider) (*Engine, *miniredis.Miniredis, func()) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	cfg := defaultConfig()
	cfg.Metrics.Enabled = true
	if mutate != nil {
		mutate(&cfg)
	}

	engine, err := New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithIdentityProvider(identity).
		Build()
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}

	return engine, mr, func() {
		engine.Close()
		_ = rdb.Close()
		mr.Close()
	}
}

func editorPrincipal() *Principal {
	return &Principal{
		ID:          "u1",
		Roles:       []string{"Editor"},
		Permissions: []string{"edit pages"},
	}
}
