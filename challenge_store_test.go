package goAccess

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestChallengeStore(t *testing.T) (*challengeStore, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return newChallengeStore(rdb, "a2c"), mr
}

func TestChallengeRecordCodec(t *testing.T) {
	record := &challengeRecord{
		PrincipalID: "user-42",
		ExpiresAt:   time.Now().Add(5 * time.Minute).Unix(),
		Attempts:    3,
	}

	encoded, err := encodeChallengeRecord(record)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	decoded, err := decodeChallengeRecord(encoded)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	if *decoded != *record {
		t.Fatalf("round trip mismatch: %+v vs %+v", decoded, record)
	}
}

func TestChallengeRecordDecodeRejects(t *testing.T) {
	if _, err := decodeChallengeRecord(nil); err == nil {
		t.Fatalf("expected error on empty payload")
	}
	if _, err := decodeChallengeRecord([]byte{99, 0, 0}); err == nil {
		t.Fatalf("expected error on unknown version")
	}

	record := &challengeRecord{PrincipalID: "u1", ExpiresAt: 1, Attempts: 0}
	encoded, err := encodeChallengeRecord(record)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	if _, err := decodeChallengeRecord(encoded[:len(encoded)-1]); err == nil {
		t.Fatalf("expected error on truncated payload")
	}
}

func TestChallengeStoreSaveGetDelete(t *testing.T) {
	store, _ := newTestChallengeStore(t)
	ctx := context.Background()

	record := &challengeRecord{
		PrincipalID: "u1",
		ExpiresAt:   time.Now().Add(5 * time.Minute).Unix(),
	}
	if err := store.Save(ctx, "c1", record, 5*time.Minute); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	got, err := store.Get(ctx, "c1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.PrincipalID != "u1" || got.Attempts != 0 {
		t.Fatalf("unexpected record: %+v", got)
	}

	deleted, err := store.Delete(ctx, "c1")
	if err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if !deleted {
		t.Fatalf("expected delete to report presence")
	}

	deleted, err = store.Delete(ctx, "c1")
	if err != nil {
		t.Fatalf("second delete failed: %v", err)
	}
	if deleted {
		t.Fatalf("second delete must report absence")
	}

	if _, err := store.Get(ctx, "c1"); !errors.Is(err, ErrChallengeNotFound) {
		t.Fatalf("expected ErrChallengeNotFound, got %v", err)
	}
}

func TestChallengeStoreEmbeddedExpiry(t *testing.T) {
	store, mr := newTestChallengeStore(t)
	ctx := context.Background()

	// Redis TTL lags behind the embedded timestamp; the store must still
	// treat the record as expired.
	record := &challengeRecord{
		PrincipalID: "u1",
		ExpiresAt:   time.Now().Add(-time.Second).Unix(),
	}
	if err := store.Save(ctx, "c1", record, 5*time.Minute); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	if _, err := store.Get(ctx, "c1"); !errors.Is(err, ErrChallengeExpired) {
		t.Fatalf("expected ErrChallengeExpired, got %v", err)
	}
	if mr.Exists("a2c:c1") {
		t.Fatalf("expired record must be deleted on read")
	}
}

func TestChallengeStoreRecordFailure(t *testing.T) {
	store, mr := newTestChallengeStore(t)
	ctx := context.Background()

	record := &challengeRecord{
		PrincipalID: "u1",
		ExpiresAt:   time.Now().Add(5 * time.Minute).Unix(),
	}
	if err := store.Save(ctx, "c1", record, 5*time.Minute); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	for i := 1; i < 5; i++ {
		exceeded, err := store.RecordFailure(ctx, "c1", 5)
		if err != nil {
			t.Fatalf("failure %d errored: %v", i, err)
		}
		if exceeded {
			t.Fatalf("budget exhausted early at attempt %d", i)
		}
	}

	got, err := store.Get(ctx, "c1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.Attempts != 4 {
		t.Fatalf("expected 4 recorded attempts, got %d", got.Attempts)
	}

	exceeded, err := store.RecordFailure(ctx, "c1", 5)
	if err != nil {
		t.Fatalf("final failure errored: %v", err)
	}
	if !exceeded {
		t.Fatalf("expected budget exhaustion on attempt 5")
	}
	if mr.Exists("a2c:c1") {
		t.Fatalf("exhausted challenge must be destroyed")
	}

	if _, err := store.RecordFailure(ctx, "c1", 5); !errors.Is(err, ErrChallengeNotFound) {
		t.Fatalf("expected ErrChallengeNotFound after destruction, got %v", err)
	}
}

func TestChallengeStoreRecordFailureExpired(t *testing.T) {
	store, mr := newTestChallengeStore(t)
	ctx := context.Background()

	record := &challengeRecord{
		PrincipalID: "u1",
		ExpiresAt:   time.Now().Add(-time.Second).Unix(),
	}
	if err := store.Save(ctx, "c1", record, 5*time.Minute); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	if _, err := store.RecordFailure(ctx, "c1", 5); !errors.Is(err, ErrChallengeExpired) {
		t.Fatalf("expected ErrChallengeExpired, got %v", err)
	}
	if mr.Exists("a2c:c1") {
		t.Fatalf("expired record must be deleted")
	}
}
