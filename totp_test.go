package goAccess

import (
	"strings"
	"testing"
	"time"
)

func TestTOTPVerifyRFCVectorsSHA1(t *testing.T) {
	m := newTOTPManager(TOTPConfig{
		Issuer:    "goAccess",
		Digits:    8,
		Period:    30,
		Algorithm: "SHA1",
		Skew:      0,
	})
	secret := []byte("12345678901234567890")
	cases := []struct {
		ts   int64
		code string
	}{
		{59, "94287082"},
		{1111111109, "07081804"},
		{1111111111, "14050471"},
		{1234567890, "89005924"},
		{2000000000, "69279037"},
		{20000000000, "65353130"},
	}

	for _, tc := range cases {
		ok, err := m.VerifyCode(secret, tc.code, time.Unix(tc.ts, 0))
		if err != nil || !ok {
			t.Fatalf("SHA1 vector failed at t=%d, ok=%v err=%v", tc.ts, ok, err)
		}
	}
}

func TestTOTPVerifyRFCVectorsSHA256(t *testing.T) {
	m := newTOTPManager(TOTPConfig{
		Issuer:    "goAccess",
		Digits:    8,
		Period:    30,
		Algorithm: "SHA256",
		Skew:      0,
	})
	secret := []byte("12345678901234567890123456789012")
	cases := []struct {
		ts   int64
		code string
	}{
		{59, "46119246"},
		{1111111109, "68084774"},
		{1111111111, "67062674"},
		{1234567890, "91819424"},
		{2000000000, "90698825"},
		{20000000000, "77737706"},
	}

	for _, tc := range cases {
		ok, err := m.VerifyCode(secret, tc.code, time.Unix(tc.ts, 0))
		if err != nil || !ok {
			t.Fatalf("SHA256 vector failed at t=%d, ok=%v err=%v", tc.ts, ok, err)
		}
	}
}

func TestTOTPVerifySkewAcceptsAdjacentStep(t *testing.T) {
	cfg := TOTPConfig{Issuer: "goAccess", Digits: 6, Period: 30, Algorithm: "SHA1", Skew: 1}
	m := newTOTPManager(cfg)
	secret := []byte("12345678901234567890")

	now := time.Unix(1111111109, 0)
	previous := now.Unix()/int64(cfg.Period) - 1
	code, err := hotpCode(secret, previous, cfg.Digits, cfg.Algorithm)
	if err != nil {
		t.Fatalf("hotpCode failed: %v", err)
	}

	ok, err := m.VerifyCode(secret, code, now)
	if err != nil || !ok {
		t.Fatalf("expected previous-step code accepted with skew 1, ok=%v err=%v", ok, err)
	}

	strict := newTOTPManager(TOTPConfig{Issuer: "goAccess", Digits: 6, Period: 30, Algorithm: "SHA1", Skew: 0})
	ok, err = strict.VerifyCode(secret, code, now)
	if err != nil {
		t.Fatalf("VerifyCode failed: %v", err)
	}
	if ok {
		t.Fatal("expected previous-step code rejected with skew 0")
	}
}

func TestTOTPVerifyRejectsMalformedCodes(t *testing.T) {
	m := newTOTPManager(TOTPConfig{Issuer: "goAccess", Digits: 6, Period: 30, Algorithm: "SHA1", Skew: 1})
	secret := []byte("12345678901234567890")

	for _, code := range []string{"", "12345", "1234567", "12a456", "      "} {
		ok, err := m.VerifyCode(secret, code, time.Now())
		if err != nil {
			t.Fatalf("VerifyCode(%q) failed: %v", code, err)
		}
		if ok {
			t.Fatalf("expected %q rejected", code)
		}
	}
}

func TestTOTPProvisionURI(t *testing.T) {
	m := newTOTPManager(TOTPConfig{Issuer: "goAccess", Digits: 6, Period: 30, Algorithm: "SHA1", Skew: 1})

	_, encoded, err := m.GenerateSecret()
	if err != nil {
		t.Fatalf("GenerateSecret failed: %v", err)
	}

	uri := m.ProvisionURI(encoded, "alice@example.com")
	if !strings.HasPrefix(uri, "otpauth://totp/") {
		t.Fatalf("expected otpauth uri, got %s", uri)
	}
	if !strings.Contains(uri, "secret="+encoded) {
		t.Fatalf("expected secret in uri, got %s", uri)
	}
}

func TestEngineProvisionTwoFactor(t *testing.T) {
	engine, _, cleanup := newTestEngine(t, nil, newFakeIdentity())
	defer cleanup()

	provision, err := engine.ProvisionTwoFactor("alice@example.com")
	if err != nil {
		t.Fatalf("provision failed: %v", err)
	}
	if len(provision.Secret) != totpSecretBytes {
		t.Fatalf("unexpected secret length: %d", len(provision.Secret))
	}
	if provision.SecretBase32 == "" || !strings.Contains(provision.ProvisionURI, provision.SecretBase32) {
		t.Fatalf("provision uri does not carry the secret: %+v", provision)
	}

	// Codes generated from the provisioned secret verify immediately.
	code, err := hotpCode(provision.Secret, time.Now().Unix()/30, 6, "SHA1")
	if err != nil {
		t.Fatalf("hotpCode failed: %v", err)
	}
	ok, err := engine.totp.VerifyCode(provision.Secret, code, time.Now())
	if err != nil || !ok {
		t.Fatalf("provisioned secret did not verify, ok=%v err=%v", ok, err)
	}
}
