package goAccess

import (
	"crypto/ed25519"
	"crypto/rand"
	"testing"
	"time"
)

func newTestTokenManager(t *testing.T, mutate func(*TokenConfig)) *tokenManager {
	t.Helper()

	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("keygen failed: %v", err)
	}

	cfg := TokenConfig{
		TTL:           time.Hour,
		SigningMethod: "ed25519",
		PrivateKey:    priv,
		PublicKey:     pub,
		Issuer:        "goAccess",
	}
	if mutate != nil {
		mutate(&cfg)
	}

	tm, err := newTokenManager(cfg)
	if err != nil {
		t.Fatalf("token manager init failed: %v", err)
	}
	return tm
}

func TestTokenMintParseRoundTrip(t *testing.T) {
	tm := newTestTokenManager(t, nil)

	principal := &Principal{
		ID:                     "u1",
		Roles:                  []string{"Admin"},
		Permissions:            []string{"manage settings", "view users"},
		TwoFactorSecretPresent: true,
		TwoFactorConfirmed:     true,
	}

	token, err := tm.Mint(principal)
	if err != nil {
		t.Fatalf("mint failed: %v", err)
	}

	parsed, err := tm.Parse(token)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if parsed.ID != "u1" {
		t.Fatalf("unexpected subject: %q", parsed.ID)
	}
	if len(parsed.Roles) != 1 || parsed.Roles[0] != "Admin" {
		t.Fatalf("roles lost in transit: %v", parsed.Roles)
	}
	if len(parsed.Permissions) != 2 {
		t.Fatalf("permissions lost in transit: %v", parsed.Permissions)
	}
	if !parsed.TwoFactorSecretPresent || !parsed.TwoFactorConfirmed {
		t.Fatalf("two-factor state lost in transit: %+v", parsed)
	}
}

func TestTokenTwoFactorStates(t *testing.T) {
	tm := newTestTokenManager(t, nil)

	cases := []struct {
		name      string
		principal *Principal
		present   bool
		confirmed bool
	}{
		{"none", &Principal{ID: "u1"}, false, false},
		{"present", &Principal{ID: "u1", TwoFactorSecretPresent: true}, true, false},
		{"confirmed", &Principal{ID: "u1", TwoFactorSecretPresent: true, TwoFactorConfirmed: true}, true, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			token, err := tm.Mint(tc.principal)
			if err != nil {
				t.Fatalf("mint failed: %v", err)
			}
			parsed, err := tm.Parse(token)
			if err != nil {
				t.Fatalf("parse failed: %v", err)
			}
			if parsed.TwoFactorSecretPresent != tc.present || parsed.TwoFactorConfirmed != tc.confirmed {
				t.Fatalf("got present=%v confirmed=%v", parsed.TwoFactorSecretPresent, parsed.TwoFactorConfirmed)
			}
		})
	}
}

func TestTokenRejectsWrongKey(t *testing.T) {
	tm := newTestTokenManager(t, nil)
	other := newTestTokenManager(t, nil)

	token, err := tm.Mint(&Principal{ID: "u1"})
	if err != nil {
		t.Fatalf("mint failed: %v", err)
	}
	if _, err := other.Parse(token); err == nil {
		t.Fatalf("token signed with a different key must be rejected")
	}
}

func TestTokenRejectsExpired(t *testing.T) {
	tm := newTestTokenManager(t, func(c *TokenConfig) { c.TTL = time.Nanosecond })

	token, err := tm.Mint(&Principal{ID: "u1"})
	if err != nil {
		t.Fatalf("mint failed: %v", err)
	}
	time.Sleep(10 * time.Millisecond)
	if _, err := tm.Parse(token); err == nil {
		t.Fatalf("expired token must be rejected")
	}
}

func TestTokenRejectsWrongIssuer(t *testing.T) {
	tm := newTestTokenManager(t, func(c *TokenConfig) { c.Issuer = "someone-else" })
	verifier := newTestTokenManager(t, func(c *TokenConfig) {
		c.PrivateKey = tm.config.PrivateKey
		c.PublicKey = tm.config.PublicKey
	})

	token, err := tm.Mint(&Principal{ID: "u1"})
	if err != nil {
		t.Fatalf("mint failed: %v", err)
	}
	if _, err := verifier.Parse(token); err == nil {
		t.Fatalf("token with a foreign issuer must be rejected")
	}
}

func TestTokenHS256(t *testing.T) {
	tm, err := newTokenManager(TokenConfig{
		TTL:           time.Hour,
		SigningMethod: "hs256",
		PrivateKey:    []byte("0123456789abcdef0123456789abcdef"),
		Issuer:        "goAccess",
	})
	if err != nil {
		t.Fatalf("hs256 manager init failed: %v", err)
	}

	token, err := tm.Mint(&Principal{ID: "u1", Roles: []string{"Editor"}})
	if err != nil {
		t.Fatalf("mint failed: %v", err)
	}
	parsed, err := tm.Parse(token)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if parsed.ID != "u1" {
		t.Fatalf("unexpected subject: %q", parsed.ID)
	}
}
