package goAccess

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SessionClaims is the signed assertion minted when a two-factor
// challenge completes. It carries the resolved snapshot so the calling
// layer can rebuild a Principal without another identity lookup.
type SessionClaims struct {
	Roles          []string `json:"roles,omitempty"`
	Permissions    []string `json:"perms,omitempty"`
	TwoFactorState string   `json:"tfa,omitempty"` // "none", "present", "confirmed"
	jwt.RegisteredClaims
}

type tokenManager struct {
	config TokenConfig
}

func newTokenManager(cfg TokenConfig) (*tokenManager, error) {
	if cfg.TTL <= 0 {
		return nil, errors.New("invalid token TTL")
	}
	switch cfg.SigningMethod {
	case "hs256":
		if len(cfg.PrivateKey) == 0 {
			return nil, errors.New("hs256 requires private key")
		}
	case "ed25519":
		if len(cfg.PrivateKey) != ed25519.PrivateKeySize {
			return nil, errors.New("ed25519 requires a 64-byte private key")
		}
		if len(cfg.PublicKey) != ed25519.PublicKeySize {
			return nil, errors.New("ed25519 requires a 32-byte public key")
		}
	default:
		return nil, errors.New("unsupported signing method")
	}
	return &tokenManager{config: cfg}, nil
}

func (t *tokenManager) method() jwt.SigningMethod {
	if t.config.SigningMethod == "hs256" {
		return jwt.SigningMethodHS256
	}
	return jwt.SigningMethodEdDSA
}

func (t *tokenManager) signKey() any {
	if t.config.SigningMethod == "hs256" {
		return t.config.PrivateKey
	}
	return ed25519.PrivateKey(t.config.PrivateKey)
}

func (t *tokenManager) verifyKey() any {
	if t.config.SigningMethod == "hs256" {
		return t.config.PrivateKey
	}
	return ed25519.PublicKey(t.config.PublicKey)
}

// Mint signs a session token for the principal.
func (t *tokenManager) Mint(principal *Principal) (string, error) {
	if t == nil {
		return "", ErrEngineNotReady
	}

	tfa := "none"
	switch {
	case principal.TwoFactorConfirmed:
		tfa = "confirmed"
	case principal.TwoFactorSecretPresent:
		tfa = "present"
	}

	now := time.Now()
	claims := SessionClaims{
		Roles:          principal.Roles,
		Permissions:    principal.Permissions,
		TwoFactorState: tfa,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   principal.ID,
			ExpiresAt: jwt.NewNumericDate(now.Add(t.config.TTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    t.config.Issuer,
		},
	}

	return jwt.NewWithClaims(t.method(), claims).SignedString(t.signKey())
}

// Parse validates a session token and rebuilds the principal snapshot
// it asserts.
func (t *tokenManager) Parse(tokenStr string) (*Principal, error) {
	if t == nil {
		return nil, ErrEngineNotReady
	}

	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{t.method().Alg()}),
		jwt.WithIssuer(t.config.Issuer),
		jwt.WithExpirationRequired(),
	}

	parser := jwt.NewParser(options...)
	token, err := parser.ParseWithClaims(tokenStr, &SessionClaims{}, func(tok *jwt.Token) (interface{}, error) {
		if tok.Method.Alg() != t.method().Alg() {
			return nil, fmt.Errorf("unexpected signing algorithm: %s", tok.Method.Alg())
		}
		return t.verifyKey(), nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || claims.Subject == "" {
		return nil, errors.New("malformed session claims")
	}

	return &Principal{
		ID:                     claims.Subject,
		Roles:                  claims.Roles,
		Permissions:            claims.Permissions,
		TwoFactorSecretPresent: claims.TwoFactorState == "present" || claims.TwoFactorState == "confirmed",
		TwoFactorConfirmed:     claims.TwoFactorState == "confirmed",
	}, nil
}

// MintSessionToken signs a session token for a principal whose
// authentication completed outside the challenge flow, e.g. a login
// with no two-factor requirement.
func (e *Engine) MintSessionToken(principal *Principal) (string, error) {
	if e == nil || e.tokens == nil {
		return "", ErrEngineNotReady
	}
	if err := principal.Validate(); err != nil {
		return "", err
	}
	return e.tokens.Mint(principal)
}

// ParseSessionToken validates a session token minted by a completed
// challenge and returns the principal snapshot it asserts.
func (e *Engine) ParseSessionToken(tokenStr string) (*Principal, error) {
	if e == nil || e.tokens == nil {
		return nil, ErrEngineNotReady
	}
	return e.tokens.Parse(tokenStr)
}
