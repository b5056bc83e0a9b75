package goAccess

import (
	"errors"
	"time"
)

// Config carries all engine tunables. Populate it once before Build;
// the engine treats it as immutable afterwards.
type Config struct {
	Token     TokenConfig
	Challenge ChallengeConfig
	TOTP      TOTPConfig
	Recovery  RecoveryConfig
	StepUp    StepUpConfig
	Audit     AuditConfig
	Metrics   MetricsConfig
}

/*
====================================
TOKEN CONFIG
====================================
*/

// TokenConfig configures the session tokens minted when a two-factor
// challenge completes.
type TokenConfig struct {
	TTL           time.Duration
	SigningMethod string // "ed25519" (default), "hs256" optional
	PrivateKey    []byte
	PublicKey     []byte
	Issuer        string
}

/*
====================================
CHALLENGE CONFIG
====================================
*/

// ChallengeConfig bounds the login-time two-factor challenge window.
type ChallengeConfig struct {
	// TTL is the challenge lifetime. Expiry is equivalent to never
	// having passed primary authentication.
	TTL time.Duration
	// MaxAttempts is the failed-submission budget before the challenge
	// is destroyed.
	MaxAttempts int
	// RedisPrefix namespaces challenge keys.
	RedisPrefix string
}

/*
====================================
TOTP CONFIG
====================================
*/

// TOTPConfig configures time-based code verification.
type TOTPConfig struct {
	Issuer    string
	Digits    int
	Period    int
	Algorithm string // "SHA1" (default), "SHA256", "SHA512"
	Skew      int    // accepted time-step drift in either direction
}

/*
====================================
RECOVERY CODE CONFIG
====================================
*/

// RecoveryConfig configures single-use recovery code generation.
type RecoveryConfig struct {
	CodeCount  int
	CodeLength int
}

/*
====================================
STEP-UP CONFIG
====================================
*/

// StepUpConfig configures role-based two-factor enforcement.
//
// Enforce gates whether EnforceStepUp outcomes should be honored by the
// request pipeline. It defaults to off: the policy is fully evaluated
// and testable either way, and middleware consults this switch rather
// than hiding a disabled code path.
type StepUpConfig struct {
	Enforce bool

	// RequiredRoles mandate a confirmed secret before authorization is
	// honored.
	RequiredRoles []string
	// RecommendedRoles receive a setup suggestion but no enforcement.
	RecommendedRoles []string

	// SetupRoute is the canonical redirect target for the two-factor
	// setup flow.
	SetupRoute string
	// ExemptRoutes are route IDs never subjected to enforcement, to
	// avoid redirect loops out of the setup flow itself.
	ExemptRoutes []string
	// ExemptPrefixes extends the exemption to route ID prefixes.
	ExemptPrefixes []string
}

/*
====================================
AUDIT CONFIG
====================================
*/

// AuditConfig configures the async audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

/*
====================================
METRICS CONFIG
====================================
*/

// MetricsConfig configures the in-process counters.
type MetricsConfig struct {
	Enabled bool
}

func defaultConfig() Config {
	return Config{
		Token: TokenConfig{
			TTL:           12 * time.Hour,
			SigningMethod: "ed25519",
			Issuer:        "goAccess",
		},
		Challenge: ChallengeConfig{
			TTL:         5 * time.Minute,
			MaxAttempts: 5,
			RedisPrefix: "a2c",
		},
		TOTP: TOTPConfig{
			Issuer:    "goAccess",
			Digits:    6,
			Period:    30,
			Algorithm: "SHA1",
			Skew:      1,
		},
		Recovery: RecoveryConfig{
			CodeCount:  8,
			CodeLength: 10,
		},
		StepUp: StepUpConfig{
			Enforce:          false,
			RequiredRoles:    []string{"Super Admin", "Admin"},
			RecommendedRoles: []string{"Editor"},
			SetupRoute:       "two-factor.show",
			ExemptRoutes: []string{
				"two-factor.show",
				"two-factor.enable",
				"two-factor.disable",
				"two-factor.qr-code",
				"two-factor.recovery-codes",
				"two-factor.new-recovery-codes",
				"two-factor.confirm",
				"password.confirm",
				"logout",
			},
			ExemptPrefixes: []string{"user/two-factor-authentication"},
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: false,
		},
	}
}

func validateConfig(cfg Config) error {
	if cfg.Challenge.TTL <= 0 {
		return errors.New("challenge TTL must be positive")
	}
	if cfg.Challenge.TTL > time.Hour {
		return errors.New("challenge TTL exceeds the login-attempt window")
	}
	if cfg.Challenge.MaxAttempts < 1 {
		return errors.New("challenge MaxAttempts must be at least 1")
	}
	if cfg.TOTP.Digits < 6 || cfg.TOTP.Digits > 10 {
		return errors.New("totp digits must be between 6 and 10")
	}
	if cfg.TOTP.Period <= 0 {
		return errors.New("totp period must be positive")
	}
	if cfg.TOTP.Skew < 0 || cfg.TOTP.Skew > 4 {
		return errors.New("totp skew must be between 0 and 4")
	}
	switch cfg.TOTP.Algorithm {
	case "SHA1", "SHA256", "SHA512":
	default:
		return errors.New("unsupported totp algorithm")
	}
	if cfg.Recovery.CodeCount < 1 || cfg.Recovery.CodeCount > 32 {
		return errors.New("recovery code count out of range")
	}
	if cfg.Recovery.CodeLength < 8 || cfg.Recovery.CodeLength > 32 {
		return errors.New("recovery code length out of range")
	}
	if cfg.Token.TTL <= 0 {
		return errors.New("token TTL must be positive")
	}
	switch cfg.Token.SigningMethod {
	case "ed25519", "hs256":
	default:
		return errors.New("unsupported token signing method")
	}
	if cfg.StepUp.Enforce && cfg.StepUp.SetupRoute == "" {
		return errors.New("step-up enforcement requires a setup route")
	}
	if cfg.Audit.Enabled && cfg.Audit.BufferSize < 1 {
		return errors.New("audit buffer size must be at least 1")
	}
	return nil
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Token.PrivateKey = append([]byte(nil), cfg.Token.PrivateKey...)
	out.Token.PublicKey = append([]byte(nil), cfg.Token.PublicKey...)
	out.StepUp.RequiredRoles = append([]string(nil), cfg.StepUp.RequiredRoles...)
	out.StepUp.RecommendedRoles = append([]string(nil), cfg.StepUp.RecommendedRoles...)
	out.StepUp.ExemptRoutes = append([]string(nil), cfg.StepUp.ExemptRoutes...)
	out.StepUp.ExemptPrefixes = append([]string(nil), cfg.StepUp.ExemptPrefixes...)
	return out
}
