package goAccess

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// envOverrides mirrors the Config knobs that deployments commonly set
// through the environment. Key material stays out of it; keys are wired
// programmatically through the Builder.
type envOverrides struct {
	TokenTTL        time.Duration `envconfig:"TOKEN_TTL"`
	TokenIssuer     string        `envconfig:"TOKEN_ISSUER"`
	ChallengeTTL    time.Duration `envconfig:"CHALLENGE_TTL"`
	ChallengeMax    int           `envconfig:"CHALLENGE_MAX_ATTEMPTS"`
	TOTPIssuer      string        `envconfig:"TOTP_ISSUER"`
	TOTPDigits      int           `envconfig:"TOTP_DIGITS"`
	TOTPPeriod      int           `envconfig:"TOTP_PERIOD"`
	TOTPSkew        int           `envconfig:"TOTP_SKEW"`
	StepUpEnforce   bool          `envconfig:"STEPUP_ENFORCE"`
	StepUpSetup     string        `envconfig:"STEPUP_SETUP_ROUTE"`
	AuditEnabled    bool          `envconfig:"AUDIT_ENABLED"`
	AuditBufferSize int           `envconfig:"AUDIT_BUFFER_SIZE"`
	MetricsEnabled  bool          `envconfig:"METRICS_ENABLED"`
}

// ConfigFromEnv returns the default configuration with overrides read
// from GOACCESS_-prefixed environment variables, e.g.
// GOACCESS_CHALLENGE_TTL=10m or GOACCESS_STEPUP_ENFORCE=true.
func ConfigFromEnv() (Config, error) {
	cfg := defaultConfig()

	var env envOverrides
	if err := envconfig.Process("goaccess", &env); err != nil {
		return Config{}, err
	}

	if env.TokenTTL > 0 {
		cfg.Token.TTL = env.TokenTTL
	}
	if env.TokenIssuer != "" {
		cfg.Token.Issuer = env.TokenIssuer
	}
	if env.ChallengeTTL > 0 {
		cfg.Challenge.TTL = env.ChallengeTTL
	}
	if env.ChallengeMax > 0 {
		cfg.Challenge.MaxAttempts = env.ChallengeMax
	}
	if env.TOTPIssuer != "" {
		cfg.TOTP.Issuer = env.TOTPIssuer
	}
	if env.TOTPDigits > 0 {
		cfg.TOTP.Digits = env.TOTPDigits
	}
	if env.TOTPPeriod > 0 {
		cfg.TOTP.Period = env.TOTPPeriod
	}
	if env.TOTPSkew > 0 {
		cfg.TOTP.Skew = env.TOTPSkew
	}
	if env.StepUpEnforce {
		cfg.StepUp.Enforce = true
	}
	if env.StepUpSetup != "" {
		cfg.StepUp.SetupRoute = env.StepUpSetup
	}
	if env.AuditEnabled {
		cfg.Audit.Enabled = true
	}
	if env.AuditBufferSize > 0 {
		cfg.Audit.BufferSize = env.AuditBufferSize
	}
	if env.MetricsEnabled {
		cfg.Metrics.Enabled = true
	}

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
