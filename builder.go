package goAccess

import (
	"crypto/ed25519"
	"crypto/rand"
	"errors"

	"github.com/redis/go-redis/v9"
)

// Builder assembles an [Engine]. Construction is allocation-only; no
// I/O happens until engine methods are called.
type Builder struct {
	config Config
	redis  *redis.Client

	catalog   *PermissionCatalog
	identity  IdentityProvider
	auditSink AuditSink

	built bool
}

// New returns a Builder seeded with the default configuration.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the configuration wholesale.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis sets the Redis client backing the challenge store.
func (b *Builder) WithRedis(client *redis.Client) *Builder {
	b.redis = client
	return b
}

// WithCatalog sets the permission catalog. Defaults to
// [DefaultCatalog] when unset.
func (b *Builder) WithCatalog(catalog *PermissionCatalog) *Builder {
	b.catalog = catalog
	return b
}

// WithIdentityProvider connects the engine to the caller's identity
// storage. Required for the challenge flow; the pure evaluation surface
// works without it.
func (b *Builder) WithIdentityProvider(provider IdentityProvider) *Builder {
	b.identity = provider
	return b
}

// WithAuditSink sets the audit event destination.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// Build validates the configuration and wires the engine. When no token
// keys were configured, an ephemeral ed25519 pair is generated: session
// tokens then survive only as long as the process, which is the right
// default for single-instance deployments.
func (b *Builder) Build() (*Engine, error) {
	if b == nil {
		return nil, ErrEngineNotReady
	}
	if b.built {
		return nil, errors.New("builder already consumed")
	}

	cfg := b.config
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	if b.redis == nil {
		return nil, errors.New("redis client is required")
	}

	if cfg.Token.SigningMethod == "ed25519" && len(cfg.Token.PrivateKey) == 0 {
		pub, priv, err := ed25519.GenerateKey(rand.Reader)
		if err != nil {
			return nil, err
		}
		cfg.Token.PrivateKey = priv
		cfg.Token.PublicKey = pub
	}

	tokens, err := newTokenManager(cfg.Token)
	if err != nil {
		return nil, err
	}

	catalog := b.catalog
	if catalog == nil {
		catalog = DefaultCatalog()
	}

	engine := &Engine{
		config:         cfg,
		catalog:        catalog,
		identity:       b.identity,
		challengeStore: newChallengeStore(b.redis, cfg.Challenge.RedisPrefix),
		totp:           newTOTPManager(cfg.TOTP),
		tokens:         tokens,
		audit:          newAuditDispatcher(cfg.Audit, b.auditSink),
		metrics:        NewMetrics(cfg.Metrics),
	}

	b.built = true
	return engine, nil
}
