// Package feature resolves boolean feature and plugin toggles from an
// injected configuration store, with a one-hour in-process cache.
//
// Keys prefixed "plugin." resolve against the plugin namespace of the
// configuration store; bare keys resolve against the feature namespace.
// The split is load-bearing: "plugin.blog" and "blog" are different
// flags.
package feature

import (
	"sort"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/sirupsen/logrus"
)

const (
	pluginPrefix = "plugin."
	cacheTTL     = time.Hour
	cacheSize    = 1024
)

// ConfigStore is the configuration backend toggles are read from and
// written through. Lookups report presence separately so an absent flag
// resolves to disabled.
type ConfigStore interface {
	Feature(name string) (enabled, present bool)
	Plugin(name string) (enabled, present bool)
	SetFeature(name string, enabled bool) error
	SetPlugin(name string, enabled bool) error
	Features() map[string]bool
	Plugins() map[string]bool
}

// Stats summarizes toggle counts for the admin surface.
type Stats struct {
	FeaturesTotal   int `json:"features_total"`
	FeaturesEnabled int `json:"features_enabled"`
	PluginsTotal    int `json:"plugins_total"`
	PluginsEnabled  int `json:"plugins_enabled"`
}

// Resolver answers boolean toggle queries with a TTL-bounded cache.
// Writes go through the configuration store and evict only the written
// key's cache entry.
type Resolver struct {
	config ConfigStore
	cache  *expirable.LRU[string, bool]
	log    logrus.FieldLogger
}

// NewResolver returns a resolver over config. A nil logger defaults to
// the logrus standard logger.
func NewResolver(config ConfigStore, log logrus.FieldLogger) *Resolver {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Resolver{
		config: config,
		cache:  expirable.NewLRU[string, bool](cacheSize, nil, cacheTTL),
		log:    log,
	}
}

// IsEnabled reports whether the named toggle is on. Unknown keys are
// off.
func (r *Resolver) IsEnabled(key string) bool {
	if cached, ok := r.cache.Get(key); ok {
		return cached
	}

	enabled := r.resolve(key)
	r.cache.Add(key, enabled)
	return enabled
}

func (r *Resolver) resolve(key string) bool {
	if name, ok := strings.CutPrefix(key, pluginPrefix); ok {
		enabled, _ := r.config.Plugin(name)
		return enabled
	}
	enabled, _ := r.config.Feature(key)
	return enabled
}

// Enable turns the named toggle on, writing through the configuration
// store and evicting only that key's cache entry.
func (r *Resolver) Enable(key string) error {
	return r.set(key, true)
}

// Disable turns the named toggle off.
func (r *Resolver) Disable(key string) error {
	return r.set(key, false)
}

func (r *Resolver) set(key string, enabled bool) error {
	var err error
	if name, ok := strings.CutPrefix(key, pluginPrefix); ok {
		err = r.config.SetPlugin(name, enabled)
	} else {
		err = r.config.SetFeature(key, enabled)
	}
	if err != nil {
		return err
	}

	r.cache.Remove(key)
	r.log.WithFields(logrus.Fields{"key": key, "enabled": enabled}).Info("feature toggle updated")
	return nil
}

// EnabledFeatures returns the sorted names of enabled bare features.
func (r *Resolver) EnabledFeatures() []string {
	return enabledKeys(r.config.Features())
}

// EnabledPlugins returns the sorted names of enabled plugins, without
// the "plugin." prefix.
func (r *Resolver) EnabledPlugins() []string {
	return enabledKeys(r.config.Plugins())
}

// Stats returns toggle counts across both namespaces.
func (r *Resolver) Stats() Stats {
	features := r.config.Features()
	plugins := r.config.Plugins()

	s := Stats{
		FeaturesTotal: len(features),
		PluginsTotal:  len(plugins),
	}
	for _, enabled := range features {
		if enabled {
			s.FeaturesEnabled++
		}
	}
	for _, enabled := range plugins {
		if enabled {
			s.PluginsEnabled++
		}
	}
	return s
}

func enabledKeys(flags map[string]bool) []string {
	var out []string
	for name, enabled := range flags {
		if enabled {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}
