package feature

import "sync"

// MemoryConfig is an in-memory ConfigStore for tests and
// single-process deployments.
type MemoryConfig struct {
	mu       sync.RWMutex
	features map[string]bool
	plugins  map[string]bool
}

// NewMemoryConfig returns a store seeded with the given flag maps;
// either may be nil.
func NewMemoryConfig(features, plugins map[string]bool) *MemoryConfig {
	c := &MemoryConfig{
		features: make(map[string]bool, len(features)),
		plugins:  make(map[string]bool, len(plugins)),
	}
	for k, v := range features {
		c.features[k] = v
	}
	for k, v := range plugins {
		c.plugins[k] = v
	}
	return c
}

// Feature implements [ConfigStore].
func (c *MemoryConfig) Feature(name string) (bool, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	enabled, present := c.features[name]
	return enabled, present
}

// Plugin implements [ConfigStore].
func (c *MemoryConfig) Plugin(name string) (bool, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	enabled, present := c.plugins[name]
	return enabled, present
}

// SetFeature implements [ConfigStore].
func (c *MemoryConfig) SetFeature(name string, enabled bool) error {
	c.mu.Lock()
	c.features[name] = enabled
	c.mu.Unlock()
	return nil
}

// SetPlugin implements [ConfigStore].
func (c *MemoryConfig) SetPlugin(name string, enabled bool) error {
	c.mu.Lock()
	c.plugins[name] = enabled
	c.mu.Unlock()
	return nil
}

// Features implements [ConfigStore].
func (c *MemoryConfig) Features() map[string]bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[string]bool, len(c.features))
	for k, v := range c.features {
		out[k] = v
	}
	return out
}

// Plugins implements [ConfigStore].
func (c *MemoryConfig) Plugins() map[string]bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[string]bool, len(c.plugins))
	for k, v := range c.plugins {
		out[k] = v
	}
	return out
}
