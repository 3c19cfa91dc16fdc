package dyn

import "sync"

// ProgramCache stores compiled expression programs keyed by expression strings.
type ProgramCache interface {
	Get(key string) (any, bool)
	Set(key string, value any)
}

// WithProgramCache registers a program cache on the Env.
func WithProgramCache(cache ProgramCache) EnvOption {
	return func(cfg *envConfig) {
		cfg.programCache = cache
	}
}

// MapCache is a ProgramCache backed by a sync.Map, suitable for workloads
// with a bounded expression set.
type MapCache struct {
	entries sync.Map
}

// Get returns the cached program for key.
func (c *MapCache) Get(key string) (any, bool) {
	return c.entries.Load(key)
}

// Set stores value under key.
func (c *MapCache) Set(key string, value any) {
	c.entries.Store(key, value)
}
