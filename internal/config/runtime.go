package config

import "sync/atomic"

// Runtime provides atomic access to a resolved config for hot-reload
// support. Reads are lock-free: an in-flight consumer keeps the config it
// loaded while later consumers observe the swapped-in tree.
type Runtime struct {
	ptr atomic.Pointer[Config]
}

// NewRuntime creates a Runtime holding the given initial config.
func NewRuntime(initial *Config) *Runtime {
	r := &Runtime{}
	r.ptr.Store(initial)
	return r
}

// Get returns the current config atomically.
func (r *Runtime) Get() *Config {
	return r.ptr.Load()
}

// Store atomically replaces the config. Called by the watcher when the
// experiment file changes; readers see either the old tree or the new one,
// never a partial state.
func (r *Runtime) Store(cfg *Config) {
	r.ptr.Store(cfg)
}

var _ RuntimeConfig = (*Runtime)(nil)
