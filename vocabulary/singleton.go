package vocabulary

import "sync"

// Global registry instance and initialization guard.
var (
	globalRegistry *Registry
	globalErr      error
	globalOnce     sync.Once
)

// LoadGlobal loads the singleton registry from a file. Initialization is
// single-flight: concurrent first calls construct at most one registry, and
// later calls return the cached instance regardless of path.
func LoadGlobal(path string) (*Registry, error) {
	globalOnce.Do(func() {
		globalRegistry, globalErr = LoadFromFile(path)
	})
	return globalRegistry, globalErr
}

// InitGlobal initializes the global registry with a custom instance.
// Only the first initialization (LoadGlobal or InitGlobal) has any effect.
func InitGlobal(r *Registry) {
	globalOnce.Do(func() {
		globalRegistry = r
	})
}

// Global returns the singleton registry, or nil if it has not been
// initialized yet.
func Global() *Registry {
	return globalRegistry
}

// ResetGlobal resets the global registry for testing purposes.
// This is NOT thread-safe and should only be used in tests.
func ResetGlobal() {
	globalOnce = sync.Once{}
	globalRegistry = nil
	globalErr = nil
}
