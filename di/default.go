package di

import "sync"

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
)

// Default returns the process-wide registry, creating it on first use. The
// same handle is returned for the life of the process; Reset clears it but
// never replaces it.
func Default() *Registry {
	defaultOnce.Do(func() {
		defaultRegistry = New()
	})
	return defaultRegistry
}

// Configure applies options to the process-wide registry in place. Call it
// once during startup, before registering anything.
func Configure(opts ...Option) {
	Default().Configure(opts...)
}

// Register stores value for key in the process-wide registry.
func Register(key Key, value any) error { return Default().Register(key, value) }

// Singleton constructs key now and stores it in the process-wide registry.
func Singleton(key Key) error { return Default().Singleton(key) }

// Lazy stores a lazy entry for key in the process-wide registry.
func Lazy(key Key, value any) error { return Default().Lazy(key, value) }

// Resolve returns a value for key from the process-wide registry.
func Resolve(key Key) (any, error) { return Default().Resolve(key) }

// Instantiate constructs key through the process-wide registry.
func Instantiate(key Key, extra map[string]any) (any, error) {
	return Default().Instantiate(key, extra)
}

// Reset empties the process-wide registry.
func Reset() { Default().Reset() }

// Inject is Resolve on the process-wide registry.
func Inject(key Key) (any, error) { return Default().Resolve(key) }

// MustInject resolves T from the process-wide registry and panics on failure.
// It suits package-level wiring where a failure is a startup bug:
//
//	var handler = &Handler{Store: di.MustInject[*Store]()}
func MustInject[T any]() T {
	return MustResolve[T](Default())
}
