package di

import (
	"fmt"
	"reflect"

	"github.com/kbukum/injectkit/errors"
)

// ResolveAs resolves KeyOf[T] and returns the value typed.
//
// Example:
//
//	car, err := di.ResolveAs[*Car](reg)
//	if err != nil {
//	    return fmt.Errorf("resolve car: %w", err)
//	}
func ResolveAs[T any](r *Registry) (T, error) {
	v, err := r.Resolve(KeyOf[T]())
	if err != nil {
		var zero T
		return zero, err
	}
	return cast[T](v)
}

// InstantiateAs constructs a fresh T with explicit parameters.
func InstantiateAs[T any](r *Registry, extra map[string]any) (T, error) {
	v, err := r.Instantiate(KeyOf[T](), extra)
	if err != nil {
		var zero T
		return zero, err
	}
	return cast[T](v)
}

// MustResolve resolves T and panics on error.
func MustResolve[T any](r *Registry) T {
	v, err := ResolveAs[T](r)
	if err != nil {
		panic(fmt.Sprintf("di: failed to resolve %s: %v", KeyOf[T](), err))
	}
	return v
}

// TryResolve resolves T, returning false instead of an error.
// Use this when a dependency is optional.
func TryResolve[T any](r *Registry) (T, bool) {
	v, err := ResolveAs[T](r)
	if err != nil {
		return v, false
	}
	return v, true
}

func cast[T any](v any) (T, error) {
	var zero T
	if v == nil {
		return zero, nil
	}
	result, ok := v.(T)
	if !ok {
		return zero, errors.TypeMismatch(KeyOf[T]().String(), reflect.TypeOf(v).String())
	}
	return result, nil
}
