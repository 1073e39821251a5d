package di

import (
	"reflect"
)

// Key identifies a constructible type. Two keys are equal when they wrap the
// same type, so a Key can be used directly as a map key.
type Key struct {
	typ reflect.Type
}

// KeyOf returns the key for T. Interface types are supported:
//
//	di.KeyOf[io.Writer]()
func KeyOf[T any]() Key {
	return Key{typ: reflect.TypeOf((*T)(nil)).Elem()}
}

// KeyFor returns the key for the dynamic type of v. A nil v yields the zero Key.
func KeyFor(v any) Key {
	return Key{typ: reflect.TypeOf(v)}
}

// KeyForType wraps an existing reflect.Type.
func KeyForType(t reflect.Type) Key {
	return Key{typ: t}
}

// Type returns the wrapped type.
func (k Key) Type() reflect.Type { return k.typ }

// IsZero reports whether k wraps no type.
func (k Key) IsZero() bool { return k.typ == nil }

func (k Key) String() string {
	if k.typ == nil {
		return "<nil>"
	}
	return k.typ.String()
}
