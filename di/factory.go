package di

import (
	"fmt"
	"reflect"

	"github.com/kbukum/injectkit/errors"
)

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// factoryFunc is the FACTORY entry variant. Accepted shapes:
//
//	func() T
//	func() (T, error)
//	func(K) T
//	func(K) (T, error)
//
// where K can receive a value of the entry's key type.
type factoryFunc struct {
	fn      reflect.Value
	arity   int
	withErr bool
}

func isFunc(v any) bool {
	return v != nil && reflect.TypeOf(v).Kind() == reflect.Func
}

// newFactoryFunc validates fn against key. The arity check comes first so a
// func with too many parameters always reports ARITY.
func newFactoryFunc(key Key, fn any) (*factoryFunc, error) {
	fv := reflect.ValueOf(fn)
	ft := fv.Type()

	if ft.NumIn() > 1 {
		return nil, errors.Arity(key.String(), ft.NumIn())
	}
	if ft.NumIn() == 1 && !key.typ.AssignableTo(ft.In(0)) {
		return nil, errors.InvalidFactory(key.String(),
			fmt.Sprintf("parameter of type %s cannot receive %s", ft.In(0), key))
	}

	withErr := false
	switch {
	case ft.NumOut() == 1:
	case ft.NumOut() == 2 && ft.Out(1) == errorType:
		withErr = true
	default:
		return nil, errors.InvalidFactory(key.String(), "must return (T) or (T, error)")
	}

	out := ft.Out(0)
	if out.Kind() != reflect.Interface && !out.AssignableTo(key.typ) {
		return nil, errors.InvalidFactory(key.String(),
			fmt.Sprintf("result of type %s is not assignable to %s", out, key))
	}

	return &factoryFunc{fn: fv, arity: ft.NumIn(), withErr: withErr}, nil
}

func (f *factoryFunc) produce(r *Registry, res *resolution, key Key) (any, error) {
	var args []reflect.Value
	if f.arity == 1 {
		instance, err := r.instantiate(res, key, nil)
		if err != nil {
			return nil, err
		}
		args = []reflect.Value{reflect.ValueOf(instance)}
	}

	results, err := f.call(key, args)
	if err != nil {
		return nil, err
	}
	if f.withErr && !results[1].IsNil() {
		return nil, constructionFailure(key, "factory failed", results[1].Interface().(error))
	}

	out := results[0]
	if out.Kind() == reflect.Interface && out.IsNil() {
		return nil, errors.Construction(key.String(), "factory returned nil")
	}
	v := out.Interface()
	if !reflect.TypeOf(v).AssignableTo(key.typ) {
		return nil, errors.TypeMismatch(key.String(), reflect.TypeOf(v).String())
	}
	return v, nil
}

func (f *factoryFunc) call(key Key, args []reflect.Value) (results []reflect.Value, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = errors.Construction(key.String(), fmt.Sprintf("factory panicked: %v", rec))
		}
	}()
	return f.fn.Call(args), nil
}

func (f *factoryFunc) held() (any, bool) { return nil, false }
