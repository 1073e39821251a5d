package di

import (
	"context"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strings"

	"github.com/kbukum/injectkit/errors"
)

// DefaultFieldTag is the struct tag read for constructor parameter options.
const DefaultFieldTag = "inject"

// Initializer is implemented by types that need to run code once their
// fields are populated. Init plays the role of a constructor body: an error
// or panic fails the construction.
type Initializer interface {
	Init() error
}

// resolution is the state of one top-level Resolve/Instantiate call.
type resolution struct {
	ctx   context.Context
	stack []Key
}

func newResolution() *resolution {
	return &resolution{ctx: context.Background()}
}

// push marks key as under construction, failing if it already is.
func (res *resolution) push(key Key) error {
	for i, k := range res.stack {
		if k == key {
			path := make([]string, 0, len(res.stack)-i+1)
			for _, p := range res.stack[i:] {
				path = append(path, p.String())
			}
			return errors.Cycle(append(path, key.String()))
		}
	}
	res.stack = append(res.stack, key)
	return nil
}

func (res *resolution) pop() {
	res.stack = res.stack[:len(res.stack)-1]
}

// param is one constructor parameter: an exported, settable struct field.
type param struct {
	name     string
	index    int
	typ      reflect.Type
	required bool
}

// plan is the cached constructor description of a struct type.
type plan struct {
	structType reflect.Type
	pointer    bool
	params     []param
	byName     map[string]int
}

func buildPlan(key Key, tag string) (*plan, error) {
	t := key.typ
	p := &plan{byName: make(map[string]int)}

	switch {
	case t.Kind() == reflect.Struct:
		p.structType = t
	case t.Kind() == reflect.Pointer && t.Elem().Kind() == reflect.Struct:
		p.structType = t.Elem()
		p.pointer = true
	default:
		return nil, errors.NotConstructible(key.String(), t.Kind().String())
	}

	for i := 0; i < p.structType.NumField(); i++ {
		f := p.structType.Field(i)
		if !f.IsExported() {
			continue
		}
		name, opts := parseTag(f.Tag.Get(tag))
		if name == "-" {
			continue
		}
		if name == "" {
			name = f.Name
		}
		if _, dup := p.byName[name]; dup {
			return nil, errors.Construction(key.String(), fmt.Sprintf("duplicate parameter name %q", name))
		}
		p.byName[name] = len(p.params)
		p.params = append(p.params, param{
			name:     name,
			index:    i,
			typ:      f.Type,
			required: opts["required"],
		})
	}
	return p, nil
}

func parseTag(tag string) (string, map[string]bool) {
	parts := strings.Split(tag, ",")
	opts := make(map[string]bool, len(parts)-1)
	for _, o := range parts[1:] {
		opts[strings.TrimSpace(o)] = true
	}
	return strings.TrimSpace(parts[0]), opts
}

// instantiate is the auto-wiring algorithm. Parameters whose type is a
// registered key are resolved first; extra is applied afterwards and wins.
func (r *Registry) instantiate(res *resolution, key Key, extra map[string]any) (result any, err error) {
	ctx, end := r.instrumentFor().Start(res.ctx, OpInstantiate, key)
	parent := res.ctx
	res.ctx = ctx
	defer func() {
		res.ctx = parent
		end(err)
	}()

	if key.IsZero() {
		return nil, errors.Validation("di: cannot construct the zero key")
	}
	if err := res.push(key); err != nil {
		return nil, err
	}
	defer res.pop()

	p, err := r.planFor(key)
	if err != nil {
		return nil, err
	}

	target := reflect.New(p.structType).Elem()
	set := make([]bool, len(p.params))

	for i, prm := range p.params {
		depKey := Key{typ: prm.typ}
		if !r.has(depKey) {
			continue
		}
		dep, err := r.resolve(res, depKey)
		if err != nil {
			return nil, err
		}
		if dep == nil {
			continue
		}
		target.Field(prm.index).Set(reflect.ValueOf(dep))
		set[i] = true
	}

	for _, name := range sortedNames(extra) {
		i, ok := p.byName[name]
		if !ok {
			return nil, errors.Construction(key.String(), fmt.Sprintf("unexpected parameter %q", name))
		}
		prm := p.params[i]
		v, ok := coerce(extra[name], prm.typ)
		if !ok {
			return nil, errors.Construction(key.String(),
				fmt.Sprintf("parameter %q expects %s, got %T", name, prm.typ, extra[name]))
		}
		target.Field(prm.index).Set(v)
		set[i] = true
	}

	for i, prm := range p.params {
		if prm.required && !set[i] {
			return nil, errors.Construction(key.String(), fmt.Sprintf("missing required parameter %q", prm.name))
		}
	}

	if init, ok := target.Addr().Interface().(Initializer); ok {
		if err := callInit(key, init); err != nil {
			return nil, err
		}
	}

	if p.pointer {
		return target.Addr().Interface(), nil
	}
	return target.Interface(), nil
}

func callInit(key Key, init Initializer) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = errors.Construction(key.String(), fmt.Sprintf("Init panicked: %v", rec))
		}
	}()
	if ierr := init.Init(); ierr != nil {
		return constructionFailure(key, "Init failed", ierr)
	}
	return nil
}

// constructionFailure wraps cause unless it already carries a code, in which
// case it is passed through unchanged.
func constructionFailure(key Key, reason string, cause error) error {
	if errors.IsAppError(cause) {
		return cause
	}
	return errors.Construction(key.String(), reason).WithCause(cause)
}

// coerce converts an explicit parameter value to the field type. Numeric
// values convert between numeric kinds so untyped constants like 10 can fill
// an int64 or float64 field, as long as the value survives the conversion.
func coerce(v any, t reflect.Type) (reflect.Value, bool) {
	if v == nil {
		switch t.Kind() {
		case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
			return reflect.Zero(t), true
		default:
			return reflect.Value{}, false
		}
	}
	rv := reflect.ValueOf(v)
	if rv.Type().AssignableTo(t) {
		return rv, true
	}
	if isNumeric(rv.Kind()) && isNumeric(t.Kind()) && fits(rv, t) {
		return rv.Convert(t), true
	}
	return reflect.Value{}, false
}

// fits reports whether the numeric value rv converts to t without
// truncation, wrap-around or overflow.
func fits(rv reflect.Value, t reflect.Type) bool {
	target := reflect.Zero(t)
	switch {
	case isSigned(rv.Kind()):
		n := rv.Int()
		switch {
		case isSigned(t.Kind()):
			return !target.OverflowInt(n)
		case isUnsigned(t.Kind()):
			return n >= 0 && !target.OverflowUint(uint64(n))
		}
	case isUnsigned(rv.Kind()):
		u := rv.Uint()
		switch {
		case isSigned(t.Kind()):
			return u <= math.MaxInt64 && !target.OverflowInt(int64(u))
		case isUnsigned(t.Kind()):
			return !target.OverflowUint(u)
		}
	default:
		f := rv.Float()
		switch {
		case isSigned(t.Kind()):
			// -2^63 is exact; 2^63 is the first float above MaxInt64.
			return f == math.Trunc(f) && f >= math.MinInt64 && f < math.MaxInt64 && !target.OverflowInt(int64(f))
		case isUnsigned(t.Kind()):
			return f == math.Trunc(f) && f >= 0 && f < math.MaxUint64 && !target.OverflowUint(uint64(f))
		default:
			return !target.OverflowFloat(f)
		}
	}
	return true
}

func isSigned(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return true
	}
	return false
}

func isUnsigned(k reflect.Kind) bool {
	switch k {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return true
	}
	return false
}

func isNumeric(k reflect.Kind) bool {
	return isSigned(k) || isUnsigned(k) || k == reflect.Float32 || k == reflect.Float64
}

func sortedNames(m map[string]any) []string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
