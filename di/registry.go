package di

import (
	stderrors "errors"
	"io"
	"reflect"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/kbukum/injectkit/errors"
	"github.com/kbukum/injectkit/logger"
)

// RegistrationInfo describes a registered key for introspection.
type RegistrationInfo struct {
	Key         string   `json:"key"`
	Strategy    Strategy `json:"strategy"`
	Initialized bool     `json:"initialized"`
}

// Registry owns the key → entry map and mediates registration and resolution.
//
// The map is guarded by a lock, but the lock is never held while user code
// (constructors, Init, factories) runs. Callers that register and resolve the
// same keys from several goroutines must still order those calls themselves.
type Registry struct {
	id string

	mu         sync.RWMutex
	entries    map[Key]*Entry
	plans      map[reflect.Type]*plan
	fieldTag   string
	log        *logger.Logger
	instrument Instrument
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger used for registry events.
func WithLogger(l *logger.Logger) Option {
	return func(r *Registry) {
		if l != nil {
			r.log = l.WithComponent("di")
		}
	}
}

// WithInstrument sets the tracing/metrics hook for resolutions.
func WithInstrument(i Instrument) Option {
	return func(r *Registry) {
		if i != nil {
			r.instrument = i
		}
	}
}

// WithFieldTag changes the struct tag read for constructor parameters.
func WithFieldTag(tag string) Option {
	return func(r *Registry) {
		if tag != "" {
			r.fieldTag = tag
		}
	}
}

// New creates an empty registry. Most programs use Default instead.
func New(opts ...Option) *Registry {
	r := &Registry{
		id:         uuid.NewString(),
		entries:    make(map[Key]*Entry),
		plans:      make(map[reflect.Type]*plan),
		fieldTag:   DefaultFieldTag,
		log:        logger.Get("di"),
		instrument: nopInstrument{},
	}
	r.Configure(opts...)
	return r
}

// Configure applies options in place. Cached constructor plans are dropped.
func (r *Registry) Configure(opts ...Option) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, opt := range opts {
		opt(r)
	}
	r.plans = make(map[reflect.Type]*plan)
}

// ID returns the registry's instance id.
func (r *Registry) ID() string { return r.id }

// Reset empties the registry. Values already handed out are unaffected.
func (r *Registry) Reset() {
	r.mu.Lock()
	n := len(r.entries)
	r.entries = make(map[Key]*Entry)
	r.mu.Unlock()

	r.logger().Debug("registry reset", logger.Fields("dropped", n))
}

// Register stores how to produce values for key.
//
// A func value (for a key whose type is not itself a func) is a factory and
// must take 0 or 1 parameters; a 1-parameter factory receives a freshly
// auto-wired instance of key. Any other non-nil value is returned as is on
// every request. A nil value, typed or not, means "construct a fresh
// instance every time".
//
// On error nothing is stored and any previous entry for key is kept.
func (r *Registry) Register(key Key, value any) error {
	if key.IsZero() {
		return errors.Validation("di: register requires a non-zero key")
	}
	if isNilValue(value) {
		value = nil
	}

	var entry *Entry
	if isFunc(value) && key.typ.Kind() != reflect.Func {
		fn, err := newFactoryFunc(key, value)
		if err != nil {
			return err
		}
		entry = newFactoryEntry(r, key, fn)
	} else {
		if err := checkAssignable(key, value); err != nil {
			return err
		}
		entry = newEagerEntry(r, key, value)
	}

	r.store(entry)
	return nil
}

// Singleton constructs key now and stores the result. Every later request
// returns that same value. If construction fails nothing is stored.
func (r *Registry) Singleton(key Key) error {
	if key.IsZero() {
		return errors.Validation("di: singleton requires a non-zero key")
	}

	value, err := r.instantiate(newResolution(), key, nil)
	if err != nil {
		r.logger().Warn("singleton construction failed", logger.Fields(
			logger.FieldKey, key.String(),
			logger.FieldError, err.Error(),
		))
		return err
	}

	entry, err := newSingletonEntry(r, key, value)
	if err != nil {
		return err
	}
	r.store(entry)
	return nil
}

// Lazy stores value for key without constructing anything. A non-nil value
// is returned as is. A nil value defers construction to the first request
// and caches the result.
func (r *Registry) Lazy(key Key, value any) error {
	if key.IsZero() {
		return errors.Validation("di: lazy requires a non-zero key")
	}
	if isNilValue(value) {
		value = nil
	}
	if err := checkAssignable(key, value); err != nil {
		return err
	}
	r.store(newLazyEntry(r, key, value))
	return nil
}

// Resolve returns a value for key. Registered keys are produced by their
// entry; anything else falls back to Instantiate. A missing registration is
// never an error by itself.
func (r *Registry) Resolve(key Key) (any, error) {
	return r.resolve(newResolution(), key)
}

// Instantiate constructs a new value for key by auto-wiring, ignoring any
// entry stored for key itself. extra supplies parameters by name and
// overrides wired values.
func (r *Registry) Instantiate(key Key, extra map[string]any) (any, error) {
	return r.instantiate(newResolution(), key, extra)
}

func (r *Registry) resolve(res *resolution, key Key) (result any, err error) {
	ctx, end := r.instrumentFor().Start(res.ctx, OpResolve, key)
	parent := res.ctx
	res.ctx = ctx
	defer func() {
		res.ctx = parent
		end(err)
	}()

	if entry, ok := r.Lookup(key); ok {
		return entry.get(res)
	}

	r.logger().Debug("no entry, instantiating", logger.Fields(logger.FieldKey, key.String()))
	return r.instantiate(res, key, nil)
}

// Lookup returns the entry registered for key.
func (r *Registry) Lookup(key Key) (*Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[key]
	return e, ok
}

// LookupName returns the entry whose key renders as name. Distinct types
// can render alike (local types, same-named packages); such a name is
// ambiguous and reports no entry.
func (r *Registry) LookupName(name string) (*Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var found *Entry
	for k, e := range r.entries {
		if k.String() != name {
			continue
		}
		if found != nil {
			return nil, false
		}
		found = e
	}
	return found, found != nil
}

// Len returns the number of registered keys.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Registrations returns info about every registered key, sorted by key.
func (r *Registry) Registrations() []RegistrationInfo {
	r.mu.RLock()
	result := make([]RegistrationInfo, 0, len(r.entries))
	for k, e := range r.entries {
		result = append(result, RegistrationInfo{
			Key:         k.String(),
			Strategy:    e.strategy,
			Initialized: e.Initialized(),
		})
	}
	r.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool { return result[i].Key < result[j].Key })
	return result
}

// Close closes every held value that implements io.Closer. A value
// registered under several keys is closed once. Entries stay registered.
func (r *Registry) Close() error {
	r.mu.RLock()
	var closers []io.Closer
	seen := make(map[io.Closer]bool)
	for _, e := range r.entries {
		v, ok := e.producer.held()
		if !ok {
			continue
		}
		c, ok := v.(io.Closer)
		if !ok {
			continue
		}
		if reflect.TypeOf(c).Comparable() {
			if seen[c] {
				continue
			}
			seen[c] = true
		}
		closers = append(closers, c)
	}
	r.mu.RUnlock()

	var errs []error
	for _, c := range closers {
		if err := c.Close(); err != nil {
			r.logger().Warn("close failed", logger.Fields(logger.FieldError, err.Error()))
			errs = append(errs, err)
		}
	}
	return stderrors.Join(errs...)
}

func (r *Registry) store(e *Entry) {
	r.mu.Lock()
	r.entries[e.key] = e
	r.mu.Unlock()

	r.logger().Debug("entry registered", logger.Fields(
		logger.FieldKey, e.key.String(),
		logger.FieldStrategy, e.strategy.String(),
	))
}

func (r *Registry) has(key Key) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entries[key]
	return ok
}

func (r *Registry) planFor(key Key) (*plan, error) {
	r.mu.RLock()
	p, ok := r.plans[key.typ]
	tag := r.fieldTag
	r.mu.RUnlock()
	if ok {
		return p, nil
	}

	p, err := buildPlan(key, tag)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.plans[key.typ] = p
	r.mu.Unlock()
	return p, nil
}

func (r *Registry) logger() *logger.Logger {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.log.WithFields(logger.Fields(logger.FieldRegistry, r.id))
}

func (r *Registry) instrumentFor() Instrument {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.instrument
}

func checkAssignable(key Key, value any) error {
	if value == nil {
		return nil
	}
	if t := reflect.TypeOf(value); !t.AssignableTo(key.typ) {
		return errors.TypeMismatch(key.String(), t.String())
	}
	return nil
}

// isNilValue reports whether v is nil or a typed nil of a nillable kind.
func isNilValue(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}
