package di

import (
	"sync"

	"github.com/kbukum/injectkit/errors"
)

// Strategy determines how an entry produces its value.
type Strategy int

const (
	StrategyEager     Strategy = iota // Fixed instance, or fresh construction when none is held
	StrategySingleton                 // Constructed once at registration
	StrategyLazy                      // Fixed instance, or constructed on first use and cached
	StrategyFactory                   // Produced by a callback on every request
)

func (s Strategy) String() string {
	switch s {
	case StrategyEager:
		return "eager"
	case StrategySingleton:
		return "singleton"
	case StrategyLazy:
		return "lazy"
	case StrategyFactory:
		return "factory"
	default:
		return "unknown"
	}
}

// MarshalText renders the strategy by name.
func (s Strategy) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// producer is implemented by each entry variant.
type producer interface {
	produce(r *Registry, res *resolution, key Key) (any, error)
	// held returns the value the entry currently stores, if any.
	held() (any, bool)
}

// Entry describes how the value for one key is produced.
type Entry struct {
	key      Key
	strategy Strategy
	producer producer
	registry *Registry
}

// Key returns the key the entry is registered under.
func (e *Entry) Key() Key { return e.key }

// Strategy returns the entry's production strategy.
func (e *Entry) Strategy() Strategy { return e.strategy }

// Initialized reports whether the entry holds a value it will hand out
// without constructing anything.
func (e *Entry) Initialized() bool {
	_, ok := e.producer.held()
	return ok
}

// Get yields the entry's value, constructing it when the strategy requires.
func (e *Entry) Get() (any, error) {
	return e.get(newResolution())
}

func (e *Entry) get(res *resolution) (any, error) {
	return e.producer.produce(e.registry, res, e.key)
}

func newEagerEntry(r *Registry, key Key, value any) *Entry {
	var p producer = eagerFresh{}
	if value != nil {
		p = eagerValue{value: value}
	}
	return &Entry{key: key, strategy: StrategyEager, producer: p, registry: r}
}

func newSingletonEntry(r *Registry, key Key, value any) (*Entry, error) {
	if value == nil {
		return nil, errors.MissingSingletonValue(key.String())
	}
	return &Entry{key: key, strategy: StrategySingleton, producer: singletonValue{value: value}, registry: r}, nil
}

func newLazyEntry(r *Registry, key Key, value any) *Entry {
	var p producer = &lazyDeferred{}
	if value != nil {
		p = lazyValue{value: value}
	}
	return &Entry{key: key, strategy: StrategyLazy, producer: p, registry: r}
}

func newFactoryEntry(r *Registry, key Key, fn *factoryFunc) *Entry {
	return &Entry{key: key, strategy: StrategyFactory, producer: fn, registry: r}
}

// --- variants ---

type eagerValue struct{ value any }

func (p eagerValue) produce(*Registry, *resolution, Key) (any, error) { return p.value, nil }
func (p eagerValue) held() (any, bool)                                { return p.value, true }

type eagerFresh struct{}

func (eagerFresh) produce(r *Registry, res *resolution, key Key) (any, error) {
	return r.instantiate(res, key, nil)
}
func (eagerFresh) held() (any, bool) { return nil, false }

type singletonValue struct{ value any }

func (p singletonValue) produce(*Registry, *resolution, Key) (any, error) { return p.value, nil }
func (p singletonValue) held() (any, bool)                                { return p.value, true }

type lazyValue struct{ value any }

func (p lazyValue) produce(*Registry, *resolution, Key) (any, error) { return p.value, nil }
func (p lazyValue) held() (any, bool)                                { return p.value, true }

// lazyDeferred constructs on first use. Construction runs without the lock
// held so a cycle through this key surfaces as CYCLE_DETECTED instead of a
// deadlock; if two callers race, the first stored value wins.
type lazyDeferred struct {
	mu    sync.Mutex
	value any
	done  bool
}

func (p *lazyDeferred) produce(r *Registry, res *resolution, key Key) (any, error) {
	if v, ok := p.held(); ok {
		return v, nil
	}
	v, err := r.instantiate(res, key, nil)
	if err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.done {
		p.value = v
		p.done = true
	}
	return p.value, nil
}

func (p *lazyDeferred) held() (any, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.value, p.done
}
