package di

import "context"

// Operation names the registry step being observed.
type Operation string

const (
	OpResolve     Operation = "resolve"
	OpInstantiate Operation = "instantiate"
)

// Instrument observes registry operations. Start is called before the
// operation and the returned func once it completes with its error (nil on
// success). The returned context becomes the parent of nested operations.
type Instrument interface {
	Start(ctx context.Context, op Operation, key Key) (context.Context, func(error))
}

type nopInstrument struct{}

func (nopInstrument) Start(ctx context.Context, _ Operation, _ Key) (context.Context, func(error)) {
	return ctx, func(error) {}
}
