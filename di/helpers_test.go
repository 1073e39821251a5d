package di

import (
	"context"
	"sync"
	"testing"

	"github.com/kbukum/injectkit/errors"
)

type Engine struct {
	HP int
}

type Car struct {
	Engine *Engine
	Model  string
}

type Widget struct {
	Size  int     `inject:"size"`
	Ratio float64 `inject:"ratio"`
}

// Gauge has narrow numeric fields for coercion tests.
type Gauge struct {
	Count int8
	N     uint
	Whole int
	Level float32
}

// Mutually dependent types for cycle tests.
type Ping struct{ Pong *Pong }
type Pong struct{ Ping *Ping }

type Node struct{ Next *Node }

type recordedOp struct {
	op  Operation
	key string
	err error
}

type recordingInstrument struct {
	mu     sync.Mutex
	starts []recordedOp
	ends   []recordedOp
}

func (ri *recordingInstrument) Start(ctx context.Context, op Operation, key Key) (context.Context, func(error)) {
	ri.mu.Lock()
	ri.starts = append(ri.starts, recordedOp{op: op, key: key.String()})
	ri.mu.Unlock()
	return ctx, func(err error) {
		ri.mu.Lock()
		ri.ends = append(ri.ends, recordedOp{op: op, key: key.String(), err: err})
		ri.mu.Unlock()
	}
}

func requireCode(t *testing.T, err error, code errors.ErrorCode) *errors.AppError {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", code)
	}
	appErr, ok := errors.AsAppError(err)
	if !ok {
		t.Fatalf("expected *AppError, got %T: %v", err, err)
	}
	if appErr.Code != code {
		t.Fatalf("expected code %s, got %s (%v)", code, appErr.Code, err)
	}
	return appErr
}

func mustResolve(t *testing.T, r *Registry, key Key) any {
	t.Helper()
	v, err := r.Resolve(key)
	if err != nil {
		t.Fatalf("Resolve(%s) failed: %v", key, err)
	}
	return v
}
