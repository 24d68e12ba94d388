package llm

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/singleflight"
)

// Lazy constructs a value on first use and shares it process-wide.
// Concurrent first callers share one construction. A failed construction is
// not remembered, so the next call tries again.
type Lazy[T any] struct {
	build func(ctx context.Context) (T, error)
	val   atomic.Pointer[T]
	group singleflight.Group
}

func NewLazy[T any](build func(ctx context.Context) (T, error)) *Lazy[T] {
	return &Lazy[T]{build: build}
}

func (l *Lazy[T]) Get(ctx context.Context) (T, error) {
	if p := l.val.Load(); p != nil {
		return *p, nil
	}
	v, err, _ := l.group.Do("init", func() (any, error) {
		if p := l.val.Load(); p != nil {
			return *p, nil
		}
		// The value outlives the request that happened to build it.
		t, err := l.build(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		l.val.Store(&t)
		return t, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

// Ready reports whether construction already succeeded.
func (l *Lazy[T]) Ready() bool {
	return l.val.Load() != nil
}
