package callback

import (
	"context"
	"sync"

	"github.com/bornholm/paranoid/internal/core/model"
	"github.com/pkg/errors"
)

// BeforeFunc is executed before the wrapped operation. Returning false vetoes
// the operation, which is then not executed.
type BeforeFunc[T model.Record] func(ctx context.Context, record T) (bool, error)

// AfterFunc is executed once the wrapped operation succeeded.
type AfterFunc[T model.Record] func(ctx context.Context, record T) error

// BeforeDestroyer is implemented by records carrying their own pre-destroy hook.
type BeforeDestroyer interface {
	BeforeDestroy(ctx context.Context) (bool, error)
}

// AfterDestroyer is implemented by records carrying their own post-destroy hook.
type AfterDestroyer interface {
	AfterDestroy(ctx context.Context) error
}

// Chain holds the destroy hooks registered for a record type.
type Chain[T model.Record] struct {
	mu     sync.RWMutex
	before []BeforeFunc[T]
	after  []AfterFunc[T]
}

func (c *Chain[T]) Before(funcs ...BeforeFunc[T]) *Chain[T] {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.before = append(c.before, funcs...)

	return c
}

func (c *Chain[T]) After(funcs ...AfterFunc[T]) *Chain[T] {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.after = append(c.after, funcs...)

	return c
}

// Run executes the before hooks, then fn, then the after hooks.
// The chain stops as soon as a hook vetoes or fails, or if fn does not succeed.
// An fn reporting no change (false, nil) skips the after hooks as well.
// The returned boolean is true only if the whole chain succeeded.
func (c *Chain[T]) Run(ctx context.Context, record T, fn func(ctx context.Context) (bool, error)) (bool, error) {
	before, after := c.hooks()

	if hook, ok := any(record).(BeforeDestroyer); ok {
		before = append(before, func(ctx context.Context, _ T) (bool, error) {
			return hook.BeforeDestroy(ctx)
		})
	}

	for _, h := range before {
		proceed, err := h(ctx, record)
		if err != nil {
			return false, errors.WithStack(err)
		}

		if !proceed {
			return false, nil
		}
	}

	succeeded, err := fn(ctx)
	if err != nil {
		return false, errors.WithStack(err)
	}

	if !succeeded {
		return false, nil
	}

	if hook, ok := any(record).(AfterDestroyer); ok {
		after = append(after, func(ctx context.Context, _ T) error {
			return hook.AfterDestroy(ctx)
		})
	}

	for _, h := range after {
		if err := h(ctx, record); err != nil {
			return false, errors.WithStack(err)
		}
	}

	return true, nil
}

func (c *Chain[T]) hooks() ([]BeforeFunc[T], []AfterFunc[T]) {
	if c == nil {
		return nil, nil
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	before := make([]BeforeFunc[T], len(c.before))
	copy(before, c.before)

	after := make([]AfterFunc[T], len(c.after))
	copy(after, c.after)

	return before, after
}

func NewChain[T model.Record]() *Chain[T] {
	return &Chain[T]{}
}
