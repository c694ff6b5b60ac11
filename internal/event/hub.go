// SPDX-License-Identifier: MPL-2.0

package event

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
)

type (
	// Handler receives one published event.
	Handler[T any] func(ctx context.Context, ev T) error

	// Hub fans events out to its subscribers. Subscriptions are append-only
	// for the hub's lifetime.
	//
	// Publish calls every subscriber sequentially in subscription order and
	// never stops early: a failing or panicking subscriber does not prevent
	// later ones from running. All failures are joined into the returned
	// error.
	Hub[T any] struct {
		mu   sync.Mutex
		subs []Handler[T]
	}

	// PanicError is reported for a subscriber that panicked.
	PanicError struct {
		Index int
		Value any
	}
)

// Error implements the error interface.
func (e *PanicError) Error() string {
	return fmt.Sprintf("subscriber %d panicked: %v", e.Index, e.Value)
}

// Subscribe appends fn to the subscriber list. Nil handlers are ignored.
func (h *Hub[T]) Subscribe(fn Handler[T]) {
	if fn == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.subs = append(h.subs, fn)
}

// Len returns the number of subscribers.
func (h *Hub[T]) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Publish delivers ev to every subscriber registered at call time.
func (h *Hub[T]) Publish(ctx context.Context, ev T) error {
	h.mu.Lock()
	subs := slices.Clip(h.subs)
	h.mu.Unlock()

	var errs []error
	for i, fn := range subs {
		if err := deliver(ctx, i, fn, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func deliver[T any](ctx context.Context, i int, fn Handler[T], ev T) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Index: i, Value: r}
		}
	}()
	return fn(ctx, ev)
}
