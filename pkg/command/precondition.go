// SPDX-License-Identifier: MPL-2.0

package command

import (
	"context"
	"errors"
	"fmt"
	"reflect"
)

var (
	// ErrNoAuthor is returned by RequireAuthor when the context has no author.
	ErrNoAuthor = errors.New("command requires an author")
	// ErrNoChannel is returned by RequireChannel when the context has no channel.
	ErrNoChannel = errors.New("command requires a channel")
	// ErrBotAuthor is returned by RequireHumanAuthor for bot authors.
	ErrBotAuthor = errors.New("command cannot be invoked by a bot")
	// ErrMissingService is the sentinel wrapped by MissingServiceError.
	ErrMissingService = errors.New("required service not available")
)

type (
	// Precondition gates a command. A nil error admits the invocation;
	// the error message is the human-readable rejection reason.
	Precondition interface {
		Check(ctx context.Context, ictx Context, cmd *Command, svc Services) error
	}

	// PreconditionFunc adapts a function to the Precondition interface.
	PreconditionFunc func(ctx context.Context, ictx Context, cmd *Command, svc Services) error

	// MissingServiceError is returned by RequireService when the service
	// type is not resolvable.
	MissingServiceError struct {
		Type reflect.Type
	}

	grouped struct {
		Precondition
		group string
	}
)

// Check implements Precondition.
func (f PreconditionFunc) Check(ctx context.Context, ictx Context, cmd *Command, svc Services) error {
	return f(ctx, ictx, cmd, svc)
}

// Error implements the error interface.
func (e *MissingServiceError) Error() string {
	return fmt.Sprintf("required service %s not available", e.Type)
}

// Unwrap returns ErrMissingService.
func (e *MissingServiceError) Unwrap() error { return ErrMissingService }

// InGroup tags p with a group name. Within one module or command, the
// preconditions sharing a non-empty group pass when any one of them passes.
// Ungrouped preconditions must all pass.
func InGroup(group string, p Precondition) Precondition {
	if g, ok := p.(grouped); ok {
		p = g.Precondition
	}
	return grouped{Precondition: p, group: group}
}

// GroupOf returns the group p was tagged with, or "".
func GroupOf(p Precondition) string {
	if g, ok := p.(grouped); ok {
		return g.group
	}
	return ""
}

// CheckPreconditions evaluates the precondition chain of cmd: the
// preconditions of every enclosing module from the root down, then the
// command's own. The first rejecting level stops evaluation and its
// reason is returned as a *PreconditionError.
func CheckPreconditions(ctx context.Context, ictx Context, cmd *Command, svc Services) error {
	var chain []*Module
	for m := cmd.module; m != nil; m = m.parent {
		chain = append(chain, m)
	}
	for i := len(chain) - 1; i >= 0; i-- {
		if err := checkLevel(ctx, ictx, cmd, svc, chain[i].preconditions); err != nil {
			return &PreconditionError{Command: cmd.String(), Reason: err.Error(), Cause: err}
		}
	}
	if err := checkLevel(ctx, ictx, cmd, svc, cmd.preconditions); err != nil {
		return &PreconditionError{Command: cmd.String(), Reason: err.Error(), Cause: err}
	}
	return nil
}

func checkLevel(ctx context.Context, ictx Context, cmd *Command, svc Services, preconds []Precondition) error {
	var (
		order  []string
		groups = make(map[string][]error)
		passed = make(map[string]bool)
	)
	for _, p := range preconds {
		group := GroupOf(p)
		err := p.Check(ctx, ictx, cmd, svc)
		if group == "" {
			if err != nil {
				return err
			}
			continue
		}
		if _, seen := groups[group]; !seen && !passed[group] {
			order = append(order, group)
		}
		if err == nil {
			passed[group] = true
			groups[group] = nil
			continue
		}
		if !passed[group] {
			groups[group] = append(groups[group], err)
		}
	}
	for _, group := range order {
		if passed[group] {
			continue
		}
		return errors.Join(groups[group]...)
	}
	return nil
}

// RequireAuthor rejects invocations without an author.
func RequireAuthor() Precondition {
	return PreconditionFunc(func(_ context.Context, ictx Context, _ *Command, _ Services) error {
		if ictx == nil || ictx.Author() == nil {
			return ErrNoAuthor
		}
		return nil
	})
}

// RequireHumanAuthor rejects invocations without an author or from bots.
func RequireHumanAuthor() Precondition {
	return PreconditionFunc(func(_ context.Context, ictx Context, _ *Command, _ Services) error {
		if ictx == nil || ictx.Author() == nil {
			return ErrNoAuthor
		}
		if ictx.Author().Bot() {
			return ErrBotAuthor
		}
		return nil
	})
}

// RequireChannel rejects invocations without a channel.
func RequireChannel() Precondition {
	return PreconditionFunc(func(_ context.Context, ictx Context, _ *Command, _ Services) error {
		if ictx == nil || ictx.Channel() == nil {
			return ErrNoChannel
		}
		return nil
	})
}

// RequireService rejects invocations when no service of type T is provided.
func RequireService[T any]() Precondition {
	return PreconditionFunc(func(_ context.Context, _ Context, _ *Command, svc Services) error {
		if _, ok := Resolve[T](svc); !ok {
			return &MissingServiceError{Type: reflect.TypeFor[T]()}
		}
		return nil
	})
}
