// SPDX-License-Identifier: MPL-2.0

package command

import (
	"reflect"

	"github.com/invowk/textcmd/pkg/entity"
)

type (
	// Context describes who invoked a command and where. Any of the
	// accessors may return nil when the embedding platform has no such
	// concept for the invocation.
	Context interface {
		Author() entity.User
		Channel() entity.Channel
		Message() entity.Message
	}

	// BasicContext is a plain Context value.
	BasicContext struct {
		User entity.User
		Chan entity.Channel
		Msg  entity.Message
	}

	// Services is the explicit capability object handed to module factories,
	// preconditions, type readers and command bodies. It replaces ambient
	// service location: everything a component may reach is looked up here
	// by type.
	Services interface {
		Service(t reflect.Type) (any, bool)
	}

	// ServiceMap is a Services backed by a map keyed by the registered type.
	ServiceMap map[reflect.Type]any
)

// Author implements Context.
func (c BasicContext) Author() entity.User { return c.User }

// Channel implements Context.
func (c BasicContext) Channel() entity.Channel { return c.Chan }

// Message implements Context.
func (c BasicContext) Message() entity.Message { return c.Msg }

// Service implements Services.
func (m ServiceMap) Service(t reflect.Type) (any, bool) {
	v, ok := m[t]
	return v, ok
}

// Provide registers v under the static type T. Use an interface type for
// T to expose a service by its contract rather than its implementation.
func Provide[T any](m ServiceMap, v T) ServiceMap {
	m[reflect.TypeFor[T]()] = v
	return m
}

// Resolve looks up the service registered under T.
// A nil Services resolves nothing.
func Resolve[T any](s Services) (T, bool) {
	var zero T
	if s == nil {
		return zero, false
	}
	v, ok := s.Service(reflect.TypeFor[T]())
	if !ok {
		return zero, false
	}
	typed, ok := v.(T)
	return typed, ok
}
