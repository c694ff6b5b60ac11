// SPDX-License-Identifier: MPL-2.0

package command

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"slices"
	"sync/atomic"
)

const (
	// RunModeDefault defers to the registry's configured default run mode.
	RunModeDefault RunMode = "default"
	// RunModeBlocking runs the body on the caller's goroutine; the caller
	// receives its outcome.
	RunModeBlocking RunMode = "blocking"
	// RunModeDetached schedules the body on its own goroutine; faults are
	// reported only through the observer channel.
	RunModeDetached RunMode = "detached"
)

// ErrInvalidRunMode is the sentinel wrapped by InvalidRunModeError.
var ErrInvalidRunMode = errors.New("invalid run mode")

type (
	// RunMode selects how a command body is executed.
	RunMode string

	// InvalidRunModeError is returned when a RunMode value is not recognized.
	InvalidRunModeError struct {
		Value RunMode
	}

	// Handler is a command body.
	Handler func(ctx context.Context, inv *Invocation) error

	// Parameter declares one command argument.
	Parameter struct {
		// Name identifies the parameter in Invocation lookups.
		Name string
		// Summary is shown in help output.
		Summary string
		// Type is the declared semantic type; type readers are resolved for it.
		// For Multiple parameters it is the element type.
		Type reflect.Type
		// Optional parameters may be omitted; Default is bound instead
		// (the zero value of Type when Default is nil).
		Optional bool
		Default  any
		// Remainder consumes the rest of the input as one token.
		Remainder bool
		// Multiple converts every remaining token and binds a []Type. At
		// least one token is required unless Optional is set.
		Multiple bool
		// Reader overrides type reader resolution for this parameter.
		Reader TypeReader
	}

	// Module is a named grouping of commands and submodules.
	// Modules are immutable once built except for the instance, which is
	// attached after registration.
	Module struct {
		name          string
		summary       string
		key           string
		aliases       []string
		ownAliases    []string
		parent        *Module
		submodules    []*Module
		commands      []*Command
		preconditions []Precondition
		instance      atomic.Pointer[instanceBox]
	}

	// Command is one invocable unit.
	Command struct {
		name          string
		summary       string
		module        *Module
		ownAliases    []string
		aliases       []string
		parameters    []Parameter
		priority      int
		runMode       RunMode
		preconditions []Precondition
		handler       Handler
	}

	instanceBox struct {
		value any
	}
)

// Param declares a parameter of type T.
func Param[T any](name string) Parameter {
	return Parameter{Name: name, Type: reflect.TypeFor[T]()}
}

// String returns the string representation of the RunMode.
func (m RunMode) String() string { return string(m) }

// Validate returns nil if the RunMode is one of the defined modes.
func (m RunMode) Validate() error {
	switch m {
	case RunModeDefault, RunModeBlocking, RunModeDetached:
		return nil
	default:
		return &InvalidRunModeError{Value: m}
	}
}

// Error implements the error interface.
func (e *InvalidRunModeError) Error() string {
	return fmt.Sprintf("invalid run mode %q (valid: default, blocking, detached)", e.Value)
}

// Unwrap returns ErrInvalidRunMode.
func (e *InvalidRunModeError) Unwrap() error { return ErrInvalidRunMode }

// Name returns the module name.
func (m *Module) Name() string { return m.name }

// Summary returns the module summary.
func (m *Module) Summary() string { return m.summary }

// Key returns the removal key, or "" for modules added from a builder.
func (m *Module) Key() string { return m.key }

// Alias returns the primary full alias ("" for a prefixless group).
func (m *Module) Alias() string {
	if len(m.aliases) == 0 {
		return ""
	}
	return m.aliases[0]
}

// Aliases returns every full alias of the module, ancestor chain included.
func (m *Module) Aliases() []string { return slices.Clone(m.aliases) }

// Parent returns the enclosing module, or nil for a root.
func (m *Module) Parent() *Module { return m.parent }

// Submodules returns the direct children.
func (m *Module) Submodules() []*Module { return slices.Clone(m.submodules) }

// Commands returns the commands owned directly by this module.
func (m *Module) Commands() []*Command { return slices.Clone(m.commands) }

// Preconditions returns the module's own preconditions.
func (m *Module) Preconditions() []Precondition { return slices.Clone(m.preconditions) }

// Instance returns the module instance, or nil when none was constructed.
func (m *Module) Instance() any {
	if box := m.instance.Load(); box != nil {
		return box.value
	}
	return nil
}

// SetInstance attaches the constructed module instance.
func (m *Module) SetInstance(v any) {
	m.instance.Store(&instanceBox{value: v})
}

// Walk visits m and all descendants depth-first, parents before children.
func (m *Module) Walk(fn func(*Module)) {
	fn(m)
	for _, sub := range m.submodules {
		sub.Walk(fn)
	}
}

// AllCommands returns the commands of m and of every descendant.
func (m *Module) AllCommands() []*Command {
	var out []*Command
	m.Walk(func(mod *Module) {
		out = append(out, mod.commands...)
	})
	return out
}

// Root returns the top-most ancestor.
func (m *Module) Root() *Module {
	for m.parent != nil {
		m = m.parent
	}
	return m
}

// Name returns the command name.
func (c *Command) Name() string { return c.name }

// Summary returns the command summary.
func (c *Command) Summary() string { return c.summary }

// Module returns the owning module.
func (c *Command) Module() *Module { return c.module }

// Alias returns the primary full alias.
func (c *Command) Alias() string {
	if len(c.aliases) == 0 {
		return ""
	}
	return c.aliases[0]
}

// Aliases returns every full alias (module chain + own alias).
func (c *Command) Aliases() []string { return slices.Clone(c.aliases) }

// Parameters returns the ordered parameter declarations.
func (c *Command) Parameters() []Parameter { return slices.Clone(c.parameters) }

// Priority returns the tie-break priority; higher wins.
func (c *Command) Priority() int { return c.priority }

// RunMode returns the resolved run mode (never RunModeDefault).
func (c *Command) RunMode() RunMode { return c.runMode }

// Preconditions returns the command's own preconditions.
func (c *Command) Preconditions() []Precondition { return slices.Clone(c.preconditions) }

// Handler returns the command body.
func (c *Command) Handler() Handler { return c.handler }

// String returns the primary alias, or the name for a prefixless command.
func (c *Command) String() string {
	if a := c.Alias(); a != "" {
		return a
	}
	return c.name
}
