// SPDX-License-Identifier: MPL-2.0

package command

import "context"

type (
	// Invocation is what a command body receives: the bound arguments in
	// parameter order plus the context it was invoked from.
	Invocation struct {
		Context  Context
		Command  *Command
		Input    string
		Args     []any
		Services Services
	}

	// ModuleType describes a module whose commands are declared by Describe
	// and whose instance is built by New when the module is registered.
	// Key identifies the module for RemoveModuleKey and duplicate detection.
	ModuleType struct {
		Key      string
		Describe func(b *ModuleBuilder) error
		New      func(ctx context.Context, svc Services) (any, error)
	}

	// ModuleSource enumerates module types, e.g. from descriptor files.
	ModuleSource interface {
		ModuleTypes(ctx context.Context) ([]ModuleType, error)
	}

	// ModuleSourceFunc adapts a function to the ModuleSource interface.
	ModuleSourceFunc func(ctx context.Context) ([]ModuleType, error)

	// BuildHook runs after a module built from a ModuleType is registered.
	// A failing hook does not roll the registration back.
	BuildHook interface {
		OnModuleBuilt(ctx context.Context, m *Module, svc Services) error
	}

	// ExecuteHook is implemented by module instances that want to run
	// around each of their command bodies. BeforeExecute failing skips the
	// body and is reported as a body fault.
	ExecuteHook interface {
		BeforeExecute(ctx context.Context, inv *Invocation) error
		AfterExecute(ctx context.Context, inv *Invocation, err error)
	}
)

// ModuleTypes implements ModuleSource.
func (f ModuleSourceFunc) ModuleTypes(ctx context.Context) ([]ModuleType, error) {
	return f(ctx)
}

// Arg returns the bound value of the named parameter.
func (inv *Invocation) Arg(name string) (any, bool) {
	if inv.Command == nil {
		return nil, false
	}
	for i, p := range inv.Command.parameters {
		if p.Name == name && i < len(inv.Args) {
			return inv.Args[i], true
		}
	}
	return nil, false
}

// Module returns the instance of the module owning the invoked command.
func (inv *Invocation) Module() any {
	if inv.Command == nil || inv.Command.module == nil {
		return nil
	}
	return inv.Command.module.Root().Instance()
}

// Arg returns the named argument converted to T. It reports false when the
// parameter does not exist or its value is not a T.
func Arg[T any](inv *Invocation, name string) (T, bool) {
	var zero T
	v, ok := inv.Arg(name)
	if !ok {
		return zero, false
	}
	typed, ok := v.(T)
	return typed, ok
}
