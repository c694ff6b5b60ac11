// SPDX-License-Identifier: MPL-2.0

package discovery

import (
	"context"

	"github.com/invowk/textcmd/pkg/command"
)

// Registry is the registration surface of dispatch.Service.
type Registry interface {
	AddModuleType(ctx context.Context, t command.ModuleType, svc command.Services) (*command.Module, error)
	RemoveModule(m *command.Module) bool
}

// Register adds the module types of files that are not registered yet to
// reg. Unlike dispatch.Service.AddModules it keeps going after a failure;
// each rejected module becomes a diagnostic. A file only owns the modules
// it registered itself, so calling Register again retries the types that
// were rejected, e.g. after the owner of a duplicate key went away.
func Register(ctx context.Context, reg Registry, files []*LoadedFile, svc command.Services) []Diagnostic {
	var diags []Diagnostic
	for _, f := range files {
		if len(f.modules) != len(f.Types) {
			f.modules = make([]*command.Module, len(f.Types))
		}
		for i, t := range f.Types {
			if f.modules[i] != nil {
				continue
			}
			m, err := reg.AddModuleType(ctx, t, svc)
			// A module whose instance failed to initialize is still registered.
			f.modules[i] = m
			if err != nil {
				diags = append(diags, Diagnostic{
					Severity: SeverityError,
					Code:     CodeModuleRejected,
					Message:  err.Error(),
					Path:     f.Path,
					Cause:    err,
				})
			}
		}
	}
	return diags
}

// Unregister removes the modules f registered from reg and returns their
// keys. Keys f declared but another file owns are left alone.
func Unregister(reg Registry, f *LoadedFile) []string {
	var removed []string
	for i, m := range f.modules {
		if m == nil {
			continue
		}
		if reg.RemoveModule(m) {
			removed = append(removed, f.Types[i].Key)
		}
		f.modules[i] = nil
	}
	return removed
}

// Pending reports whether some module type of f is not registered.
func (f *LoadedFile) Pending() bool {
	if len(f.modules) != len(f.Types) {
		return len(f.Types) > 0
	}
	for _, m := range f.modules {
		if m == nil {
			return true
		}
	}
	return false
}
