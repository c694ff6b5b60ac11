// SPDX-License-Identifier: MPL-2.0

package discovery

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"reflect"

	"github.com/charmbracelet/log"

	"github.com/invowk/textcmd/internal/shellbody"
	"github.com/invowk/textcmd/pkg/command"
)

// ErrUnknownPrecondition is returned for a precondition name without a
// built-in implementation.
var ErrUnknownPrecondition = errors.New("unknown precondition")

// Instance is the module instance of a descriptor module. It checks
// scripts once the module is registered and wraps every command body.
type Instance struct {
	Path            string
	Key             string
	ScriptsDisabled bool
	Logger          *log.Logger

	decl ModuleDecl
}

var (
	_ command.BuildHook   = (*Instance)(nil)
	_ command.ExecuteHook = (*Instance)(nil)
)

// OnModuleBuilt parses every script of m. A syntax error fails the build
// hook, which leaves the module registered but reported.
func (in *Instance) OnModuleBuilt(_ context.Context, m *command.Module, _ command.Services) error {
	return errors.Join(checkScripts(m, in.decl)...)
}

// checkScripts walks the built module alongside its declaration; Build
// keeps declaration order for commands and submodules.
func checkScripts(m *command.Module, decl ModuleDecl) []error {
	var errs []error
	for i, cmd := range m.Commands() {
		if i >= len(decl.Commands) {
			break
		}
		if _, err := shellbody.Parse(cmd.String(), decl.Commands[i].Script); err != nil {
			errs = append(errs, fmt.Errorf("command %q: %w", cmd.String(), err))
		}
	}
	for i, sub := range m.Submodules() {
		if i >= len(decl.Submodules) {
			break
		}
		errs = append(errs, checkScripts(sub, decl.Submodules[i])...)
	}
	return errs
}

// BeforeExecute rejects script bodies when scripts are disabled.
func (in *Instance) BeforeExecute(_ context.Context, inv *command.Invocation) error {
	if in.ScriptsDisabled {
		return shellbody.ErrDisabled
	}
	in.Logger.Debug("running script", "module", in.Key, "command", inv.Command.String())
	return nil
}

// AfterExecute logs the script outcome.
func (in *Instance) AfterExecute(_ context.Context, inv *command.Invocation, err error) {
	if err != nil {
		in.Logger.Debug("script failed", "module", in.Key, "command", inv.Command.String(), "err", err)
		return
	}
	in.Logger.Debug("script finished", "module", in.Key, "command", inv.Command.String())
}

func (l *Loader) moduleType(p string, decl ModuleDecl) command.ModuleType {
	logger := l.logger()
	runner := l.Shell
	runner.Dir = l.Workdir
	if runner.Dir == "" {
		runner.Dir = filepath.Dir(p)
	}

	return command.ModuleType{
		Key: decl.Key,
		Describe: func(b *command.ModuleBuilder) error {
			return describeModule(b, decl, &runner)
		},
		New: func(context.Context, command.Services) (any, error) {
			return &Instance{
				Path:            p,
				Key:             decl.Key,
				ScriptsDisabled: l.ScriptsDisabled,
				Logger:          logger,
				decl:            decl,
			}, nil
		},
	}
}

func describeModule(b *command.ModuleBuilder, decl ModuleDecl, runner *shellbody.Runner) error {
	b.Name = decl.Name
	b.Summary = decl.Summary
	b.Aliases = decl.Aliases

	var errs []error
	pres, err := preconditions(decl.Preconditions)
	errs = append(errs, err)
	b.Preconditions = pres

	for _, cd := range decl.Commands {
		cb, err := describeCommand(cd, runner)
		errs = append(errs, err)
		if cb != nil {
			b.AddCommand(cb)
		}
	}
	for _, sd := range decl.Submodules {
		sb := &command.ModuleBuilder{}
		errs = append(errs, describeModule(sb, sd, runner))
		b.AddSubmodule(sb)
	}
	return errors.Join(errs...)
}

func describeCommand(cd CommandDecl, runner *shellbody.Runner) (*command.CommandBuilder, error) {
	var errs []error

	params := make([]command.Parameter, 0, len(cd.Parameters))
	for _, pd := range cd.Parameters {
		p, err := parameter(pd)
		if err != nil {
			errs = append(errs, fmt.Errorf("parameter %q: %w", pd.Name, err))
			continue
		}
		params = append(params, p)
	}
	pres, err := preconditions(cd.Preconditions)
	errs = append(errs, err)

	name := cd.Name
	if name == "" && len(cd.Aliases) > 0 {
		name = cd.Aliases[0]
	}
	return &command.CommandBuilder{
		Name:          cd.Name,
		Summary:       cd.Summary,
		Aliases:       cd.Aliases,
		Parameters:    params,
		Priority:      cd.Priority,
		RunMode:       command.RunMode(cd.RunMode),
		Preconditions: pres,
		Handler:       runner.Handler(name, cd.Script),
	}, errors.Join(errs...)
}

func parameter(pd ParamDecl) (command.Parameter, error) {
	t, err := ResolveType(pd.Type)
	if err != nil {
		return command.Parameter{}, err
	}
	p := command.Parameter{
		Name:      pd.Name,
		Summary:   pd.Summary,
		Type:      t,
		Optional:  pd.Optional,
		Remainder: pd.Remainder,
		Multiple:  pd.Multiple,
	}
	if pd.Default != nil {
		if t.Kind() == reflect.Interface {
			return command.Parameter{}, fmt.Errorf("%s parameters cannot have a default", pd.Type)
		}
		def, err := parseDefault(t, *pd.Default, pd.Multiple)
		if err != nil {
			return command.Parameter{}, err
		}
		p.Default = def
		p.Optional = true
	}
	return p, nil
}

func preconditions(decls []PreconditionDecl) ([]command.Precondition, error) {
	var (
		out  []command.Precondition
		errs []error
	)
	for _, d := range decls {
		var p command.Precondition
		switch d.Require {
		case "author":
			p = command.RequireAuthor()
		case "human":
			p = command.RequireHumanAuthor()
		case "channel":
			p = command.RequireChannel()
		default:
			errs = append(errs, fmt.Errorf("%w: %q", ErrUnknownPrecondition, d.Require))
			continue
		}
		if d.Group != "" {
			p = command.InGroup(d.Group, p)
		}
		out = append(out, p)
	}
	return out, errors.Join(errs...)
}

// validateModule converts decl without registering it, so that type and
// default errors surface when the file is loaded.
func validateModule(decl ModuleDecl, where string) error {
	if err := describeModule(&command.ModuleBuilder{}, decl, &shellbody.Runner{}); err != nil {
		return fmt.Errorf("%s (key %q): %w", where, decl.Key, err)
	}
	return nil
}
