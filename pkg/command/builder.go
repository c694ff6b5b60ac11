// SPDX-License-Identifier: MPL-2.0

package command

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

// DefaultSeparator joins module and command aliases.
const DefaultSeparator = " "

type (
	// ModuleBuilder declares a module. Zero or empty Aliases makes a
	// prefixless group whose commands register under their own aliases.
	ModuleBuilder struct {
		Name          string
		Summary       string
		Aliases       []string
		Preconditions []Precondition
		Commands      []*CommandBuilder
		Submodules    []*ModuleBuilder
	}

	// CommandBuilder declares a command. Empty Aliases registers the
	// command under the module's aliases alone (a group default command).
	CommandBuilder struct {
		Name          string
		Summary       string
		Aliases       []string
		Parameters    []Parameter
		Priority      int
		RunMode       RunMode
		Preconditions []Precondition
		Handler       Handler
	}

	// BuildOptions carries registry settings needed to build a module tree.
	BuildOptions struct {
		// Key is the removal key of the root module ("" for none).
		Key string
		// Separator joins alias segments; DefaultSeparator when empty.
		Separator string
		// DefaultRunMode replaces RunModeDefault; must be concrete.
		DefaultRunMode RunMode
		// HasReader reports whether a type reader can be resolved for t.
		// Nil skips the check.
		HasReader func(t reflect.Type) bool
	}
)

// AddCommand appends a command declaration and returns b.
func (b *ModuleBuilder) AddCommand(cb *CommandBuilder) *ModuleBuilder {
	b.Commands = append(b.Commands, cb)
	return b
}

// AddSubmodule appends a child module declaration and returns b.
func (b *ModuleBuilder) AddSubmodule(sb *ModuleBuilder) *ModuleBuilder {
	b.Submodules = append(b.Submodules, sb)
	return b
}

// Build validates the declaration tree and produces an immutable module.
// All validation failures are reported together.
func (b *ModuleBuilder) Build(opts BuildOptions) (*Module, error) {
	if opts.Separator == "" {
		opts.Separator = DefaultSeparator
	}
	if opts.DefaultRunMode == "" || opts.DefaultRunMode == RunModeDefault {
		return nil, fmt.Errorf("default run mode must be blocking or detached, got %q", opts.DefaultRunMode)
	}
	if err := opts.DefaultRunMode.Validate(); err != nil {
		return nil, err
	}

	m, errs := b.build(nil, opts, "")
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	m.key = opts.Key
	return m, nil
}

func (b *ModuleBuilder) build(parent *Module, opts BuildOptions, path string) (*Module, []error) {
	var errs []error

	own := normalizeAliases(b.Aliases)
	m := &Module{
		name:          b.Name,
		summary:       b.Summary,
		ownAliases:    own,
		parent:        parent,
		preconditions: compactPreconditions(b.Preconditions),
	}
	if parent == nil {
		m.aliases = own
	} else {
		m.aliases = combineAliases(parent.aliases, own, opts.Separator)
	}
	if m.name == "" {
		m.name = firstNonEmpty(m.aliases)
	}
	if m.name == "" {
		m.name = opts.Key
	}

	where := path + "/" + m.name
	for i, cb := range b.Commands {
		if cb == nil {
			errs = append(errs, fmt.Errorf("%s: command[%d] is nil", where, i))
			continue
		}
		cmd, cmdErrs := cb.build(m, opts, fmt.Sprintf("%s: command[%d]", where, i))
		errs = append(errs, cmdErrs...)
		if cmd != nil {
			m.commands = append(m.commands, cmd)
		}
	}
	for i, sb := range b.Submodules {
		if sb == nil {
			errs = append(errs, fmt.Errorf("%s: submodule[%d] is nil", where, i))
			continue
		}
		sub, subErrs := sb.build(m, opts, where)
		errs = append(errs, subErrs...)
		m.submodules = append(m.submodules, sub)
	}
	return m, errs
}

func (cb *CommandBuilder) build(m *Module, opts BuildOptions, where string) (*Command, []error) {
	var errs []error

	if cb.Handler == nil {
		errs = append(errs, fmt.Errorf("%s: handler is required", where))
	}

	own := normalizeAliases(cb.Aliases)
	full := combineAliases(m.aliases, own, opts.Separator)
	if firstNonEmpty(full) == "" {
		errs = append(errs, fmt.Errorf("%s: command has no alias and its module has no prefix", where))
	}

	mode := cb.RunMode
	if mode == "" {
		mode = RunModeDefault
	}
	if err := mode.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("%s: %w", where, err))
	}
	if mode == RunModeDefault {
		mode = opts.DefaultRunMode
	}

	errs = append(errs, validateParameters(cb.Parameters, opts, where)...)

	name := cb.Name
	if name == "" {
		name = firstNonEmpty(own)
	}
	if name == "" {
		name = m.name
	}

	return &Command{
		name:          name,
		summary:       cb.Summary,
		module:        m,
		ownAliases:    own,
		aliases:       full,
		parameters:    append([]Parameter(nil), cb.Parameters...),
		priority:      cb.Priority,
		runMode:       mode,
		preconditions: compactPreconditions(cb.Preconditions),
		handler:       cb.Handler,
	}, errs
}

func validateParameters(params []Parameter, opts BuildOptions, where string) []error {
	var errs []error
	seen := make(map[string]bool, len(params))
	for i, p := range params {
		at := fmt.Sprintf("%s: parameter[%d] %q", where, i, p.Name)
		if p.Name == "" {
			errs = append(errs, fmt.Errorf("%s: name is required", at))
		} else if seen[p.Name] {
			errs = append(errs, fmt.Errorf("%s: duplicate parameter name", at))
		}
		seen[p.Name] = true

		if p.Type == nil {
			errs = append(errs, fmt.Errorf("%s: type is required", at))
			continue
		}
		if p.Remainder && p.Multiple {
			errs = append(errs, fmt.Errorf("%s: a parameter cannot be both remainder and multiple", at))
		}
		if (p.Remainder || p.Multiple) && i != len(params)-1 {
			errs = append(errs, fmt.Errorf("%s: only the last parameter may be remainder or multiple", at))
		}
		if p.Reader == nil && opts.HasReader != nil && !opts.HasReader(p.Type) {
			errs = append(errs, fmt.Errorf("%s: no type reader for %s", at, p.Type))
		}
		if p.Optional && p.Default != nil {
			want := p.Type
			if p.Multiple {
				want = reflect.SliceOf(p.Type)
			}
			if got := reflect.TypeOf(p.Default); !got.AssignableTo(want) {
				errs = append(errs, fmt.Errorf("%s: default of type %s is not assignable to %s", at, got, want))
			}
		}
	}
	return errs
}

// JoinAlias joins two alias segments with sep, skipping empty segments.
func JoinAlias(first, second, sep string) string {
	switch {
	case first == "":
		return second
	case second == "":
		return first
	default:
		return first + sep + second
	}
}

func combineAliases(parents, own []string, sep string) []string {
	out := make([]string, 0, len(parents)*len(own))
	seen := make(map[string]bool, len(parents)*len(own))
	for _, p := range parents {
		for _, o := range own {
			full := JoinAlias(p, o, sep)
			if seen[full] {
				continue
			}
			seen[full] = true
			out = append(out, full)
		}
	}
	return out
}

func normalizeAliases(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, a := range in {
		a = strings.TrimSpace(a)
		if seen[a] {
			continue
		}
		seen[a] = true
		out = append(out, a)
	}
	if len(out) == 0 {
		out = append(out, "")
	}
	return out
}

func compactPreconditions(in []Precondition) []Precondition {
	out := make([]Precondition, 0, len(in))
	for _, p := range in {
		if p != nil {
			out = append(out, p)
		}
	}
	return out
}

func firstNonEmpty(in []string) string {
	for _, s := range in {
		if s != "" {
			return s
		}
	}
	return ""
}
