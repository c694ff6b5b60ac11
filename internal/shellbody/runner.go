// SPDX-License-Identifier: MPL-2.0

package shellbody

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"reflect"
	"strings"
	"time"
	"unicode"

	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"

	"github.com/invowk/textcmd/pkg/command"
	"github.com/invowk/textcmd/pkg/entity"
)

// EnvPrefix prefixes every variable the runner adds to the script environment.
const EnvPrefix = "TEXTCMD_"

var (
	// ErrScriptParse is returned when a script is not valid shell syntax.
	ErrScriptParse = errors.New("invalid script")
	// ErrDisabled is returned when scripts are turned off in the configuration.
	ErrDisabled = errors.New("script bodies are disabled")
)

type (
	// Runner executes scripts. The zero value runs in the current directory
	// with the process environment and discards output.
	Runner struct {
		// Dir is the working directory; the process working directory when empty.
		Dir string
		// Env is the base environment as KEY=VALUE pairs; os.Environ() when nil.
		Env    []string
		Stdin  io.Reader
		Stdout io.Writer
		Stderr io.Writer
	}

	// ExitError reports a script that ran to completion with a non-zero status.
	ExitError struct {
		Script string
		Status uint8
	}
)

// Error implements the error interface.
func (e *ExitError) Error() string {
	return fmt.Sprintf("script %s exited with status %d", e.Script, e.Status)
}

// ExitStatus returns the script's exit status.
func (e *ExitError) ExitStatus() uint8 { return e.Status }

// Parse checks script syntax without running it.
func Parse(name, script string) (*syntax.File, error) {
	prog, err := syntax.NewParser().Parse(strings.NewReader(script), name)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScriptParse, err)
	}
	return prog, nil
}

// Handler returns a command body running script with r.
func (r *Runner) Handler(name, script string) command.Handler {
	return func(ctx context.Context, inv *command.Invocation) error {
		return r.Run(ctx, name, script, inv)
	}
}

// Run executes script for inv. A non-zero exit is returned as *ExitError.
func (r *Runner) Run(ctx context.Context, name, script string, inv *command.Invocation) error {
	prog, err := Parse(name, script)
	if err != nil {
		return err
	}

	base := r.Env
	if base == nil {
		base = os.Environ()
	}
	positional, vars := Bindings(inv)
	env := append(append([]string(nil), base...), vars...)

	opts := []interp.RunnerOption{
		interp.Env(expand.ListEnviron(env...)),
		interp.StdIO(r.Stdin, orDiscard(r.Stdout), orDiscard(r.Stderr)),
	}
	if r.Dir != "" {
		opts = append(opts, interp.Dir(r.Dir))
	}
	// "--" keeps arguments like "-v" from being read as shell options.
	if len(positional) > 0 {
		opts = append(opts, interp.Params(append([]string{"--"}, positional...)...))
	}

	runner, err := interp.New(opts...)
	if err != nil {
		return fmt.Errorf("failed to create interpreter: %w", err)
	}

	if err := runner.Run(ctx, prog); err != nil {
		var status interp.ExitStatus
		if errors.As(err, &status) {
			if status == 0 {
				return nil
			}
			return &ExitError{Script: name, Status: uint8(status)}
		}
		return fmt.Errorf("script %s failed: %w", name, err)
	}
	return nil
}

// Bindings renders the invocation as positional parameters and
// environment assignments.
func Bindings(inv *command.Invocation) (positional, env []string) {
	if inv == nil {
		return nil, nil
	}
	env = append(env, EnvPrefix+"INPUT="+inv.Input)
	if inv.Command != nil {
		env = append(env, EnvPrefix+"COMMAND="+inv.Command.String())
	}
	if inv.Context != nil {
		if a := inv.Context.Author(); a != nil {
			env = append(env, EnvPrefix+"AUTHOR_ID="+a.ID())
		}
		if c := inv.Context.Channel(); c != nil {
			env = append(env, EnvPrefix+"CHANNEL_ID="+c.ID())
		}
	}
	if inv.Command == nil {
		return nil, env
	}

	for i, p := range inv.Command.Parameters() {
		if i >= len(inv.Args) {
			break
		}
		values := expandValue(inv.Args[i], p.Multiple)
		positional = append(positional, values...)
		env = append(env, EnvPrefix+"ARG_"+EnvName(p.Name)+"="+strings.Join(values, " "))
	}
	return positional, env
}

// EnvName upper-cases name and replaces everything but letters and digits
// with underscores.
func EnvName(name string) string {
	return strings.Map(func(r rune) rune {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			return unicode.ToUpper(r)
		}
		return '_'
	}, name)
}

func expandValue(v any, multiple bool) []string {
	if multiple && v != nil {
		rv := reflect.ValueOf(v)
		if rv.Kind() == reflect.Slice {
			out := make([]string, rv.Len())
			for i := range out {
				out[i] = Format(rv.Index(i).Interface())
			}
			return out
		}
	}
	return []string{Format(v)}
}

// Format renders one bound value for the shell. Entities render as their
// ID and nil pointers as the empty string.
func Format(v any) string {
	if rv := reflect.ValueOf(v); rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return ""
		}
		if _, ok := v.(entity.Entity); !ok {
			return Format(rv.Elem().Interface())
		}
	}
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case entity.Entity:
		return x.ID()
	case time.Time:
		return x.Format(time.RFC3339)
	case fmt.Stringer:
		return x.String()
	}
	return fmt.Sprint(v)
}

func orDiscard(w io.Writer) io.Writer {
	if w == nil {
		return io.Discard
	}
	return w
}
