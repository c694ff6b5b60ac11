// SPDX-License-Identifier: MPL-2.0

package dispatch

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/invowk/textcmd/internal/argparse"
	"github.com/invowk/textcmd/pkg/command"
	"github.com/invowk/textcmd/pkg/typereader"
)

// Parse binds m's remaining input to the command's parameters using every
// reader resolved for each parameter type.
func (s *Service) Parse(ctx context.Context, ictx command.Context, m Match, svc command.Services) ParseResult {
	res := ParseResult{Match: m}
	cmd := m.Command
	fail := func(f command.ParseFailure, cause error, format string, args ...any) ParseResult {
		res.Err = &command.ParseError{Command: cmd.String(), Failure: f, Reason: fmt.Sprintf(format, args...), Cause: cause}
		res.Args = nil
		return res
	}

	params := cmd.Parameters()
	scan := argparse.NewScanner(m.Remaining, s.opts.Separator)
	for _, p := range params {
		readers := s.readersFor(p)

		switch {
		case p.Remainder:
			rest := scan.Rest()
			if rest == "" {
				if !p.Optional {
					return fail(command.ArgumentCountMismatch, nil, "missing value for %s", p.Name)
				}
				res.Positional = append(res.Positional, defaultSlot(p))
				continue
			}
			cands, err := typereader.ReadAll(ctx, readers, ictx, rest, svc)
			if err != nil {
				return fail(command.ConversionFailed, err, "%s: %v", p.Name, err)
			}
			res.Positional = append(res.Positional, cands)

		case p.Multiple:
			var tokens int
			for {
				tok, ok, err := scan.Next()
				if err != nil {
					return fail(command.ArgumentCountMismatch, err, "%v", err)
				}
				if !ok {
					break
				}
				tokens++
				cands, err := typereader.ReadAll(ctx, readers, ictx, tok.Value, svc)
				if err != nil {
					return fail(command.ConversionFailed, err, "%s: %v", p.Name, err)
				}
				res.Variadic = append(res.Variadic, cands)
			}
			if tokens == 0 && !p.Optional {
				return fail(command.ArgumentCountMismatch, nil, "missing value for %s", p.Name)
			}

		default:
			tok, ok, err := scan.Next()
			if err != nil {
				return fail(command.ArgumentCountMismatch, err, "%v", err)
			}
			if !ok {
				if !p.Optional {
					return fail(command.ArgumentCountMismatch, nil, "too few arguments: missing %s", p.Name)
				}
				res.Positional = append(res.Positional, defaultSlot(p))
				continue
			}
			cands, err := typereader.ReadAll(ctx, readers, ictx, tok.Value, svc)
			if err != nil {
				return fail(command.ConversionFailed, err, "%s: %v", p.Name, err)
			}
			res.Positional = append(res.Positional, cands)
		}
	}

	if !s.opts.IgnoreExtraArgs && !scan.Done() {
		return fail(command.ArgumentCountMismatch, nil, "too many arguments")
	}

	if ambiguous(res.Positional) || ambiguous(res.Variadic) {
		if s.opts.MultiMatch == MultiMatchError {
			return fail(command.MultipleMatches, nil, "multiple values match an argument")
		}
		res.Positional = collapse(res.Positional)
		res.Variadic = collapse(res.Variadic)
	}

	args, err := bind(params, res.Positional, res.Variadic)
	if err != nil {
		return fail(command.ConversionFailed, err, "%v", err)
	}
	res.Args = args
	return res
}

func (s *Service) readersFor(p command.Parameter) []command.TypeReader {
	if p.Reader != nil {
		return []command.TypeReader{p.Reader}
	}
	return s.readers.Resolve(p.Type)
}

// defaultSlot yields the parameter default with full weight.
func defaultSlot(p command.Parameter) []command.Candidate {
	return []command.Candidate{{Value: p.Default, Weight: 1}}
}

func ambiguous(slots [][]command.Candidate) bool {
	for _, slot := range slots {
		if len(slot) > 1 {
			return true
		}
	}
	return false
}

func collapse(slots [][]command.Candidate) [][]command.Candidate {
	out := make([][]command.Candidate, len(slots))
	for i, slot := range slots {
		if best, ok := command.Best(slot); ok {
			out[i] = []command.Candidate{best}
		}
	}
	return out
}

// bind converts the best candidate of every slot into the parameter's type.
func bind(params []command.Parameter, positional, variadic [][]command.Candidate) ([]any, error) {
	args := make([]any, 0, len(params))
	pos := 0
	for _, p := range params {
		if p.Multiple {
			slice := reflect.MakeSlice(reflect.SliceOf(p.Type), 0, len(variadic))
			if len(variadic) == 0 && p.Default != nil {
				args = append(args, p.Default)
				continue
			}
			for _, slot := range variadic {
				best, _ := command.Best(slot)
				v, err := convert(p, best.Value)
				if err != nil {
					return nil, err
				}
				slice = reflect.Append(slice, v)
			}
			args = append(args, slice.Interface())
			continue
		}

		best, _ := command.Best(positional[pos])
		pos++
		v, err := convert(p, best.Value)
		if err != nil {
			return nil, err
		}
		args = append(args, v.Interface())
	}
	return args, nil
}

var errNotAssignable = errors.New("value is not assignable to the parameter type")

func convert(p command.Parameter, value any) (reflect.Value, error) {
	if value == nil {
		return reflect.Zero(p.Type), nil
	}
	v := reflect.ValueOf(value)
	if !v.Type().AssignableTo(p.Type) {
		return reflect.Value{}, fmt.Errorf("%s: %s: %w", p.Name, v.Type(), errNotAssignable)
	}
	out := reflect.New(p.Type).Elem()
	out.Set(v)
	return out, nil
}
