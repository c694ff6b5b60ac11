// SPDX-License-Identifier: MPL-2.0

package dispatch

import (
	"errors"

	"github.com/invowk/textcmd/pkg/command"
)

type (
	// Match is a command whose full alias prefixes the input.
	Match struct {
		Command *command.Command
		// Alias is the full alias that matched.
		Alias string
		// Consumed is the byte length of the input matched by Alias.
		Consumed int
		// Remaining is the argument input following the alias.
		Remaining string
	}

	// SearchResult lists the matches for an input, ordered by descending
	// priority and then registration order.
	SearchResult struct {
		Input   string
		Matches []Match
	}

	// PreconditionResult is the outcome of one candidate's precondition chain.
	PreconditionResult struct {
		Match Match
		// Err is nil on success, otherwise a *command.PreconditionError.
		Err error
	}

	// ParseResult is the outcome of binding one candidate's remaining input
	// to its parameters.
	ParseResult struct {
		Match Match
		// Positional holds the candidates of every parameter other than a
		// trailing Multiple parameter, in declaration order.
		Positional [][]command.Candidate
		// Variadic holds the candidates of each token bound to a trailing
		// Multiple parameter.
		Variadic [][]command.Candidate
		// Args are the bound values in parameter order; a Multiple parameter
		// is bound as a slice of its element type.
		Args []any
		// Err is nil on success, otherwise a *command.ParseError.
		Err error
	}

	// Result is the outcome of Execute.
	Result struct {
		Input   string
		Command *command.Command
		Args    []any
		Score   float64
		// Detached reports that the body was scheduled on its own goroutine;
		// its outcome reaches observers only.
		Detached bool
		err      error
	}
)

// Err returns the error form of a failed search, or nil.
func (r SearchResult) Err() error {
	if len(r.Matches) == 0 {
		return &command.UnknownCommandError{Input: r.Input}
	}
	return nil
}

// Success reports whether the chain passed.
func (r PreconditionResult) Success() bool { return r.Err == nil }

// Success reports whether the input bound to the parameters.
func (r ParseResult) Success() bool { return r.Err == nil }

// Success reports whether the invocation resolved and its body did not fault.
func (r Result) Success() bool { return r.err == nil }

// Err returns the typed failure: *command.UnknownCommandError,
// *command.PreconditionError, *command.ParseError or *command.BodyFaultError.
func (r Result) Err() error { return r.err }

// Kind classifies the failure, or returns "" on success.
func (r Result) Kind() command.ErrorKind {
	var (
		unknown *command.UnknownCommandError
		precond *command.PreconditionError
		parse   *command.ParseError
		body    *command.BodyFaultError
	)
	switch {
	case r.err == nil:
		return ""
	case errors.As(r.err, &unknown):
		return command.KindUnknownCommand
	case errors.As(r.err, &precond):
		return command.KindPreconditionFailed
	case errors.As(r.err, &parse):
		return command.KindParseFailed
	case errors.As(r.err, &body):
		return command.KindBodyFault
	default:
		return command.KindBodyFault
	}
}

// ParseFailure returns the parse failure reason when Kind is ParseFailed.
func (r Result) ParseFailure() command.ParseFailure {
	var parse *command.ParseError
	if errors.As(r.err, &parse) {
		return parse.Failure
	}
	return ""
}

// Reason returns the human-readable failure reason, or "".
func (r Result) Reason() string {
	var (
		precond *command.PreconditionError
		parse   *command.ParseError
	)
	switch {
	case r.err == nil:
		return ""
	case errors.As(r.err, &precond):
		return precond.Reason
	case errors.As(r.err, &parse):
		return parse.Reason
	default:
		return r.err.Error()
	}
}
