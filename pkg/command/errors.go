// SPDX-License-Identifier: MPL-2.0

package command

import (
	"errors"
	"fmt"
)

const (
	// KindDuplicateModule: a keyed module was added twice.
	KindDuplicateModule ErrorKind = "DuplicateModule"
	// KindModuleBuildFailure: a module could not be built or its post-build hook failed.
	KindModuleBuildFailure ErrorKind = "ModuleBuildFailure"
	// KindUnknownCommand: no registered alias prefixes the input.
	KindUnknownCommand ErrorKind = "UnknownCommand"
	// KindPreconditionFailed: every candidate was rejected by a precondition.
	KindPreconditionFailed ErrorKind = "PreconditionFailed"
	// KindParseFailed: no candidate could bind the input to its parameters.
	KindParseFailed ErrorKind = "ParseFailed"
	// KindBodyFault: the dispatched command body returned an error or panicked.
	KindBodyFault ErrorKind = "BodyFault"

	// ArgumentCountMismatch: too few or too many tokens for the parameter list.
	ArgumentCountMismatch ParseFailure = "ArgumentCountMismatch"
	// ConversionFailed: no type reader accepted a token.
	ConversionFailed ParseFailure = "ConversionFailed"
	// MultipleMatches: a parameter slot bound to more than one candidate.
	MultipleMatches ParseFailure = "MultipleMatches"
)

var (
	// ErrDuplicateModule is the sentinel wrapped by DuplicateModuleError.
	ErrDuplicateModule = errors.New("module already registered")
	// ErrModuleBuild is the sentinel wrapped by ModuleBuildError.
	ErrModuleBuild = errors.New("module build failed")
	// ErrUnknownCommand is the sentinel wrapped by UnknownCommandError.
	ErrUnknownCommand = errors.New("unknown command")
	// ErrPreconditionFailed is the sentinel wrapped by PreconditionError.
	ErrPreconditionFailed = errors.New("precondition failed")
	// ErrParseFailed is the sentinel wrapped by ParseError.
	ErrParseFailed = errors.New("parse failed")
	// ErrBodyFault is the sentinel wrapped by BodyFaultError.
	ErrBodyFault = errors.New("command body fault")
)

type (
	// ErrorKind classifies a registration or pipeline failure.
	ErrorKind string

	// ParseFailure classifies a ParseFailed outcome.
	ParseFailure string

	// DuplicateModuleError is returned when a module key is already registered.
	DuplicateModuleError struct {
		Key string
	}

	// ModuleBuildError is returned when a module fails to build, or when its
	// instance factory or post-build hook fails. In the latter case the module
	// remains registered and Module is set.
	ModuleBuildError struct {
		Name   string
		Key    string
		Module *Module
		Cause  error
	}

	// UnknownCommandError is the error form of an UnknownCommand outcome.
	UnknownCommandError struct {
		Input string
	}

	// PreconditionError is the error form of a PreconditionFailed outcome.
	PreconditionError struct {
		Command string
		Reason  string
		Cause   error
	}

	// ParseError is the error form of a ParseFailed outcome.
	ParseError struct {
		Command string
		Failure ParseFailure
		Reason  string
		Cause   error
	}

	// BodyFaultError wraps a fault raised by a command body.
	// Panic holds the recovered value when the body panicked.
	BodyFaultError struct {
		Command string
		Cause   error
		Panic   any
	}
)

func (k ErrorKind) String() string    { return string(k) }
func (f ParseFailure) String() string { return string(f) }

// Error implements the error interface.
func (e *DuplicateModuleError) Error() string {
	return fmt.Sprintf("module key %q already registered", e.Key)
}

// Unwrap returns ErrDuplicateModule.
func (e *DuplicateModuleError) Unwrap() error { return ErrDuplicateModule }

// Error implements the error interface.
func (e *ModuleBuildError) Error() string {
	name := e.Name
	if name == "" {
		name = e.Key
	}
	if e.Cause == nil {
		return fmt.Sprintf("build module %q", name)
	}
	return fmt.Sprintf("build module %q: %v", name, e.Cause)
}

// Unwrap returns both the sentinel and the cause.
func (e *ModuleBuildError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrModuleBuild}
	}
	return []error{ErrModuleBuild, e.Cause}
}

// Error implements the error interface.
func (e *UnknownCommandError) Error() string {
	return fmt.Sprintf("unknown command: %q", e.Input)
}

// Unwrap returns ErrUnknownCommand.
func (e *UnknownCommandError) Unwrap() error { return ErrUnknownCommand }

// Error implements the error interface.
func (e *PreconditionError) Error() string {
	return fmt.Sprintf("%s: precondition failed: %s", e.Command, e.Reason)
}

// Unwrap returns both the sentinel and the cause.
func (e *PreconditionError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrPreconditionFailed}
	}
	return []error{ErrPreconditionFailed, e.Cause}
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Command, e.Failure, e.Reason)
}

// Unwrap returns both the sentinel and the cause.
func (e *ParseError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrParseFailed}
	}
	return []error{ErrParseFailed, e.Cause}
}

// Error implements the error interface.
func (e *BodyFaultError) Error() string {
	if e.Panic != nil {
		return fmt.Sprintf("%s: panic: %v", e.Command, e.Panic)
	}
	return fmt.Sprintf("%s: %v", e.Command, e.Cause)
}

// Unwrap returns both the sentinel and the cause.
func (e *BodyFaultError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrBodyFault}
	}
	return []error{ErrBodyFault, e.Cause}
}
