// SPDX-License-Identifier: MPL-2.0

package dispatch

import (
	"errors"
	"fmt"

	"github.com/invowk/textcmd/pkg/command"
)

const (
	// MultiMatchError fails a parse whose parameter slot holds more than
	// one candidate value.
	MultiMatchError MultiMatchPolicy = "error"
	// MultiMatchBest collapses every ambiguous slot to its highest-weighted
	// value.
	MultiMatchBest MultiMatchPolicy = "best"
)

var (
	// ErrInvalidMultiMatch is the sentinel wrapped by InvalidMultiMatchError.
	ErrInvalidMultiMatch = errors.New("invalid multi-match policy")
	// ErrInvalidOptions is returned by Options.Validate.
	ErrInvalidOptions = errors.New("invalid dispatch options")
)

type (
	// MultiMatchPolicy selects how ambiguous parses are handled.
	MultiMatchPolicy string

	// InvalidMultiMatchError is returned when a MultiMatchPolicy value is
	// not recognized.
	InvalidMultiMatchError struct {
		Value MultiMatchPolicy
	}

	// Options configures a Service.
	Options struct {
		// CaseSensitive disables case folding of aliases.
		CaseSensitive bool
		// ThrowOnError returns body faults of blocking commands from Execute
		// as an error in addition to capturing them in the Result.
		ThrowOnError bool
		// IgnoreExtraArgs accepts input with more tokens than parameters.
		IgnoreExtraArgs bool
		// Separator joins alias segments and separates arguments.
		Separator string
		// DefaultRunMode applies to commands declared with RunModeDefault.
		DefaultRunMode command.RunMode
		// MultiMatch handles parameter slots with several candidates.
		MultiMatch MultiMatchPolicy
	}
)

// DefaultOptions returns the default options.
func DefaultOptions() Options {
	return Options{
		ThrowOnError:   true,
		Separator:      command.DefaultSeparator,
		DefaultRunMode: command.RunModeBlocking,
		MultiMatch:     MultiMatchError,
	}
}

// String returns the string representation of the MultiMatchPolicy.
func (p MultiMatchPolicy) String() string { return string(p) }

// Validate returns nil if the MultiMatchPolicy is one of the defined policies.
func (p MultiMatchPolicy) Validate() error {
	switch p {
	case MultiMatchError, MultiMatchBest:
		return nil
	default:
		return &InvalidMultiMatchError{Value: p}
	}
}

// Error implements the error interface.
func (e *InvalidMultiMatchError) Error() string {
	return fmt.Sprintf("invalid multi-match policy %q (valid: error, best)", e.Value)
}

// Unwrap returns ErrInvalidMultiMatch.
func (e *InvalidMultiMatchError) Unwrap() error { return ErrInvalidMultiMatch }

// Validate checks every option and reports all problems together.
func (o Options) Validate() error {
	var errs []error
	if o.Separator == "" {
		errs = append(errs, errors.New("separator must not be empty"))
	}
	if err := o.DefaultRunMode.Validate(); err != nil {
		errs = append(errs, err)
	} else if o.DefaultRunMode == command.RunModeDefault {
		errs = append(errs, fmt.Errorf("default run mode must be %s or %s", command.RunModeBlocking, command.RunModeDetached))
	}
	if err := o.MultiMatch.Validate(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidOptions, errors.Join(errs...))
	}
	return nil
}
