// SPDX-License-Identifier: MPL-2.0

package cmd

import "fmt"

// Exit codes for pipeline outcomes that have no script exit status.
const (
	ExitFailure        = 1
	ExitParseFailed    = 2
	ExitPrecondition   = 126
	ExitUnknownCommand = 127
)

// ExitError signals a non-zero exit code without calling os.Exit in RunE
// handlers. The failure has already been rendered when Err is nil.
type ExitError struct {
	Code int
	Err  error
}

// Error returns the error message for ExitError.
func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("exit status %d", e.Code)
}

// Unwrap returns the underlying error, if any.
func (e *ExitError) Unwrap() error {
	return e.Err
}
