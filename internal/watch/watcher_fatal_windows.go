// SPDX-License-Identifier: MPL-2.0

//go:build windows

package watch

import (
	"errors"
	"syscall"
)

// handleExhausted are the Win32 errors after which ReadDirectoryChangesW
// stops reporting descriptor edits: too many open handles (4), the watched
// directory handle going away (6) and no memory for the change buffer (8).
var handleExhausted = []error{syscall.Errno(4), syscall.Errno(6), syscall.Errno(8)}

func isFatalWatchError(err error) bool {
	for _, target := range handleExhausted {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
