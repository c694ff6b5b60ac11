// SPDX-License-Identifier: MPL-2.0

//go:build !windows

package watch

import (
	"errors"
	"syscall"
)

// inotifyExhausted are the errors after which the watch set can no longer
// grow: the per-user watch limit (ENOSPC) or a descriptor limit. Hot reload
// stops with such an error instead of silently missing descriptor edits.
var inotifyExhausted = []error{syscall.ENOSPC, syscall.EMFILE, syscall.ENFILE}

func isFatalWatchError(err error) bool {
	for _, target := range inotifyExhausted {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
