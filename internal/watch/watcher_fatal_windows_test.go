// SPDX-License-Identifier: MPL-2.0

//go:build windows

package watch

import (
	"errors"
	"fmt"
	"syscall"
	"testing"
)

func TestIsFatalWatchError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		want bool
	}{
		{syscall.Errno(4), true},
		{syscall.Errno(6), true},
		{syscall.Errno(8), true},
		{fmt.Errorf("watch descriptor directory: %w", syscall.Errno(6)), true},
		{syscall.Errno(5), false},
		{syscall.Errno(2), false},
		{errors.New("descriptor vanished"), false},
		{nil, false},
	}
	for _, tt := range tests {
		if got := isFatalWatchError(tt.err); got != tt.want {
			t.Errorf("isFatalWatchError(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}
