// SPDX-License-Identifier: MPL-2.0

package typereader

import (
	"context"
	"errors"
	"reflect"

	"github.com/invowk/textcmd/pkg/command"
)

// ErrNoReader is returned by ReadAll when given no readers.
var ErrNoReader = errors.New("no type reader")

// ReadAll runs every reader on input and merges the successful candidates.
// Equal comparable values keep the highest weight and the position of their
// first occurrence. When no reader succeeds the first failure is returned.
func ReadAll(ctx context.Context, readers []command.TypeReader, ictx command.Context, input string, svc command.Services) ([]command.Candidate, error) {
	if len(readers) == 0 {
		return nil, ErrNoReader
	}

	var (
		merged   []command.Candidate
		firstErr error
	)
	for _, r := range readers {
		cands, err := r.Read(ctx, ictx, input, svc)
		if err == nil && len(cands) == 0 {
			err = errors.New("type reader returned no values")
		}
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		merged = Merge(merged, cands)
	}
	if len(merged) == 0 {
		return nil, firstErr
	}
	return merged, nil
}

// Merge appends add to into, collapsing equal comparable values onto the
// highest weight.
func Merge(into, add []command.Candidate) []command.Candidate {
outer:
	for _, c := range add {
		for i, existing := range into {
			if sameValue(existing.Value, c.Value) {
				into[i].Weight = max(existing.Weight, c.Weight)
				continue outer
			}
		}
		into = append(into, c)
	}
	return into
}

func sameValue(a, b any) bool {
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb {
		return false
	}
	if ta == nil {
		return true
	}
	if !ta.Comparable() {
		return false
	}
	return a == b
}
