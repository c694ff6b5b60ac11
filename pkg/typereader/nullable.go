// SPDX-License-Identifier: MPL-2.0

package typereader

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/invowk/textcmd/pkg/command"
)

// nullTokens are the inputs a nullable reader maps to nil, compared
// ignoring case. The empty token is always null.
var nullTokens = []string{"null", "nothing"}

// Nullable wraps inner, a reader for elem, into a reader for *elem.
// Null tokens yield a nil pointer with full weight; anything else is
// delegated to inner and each candidate is boxed into a new pointer.
func Nullable(elem reflect.Type, inner command.TypeReader) command.TypeReader {
	ptr := reflect.PointerTo(elem)
	null := reflect.Zero(ptr).Interface()

	return command.TypeReaderFunc(func(ctx context.Context, ictx command.Context, input string, svc command.Services) ([]command.Candidate, error) {
		if IsNull(input) {
			return command.Single(null, 1), nil
		}
		cands, err := inner.Read(ctx, ictx, input, svc)
		if err != nil {
			return nil, err
		}
		out := make([]command.Candidate, 0, len(cands))
		for _, c := range cands {
			v := reflect.ValueOf(c.Value)
			if !v.IsValid() || !v.Type().AssignableTo(elem) {
				continue
			}
			p := reflect.New(elem)
			p.Elem().Set(v)
			out = append(out, command.Candidate{Value: p.Interface(), Weight: c.Weight})
		}
		if len(out) == 0 {
			return nil, fmt.Errorf("failed to parse %q as %s", input, ptr)
		}
		return out, nil
	})
}

// IsNull reports whether input is a null token.
func IsNull(input string) bool {
	input = strings.TrimSpace(input)
	if input == "" {
		return true
	}
	for _, tok := range nullTokens {
		if strings.EqualFold(input, tok) {
			return true
		}
	}
	return false
}
