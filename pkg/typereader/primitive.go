// SPDX-License-Identifier: MPL-2.0

package typereader

import (
	"context"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/exp/constraints"

	"github.com/invowk/textcmd/pkg/command"
)

// TimeLayouts are tried in order by the time.Time reader.
var TimeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
	time.Kitchen,
}

var primitiveReaders = map[reflect.Type]command.TypeReader{
	reflect.TypeFor[bool]():          Bool(),
	reflect.TypeFor[string]():        String(),
	reflect.TypeFor[int]():           Signed[int](strconv.IntSize),
	reflect.TypeFor[int8]():          Signed[int8](8),
	reflect.TypeFor[int16]():         Signed[int16](16),
	reflect.TypeFor[int32]():         Signed[int32](32),
	reflect.TypeFor[int64]():         Signed[int64](64),
	reflect.TypeFor[uint]():          Unsigned[uint](strconv.IntSize),
	reflect.TypeFor[uint8]():         Unsigned[uint8](8),
	reflect.TypeFor[uint16]():        Unsigned[uint16](16),
	reflect.TypeFor[uint32]():        Unsigned[uint32](32),
	reflect.TypeFor[uint64]():        Unsigned[uint64](64),
	reflect.TypeFor[float32]():       Float[float32](32),
	reflect.TypeFor[float64]():       Float[float64](64),
	reflect.TypeFor[time.Duration](): Duration(),
	reflect.TypeFor[time.Time]():     Time(),
	reflect.TypeFor[uuid.UUID]():     UUID(),
}

// parseFunc adapts a plain parse function to a full-weight reader.
func parseFunc[T any](what string, parse func(string) (T, error)) command.TypeReader {
	return command.TypeReaderFunc(func(_ context.Context, _ command.Context, input string, _ command.Services) ([]command.Candidate, error) {
		v, err := parse(strings.TrimSpace(input))
		if err != nil {
			return nil, fmt.Errorf("failed to parse %q as %s", input, what)
		}
		return command.Single(v, 1), nil
	})
}

// String returns the input unchanged.
func String() command.TypeReader {
	return command.TypeReaderFunc(func(_ context.Context, _ command.Context, input string, _ command.Services) ([]command.Candidate, error) {
		return command.Single(input, 1), nil
	})
}

// Bool parses true/false in the forms accepted by strconv.ParseBool.
func Bool() command.TypeReader {
	return parseFunc("bool", strconv.ParseBool)
}

// Signed parses a signed integer of the given bit size. Base prefixes
// (0x, 0o, 0b) are accepted.
func Signed[T constraints.Signed](bits int) command.TypeReader {
	what := reflect.TypeFor[T]().String()
	return parseFunc(what, func(s string) (T, error) {
		v, err := strconv.ParseInt(s, 0, bits)
		return T(v), err
	})
}

// Unsigned parses an unsigned integer of the given bit size.
func Unsigned[T constraints.Unsigned](bits int) command.TypeReader {
	what := reflect.TypeFor[T]().String()
	return parseFunc(what, func(s string) (T, error) {
		v, err := strconv.ParseUint(s, 0, bits)
		return T(v), err
	})
}

// Float parses a floating point number of the given bit size.
func Float[T constraints.Float](bits int) command.TypeReader {
	what := reflect.TypeFor[T]().String()
	return parseFunc(what, func(s string) (T, error) {
		v, err := strconv.ParseFloat(s, bits)
		return T(v), err
	})
}

// Duration parses a Go duration such as "1h30m".
func Duration() command.TypeReader {
	return parseFunc("duration", time.ParseDuration)
}

// Time parses a timestamp using TimeLayouts.
func Time() command.TypeReader {
	return parseFunc("time", func(s string) (time.Time, error) {
		var firstErr error
		for _, layout := range TimeLayouts {
			t, err := time.Parse(layout, s)
			if err == nil {
				return t, nil
			}
			if firstErr == nil {
				firstErr = err
			}
		}
		return time.Time{}, firstErr
	})
}

// UUID parses a UUID in any form accepted by uuid.Parse.
func UUID() command.TypeReader {
	return parseFunc("uuid", uuid.Parse)
}
