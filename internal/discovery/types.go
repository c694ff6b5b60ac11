// SPDX-License-Identifier: MPL-2.0

package discovery

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/invowk/textcmd/pkg/command"
	"github.com/invowk/textcmd/pkg/entity"
	"github.com/invowk/textcmd/pkg/typereader"
)

// ErrUnknownType is the sentinel wrapped by UnknownTypeError.
var ErrUnknownType = errors.New("unknown parameter type")

// UnknownTypeError is returned for a parameter type name outside TypeNames,
// or a nullable suffix on a type that cannot be nil.
type UnknownTypeError struct {
	Name string
}

// TypeNames maps descriptor type names to parameter types.
var TypeNames = map[string]reflect.Type{
	"string":   reflect.TypeFor[string](),
	"bool":     reflect.TypeFor[bool](),
	"int":      reflect.TypeFor[int](),
	"int64":    reflect.TypeFor[int64](),
	"uint":     reflect.TypeFor[uint](),
	"float":    reflect.TypeFor[float64](),
	"duration": reflect.TypeFor[time.Duration](),
	"time":     reflect.TypeFor[time.Time](),
	"uuid":     reflect.TypeFor[uuid.UUID](),
	"user":     reflect.TypeFor[entity.User](),
	"channel":  reflect.TypeFor[entity.Channel](),
	"role":     reflect.TypeFor[entity.Role](),
	"message":  reflect.TypeFor[entity.Message](),
}

// Error implements the error interface.
func (e *UnknownTypeError) Error() string {
	return fmt.Sprintf("unknown parameter type %q", e.Name)
}

// Unwrap returns ErrUnknownType.
func (e *UnknownTypeError) Unwrap() error { return ErrUnknownType }

// ResolveType maps a type name to its reflect.Type. "int?" yields *int.
func ResolveType(name string) (reflect.Type, error) {
	base, nullable := strings.CutSuffix(name, "?")
	t, ok := TypeNames[base]
	if !ok {
		return nil, &UnknownTypeError{Name: name}
	}
	if !nullable {
		return t, nil
	}
	if !typereader.IsValueType(t) {
		return nil, &UnknownTypeError{Name: name}
	}
	return reflect.PointerTo(t), nil
}

// parseDefault converts a declared default with the type's built-in
// reader. Multiple parameters take a whitespace-separated list.
func parseDefault(t reflect.Type, raw string, multiple bool) (any, error) {
	reader, ok := typereader.Default(t)
	if !ok {
		return nil, fmt.Errorf("type %s cannot have a default", t)
	}
	if !multiple {
		return readOne(reader, t, raw)
	}
	fields := strings.Fields(raw)
	out := reflect.MakeSlice(reflect.SliceOf(t), 0, len(fields))
	for _, f := range fields {
		v, err := readOne(reader, t, f)
		if err != nil {
			return nil, err
		}
		out = reflect.Append(out, reflect.ValueOf(v))
	}
	return out.Interface(), nil
}

func readOne(reader command.TypeReader, t reflect.Type, raw string) (any, error) {
	cands, err := reader.Read(context.Background(), nil, raw, nil)
	if err != nil {
		return nil, fmt.Errorf("default %q: %w", raw, err)
	}
	best, ok := command.Best(cands)
	if !ok {
		return nil, fmt.Errorf("default %q: not a %s", raw, t)
	}
	return best.Value, nil
}
