// SPDX-License-Identifier: MPL-2.0

package typereader

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/invowk/textcmd/pkg/command"
)

var (
	enumType = reflect.TypeFor[Enum]()

	// ErrNotEnum is returned by NewEnumReader for pointer types and types
	// that do not implement Enum or declare no members.
	ErrNotEnum = errors.New("type is not an enumeration")
)

// Enum is implemented by enumeration types. EnumMembers lists every member
// value (each of the implementing type); a member's name is its String form.
//
//	type Color string
//
//	func (c Color) String() string      { return string(c) }
//	func (Color) EnumMembers() []Enum   { return []Enum{Red, Green} }
type Enum interface {
	fmt.Stringer
	EnumMembers() []Enum
}

type enumMember struct {
	name  string
	value any
	num   string
}

// NewEnumReader builds a reader for the enumeration type t. Tokens match a
// member name ignoring case, or the decimal value of an integer-kinded
// member. Pointer types are rejected; their nullable reader wraps the
// reader of the element type.
func NewEnumReader(t reflect.Type) (command.TypeReader, error) {
	if t.Kind() == reflect.Pointer || !t.Implements(enumType) {
		return nil, fmt.Errorf("%s: %w", t, ErrNotEnum)
	}
	zero, _ := reflect.Zero(t).Interface().(Enum)
	if zero == nil {
		return nil, fmt.Errorf("%s: %w", t, ErrNotEnum)
	}

	var members []enumMember
	for _, m := range zero.EnumMembers() {
		if m == nil || reflect.TypeOf(m) != t {
			continue
		}
		em := enumMember{name: m.String(), value: m}
		switch v := reflect.ValueOf(m); v.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			em.num = strconv.FormatInt(v.Int(), 10)
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			em.num = strconv.FormatUint(v.Uint(), 10)
		}
		members = append(members, em)
	}
	if len(members) == 0 {
		return nil, fmt.Errorf("%s declares no members: %w", t, ErrNotEnum)
	}

	return command.TypeReaderFunc(func(_ context.Context, _ command.Context, input string, _ command.Services) ([]command.Candidate, error) {
		input = strings.TrimSpace(input)
		for _, m := range members {
			if strings.EqualFold(m.name, input) || (m.num != "" && m.num == input) {
				return command.Single(m.value, 1), nil
			}
		}
		return nil, fmt.Errorf("%q is not a valid %s", input, t.Name())
	}), nil
}
