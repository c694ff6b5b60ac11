// SPDX-License-Identifier: MPL-2.0

package typereader

import (
	"reflect"
	"sync"

	"github.com/invowk/textcmd/pkg/command"
)

// defaults caches default reader resolution per type for the process
// lifetime; a nil entry records that no default exists.
var defaults sync.Map // reflect.Type -> command.TypeReader

// Default returns the default reader for t, resolving it on first use:
// built-in primitives first, then enumerations, then the first entity
// capability t satisfies. Pointers to a type with a default get the
// nullable form of that default.
func Default(t reflect.Type) (command.TypeReader, bool) {
	if t == nil {
		return nil, false
	}
	if cached, ok := defaults.Load(t); ok {
		reader, _ := cached.(command.TypeReader)
		return reader, reader != nil
	}
	reader := resolveDefault(t)
	actual, _ := defaults.LoadOrStore(t, reader)
	got, _ := actual.(command.TypeReader)
	return got, got != nil
}

func resolveDefault(t reflect.Type) command.TypeReader {
	if reader, ok := primitiveReaders[t]; ok {
		return reader
	}
	if t.Kind() != reflect.Pointer && t.Implements(enumType) {
		if reader, err := NewEnumReader(t); err == nil {
			return reader
		}
	}
	for _, c := range EntityCapabilities() {
		if c.Satisfied(t) {
			return c.New(t)
		}
	}
	if t.Kind() == reflect.Pointer && IsValueType(t.Elem()) {
		if inner, ok := Default(t.Elem()); ok {
			return Nullable(t.Elem(), inner)
		}
	}
	return nil
}
