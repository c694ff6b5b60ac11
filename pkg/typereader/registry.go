// SPDX-License-Identifier: MPL-2.0

package typereader

import (
	"maps"
	"reflect"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/invowk/textcmd/pkg/command"
)

type (
	// Registry holds explicitly registered type readers and falls back to
	// the process-wide default readers.
	//
	// Mutations are serialized; Resolve reads an immutable snapshot and
	// never blocks on a concurrent registration.
	Registry struct {
		mu       sync.Mutex
		explicit atomic.Pointer[readerTable]
	}

	readerTable map[reflect.Type][]command.TypeReader
)

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	r := &Registry{}
	r.explicit.Store(&readerTable{})
	return r
}

// Add registers reader for t. For value-semantic types a nullable companion
// is registered for *t, mapping an empty token, "null" or "nothing" to nil.
func (r *Registry) Add(t reflect.Type, reader command.TypeReader) {
	r.add(t, reader, true)
}

// AddExact registers reader for t without a nullable companion.
func (r *Registry) AddExact(t reflect.Type, reader command.TypeReader) {
	r.add(t, reader, false)
}

// Register is the generic form of Add.
func Register[T any](r *Registry, reader command.TypeReader) {
	r.Add(reflect.TypeFor[T](), reader)
}

func (r *Registry) add(t reflect.Type, reader command.TypeReader, nullable bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	next := maps.Clone(r.table())
	if next == nil {
		next = readerTable{}
	}
	next[t] = append(slices.Clip(next[t]), reader)
	if nullable && IsValueType(t) {
		pt := reflect.PointerTo(t)
		next[pt] = append(slices.Clip(next[pt]), Nullable(t, reader))
	}
	r.explicit.Store(&next)
}

// Resolve returns the readers applicable to t: explicit readers in
// registration order, otherwise the cached default reader, otherwise nil.
func (r *Registry) Resolve(t reflect.Type) []command.TypeReader {
	if readers := r.table()[t]; len(readers) > 0 {
		return slices.Clone(readers)
	}
	if d, ok := Default(t); ok {
		return []command.TypeReader{d}
	}
	return nil
}

// Has reports whether Resolve(t) yields at least one reader.
func (r *Registry) Has(t reflect.Type) bool {
	if len(r.table()[t]) > 0 {
		return true
	}
	_, ok := Default(t)
	return ok
}

// Readers returns a copy of the explicitly registered readers by type.
func (r *Registry) Readers() map[reflect.Type][]command.TypeReader {
	snap := r.table()
	out := make(map[reflect.Type][]command.TypeReader, len(snap))
	for t, readers := range snap {
		out[t] = slices.Clone(readers)
	}
	return out
}

func (r *Registry) table() readerTable {
	if p := r.explicit.Load(); p != nil {
		return *p
	}
	return nil
}

// IsValueType reports whether t has value semantics, i.e. whether a nil
// form of it needs a pointer.
func IsValueType(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Slice, reflect.Map,
		reflect.Func, reflect.Chan, reflect.UnsafePointer, reflect.Invalid:
		return false
	default:
		return true
	}
}
