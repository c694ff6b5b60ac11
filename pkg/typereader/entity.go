// SPDX-License-Identifier: MPL-2.0

package typereader

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/invowk/textcmd/pkg/command"
	"github.com/invowk/textcmd/pkg/entity"
)

// Entity match weights, best first.
const (
	WeightMention  = 1.0
	WeightID       = 0.9
	WeightName     = 0.7
	WeightNameFold = 0.65
)

// ErrNoDirectory is returned by entity readers when the invocation's
// Services provide no entity.Directory.
var ErrNoDirectory = errors.New("no entity directory available")

// Capability associates an entity capability marker with the factory that
// builds a reader for a parameter type satisfying it.
type Capability struct {
	Marker reflect.Type
	Kind   entity.Kind
	New    func(t reflect.Type) command.TypeReader
}

// Satisfied reports whether t is the marker or implements it.
func (c Capability) Satisfied(t reflect.Type) bool {
	return t == c.Marker || t.Implements(c.Marker)
}

// EntityCapabilities returns the ordered capability table used for default
// entity reader resolution. The first capability a type satisfies wins.
func EntityCapabilities() []Capability {
	return slices.Clone(capabilities)
}

var capabilities = []Capability{
	{Marker: reflect.TypeFor[entity.Message](), Kind: entity.KindMessage, New: entityReaderFactory(entity.KindMessage)},
	{Marker: reflect.TypeFor[entity.Channel](), Kind: entity.KindChannel, New: entityReaderFactory(entity.KindChannel)},
	{Marker: reflect.TypeFor[entity.Role](), Kind: entity.KindRole, New: entityReaderFactory(entity.KindRole)},
	{Marker: reflect.TypeFor[entity.User](), Kind: entity.KindUser, New: entityReaderFactory(entity.KindUser)},
}

func entityReaderFactory(kind entity.Kind) func(reflect.Type) command.TypeReader {
	return func(t reflect.Type) command.TypeReader {
		return EntityReader(kind, t)
	}
}

// EntityReader resolves tokens to entities of kind through the
// entity.Directory found in the invocation's Services. Only entities
// assignable to t are returned.
//
// A mention yields weight 1.0, a bare ID 0.9, an exact name 0.7 and a name
// differing only in case 0.65. Messages are resolved by ID only.
func EntityReader(kind entity.Kind, t reflect.Type) command.TypeReader {
	return command.TypeReaderFunc(func(ctx context.Context, _ command.Context, input string, svc command.Services) ([]command.Candidate, error) {
		dir, ok := command.Resolve[entity.Directory](svc)
		if !ok {
			return nil, ErrNoDirectory
		}
		input = strings.TrimSpace(input)

		var cands []command.Candidate
		add := func(e entity.Entity, weight float64) {
			if e == nil || !reflect.TypeOf(e).AssignableTo(t) {
				return
			}
			for i, c := range cands {
				if c.Value.(entity.Entity).ID() == e.ID() {
					cands[i].Weight = max(c.Weight, weight)
					return
				}
			}
			cands = append(cands, command.Candidate{Value: e, Weight: weight})
		}

		if id, ok := entity.ParseMention(kind, input); ok {
			e, err := lookupID(ctx, dir, kind, id)
			if err != nil {
				return nil, err
			}
			add(e, WeightMention)
		}
		if isID(input) {
			e, err := lookupID(ctx, dir, kind, input)
			if err != nil {
				return nil, err
			}
			add(e, WeightID)
		}
		if kind != entity.KindMessage && input != "" {
			named, err := dir.ByName(ctx, kind, input)
			if err != nil {
				return nil, fmt.Errorf("look up %s %q: %w", kind, input, err)
			}
			for _, e := range named {
				if e.Name() == input {
					add(e, WeightName)
				} else {
					add(e, WeightNameFold)
				}
			}
		}

		if len(cands) == 0 {
			return nil, fmt.Errorf("%s %q not found", kind, input)
		}
		return cands, nil
	})
}

// lookupID returns nil without error when the ID is unknown.
func lookupID(ctx context.Context, dir entity.Directory, kind entity.Kind, id string) (entity.Entity, error) {
	e, err := dir.ByID(ctx, kind, id)
	switch {
	case errors.Is(err, entity.ErrNotFound):
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("look up %s %s: %w", kind, id, err)
	}
	return e, nil
}

func isID(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
