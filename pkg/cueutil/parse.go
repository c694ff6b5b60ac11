// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

// Result contains a decoded document and the unified CUE value it came from.
type Result[T any] struct {
	Value   *T
	Unified cue.Value
}

// Decode compiles schema, unifies data with the definition at schemaPath
// (e.g. "#File"), validates the result and decodes it into a T.
func Decode[T any](schema, data []byte, schemaPath string, opts ...Option) (*Result[T], error) {
	unified, o, err := unify(schema, data, schemaPath, opts)
	if err != nil {
		return nil, err
	}

	var out T
	if err := unified.Decode(&out); err != nil {
		return nil, FormatError(err, o.filename)
	}
	return &Result[T]{Value: &out, Unified: unified}, nil
}

// DecodeMap is Decode into a generic map, for merging into viper.
func DecodeMap(schema, data []byte, schemaPath string, opts ...Option) (map[string]any, error) {
	unified, o, err := unify(schema, data, schemaPath, opts)
	if err != nil {
		return nil, err
	}

	var out map[string]any
	if err := unified.Decode(&out); err != nil {
		return nil, FormatError(err, o.filename)
	}
	return out, nil
}

func unify(schema, data []byte, schemaPath string, opts []Option) (cue.Value, options, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	if err := CheckFileSize(data, o.maxFileSize, o.filename); err != nil {
		return cue.Value{}, o, err
	}

	ctx := cuecontext.New()

	schemaValue := ctx.CompileBytes(schema)
	if schemaValue.Err() != nil {
		return cue.Value{}, o, fmt.Errorf("internal error: failed to compile schema: %w", schemaValue.Err())
	}
	root := schemaValue.LookupPath(cue.ParsePath(schemaPath))
	if root.Err() != nil {
		return cue.Value{}, o, fmt.Errorf("internal error: schema definition %s not found: %w", schemaPath, root.Err())
	}

	userValue := ctx.CompileBytes(data, cue.Filename(o.filename))
	if userValue.Err() != nil {
		return cue.Value{}, o, FormatError(userValue.Err(), o.filename)
	}

	unified := root.Unify(userValue)
	if err := unified.Validate(cue.Concrete(o.concrete)); err != nil {
		return cue.Value{}, o, FormatError(err, o.filename)
	}
	return unified, o, nil
}
