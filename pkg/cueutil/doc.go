// SPDX-License-Identifier: MPL-2.0

// Package cueutil holds the CUE compile, unify and decode flow shared by the
// configuration loader and the module descriptor loader.
//
//	//go:embed descriptor_schema.cue
//	var schema []byte
//
//	res, err := cueutil.Decode[File](schema, data, "#File", cueutil.WithFilename(path))
//
// Errors carry the file name and a JSON-style path to the offending field.
package cueutil
