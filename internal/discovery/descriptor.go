// SPDX-License-Identifier: MPL-2.0

package discovery

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/invowk/textcmd/pkg/cueutil"
)

const (
	// CUEExt and TOMLExt are the recognized descriptor suffixes.
	CUEExt  = ".textcmd.cue"
	TOMLExt = ".textcmd.toml"
)

// ErrUnsupportedFormat is returned for files with neither descriptor suffix.
var ErrUnsupportedFormat = errors.New("unsupported descriptor format")

//go:embed descriptor_schema.cue
var descriptorSchema []byte

type (
	// File is one decoded descriptor.
	File struct {
		Modules []ModuleDecl `json:"modules" toml:"modules"`
	}

	// ModuleDecl declares a module; Key is set on root modules only.
	ModuleDecl struct {
		Key           string             `json:"key,omitempty" toml:"key"`
		Name          string             `json:"name,omitempty" toml:"name"`
		Summary       string             `json:"summary,omitempty" toml:"summary"`
		Aliases       []string           `json:"aliases,omitempty" toml:"aliases"`
		Preconditions []PreconditionDecl `json:"preconditions,omitempty" toml:"preconditions"`
		Commands      []CommandDecl      `json:"commands,omitempty" toml:"commands"`
		Submodules    []ModuleDecl       `json:"submodules,omitempty" toml:"submodules"`
	}

	// CommandDecl declares a command whose body is Script.
	CommandDecl struct {
		Name          string             `json:"name,omitempty" toml:"name"`
		Summary       string             `json:"summary,omitempty" toml:"summary"`
		Aliases       []string           `json:"aliases,omitempty" toml:"aliases"`
		Priority      int                `json:"priority" toml:"priority"`
		RunMode       string             `json:"run_mode" toml:"run_mode"`
		Parameters    []ParamDecl        `json:"parameters,omitempty" toml:"parameters"`
		Preconditions []PreconditionDecl `json:"preconditions,omitempty" toml:"preconditions"`
		Script        string             `json:"script" toml:"script"`
	}

	// ParamDecl declares a parameter. Type is a name from TypeNames, with a
	// trailing "?" for a nullable value. Default is parsed with the type's
	// built-in reader.
	ParamDecl struct {
		Name      string  `json:"name" toml:"name"`
		Summary   string  `json:"summary,omitempty" toml:"summary"`
		Type      string  `json:"type" toml:"type"`
		Optional  bool    `json:"optional" toml:"optional"`
		Default   *string `json:"default,omitempty" toml:"default"`
		Remainder bool    `json:"remainder" toml:"remainder"`
		Multiple  bool    `json:"multiple" toml:"multiple"`
	}

	// PreconditionDecl names a built-in precondition. Entries sharing a
	// Group pass when any one of them passes.
	PreconditionDecl struct {
		Require string `json:"require" toml:"require"`
		Group   string `json:"group,omitempty" toml:"group"`
	}
)

// IsDescriptor reports whether path has a descriptor suffix.
func IsDescriptor(path string) bool {
	return strings.HasSuffix(path, CUEExt) || strings.HasSuffix(path, TOMLExt)
}

// ParseFile decodes and validates a descriptor. The format is chosen by suffix.
func ParseFile(path string, data []byte) (*File, error) {
	name := filepath.Base(path)
	switch {
	case strings.HasSuffix(path, CUEExt):
		return decode(data, name)
	case strings.HasSuffix(path, TOMLExt):
		if err := cueutil.CheckFileSize(data, cueutil.DefaultMaxFileSize, name); err != nil {
			return nil, err
		}
		var doc map[string]any
		if err := toml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		// JSON is valid CUE, so the one schema covers both formats.
		asJSON, err := json.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		return decode(asJSON, name)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, name)
	}
}

func decode(data []byte, name string) (*File, error) {
	res, err := cueutil.Decode[File](descriptorSchema, data, "#File", cueutil.WithFilename(name))
	if err != nil {
		return nil, err
	}
	return res.Value, nil
}
