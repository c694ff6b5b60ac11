// SPDX-License-Identifier: MPL-2.0

package config

import "context"

type (
	// LoadOptions defines explicit configuration loading inputs.
	LoadOptions struct {
		// ConfigFilePath forces loading from a specific config file when set.
		ConfigFilePath string
		// ConfigDirPath overrides the config directory lookup when set.
		ConfigDirPath string
	}

	// Provider loads configuration from explicit options.
	Provider interface {
		Load(ctx context.Context, opts LoadOptions) (*Config, error)
	}

	// Loaded is a configuration together with the file it was read from.
	Loaded struct {
		Config *Config
		Path   string
	}

	fileProvider struct{}
)

// NewProvider creates a configuration provider reading config.cue files.
func NewProvider() Provider {
	return &fileProvider{}
}

// Load reads configuration from the requested source.
func (p *fileProvider) Load(ctx context.Context, opts LoadOptions) (*Config, error) {
	cfg, _, err := loadWithOptions(ctx, opts)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadWithPath is Load that also reports the file that was read.
func LoadWithPath(ctx context.Context, opts LoadOptions) (Loaded, error) {
	cfg, path, err := loadWithOptions(ctx, opts)
	if err != nil {
		return Loaded{}, err
	}
	return Loaded{Config: cfg, Path: path}, nil
}
