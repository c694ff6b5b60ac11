// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/viper"

	"github.com/invowk/textcmd/internal/issue"
	"github.com/invowk/textcmd/pkg/cueutil"
)

const (
	// AppName is the application name.
	AppName = "textcmd"
	// EnvPrefix prefixes environment overrides (TEXTCMD_UI_VERBOSE=true).
	EnvPrefix = "TEXTCMD"
	// ConfigFileName is the name of the config file (without extension).
	ConfigFileName = "config"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "cue"
)

//go:embed config_schema.cue
var configSchema []byte

// ConfigDir returns the textcmd configuration directory using platform-specific
// conventions: Windows uses %APPDATA%, macOS uses ~/Library/Application Support,
// and Linux/others use $XDG_CONFIG_HOME (defaulting to ~/.config).
//
//nolint:revive // ConfigDir is more descriptive than Dir for external callers
func ConfigDir() (string, error) {
	if configDirOverride != "" {
		return configDirOverride, nil
	}

	var configDir string

	switch runtime.GOOS {
	case "windows":
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, "Library", "Application Support")
	default:
		configDir = os.Getenv("XDG_CONFIG_HOME")
		if configDir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			configDir = filepath.Join(home, ".config")
		}
	}

	return filepath.Join(configDir, AppName), nil
}

// loadWithOptions loads defaults, then the CUE file, then environment
// overrides, and validates the result. It returns the path of the file that
// was read ("" when only defaults apply).
func loadWithOptions(ctx context.Context, opts LoadOptions) (*Config, string, error) {
	select {
	case <-ctx.Done():
		return nil, "", fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	v := viper.New()
	setDefaults(v, DefaultConfig())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	path, err := resolveConfigPath(opts)
	if err != nil {
		return nil, "", err
	}
	if path != "" {
		if err := loadCUEIntoViper(v, path); err != nil {
			return nil, "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(path).
				WithIssue(issue.ConfigLoadFailedId).
				WithSuggestion("Check that the file contains valid CUE syntax").
				WithSuggestion("Verify the configuration values match the expected schema").
				WithSuggestion("Use 'textcmd config show' to see the effective configuration").
				Wrap(err).
				BuildError()
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", issue.NewErrorContext().
			WithOperation("validate configuration").
			WithResource(path).
			WithIssue(issue.ConfigLoadFailedId).
			WithSuggestion("Check TEXTCMD_* environment variables for typos").
			Wrap(err).
			BuildError()
	}

	return &cfg, path, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("dispatch.case_sensitive", d.Dispatch.CaseSensitive)
	v.SetDefault("dispatch.throw_on_error", d.Dispatch.ThrowOnError)
	v.SetDefault("dispatch.ignore_extra_args", d.Dispatch.IgnoreExtraArgs)
	v.SetDefault("dispatch.separator", d.Dispatch.Separator)
	v.SetDefault("dispatch.default_run_mode", string(d.Dispatch.DefaultRunMode))
	v.SetDefault("dispatch.multi_match", string(d.Dispatch.MultiMatch))
	v.SetDefault("dispatch.log_level", string(d.Dispatch.LogLevel))
	v.SetDefault("modules.paths", d.Modules.Paths)
	v.SetDefault("modules.watch", d.Modules.Watch)
	v.SetDefault("shell.enabled", d.Shell.Enabled)
	v.SetDefault("shell.workdir", d.Shell.Workdir)
	v.SetDefault("ui.verbose", d.UI.Verbose)
	v.SetDefault("ui.color", string(d.UI.Color))
}

// resolveConfigPath picks the explicit file, then the config directory, then
// the working directory. A missing explicit file is an error; otherwise no
// file at all is fine.
func resolveConfigPath(opts LoadOptions) (string, error) {
	if opts.ConfigFilePath != "" {
		if !fileExists(opts.ConfigFilePath) {
			return "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(opts.ConfigFilePath).
				WithIssue(issue.ConfigLoadFailedId).
				WithSuggestion("Verify the file path is correct").
				WithSuggestion("Check that the file exists and is readable").
				Wrap(fmt.Errorf("config file not found: %s", opts.ConfigFilePath)).
				BuildError()
		}
		return opts.ConfigFilePath, nil
	}

	cfgDir := opts.ConfigDirPath
	if cfgDir == "" {
		var err error
		if cfgDir, err = ConfigDir(); err != nil {
			return "", err
		}
	}
	name := ConfigFileName + "." + ConfigFileExt
	for _, candidate := range []string{filepath.Join(cfgDir, name), name} {
		if fileExists(candidate) {
			return candidate, nil
		}
	}
	return "", nil
}

// loadCUEIntoViper validates a CUE file against #Config and merges it over
// the defaults. Fields are optional, so concreteness is not required.
func loadCUEIntoViper(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	configMap, err := cueutil.DecodeMap(configSchema, data, "#Config",
		cueutil.WithFilename(path), cueutil.WithConcrete(false))
	if err != nil {
		return err
	}

	if err := v.MergeConfigMap(configMap); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false
	}
	return err == nil && !info.IsDir()
}

// CreateDefaultConfig writes the default config file if it doesn't exist and
// returns its path.
func CreateDefaultConfig() (string, error) {
	cfgDir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(cfgDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	cfgPath := filepath.Join(cfgDir, ConfigFileName+"."+ConfigFileExt)
	if _, err := os.Stat(cfgPath); err == nil {
		return cfgPath, nil
	}

	if err := os.WriteFile(cfgPath, []byte(GenerateCUE(DefaultConfig())), 0o644); err != nil {
		return "", fmt.Errorf("failed to write config file: %w", err)
	}
	return cfgPath, nil
}

// GenerateCUE renders cfg in the config file format.
func GenerateCUE(cfg *Config) string {
	var sb strings.Builder

	sb.WriteString("// textcmd configuration file\n\n")

	sb.WriteString("dispatch: {\n")
	fmt.Fprintf(&sb, "\tcase_sensitive:    %v\n", cfg.Dispatch.CaseSensitive)
	fmt.Fprintf(&sb, "\tthrow_on_error:    %v\n", cfg.Dispatch.ThrowOnError)
	fmt.Fprintf(&sb, "\tignore_extra_args: %v\n", cfg.Dispatch.IgnoreExtraArgs)
	fmt.Fprintf(&sb, "\tseparator:         %q\n", cfg.Dispatch.Separator)
	fmt.Fprintf(&sb, "\tdefault_run_mode:  %q\n", cfg.Dispatch.DefaultRunMode)
	fmt.Fprintf(&sb, "\tmulti_match:       %q\n", cfg.Dispatch.MultiMatch)
	fmt.Fprintf(&sb, "\tlog_level:         %q\n", cfg.Dispatch.LogLevel)
	sb.WriteString("}\n")

	sb.WriteString("\nmodules: {\n")
	sb.WriteString("\tpaths: [")
	for i, p := range cfg.Modules.Paths {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%q", p)
	}
	sb.WriteString("]\n")
	fmt.Fprintf(&sb, "\twatch: %v\n", cfg.Modules.Watch)
	sb.WriteString("}\n")

	sb.WriteString("\nshell: {\n")
	fmt.Fprintf(&sb, "\tenabled: %v\n", cfg.Shell.Enabled)
	if cfg.Shell.Workdir != "" {
		fmt.Fprintf(&sb, "\tworkdir: %q\n", cfg.Shell.Workdir)
	}
	sb.WriteString("}\n")

	sb.WriteString("\nui: {\n")
	fmt.Fprintf(&sb, "\tverbose: %v\n", cfg.UI.Verbose)
	fmt.Fprintf(&sb, "\tcolor:   %q\n", cfg.UI.Color)
	sb.WriteString("}\n")

	return sb.String()
}
