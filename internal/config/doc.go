// SPDX-License-Identifier: MPL-2.0

// Package config loads the textcmd configuration with Viper, using CUE as the
// file format.
//
// The file is config.cue in the platform config directory
// (~/.config/textcmd on Linux, ~/Library/Application Support/textcmd on macOS,
// %APPDATA%\textcmd on Windows) or the current directory. It is validated
// against the embedded #Config schema, merged over the built-in defaults and
// then overridden by TEXTCMD_* environment variables
// (e.g. TEXTCMD_DISPATCH_MULTI_MATCH=best).
package config
