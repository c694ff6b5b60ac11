// SPDX-License-Identifier: MPL-2.0

// Package discovery loads module descriptors (*.textcmd.cue and
// *.textcmd.toml files) and turns them into command.ModuleType values whose
// commands run shell scripts.
//
// Both formats are validated against the same embedded CUE schema: TOML
// documents are decoded, re-encoded as JSON (a subset of CUE) and unified
// with #File. Files that fail to load are reported as diagnostics and
// skipped; the remaining files still contribute their modules.
package discovery
