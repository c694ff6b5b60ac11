// SPDX-License-Identifier: MPL-2.0

// Package argparse splits command argument input into tokens, honoring
// quotes (including typographic quote pairs) and backslash escapes.
package argparse
