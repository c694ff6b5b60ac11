// SPDX-License-Identifier: MPL-2.0

// Package aliasindex maps full command aliases to commands for prefix
// lookup of free-form input.
package aliasindex
