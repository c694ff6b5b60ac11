// SPDX-License-Identifier: MPL-2.0

// Package watch reports debounced filesystem changes and uses them to
// reload module descriptors into a running registry.
package watch
