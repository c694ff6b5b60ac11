// SPDX-License-Identifier: MPL-2.0

// Package typereader resolves parameter types to the readers that convert
// raw tokens into weighted candidate values.
//
// Explicit readers are registered per Registry. Types without one fall back
// to a default reader resolved once per type and cached for the process:
// the built-in primitives (bool, integers, floats, string, time.Duration,
// time.Time, uuid.UUID), enumerations implementing Enum, and entity types
// matched against the ordered EntityCapabilities table.
package typereader
