// SPDX-License-Identifier: MPL-2.0

// Package event provides a typed multi-subscriber observer hub.
package event
