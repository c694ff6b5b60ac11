// SPDX-License-Identifier: MPL-2.0

// Package entity defines the platform entity capability markers (Message,
// Channel, Role, User) that default type readers resolve against, and the
// Directory collaborator used to look entities up by ID, mention or name.
//
// The markers are plain interfaces. A parameter type that is, or implements,
// one of them gets an entity type reader; when a type implements several,
// the first capability in typereader.EntityCapabilities wins.
package entity
