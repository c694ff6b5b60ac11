// SPDX-License-Identifier: MPL-2.0

// Package command defines the declarative model of textual commands:
// modules, commands, parameters, preconditions and the type reader contract.
//
// Modules are declared with ModuleBuilder and CommandBuilder and turned into
// immutable *Module trees by Build. A command's full aliases are the
// cartesian product of its module chain's aliases and its own, joined by the
// registry separator; an empty alias segment contributes no separator.
//
// Bodies receive an *Invocation carrying the bound arguments. Everything a
// body, reader, factory or precondition may reach is resolved from the
// explicit Services object by type.
package command
