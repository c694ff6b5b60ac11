// SPDX-License-Identifier: MPL-2.0

// Package cmd contains the textcmd command line interface.
//
// Every subcommand opens a session: configuration is loaded, module
// descriptors are discovered and registered, and a dispatch.Service is
// ready to resolve input lines. "run" executes one line, "repl" reads lines
// from standard input, and "search"/"list"/"describe" inspect the registry.
package cmd
