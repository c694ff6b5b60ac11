// SPDX-License-Identifier: MPL-2.0

// Package shellbody runs descriptor scripts as command bodies in the
// embedded mvdan/sh interpreter.
//
// Bound arguments are exposed to the script twice: as positional parameters
// ($1..$n, with each element of a multiple parameter taking its own position)
// and as TEXTCMD_ARG_<NAME> environment variables. TEXTCMD_INPUT,
// TEXTCMD_COMMAND, TEXTCMD_AUTHOR_ID and TEXTCMD_CHANNEL_ID describe the
// invocation itself.
package shellbody
