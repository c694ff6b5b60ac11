// SPDX-License-Identifier: MPL-2.0

// Package issue provides actionable error handling with user-friendly messages.
//
// ActionableError carries the failed operation, the resource involved and
// remediation hints. Issue holds Markdown guidance rendered with glamour; ForError
// maps registry and pipeline failures to the matching Issue.
package issue
