// SPDX-License-Identifier: MPL-2.0

package discovery

const (
	// SeverityWarning indicates a recoverable discovery warning.
	SeverityWarning Severity = "warning"
	// SeverityError indicates a descriptor that could not be used.
	SeverityError Severity = "error"

	// CodeDescriptorSkipped marks a descriptor that failed to load.
	CodeDescriptorSkipped = "descriptor_skipped"
	// CodeModuleRejected marks a module the registry refused.
	CodeModuleRejected = "module_rejected"
)

type (
	// Severity represents discovery diagnostic severity.
	Severity string

	// Diagnostic is a non-fatal discovery problem returned to the caller
	// for rendering.
	Diagnostic struct {
		Severity Severity
		// Code is a machine-readable identifier (e.g., "descriptor_skipped").
		Code    string
		Message string
		Path    string
		Cause   error
	}
)
