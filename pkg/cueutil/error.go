// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"errors"
	"fmt"
	"strings"

	cueerrors "cuelang.org/go/cue/errors"
)

// ErrFileTooLarge is the sentinel wrapped by FileTooLargeError.
var ErrFileTooLarge = errors.New("file too large")

// FileTooLargeError is returned when a document exceeds the size limit.
type FileTooLargeError struct {
	Filename string
	Size     int64
	Max      int64
}

// Error implements the error interface.
func (e *FileTooLargeError) Error() string {
	return fmt.Sprintf("%s: file size %d bytes exceeds maximum %d bytes", e.Filename, e.Size, e.Max)
}

// Unwrap returns ErrFileTooLarge.
func (e *FileTooLargeError) Unwrap() error { return ErrFileTooLarge }

// FormatError prefixes each CUE error with the file and a JSON-style field path:
//
//	greet.textcmd.cue: modules[0].commands[1].priority: conflicting values 1.5 and int
func FormatError(err error, filePath string) error {
	if err == nil {
		return nil
	}

	all := cueerrors.Errors(err)
	if len(all) == 0 {
		return fmt.Errorf("%s: %w", filePath, err)
	}

	lines := make([]string, 0, len(all))
	for _, e := range all {
		path := formatPath(cueerrors.Path(e))
		msg := e.Error()
		if path != "" && strings.HasPrefix(msg, path) {
			msg = strings.TrimSpace(strings.TrimPrefix(strings.TrimPrefix(msg, path), ":"))
		}
		if path != "" {
			msg = path + ": " + msg
		}
		lines = append(lines, msg)
	}

	if len(lines) == 1 {
		return fmt.Errorf("%s: %s", filePath, lines[0])
	}
	return fmt.Errorf("%s: validation failed:\n  %s", filePath, strings.Join(lines, "\n  "))
}

// formatPath renders ["modules", "0", "key"] as "modules[0].key".
func formatPath(path []string) string {
	var sb strings.Builder
	for i, part := range path {
		if i > 0 && isIndex(part) {
			sb.WriteString("[" + part + "]")
			continue
		}
		if i > 0 {
			sb.WriteByte('.')
		}
		sb.WriteString(part)
	}
	return sb.String()
}

func isIndex(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// CheckFileSize returns a *FileTooLargeError when data exceeds maxSize.
func CheckFileSize(data []byte, maxSize int64, filename string) error {
	if size := int64(len(data)); size > maxSize {
		return &FileTooLargeError{Filename: filename, Size: size, Max: maxSize}
	}
	return nil
}
