// SPDX-License-Identifier: MPL-2.0

package cueutil

// DefaultMaxFileSize is the largest CUE document accepted (5MB).
const DefaultMaxFileSize int64 = 5 * 1024 * 1024

type (
	options struct {
		maxFileSize int64
		concrete    bool
		filename    string
	}

	// Option configures Decode and DecodeMap.
	Option func(*options)
)

func defaultOptions() options {
	return options{
		maxFileSize: DefaultMaxFileSize,
		concrete:    true,
		filename:    "<input>",
	}
}

// WithMaxFileSize sets the maximum accepted document size.
func WithMaxFileSize(size int64) Option {
	return func(o *options) {
		o.maxFileSize = size
	}
}

// WithConcrete sets whether all values must be concrete after unification.
// Configuration files leave most fields unset and pass false.
func WithConcrete(concrete bool) Option {
	return func(o *options) {
		o.concrete = concrete
	}
}

// WithFilename sets the file name used in error messages.
func WithFilename(name string) Option {
	return func(o *options) {
		if name != "" {
			o.filename = name
		}
	}
}
