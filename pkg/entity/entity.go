// SPDX-License-Identifier: MPL-2.0

package entity

import (
	"context"
	"errors"
	"fmt"
)

const (
	// KindMessage identifies message entities.
	KindMessage Kind = "message"
	// KindChannel identifies channel entities.
	KindChannel Kind = "channel"
	// KindRole identifies role entities.
	KindRole Kind = "role"
	// KindUser identifies user entities.
	KindUser Kind = "user"
)

var (
	// ErrInvalidKind is returned when a Kind value is not recognized.
	ErrInvalidKind = errors.New("invalid entity kind")
	// ErrNotFound is returned by a Directory when no entity matches a lookup.
	ErrNotFound = errors.New("entity not found")
)

type (
	// Kind names one of the platform entity families.
	Kind string

	// InvalidKindError is returned when a Kind value is not recognized.
	// It wraps ErrInvalidKind for errors.Is() compatibility.
	InvalidKindError struct {
		Value Kind
	}

	// Entity is the common surface of every platform entity.
	Entity interface {
		// ID returns the platform-unique identifier.
		ID() string
		// Name returns the display name (empty for messages).
		Name() string
	}

	// Message is a posted message.
	Message interface {
		Entity
		Content() string
		AuthorID() string
	}

	// Channel is a place messages are posted to.
	Channel interface {
		Entity
		Topic() string
	}

	// Role is a named permission group.
	Role interface {
		Entity
		Position() int
	}

	// User is a platform account.
	User interface {
		Entity
		Bot() bool
	}

	// Directory resolves entities for type readers. Implementations are
	// supplied by the embedding application and may perform network I/O;
	// they must honor ctx cancellation.
	//
	// ByID returns ErrNotFound (possibly wrapped) when nothing matches.
	// ByName returns every entity of the kind whose name equals name
	// ignoring case; an empty slice means no match.
	Directory interface {
		ByID(ctx context.Context, kind Kind, id string) (Entity, error)
		ByName(ctx context.Context, kind Kind, name string) ([]Entity, error)
	}
)

// String returns the string representation of the Kind.
func (k Kind) String() string { return string(k) }

// Validate returns nil if the Kind is one of the defined entity kinds.
func (k Kind) Validate() error {
	switch k {
	case KindMessage, KindChannel, KindRole, KindUser:
		return nil
	default:
		return &InvalidKindError{Value: k}
	}
}

// Error implements the error interface for InvalidKindError.
func (e *InvalidKindError) Error() string {
	return fmt.Sprintf("invalid entity kind %q (valid: message, channel, role, user)", e.Value)
}

// Unwrap returns the sentinel error for errors.Is() compatibility.
func (e *InvalidKindError) Unwrap() error {
	return ErrInvalidKind
}
