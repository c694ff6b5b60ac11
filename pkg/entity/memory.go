// SPDX-License-Identifier: MPL-2.0

package entity

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

type (
	// BasicUser is a plain User value.
	BasicUser struct {
		UserID   string
		UserName string
		IsBot    bool
	}

	// BasicChannel is a plain Channel value.
	BasicChannel struct {
		ChannelID    string
		ChannelName  string
		ChannelTopic string
	}

	// BasicRole is a plain Role value.
	BasicRole struct {
		RoleID       string
		RoleName     string
		RolePosition int
	}

	// BasicMessage is a plain Message value.
	BasicMessage struct {
		MessageID string
		Text      string
		Author    string
	}

	// MemoryDirectory is an in-process Directory backed by maps.
	// It is safe for concurrent use.
	MemoryDirectory struct {
		mu       sync.RWMutex
		entities map[Kind][]Entity
	}
)

func (u BasicUser) ID() string   { return u.UserID }
func (u BasicUser) Name() string { return u.UserName }
func (u BasicUser) Bot() bool    { return u.IsBot }

func (c BasicChannel) ID() string    { return c.ChannelID }
func (c BasicChannel) Name() string  { return c.ChannelName }
func (c BasicChannel) Topic() string { return c.ChannelTopic }

func (r BasicRole) ID() string    { return r.RoleID }
func (r BasicRole) Name() string  { return r.RoleName }
func (r BasicRole) Position() int { return r.RolePosition }

func (m BasicMessage) ID() string       { return m.MessageID }
func (m BasicMessage) Name() string     { return "" }
func (m BasicMessage) Content() string  { return m.Text }
func (m BasicMessage) AuthorID() string { return m.Author }

// NewMemoryDirectory creates an empty MemoryDirectory.
func NewMemoryDirectory() *MemoryDirectory {
	return &MemoryDirectory{entities: make(map[Kind][]Entity)}
}

// Add stores e under kind. Adding an entity with an existing ID replaces it.
func (d *MemoryDirectory) Add(kind Kind, e Entity) error {
	if err := kind.Validate(); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	list := d.entities[kind]
	for i, existing := range list {
		if existing.ID() == e.ID() {
			list[i] = e
			return nil
		}
	}
	d.entities[kind] = append(list, e)
	return nil
}

// ByID implements Directory.
func (d *MemoryDirectory) ByID(ctx context.Context, kind Kind, id string) (Entity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d.mu.RLock()
	defer d.mu.RUnlock()

	for _, e := range d.entities[kind] {
		if e.ID() == id {
			return e, nil
		}
	}
	return nil, fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
}

// ByName implements Directory.
func (d *MemoryDirectory) ByName(ctx context.Context, kind Kind, name string) ([]Entity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d.mu.RLock()
	defer d.mu.RUnlock()

	var out []Entity
	for _, e := range d.entities[kind] {
		if e.Name() != "" && strings.EqualFold(e.Name(), name) {
			out = append(out, e)
		}
	}
	return out, nil
}
