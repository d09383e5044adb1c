// Package plugin defines how plugins identify themselves to the platform.
package plugin

import "github.com/google/uuid"

// Manifest describes a plugin to the rest of the platform.
type Manifest struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Author      string `json:"author"`
	Description string `json:"description"`
}

// Handle is the opaque identity of a loaded plugin instance. Handles are
// comparable value types; the command registry uses them as ownership tags,
// and bulk removal at unload time matches on them by equality.
type Handle struct {
	id   uuid.UUID
	name string
}

// NewHandle mints a fresh handle for the named plugin. Two handles minted for
// the same name are still distinct identities.
func NewHandle(name string) Handle {
	return Handle{id: uuid.New(), name: name}
}

// Name returns the plugin name the handle was minted for.
func (h Handle) Name() string { return h.name }

// ID returns the handle's unique identifier.
func (h Handle) ID() string { return h.id.String() }

// IsZero reports whether h is the zero handle, i.e. owned by no plugin.
func (h Handle) IsZero() bool { return h.id == uuid.Nil }
