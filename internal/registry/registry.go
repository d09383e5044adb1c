// Package registry is the command dispatch core of the platform: a table of
// commands contributed by plugins, and a dispatcher that resolves inbound
// chat messages against it under per-invocation timeouts. Transports (the
// Discord adapter, tests, a future CLI) feed it events; plugins feed it
// entries; neither side ever sees the other directly.
package registry

import (
	"log"
	"regexp"
	"sync"

	"plugbot/internal/permission"
	"plugbot/internal/plugin"
)

// Entry is an exact-match command: the first token of a prefixed message is
// compared against Name by literal equality. Names need not be unique across
// plugins; every entry with a matching name is attempted on dispatch.
type Entry struct {
	Name        string
	Description string
	Permission  permission.Permission
	Owner       plugin.Handle
	Handler     Handler
}

// PatternEntry is a pattern-match ("modern") command: the prefix-stripped
// message body is matched against Pattern, anchored at the start of the body.
// The first capture group of the match, if any, becomes Invocation.Arg.
type PatternEntry struct {
	Pattern     *regexp.Regexp
	Source      string
	Description string
	Permission  permission.Permission
	Owner       plugin.Handle
	Handler     Handler
}

// Registry holds the two command tables in registration order. All methods
// are safe for concurrent use from handler goroutines; dispatch and listing
// iterate over snapshots, so unregistration never disturbs a traversal in
// flight.
type Registry struct {
	mu       sync.RWMutex
	commands []Entry
	modern   []PatternEntry
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{}
}

// Register appends an exact-match command owned by owner. Duplicate names are
// permitted and all retained. Registration never fails; a nil permission is
// treated as open to anyone.
func (r *Registry) Register(name, description string, perm permission.Permission, owner plugin.Handle, h Handler) {
	if perm == nil {
		perm = permission.Anyone
	}
	r.mu.Lock()
	r.commands = append(r.commands, Entry{
		Name:        name,
		Description: description,
		Permission:  perm,
		Owner:       owner,
		Handler:     h,
	})
	r.mu.Unlock()
	log.Printf("[INFO] Registered command %q for plugin %s", name, owner.Name())
}

// RegisterPattern compiles source and appends a pattern command owned by
// owner. The pattern is compiled exactly once, here, and anchored at the
// start of the command body. An invalid pattern returns a
// *PatternCompileError and leaves the table untouched.
func (r *Registry) RegisterPattern(source, description string, perm permission.Permission, owner plugin.Handle, h Handler) error {
	re, err := regexp.Compile(`\A(?:` + source + `)`)
	if err != nil {
		return &PatternCompileError{Source: source, Err: err}
	}
	if perm == nil {
		perm = permission.Anyone
	}
	r.mu.Lock()
	r.modern = append(r.modern, PatternEntry{
		Pattern:     re,
		Source:      source,
		Description: description,
		Permission:  perm,
		Owner:       owner,
		Handler:     h,
	})
	r.mu.Unlock()
	log.Printf("[INFO] Registered pattern command %q for plugin %s", source, owner.Name())
	return nil
}

// Unregister removes every exact-match command named name that owner
// registered. Other owners' entries with the same name, and all pattern
// entries, are untouched. Removing a name that was never registered is a
// no-op.
func (r *Registry) Unregister(name string, owner plugin.Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.commands[:0]
	for _, e := range r.commands {
		if e.Name == name && e.Owner == owner {
			continue
		}
		kept = append(kept, e)
	}
	r.commands = kept
}

// UnregisterAll removes every command, exact and pattern, owned by owner.
// Plugins call this exactly once, at unload time.
func (r *Registry) UnregisterAll(owner plugin.Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	keptCmds := r.commands[:0]
	for _, e := range r.commands {
		if e.Owner != owner {
			keptCmds = append(keptCmds, e)
		}
	}
	r.commands = keptCmds
	keptModern := r.modern[:0]
	for _, e := range r.modern {
		if e.Owner != owner {
			keptModern = append(keptModern, e)
		}
	}
	r.modern = keptModern
}

// ListForUser returns, in registration order, the exact-match commands u is
// allowed to run. Pattern commands are not consulted.
func (r *Registry) ListForUser(u permission.User) []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Entry
	for _, e := range r.commands {
		if e.Permission.Allows(u) {
			out = append(out, e)
		}
	}
	return out
}

// FindByName returns every exact-match command named name, in registration
// order. The result may be empty or hold several entries from different
// plugins.
func (r *Registry) FindByName(name string) []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Entry
	for _, e := range r.commands {
		if e.Name == name {
			out = append(out, e)
		}
	}
	return out
}

// All returns copies of both tables in registration order, exact entries
// first. Used by the status server and the help plugin.
func (r *Registry) All() ([]Entry, []PatternEntry) {
	return r.snapshot()
}

// snapshot copies both tables under the read lock so dispatch can iterate
// without holding it across handler invocations.
func (r *Registry) snapshot() ([]Entry, []PatternEntry) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	commands := make([]Entry, len(r.commands))
	copy(commands, r.commands)
	modern := make([]PatternEntry, len(r.modern))
	copy(modern, r.modern)
	return commands, modern
}
