// Package plugins glues plugin implementations to the platform: the Plugin
// lifecycle contract, the dependency bundle handed to each plugin, and a
// manager that loads and unloads them.
package plugins

import (
	"fmt"
	"log"

	"plugbot/internal/plugin"
	"plugbot/internal/registry"
)

// Deps is what a plugin gets to work with when it starts. Handle is minted
// per load; every command the plugin registers must be owned by it so bulk
// removal works at unload time.
type Deps struct {
	Registry *registry.Registry
	Handle   plugin.Handle
	// Send delivers a plain-text reply to a channel.
	Send func(channel, text string) error
}

// Plugin is an in-process unit of functionality contributing commands to the
// registry. Start registers them under deps.Handle; Stop releases whatever
// else the plugin holds. The manager purges the plugin's commands after Stop,
// so plugins do not need to unregister one by one.
type Plugin interface {
	Manifest() plugin.Manifest
	Start(deps Deps) error
	Stop() error
}

type loaded struct {
	p Plugin
	h plugin.Handle
}

// Manager loads plugins and unloads them in reverse order on shutdown.
type Manager struct {
	reg    *registry.Registry
	send   func(channel, text string) error
	loaded []loaded
}

// NewManager builds a manager over reg; send is handed to every plugin.
func NewManager(reg *registry.Registry, send func(channel, text string) error) *Manager {
	return &Manager{reg: reg, send: send}
}

// Start loads p: mints its handle, calls its Start, and tracks it for
// unloading. A failed Start leaves no commands behind.
func (m *Manager) Start(p Plugin) error {
	man := p.Manifest()
	h := plugin.NewHandle(man.Name)
	if err := p.Start(Deps{Registry: m.reg, Handle: h, Send: m.send}); err != nil {
		m.reg.UnregisterAll(h)
		return fmt.Errorf("start plugin %s: %w", man.Name, err)
	}
	m.loaded = append(m.loaded, loaded{p: p, h: h})
	log.Printf("[INFO] Plugin %s v%s loaded", man.Name, man.Version)
	return nil
}

// StopAll unloads every plugin in reverse load order. Each plugin's commands
// are purged from the registry whether or not its Stop succeeds.
func (m *Manager) StopAll() {
	for i := len(m.loaded) - 1; i >= 0; i-- {
		l := m.loaded[i]
		if err := l.p.Stop(); err != nil {
			log.Printf("[ERR] Stopping plugin %s: %v", l.h.Name(), err)
		}
		m.reg.UnregisterAll(l.h)
		log.Printf("[INFO] Plugin %s unloaded", l.h.Name())
	}
	m.loaded = nil
}
