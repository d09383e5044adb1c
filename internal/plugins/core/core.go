// Package core is the built-in plugin: help, ping, a command-table dump for
// admins, and the echo pattern command.
package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"plugbot/internal/permission"
	"plugbot/internal/plugin"
	"plugbot/internal/plugins"
	"plugbot/internal/registry"
)

// Plugin implements plugins.Plugin.
type Plugin struct {
	deps   plugins.Deps
	admins []string
}

// New returns the core plugin. adminIDs may additionally run the command
// table dump; guild administrators always can.
func New(adminIDs ...string) *Plugin {
	return &Plugin{admins: adminIDs}
}

func (p *Plugin) Manifest() plugin.Manifest {
	return plugin.Manifest{
		Name:        "core",
		Version:     "1.0.0",
		Author:      "plugbot",
		Description: "Built-in help and diagnostics commands",
	}
}

func (p *Plugin) Start(deps plugins.Deps) error {
	p.deps = deps
	reg := deps.Registry

	reg.Register("help", "List the commands you can run", permission.Anyone, deps.Handle, p.help)
	reg.Register("ping", "Check that the bot is alive", permission.Anyone, deps.Handle, p.ping)

	admin := permission.AnyOf(
		permission.UserIDs(p.admins...),
		permission.GuildPermission(discordgo.PermissionAdministrator),
	)
	reg.Register("commands", "Dump the full command table", admin, deps.Handle, p.commands)

	return reg.RegisterPattern(`echo (.+)`, "Echo back the captured text", permission.Humans, deps.Handle, p.echo)
}

func (p *Plugin) Stop() error { return nil }

func (p *Plugin) ping(ctx context.Context, inv *registry.Invocation) error {
	return p.deps.Send(inv.Channel, "pong")
}

func (p *Plugin) echo(ctx context.Context, inv *registry.Invocation) error {
	return p.deps.Send(inv.Channel, inv.Arg)
}

// help lists only the commands the asking user is actually allowed to run.
func (p *Plugin) help(ctx context.Context, inv *registry.Invocation) error {
	entries := p.deps.Registry.ListForUser(inv.Author)
	if len(entries) == 0 {
		return p.deps.Send(inv.Channel, "No commands available to you.")
	}
	var b strings.Builder
	b.WriteString("Available commands:\n")
	for _, e := range entries {
		fmt.Fprintf(&b, "`%s` — %s\n", e.Name, e.Description)
	}
	return p.deps.Send(inv.Channel, b.String())
}

// commands dumps both tables including owners, for admins.
func (p *Plugin) commands(ctx context.Context, inv *registry.Invocation) error {
	exact, modern := p.deps.Registry.All()
	var b strings.Builder
	fmt.Fprintf(&b, "%d exact, %d pattern commands registered:\n", len(exact), len(modern))
	for _, e := range exact {
		fmt.Fprintf(&b, "`%s` (%s) — %s\n", e.Name, e.Owner.Name(), e.Description)
	}
	for _, e := range modern {
		fmt.Fprintf(&b, "`%s` (%s) — %s\n", e.Source, e.Owner.Name(), e.Description)
	}
	return p.deps.Send(inv.Channel, b.String())
}
