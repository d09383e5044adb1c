package registry

import (
	"context"

	"plugbot/internal/permission"
)

// Handler runs one command invocation. The context carries the dispatcher's
// per-invocation deadline; a handler that outlives it is abandoned and its
// result discarded.
type Handler func(ctx context.Context, inv *Invocation) error

// Invocation carries everything a handler learns about one matched command.
// It is built fresh for each matching entry and never mutated afterwards.
type Invocation struct {
	Message any             // opaque transport message handle
	Author  permission.User // who sent the message
	Channel string          // opaque channel handle
	Command string          // exact name, or the pattern source for modern commands
	Arg     string          // first capture group; empty for exact commands
}

// Event is one inbound chat message as delivered by a transport adapter.
// This is the dispatcher's sole ingress.
type Event struct {
	Message any
	Author  permission.User
	Channel string
	Content string
}
