package registry

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"plugbot/internal/plugin"
)

// Recorder observes each handler invocation just before it starts. Wired to
// the storage layer for usage history; nil disables recording.
type Recorder func(inv *Invocation, owner plugin.Handle)

// Dispatcher resolves inbound messages against a Registry and runs every
// matching handler under a per-invocation deadline. A single Dispatcher
// serves any number of concurrent Dispatch calls.
type Dispatcher struct {
	reg      *Registry
	prefix   string
	timeout  time.Duration
	sink     Sink
	recorder Recorder
	limits   *userLimits
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithSink routes failure reports to s instead of the standard logger.
func WithSink(s Sink) Option {
	return func(d *Dispatcher) { d.sink = s }
}

// WithRecorder calls rec before each handler invocation.
func WithRecorder(rec Recorder) Option {
	return func(d *Dispatcher) { d.recorder = rec }
}

// WithUserRateLimit silently drops invocations from authors sending commands
// faster than limit, with the given burst allowance. Off unless set.
func WithUserRateLimit(limit rate.Limit, burst int) Option {
	return func(d *Dispatcher) { d.limits = newUserLimits(limit, burst) }
}

// NewDispatcher builds a dispatcher over reg. Commands are recognized by
// prefix; every handler invocation is bounded by timeout.
func NewDispatcher(reg *Registry, prefix string, timeout time.Duration, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		reg:     reg,
		prefix:  prefix,
		timeout: timeout,
		sink:    LogSink{},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch resolves ev against the registry and runs every matching handler,
// exact entries first, then pattern entries, each in registration order. A
// message without the command prefix, or matching nothing, is not an error.
// Permission failures are silent skips. A handler timeout or error is
// reported to the sink and never aborts the remaining entries; Dispatch
// itself only errors when ctx is cancelled.
func (d *Dispatcher) Dispatch(ctx context.Context, ev Event) error {
	if d.prefix == "" || !strings.HasPrefix(ev.Content, d.prefix) {
		return nil
	}
	if d.limits != nil && !d.limits.allow(ev.Author.ID) {
		return nil
	}

	body := strings.TrimPrefix(ev.Content, d.prefix)
	token := commandToken(body)
	commands, modern := d.reg.snapshot()

	for _, e := range commands {
		if err := ctx.Err(); err != nil {
			return err
		}
		if e.Name != token || e.Handler == nil {
			continue
		}
		if !e.Permission.Allows(ev.Author) {
			continue
		}
		d.invoke(ctx, e.Name, e.Owner, e.Handler, &Invocation{
			Message: ev.Message,
			Author:  ev.Author,
			Channel: ev.Channel,
			Command: e.Name,
		})
	}

	for _, e := range modern {
		if err := ctx.Err(); err != nil {
			return err
		}
		if e.Handler == nil {
			continue
		}
		m := e.Pattern.FindStringSubmatch(body)
		if m == nil {
			continue
		}
		if !e.Permission.Allows(ev.Author) {
			continue
		}
		var arg string
		if len(m) > 1 {
			arg = m[1]
		}
		d.invoke(ctx, e.Source, e.Owner, e.Handler, &Invocation{
			Message: ev.Message,
			Author:  ev.Author,
			Channel: ev.Channel,
			Command: e.Source,
			Arg:     arg,
		})
	}

	return nil
}

// invoke runs one handler on its own goroutine and waits for it up to the
// configured timeout. On expiry the handler is abandoned: its context is
// cancelled and its eventual result lands in a buffered channel nobody reads.
// Errors and panics are recovered here so one handler cannot take down its
// siblings.
func (d *Dispatcher) invoke(ctx context.Context, command string, owner plugin.Handle, h Handler, inv *Invocation) {
	if d.recorder != nil {
		d.recorder(inv, owner)
	}

	hctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		defer func() {
			if v := recover(); v != nil {
				done <- fmt.Errorf("handler panic: %v", v)
			}
		}()
		done <- h(hctx, inv)
	}()

	select {
	case err := <-done:
		if err != nil {
			d.sink.HandlerError(command, owner.Name(), err)
		}
	case <-hctx.Done():
		if errors.Is(hctx.Err(), context.DeadlineExceeded) {
			d.sink.HandlerTimeout(command, owner.Name())
		}
	}
}

// commandToken returns the first whitespace-separated token of the
// prefix-stripped body, or "" for a bare prefix.
func commandToken(body string) string {
	fields := strings.Fields(body)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
