package core

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"plugbot/internal/permission"
	"plugbot/internal/plugins"
	"plugbot/internal/registry"
)

type sentMessage struct {
	channel string
	text    string
}

type fakeOut struct {
	mu   sync.Mutex
	sent []sentMessage
}

func (f *fakeOut) send(channel, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentMessage{channel: channel, text: text})
	return nil
}

func (f *fakeOut) messages() []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentMessage(nil), f.sent...)
}

func startCore(t *testing.T) (*registry.Registry, *fakeOut, *plugins.Manager) {
	t.Helper()
	reg := registry.New()
	out := &fakeOut{}
	mgr := plugins.NewManager(reg, out.send)
	require.NoError(t, mgr.Start(New()))
	return reg, out, mgr
}

func dispatch(t *testing.T, reg *registry.Registry, u permission.User, content string) {
	t.Helper()
	d := registry.NewDispatcher(reg, "!", time.Second)
	require.NoError(t, d.Dispatch(context.Background(), registry.Event{
		Author:  u,
		Channel: "chan-1",
		Content: content,
	}))
}

func TestCoreRegistersCommands(t *testing.T) {
	reg, _, _ := startCore(t)

	assert.Len(t, reg.FindByName("help"), 1)
	assert.Len(t, reg.FindByName("ping"), 1)
	assert.Len(t, reg.FindByName("commands"), 1)

	_, modern := reg.All()
	require.Len(t, modern, 1)
	assert.Equal(t, `echo (.+)`, modern[0].Source)
}

func TestPing(t *testing.T) {
	reg, out, _ := startCore(t)

	dispatch(t, reg, permission.User{ID: "1"}, "!ping")

	msgs := out.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "chan-1", msgs[0].channel)
	assert.Equal(t, "pong", msgs[0].text)
}

func TestEchoCapturesArgument(t *testing.T) {
	reg, out, _ := startCore(t)

	dispatch(t, reg, permission.User{ID: "1"}, "!echo hello there")

	msgs := out.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "hello there", msgs[0].text)
}

func TestEchoIgnoresBots(t *testing.T) {
	reg, out, _ := startCore(t)

	dispatch(t, reg, permission.User{ID: "1", Bot: true}, "!echo spam")

	assert.Empty(t, out.messages())
}

func TestHelpListsOnlyAllowedCommands(t *testing.T) {
	reg, out, _ := startCore(t)

	dispatch(t, reg, permission.User{ID: "1"}, "!help")

	msgs := out.messages()
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0].text, "`help`")
	assert.Contains(t, msgs[0].text, "`ping`")
	// plain users cannot run the table dump, so it is not listed
	assert.NotContains(t, msgs[0].text, "`commands`")
}

func TestCommandsRequiresAdmin(t *testing.T) {
	reg, out, _ := startCore(t)

	dispatch(t, reg, permission.User{ID: "1"}, "!commands")
	assert.Empty(t, out.messages())

	admin := permission.User{ID: "2", Perms: 1 << 3} // administrator bit
	dispatch(t, reg, admin, "!commands")

	msgs := out.messages()
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0].text, "`echo (.+)`")
	assert.Contains(t, msgs[0].text, "(core)")
}

func TestUnloadRemovesEverything(t *testing.T) {
	reg, _, mgr := startCore(t)

	mgr.StopAll()

	exact, modern := reg.All()
	assert.Empty(t, exact)
	assert.Empty(t, modern)
}
