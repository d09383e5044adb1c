// Package discord adapts the Discord gateway to the dispatch core: it owns
// the session, converts MessageCreate events into registry events, and hands
// them to the dispatcher. Nothing here inspects command names; all matching
// lives in the registry.
package discord

import (
	"context"
	"fmt"
	"log"

	"github.com/bwmarrin/discordgo"

	"plugbot/internal/config"
	"plugbot/internal/permission"
	"plugbot/internal/registry"
)

// Bot is the Discord transport for the command dispatcher.
type Bot struct {
	dg   *discordgo.Session
	disp *registry.Dispatcher
	cfg  *config.Config
}

// NewBot creates the Discord session; Run opens it.
func NewBot(cfg *config.Config, disp *registry.Dispatcher) (*Bot, error) {
	dg, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return &Bot{dg: dg, disp: disp, cfg: cfg}, nil
}

// Run opens the gateway connection and blocks until ctx is done.
func (b *Bot) Run(ctx context.Context) error {
	b.dg.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsDirectMessages |
		discordgo.IntentMessageContent

	b.dg.AddHandler(b.onReady)
	b.dg.AddHandler(b.onMessageCreate)

	if err := b.dg.Open(); err != nil {
		return fmt.Errorf("failed to open Discord session: %w", err)
	}
	defer b.dg.Close()

	<-ctx.Done()
	log.Println("[INFO] Shutdown signal received. Closing Discord session...")
	return nil
}

// Send delivers a plain-text message to a channel. Handed to plugins as
// their reply path.
func (b *Bot) Send(channelID, text string) error {
	_, err := b.dg.ChannelMessageSend(channelID, text)
	return err
}

func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	log.Printf("[INFO] Logged in as %s#%s", r.User.Username, r.User.Discriminator)
}

// onMessageCreate forwards every non-self message to the dispatcher. The
// dispatcher decides whether it is a command at all; a miss is silent.
func (b *Bot) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.ID == s.State.User.ID {
		return
	}

	ev := registry.Event{
		Message: m.Message,
		Author:  b.authorIdentity(s, m),
		Channel: m.ChannelID,
		Content: m.Content,
	}
	if err := b.disp.Dispatch(context.Background(), ev); err != nil {
		log.Println("[ERR] Dispatch failed:", err)
	}
}

// authorIdentity maps a Discord author to the identity permission checks run
// against: user ID, member roles, and the resolved channel permission
// bitmask.
func (b *Bot) authorIdentity(s *discordgo.Session, m *discordgo.MessageCreate) permission.User {
	u := permission.User{
		ID:       m.Author.ID,
		Username: m.Author.Username,
		Bot:      m.Author.Bot,
	}
	if m.Member != nil {
		u.Roles = m.Member.Roles
	}
	if m.GuildID != "" {
		perms, err := s.UserChannelPermissions(m.Author.ID, m.ChannelID)
		if err != nil {
			log.Printf("[WARN] Failed to resolve permissions for %s: %v", m.Author.ID, err)
		} else {
			u.Perms = perms
		}
	}
	return u
}
