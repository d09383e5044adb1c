// cmd/plugbot/main.go
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/time/rate"

	"plugbot/internal/config"
	"plugbot/internal/discord"
	"plugbot/internal/plugin"
	"plugbot/internal/plugins"
	"plugbot/internal/plugins/core"
	"plugbot/internal/registry"
	"plugbot/internal/storage"
	"plugbot/internal/web"
)

func main() {
	log.Println("[INFO] Starting plugbot...")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := config.New()

	store, err := storage.New(cfg.StoragePath)
	if err != nil {
		log.Fatal(err)
	}
	defer store.Close()

	reg := registry.New()
	disp := registry.NewDispatcher(reg, cfg.CommandPrefix, cfg.EventTimeout,
		registry.WithRecorder(func(inv *registry.Invocation, owner plugin.Handle) {
			rec := storage.UsageRecord{
				UserID:   inv.Author.ID,
				Username: inv.Author.Username,
				Channel:  inv.Channel,
				Command:  inv.Command,
				Plugin:   owner.Name(),
				Arg:      inv.Arg,
				Datetime: time.Now(),
			}
			if err := store.RecordUsage(rec); err != nil {
				log.Println("[WARN] Failed to record command usage:", err)
			}
		}),
		registry.WithUserRateLimit(rate.Every(2*time.Second), 3),
	)

	bot, err := discord.NewBot(cfg, disp)
	if err != nil {
		log.Fatal(err)
	}

	mgr := plugins.NewManager(reg, bot.Send)
	if err := mgr.Start(core.New()); err != nil {
		log.Fatal(err)
	}
	defer mgr.StopAll()

	if cfg.WebAddr != "" {
		go func() {
			if err := web.Run(ctx, cfg.WebAddr, reg, store); err != nil {
				log.Println("[ERR] Status server error:", err)
			}
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		if err := bot.Run(ctx); err != nil {
			errCh <- err
		}
		close(errCh)
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case s := <-sig:
		log.Printf("[INFO] Received signal %s, shutting down...\n", s)
		cancel()
	case err := <-errCh:
		if err != nil {
			log.Println("[ERR] Discord bot error:", err)
		}
		cancel()
	case <-ctx.Done():
	}

	log.Println("[INFO] plugbot exited cleanly")
}
