// Package web exposes a small HTTP status surface over the command table and
// usage counters.
package web

import (
	"context"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"plugbot/internal/registry"
	"plugbot/internal/storage"
)

type commandInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Plugin      string `json:"plugin"`
}

// Run serves the status endpoints on addr until ctx is cancelled; run in a
// goroutine.
func Run(ctx context.Context, addr string, reg *registry.Registry, store *storage.Storage) error {
	srv := &http.Server{Addr: addr, Handler: newRouter(reg, store)}

	go func() {
		<-ctx.Done()
		log.Println("[INFO] Shutting down status server...")
		srv.Shutdown(context.Background()) //nolint:errcheck
	}()

	log.Printf("[INFO] Starting status server on %s...", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func newRouter(reg *registry.Registry, store *storage.Storage) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/commands", func(c *gin.Context) {
		exact, modern := reg.All()
		commands := make([]commandInfo, 0, len(exact))
		for _, e := range exact {
			commands = append(commands, commandInfo{Name: e.Name, Description: e.Description, Plugin: e.Owner.Name()})
		}
		patterns := make([]commandInfo, 0, len(modern))
		for _, e := range modern {
			patterns = append(patterns, commandInfo{Name: e.Source, Description: e.Description, Plugin: e.Owner.Name()})
		}
		c.JSON(http.StatusOK, gin.H{"commands": commands, "patterns": patterns})
	})

	r.GET("/stats", func(c *gin.Context) {
		counters, err := store.Counters()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"invocations": counters})
	})

	return r
}
