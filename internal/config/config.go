package config

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

func init() {
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found, falling back to system environment variables")
	}
}

func Get(key string) string {
	return os.Getenv(key)
}

type Config struct {
	DiscordToken  string
	CommandPrefix string
	EventTimeout  time.Duration
	StoragePath   string
	WebAddr       string
}

func New() *Config {
	cfg := &Config{
		DiscordToken:  Get("DISCORD_TOKEN"),
		CommandPrefix: Get("COMMAND_PREFIX"),
		StoragePath:   Get("STORAGE_PATH"),
		WebAddr:       Get("WEB_ADDR"),
		EventTimeout:  10 * time.Second,
	}

	if cfg.DiscordToken == "" {
		log.Fatal("DISCORD_TOKEN is not set")
	}
	if cfg.CommandPrefix == "" {
		cfg.CommandPrefix = "!"
	}
	if cfg.StoragePath == "" {
		cfg.StoragePath = "plugbot.json"
	}
	if cfg.WebAddr == "" {
		cfg.WebAddr = ":8790"
	}

	if raw := Get("EVENT_TIMEOUT"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			log.Fatalf("Invalid EVENT_TIMEOUT %q: %v", raw, err)
		}
		cfg.EventTimeout = d
	}

	return cfg
}
