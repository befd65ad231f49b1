package config

import (
	"log"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config is loaded once at startup from the environment (.env supported).
type Config struct {
	DiscordToken string `env:"DISCORD_TOKEN,required"`
	StoragePath  string `env:"STORAGE_PATH" envDefault:"data/luna.json"`

	// AIProvider selects the generation backend, e.g. "pollinations" or
	// "g4f:gpt-oss-120b".
	AIProvider  string `env:"AI_PROVIDER" envDefault:"pollinations"`
	PersonaPath string `env:"PERSONA_PATH" envDefault:"data/persona.md"`

	InitSlashCommands bool `env:"INIT_SLASH_COMMANDS" envDefault:"true"`

	// Generation budget: global calls per minute plus a per-guild cooldown
	// in seconds.
	GenPerMinute     int `env:"GEN_PER_MINUTE" envDefault:"20"`
	GuildCooldownSec int `env:"GUILD_COOLDOWN_SEC" envDefault:"3"`
}

// GuildCooldown returns the per-guild generation cooldown as a duration.
func (c *Config) GuildCooldown() time.Duration {
	return time.Duration(c.GuildCooldownSec) * time.Second
}

// New reads .env (if present) and parses the environment. Fatal on a
// missing required variable; the bot cannot run half-configured.
func New() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[INFO] No .env file found, using system environment variables")
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		log.Fatalf("[ERR] config: %v", err)
	}
	return cfg
}
