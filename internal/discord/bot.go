package discord

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/lunabyte/luna/internal/ai"
	"github.com/lunabyte/luna/internal/config"
	"github.com/lunabyte/luna/internal/mind"
	"github.com/lunabyte/luna/internal/storage"
)

// Bot is the Discord front of the companion: it owns the gateway session and
// feeds normalized messages into the coordinator.
type Bot struct {
	dg          *discordgo.Session
	cfg         *config.Config
	storage     *storage.Storage
	coordinator *mind.Coordinator
	summarizer  *mind.Summarizer
}

func NewBot(cfg *config.Config, store *storage.Storage, persona string) *Bot {
	provider := ai.NewProvider(cfg.AIProvider)
	classifier := ai.NewClassifier(provider)

	b := &Bot{cfg: cfg, storage: store}
	// Transport is wired after the session exists; see Run.
	b.coordinator = mind.NewCoordinator(store, provider, classifier, nil, mind.CoordinatorConfig{
		Persona:       persona,
		GenPerMinute:  cfg.GenPerMinute,
		GuildCooldown: cfg.GuildCooldown(),
	})
	b.summarizer = mind.NewSummarizer(b.coordinator.Windows, provider, classifier, store)
	return b
}

// Run opens the gateway session and blocks until ctx is done.
func (b *Bot) Run(ctx context.Context) error {
	dg, err := discordgo.New("Bot " + b.cfg.DiscordToken)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	b.dg = dg
	b.coordinator.SetTransport(newSessionTransport(dg))

	dg.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsDirectMessages |
		discordgo.IntentMessageContent

	dg.AddHandler(b.onReady)
	dg.AddHandler(b.onMessageCreate)
	dg.AddHandler(b.onInteractionCreate)
	dg.AddHandler(b.onGuildCreate)

	if err := dg.Open(); err != nil {
		return fmt.Errorf("failed to open Discord session: %w", err)
	}
	defer dg.Close()

	go b.coordinator.Spam.Records().RunSweeper(ctx, time.Minute)

	if err := b.summarizer.Start(ctx); err != nil {
		return fmt.Errorf("summarizer: %w", err)
	}

	<-ctx.Done()
	log.Println("[INFO] ❎ Shutdown signal received. Cleaning up...")
	return nil
}

func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	botInfo, err := s.User("@me")
	if err != nil {
		log.Println("[WARN] Error retrieving bot user:", err)
		return
	}

	if b.cfg.InitSlashCommands {
		for _, g := range r.Guilds {
			if err := b.registerCommands(g.ID); err != nil {
				log.Println("[ERR] Error registering slash commands for guild", g.ID, ":", err)
			}
		}
	} else {
		log.Println("[INFO] Registering slash commands skipped")
	}

	log.Printf("[INFO] ✅ Discord bot %v is running.", botInfo.Username)
}

func (b *Bot) onGuildCreate(s *discordgo.Session, g *discordgo.GuildCreate) {
	log.Printf("[INFO] Bot added to guild: %s (%s)", g.Guild.ID, g.Guild.Name)
	if b.cfg.InitSlashCommands {
		if err := b.registerCommands(g.Guild.ID); err != nil {
			log.Printf("[ERR] Failed to register commands for new guild %s: %v", g.Guild.ID, err)
		}
	}
}
