package discord

import (
	"log"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/lunabyte/luna/internal/core"
)

// registerCommands syncs slash commands for a guild with Discord: deletes
// obsolete ones, creates the rest.
func (b *Bot) registerCommands(guildID string) error {
	appID, err := b.appID()
	if err != nil {
		return err
	}

	local := make(map[string]*discordgo.ApplicationCommand)
	for _, c := range core.AllCommands() {
		if slash, ok := c.(core.SlashProvider); ok {
			if def := slash.SlashDefinition(); def != nil {
				if def.Type == 0 {
					def.Type = discordgo.ChatApplicationCommand
				}
				local[def.Name] = def
			}
		}
	}

	remote, _ := b.dg.ApplicationCommands(appID, guildID)
	for _, rc := range remote {
		if _, keep := local[rc.Name]; keep {
			continue
		}
		log.Printf("[INFO] [%s] Deleting obsolete command: %s", guildID, rc.Name)
		if err := b.dg.ApplicationCommandDelete(appID, guildID, rc.ID); err != nil {
			log.Printf("[ERR] [%s] Failed to delete %s: %v", guildID, rc.Name, err)
		}
	}

	for _, def := range local {
		if _, err := b.dg.ApplicationCommandCreate(appID, guildID, def); err != nil {
			log.Printf("[ERR] [%s] Failed to register %s: %v", guildID, def.Name, err)
		} else {
			log.Printf("[DONE] [%s] Registered: %s", guildID, def.Name)
		}
		time.Sleep(25 * time.Millisecond) // stay well under Discord's rate limit
	}
	return nil
}

// appID returns the bot's application ID, fetching from Discord if not
// cached in State.
func (b *Bot) appID() (string, error) {
	if id := b.dg.State.User.ID; id != "" {
		return id, nil
	}
	u, err := b.dg.User("@me")
	if err != nil {
		return "", err
	}
	return u.ID, nil
}
