package core

import (
	"github.com/bwmarrin/discordgo"

	"github.com/lunabyte/luna/internal/storage"
)

type Command interface {
	Name() string
	Description() string
	Category() string
	RequireAdmin() bool
	Run(ctx interface{}) error
}

// SlashProvider - how this command should be registered with Discord.
type SlashProvider interface {
	SlashDefinition() *discordgo.ApplicationCommand
}

// SlashInteractionContext - what runtime hands you when executing a slash
// command.
type SlashInteractionContext struct {
	Session *discordgo.Session
	Event   *discordgo.InteractionCreate
	Storage *storage.Storage
}
