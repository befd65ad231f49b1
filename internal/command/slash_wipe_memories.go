package command

import (
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/lunabyte/luna/internal/core"
)

func init() {
	core.RegisterCommand(core.ApplyMiddlewares(
		&WipeMemoriesCommand{},
		core.WithGuildOnly(),
		core.WithAdminOnly(),
		core.WithCommandLogger(),
	))
}

type WipeMemoriesCommand struct{}

func (c *WipeMemoriesCommand) Name() string { return "wipe-memories" }
func (c *WipeMemoriesCommand) Description() string {
	return "Erase every conversation summary Luna keeps for this server"
}
func (c *WipeMemoriesCommand) Category() string   { return "🛠️ Admin" }
func (c *WipeMemoriesCommand) RequireAdmin() bool { return true }

func (c *WipeMemoriesCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
	}
}

func (c *WipeMemoriesCommand) Run(ctx interface{}) error {
	slash, ok := ctx.(*core.SlashInteractionContext)
	if !ok {
		return fmt.Errorf("wrong context type")
	}

	slash.Storage.ClearMemories(slash.Event.GuildID)
	core.RespondEphemeral(slash.Session, slash.Event, "Memories wiped. It's like none of it ever happened.")
	return nil
}
