package command

import (
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/lunabyte/luna/internal/core"
	"github.com/lunabyte/luna/internal/version"
)

func init() {
	core.RegisterCommand(core.ApplyMiddlewares(
		&AboutCommand{},
		core.WithCommandLogger(),
	))
}

type AboutCommand struct{}

func (c *AboutCommand) Name() string        { return "about" }
func (c *AboutCommand) Description() string { return "About this bot" }
func (c *AboutCommand) Category() string    { return "ℹ️ Info" }
func (c *AboutCommand) RequireAdmin() bool  { return false }

func (c *AboutCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
	}
}

func (c *AboutCommand) Run(ctx interface{}) error {
	slash, ok := ctx.(*core.SlashInteractionContext)
	if !ok {
		return fmt.Errorf("wrong context type")
	}

	embed := &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("%s v%s", version.AppName, version.AppVersion),
		Description: "A companion with moods, grudges and a long memory. Mention me and see which one you get.",
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Commands", Value: commandList()},
		},
	}
	core.RespondEmbed(slash.Session, slash.Event, embed)
	return nil
}

func commandList() string {
	out := ""
	for _, cmd := range core.AllCommands() {
		out += fmt.Sprintf("`/%s` — %s\n", cmd.Name(), cmd.Description())
	}
	return out
}
