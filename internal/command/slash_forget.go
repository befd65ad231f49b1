package command

import (
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/lunabyte/luna/internal/core"
)

func init() {
	core.RegisterCommand(core.ApplyMiddlewares(
		&ForgetCommand{},
		core.WithGuildOnly(),
		core.WithCommandLogger(),
	))
}

type ForgetCommand struct{}

func (c *ForgetCommand) Name() string        { return "forget" }
func (c *ForgetCommand) Description() string { return "Make Luna forget a fact, or everything, about you" }
func (c *ForgetCommand) Category() string    { return "💬 Chat" }
func (c *ForgetCommand) RequireAdmin() bool  { return false }

func (c *ForgetCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "fact",
				Description: "Fact key to forget (leave empty to forget everything on this server)",
				Required:    false,
			},
		},
	}
}

func (c *ForgetCommand) Run(ctx interface{}) error {
	slash, ok := ctx.(*core.SlashInteractionContext)
	if !ok {
		return fmt.Errorf("wrong context type")
	}

	user := slash.Event.Member.User
	opts := core.OptionMap(slash.Event)

	if opt, ok := opts["fact"]; ok && opt.StringValue() != "" {
		key := opt.StringValue()
		if slash.Storage.DeleteFact(user.ID, slash.Event.GuildID, key) {
			core.RespondEphemeral(slash.Session, slash.Event, fmt.Sprintf("Fine. Forgot **%s**. Never happened.", key))
		} else {
			core.RespondEphemeral(slash.Session, slash.Event, fmt.Sprintf("I never knew anything about **%s** to begin with.", key))
		}
		return nil
	}

	if slash.Storage.DeleteProfile(user.ID, slash.Event.GuildID) {
		core.RespondEphemeral(slash.Session, slash.Event, "Who are you again? Clean slate.")
	} else {
		core.RespondEphemeral(slash.Session, slash.Event, "There was nothing to forget. Awkward.")
	}
	return nil
}
