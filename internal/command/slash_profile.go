package command

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/lunabyte/luna/internal/core"
	"github.com/lunabyte/luna/internal/mind"
)

func init() {
	core.RegisterCommand(core.ApplyMiddlewares(
		&ProfileCommand{},
		core.WithGuildOnly(),
		core.WithCommandLogger(),
	))
}

type ProfileCommand struct{}

func (c *ProfileCommand) Name() string        { return "profile" }
func (c *ProfileCommand) Description() string { return "What Luna knows and feels about you" }
func (c *ProfileCommand) Category() string    { return "💬 Chat" }
func (c *ProfileCommand) RequireAdmin() bool  { return false }

func (c *ProfileCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
	}
}

func (c *ProfileCommand) Run(ctx interface{}) error {
	slash, ok := ctx.(*core.SlashInteractionContext)
	if !ok {
		return fmt.Errorf("wrong context type")
	}

	user := slash.Event.Member.User
	profile := slash.Storage.GetProfile(user.ID, slash.Event.GuildID)
	status, _ := mind.StatusFor(profile.RelationshipScore)

	var facts strings.Builder
	for k, v := range profile.Facts {
		facts.WriteString(fmt.Sprintf("• %s: %s\n", k, v))
	}
	if facts.Len() == 0 {
		facts.WriteString("*nothing yet*")
	}

	embed := &discordgo.MessageEmbed{
		Title: fmt.Sprintf("Luna on %s", user.Username),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Status", Value: status, Inline: true},
			{Name: "Score", Value: fmt.Sprintf("%.1f", profile.RelationshipScore), Inline: true},
			{Name: "Messages", Value: fmt.Sprintf("%d", profile.MessageCount), Inline: true},
			{Name: "Facts", Value: facts.String()},
		},
	}
	if profile.MarriedTo != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: "Married to", Value: fmt.Sprintf("%s (%s)", profile.MarriedTo, profile.MarriageDate),
		})
	}
	core.RespondEmbed(slash.Session, slash.Event, embed)
	return nil
}
