package core

import (
	"log"

	"github.com/bwmarrin/discordgo"
)

// RespondEphemeral replies to an interaction with a message only the caller
// can see.
func RespondEphemeral(s *discordgo.Session, e *discordgo.InteractionCreate, content string) {
	err := s.InteractionRespond(e.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		log.Printf("[WARN] interaction respond failed: %v", err)
	}
}

// RespondEmbed replies to an interaction with an embed.
func RespondEmbed(s *discordgo.Session, e *discordgo.InteractionCreate, embed *discordgo.MessageEmbed) {
	err := s.InteractionRespond(e.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{embed},
		},
	})
	if err != nil {
		log.Printf("[WARN] interaction respond failed: %v", err)
	}
}

// OptionMap indexes interaction options by name.
func OptionMap(e *discordgo.InteractionCreate) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	out := map[string]*discordgo.ApplicationCommandInteractionDataOption{}
	for _, opt := range e.ApplicationCommandData().Options {
		out[opt.Name] = opt
	}
	return out
}
