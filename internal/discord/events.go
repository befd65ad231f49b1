package discord

import (
	"log"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/lunabyte/luna/internal/core"
	"github.com/lunabyte/luna/internal/mind"
)

// onMessageCreate feeds chat messages into the coordinator. Luna answers
// when directly addressed: a mention, a reply to one of her messages, or a
// DM. Everything else in the channel is none of her business.
func (b *Bot) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.ID == s.State.User.ID || m.Author.Bot {
		return
	}
	if !b.isAddressed(s, m) {
		return
	}

	in := mind.InboundMessage{
		MessageID:     m.ID,
		GuildID:       m.GuildID,
		ChannelID:     m.ChannelID,
		UserID:        m.Author.ID,
		Username:      m.Author.Username,
		Content:       stripSelfMention(s, m.Content),
		At:            messageTime(m),
		HasAttachment: len(m.Attachments) > 0,
	}
	if ref := m.ReferencedMessage; ref != nil {
		in.ReplyToID = ref.ID
		in.ReplyImageURL = firstImageURL(ref)
	}

	go b.coordinator.HandleMessage(in)
}

func (b *Bot) isAddressed(s *discordgo.Session, m *discordgo.MessageCreate) bool {
	if m.GuildID == "" {
		return true // DM
	}
	for _, u := range m.Mentions {
		if u.ID == s.State.User.ID {
			return true
		}
	}
	if ref := m.ReferencedMessage; ref != nil && ref.Author != nil && ref.Author.ID == s.State.User.ID {
		return true
	}
	return false
}

// stripSelfMention removes the leading bot mention so the classifier sees
// clean text.
func stripSelfMention(s *discordgo.Session, content string) string {
	id := s.State.User.ID
	content = strings.ReplaceAll(content, "<@"+id+">", "")
	content = strings.ReplaceAll(content, "<@!"+id+">", "")
	return strings.TrimSpace(content)
}

func messageTime(m *discordgo.MessageCreate) time.Time {
	if !m.Timestamp.IsZero() {
		return m.Timestamp
	}
	at, _ := discordgo.SnowflakeTimestamp(m.ID)
	return at
}

// onInteractionCreate dispatches slash commands through the registry.
func (b *Bot) onInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}

	cmdName := i.ApplicationCommandData().Name
	cmd, ok := core.GetCommand(cmdName)
	if !ok {
		log.Printf("[WARN] Unknown command: %s", cmdName)
		return
	}

	ctx := &core.SlashInteractionContext{
		Session: s,
		Event:   i,
		Storage: b.storage,
	}
	if err := cmd.Run(ctx); err != nil {
		log.Println("[ERR] Error running slash command:", err)
		core.RespondEphemeral(s, i, "That broke something. Not my fault. Probably.")
	}
}
