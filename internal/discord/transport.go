package discord

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/lunabyte/luna/internal/mind"
)

const maxMessageLen = 2000

// sessionTransport adapts a discordgo session to the outbound interface the
// coordinator talks to.
type sessionTransport struct {
	dg *discordgo.Session
}

func newSessionTransport(dg *discordgo.Session) *sessionTransport {
	return &sessionTransport{dg: dg}
}

func (t *sessionTransport) SendMessage(channelID, content string) error {
	for _, chunk := range splitMessage(content, maxMessageLen) {
		if _, err := t.dg.ChannelMessageSend(channelID, chunk); err != nil {
			return fmt.Errorf("send to %s: %w", channelID, err)
		}
	}
	return nil
}

func (t *sessionTransport) FetchHistory(channelID string, limit int, beforeID string) ([]mind.HistoryMessage, error) {
	msgs, err := t.dg.ChannelMessages(channelID, limit, beforeID, "", "")
	if err != nil {
		return nil, fmt.Errorf("history for %s: %w", channelID, err)
	}
	out := make([]mind.HistoryMessage, 0, len(msgs))
	for _, m := range msgs {
		at, _ := discordgo.SnowflakeTimestamp(m.ID)
		out = append(out, mind.HistoryMessage{
			ID:       m.ID,
			UserID:   m.Author.ID,
			Username: m.Author.Username,
			Content:  m.Content,
			ImageURL: firstImageURL(m),
			At:       at,
		})
	}
	return out, nil
}

// Typing keeps the indicator alive until the returned stop func is called.
// Discord drops the indicator after ~10s, so it is re-sent on a timer.
func (t *sessionTransport) Typing(channelID string) (stop func()) {
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(8 * time.Second)
		defer ticker.Stop()
		_ = t.dg.ChannelTyping(channelID)
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if err := t.dg.ChannelTyping(channelID); err != nil {
					log.Printf("[WARN] typing indicator for %s: %v", channelID, err)
					return
				}
			}
		}
	}()
	return func() { close(done) }
}

// splitMessage breaks content into Discord-sized chunks, preferring line
// boundaries, then spaces, then a hard cut.
func splitMessage(content string, max int) []string {
	if len(content) <= max {
		return []string{content}
	}
	var chunks []string
	for len(content) > max {
		cut := strings.LastIndex(content[:max], "\n")
		if cut <= 0 {
			cut = strings.LastIndex(content[:max], " ")
		}
		if cut <= 0 {
			cut = max
		}
		chunks = append(chunks, strings.TrimSpace(content[:cut]))
		content = strings.TrimSpace(content[cut:])
	}
	if content != "" {
		chunks = append(chunks, content)
	}
	return chunks
}

func firstImageURL(m *discordgo.Message) string {
	for _, a := range m.Attachments {
		if strings.HasPrefix(a.ContentType, "image/") {
			return a.URL
		}
	}
	for _, e := range m.Embeds {
		if e.Image != nil && e.Image.URL != "" {
			return e.Image.URL
		}
	}
	return ""
}
