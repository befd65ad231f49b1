// Package mind holds the bot's decision core: spam admission, intent
// routing, relationship scoring, mood, memory retrieval, and the per-turn
// pipeline that ties them together.
package mind

import "time"

// InboundMessage is one normalized chat event handed to the coordinator.
// The transport layer resolves reply references before handing it over.
type InboundMessage struct {
	MessageID string
	GuildID   string
	ChannelID string
	UserID    string
	Username  string
	Content   string
	At        time.Time

	// HasAttachment is true when the message itself carries media.
	HasAttachment bool

	// ReplyToID is the ID of the message this one replies to, if any.
	// ReplyImageURL is set when that referenced message carries an image.
	ReplyToID     string
	ReplyImageURL string
}

// Transport is the outbound side of the chat platform.
type Transport interface {
	SendMessage(channelID, content string) error
	FetchHistory(channelID string, limit int, beforeID string) ([]HistoryMessage, error)
	// Typing starts a typing indicator and returns its release func.
	Typing(channelID string) (stop func())
}

// HistoryMessage is one message fetched from channel history.
type HistoryMessage struct {
	ID       string
	UserID   string
	Username string
	Content  string
	ImageURL string
	At       time.Time
}

// Classifier is the external classification capability consumed by the
// core. Implementations recover from failure to the documented defaults;
// only Keywords surfaces errors, so callers can run the local fallback.
type Classifier interface {
	Sentiment(text string) string
	Intent(text string) (name string, args map[string]string)
	QuestionTriage(text string) string
	IsCorrection(text string, knownFacts map[string]string) bool
	IsImageEdit(text string) bool
	SentimentImpact(persona, userName, text string) int
	Keywords(text string) ([]string, error)
}
