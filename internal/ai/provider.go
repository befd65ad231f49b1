package ai

import (
	"fmt"
	"strings"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Provider is an opaque chat-completion backend. Implementations own their
// HTTP timeouts; a timeout surfaces as an error, never as partial output.
type Provider interface {
	Generate(messages []Message) (string, error)
}

// NewProvider builds a provider from an engine string, e.g. "pollinations",
// "pollinations:mistral" or "g4f:gpt-oss-120b".
func NewProvider(engine string) Provider {
	switch {
	case engine == "", strings.HasPrefix(engine, "pollinations"):
		return NewPollinationsProvider(engine)
	case strings.HasPrefix(engine, "g4f"):
		return NewG4FProvider(engine)
	default:
		panic(fmt.Sprintf("unsupported AI_PROVIDER: %s", engine))
	}
}
