package mind

import (
	"fmt"
	"strings"

	"github.com/lunabyte/luna/internal/ai"
	"github.com/lunabyte/luna/internal/storage"
)

// Character budgets per prompt section, roughly 4 chars per token.
const (
	maxMemoryChars = 1600
	maxFactsChars  = 800
	maxWindowChars = 3200
	maxBranchChars = 400
)

// TrimToChars truncates s to maxChars, preferring a word boundary.
func TrimToChars(s string, maxChars int) string {
	if maxChars <= 0 || len(s) <= maxChars {
		return s
	}
	r := []rune(s)
	if len(r) <= maxChars {
		return s
	}
	out := string(r[:maxChars])
	lastSpace := strings.LastIndex(out, " ")
	if lastSpace > maxChars/2 {
		return strings.TrimSpace(out[:lastSpace])
	}
	return strings.TrimSpace(out)
}

// PromptContext bundles everything one generation call needs.
type PromptContext struct {
	Persona  string
	Mood     Mood
	Status   string // relationship tier label for the speaking user
	Username string
	Profile  storage.Profile
	Memories []storage.ConversationSummary
	// Extra carries branch-specific instructions (weather location, image
	// prompt, attachment note, question triage hint).
	Extra string
}

// BuildSystemPrompt assembles the system message: persona, current mood,
// relationship standing, known facts, relevant memories, branch extras.
// The persona is never trimmed; everything else fits its budget.
func BuildSystemPrompt(pc PromptContext) string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(pc.Persona))
	b.WriteString("\n\n")

	fmt.Fprintf(&b, "Current mood: %s.\n", pc.Mood)
	if pc.Status != "" {
		fmt.Fprintf(&b, "Relationship with %s: %s.\n", pc.Username, pc.Status)
	}

	if len(pc.Profile.Facts) > 0 || pc.Profile.MarriedTo != "" {
		b.WriteString("--- What you know about them ---\n")
		var facts strings.Builder
		if pc.Profile.MarriedTo != "" {
			fmt.Fprintf(&facts, "married_to: %s (%s)\n", pc.Profile.MarriedTo, pc.Profile.MarriageDate)
		}
		for k, v := range pc.Profile.Facts {
			facts.WriteString(k + ": " + v + "\n")
		}
		b.WriteString(TrimToChars(facts.String(), maxFactsChars))
		b.WriteString("\n")
	}

	if len(pc.Memories) > 0 {
		b.WriteString("--- Things you remember ---\n")
		var mem strings.Builder
		for _, m := range pc.Memories {
			mem.WriteString("- " + m.Text + "\n")
		}
		b.WriteString(TrimToChars(mem.String(), maxMemoryChars))
		b.WriteString("\n")
	}

	if pc.Extra != "" {
		b.WriteString(TrimToChars(pc.Extra, maxBranchChars))
		b.WriteString("\n")
	}

	b.WriteString("\nIf the right move is to not answer at all, reply with exactly " + SilenceSentinel + " and nothing else.\n")
	return b.String()
}

// BuildMessages returns the full message list for one generation call:
// system prompt plus the recent window, newest lines kept within budget.
func BuildMessages(pc PromptContext, window []WindowLine) []ai.Message {
	msgs := []ai.Message{{Role: "system", Content: BuildSystemPrompt(pc)}}

	var chars int
	start := len(window) - 1
	for start >= 0 {
		l := window[start]
		if chars+len(l.Content)+len(l.Username) > maxWindowChars {
			break
		}
		chars += len(l.Content) + len(l.Username)
		start--
	}
	for i := start + 1; i < len(window); i++ {
		l := window[i]
		if l.Assistant {
			msgs = append(msgs, ai.Message{Role: "assistant", Content: l.Content})
		} else {
			msgs = append(msgs, ai.Message{Role: "user", Content: l.Username + ": " + l.Content})
		}
	}
	return msgs
}
