package ai

import (
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"strings"
)

// Classifier runs small, single-purpose classification calls against a
// Provider. Every method recovers from backend failure to a safe default and
// never returns an error to the conversational pipeline; the defaults are
// part of the contract.
type Classifier struct {
	provider Provider
}

func NewClassifier(provider Provider) *Classifier {
	return &Classifier{provider: provider}
}

func (c *Classifier) ask(system, user string) (string, error) {
	out, err := c.provider.Generate([]Message{
		{Role: "system", Content: system},
		{Role: "user", Content: user},
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// oneOf returns the first allowed label contained in the reply, else def.
func oneOf(reply string, allowed []string, def string) string {
	l := strings.ToLower(reply)
	for _, a := range allowed {
		if strings.Contains(l, a) {
			return a
		}
	}
	return def
}

// Sentiment labels text as one of positive, negative, neutral, sarcastic,
// flirty, angry. Defaults to neutral.
func (c *Classifier) Sentiment(text string) string {
	const system = `Classify the emotional tone of the user's message. Answer with exactly one word from: positive, negative, neutral, sarcastic, flirty, angry.`
	reply, err := c.ask(system, text)
	if err != nil {
		log.Printf("[AI] sentiment failed: %v", err)
		return "neutral"
	}
	return oneOf(reply, []string{"positive", "negative", "sarcastic", "flirty", "angry", "neutral"}, "neutral")
}

// Intent asks the backend which action the message requests. Returns the
// raw intent name plus any extracted arguments; defaults to
// ("general_conversation", {}) on any failure.
func (c *Classifier) Intent(text string) (string, map[string]string) {
	const system = `You route chat messages to actions. Respond with ONLY a JSON object:
{"intent": "...", "args": {...}}
intent is one of: generate_image, generate_user_portrait, get_weather, get_user_knowledge, tag_user, get_my_name, search_images, general_conversation.
args may contain: prompt, location, target_user, user_to_tag, query.`
	reply, err := c.ask(system, text)
	if err != nil {
		log.Printf("[AI] intent failed: %v", err)
		return "general_conversation", map[string]string{}
	}
	var parsed struct {
		Intent string            `json:"intent"`
		Args   map[string]string `json:"args"`
	}
	if err := json.Unmarshal([]byte(extractJSON(reply)), &parsed); err != nil || parsed.Intent == "" {
		return "general_conversation", map[string]string{}
	}
	if parsed.Args == nil {
		parsed.Args = map[string]string{}
	}
	return parsed.Intent, parsed.Args
}

// QuestionTriage decides how a question should be answered. Defaults to
// personal_opinion.
func (c *Classifier) QuestionTriage(text string) string {
	const system = `Decide how to answer the user's question. Answer with exactly one word from: real_time_search, general_knowledge, personal_opinion.`
	reply, err := c.ask(system, text)
	if err != nil {
		log.Printf("[AI] triage failed: %v", err)
		return "personal_opinion"
	}
	return oneOf(reply, []string{"real_time_search", "general_knowledge", "personal_opinion"}, "personal_opinion")
}

// IsCorrection reports whether the message corrects a stored fact about the
// user. Defaults to false.
func (c *Classifier) IsCorrection(text string, knownFacts map[string]string) bool {
	var facts strings.Builder
	for k, v := range knownFacts {
		facts.WriteString(k + ": " + v + "\n")
	}
	system := "Known facts about the user:\n" + facts.String() +
		"\nDoes the user's message correct or update one of these facts? Answer yes or no."
	reply, err := c.ask(system, text)
	if err != nil {
		return false
	}
	return strings.HasPrefix(strings.ToLower(reply), "yes")
}

// IsImageEdit reports whether the message asks to modify an image it replies
// to. Defaults to false.
func (c *Classifier) IsImageEdit(text string) bool {
	const system = `The user is replying to a message containing an image. Are they asking to EDIT or MODIFY that image (as opposed to commenting or chatting about it)? Answer yes or no.`
	reply, err := c.ask(system, text)
	if err != nil {
		return false
	}
	return strings.HasPrefix(strings.ToLower(reply), "yes")
}

// SentimentImpact scores how a message should move the relationship, in
// [-100, 100]. Defaults to +1 so a backend outage never penalizes anyone.
func (c *Classifier) SentimentImpact(persona, userName, text string) int {
	system := persona + "\n\nRate how " + userName +
		"'s message makes you feel about them, as a single integer from -100 (hate it) to 100 (love it). Respond with ONLY the integer."
	reply, err := c.ask(system, text)
	if err != nil {
		log.Printf("[AI] sentiment impact failed: %v", err)
		return 1
	}
	n, err := strconv.Atoi(strings.TrimSpace(strings.Trim(reply, "+.")))
	if err != nil {
		return 1
	}
	if n > 100 {
		n = 100
	}
	if n < -100 {
		n = -100
	}
	return n
}

// Keywords extracts search keywords from text. Unlike the other methods this
// one surfaces failure, so the caller can apply its deterministic local
// fallback.
func (c *Classifier) Keywords(text string) ([]string, error) {
	const system = `Extract up to 3 search keywords from the user's message. Respond with ONLY a JSON array of lowercase strings, e.g. ["pizza","birthday"].`
	reply, err := c.ask(system, text)
	if err != nil {
		return nil, err
	}
	var words []string
	if err := json.Unmarshal([]byte(extractJSON(reply)), &words); err != nil {
		return nil, fmt.Errorf("keywords parse: %w", err)
	}
	if len(words) == 0 {
		return nil, fmt.Errorf("keywords empty")
	}
	return words, nil
}

// extractJSON trims chatter around the first JSON value in a reply.
func extractJSON(s string) string {
	start := strings.IndexAny(s, "{[")
	if start < 0 {
		return s
	}
	open := s[start]
	var close byte = '}'
	if open == '[' {
		close = ']'
	}
	end := strings.LastIndexByte(s, close)
	if end <= start {
		return s
	}
	return s[start : end+1]
}
