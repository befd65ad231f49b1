package mind

import (
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lunabyte/luna/internal/ai"
	"github.com/lunabyte/luna/internal/storage"
)

// stubClassifier implements Classifier with configurable answers and the
// documented safe defaults.
type stubClassifier struct {
	sentiment    string
	intentName   string
	intentArgs   map[string]string
	triage       string
	isCorrection bool
	isImageEdit  func(string) bool
	impact       int
	keywords     []string
	keywordsErr  error
}

func (s *stubClassifier) Sentiment(string) string {
	if s.sentiment == "" {
		return "neutral"
	}
	return s.sentiment
}

func (s *stubClassifier) Intent(string) (string, map[string]string) {
	if s.intentName == "" {
		return "general_conversation", map[string]string{}
	}
	return s.intentName, s.intentArgs
}

func (s *stubClassifier) QuestionTriage(string) string {
	if s.triage == "" {
		return "personal_opinion"
	}
	return s.triage
}

func (s *stubClassifier) IsCorrection(string, map[string]string) bool { return s.isCorrection }

func (s *stubClassifier) IsImageEdit(text string) bool {
	if s.isImageEdit == nil {
		return false
	}
	return s.isImageEdit(text)
}

func (s *stubClassifier) SentimentImpact(string, string, string) int { return s.impact }

func (s *stubClassifier) Keywords(string) ([]string, error) { return s.keywords, s.keywordsErr }

type fakeProvider struct {
	mu       sync.Mutex
	reply    string
	err      error
	calls    int
	lastMsgs []ai.Message
}

func (p *fakeProvider) Generate(msgs []ai.Message) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	p.lastMsgs = msgs
	return p.reply, p.err
}

func (p *fakeProvider) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

type sentMessage struct {
	ChannelID string
	Content   string
}

type fakeTransport struct {
	mu      sync.Mutex
	sent    []sentMessage
	history []HistoryMessage
}

func (t *fakeTransport) SendMessage(channelID, content string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sent = append(t.sent, sentMessage{channelID, content})
	return nil
}

func (t *fakeTransport) FetchHistory(string, int, string) ([]HistoryMessage, error) {
	return t.history, nil
}

func (t *fakeTransport) Typing(string) (stop func()) { return func() {} }

func (t *fakeTransport) messages() []sentMessage {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]sentMessage, len(t.sent))
	copy(out, t.sent)
	return out
}

func newTestCoordinator(t *testing.T, provider *fakeProvider, classifier *stubClassifier) (*Coordinator, *fakeTransport, *storage.Storage) {
	t.Helper()
	store, err := storage.New(filepath.Join(t.TempDir(), "test.json"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	transport := &fakeTransport{}
	c := NewCoordinator(store, provider, classifier, transport, CoordinatorConfig{
		Persona:      "You are Luna.",
		GenPerMinute: 100,
	})
	return c, transport, store
}

func inbound(content string) InboundMessage {
	return InboundMessage{
		MessageID: "m1",
		GuildID:   "g1",
		ChannelID: "ch1",
		UserID:    "u1",
		Username:  "alice",
		Content:   content,
		At:        time.Now(),
	}
}

func TestHandleMessageHappyPath(t *testing.T) {
	provider := &fakeProvider{reply: "hey alice"}
	c, transport, _ := newTestCoordinator(t, provider, &stubClassifier{})

	c.HandleMessage(inbound("hello there"))

	sent := transport.messages()
	require.Len(t, sent, 1)
	assert.Equal(t, "ch1", sent[0].ChannelID)
	assert.Equal(t, "hey alice", sent[0].Content)

	// Both the user line and the reply land in the window.
	lines := c.Windows.Guild("g1").Lines()
	require.Len(t, lines, 2)
	assert.Equal(t, "hello there", lines[0].Content)
	assert.True(t, lines[1].Assistant)
}

func TestHandleMessageDuplicateSpamShortCircuits(t *testing.T) {
	provider := &fakeProvider{reply: "hey"}
	c, transport, _ := newTestCoordinator(t, provider, &stubClassifier{})

	c.HandleMessage(inbound("same thing"))
	callsAfterFirst := provider.callCount()
	c.HandleMessage(inbound("same thing"))

	sent := transport.messages()
	require.Len(t, sent, 2)
	assert.Contains(t, sent[1].Content, "saw it the first time")
	assert.Contains(t, sent[1].Content, "alice")
	assert.Equal(t, callsAfterFirst, provider.callCount(), "no generation for the rebuke")
}

func TestHandleMessageSilenceSentinel(t *testing.T) {
	provider := &fakeProvider{reply: "[SILENCE]"}
	c, transport, _ := newTestCoordinator(t, provider, &stubClassifier{})

	c.HandleMessage(inbound("boring"))

	assert.Empty(t, transport.messages(), "sentinel means no message at all")
	// The user line stays in the window even when the bot says nothing.
	assert.Len(t, c.Windows.Guild("g1").Lines(), 1)
}

func TestHandleMessageGenerationFailureFallsBack(t *testing.T) {
	provider := &fakeProvider{err: errors.New("upstream down")}
	c, transport, _ := newTestCoordinator(t, provider, &stubClassifier{})

	c.HandleMessage(inbound("hello"))

	sent := transport.messages()
	require.Len(t, sent, 1)
	assert.Equal(t, fallbackGeneric, sent[0].Content)
}

func TestHandleMessageEmptyReplyFallsBack(t *testing.T) {
	provider := &fakeProvider{reply: "   "}
	c, transport, _ := newTestCoordinator(t, provider, &stubClassifier{})

	c.HandleMessage(inbound("hello"))

	sent := transport.messages()
	require.Len(t, sent, 1)
	assert.Equal(t, fallbackGeneric, sent[0].Content)
}

func TestUserKnowledgeWithoutProfile(t *testing.T) {
	provider := &fakeProvider{reply: "should not be used"}
	c, _, _ := newTestCoordinator(t, provider, &stubClassifier{intentName: "get_user_knowledge"})

	reply := c.respond(inbound("who am I to you?"))

	assert.Contains(t, reply, "I got nothin'")
	assert.Equal(t, 0, provider.callCount(), "scripted line, no generation")
}

func TestUserKnowledgeWithProfile(t *testing.T) {
	provider := &fakeProvider{reply: "you love pizza, obviously"}
	c, _, store := newTestCoordinator(t, provider, &stubClassifier{intentName: "get_user_knowledge"})
	require.True(t, store.SaveFact("u1", "g1", "favorite_food", "pizza"))

	reply := c.respond(inbound("who am I to you?"))
	assert.Equal(t, "you love pizza, obviously", reply)

	// The stored fact travels into the generation context.
	provider.mu.Lock()
	defer provider.mu.Unlock()
	joined := ""
	for _, m := range provider.lastMsgs {
		joined += m.Content + "\n"
	}
	assert.Contains(t, joined, "favorite_food: pizza")
}

func TestBackgroundUpdateScoresMessage(t *testing.T) {
	provider := &fakeProvider{reply: "hi"}
	c, _, store := newTestCoordinator(t, provider, &stubClassifier{impact: 5})

	c.backgroundUpdate(inbound("you are the best"), VerdictNormal)

	p := store.GetProfile("u1", "g1")
	assert.InDelta(t, 4.995, p.RelationshipScore, 1e-9)
	assert.Equal(t, 1, p.MessageCount)
}

func TestBackgroundUpdateRapidFireSkipsScoring(t *testing.T) {
	provider := &fakeProvider{reply: "hi"}
	c, _, store := newTestCoordinator(t, provider, &stubClassifier{impact: 5})

	c.backgroundUpdate(inbound("quick one"), VerdictRapidFire)

	p := store.GetProfile("u1", "g1")
	assert.Zero(t, p.RelationshipScore)
	assert.Zero(t, p.MessageCount)
}

func TestLearnCorrectionStoresFact(t *testing.T) {
	provider := &fakeProvider{reply: "favorite_food: sushi"}
	c, _, store := newTestCoordinator(t, provider, &stubClassifier{isCorrection: true, impact: 1})

	c.backgroundUpdate(inbound("actually I prefer sushi"), VerdictNormal)

	p := store.GetProfile("u1", "g1")
	assert.Equal(t, "sushi", p.Facts["favorite_food"])
}

func TestBackfillWindowSeedsFromHistory(t *testing.T) {
	provider := &fakeProvider{reply: "hi"}
	c, transport, _ := newTestCoordinator(t, provider, &stubClassifier{})
	transport.history = []HistoryMessage{
		{ID: "h2", Username: "bob", Content: "newer line", At: time.Now()},
		{ID: "h1", Username: "bob", Content: "older line", At: time.Now().Add(-time.Minute)},
	}

	c.HandleMessage(inbound("hello"))

	lines := c.Windows.Guild("g1").Lines()
	require.GreaterOrEqual(t, len(lines), 3)
	assert.Equal(t, "older line", lines[0].Content, "history replays oldest first")
	assert.Equal(t, "newer line", lines[1].Content)
	assert.Equal(t, "hello", lines[2].Content)
}

func TestRespondThrottledGuild(t *testing.T) {
	provider := &fakeProvider{reply: "hi"}
	store, err := storage.New(filepath.Join(t.TempDir(), "test.json"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	transport := &fakeTransport{}
	c := NewCoordinator(store, provider, &stubClassifier{}, transport, CoordinatorConfig{
		Persona:       "You are Luna.",
		GenPerMinute:  100,
		GuildCooldown: time.Minute,
	})

	c.HandleMessage(inbound("first"))
	c.HandleMessage(inbound("second"))

	sent := transport.messages()
	require.Len(t, sent, 2)
	assert.Equal(t, "hi", sent[0].Content)
	assert.Equal(t, fallbackNoGen, sent[1].Content, "guild cooldown blocks the second generation")
}

func TestReplyImageEditBranch(t *testing.T) {
	provider := &fakeProvider{reply: "sure, imagine it with a hat"}
	c, transport, _ := newTestCoordinator(t, provider, &stubClassifier{})

	in := inbound("add a hat")
	in.ReplyToID = "m0"
	in.ReplyImageURL = "https://cdn.example/cat.png"
	c.HandleMessage(in)

	sent := transport.messages()
	require.Len(t, sent, 1)
	assert.Equal(t, "sure, imagine it with a hat", sent[0].Content)

	provider.mu.Lock()
	defer provider.mu.Unlock()
	joined := ""
	for _, m := range provider.lastMsgs {
		joined += m.Content + "\n"
	}
	assert.True(t, strings.Contains(joined, "edit an image"), "edit branch context in prompt")
}
