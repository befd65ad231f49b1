package mind

import (
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/lunabyte/luna/internal/ai"
	"github.com/lunabyte/luna/internal/storage"
)

// SilenceSentinel is the one generation output that legitimately produces no
// reply. Everything else that comes back empty gets a scripted fallback.
const SilenceSentinel = "[SILENCE]"

// Scripted lines. Every user-initiated message gets answered with something,
// even when every external collaborator is down.
const (
	rebukeDuplicate  = "Copy-pasting the same thing at me? I saw it the first time."
	fallbackGeneric  = "Ugh, my brain just glitched. Say that again?"
	fallbackNoGen    = "I'm a little overwhelmed right now, give me a sec."
	fallbackNoFacts  = "I got nothin'. You haven't told me anything about yourself yet."
	fallbackImage    = "My hands are full, no doodles right now."
	fallbackWeather  = "No clue what the sky's doing, my window is painted shut."
)

// Coordinator sequences the per-turn pipeline: spam check, detached
// relationship-and-mood update, intent routing, branch dispatch, one
// generation call, delivery. It owns the per-channel locks that keep
// generation serialized within a channel.
type Coordinator struct {
	store      *storage.Storage
	provider   ai.Provider
	classifier Classifier
	transport  Transport

	Spam     *SpamGuard
	Rel      *RelationshipEngine
	Mood     *MoodScheduler
	Memory   *MemoryIndex
	Windows  *WindowSet
	limiter  *GenLimiter

	persona string

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

type CoordinatorConfig struct {
	Persona       string
	GenPerMinute  int
	GuildCooldown time.Duration
}

func NewCoordinator(store *storage.Storage, provider ai.Provider, classifier Classifier, transport Transport, cfg CoordinatorConfig) *Coordinator {
	return &Coordinator{
		store:      store,
		provider:   provider,
		classifier: classifier,
		transport:  transport,
		Spam:       NewSpamGuard(),
		Rel:        NewRelationshipEngine(store),
		Mood:       NewMoodScheduler(time.Now()),
		Memory:     NewMemoryIndex(store),
		Windows:    NewWindowSet(),
		limiter:    NewGenLimiter(cfg.GenPerMinute, cfg.GuildCooldown),
		persona:    cfg.Persona,
		locks:      make(map[string]*sync.Mutex),
	}
}

// SetTransport wires the outbound side. Must be called before the first
// HandleMessage; the transport usually only exists once the platform session
// is up.
func (c *Coordinator) SetTransport(t Transport) {
	c.transport = t
}

// channelLock returns the lock for a channel, created on first use and kept
// for the life of the process.
func (c *Coordinator) channelLock(channelID string) *sync.Mutex {
	c.locksMu.Lock()
	defer c.locksMu.Unlock()
	l, ok := c.locks[channelID]
	if !ok {
		l = &sync.Mutex{}
		c.locks[channelID] = l
	}
	return l
}

// HandleMessage runs the full pipeline for one inbound event. Call it from
// its own goroutine; it blocks on the channel lock and the generation call.
func (c *Coordinator) HandleMessage(in InboundMessage) {
	if in.At.IsZero() {
		in.At = time.Now()
	}

	verdict := c.Spam.Evaluate(in.UserID, in.Content, in.At)
	if verdict == VerdictDuplicateSpam {
		// Short-circuit: no points, no generation, a scripted rebuke.
		c.send(in.ChannelID, fmt.Sprintf("%s — %s", in.Username, rebukeDuplicate))
		return
	}

	// Detached: relationship and mood move on their own, failures here must
	// never touch the reply path. RapidFire suppresses scoring only.
	go c.backgroundUpdate(in, verdict)

	c.backfillWindow(in)
	c.Windows.Guild(in.GuildID).Push(WindowLine{
		Username: in.Username,
		Content:  in.Content,
		At:       in.At,
	})

	reply := c.respond(in)
	if reply == "" {
		return // silence sentinel
	}
	c.send(in.ChannelID, reply)
	c.Windows.Guild(in.GuildID).Push(WindowLine{
		Username:  "assistant",
		Content:   reply,
		Assistant: true,
		At:        time.Now(),
	})
}

// respond picks the branch and produces the outbound text, holding the
// channel lock across compose-and-generate. Empty return means intentional
// silence; every failure path returns a scripted fallback instead.
func (c *Coordinator) respond(in InboundMessage) string {
	lock := c.channelLock(in.ChannelID)
	lock.Lock()
	defer lock.Unlock()

	stopTyping := c.transport.Typing(in.ChannelID)
	defer stopTyping()

	// Replies to an image get their own sub-router before intent routing.
	if in.ReplyImageURL != "" {
		if RouteReply(in.Content, c.classifier) == ReplyEditImage {
			return c.generateBranch(in, IntentGenerateImage,
				"The user wants you to edit an image you can see at "+in.ReplyImageURL+
					". You cannot actually edit images here; react in character to the request: "+in.Content)
		}
		in.HasAttachment = true
	}

	name, rawArgs := c.classifier.Intent(in.Content)
	intent, args := Route(in, name, rawArgs)
	log.Printf("[MIND] intent=%s user=%s guild=%s", intent, in.UserID, in.GuildID)

	switch intent {
	case IntentGetUserKnowledge:
		return c.respondUserKnowledge(in, args)
	case IntentGetMyName:
		return c.respondMyName(in)
	case IntentGetWeather:
		return c.generateBranch(in, intent,
			"They are asking about the weather in: "+args["location"]+
				". You have no live data; answer in character, guessing playfully.")
	case IntentTagUser:
		return c.respondTagUser(in, args)
	case IntentGenerateImage, IntentGenerateUserPortrait, IntentSearchImages:
		return c.generateBranch(in, intent,
			"They want images ("+intent.String()+": "+args["prompt"]+args["query"]+
				"). You cannot produce images in this channel; respond in character about what you would make.")
	default:
		return c.respondGeneral(in)
	}
}

func (c *Coordinator) respondGeneral(in InboundMessage) string {
	extra := ""
	if strings.HasSuffix(strings.TrimSpace(in.Content), "?") {
		switch c.classifier.QuestionTriage(in.Content) {
		case "real_time_search":
			extra = "This needs live information you don't have; say so in character and give your best guess."
		case "general_knowledge":
			extra = "This is a general-knowledge question; answer it accurately but stay in character."
		default:
			extra = "They want your personal take; give a strong opinion."
		}
	}
	if in.HasAttachment {
		extra += " The message includes an image; react to it."
	}
	return c.generateBranch(in, IntentGeneralConversation, extra)
}

func (c *Coordinator) respondUserKnowledge(in InboundMessage, args map[string]string) string {
	target := args["target_user"]
	targetName := in.Username
	if target != in.UserID && target != "" {
		targetName = target
	}
	if !c.store.HasProfile(target, in.GuildID) {
		return fmt.Sprintf("%s — %s", in.Username, fallbackNoFacts)
	}
	profile := c.store.GetProfile(target, in.GuildID)
	var facts strings.Builder
	for k, v := range profile.Facts {
		facts.WriteString(k + ": " + v + "\n")
	}
	return c.generateBranch(in, IntentGetUserKnowledge,
		"They are asking what you know about "+targetName+". Here is what you have:\n"+
			facts.String()+"Work it into your answer naturally.")
}

func (c *Coordinator) respondMyName(in InboundMessage) string {
	profile := c.store.GetProfile(in.UserID, in.GuildID)
	known := profile.Facts["name"]
	if known == "" {
		known = in.Username
	}
	return c.generateBranch(in, IntentGetMyName,
		"They are asking what you call them. You call them: "+known+".")
}

func (c *Coordinator) respondTagUser(in InboundMessage, args map[string]string) string {
	return c.generateBranch(in, IntentTagUser,
		"They want you to call out "+args["user_to_tag"]+" into the conversation. Do it with flair.")
}

// generateBranch performs the single generation call for a branch and maps
// every failure or empty result to that branch's scripted fallback. The
// silence sentinel comes back as an empty string, meaning say nothing.
func (c *Coordinator) generateBranch(in InboundMessage, intent Intent, extra string) string {
	if !c.limiter.Allow(in.GuildID, time.Now()) {
		log.Printf("[MIND] generation throttled guild=%s", in.GuildID)
		return fallbackNoGen
	}

	profile := c.store.GetProfile(in.UserID, in.GuildID)
	status, _ := StatusFor(profile.RelationshipScore)
	keywords := ExtractKeywords(c.classifier, in.Content)
	memories := c.Memory.Retrieve(in.GuildID, keywords, 3)

	pc := PromptContext{
		Persona:  c.persona,
		Mood:     c.Mood.Current(time.Now()),
		Status:   status,
		Username: in.Username,
		Profile:  profile,
		Memories: memories,
		Extra:    extra,
	}
	msgs := BuildMessages(pc, c.Windows.Guild(in.GuildID).Lines())

	reply, err := c.provider.Generate(msgs)
	if err != nil {
		log.Printf("[ERR] generation failed intent=%s: %v", intent, err)
		return c.fallbackFor(intent)
	}
	reply = strings.TrimSpace(reply)
	if reply == SilenceSentinel {
		return ""
	}
	if reply == "" {
		return c.fallbackFor(intent)
	}
	return reply
}

func (c *Coordinator) fallbackFor(intent Intent) string {
	switch intent {
	case IntentGenerateImage, IntentGenerateUserPortrait, IntentSearchImages:
		return fallbackImage
	case IntentGetWeather:
		return fallbackWeather
	case IntentGetUserKnowledge, IntentGetMyName:
		return fallbackNoFacts
	default:
		return fallbackGeneric
	}
}

// backgroundUpdate runs off the reply path: sentiment may shift the mood,
// the sentiment impact moves the relationship score, and corrections update
// stored facts. RapidFire turns suppress scoring.
func (c *Coordinator) backgroundUpdate(in InboundMessage, verdict Verdict) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[ERR] background update panic: %v", r)
		}
	}()

	sentiment := c.classifier.Sentiment(in.Content)
	if mood, changed := c.Mood.OnSentiment(sentiment, time.Now()); changed {
		log.Printf("[MIND] mood shift → %s (sentiment=%s)", mood, sentiment)
	}

	if verdict == VerdictRapidFire {
		return
	}

	impact := c.classifier.SentimentImpact(c.persona, in.Username, in.Content)
	newScore := c.Rel.ApplyDelta(in.UserID, in.GuildID, float64(impact))
	log.Printf("[MIND] score user=%s guild=%s delta=%d → %.3f", in.UserID, in.GuildID, impact, newScore)

	c.learnCorrection(in)
}

// learnCorrection stores a corrected fact when the classifier flags one.
func (c *Coordinator) learnCorrection(in InboundMessage) {
	profile := c.store.GetProfile(in.UserID, in.GuildID)
	if !c.classifier.IsCorrection(in.Content, profile.Facts) {
		return
	}
	out, err := c.provider.Generate([]ai.Message{
		{Role: "system", Content: "The user corrected a stored fact about themselves. Output ONLY one line `key: value` with the updated fact, snake_case key."},
		{Role: "user", Content: in.Content},
	})
	if err != nil {
		log.Printf("[MIND] correction extract failed: %v", err)
		return
	}
	k, v, ok := strings.Cut(out, ":")
	if !ok {
		return
	}
	k = strings.ToLower(strings.TrimSpace(k))
	v = strings.TrimSpace(v)
	if k == "" || v == "" {
		return
	}
	if c.store.SaveFact(in.UserID, in.GuildID, k, v) {
		log.Printf("[MIND] learned fact user=%s %s=%s", in.UserID, k, v)
	}
}

// backfillWindow seeds an empty guild window from channel history so a
// restart does not wipe conversational context.
func (c *Coordinator) backfillWindow(in InboundMessage) {
	w := c.Windows.Guild(in.GuildID)
	if len(w.Lines()) > 0 {
		return
	}
	history, err := c.transport.FetchHistory(in.ChannelID, 20, in.MessageID)
	if err != nil {
		log.Printf("[WARN] history backfill failed channel=%s: %v", in.ChannelID, err)
		return
	}
	// History arrives newest first; replay oldest first.
	for i := len(history) - 1; i >= 0; i-- {
		h := history[i]
		if h.ID == in.MessageID || h.Content == "" {
			continue
		}
		w.Push(WindowLine{Username: h.Username, Content: h.Content, At: h.At})
	}
}

func (c *Coordinator) send(channelID, content string) {
	if err := c.transport.SendMessage(channelID, content); err != nil {
		log.Printf("[ERR] send failed channel=%s: %v", channelID, err)
	}
}
