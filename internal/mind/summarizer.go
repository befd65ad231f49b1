package mind

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/robfig/cron/v3"

	"github.com/lunabyte/luna/internal/ai"
	"github.com/lunabyte/luna/internal/storage"
)

// SummarizePrompt instructs the backend to digest a window. No personality,
// just summarization.
const SummarizePrompt = `You are a summarizer. Condense the following chat transcript into one short paragraph. Keep names, events, and social dynamics. Output ONLY the summary text, no preamble.`

// Summarizer periodically digests full conversation windows into stored
// guild summaries that MemoryIndex retrieves later.
type Summarizer struct {
	windows    *WindowSet
	provider   ai.Provider
	classifier Classifier
	store      *storage.Storage
	cron       *cron.Cron
}

func NewSummarizer(windows *WindowSet, provider ai.Provider, classifier Classifier, store *storage.Storage) *Summarizer {
	return &Summarizer{
		windows:    windows,
		provider:   provider,
		classifier: classifier,
		store:      store,
	}
}

// Start schedules the summarizer every 10 minutes until ctx is done.
func (s *Summarizer) Start(ctx context.Context) error {
	s.cron = cron.New()
	if _, err := s.cron.AddFunc("@every 10m", s.RunOnce); err != nil {
		return fmt.Errorf("summarizer schedule: %w", err)
	}
	s.cron.Start()
	go func() {
		<-ctx.Done()
		s.cron.Stop()
	}()
	return nil
}

// RunOnce summarizes every guild window over the threshold.
func (s *Summarizer) RunOnce() {
	for _, guildID := range s.windows.GuildIDs() {
		w := s.windows.Guild(guildID)
		if !w.NeedsSummary() {
			continue
		}
		if err := s.summarizeGuild(guildID, w); err != nil {
			log.Printf("[MIND] summarization failed guild=%s: %v", guildID, err)
		}
	}
}

func (s *Summarizer) summarizeGuild(guildID string, w *Window) error {
	lines := w.Lines()
	if len(lines) == 0 {
		return nil
	}

	var transcript strings.Builder
	for _, l := range lines {
		if l.Assistant {
			transcript.WriteString("Assistant: ")
		} else {
			transcript.WriteString(l.Username + ": ")
		}
		transcript.WriteString(l.Content)
		transcript.WriteString("\n")
	}
	text := transcript.String()
	if len(text) > 8000 {
		text = text[len(text)-8000:]
	}

	summary, err := s.provider.Generate([]ai.Message{
		{Role: "system", Content: SummarizePrompt},
		{Role: "user", Content: text},
	})
	if err != nil {
		return err
	}
	summary = strings.TrimSpace(summary)
	if summary == "" {
		return fmt.Errorf("summarizer returned empty")
	}

	keywords := ExtractKeywords(s.classifier, summary)
	if err := s.store.SaveSummary(guildID, summary, keywords); err != nil {
		return err
	}
	w.Clear()
	log.Printf("[MIND] summarized guild=%s len=%d keywords=%v", guildID, len(summary), keywords)
	return nil
}
