package storage

import (
	"log"
	"time"
)

// Summaries are append-only; the stored list is capped so one chatty guild
// cannot grow the datastore file without bound.
const storedSummariesCap = 200

// ConversationSummary is a digest of one past conversation window. Immutable
// once created; removed only by a bulk guild clear.
type ConversationSummary struct {
	Text      string    `json:"text"`
	Keywords  []string  `json:"keywords,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func memoriesKey(guildID string) string {
	return "memories:" + scopeOf(guildID)
}

// SaveSummary appends a summary to the guild's memory collection.
func (s *Storage) SaveSummary(guildID, text string, keywords []string) error {
	key := memoriesKey(guildID)
	lock := s.scopeLock(key)
	lock.Lock()
	defer lock.Unlock()

	var summaries []ConversationSummary
	if _, err := s.ds.Get(key, &summaries); err != nil {
		return err
	}
	summaries = append(summaries, ConversationSummary{
		Text:      text,
		Keywords:  keywords,
		CreatedAt: time.Now().UTC(),
	})
	if len(summaries) > storedSummariesCap {
		summaries = summaries[len(summaries)-storedSummariesCap:]
	}
	return s.ds.Set(key, summaries)
}

// ListRecentSummaries returns up to limit summaries, newest first. A read
// failure is logged and returns an empty list so retrieval always completes.
func (s *Storage) ListRecentSummaries(guildID string, limit int) []ConversationSummary {
	var summaries []ConversationSummary
	if _, err := s.ds.Get(memoriesKey(guildID), &summaries); err != nil {
		log.Printf("[ERR] storage: load memories %s: %v", scopeOf(guildID), err)
		return nil
	}
	// Stored oldest-first; reverse into newest-first.
	out := make([]ConversationSummary, 0, len(summaries))
	for i := len(summaries) - 1; i >= 0; i-- {
		out = append(out, summaries[i])
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}

// ClearMemories drops every stored summary for the guild.
func (s *Storage) ClearMemories(guildID string) {
	key := memoriesKey(guildID)
	lock := s.scopeLock(key)
	lock.Lock()
	defer lock.Unlock()
	if err := s.ds.Delete(key); err != nil {
		log.Printf("[ERR] storage: clear memories %s: %v", scopeOf(guildID), err)
	}
}
