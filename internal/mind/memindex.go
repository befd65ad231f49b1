package mind

import (
	"strings"

	"github.com/lunabyte/luna/internal/storage"
)

// recentWindow bounds how many stored summaries one retrieval scans.
const recentWindow = 48

// SummarySource is the slice of the store the index needs.
type SummarySource interface {
	ListRecentSummaries(guildID string, limit int) []storage.ConversationSummary
}

// MemoryIndex retrieves stored conversation summaries by keyword relevance.
// There is no scoring beyond recency-then-filter; ties keep their original
// recency order.
type MemoryIndex struct {
	source SummarySource
}

func NewMemoryIndex(source SummarySource) *MemoryIndex {
	return &MemoryIndex{source: source}
}

// Retrieve returns up to limit summaries relevant to the keywords, newest
// first. A summary is relevant when any keyword is a case-insensitive
// substring of its text or an exact case-insensitive match of one of its
// stored keywords. Empty result is a list, never an error.
func (ix *MemoryIndex) Retrieve(guildID string, keywords []string, limit int) []storage.ConversationSummary {
	if limit <= 0 || len(keywords) == 0 {
		return []storage.ConversationSummary{}
	}

	lowered := make([]string, 0, len(keywords))
	for _, k := range keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k != "" {
			lowered = append(lowered, k)
		}
	}

	out := make([]storage.ConversationSummary, 0, limit)
	for _, s := range ix.source.ListRecentSummaries(guildID, recentWindow) {
		if summaryMatches(s, lowered) {
			out = append(out, s)
			if len(out) >= limit {
				break
			}
		}
	}
	return out
}

func summaryMatches(s storage.ConversationSummary, keywords []string) bool {
	text := strings.ToLower(s.Text)
	for _, k := range keywords {
		if strings.Contains(text, k) {
			return true
		}
		for _, sk := range s.Keywords {
			if strings.EqualFold(sk, k) {
				return true
			}
		}
	}
	return false
}

// minExtractLen is the input length below which the external keyword
// extractor is not even attempted.
const minExtractLen = 10

const maxFallbackKeywords = 3

var stopWords = map[string]struct{}{
	"this": {}, "that": {}, "with": {}, "have": {}, "what": {},
	"your": {}, "from": {}, "about": {}, "just": {}, "like": {},
	"some": {}, "will": {}, "when": {}, "then": {}, "them": {},
	"does": {}, "want": {}, "been": {}, "were": {}, "they": {},
	"there": {}, "would": {}, "could": {}, "should": {}, "really": {},
}

// FallbackKeywords is the deterministic local extractor: lowercase tokens,
// stop words and tokens of length <= 3 dropped, at most the first 3 kept.
// Never fails; may return an empty slice.
func FallbackKeywords(text string) []string {
	out := make([]string, 0, maxFallbackKeywords)
	for _, tok := range strings.Fields(strings.ToLower(text)) {
		tok = strings.Trim(tok, ".,!?;:\"'()[]")
		if len(tok) <= 3 {
			continue
		}
		if _, stop := stopWords[tok]; stop {
			continue
		}
		out = append(out, tok)
		if len(out) >= maxFallbackKeywords {
			break
		}
	}
	return out
}

// ExtractKeywords asks the classifier for keywords, falling back to the
// local extractor when the input is too short or the call fails.
func ExtractKeywords(c Classifier, text string) []string {
	if len(text) < minExtractLen {
		return FallbackKeywords(text)
	}
	words, err := c.Keywords(text)
	if err != nil {
		return FallbackKeywords(text)
	}
	return words
}
