package mind

import (
	"strings"
	"time"

	"github.com/lunabyte/luna/internal/ttlcache"
)

// Verdict classifies one inbound message against the sender's last one.
type Verdict int

const (
	VerdictNormal Verdict = iota
	VerdictDuplicateSpam
	VerdictRapidFire
)

func (v Verdict) String() string {
	switch v {
	case VerdictDuplicateSpam:
		return "duplicate_spam"
	case VerdictRapidFire:
		return "rapid_fire"
	default:
		return "normal"
	}
}

const (
	duplicateWindow = 60 * time.Second
	rapidFireWindow = 5 * time.Second
	spamRecordTTL   = 300 * time.Second
	spamRecordsMax  = 4096
)

// SpamRecord remembers a user's last message for the classification windows.
type SpamRecord struct {
	Content string
	At      time.Time
}

// SpamGuard keeps a short-horizon memory of each user's last message.
// Records expire after 300s independent of the classification windows, so
// memory stays bounded by active users.
type SpamGuard struct {
	records *ttlcache.Cache[SpamRecord]
}

func NewSpamGuard() *SpamGuard {
	return &SpamGuard{records: ttlcache.New[SpamRecord](spamRecordTTL, spamRecordsMax)}
}

// Evaluate classifies content against the user's prior record and always
// replaces the record with {content, now}, whatever the verdict.
func (g *SpamGuard) Evaluate(userID, content string, now time.Time) Verdict {
	norm := normalizeContent(content)
	prior, ok := g.records.Get(userID, now)
	g.records.Set(userID, SpamRecord{Content: norm, At: now}, now)
	if !ok {
		return VerdictNormal
	}

	elapsed := now.Sub(prior.At)
	if prior.Content == norm && elapsed < duplicateWindow {
		return VerdictDuplicateSpam
	}
	if elapsed < rapidFireWindow {
		return VerdictRapidFire
	}
	return VerdictNormal
}

// Records exposes the backing cache so the app lifecycle can run its sweeper.
func (g *SpamGuard) Records() *ttlcache.Cache[SpamRecord] {
	return g.records
}

func normalizeContent(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
