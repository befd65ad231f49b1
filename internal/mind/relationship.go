package mind

import (
	"github.com/lunabyte/luna/internal/storage"
)

// Tier maps a score threshold to its status label.
type Tier struct {
	Threshold float64
	Label     string
}

// relationshipTiers is ordered descending by threshold. The label for a
// score is the first tier whose threshold is at or below it; anything under
// the last explicit threshold is "dead to me".
var relationshipTiers = []Tier{
	{500, "obsessed"},
	{200, "soulmate"},
	{100, "family"},
	{60, "bestie"},
	{25, "friend"},
	{10, "chill"},
	{-10, "neutral"},
	{-25, "annoyance"},
	{-60, "sketchy"},
	{-100, "enemy"},
	{-200, "nemesis"},
	{-500, "arch-nemesis"},
}

const tierCatchAll = "dead to me"

// StatusFor returns the status label for a score plus a tier index that is
// monotonic non-decreasing in score (catch-all is 0, "obsessed" the highest).
func StatusFor(score float64) (string, int) {
	for i, t := range relationshipTiers {
		if score >= t.Threshold {
			return t.Label, len(relationshipTiers) - i
		}
	}
	return tierCatchAll, 0
}

// RelationshipEngine mutates relationship scores through the store's atomic
// update and keeps the derived status label in sync.
type RelationshipEngine struct {
	store *storage.Storage
}

func NewRelationshipEngine(store *storage.Storage) *RelationshipEngine {
	return &RelationshipEngine{store: store}
}

// ApplyDelta applies one scored message: clamp to [-1000, 1000], decay by
// 0.999, persist, all inside a single (user, guild) transaction. Do not call
// with delta 0; the decay still applies on every mutation.
func (e *RelationshipEngine) ApplyDelta(userID, guildID string, delta float64) float64 {
	return e.store.AtomicUpdateScore(userID, guildID, delta, func(score float64) string {
		label, _ := StatusFor(score)
		return label
	})
}

// StatusOf returns the current status label for a user without mutating.
func (e *RelationshipEngine) StatusOf(userID, guildID string) string {
	p := e.store.GetProfile(userID, guildID)
	label, _ := StatusFor(p.RelationshipScore)
	return label
}
