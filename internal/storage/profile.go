package storage

import (
	"log"
	"time"
)

// GlobalScope is the scope used for facts that follow a user across guilds.
const GlobalScope = "global"

// Profile is everything the bot knows about one user within one scope.
// The named fields are reserved; Facts is the open bag for free-form
// knowledge ("favorite_food" and the like).
type Profile struct {
	RelationshipScore  float64           `json:"relationship_score"`
	RelationshipStatus string            `json:"relationship_status,omitempty"`
	MessageCount       int               `json:"message_count"`
	CustomRoleID       string            `json:"custom_role_id,omitempty"`
	MarriedTo          string            `json:"married_to,omitempty"`
	MarriageDate       string            `json:"marriage_date,omitempty"`
	Facts              map[string]string `json:"facts,omitempty"`
}

// Reserved fact keys. Score, status and the counter are never writable
// through SaveFact; the string-valued ones are routed to their typed field.
const (
	KeyRelationshipScore  = "relationship_score"
	KeyRelationshipStatus = "relationship_status"
	KeyMessageCount       = "message_count"
	KeyCustomRoleID       = "custom_role_id"
	KeyMarriedTo          = "married_to"
	KeyMarriageDate       = "marriage_date"
)

const (
	scoreFloor = -1000.0
	scoreCeil  = 1000.0
	scoreDecay = 0.999
)

func scopeOf(guildID string) string {
	if guildID == "" {
		return GlobalScope
	}
	return guildID
}

func profilesKey(guildID string) string {
	return "profiles:" + scopeOf(guildID)
}

// loadScope reads the full user→profile map for one scope. A read failure
// is logged and returns an empty map so callers always proceed.
func (s *Storage) loadScope(guildID string) map[string]Profile {
	profiles := make(map[string]Profile)
	if _, err := s.ds.Get(profilesKey(guildID), &profiles); err != nil {
		log.Printf("[ERR] storage: load profiles %s: %v", scopeOf(guildID), err)
		return make(map[string]Profile)
	}
	return profiles
}

func (s *Storage) saveScope(guildID string, profiles map[string]Profile) {
	if err := s.ds.Set(profilesKey(guildID), profiles); err != nil {
		log.Printf("[ERR] storage: save profiles %s: %v", scopeOf(guildID), err)
	}
}

// GetProfile returns the merged view of a user: global facts overlaid with
// the guild scope, guild values winning on collision. Score, status and the
// message counter come from the requested scope only; they never leak
// across scopes. Missing profiles come back zero-valued, never as an error.
func (s *Storage) GetProfile(userID, guildID string) Profile {
	cacheKey := scopeOf(guildID) + ":" + userID
	if p, ok := s.profileCache.Get(cacheKey, time.Now()); ok {
		return p
	}

	merged := Profile{Facts: make(map[string]string)}
	applyShared := func(p Profile) {
		if p.CustomRoleID != "" {
			merged.CustomRoleID = p.CustomRoleID
		}
		if p.MarriedTo != "" {
			merged.MarriedTo = p.MarriedTo
		}
		if p.MarriageDate != "" {
			merged.MarriageDate = p.MarriageDate
		}
		for k, v := range p.Facts {
			merged.Facts[k] = v
		}
	}

	if guildID != "" {
		if p, ok := s.loadScope("")[userID]; ok {
			applyShared(p)
		}
	}
	if p, ok := s.loadScope(guildID)[userID]; ok {
		merged.RelationshipScore = p.RelationshipScore
		merged.RelationshipStatus = p.RelationshipStatus
		merged.MessageCount = p.MessageCount
		applyShared(p)
	}

	s.profileCache.Set(cacheKey, merged, time.Now())
	return merged
}

// HasProfile reports whether the user has any stored profile in either scope.
func (s *Storage) HasProfile(userID, guildID string) bool {
	if _, ok := s.loadScope(guildID)[userID]; ok {
		return true
	}
	if guildID == "" {
		return false
	}
	_, ok := s.loadScope("")[userID]
	return ok
}

// SaveFact writes one fact for the user in the given scope. Profiles are
// created lazily on first write. Returns false when the key is reserved and
// not writable this way.
func (s *Storage) SaveFact(userID, guildID, key, value string) bool {
	switch key {
	case KeyRelationshipScore, KeyRelationshipStatus, KeyMessageCount:
		return false
	}

	lock := s.scopeLock(profilesKey(guildID))
	lock.Lock()
	defer lock.Unlock()

	profiles := s.loadScope(guildID)
	p := profiles[userID]
	switch key {
	case KeyCustomRoleID:
		p.CustomRoleID = value
	case KeyMarriedTo:
		p.MarriedTo = value
	case KeyMarriageDate:
		p.MarriageDate = value
	default:
		if p.Facts == nil {
			p.Facts = make(map[string]string)
		}
		p.Facts[key] = value
	}
	profiles[userID] = p
	s.saveScope(guildID, profiles)
	s.invalidateProfile(userID, guildID)
	return true
}

// DeleteFact removes one fact. Returns false when nothing was stored under
// that key.
func (s *Storage) DeleteFact(userID, guildID, key string) bool {
	lock := s.scopeLock(profilesKey(guildID))
	lock.Lock()
	defer lock.Unlock()

	profiles := s.loadScope(guildID)
	p, ok := profiles[userID]
	if !ok {
		return false
	}
	deleted := false
	switch key {
	case KeyCustomRoleID:
		deleted = p.CustomRoleID != ""
		p.CustomRoleID = ""
	case KeyMarriedTo:
		deleted = p.MarriedTo != ""
		p.MarriedTo = ""
	case KeyMarriageDate:
		deleted = p.MarriageDate != ""
		p.MarriageDate = ""
	default:
		if _, has := p.Facts[key]; has {
			delete(p.Facts, key)
			deleted = true
		}
	}
	if !deleted {
		return false
	}
	profiles[userID] = p
	s.saveScope(guildID, profiles)
	s.invalidateProfile(userID, guildID)
	return true
}

// DeleteProfile removes the user's profile in the given scope only. The
// other scope is untouched.
func (s *Storage) DeleteProfile(userID, guildID string) bool {
	lock := s.scopeLock(profilesKey(guildID))
	lock.Lock()
	defer lock.Unlock()

	profiles := s.loadScope(guildID)
	if _, ok := profiles[userID]; !ok {
		return false
	}
	delete(profiles, userID)
	s.saveScope(guildID, profiles)
	s.invalidateProfile(userID, guildID)
	return true
}

// ListUserIDs returns every user with a profile in the guild scope.
func (s *Storage) ListUserIDs(guildID string) []string {
	profiles := s.loadScope(guildID)
	ids := make([]string, 0, len(profiles))
	for id := range profiles {
		ids = append(ids, id)
	}
	return ids
}

// AtomicUpdateScore applies one relationship delta as a single isolated
// transaction on the (user, guild) scope:
//
//	newScore = clamp(current+delta, -1000, 1000) * 0.999
//
// The decay runs on this transaction's post-clamp value, never a stale read.
// statusFor maps the new score to its tier label; the label is persisted
// only when it changed. Also bumps MessageCount.
func (s *Storage) AtomicUpdateScore(userID, guildID string, delta float64, statusFor func(float64) string) float64 {
	lock := s.scopeLock(profilesKey(guildID))
	lock.Lock()
	defer lock.Unlock()

	profiles := s.loadScope(guildID)
	p := profiles[userID]

	newScore := p.RelationshipScore + delta
	if newScore > scoreCeil {
		newScore = scoreCeil
	}
	if newScore < scoreFloor {
		newScore = scoreFloor
	}
	newScore *= scoreDecay

	p.RelationshipScore = newScore
	p.MessageCount++
	if statusFor != nil {
		if label := statusFor(newScore); label != p.RelationshipStatus {
			p.RelationshipStatus = label
		}
	}
	profiles[userID] = p
	s.saveScope(guildID, profiles)
	s.invalidateProfile(userID, guildID)
	return newScore
}

func (s *Storage) invalidateProfile(userID, guildID string) {
	s.profileCache.Delete(scopeOf(guildID) + ":" + userID)
	if guildID != "" {
		// A global write also changes every merged guild view; the cache is
		// advisory so only the direct key is dropped here.
		s.profileCache.Delete(GlobalScope + ":" + userID)
	}
}
