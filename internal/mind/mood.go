package mind

import (
	"math/rand"
	"sync"
	"time"
)

// Mood is the process-wide persona state. It colors every reply and is
// independent of any single user's relationship score.
type Mood string

const (
	MoodHappy    Mood = "happy"
	MoodSassy    Mood = "sassy"
	MoodMoody    Mood = "moody"
	MoodHyper    Mood = "hyper"
	MoodChill    Mood = "chill"
	MoodDramatic Mood = "dramatic"
	MoodSleepy   Mood = "sleepy"
	MoodFlirty   Mood = "flirty"
	MoodGrumpy   Mood = "grumpy"
	MoodChaotic  Mood = "chaotic"
)

// AllMoods is the fixed mood set. Size is fixed at build time.
var AllMoods = []Mood{
	MoodHappy, MoodSassy, MoodMoody, MoodHyper, MoodChill,
	MoodDramatic, MoodSleepy, MoodFlirty, MoodGrumpy, MoodChaotic,
}

// sentimentMoods maps a classified message sentiment to its mood candidate
// set. Sentiments missing here never trigger a transition.
var sentimentMoods = map[string][]Mood{
	"positive":  {MoodHappy, MoodHyper, MoodFlirty},
	"negative":  {MoodMoody, MoodGrumpy},
	"sarcastic": {MoodSassy, MoodDramatic},
	"flirty":    {MoodFlirty, MoodSassy},
	"angry":     {MoodGrumpy, MoodMoody, MoodDramatic},
}

const (
	// moodInterval is how long a mood lives before the next conversational
	// turn is allowed to roll a new one. Checked lazily at call sites, so a
	// mood can outlive the interval during quiet periods.
	moodInterval = 3 * time.Hour

	// sentimentShiftChance is the probability a mapped sentiment flips the
	// mood immediately.
	sentimentShiftChance = 0.25
)

// MoodScheduler owns the current mood. One instance per process, created by
// the coordinator at startup and never reset.
type MoodScheduler struct {
	mu        sync.Mutex
	current   Mood
	changedAt time.Time
	rng       *rand.Rand
}

func NewMoodScheduler(now time.Time) *MoodScheduler {
	rng := rand.New(rand.NewSource(now.UnixNano()))
	return &MoodScheduler{
		current:   AllMoods[rng.Intn(len(AllMoods))],
		changedAt: now,
		rng:       rng,
	}
}

// Current returns the mood in effect at now, first applying the scheduled
// transition when the interval has elapsed. The scheduled path picks
// uniformly from the set excluding the current mood, so it can never
// reselect it.
func (m *MoodScheduler) Current(now time.Time) Mood {
	m.mu.Lock()
	defer m.mu.Unlock()
	if now.Sub(m.changedAt) >= moodInterval {
		m.current = m.pickOtherLocked(AllMoods)
		m.changedAt = now
	}
	return m.current
}

// OnSentiment rolls a sentiment-influenced transition. Returns the new mood
// and true when a transition happened. Unmapped sentiments never transition;
// a reselection of the current mood is resampled once and otherwise skipped.
func (m *MoodScheduler) OnSentiment(sentiment string, now time.Time) (Mood, bool) {
	candidates, ok := sentimentMoods[sentiment]
	if !ok {
		return "", false
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.rng.Float64() >= sentimentShiftChance {
		return "", false
	}
	next := candidates[m.rng.Intn(len(candidates))]
	if next == m.current {
		next = candidates[m.rng.Intn(len(candidates))]
		if next == m.current {
			return "", false
		}
	}
	m.current = next
	m.changedAt = now
	return next, true
}

// ChangedAt returns when the current mood took effect.
func (m *MoodScheduler) ChangedAt() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.changedAt
}

func (m *MoodScheduler) pickOtherLocked(set []Mood) Mood {
	for {
		next := set[m.rng.Intn(len(set))]
		if next != m.current {
			return next
		}
	}
}
