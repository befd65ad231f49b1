package storage

import (
	"math"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "test.json"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestCloseFlushesAndReopens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.json")

	s, err := New(path)
	require.NoError(t, err)
	require.True(t, s.SaveFact("u1", "g1", "pet", "cat"))
	require.NoError(t, s.SaveSummary("g1", "movie night", []string{"movie"}))
	// Close must return promptly and flush; a hang here means the store's
	// background saver was never released.
	require.NoError(t, s.Close())

	s2, err := New(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s2.Close() })

	assert.Equal(t, "cat", s2.GetProfile("u1", "g1").Facts["pet"])
	got := s2.ListRecentSummaries("g1", 10)
	require.Len(t, got, 1)
	assert.Equal(t, "movie night", got[0].Text)
}

func TestGetProfileMergesScopes(t *testing.T) {
	s := newTestStorage(t)

	// Global fact, guild fact, and a collision the guild must win.
	require.True(t, s.SaveFact("u1", "", "hometown", "Riga"))
	require.True(t, s.SaveFact("u1", "", "favorite_food", "soup"))
	require.True(t, s.SaveFact("u1", "g1", "favorite_food", "pizza"))

	p := s.GetProfile("u1", "g1")
	assert.Equal(t, "Riga", p.Facts["hometown"])
	assert.Equal(t, "pizza", p.Facts["favorite_food"], "guild scope wins on collision")

	// Another guild sees only the global layer.
	p2 := s.GetProfile("u1", "g2")
	assert.Equal(t, "soup", p2.Facts["favorite_food"])
}

func TestGetProfileScoreIsScopeLocal(t *testing.T) {
	s := newTestStorage(t)

	// Score accumulated in DMs (global scope) plus a global fact.
	s.AtomicUpdateScore("u1", "", 5, nil)
	require.True(t, s.SaveFact("u1", "", "hometown", "Riga"))

	// A guild where the user was never scored sees the fact but a zero
	// score and counter.
	p := s.GetProfile("u1", "g1")
	assert.Equal(t, "Riga", p.Facts["hometown"])
	assert.Zero(t, p.RelationshipScore)
	assert.Zero(t, p.MessageCount)

	// The global view still carries its own score.
	assert.InDelta(t, 4.995, s.GetProfile("u1", "").RelationshipScore, 1e-9)
}

func TestSaveFactReservedKeys(t *testing.T) {
	s := newTestStorage(t)

	assert.False(t, s.SaveFact("u1", "g1", KeyRelationshipScore, "999"))
	assert.False(t, s.SaveFact("u1", "g1", KeyRelationshipStatus, "obsessed"))
	assert.False(t, s.SaveFact("u1", "g1", KeyMessageCount, "42"))

	// The string-valued reserved keys route into typed fields.
	assert.True(t, s.SaveFact("u1", "g1", KeyMarriedTo, "u2"))
	p := s.GetProfile("u1", "g1")
	assert.Equal(t, "u2", p.MarriedTo)
	assert.NotContains(t, p.Facts, KeyMarriedTo)
	assert.Zero(t, p.RelationshipScore)
}

func TestDeleteFact(t *testing.T) {
	s := newTestStorage(t)
	require.True(t, s.SaveFact("u1", "g1", "pet", "cat"))

	assert.True(t, s.DeleteFact("u1", "g1", "pet"))
	assert.False(t, s.DeleteFact("u1", "g1", "pet"), "second delete finds nothing")
	assert.False(t, s.DeleteFact("nobody", "g1", "pet"))
	assert.NotContains(t, s.GetProfile("u1", "g1").Facts, "pet")
}

func TestDeleteProfileScopeOnly(t *testing.T) {
	s := newTestStorage(t)
	require.True(t, s.SaveFact("u1", "", "hometown", "Riga"))
	require.True(t, s.SaveFact("u1", "g1", "pet", "cat"))

	assert.True(t, s.DeleteProfile("u1", "g1"))

	p := s.GetProfile("u1", "g1")
	assert.NotContains(t, p.Facts, "pet")
	assert.Equal(t, "Riga", p.Facts["hometown"], "global layer survives a guild wipe")
}

func TestAtomicUpdateScoreFreshProfile(t *testing.T) {
	s := newTestStorage(t)

	// clamp(0+5) * 0.999
	got := s.AtomicUpdateScore("u1", "g1", 5, nil)
	assert.InDelta(t, 4.995, got, 1e-9)

	p := s.GetProfile("u1", "g1")
	assert.InDelta(t, 4.995, p.RelationshipScore, 1e-9)
	assert.Equal(t, 1, p.MessageCount)
}

func TestAtomicUpdateScoreClamp(t *testing.T) {
	s := newTestStorage(t)

	got := s.AtomicUpdateScore("u1", "g1", 5000, nil)
	assert.InDelta(t, 1000*0.999, got, 1e-9, "clamped before decay")

	got = s.AtomicUpdateScore("u2", "g1", -5000, nil)
	assert.InDelta(t, -1000*0.999, got, 1e-9)
}

func TestAtomicUpdateScoreStatusPersisted(t *testing.T) {
	s := newTestStorage(t)
	statusFor := func(score float64) string {
		if score >= 0 {
			return "fine"
		}
		return "grim"
	}

	s.AtomicUpdateScore("u1", "g1", 10, statusFor)
	assert.Equal(t, "fine", s.GetProfile("u1", "g1").RelationshipStatus)

	s.AtomicUpdateScore("u1", "g1", -500, statusFor)
	assert.Equal(t, "grim", s.GetProfile("u1", "g1").RelationshipStatus)
}

func TestAtomicUpdateScoreNoLostUpdates(t *testing.T) {
	s := newTestStorage(t)

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.AtomicUpdateScore("u1", "g1", 1, nil)
		}()
	}
	wg.Wait()

	// Sequential application of n times (+1 then *0.999) from zero.
	want := 0.0
	for i := 0; i < n; i++ {
		want = (want + 1) * 0.999
	}
	p := s.GetProfile("u1", "g1")
	assert.True(t, math.Abs(p.RelationshipScore-want) < 1e-9,
		"got %v want %v", p.RelationshipScore, want)
	assert.Equal(t, n, p.MessageCount)
}

func TestCommandHistoryCap(t *testing.T) {
	s := newTestStorage(t)

	for i := 0; i < 25; i++ {
		require.NoError(t, s.AppendCommandToHistory("g1", CommandHistoryRecord{Command: "profile", UserID: "u1"}))
	}
	history, err := s.FetchCommandHistory("g1")
	require.NoError(t, err)
	assert.Len(t, history, 20)
}

func TestListUserIDs(t *testing.T) {
	s := newTestStorage(t)
	require.True(t, s.SaveFact("u1", "g1", "pet", "cat"))
	require.True(t, s.SaveFact("u2", "g1", "pet", "dog"))
	require.True(t, s.SaveFact("u3", "g2", "pet", "rat"))

	ids := s.ListUserIDs("g1")
	assert.ElementsMatch(t, []string{"u1", "u2"}, ids)
}
