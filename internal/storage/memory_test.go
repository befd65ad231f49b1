package storage

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummariesNewestFirst(t *testing.T) {
	s := newTestStorage(t)
	require.NoError(t, s.SaveSummary("g1", "first", nil))
	require.NoError(t, s.SaveSummary("g1", "second", []string{"pizza"}))
	require.NoError(t, s.SaveSummary("g1", "third", nil))

	got := s.ListRecentSummaries("g1", 2)
	require.Len(t, got, 2)
	assert.Equal(t, "third", got[0].Text)
	assert.Equal(t, "second", got[1].Text)
	assert.Equal(t, []string{"pizza"}, got[1].Keywords)
}

func TestSummariesCapped(t *testing.T) {
	s := newTestStorage(t)
	for i := 0; i < storedSummariesCap+5; i++ {
		require.NoError(t, s.SaveSummary("g1", fmt.Sprintf("summary %d", i), nil))
	}

	got := s.ListRecentSummaries("g1", 0)
	require.Len(t, got, storedSummariesCap)
	assert.Equal(t, fmt.Sprintf("summary %d", storedSummariesCap+4), got[0].Text)
}

func TestClearMemories(t *testing.T) {
	s := newTestStorage(t)
	require.NoError(t, s.SaveSummary("g1", "gone soon", nil))
	require.NoError(t, s.SaveSummary("g2", "kept", nil))

	s.ClearMemories("g1")

	assert.Empty(t, s.ListRecentSummaries("g1", 10))
	assert.Len(t, s.ListRecentSummaries("g2", 10), 1)
}
