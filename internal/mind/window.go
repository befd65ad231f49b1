package mind

import (
	"sync"
	"time"
)

// WindowLine is one message in a guild's short-term conversation window.
type WindowLine struct {
	Username  string
	Content   string
	Assistant bool
	At        time.Time
}

const (
	windowMaxLines = 80
	// summarizeThreshold is the buffered character count past which the
	// periodic summarizer digests the window into a stored summary.
	summarizeThreshold = 2500
)

// Window buffers recent conversation for one guild: prompt context for the
// next reply and raw material for the summarizer.
type Window struct {
	mu        sync.RWMutex
	lines     []WindowLine
	charCount int
}

func (w *Window) Push(line WindowLine) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.lines = append(w.lines, line)
	w.charCount += len(line.Content) + len(line.Username) + 16
	if len(w.lines) > windowMaxLines {
		w.lines = w.lines[len(w.lines)-windowMaxLines:]
		w.recountLocked()
	}
}

// Lines returns a copy, oldest first.
func (w *Window) Lines() []WindowLine {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]WindowLine, len(w.lines))
	copy(out, w.lines)
	return out
}

func (w *Window) CharCount() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.charCount
}

func (w *Window) NeedsSummary() bool {
	return w.CharCount() > summarizeThreshold
}

// Clear empties the window; call after its content was summarized.
func (w *Window) Clear() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.lines = nil
	w.charCount = 0
}

func (w *Window) recountLocked() {
	w.charCount = 0
	for _, l := range w.lines {
		w.charCount += len(l.Content) + len(l.Username) + 16
	}
}

// WindowSet is the per-guild window collection, created lazily.
type WindowSet struct {
	mu      sync.RWMutex
	byGuild map[string]*Window
}

func NewWindowSet() *WindowSet {
	return &WindowSet{byGuild: make(map[string]*Window)}
}

func (ws *WindowSet) Guild(guildID string) *Window {
	ws.mu.RLock()
	w := ws.byGuild[guildID]
	ws.mu.RUnlock()
	if w != nil {
		return w
	}
	ws.mu.Lock()
	defer ws.mu.Unlock()
	if w = ws.byGuild[guildID]; w != nil {
		return w
	}
	w = &Window{}
	ws.byGuild[guildID] = w
	return w
}

// GuildIDs returns all guilds with a window, for summarizer iteration.
func (ws *WindowSet) GuildIDs() []string {
	ws.mu.RLock()
	defer ws.mu.RUnlock()
	ids := make([]string, 0, len(ws.byGuild))
	for id := range ws.byGuild {
		ids = append(ids, id)
	}
	return ids
}
