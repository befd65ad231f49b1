package storage

import (
	"context"
	"sync"
	"time"

	"github.com/keshon/datastore"

	"github.com/lunabyte/luna/internal/ttlcache"
)

const commandHistoryLimit = 20

// Storage wraps the JSON datastore with the bot's typed records: user
// profiles per scope, guild memories, and command history. All mutations of
// one scope record go through that scope's lock, so read-modify-write cycles
// never lose updates.
type Storage struct {
	ds     *datastore.DataStore
	cancel context.CancelFunc

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex

	profileCache *ttlcache.Cache[Profile]
}

type CommandHistoryRecord struct {
	ChannelID string    `json:"channel_id"`
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	Command   string    `json:"command"`
	Datetime  time.Time `json:"datetime"`
}

func New(filePath string) (*Storage, error) {
	ctx, cancel := context.WithCancel(context.Background())
	ds, err := datastore.New(ctx, filePath)
	if err != nil {
		cancel()
		return nil, err
	}
	return &Storage{
		ds:           ds,
		cancel:       cancel,
		locks:        make(map[string]*sync.Mutex),
		profileCache: ttlcache.New[Profile](60*time.Second, 512),
	}, nil
}

// Close flushes the store and stops its autosave loop. The datastore's own
// Close waits on that loop, which only exits once the context is cancelled,
// so the cancel must come first.
func (s *Storage) Close() error {
	s.cancel()
	return s.ds.Close()
}

// scopeLock returns the mutex guarding one datastore key.
func (s *Storage) scopeLock(key string) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	l, ok := s.locks[key]
	if !ok {
		l = &sync.Mutex{}
		s.locks[key] = l
	}
	return l
}

// AppendCommandToHistory appends a command history record for a guild.
func (s *Storage) AppendCommandToHistory(guildID string, rec CommandHistoryRecord) error {
	key := "cmdlog:" + guildID
	lock := s.scopeLock(key)
	lock.Lock()
	defer lock.Unlock()

	var history []CommandHistoryRecord
	if _, err := s.ds.Get(key, &history); err != nil {
		return err
	}
	history = append(history, rec)
	if len(history) > commandHistoryLimit {
		history = history[len(history)-commandHistoryLimit:]
	}
	return s.ds.Set(key, history)
}

// FetchCommandHistory returns the recent command history for a guild.
func (s *Storage) FetchCommandHistory(guildID string) ([]CommandHistoryRecord, error) {
	var history []CommandHistoryRecord
	if _, err := s.ds.Get("cmdlog:"+guildID, &history); err != nil {
		return nil, err
	}
	return history, nil
}
