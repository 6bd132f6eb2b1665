// Package viewstate holds ephemeral per-client UI flags for entries.
// Nothing here is persisted; a restart forgets every flag.
package viewstate

import (
	"fmt"
	"strings"
	"time"

	"networth/internal/cache"
)

const (
	DefaultMaxItems = 10000
	DefaultTTL      = 24 * time.Hour
)

// Flags is the view state of one entry for one client.
type Flags struct {
	Expanded bool `json:"expanded"`
	Editing  bool `json:"editing"`
}

type Store struct {
	cache *cache.LRUCache[Flags]
}

func New(maxItems int, ttl time.Duration) *Store {
	if maxItems <= 0 {
		maxItems = DefaultMaxItems
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{cache: cache.NewLRUCache[Flags](maxItems, ttl)}
}

func key(client string, entryID int64) string {
	return fmt.Sprintf("%s/%d", client, entryID)
}

func normalize(client string) string {
	client = strings.TrimSpace(client)
	if client == "" {
		return "anonymous"
	}
	return client
}

// Get returns the flags for an entry; unknown entries report zero flags.
func (s *Store) Get(client string, entryID int64) Flags {
	f, _ := s.cache.Get(key(normalize(client), entryID))
	return f
}

// Set stores flags. Zero flags drop the entry instead of caching it.
func (s *Store) Set(client string, entryID int64, f Flags) {
	k := key(normalize(client), entryID)
	if f == (Flags{}) {
		s.cache.Delete(k)
		return
	}
	s.cache.Set(k, f)
}

// Forget drops the flags every client holds for a deleted entry.
func (s *Store) Forget(entryID int64) {
	suffix := fmt.Sprintf("/%d", entryID)
	s.cache.DeleteFunc(func(k string) bool { return strings.HasSuffix(k, suffix) })
}

// Reset clears all flags of one client.
func (s *Store) Reset(client string) int {
	return s.cache.DeletePrefix(normalize(client) + "/")
}

// Cache exposes the backing cache for registration with a cache.Manager.
func (s *Store) Cache() *cache.LRUCache[Flags] {
	return s.cache
}
