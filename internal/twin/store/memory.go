package store

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	pkgstore "github.com/storyspoiler/storyspoiler/pkg/store"
)

// MemoryStore holds all Story Spoiler twin state in memory.
type MemoryStore struct {
	Stories *pkgstore.Store[Story]

	mu    sync.RWMutex
	users map[string]User
	seed  []User
}

// New creates a MemoryStore with random UUID story IDs and the given accounts.
func New(users ...User) *MemoryStore {
	return NewWithIDs(pkgstore.IDFunc(uuid.NewString), users...)
}

// NewWithIDs is New with a custom story ID generator.
func NewWithIDs(ids pkgstore.IDFunc, users ...User) *MemoryStore {
	s := &MemoryStore{
		Stories: pkgstore.New[Story](ids),
		seed:    users,
	}
	s.resetUsers()
	return s
}

// User returns the account registered under username.
func (s *MemoryStore) User(username string) (User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[username]
	return u, ok
}

func (s *MemoryStore) resetUsers() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = make(map[string]User, len(s.seed))
	for _, u := range s.seed {
		s.users[u.Username] = u
	}
}

// stateSnapshot is the JSON-serializable state for admin endpoints.
type stateSnapshot struct {
	Stories []Story `json:"stories"`
	Users   []User  `json:"users,omitempty"`
}

// Snapshot returns the full state as a JSON-serializable value.
func (s *MemoryStore) Snapshot() any {
	s.mu.RLock()
	users := make([]User, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, u)
	}
	s.mu.RUnlock()
	sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })

	return stateSnapshot{
		Stories: s.Stories.List(),
		Users:   users,
	}
}

// LoadState replaces the stories, and the users when present, from a JSON body.
func (s *MemoryStore) LoadState(data []byte) error {
	var snap stateSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return err
	}
	for i, st := range snap.Stories {
		if st.ID == "" {
			return fmt.Errorf("stories[%d]: id is required", i)
		}
	}
	s.Stories.Load(snap.Stories)
	if snap.Users != nil {
		s.mu.Lock()
		s.users = make(map[string]User, len(snap.Users))
		for _, u := range snap.Users {
			s.users[u.Username] = u
		}
		s.mu.Unlock()
	}
	return nil
}

// Reset clears all stories and restores the seed accounts.
func (s *MemoryStore) Reset() {
	s.Stories.Reset()
	s.resetUsers()
}
