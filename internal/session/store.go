// Package session owns the client side of the auth lifecycle: the auth
// state store, email confirmation and logout cleanup.
package session

import (
	"log/slog"
	"sync"

	"github.com/ahmetcoskunkizilkaya/estate-backend/internal/dto"
)

type Tokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresAt    int64  `json:"expires_at,omitempty"`
}

// AuthState is a snapshot of the store. IsAuthenticated and IsAdmin are
// derived from User.
type AuthState struct {
	User            *dto.UserProfile
	Tokens          Tokens
	IsAuthenticated bool
	IsAdmin         bool
	IsLoading       bool
	LoginSucceeded  bool
	RedirectPath    string
}

type Store struct {
	mu        sync.Mutex
	state     AuthState
	persister Persister
	log       *slog.Logger

	// version orders in-memory changes; persistMu and saved keep older
	// writes from landing after newer ones.
	version   uint64
	persistMu sync.Mutex
	saved     uint64

	subsMu sync.Mutex
	subs   []subscriber
	nextID int
}

type subscriber struct {
	id int
	fn func(AuthState)
}

func NewStore(persister Persister, log *slog.Logger) *Store {
	if persister == nil {
		persister = NewMemoryPersister()
	}
	if log == nil {
		log = slog.Default()
	}
	return &Store{persister: persister, log: log}
}

func (s *Store) Snapshot() AuthState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// AccessToken lets the store act as the API client's token source.
func (s *Store) AccessToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Tokens.AccessToken
}

// Subscribe registers fn for every change. Callbacks run synchronously after
// the store lock is released.
func (s *Store) Subscribe(fn func(AuthState)) (unsubscribe func()) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	s.nextID++
	id := s.nextID
	s.subs = append(s.subs, subscriber{id: id, fn: fn})
	return func() {
		s.subsMu.Lock()
		defer s.subsMu.Unlock()
		for i, sub := range s.subs {
			if sub.id == id {
				s.subs = append(s.subs[:i], s.subs[i+1:]...)
				return
			}
		}
	}
}

// Login records a successful sign-in and raises the one-shot success flag.
func (s *Store) Login(user dto.UserProfile, tokens Tokens, redirect string) {
	s.mutate(func(st *AuthState) {
		st.User = &user
		st.Tokens = tokens
		st.IsLoading = false
		st.LoginSucceeded = true
		st.RedirectPath = redirect
	})
}

// ConsumeLoginSuccess returns the post-login redirect once.
func (s *Store) ConsumeLoginSuccess() (redirect string, ok bool) {
	s.mu.Lock()
	if !s.state.LoginSucceeded {
		s.mu.Unlock()
		return "", false
	}
	redirect = s.state.RedirectPath
	s.state.LoginSucceeded = false
	s.state.RedirectPath = ""
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
	return redirect, true
}

func (s *Store) Logout() {
	s.mutate(func(st *AuthState) {
		*st = AuthState{}
	})
}

func (s *Store) SetLoading(loading bool) {
	s.mutate(func(st *AuthState) {
		st.IsLoading = loading
	})
}

func (s *Store) UpdateProfile(user dto.UserProfile) {
	s.mutate(func(st *AuthState) {
		st.User = &user
	})
}

func (s *Store) SetTokens(tokens Tokens) {
	s.mutate(func(st *AuthState) {
		st.Tokens = tokens
	})
}

// Rehydrate merges persisted state. A user already in the store is kept.
func (s *Store) Rehydrate() error {
	saved, err := s.persister.Load()
	if err != nil {
		return err
	}
	if saved == nil || saved.User == nil {
		return nil
	}

	s.mu.Lock()
	if s.state.User != nil {
		s.mu.Unlock()
		s.log.Debug("rehydrate skipped, session already present")
		return nil
	}
	user := *saved.User
	s.state.User = &user
	s.state.Tokens = saved.Tokens
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
	return nil
}

// Purge removes the persisted copy without touching in-memory state. Saves
// of changes made before the purge are dropped.
func (s *Store) Purge() error {
	s.mu.Lock()
	v := s.version
	s.mu.Unlock()

	s.persistMu.Lock()
	defer s.persistMu.Unlock()
	if v > s.saved {
		s.saved = v
	}
	return s.persister.Purge()
}

func (s *Store) mutate(fn func(*AuthState)) {
	s.mu.Lock()
	fn(&s.state)
	s.version++
	v := s.version
	snap := s.snapshotLocked()
	saved := Persisted{User: snap.User, Tokens: snap.Tokens}
	s.mu.Unlock()

	s.persist(v, saved)
	s.notify(snap)
}

func (s *Store) persist(v uint64, saved Persisted) {
	s.persistMu.Lock()
	defer s.persistMu.Unlock()
	if v <= s.saved {
		s.log.Debug("skipping stale auth state save", "version", v)
		return
	}
	if err := s.persister.Save(saved); err != nil {
		s.log.Warn("persist auth state failed", "error", err)
	}
	s.saved = v
}

func (s *Store) snapshotLocked() AuthState {
	snap := s.state
	if snap.User != nil {
		user := *snap.User
		snap.User = &user
	}
	snap.IsAuthenticated = snap.User != nil
	snap.IsAdmin = snap.User != nil && snap.User.IsAdmin
	return snap
}

func (s *Store) notify(snap AuthState) {
	s.subsMu.Lock()
	subs := make([]subscriber, len(s.subs))
	copy(subs, s.subs)
	s.subsMu.Unlock()

	for _, sub := range subs {
		sub.fn(snap)
	}
}
