// Package favorites mirrors the signed-in user's favorite properties.
package favorites

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"

	"github.com/ahmetcoskunkizilkaya/estate-backend/internal/session"
)

var ErrNotAuthenticated = errors.New("favorites: not authenticated")

// Backend is the favorites API the store writes through.
type Backend interface {
	ListFavorites(ctx context.Context) ([]string, error)
	AddFavorite(ctx context.Context, propertyID string) error
	RemoveFavorite(ctx context.Context, propertyID string) error
	ClearFavorites(ctx context.Context) error
}

// Store holds the favorite set of the current user. Local state changes only
// after the backend confirms a write, and the set is empty while signed out.
type Store struct {
	backend Backend
	log     *slog.Logger

	mu     sync.Mutex
	userID string
	ids    map[string]struct{}
}

func New(backend Backend, log *slog.Logger) *Store {
	if log == nil {
		log = slog.Default()
	}
	return &Store{backend: backend, log: log, ids: map[string]struct{}{}}
}

// Bind follows the auth store: the set is rebuilt whenever the signed-in
// user changes and emptied on sign-out.
func (s *Store) Bind(ctx context.Context, auth *session.Store) (unbind func()) {
	follow := func(st session.AuthState) {
		userID := ""
		if st.IsAuthenticated {
			userID = st.User.ID.String()
		}
		if !s.switchUser(userID) || userID == "" {
			return
		}
		if err := s.Load(ctx); err != nil {
			s.log.Warn("favorites load failed", "user_id", userID, "error", err)
		}
	}
	unbind = auth.Subscribe(follow)
	follow(auth.Snapshot())
	return unbind
}

// switchUser resets the set when the user changes and reports whether it did.
func (s *Store) switchUser(userID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.userID == userID {
		return false
	}
	s.userID = userID
	s.ids = map[string]struct{}{}
	return true
}

// Load replaces the local set with the backend's.
func (s *Store) Load(ctx context.Context) error {
	userID, err := s.currentUser()
	if err != nil {
		return err
	}
	ids, err := s.backend.ListFavorites(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.userID != userID {
		return nil
	}
	s.ids = make(map[string]struct{}, len(ids))
	for _, id := range ids {
		s.ids[id] = struct{}{}
	}
	return nil
}

// Toggle removes id if present and adds it otherwise. It returns whether id
// is a favorite afterwards. On error the set is unchanged.
func (s *Store) Toggle(ctx context.Context, propertyID string) (bool, error) {
	userID, err := s.currentUser()
	if err != nil {
		return false, err
	}
	had := s.Has(propertyID)

	if had {
		err = s.backend.RemoveFavorite(ctx, propertyID)
	} else {
		err = s.backend.AddFavorite(ctx, propertyID)
	}
	if err != nil {
		return had, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.userID != userID {
		return false, ErrNotAuthenticated
	}
	if had {
		delete(s.ids, propertyID)
	} else {
		s.ids[propertyID] = struct{}{}
	}
	return !had, nil
}

// Clear deletes every favorite on the backend, then locally.
func (s *Store) Clear(ctx context.Context) error {
	userID, err := s.currentUser()
	if err != nil {
		return err
	}
	if err := s.backend.ClearFavorites(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.userID == userID {
		s.ids = map[string]struct{}{}
	}
	return nil
}

func (s *Store) Has(propertyID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.ids[propertyID]
	return ok
}

// IDs returns the set sorted.
func (s *Store) IDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func (s *Store) currentUser() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.userID == "" {
		return "", ErrNotAuthenticated
	}
	return s.userID, nil
}
