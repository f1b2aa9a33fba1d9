package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/ahmetcoskunkizilkaya/estate-backend/internal/dto"
)

// Persisted is the part of the auth state that survives restarts. Loading
// and one-shot flags are never saved.
type Persisted struct {
	User   *dto.UserProfile `json:"user"`
	Tokens Tokens           `json:"tokens"`
}

type Persister interface {
	// Load returns nil when nothing has been saved.
	Load() (*Persisted, error)
	Save(Persisted) error
	Purge() error
}

// FilePersister keeps the state as a JSON file readable only by the owner.
type FilePersister struct {
	path string
}

func NewFilePersister(path string) *FilePersister {
	return &FilePersister{path: path}
}

func (p *FilePersister) Load() (*Persisted, error) {
	data, err := os.ReadFile(p.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("session: read %s: %w", p.path, err)
	}
	var saved Persisted
	if err := json.Unmarshal(data, &saved); err != nil {
		return nil, fmt.Errorf("session: parse %s: %w", p.path, err)
	}
	return &saved, nil
}

func (p *FilePersister) Save(saved Persisted) error {
	if saved.User == nil {
		return p.Purge()
	}
	data, err := json.MarshalIndent(saved, "", "  ")
	if err != nil {
		return err
	}
	return writePrivateFile(p.path, data)
}

// writePrivateFile replaces path with data, readable only by the owner.
func writePrivateFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("session: create dir: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("session: write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("session: replace %s: %w", path, err)
	}
	return nil
}

func (p *FilePersister) Purge() error {
	if err := os.Remove(p.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("session: remove %s: %w", p.path, err)
	}
	return nil
}

type MemoryPersister struct {
	mu    sync.Mutex
	saved *Persisted
}

func NewMemoryPersister() *MemoryPersister {
	return &MemoryPersister{}
}

func (p *MemoryPersister) Load() (*Persisted, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.saved == nil {
		return nil, nil
	}
	saved := *p.saved
	return &saved, nil
}

func (p *MemoryPersister) Save(saved Persisted) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if saved.User == nil {
		p.saved = nil
		return nil
	}
	p.saved = &saved
	return nil
}

func (p *MemoryPersister) Purge() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.saved = nil
	return nil
}
