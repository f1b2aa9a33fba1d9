package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

var (
	DefaultAuthMarkers = []string{"auth", "token", "session", "sb-"}
	DefaultNameMarkers = []string{"auth", "session", "estate"}
)

const defaultReloadDelay = 100 * time.Millisecond

// Backend ends the server side of a session.
type Backend interface {
	Logout(ctx context.Context, refreshToken string) error
}

type CleanerConfig struct {
	Backend Backend
	Store   *Store
	Local   Storage
	Session Storage
	Cookies NamedStore
	// Caches holds cache and database stores swept by name.
	Caches []NamedStore

	AuthMarkers []string
	NameMarkers []string

	ReloadDelay time.Duration
	Reload      func()
	Sleep       func(ctx context.Context, d time.Duration) error
	Logger      *slog.Logger
}

// Cleaner performs logout: every step is best-effort and the auth state is
// empty when Logout returns.
type Cleaner struct {
	cfg CleanerConfig
	log *slog.Logger
}

func NewCleaner(cfg CleanerConfig) *Cleaner {
	if cfg.AuthMarkers == nil {
		cfg.AuthMarkers = DefaultAuthMarkers
	}
	if cfg.NameMarkers == nil {
		cfg.NameMarkers = DefaultNameMarkers
	}
	if cfg.ReloadDelay == 0 {
		cfg.ReloadDelay = defaultReloadDelay
	}
	if cfg.Sleep == nil {
		cfg.Sleep = sleepContext
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Cleaner{cfg: cfg, log: cfg.Logger}
}

type StepError struct {
	Step string
	Err  error
}

func (e StepError) Error() string { return e.Step + ": " + e.Err.Error() }

func (e StepError) Unwrap() error { return e.Err }

type CleanupReport struct {
	Errors         []StepError
	CookiesRemoved []string
	EntriesRemoved []string
	Reloaded       bool
}

// Err joins every step failure, or returns nil.
func (r *CleanupReport) Err() error {
	errs := make([]error, len(r.Errors))
	for i, e := range r.Errors {
		errs[i] = e
	}
	return errors.Join(errs...)
}

func (c *Cleaner) Logout(ctx context.Context) *CleanupReport {
	report := &CleanupReport{}

	if c.cfg.Store != nil {
		snap := c.cfg.Store.Snapshot()
		if c.cfg.Backend != nil && snap.Tokens.AccessToken != "" {
			c.step(report, "backend logout", func() error {
				return c.cfg.Backend.Logout(ctx, snap.Tokens.RefreshToken)
			})
		}
		c.step(report, "reset store", func() error {
			c.cfg.Store.Logout()
			return nil
		})
	}

	if c.cfg.Local != nil {
		c.step(report, "clear local storage", c.cfg.Local.Clear)
	}
	if c.cfg.Session != nil {
		c.step(report, "clear session storage", c.cfg.Session.Clear)
	}
	if c.cfg.Store != nil {
		c.step(report, "purge persisted state", c.cfg.Store.Purge)
	}

	if c.cfg.Cookies != nil {
		c.step(report, "delete cookies", func() error {
			removed, err := deleteMatching(c.cfg.Cookies, c.cfg.AuthMarkers)
			report.CookiesRemoved = append(report.CookiesRemoved, removed...)
			return err
		})
	}
	for i, store := range c.cfg.Caches {
		store := store
		c.step(report, fmt.Sprintf("delete caches[%d]", i), func() error {
			removed, err := deleteMatching(store, c.cfg.NameMarkers)
			report.EntriesRemoved = append(report.EntriesRemoved, removed...)
			return err
		})
	}

	// The reload happens whatever failed above.
	if err := c.cfg.Sleep(ctx, c.cfg.ReloadDelay); err != nil {
		c.log.Debug("reload delay interrupted", "error", err)
	}
	if c.cfg.Reload != nil {
		c.step(report, "reload", func() error {
			c.cfg.Reload()
			return nil
		})
		report.Reloaded = true
	}

	if len(report.Errors) > 0 {
		c.log.Warn("logout cleanup finished with errors", "errors", len(report.Errors))
	}
	return report
}

// step runs fn, recording an error or panic instead of stopping.
func (c *Cleaner) step(report *CleanupReport, name string, fn func() error) {
	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic: %v", r)
			}
		}()
		return fn()
	}()
	if err != nil {
		c.log.Warn("logout cleanup step failed", "step", name, "error", err)
		report.Errors = append(report.Errors, StepError{Step: name, Err: err})
	}
}

// deleteMatching removes every entry whose name contains a marker.
func deleteMatching(store NamedStore, markers []string) ([]string, error) {
	names, err := store.Names()
	if err != nil {
		return nil, err
	}
	var removed []string
	var errs []error
	for _, name := range names {
		if !containsAny(name, markers) {
			continue
		}
		if err := store.Delete(name); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}
		removed = append(removed, name)
	}
	return removed, errors.Join(errs...)
}

func containsAny(name string, markers []string) bool {
	lower := strings.ToLower(name)
	for _, m := range markers {
		if m != "" && strings.Contains(lower, strings.ToLower(m)) {
			return true
		}
	}
	return false
}
