package session

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strconv"
	"time"

	"github.com/ahmetcoskunkizilkaya/estate-backend/internal/dto"
)

const (
	HomePath           = "/"
	AdminDashboardPath = "/admin/dashboard"

	defaultSuccessDelay = 2 * time.Second
)

type ConfirmState string

const (
	StateIdle       ConfirmState = "idle"
	StateConfirming ConfirmState = "confirming"
	StateSuccess    ConfirmState = "success"
	StateError      ConfirmState = "error"
)

var ErrConfirmationFailed = errors.New("session: email confirmation failed")

// Verifier resolves the profile behind a freshly issued access token.
type Verifier interface {
	VerifySession(ctx context.Context, accessToken string) (*dto.UserProfile, error)
}

// Result is where the confirmation landed. Redirect is empty on error.
type Result struct {
	State    ConfirmState
	Redirect string
	Err      error
}

// Confirmer completes the sign-up confirmation link. It verifies the token
// pair with the backend before logging the user in.
type Confirmer struct {
	verifier Verifier
	store    *Store
	delay    time.Duration
	sleep    func(ctx context.Context, d time.Duration) error
	onState  func(ConfirmState)
	log      *slog.Logger
}

type ConfirmerOption func(*Confirmer)

// WithSuccessDelay sets the pause between success and redirect.
func WithSuccessDelay(d time.Duration) ConfirmerOption {
	return func(c *Confirmer) { c.delay = d }
}

// WithSleep replaces the delay implementation.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) ConfirmerOption {
	return func(c *Confirmer) { c.sleep = sleep }
}

// WithStateObserver reports every state transition.
func WithStateObserver(fn func(ConfirmState)) ConfirmerOption {
	return func(c *Confirmer) { c.onState = fn }
}

func NewConfirmer(verifier Verifier, store *Store, log *slog.Logger, opts ...ConfirmerOption) *Confirmer {
	if log == nil {
		log = slog.Default()
	}
	c := &Confirmer{
		verifier: verifier,
		store:    store,
		delay:    defaultSuccessDelay,
		sleep:    sleepContext,
		onState:  func(ConfirmState) {},
		log:      log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Confirm handles the landing URL of a confirmation link.
func (c *Confirmer) Confirm(ctx context.Context, landing string) Result {
	params, ok := confirmationParams(landing)
	if !ok {
		return Result{State: StateIdle, Redirect: HomePath}
	}
	c.onState(StateConfirming)

	tokens := Tokens{
		AccessToken:  params.Get("access_token"),
		RefreshToken: params.Get("refresh_token"),
	}
	if exp, err := strconv.ParseInt(params.Get("expires_at"), 10, 64); err == nil {
		tokens.ExpiresAt = exp
	}

	c.store.SetLoading(true)
	profile, err := c.verifier.VerifySession(ctx, tokens.AccessToken)
	if err == nil && profile == nil {
		err = errors.New("session check returned no user")
	}
	if err != nil {
		c.store.SetLoading(false)
		c.log.Warn("email confirmation failed", "error", err)
		return c.fail(err)
	}

	redirect := HomePath
	if profile.IsAdmin {
		redirect = AdminDashboardPath
	}
	c.store.Login(*profile, tokens, redirect)
	c.onState(StateSuccess)

	if err := c.sleep(ctx, c.delay); err != nil {
		// An interrupted confirmation must not leave a signed-in store behind.
		c.store.Logout()
		return c.fail(err)
	}
	return Result{State: StateSuccess, Redirect: redirect}
}

func (c *Confirmer) fail(err error) Result {
	c.onState(StateError)
	return Result{State: StateError, Err: errors.Join(ErrConfirmationFailed, err)}
}

// confirmationParams reads a signup confirmation from the query string or,
// failing that, the fragment.
func confirmationParams(landing string) (url.Values, bool) {
	u, err := url.Parse(landing)
	if err != nil {
		return nil, false
	}
	for _, raw := range []string{u.RawQuery, u.Fragment} {
		params, err := url.ParseQuery(raw)
		if err != nil {
			continue
		}
		if params.Get("type") == "signup" && params.Get("access_token") != "" && params.Get("refresh_token") != "" {
			return params, true
		}
	}
	return nil, false
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
