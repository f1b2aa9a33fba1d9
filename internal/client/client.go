// Package client is a typed HTTP client for the estate API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ahmetcoskunkizilkaya/estate-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/estate-backend/internal/models"
)

// TokenSource supplies the current access token. An empty token sends the
// request unauthenticated.
type TokenSource interface {
	AccessToken() string
}

// APIError is returned for every non-2xx response.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

type Client struct {
	baseURL *url.URL
	http    *http.Client
	tokens  TokenSource
	locale  string
	log     *slog.Logger
}

type Option func(*Client)

// WithHTTPClient replaces the default client. Its Jar is kept if set.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) { c.tokens = ts }
}

// WithLocale sends the locale as Accept-Language on every request.
func WithLocale(locale string) Option {
	return func(c *Client) { c.locale = locale }
}

func WithLogger(log *slog.Logger) Option {
	return func(c *Client) { c.log = log }
}

func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("client: parse base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("client: base url %q must be absolute", baseURL)
	}

	c := &Client{baseURL: u, log: slog.Default()}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: 15 * time.Second}
	}
	if c.http.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("client: cookie jar: %w", err)
		}
		c.http.Jar = jar
	}
	return c, nil
}

func (c *Client) BaseURL() *url.URL {
	u := *c.baseURL
	return &u
}

func (c *Client) Jar() http.CookieJar {
	return c.http.Jar
}

// Auth

func (c *Client) SignUp(ctx context.Context, req dto.SignUpRequest) (*dto.SignUpResponse, error) {
	var out dto.SignUpResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/signup", nil, req, &out, ""); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Login(ctx context.Context, email, password string) (*dto.AuthResponse, error) {
	var out dto.AuthResponse
	err := c.do(ctx, http.MethodPost, "/api/auth/login", nil, dto.LoginRequest{Email: email, Password: password}, &out, "")
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Refresh(ctx context.Context, refreshToken string) (*dto.AuthResponse, error) {
	var out dto.AuthResponse
	err := c.do(ctx, http.MethodPost, "/api/auth/refresh", nil, dto.RefreshRequest{RefreshToken: refreshToken}, &out, "")
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Logout ends the server session. An empty refresh token revokes every
// session of the user.
func (c *Client) Logout(ctx context.Context, refreshToken string) error {
	return c.do(ctx, http.MethodPost, "/api/auth/logout", nil, dto.LogoutRequest{RefreshToken: refreshToken}, nil, "")
}

func (c *Client) Session(ctx context.Context) (*dto.UserProfile, error) {
	return c.session(ctx, "")
}

// VerifySession resolves the profile behind an access token that is not yet
// held by the token source, such as one taken from a confirmation link.
func (c *Client) VerifySession(ctx context.Context, accessToken string) (*dto.UserProfile, error) {
	return c.session(ctx, accessToken)
}

func (c *Client) session(ctx context.Context, token string) (*dto.UserProfile, error) {
	var out dto.UserProfile
	if err := c.do(ctx, http.MethodGet, "/api/auth/session", nil, nil, &out, token); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ResendConfirmation(ctx context.Context, email, redirectTo string) error {
	return c.do(ctx, http.MethodPost, "/api/auth/resend", nil, dto.EmailRequest{Email: email, RedirectTo: redirectTo}, nil, "")
}

func (c *Client) RequestPasswordReset(ctx context.Context, email, redirectTo string) error {
	return c.do(ctx, http.MethodPost, "/api/auth/password/recover", nil, dto.EmailRequest{Email: email, RedirectTo: redirectTo}, nil, "")
}

func (c *Client) ResetPassword(ctx context.Context, token, password string) error {
	return c.do(ctx, http.MethodPost, "/api/auth/password/reset", nil, dto.ResetPasswordRequest{Token: token, Password: password}, nil, "")
}

func (c *Client) UpdatePassword(ctx context.Context, password string) error {
	return c.do(ctx, http.MethodPut, "/api/auth/password", nil, dto.UpdatePasswordRequest{Password: password}, nil, "")
}

// Profile

func (c *Client) GetProfile(ctx context.Context) (*dto.UserProfile, error) {
	var out dto.UserProfile
	if err := c.do(ctx, http.MethodGet, "/api/profile", nil, nil, &out, ""); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateProfile(ctx context.Context, req dto.UpdateProfileRequest) (*dto.UserProfile, error) {
	var out dto.UserProfile
	if err := c.do(ctx, http.MethodPut, "/api/profile", nil, req, &out, ""); err != nil {
		return nil, err
	}
	return &out, nil
}

// Properties

func (c *Client) ListProperties(ctx context.Context, f dto.PropertyFilter) (*dto.PropertyListResponse, error) {
	var out dto.PropertyListResponse
	if err := c.do(ctx, http.MethodGet, "/api/properties", filterQuery(f), nil, &out, ""); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetProperty(ctx context.Context, id string) (*models.Property, error) {
	var out models.Property
	if err := c.do(ctx, http.MethodGet, "/api/properties/"+url.PathEscape(id), nil, nil, &out, ""); err != nil {
		return nil, err
	}
	return &out, nil
}

func filterQuery(f dto.PropertyFilter) url.Values {
	q := url.Values{}
	set := func(key, val string) {
		if val != "" {
			q.Set(key, val)
		}
	}
	set("operation", f.Operation)
	set("kind", f.Kind)
	set("city", f.City)
	set("q", f.Query)
	if f.MinPrice > 0 {
		q.Set("min_price", strconv.FormatFloat(f.MinPrice, 'f', -1, 64))
	}
	if f.MaxPrice > 0 {
		q.Set("max_price", strconv.FormatFloat(f.MaxPrice, 'f', -1, 64))
	}
	if f.MinBedrooms > 0 {
		q.Set("min_bedrooms", strconv.Itoa(f.MinBedrooms))
	}
	if f.Featured {
		q.Set("featured", "true")
	}
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	if f.Offset > 0 {
		q.Set("offset", strconv.Itoa(f.Offset))
	}
	return q
}

// Favorites

func (c *Client) ListFavorites(ctx context.Context) ([]string, error) {
	var out dto.FavoriteIDsResponse
	if err := c.do(ctx, http.MethodGet, "/api/favorites", nil, nil, &out, ""); err != nil {
		return nil, err
	}
	return out.PropertyIDs, nil
}

func (c *Client) FavoriteProperties(ctx context.Context) ([]models.Property, error) {
	var out struct {
		Properties []models.Property `json:"properties"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/favorites/properties", nil, nil, &out, ""); err != nil {
		return nil, err
	}
	return out.Properties, nil
}

func (c *Client) AddFavorite(ctx context.Context, propertyID string) error {
	return c.do(ctx, http.MethodPut, "/api/favorites/"+url.PathEscape(propertyID), nil, nil, nil, "")
}

func (c *Client) RemoveFavorite(ctx context.Context, propertyID string) error {
	return c.do(ctx, http.MethodDelete, "/api/favorites/"+url.PathEscape(propertyID), nil, nil, nil, "")
}

// ToggleFavorite flips membership server-side in one call and returns the
// resulting state and favorite set.
func (c *Client) ToggleFavorite(ctx context.Context, propertyID string) (bool, []string, error) {
	var out dto.FavoriteToggleResponse
	err := c.do(ctx, http.MethodPost, "/api/favorites/"+url.PathEscape(propertyID)+"/toggle", nil, nil, &out, "")
	if err != nil {
		return false, nil, err
	}
	return out.Favorited, out.PropertyIDs, nil
}

func (c *Client) ClearFavorites(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/api/favorites", nil, nil, nil, "")
}

// Settings returns the public site settings.
func (c *Client) Settings(ctx context.Context) (map[string]interface{}, error) {
	var out struct {
		Settings map[string]interface{} `json:"settings"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/settings", nil, nil, &out, ""); err != nil {
		return nil, err
	}
	return out.Settings, nil
}

// do sends one JSON request. token overrides the token source when set.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out interface{}, token string) error {
	u := c.baseURL.JoinPath(path)
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("client: encode %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return fmt.Errorf("client: build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.locale != "" {
		req.Header.Set("Accept-Language", c.locale)
	}
	if token == "" && c.tokens != nil {
		token = c.tokens.AccessToken()
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("client: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("client: read %s %s: %w", method, path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode, Message: errorMessage(data)}
		if apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		c.log.Debug("api request failed", "method", method, "path", path, "status", resp.StatusCode, "message", apiErr.Message)
		return apiErr
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("client: decode %s %s: %w", method, path, err)
	}
	return nil
}

// errorMessage extracts the message from either error body the API uses.
func errorMessage(data []byte) string {
	var body struct {
		Message string          `json:"message"`
		Error   json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return ""
	}
	if body.Message != "" {
		return body.Message
	}
	var s string
	if json.Unmarshal(body.Error, &s) == nil {
		return s
	}
	return ""
}
