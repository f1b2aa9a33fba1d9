package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/ahmetcoskunkizilkaya/estate-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/estate-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/estate-backend/internal/i18n"
	"github.com/ahmetcoskunkizilkaya/estate-backend/internal/mailer"
	"github.com/ahmetcoskunkizilkaya/estate-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/estate-backend/internal/repository"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	confirmPath = "/auth/confirm"
	resetPath   = "/reset-password"
)

type AuthService struct {
	users    UserStore
	tokens   TokenStore
	sessions SessionCache
	mail     mailer.Mailer
	catalog  *i18n.Catalog
	cfg      *config.Config
	events   EventRecorder
	now      func() time.Time
}

func NewAuthService(users UserStore, tokens TokenStore, sessions SessionCache, mail mailer.Mailer, cfg *config.Config, events EventRecorder) *AuthService {
	return &AuthService{
		users:    users,
		tokens:   tokens,
		sessions: sessions,
		mail:     mail,
		catalog:  i18n.Default(),
		cfg:      cfg,
		events:   recorderOrNop(events),
		now:      time.Now,
	}
}

// SignUp creates an unconfirmed account and emails a confirmation link.
// A failed send is logged; the user can ask for another link.
func (s *AuthService) SignUp(ctx context.Context, req *dto.SignUpRequest, locale string) (*dto.SignUpResponse, error) {
	user, err := s.signUp(ctx, req, locale)
	s.events.AuthEvent("signup", err)
	if err != nil {
		return nil, err
	}
	return &dto.SignUpResponse{
		Message: s.catalog.T(locale, "auth.signup_ok"),
		User:    dto.NewUserProfile(user),
	}, nil
}

func (s *AuthService) signUp(ctx context.Context, req *dto.SignUpRequest, locale string) (*models.User, error) {
	email := normalizeEmail(req.Email)

	_, err := s.users.FindByEmail(ctx, email)
	if err == nil {
		return nil, ErrEmailTaken
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up email: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	displayName := strings.TrimSpace(req.DisplayName)
	if displayName == "" {
		displayName = strings.Split(email, "@")[0]
	}

	role := models.RoleUser
	if s.isAdminEmail(email) {
		role = models.RoleAdmin
	}

	user := &models.User{
		ID:               uuid.New(),
		Email:            email,
		Password:         string(hash),
		DisplayName:      displayName,
		Role:             role,
		SubscriptionTier: models.TierBasic,
		IsActive:         true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	if err := s.sendConfirmation(ctx, user, req.RedirectTo, locale); err != nil {
		slog.Warn("confirmation email not sent", "user_id", user.ID.String(), "error", err)
	}
	return user, nil
}

// Verify consumes a signup token, confirms the email and opens a session.
// It returns the URL the browser should land on, carrying the new tokens.
func (s *AuthService) Verify(ctx context.Context, rawToken, redirectTo string) (string, error) {
	target, err := s.verify(ctx, rawToken, redirectTo)
	s.events.AuthEvent("confirm", err)
	return target, err
}

func (s *AuthService) verify(ctx context.Context, rawToken, redirectTo string) (string, error) {
	now := s.now()
	action, err := s.tokens.ConsumeAction(ctx, hashToken(rawToken), models.ActionSignup, now)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrInvalidLink
		}
		return "", fmt.Errorf("failed to consume token: %w", err)
	}

	user, err := s.users.FindByID(ctx, action.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrInvalidLink
		}
		return "", err
	}
	if !user.IsActive {
		return "", ErrAccountInactive
	}
	if !user.IsConfirmed() {
		if err := s.users.Update(ctx, user.ID, map[string]interface{}{"email_confirmed_at": now}); err != nil {
			return "", fmt.Errorf("failed to confirm email: %w", err)
		}
		user.EmailConfirmedAt = &now
	}

	pair, err := s.openSession(ctx, user)
	if err != nil {
		return "", err
	}

	target := s.allowedRedirect(redirectTo)
	if target == "" {
		target = s.cfg.SiteURL + confirmPath
	}
	return withQuery(target, url.Values{
		"type":          {models.ActionSignup},
		"access_token":  {pair.AccessToken},
		"refresh_token": {pair.RefreshToken},
	}), nil
}

// ResendConfirmation sends a fresh confirmation link. Unknown or already
// confirmed addresses are silently ignored.
func (s *AuthService) ResendConfirmation(ctx context.Context, email, redirectTo, locale string) error {
	user, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if user.IsConfirmed() || !user.IsActive {
		return nil
	}

	if err := s.tokens.InvalidateActions(ctx, user.ID, models.ActionSignup, s.now()); err != nil {
		return fmt.Errorf("failed to invalidate old links: %w", err)
	}
	if err := s.sendConfirmation(ctx, user, redirectTo, locale); err != nil {
		slog.Warn("confirmation email not sent", "user_id", user.ID.String(), "error", err)
	}
	return nil
}

func (s *AuthService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	resp, err := s.login(ctx, req)
	s.events.AuthEvent("login", err)
	return resp, err
}

func (s *AuthService) login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	user, err := s.users.FindByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrAccountInactive
	}
	if !user.IsConfirmed() {
		return nil, ErrEmailNotConfirmed
	}

	return s.openSession(ctx, user)
}

// Refresh rotates a refresh token: the presented one is revoked and a new pair issued.
func (s *AuthService) Refresh(ctx context.Context, rawToken string) (*dto.AuthResponse, error) {
	resp, err := s.refresh(ctx, rawToken)
	s.events.AuthEvent("refresh", err)
	return resp, err
}

func (s *AuthService) refresh(ctx context.Context, rawToken string) (*dto.AuthResponse, error) {
	tokenHash := hashToken(rawToken)
	stored, err := s.tokens.FindActiveRefresh(ctx, tokenHash)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}

	// The conditional revoke decides races between refreshes of one token.
	if err := s.tokens.RevokeRefresh(ctx, tokenHash); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("failed to revoke refresh token: %w", err)
	}
	if s.now().After(stored.ExpiresAt) {
		return nil, ErrInvalidToken
	}

	user, err := s.users.FindByID(ctx, stored.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrAccountInactive
	}
	return s.generateTokenPair(ctx, user)
}

// Logout revokes the given refresh token, or every session of the user when
// none is given. The access token id is denylisted until it expires and the
// user's cached server state is dropped.
func (s *AuthService) Logout(ctx context.Context, userID uuid.UUID, jti string, accessExpiry time.Time, refreshToken string) error {
	err := s.logout(ctx, userID, jti, accessExpiry, refreshToken)
	s.events.AuthEvent("logout", err)
	return err
}

func (s *AuthService) logout(ctx context.Context, userID uuid.UUID, jti string, accessExpiry time.Time, refreshToken string) error {
	var err error
	if refreshToken != "" {
		err = s.tokens.RevokeRefresh(ctx, hashToken(refreshToken))
		if errors.Is(err, repository.ErrNotFound) {
			err = nil
		}
	} else {
		err = s.tokens.RevokeAllForUser(ctx, userID)
	}
	if err != nil {
		return fmt.Errorf("failed to revoke refresh tokens: %w", err)
	}
	if refreshToken == "" {
		s.revokeAccessTokens(ctx, userID)
	}

	if err := s.sessions.RevokeToken(ctx, jti, accessExpiry.Sub(s.now())); err != nil {
		slog.Warn("access token not denylisted", "user_id", userID.String(), "error", err)
	}
	if n, err := s.sessions.PurgeUser(ctx, userID); err != nil {
		slog.Warn("user cache purge failed", "user_id", userID.String(), "error", err)
	} else if n > 0 {
		slog.Debug("user cache purged", "user_id", userID.String(), "keys", n)
	}
	return nil
}

// Session returns the profile behind a valid access token.
func (s *AuthService) Session(ctx context.Context, userID uuid.UUID) (*dto.UserProfile, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrAccountInactive
	}
	profile := dto.NewUserProfile(user)
	return &profile, nil
}

// RequestPasswordReset emails a recovery link. Unknown addresses are silently ignored.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email, redirectTo, locale string) error {
	err := s.requestPasswordReset(ctx, email, redirectTo, locale)
	s.events.AuthEvent("recovery", err)
	return err
}

func (s *AuthService) requestPasswordReset(ctx context.Context, email, redirectTo, locale string) error {
	user, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if !user.IsActive {
		return nil
	}

	now := s.now()
	if err := s.tokens.InvalidateActions(ctx, user.ID, models.ActionRecovery, now); err != nil {
		return fmt.Errorf("failed to invalidate old links: %w", err)
	}
	raw, err := s.issueActionToken(ctx, user.ID, models.ActionRecovery, s.cfg.RecoveryTokenExpiry)
	if err != nil {
		return err
	}

	target := s.allowedRedirect(redirectTo)
	if target == "" {
		target = s.cfg.SiteURL + resetPath
	}
	link := withQuery(target, url.Values{"token": {raw}, "type": {models.ActionRecovery}})

	subject := s.catalog.T(locale, "mail.recovery_subject")
	body := s.catalog.T(locale, "mail.recovery_body", user.DisplayName, link)
	if err := s.mail.Send(ctx, user.Email, subject, body); err != nil {
		slog.Warn("recovery email not sent", "user_id", user.ID.String(), "error", err)
	}
	return nil
}

// ResetPassword consumes a recovery token and sets a new password. All
// existing sessions are revoked. Completing recovery proves email ownership.
func (s *AuthService) ResetPassword(ctx context.Context, req *dto.ResetPasswordRequest) error {
	now := s.now()
	action, err := s.tokens.ConsumeAction(ctx, hashToken(req.Token), models.ActionRecovery, now)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrInvalidLink
		}
		return fmt.Errorf("failed to consume token: %w", err)
	}

	user, err := s.users.FindByID(ctx, action.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrInvalidLink
		}
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	fields := map[string]interface{}{"password": string(hash)}
	if !user.IsConfirmed() {
		fields["email_confirmed_at"] = now
	}
	if err := s.users.Update(ctx, user.ID, fields); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	if err := s.tokens.RevokeAllForUser(ctx, user.ID); err != nil {
		return fmt.Errorf("failed to revoke sessions: %w", err)
	}
	s.revokeAccessTokens(ctx, user.ID)
	return nil
}

// revokeAccessTokens rejects every access token the user already holds.
func (s *AuthService) revokeAccessTokens(ctx context.Context, userID uuid.UUID) {
	if err := s.sessions.RevokeUserTokens(ctx, userID, s.now(), s.cfg.JWTAccessExpiry); err != nil {
		slog.Warn("access tokens not revoked", "user_id", userID.String(), "error", err)
	}
}

// UpdatePassword changes the password of a signed-in user.
func (s *AuthService) UpdatePassword(ctx context.Context, userID uuid.UUID, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.users.Update(ctx, userID, map[string]interface{}{"password": string(hash)}); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	return nil
}

// IsRevoked reports whether an access token was denylisted at logout or
// issued before its user's sessions were ended.
func (s *AuthService) IsRevoked(ctx context.Context, jti, subject string, issuedAt time.Time) (bool, error) {
	return s.sessions.IsRevoked(ctx, jti, subject, issuedAt)
}

func (s *AuthService) sendConfirmation(ctx context.Context, user *models.User, redirectTo, locale string) error {
	raw, err := s.issueActionToken(ctx, user.ID, models.ActionSignup, s.cfg.ConfirmTokenExpiry)
	if err != nil {
		return err
	}

	params := url.Values{"token": {raw}, "type": {models.ActionSignup}}
	if target := s.allowedRedirect(redirectTo); target != "" {
		params.Set("redirect_to", target)
	}
	link := withQuery(s.cfg.PublicURL+"/api/auth/verify", params)

	subject := s.catalog.T(locale, "mail.confirm_subject")
	body := s.catalog.T(locale, "mail.confirm_body", user.DisplayName, link, s.cfg.ConfirmTokenExpiry.String())
	return s.mail.Send(ctx, user.Email, subject, body)
}

func (s *AuthService) issueActionToken(ctx context.Context, userID uuid.UUID, kind string, ttl time.Duration) (string, error) {
	raw, err := randomToken()
	if err != nil {
		return "", err
	}
	record := &models.ActionToken{
		ID:        uuid.New(),
		UserID:    userID,
		Kind:      kind,
		TokenHash: hashToken(raw),
		ExpiresAt: s.now().Add(ttl),
	}
	if err := s.tokens.CreateAction(ctx, record); err != nil {
		return "", fmt.Errorf("failed to store %s token: %w", kind, err)
	}
	return raw, nil
}

// openSession records the sign-in and issues a token pair.
func (s *AuthService) openSession(ctx context.Context, user *models.User) (*dto.AuthResponse, error) {
	now := s.now()
	if err := s.users.Update(ctx, user.ID, map[string]interface{}{"last_sign_in_at": now}); err != nil {
		slog.Warn("last sign-in not recorded", "user_id", user.ID.String(), "error", err)
	}
	user.LastSignInAt = &now
	return s.generateTokenPair(ctx, user)
}

func (s *AuthService) generateTokenPair(ctx context.Context, user *models.User) (*dto.AuthResponse, error) {
	accessToken, expiresAt, err := s.generateAccessToken(user)
	if err != nil {
		return nil, err
	}

	refreshToken, err := s.generateRefreshToken(ctx, user)
	if err != nil {
		return nil, err
	}

	return &dto.AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    expiresAt.Unix(),
		User:         dto.NewUserProfile(user),
	}, nil
}

func (s *AuthService) generateAccessToken(user *models.User) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.cfg.JWTAccessExpiry)
	claims := jwt.MapClaims{
		"sub":   user.ID.String(),
		"email": user.Email,
		"role":  user.Role,
		"jti":   uuid.NewString(),
		"iat":   now.Unix(),
		"exp":   expiresAt.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign access token: %w", err)
	}
	return signed, expiresAt, nil
}

func (s *AuthService) generateRefreshToken(ctx context.Context, user *models.User) (string, error) {
	rawToken, err := randomToken()
	if err != nil {
		return "", err
	}

	record := &models.RefreshToken{
		ID:        uuid.New(),
		UserID:    user.ID,
		TokenHash: hashToken(rawToken),
		ExpiresAt: s.now().Add(s.cfg.JWTRefreshExpiry),
	}
	if err := s.tokens.CreateRefresh(ctx, record); err != nil {
		return "", fmt.Errorf("failed to store refresh token: %w", err)
	}
	return rawToken, nil
}

func (s *AuthService) isAdminEmail(email string) bool {
	for _, admin := range config.ParseCSV(s.cfg.AdminEmails) {
		if strings.EqualFold(admin, email) {
			return true
		}
	}
	return false
}

// allowedRedirect keeps redirect targets on the site origin; anything else is dropped.
func (s *AuthService) allowedRedirect(raw string) string {
	if raw == "" {
		return ""
	}
	target, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	site, err := url.Parse(s.cfg.SiteURL)
	if err != nil {
		return ""
	}
	if target.Scheme != site.Scheme || target.Host != site.Host {
		return ""
	}
	return raw
}

func withQuery(base string, params url.Values) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	q := u.Query()
	for k, vs := range params {
		for _, v := range vs {
			q.Set(k, v)
		}
	}
	u.RawQuery = q.Encode()
	return u.String()
}

func randomToken() (string, error) {
	rawBytes := make([]byte, 32)
	if _, err := rand.Read(rawBytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(rawBytes), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func hashToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return fmt.Sprintf("%x", h)
}
