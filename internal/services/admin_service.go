package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ahmetcoskunkizilkaya/estate-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/estate-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/estate-backend/internal/repository"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type AdminService struct {
	users      UserStore
	tokens     TokenStore
	sessions   SessionCache
	properties PropertyStore
	favorites  FavoriteStore
	accessTTL  time.Duration
	now        func() time.Time
}

func NewAdminService(users UserStore, tokens TokenStore, sessions SessionCache, properties PropertyStore, favorites FavoriteStore, accessTTL time.Duration) *AdminService {
	return &AdminService{
		users:      users,
		tokens:     tokens,
		sessions:   sessions,
		properties: properties,
		favorites:  favorites,
		accessTTL:  accessTTL,
		now:        time.Now,
	}
}

// UpdateUser applies a privileged change to any account: email, password and
// profile columns. A new password, a role change or deactivation ends every
// session the user holds.
func (s *AdminService) UpdateUser(ctx context.Context, req *dto.AdminUpdateUserRequest) (*dto.UserProfile, error) {
	userID, err := uuid.Parse(strings.TrimSpace(req.UserID))
	if err != nil {
		return nil, ErrInvalidUserID
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	fields := map[string]interface{}{}
	endSessions := false

	if req.Email != nil {
		email := normalizeEmail(*req.Email)
		if email != "" && email != user.Email {
			other, err := s.users.FindByEmail(ctx, email)
			switch {
			case err == nil && other.ID != user.ID:
				return nil, ErrEmailTaken
			case err != nil && !errors.Is(err, repository.ErrNotFound):
				return nil, err
			}
			fields["email"] = email
			if !user.IsConfirmed() {
				fields["email_confirmed_at"] = s.now()
			}
		}
	}

	if req.Password != nil && *req.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		fields["password"] = string(hash)
		endSessions = true
	}

	if p := req.Profile; p != nil {
		if p.DisplayName != nil {
			fields["display_name"] = strings.TrimSpace(*p.DisplayName)
		}
		if p.Role != nil && *p.Role != user.Role {
			fields["role"] = *p.Role
			endSessions = true
		}
		if p.SubscriptionTier != nil {
			fields["subscription_tier"] = *p.SubscriptionTier
		}
		if p.SubscriptionExpiresAt != nil {
			fields["subscription_expires_at"] = *p.SubscriptionExpiresAt
		}
		if p.IsActive != nil {
			fields["is_active"] = *p.IsActive
			if !*p.IsActive {
				endSessions = true
			}
		}
		if p.AvatarURL != nil {
			fields["avatar_url"] = strings.TrimSpace(*p.AvatarURL)
		}
	}

	if len(fields) > 0 {
		if err := s.users.Update(ctx, user.ID, fields); err != nil {
			switch {
			case errors.Is(err, repository.ErrDuplicate):
				return nil, ErrEmailTaken
			case errors.Is(err, repository.ErrNotFound):
				return nil, ErrUserNotFound
			}
			return nil, fmt.Errorf("failed to update user: %w", err)
		}
	}

	if endSessions {
		if err := s.tokens.RevokeAllForUser(ctx, user.ID); err != nil {
			return nil, fmt.Errorf("failed to revoke sessions: %w", err)
		}
		if _, err := s.sessions.PurgeUser(ctx, user.ID); err != nil {
			slog.Warn("user cache purge failed", "user_id", user.ID.String(), "error", err)
		}
		if err := s.sessions.RevokeUserTokens(ctx, user.ID, s.now(), s.accessTTL); err != nil {
			slog.Warn("access tokens not revoked", "user_id", user.ID.String(), "error", err)
		}
	}

	updated, err := s.users.FindByID(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	slog.Info("user updated by admin", "user_id", user.ID.String(), "fields", len(fields), "sessions_ended", endSessions)
	profile := dto.NewUserProfile(updated)
	return &profile, nil
}

func (s *AdminService) ListUsers(ctx context.Context, limit, offset int) (*dto.UserListResponse, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	users, total, err := s.users.List(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	return &dto.UserListResponse{
		Users:  dto.NewUserProfiles(users),
		Total:  total,
		Limit:  limit,
		Offset: offset,
	}, nil
}

func (s *AdminService) Stats(ctx context.Context) (*dto.StatsResponse, error) {
	var (
		stats dto.StatsResponse
		err   error
	)
	if stats.Users, err = s.users.Count(ctx); err != nil {
		return nil, err
	}
	if stats.PremiumUsers, err = s.users.CountPremium(ctx, s.now()); err != nil {
		return nil, err
	}
	if stats.Properties, err = s.properties.Count(ctx, false); err != nil {
		return nil, err
	}
	if stats.Published, err = s.properties.Count(ctx, true); err != nil {
		return nil, err
	}
	if stats.Favorites, err = s.favorites.Count(ctx); err != nil {
		return nil, err
	}
	return &stats, nil
}

// IsAdmin reports whether the user currently holds the admin role.
func (s *AdminService) IsAdmin(ctx context.Context, userID uuid.UUID) (bool, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return user.Role == models.RoleAdmin && user.IsActive, nil
}
