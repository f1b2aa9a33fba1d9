package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/ahmetcoskunkizilkaya/estate-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/estate-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/estate-backend/internal/repository"
	"github.com/google/uuid"
)

// SubscriptionService keeps the user's tier in step with the billing provider.
type SubscriptionService struct {
	users UserStore
	now   func() time.Time
}

func NewSubscriptionService(users UserStore) *SubscriptionService {
	return &SubscriptionService{users: users, now: time.Now}
}

func (s *SubscriptionService) HandleWebhookEvent(ctx context.Context, event *dto.BillingEvent) error {
	userID, err := uuid.Parse(event.AppUserID)
	if err != nil {
		return ErrUserNotFound
	}

	switch event.Type {
	case "INITIAL_PURCHASE", "RENEWAL", "UNCANCELLATION", "PRODUCT_CHANGE":
		return s.setPremium(ctx, userID, msToTime(event.ExpirationAtMs))
	case "EXPIRATION":
		return s.setTier(ctx, userID, map[string]interface{}{
			"subscription_tier": models.TierBasic,
		})
	case "CANCELLATION":
		// Premium stays in effect until the paid period ends.
		return nil
	default:
		slog.Debug("billing event ignored", "type", event.Type)
		return nil
	}
}

func (s *SubscriptionService) setPremium(ctx context.Context, userID uuid.UUID, expiresAt time.Time) error {
	fields := map[string]interface{}{"subscription_tier": models.TierPremium}
	if !expiresAt.IsZero() {
		fields["subscription_expires_at"] = expiresAt
	}
	return s.setTier(ctx, userID, fields)
}

func (s *SubscriptionService) setTier(ctx context.Context, userID uuid.UUID, fields map[string]interface{}) error {
	if err := s.users.Update(ctx, userID, fields); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	return nil
}

// SweepExpired downgrades premium users whose paid period has ended.
func (s *SubscriptionService) SweepExpired(ctx context.Context) (int64, error) {
	return s.users.DowngradeExpired(ctx, s.now())
}

// StartSweeper runs SweepExpired every interval until done is closed.
func (s *SubscriptionService) StartSweeper(interval time.Duration, done <-chan struct{}) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				n, err := s.SweepExpired(ctx)
				cancel()
				if err != nil {
					slog.Error("subscription sweep failed", "error", err)
				} else if n > 0 {
					slog.Info("subscriptions expired", "count", n)
				}
			case <-done:
				return
			}
		}
	}()
}

func msToTime(ms int64) time.Time {
	if ms <= 0 {
		return time.Time{}
	}
	return time.Unix(ms/1000, (ms%1000)*int64(time.Millisecond))
}
