package services

import (
	"context"
	"net/url"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/estate-backend/internal/cache"
	"github.com/ahmetcoskunkizilkaya/estate-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/estate-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/estate-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/estate-backend/internal/repository"
	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:           "test-secret",
		JWTAccessExpiry:     15 * time.Minute,
		JWTRefreshExpiry:    time.Hour,
		ConfirmTokenExpiry:  24 * time.Hour,
		RecoveryTokenExpiry: time.Hour,
		SiteURL:             "https://estate.example.com",
		PublicURL:           "https://api.estate.example.com",
		AdminEmails:         "boss@example.com",
	}
}

func newTestCache(t *testing.T) (*cache.Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return cache.New(client, time.Minute), mr
}

type fakeUsers struct {
	mu    sync.Mutex
	users map[uuid.UUID]*models.User
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{users: map[uuid.UUID]*models.User{}}
}

func (f *fakeUsers) Create(_ context.Context, user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if strings.EqualFold(u.Email, user.Email) {
			return repository.ErrDuplicate
		}
	}
	cp := *user
	f.users[user.ID] = &cp
	return nil
}

func (f *fakeUsers) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) FindByEmail(_ context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeUsers) Update(_ context.Context, id uuid.UUID, fields map[string]interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	for k, v := range fields {
		switch k {
		case "email":
			u.Email = v.(string)
		case "password":
			u.Password = v.(string)
		case "display_name":
			u.DisplayName = v.(string)
		case "role":
			u.Role = v.(string)
		case "subscription_tier":
			u.SubscriptionTier = v.(string)
		case "subscription_expires_at":
			t := v.(time.Time)
			u.SubscriptionExpiresAt = &t
		case "is_active":
			u.IsActive = v.(bool)
		case "avatar_url":
			u.AvatarURL = v.(string)
		case "email_confirmed_at":
			t := v.(time.Time)
			u.EmailConfirmedAt = &t
		case "last_sign_in_at":
			t := v.(time.Time)
			u.LastSignInAt = &t
		}
	}
	return nil
}

func (f *fakeUsers) List(_ context.Context, limit, offset int) ([]models.User, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	all := make([]models.User, 0, len(f.users))
	for _, u := range f.users {
		all = append(all, *u)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Email < all[j].Email })
	total := int64(len(all))
	if offset > len(all) {
		offset = len(all)
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (f *fakeUsers) DowngradeExpired(_ context.Context, now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, u := range f.users {
		if u.SubscriptionTier == models.TierPremium && u.SubscriptionExpiresAt != nil && u.SubscriptionExpiresAt.Before(now) {
			u.SubscriptionTier = models.TierBasic
			n++
		}
	}
	return n, nil
}

func (f *fakeUsers) Count(context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.users)), nil
}

func (f *fakeUsers) CountPremium(_ context.Context, now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, u := range f.users {
		if u.IsPremium(now) {
			n++
		}
	}
	return n, nil
}

func (f *fakeUsers) add(u models.User) *models.User {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[u.ID] = &u
	return &u
}

type fakeTokens struct {
	mu      sync.Mutex
	refresh map[string]*models.RefreshToken
	actions map[string]*models.ActionToken
}

func newFakeTokens() *fakeTokens {
	return &fakeTokens{refresh: map[string]*models.RefreshToken{}, actions: map[string]*models.ActionToken{}}
}

func (f *fakeTokens) CreateRefresh(_ context.Context, token *models.RefreshToken) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *token
	f.refresh[token.TokenHash] = &cp
	return nil
}

func (f *fakeTokens) FindActiveRefresh(_ context.Context, tokenHash string) (*models.RefreshToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.refresh[tokenHash]
	if !ok || t.Revoked {
		return nil, repository.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (f *fakeTokens) RevokeRefresh(_ context.Context, tokenHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.refresh[tokenHash]
	if !ok || t.Revoked {
		return repository.ErrNotFound
	}
	t.Revoked = true
	return nil
}

func (f *fakeTokens) RevokeAllForUser(_ context.Context, userID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.refresh {
		if t.UserID == userID {
			t.Revoked = true
		}
	}
	return nil
}

func (f *fakeTokens) activeRefreshCount(userID uuid.UUID) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, t := range f.refresh {
		if t.UserID == userID && !t.Revoked {
			n++
		}
	}
	return n
}

func (f *fakeTokens) CreateAction(_ context.Context, token *models.ActionToken) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *token
	f.actions[token.TokenHash] = &cp
	return nil
}

func (f *fakeTokens) ConsumeAction(_ context.Context, tokenHash, kind string, now time.Time) (*models.ActionToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.actions[tokenHash]
	if !ok || t.Kind != kind || t.UsedAt != nil || !t.ExpiresAt.After(now) {
		return nil, repository.ErrNotFound
	}
	t.UsedAt = &now
	cp := *t
	return &cp, nil
}

func (f *fakeTokens) InvalidateActions(_ context.Context, userID uuid.UUID, kind string, now time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.actions {
		if t.UserID == userID && t.Kind == kind && t.UsedAt == nil {
			t.UsedAt = &now
		}
	}
	return nil
}

type fakeProperties struct {
	mu      sync.Mutex
	items   map[uuid.UUID]*models.Property
	findErr error
}

func newFakeProperties() *fakeProperties {
	return &fakeProperties{items: map[uuid.UUID]*models.Property{}}
}

func (f *fakeProperties) add(p models.Property) uuid.UUID {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items[p.ID] = &p
	return p.ID
}

func (f *fakeProperties) List(_ context.Context, filter dto.PropertyFilter) ([]models.Property, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Property
	for _, p := range f.items {
		if !p.Published && !filter.IncludeUnpublished {
			continue
		}
		if filter.Operation != "" && p.Operation != filter.Operation {
			continue
		}
		out = append(out, *p)
	}
	return out, int64(len(out)), nil
}

func (f *fakeProperties) FindByID(_ context.Context, id uuid.UUID) (*models.Property, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return nil, f.findErr
	}
	p, ok := f.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProperties) Create(_ context.Context, p *models.Property) error {
	f.add(*p)
	return nil
}

func (f *fakeProperties) Save(_ context.Context, p *models.Property) error {
	f.add(*p)
	return nil
}

func (f *fakeProperties) Delete(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.items[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.items, id)
	return nil
}

func (f *fakeProperties) Count(_ context.Context, publishedOnly bool) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, p := range f.items {
		if !publishedOnly || p.Published {
			n++
		}
	}
	return n, nil
}

type fakeFavorites struct {
	mu         sync.Mutex
	sets       map[uuid.UUID]map[uuid.UUID]bool
	properties *fakeProperties
	failWrites bool
}

func newFakeFavorites(properties *fakeProperties) *fakeFavorites {
	return &fakeFavorites{sets: map[uuid.UUID]map[uuid.UUID]bool{}, properties: properties}
}

func (f *fakeFavorites) ListIDs(_ context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make([]uuid.UUID, 0, len(f.sets[userID]))
	for id := range f.sets[userID] {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids, nil
}

func (f *fakeFavorites) ListProperties(ctx context.Context, userID uuid.UUID) ([]models.Property, error) {
	ids, _ := f.ListIDs(ctx, userID)
	var out []models.Property
	for _, id := range ids {
		if p, err := f.properties.FindByID(ctx, id); err == nil {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakeFavorites) Exists(_ context.Context, userID, propertyID uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sets[userID][propertyID], nil
}

func (f *fakeFavorites) Add(_ context.Context, userID, propertyID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWrites {
		return errBackend
	}
	if f.sets[userID] == nil {
		f.sets[userID] = map[uuid.UUID]bool{}
	}
	f.sets[userID][propertyID] = true
	return nil
}

func (f *fakeFavorites) Remove(_ context.Context, userID, propertyID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWrites {
		return errBackend
	}
	delete(f.sets[userID], propertyID)
	return nil
}

func (f *fakeFavorites) Clear(_ context.Context, userID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWrites {
		return errBackend
	}
	delete(f.sets, userID)
	return nil
}

func (f *fakeFavorites) RemoveProperty(_ context.Context, propertyID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, set := range f.sets {
		delete(set, propertyID)
	}
	return nil
}

func (f *fakeFavorites) Count(context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, set := range f.sets {
		n += int64(len(set))
	}
	return n, nil
}

type fakeSettings struct {
	mu    sync.Mutex
	items map[string]models.Setting
}

func newFakeSettings() *fakeSettings {
	return &fakeSettings{items: map[string]models.Setting{}}
}

func (f *fakeSettings) All(context.Context) ([]models.Setting, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Setting, 0, len(f.items))
	for _, s := range f.items {
		out = append(out, s)
	}
	return out, nil
}

func (f *fakeSettings) Upsert(_ context.Context, key, value, typ string) (*models.Setting, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := f.items[key]
	s.Key, s.Value, s.Type = key, value, typ
	f.items[key] = s
	return &s, nil
}

func (f *fakeSettings) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.items[key]; !ok {
		return repository.ErrNotFound
	}
	delete(f.items, key)
	return nil
}

func (f *fakeSettings) CreateMissing(_ context.Context, defaults []models.Setting) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, d := range defaults {
		if _, ok := f.items[d.Key]; !ok {
			f.items[d.Key] = d
		}
	}
	return nil
}

type sentMail struct {
	To, Subject, Body string
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
}

func (m *fakeMailer) Send(_ context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{To: to, Subject: subject, Body: body})
	return nil
}

func (m *fakeMailer) last() (sentMail, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		return sentMail{}, false
	}
	return m.sent[len(m.sent)-1], true
}

// linkIn returns the first URL found in a mail body.
func linkIn(t *testing.T, body string) *url.URL {
	t.Helper()
	for _, line := range strings.Split(body, "\n") {
		if strings.HasPrefix(line, "http") {
			u, err := url.Parse(strings.TrimSpace(line))
			if err != nil {
				t.Fatalf("bad link %q: %v", line, err)
			}
			return u
		}
	}
	t.Fatalf("no link in mail body: %q", body)
	return nil
}

type countingRecorder struct {
	mu     sync.Mutex
	auth   map[string]int
	writes map[string]int
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{auth: map[string]int{}, writes: map[string]int{}}
}

func (r *countingRecorder) AuthEvent(event string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.auth[event+":"+outcomeOf(err)]++
}

func (r *countingRecorder) FavoriteWrite(action string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.writes[action+":"+outcomeOf(err)]++
}

func outcomeOf(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
