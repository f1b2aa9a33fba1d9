package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/estate-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/estate-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/estate-backend/internal/i18n"
	"github.com/ahmetcoskunkizilkaya/estate-backend/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/estate-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/estate-backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

var testCfg = &config.Config{JWTSecret: testSecret}

func newApp() *fiber.App {
	app := fiber.New()
	app.Use(middleware.Locale(i18n.Default()))
	return app
}

func bearer(t *testing.T, userID uuid.UUID) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": userID.String(),
		"jti": "jti-" + userID.String(),
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return "Bearer " + signed
}

type response struct {
	Status int
	Header http.Header
	Body   string
}

func (r response) JSON(t *testing.T) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(r.Body), &out), r.Body)
	return out
}

func do(t *testing.T, app *fiber.App, method, path, body string, headers ...string) response {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	b, _ := io.ReadAll(resp.Body)
	return response{Status: resp.StatusCode, Header: resp.Header, Body: string(b)}
}

// stubAuth implements AuthAPI with canned results.
type stubAuth struct {
	loginErr    error
	verifyURL   string
	verifyErr   error
	logoutCalls []string
}

func (s *stubAuth) SignUp(_ context.Context, req *dto.SignUpRequest, locale string) (*dto.SignUpResponse, error) {
	return &dto.SignUpResponse{Message: locale, User: dto.UserProfile{Email: req.Email}}, nil
}

func (s *stubAuth) Verify(context.Context, string, string) (string, error) {
	return s.verifyURL, s.verifyErr
}

func (s *stubAuth) ResendConfirmation(context.Context, string, string, string) error { return nil }

func (s *stubAuth) Login(_ context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	if s.loginErr != nil {
		return nil, s.loginErr
	}
	return &dto.AuthResponse{AccessToken: "access", RefreshToken: "refresh", User: dto.UserProfile{Email: req.Email}}, nil
}

func (s *stubAuth) Refresh(context.Context, string) (*dto.AuthResponse, error) {
	return nil, services.ErrInvalidToken
}

func (s *stubAuth) Logout(_ context.Context, userID uuid.UUID, jti string, _ time.Time, refreshToken string) error {
	s.logoutCalls = append(s.logoutCalls, userID.String()+"|"+jti+"|"+refreshToken)
	return nil
}

func (s *stubAuth) Session(_ context.Context, userID uuid.UUID) (*dto.UserProfile, error) {
	return &dto.UserProfile{ID: userID}, nil
}

func (s *stubAuth) RequestPasswordReset(context.Context, string, string, string) error { return nil }

func (s *stubAuth) ResetPassword(context.Context, *dto.ResetPasswordRequest) error {
	return services.ErrInvalidLink
}

func (s *stubAuth) UpdatePassword(context.Context, uuid.UUID, string) error { return nil }

func newAuthApp(auth *stubAuth) *fiber.App {
	h := NewAuthHandler(auth, []string{"auth", "token", "session", "sb-"})
	app := newApp()
	app.Post("/signup", h.SignUp)
	app.Get("/verify", h.Verify)
	app.Post("/login", h.Login)
	app.Post("/refresh", h.Refresh)
	app.Post("/password/reset", h.ResetPassword)
	app.Post("/logout", middleware.JWTProtected(testCfg, nil), h.Logout)
	app.Get("/session", middleware.JWTProtected(testCfg, nil), h.Session)
	return app
}

func TestSignUpValidation(t *testing.T) {
	app := newAuthApp(&stubAuth{})

	resp := do(t, app, "POST", "/signup", `{"email":"nope","password":"short"}`)
	assert.Equal(t, fiber.StatusBadRequest, resp.Status)
	body := resp.JSON(t)
	assert.Equal(t, true, body["error"])
	assert.Contains(t, body["message"], "email: email")

	resp = do(t, app, "POST", "/signup", `{"email":"ana@example.com","password":"correct-horse"}`, "Accept-Language", "es")
	assert.Equal(t, fiber.StatusCreated, resp.Status)
	assert.Equal(t, "es", resp.JSON(t)["message"])

	resp = do(t, app, "POST", "/signup", `{not json`)
	assert.Equal(t, fiber.StatusBadRequest, resp.Status)
}

func TestLoginErrorMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{services.ErrInvalidCredentials, fiber.StatusUnauthorized},
		{services.ErrEmailNotConfirmed, fiber.StatusForbidden},
		{services.ErrAccountInactive, fiber.StatusForbidden},
		{errors.New("db down"), fiber.StatusInternalServerError},
	}
	for _, tc := range cases {
		app := newAuthApp(&stubAuth{loginErr: tc.err})
		resp := do(t, app, "POST", "/login", `{"email":"ana@example.com","password":"x"}`)
		assert.Equal(t, tc.status, resp.Status, tc.err.Error())
	}

	resp := do(t, newAuthApp(&stubAuth{loginErr: errors.New("db down")}), "POST", "/login", `{"email":"ana@example.com","password":"x"}`)
	assert.Equal(t, "Internal server error", resp.JSON(t)["message"])
}

func TestRefreshAndResetErrors(t *testing.T) {
	app := newAuthApp(&stubAuth{})

	resp := do(t, app, "POST", "/refresh", `{"refresh_token":"stale"}`)
	assert.Equal(t, fiber.StatusUnauthorized, resp.Status)

	resp = do(t, app, "POST", "/password/reset", `{"token":"used","password":"correct-horse"}`)
	assert.Equal(t, fiber.StatusBadRequest, resp.Status)
	assert.Equal(t, "This link is invalid or has expired", resp.JSON(t)["message"])
}

func TestVerifyRedirects(t *testing.T) {
	target := "https://estate.example.com/auth/confirm?type=signup&access_token=a&refresh_token=r"
	app := newAuthApp(&stubAuth{verifyURL: target})

	resp := do(t, app, "GET", "/verify?token=abc&type=signup", "")
	assert.Equal(t, fiber.StatusFound, resp.Status)
	assert.Equal(t, target, resp.Header.Get("Location"))

	resp = do(t, app, "GET", "/verify?token=abc&type=recovery", "")
	assert.Equal(t, fiber.StatusBadRequest, resp.Status)

	app = newAuthApp(&stubAuth{verifyErr: services.ErrInvalidLink})
	resp = do(t, app, "GET", "/verify?token=abc", "")
	assert.Equal(t, fiber.StatusBadRequest, resp.Status)
}

func TestLogoutClearsClientState(t *testing.T) {
	auth := &stubAuth{}
	app := newAuthApp(auth)
	userID := uuid.New()

	resp := do(t, app, "POST", "/logout", `{"refresh_token":"r1"}`,
		"Authorization", bearer(t, userID),
		"Cookie", "sb-access-token=abc; theme=dark; my_session=xyz")
	require.Equal(t, fiber.StatusOK, resp.Status)

	body := resp.JSON(t)
	assert.Equal(t, true, body["reload"])
	assert.Equal(t, `"cache", "cookies", "storage"`, resp.Header.Get("Clear-Site-Data"))
	assert.Equal(t, []string{userID.String() + "|jti-" + userID.String() + "|r1"}, auth.logoutCalls)

	cleared := strings.Join(resp.Header.Values("Set-Cookie"), "\n")
	assert.Contains(t, cleared, "sb-access-token=")
	assert.Contains(t, cleared, "my_session=")
	assert.NotContains(t, cleared, "theme=")

	resp = do(t, app, "POST", "/logout", "")
	assert.Equal(t, fiber.StatusUnauthorized, resp.Status)

	resp = do(t, app, "POST", "/logout", "", "Authorization", bearer(t, userID))
	assert.Equal(t, fiber.StatusOK, resp.Status)
}

func TestSessionReturnsProfile(t *testing.T) {
	app := newAuthApp(&stubAuth{})
	userID := uuid.New()

	resp := do(t, app, "GET", "/session", "", "Authorization", bearer(t, userID))
	assert.Equal(t, fiber.StatusOK, resp.Status)
	assert.Equal(t, userID.String(), resp.JSON(t)["id"])
}

type stubAdmin struct {
	updated *dto.AdminUpdateUserRequest
	err     error
}

func (s *stubAdmin) UpdateUser(_ context.Context, req *dto.AdminUpdateUserRequest) (*dto.UserProfile, error) {
	s.updated = req
	if s.err != nil {
		return nil, s.err
	}
	return &dto.UserProfile{ID: uuid.MustParse(req.UserID), Email: "ana@example.com"}, nil
}

func (s *stubAdmin) ListUsers(context.Context, int, int) (*dto.UserListResponse, error) {
	return &dto.UserListResponse{Users: []dto.UserProfile{}}, nil
}

func (s *stubAdmin) Stats(context.Context) (*dto.StatsResponse, error) {
	return &dto.StatsResponse{Users: 3}, nil
}

func newFunctionApp(admin *stubAdmin, token string) *fiber.App {
	app := newApp()
	app.All("/functions/v1/admin-update-user", NewFunctionHandler(admin, token).AdminUpdateUser)
	return app
}

func TestAdminUpdateFunction(t *testing.T) {
	userID := uuid.New()
	const path = "/functions/v1/admin-update-user"
	ok := `{"userId":"` + userID.String() + `","profile":{"display_name":"Ana"}}`

	t.Run("preflight", func(t *testing.T) {
		resp := do(t, newFunctionApp(&stubAdmin{}, "svc"), "OPTIONS", path, "")
		assert.Equal(t, fiber.StatusNoContent, resp.Status)
	})

	t.Run("wrong method", func(t *testing.T) {
		resp := do(t, newFunctionApp(&stubAdmin{}, "svc"), "GET", path, "")
		assert.Equal(t, fiber.StatusMethodNotAllowed, resp.Status)
		assert.Equal(t, false, resp.JSON(t)["success"])
	})

	t.Run("missing configuration", func(t *testing.T) {
		resp := do(t, newFunctionApp(&stubAdmin{}, ""), "POST", path, ok, "Authorization", "Bearer svc")
		assert.Equal(t, fiber.StatusInternalServerError, resp.Status)
	})

	t.Run("bad credential", func(t *testing.T) {
		resp := do(t, newFunctionApp(&stubAdmin{}, "svc"), "POST", path, ok, "Authorization", "Bearer nope")
		assert.Equal(t, fiber.StatusUnauthorized, resp.Status)
	})

	t.Run("invalid json", func(t *testing.T) {
		resp := do(t, newFunctionApp(&stubAdmin{}, "svc"), "POST", path, `{"userId":`, "Authorization", "Bearer svc")
		assert.Equal(t, fiber.StatusBadRequest, resp.Status)
	})

	t.Run("missing userId", func(t *testing.T) {
		admin := &stubAdmin{}
		resp := do(t, newFunctionApp(admin, "svc"), "POST", path, `{"email":"ana@example.com"}`, "X-Admin-Token", "svc")
		assert.Equal(t, fiber.StatusBadRequest, resp.Status)
		body := resp.JSON(t)
		assert.Equal(t, false, body["success"])
		assert.Equal(t, "userId is required", body["error"])
		assert.Nil(t, admin.updated)
	})

	t.Run("validation", func(t *testing.T) {
		body := `{"userId":"` + userID.String() + `","password":"short"}`
		resp := do(t, newFunctionApp(&stubAdmin{}, "svc"), "POST", path, body, "Authorization", "Bearer svc")
		assert.Equal(t, fiber.StatusBadRequest, resp.Status)
	})

	t.Run("unknown user", func(t *testing.T) {
		resp := do(t, newFunctionApp(&stubAdmin{err: services.ErrUserNotFound}, "svc"), "POST", path, ok, "Authorization", "Bearer svc")
		assert.Equal(t, fiber.StatusNotFound, resp.Status)
	})

	t.Run("unexpected failure", func(t *testing.T) {
		resp := do(t, newFunctionApp(&stubAdmin{err: errors.New("boom")}, "svc"), "POST", path, ok, "Authorization", "Bearer svc")
		assert.Equal(t, fiber.StatusInternalServerError, resp.Status)
	})

	t.Run("success", func(t *testing.T) {
		admin := &stubAdmin{}
		resp := do(t, newFunctionApp(admin, "svc"), "POST", path, ok, "Authorization", "Bearer svc")
		require.Equal(t, fiber.StatusOK, resp.Status)
		body := resp.JSON(t)
		assert.Equal(t, true, body["success"])
		assert.Equal(t, userID.String(), body["user"].(map[string]interface{})["id"])
		require.NotNil(t, admin.updated.Profile)
		assert.Equal(t, "Ana", *admin.updated.Profile.DisplayName)
	})
}

func TestAdminPanelUpdateUsesPathID(t *testing.T) {
	admin := &stubAdmin{}
	h := NewAdminHandler(admin)
	app := newApp()
	app.Put("/users/:id", h.UpdateUser)
	app.Get("/stats", h.Stats)

	userID := uuid.New()
	resp := do(t, app, "PUT", "/users/"+userID.String(), `{"userId":"`+uuid.NewString()+`"}`)
	assert.Equal(t, fiber.StatusOK, resp.Status)
	assert.Equal(t, userID.String(), admin.updated.UserID)

	resp = do(t, app, "PUT", "/users/not-a-uuid", `{}`)
	assert.Equal(t, fiber.StatusBadRequest, resp.Status)

	resp = do(t, app, "GET", "/stats", "")
	assert.Equal(t, float64(3), resp.JSON(t)["users"])
}

type stubFavorites struct {
	ids map[uuid.UUID]bool
	err error
}

func (s *stubFavorites) list() []uuid.UUID {
	out := []uuid.UUID{}
	for id := range s.ids {
		out = append(out, id)
	}
	return out
}

func (s *stubFavorites) IDs(context.Context, uuid.UUID) ([]uuid.UUID, error) { return s.list(), nil }
func (s *stubFavorites) Properties(context.Context, uuid.UUID) ([]models.Property, error) {
	return []models.Property{}, nil
}

func (s *stubFavorites) Add(_ context.Context, _, id uuid.UUID) error {
	if s.err != nil {
		return s.err
	}
	s.ids[id] = true
	return nil
}

func (s *stubFavorites) Remove(_ context.Context, _, id uuid.UUID) error {
	if s.err != nil {
		return s.err
	}
	delete(s.ids, id)
	return nil
}

func (s *stubFavorites) Toggle(ctx context.Context, userID, id uuid.UUID) (bool, []uuid.UUID, error) {
	if s.ids[id] {
		if err := s.Remove(ctx, userID, id); err != nil {
			return false, nil, err
		}
		return false, s.list(), nil
	}
	if err := s.Add(ctx, userID, id); err != nil {
		return false, nil, err
	}
	return true, s.list(), nil
}

func (s *stubFavorites) Clear(context.Context, uuid.UUID) error {
	s.ids = map[uuid.UUID]bool{}
	return nil
}

func TestFavoriteRoutes(t *testing.T) {
	fav := &stubFavorites{ids: map[uuid.UUID]bool{}}
	h := NewFavoriteHandler(fav)
	app := newApp()
	group := app.Group("/favorites", middleware.JWTProtected(testCfg, nil))
	group.Get("/", h.IDs)
	group.Put("/:id", h.Add)
	group.Post("/:id/toggle", h.Toggle)
	group.Delete("/", h.Clear)
	auth := bearer(t, uuid.New())
	prop := uuid.New()

	resp := do(t, app, "POST", "/favorites/"+prop.String()+"/toggle", "", "Authorization", auth)
	require.Equal(t, fiber.StatusOK, resp.Status)
	body := resp.JSON(t)
	assert.Equal(t, true, body["favorited"])
	assert.Equal(t, []interface{}{prop.String()}, body["property_ids"])

	resp = do(t, app, "POST", "/favorites/"+prop.String()+"/toggle", "", "Authorization", auth)
	body = resp.JSON(t)
	assert.Equal(t, false, body["favorited"])
	assert.Empty(t, body["property_ids"])

	resp = do(t, app, "PUT", "/favorites/not-a-uuid", "", "Authorization", auth)
	assert.Equal(t, fiber.StatusBadRequest, resp.Status)

	fav.err = services.ErrPropertyNotFound
	resp = do(t, app, "PUT", "/favorites/"+prop.String(), "", "Authorization", auth)
	assert.Equal(t, fiber.StatusNotFound, resp.Status)

	resp = do(t, app, "DELETE", "/favorites", "", "Authorization", auth)
	assert.Equal(t, fiber.StatusOK, resp.Status)
	assert.Equal(t, "Favorites cleared", resp.JSON(t)["message"])
}

type stubBilling struct {
	err    error
	events []string
}

func (s *stubBilling) HandleWebhookEvent(_ context.Context, event *dto.BillingEvent) error {
	s.events = append(s.events, event.Type)
	return s.err
}

func TestBillingWebhook(t *testing.T) {
	billing := &stubBilling{}
	app := newApp()
	app.Post("/hook", NewWebhookHandler(billing, "secret").HandleBilling)
	payload := `{"event":{"type":"RENEWAL","app_user_id":"u1"}}`

	resp := do(t, app, "POST", "/hook", payload, "Authorization", "wrong")
	assert.Equal(t, fiber.StatusUnauthorized, resp.Status)

	resp = do(t, app, "POST", "/hook", payload, "Authorization", "secret")
	assert.Equal(t, fiber.StatusOK, resp.Status)
	assert.Equal(t, []string{"RENEWAL"}, billing.events)

	billing.err = services.ErrUserNotFound
	resp = do(t, app, "POST", "/hook", payload, "Authorization", "secret")
	assert.Equal(t, fiber.StatusOK, resp.Status)
	assert.Equal(t, true, resp.JSON(t)["ignored"])

	unconfigured := newApp()
	unconfigured.Post("/hook", NewWebhookHandler(billing, "").HandleBilling)
	resp = do(t, unconfigured, "POST", "/hook", payload, "Authorization", "")
	assert.Equal(t, fiber.StatusNotFound, resp.Status)
}

func TestLegalPagesAreLocalized(t *testing.T) {
	h := NewLegalHandler("Estate", "support@estate.example.com")
	app := newApp()
	app.Get("/privacy", h.PrivacyPolicy)
	app.Get("/cookies", h.CookiePolicy)

	resp := do(t, app, "GET", "/privacy", "", "Accept-Language", "es")
	assert.Equal(t, fiber.StatusOK, resp.Status)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
	assert.Contains(t, resp.Body, "<h1>"+i18n.Default().T("es", "legal.privacy_title")+"</h1>")
	assert.Contains(t, resp.Body, "operate Estate")

	resp = do(t, app, "GET", "/cookies", "")
	assert.Contains(t, resp.Body, "<h1>Cookie Policy</h1>")
}

func TestHealth(t *testing.T) {
	healthy := func(context.Context) error { return nil }
	broken := func(context.Context) error { return errors.New("refused") }

	app := newApp()
	app.Get("/ok", NewHealthHandler(healthy, nil).Check)
	app.Get("/bad", NewHealthHandler(broken, healthy).Check)

	resp := do(t, app, "GET", "/ok", "")
	assert.Equal(t, fiber.StatusOK, resp.Status)
	assert.Equal(t, "disabled", resp.JSON(t)["cache"])

	resp = do(t, app, "GET", "/bad", "")
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.Status)
	assert.Equal(t, "degraded", resp.JSON(t)["status"])
}
