package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/sakif/workmates/internal/auth"
	sqliteRepo "github.com/sakif/workmates/internal/repository/sqlite"
	"github.com/sakif/workmates/internal/service"
)

// ============================================================================
// TEST HARNESS
// ============================================================================
// Handler tests run the real route tree against a real in-memory database —
// the same wiring as production minus OAuth providers and request logging.
// Each test server is fully isolated; nothing is shared between tests.

type testServer struct {
	router *chi.Mux
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	db, err := sqliteRepo.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tokens, err := auth.NewTokenService("test-secret-for-unit-tests-only!")
	require.NoError(t, err)
	cookies := auth.Cookies{}
	passwords := auth.NewPasswordServiceForTest(bcrypt.MinCost)

	authSvc := service.NewAuthService(db.Users(), tokens, passwords, logger)
	socialSvc := service.NewSocialService(db.Likes(), db.Users(), logger)
	messageSvc := service.NewMessageService(db.Messages(), db.Users(), logger)
	placeSvc := service.NewPlaceService(db.Places(), logger)

	authHandler := NewAuthHandler(authSvc, socialSvc, map[string]auth.OAuthProvider{}, cookies, logger)
	messageHandler := NewMessageHandler(messageSvc, logger)
	placeHandler := NewPlaceHandler(placeSvc, logger)

	requireAuth := auth.RequireAuth(tokens, cookies)
	optionalAuth := auth.OptionalAuth(tokens, cookies)

	router := chi.NewRouter()
	router.Route("/auth", func(r chi.Router) {
		r.Post("/join", authHandler.HandleJoin)
		r.Post("/check", authHandler.HandleCheck)
		r.Post("/logout", authHandler.HandleLogout)
		r.Get("/{provider}/login", authHandler.HandleOAuthLogin)
		r.Get("/{provider}/callback", authHandler.HandleOAuthCallback)
		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/me", authHandler.HandleMe)
			r.Put("/update", authHandler.HandleUpdate)
			r.Delete("/delete", authHandler.HandleDelete)
			r.Post("/like/{targetUserId}", authHandler.HandleLike)
			r.Delete("/unlike/{targetUserId}", authHandler.HandleUnlike)
			r.Get("/liked-users", authHandler.HandleLikedUsers)
			r.Get("/liked-by-users", authHandler.HandleLikedByUsers)
		})
	})
	router.Route("/message", func(r chi.Router) {
		r.Use(requireAuth)
		r.Post("/send", messageHandler.HandleSend)
		r.Get("/received", messageHandler.HandleReceived)
		r.Get("/sent", messageHandler.HandleSent)
		r.Get("/{id}", messageHandler.HandleGetByID)
		r.Patch("/{id}/read", messageHandler.HandleMarkRead)
	})
	router.Route("/workplace", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(optionalAuth)
			r.Get("/all", placeHandler.HandleListAll)
			r.Get("/nearby", placeHandler.HandleNearby)
		})
		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Post("/", placeHandler.HandleCreate)
			r.Get("/", placeHandler.HandleListOwn)
			r.Delete("/{id}", placeHandler.HandleDelete)
			r.Post("/{id}/notes", placeHandler.HandleAddNote)
		})
	})

	return &testServer{router: router}
}

// do performs one request. body (if non-nil) is JSON-encoded; session (if
// non-nil) rides along as the auth cookie.
func (ts *testServer) do(t *testing.T, method, path string, body any, session *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(buf)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if session != nil {
		req.AddCookie(session)
	}

	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

// join registers a user and returns their session cookie plus the decoded
// user body.
func (ts *testServer) join(t *testing.T, email, name string) (*http.Cookie, map[string]any) {
	t.Helper()

	rec := ts.do(t, http.MethodPost, "/auth/join", map[string]any{
		"email": email,
		"name":  name,
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code, "join should succeed: %s", rec.Body.String())

	var user map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &user))

	for _, c := range rec.Result().Cookies() {
		if c.Name == auth.CookieName {
			return c, user
		}
	}
	t.Fatal("join response carried no session cookie")
	return nil, nil
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func decodeList(t *testing.T, rec *httptest.ResponseRecorder) []any {
	t.Helper()

	var out []any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}
