package auth

import (
	"context"
	"net/http"
)

// CookieName is the HttpOnly cookie carrying the session JWT.
const CookieName = "token"

// contextKey is an unexported type used for context keys in this package.
// Using a package-private type prevents collisions: only this package can
// create a key of type contextKey, so only this package can read or write
// userID values in the context.
type contextKey string

const userIDKey contextKey = "userID"

// Cookies knows how to write and clear the session cookie with the right
// attributes for the deployment environment.
//
// DEV vs PROD:
// In development (Secure=false) the cookie is SameSite=Lax over plain HTTP.
// In production the frontend lives on a different origin, so the cookie must
// be SameSite=None — and browsers refuse SameSite=None without Secure, so
// both flip together.
type Cookies struct {
	Secure bool
}

// SetSession writes the session cookie. MaxAge matches the token's own
// 24-hour validity so the browser drops the cookie when the token inside it
// would be rejected anyway.
func (c Cookies) SetSession(w http.ResponseWriter, token string) {
	sameSite := http.SameSiteLaxMode
	if c.Secure {
		sameSite = http.SameSiteNoneMode
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(TokenTTL.Seconds()),
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: sameSite,
	})
}

// ClearSession deletes the session cookie (MaxAge=-1 tells the browser to
// drop it immediately). Used by logout and account deletion.
func (c Cookies) ClearSession(w http.ResponseWriter) {
	sameSite := http.SameSiteLaxMode
	if c.Secure {
		sameSite = http.SameSiteNoneMode
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: sameSite,
	})
}

// RequireAuth enforces authentication on protected routes.
//
// It reads the JWT from the session cookie, validates it, stores the userID
// in the request context, and — if the token is still inside the renewal
// window — sets a fresh cookie on the response (sliding expiry). A missing
// or invalid token stops the chain with 401.
func RequireAuth(tokens *TokenService, cookies Cookies) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, err := extractSession(r, tokens)
			if err != nil {
				// http.Error would stamp text/plain; the body is JSON, so
				// write the header ourselves.
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"error":"valid authentication required"}`))
				return
			}

			renew(w, sess, tokens, cookies)

			ctx := context.WithValue(r.Context(), userIDKey, sess.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuth extracts the identity if a valid token is present but never
// blocks the request. Validation failure (bad signature, expired, malformed)
// is non-fatal here — the caller is simply anonymous.
//
// Handlers check for the user via UserIDFromContext; ("", false) means
// the request is anonymous.
func OptionalAuth(tokens *TokenService, cookies Cookies) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if sess, err := extractSession(r, tokens); err == nil && sess.UserID != "" {
				renew(w, sess, tokens, cookies)
				r = r.WithContext(context.WithValue(r.Context(), userIDKey, sess.UserID))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// renew re-issues the session cookie when the token is young enough.
// A failed re-issue is swallowed: the current token is still valid, so the
// request must not fail just because the slide didn't happen.
func renew(w http.ResponseWriter, sess *Session, tokens *TokenService, cookies Cookies) {
	if !tokens.ShouldRenew(sess) {
		return
	}
	if fresh, err := tokens.Generate(sess.UserID); err == nil {
		cookies.SetSession(w, fresh)
	}
}

// UserIDFromContext retrieves the authenticated user's ID from the request
// context. Returns ("", false) for anonymous requests.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok && id != ""
}

// extractSession reads the JWT cookie and validates it.
// Shared by RequireAuth and OptionalAuth.
func extractSession(r *http.Request, tokens *TokenService) (*Session, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		// http.ErrNoCookie — not an error, just anonymous
		return nil, err
	}
	return tokens.Validate(cookie.Value)
}
