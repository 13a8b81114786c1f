package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/rs/xid"
	"github.com/sakif/workmates/internal/auth"
	"github.com/sakif/workmates/internal/repository"
	"github.com/sakif/workmates/internal/service"
)

// AuthHandler serves the account routes: manual join/check, OAuth login,
// current-user lookup, profile update, account deletion, and the like graph
// (the like routes live under /auth because they operate on accounts, not on
// a separate resource).
type AuthHandler struct {
	authSvc   *service.AuthService
	socialSvc *service.SocialService
	providers map[string]auth.OAuthProvider // only configured providers are present
	cookies   auth.Cookies
	logger    *slog.Logger
}

// NewAuthHandler creates an AuthHandler. providers maps provider name
// ("github", "google") to its OAuth implementation; unconfigured providers
// are simply absent from the map and their routes 404 via lookup failure.
func NewAuthHandler(
	authSvc *service.AuthService,
	socialSvc *service.SocialService,
	providers map[string]auth.OAuthProvider,
	cookies auth.Cookies,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		authSvc:   authSvc,
		socialSvc: socialSvc,
		providers: providers,
		cookies:   cookies,
		logger:    logger,
	}
}

// joinRequest is the POST /auth/join body.
type joinRequest struct {
	Email       string `json:"email"`
	Name        string `json:"name"`
	Password    string `json:"password,omitempty"`
	AvatarURL   string `json:"avatarUrl"`
	Skill       string `json:"skill"`
	Company     string `json:"company"`
	MBTI        string `json:"mbti"`
	Goal        string `json:"goal"`
	SocialLinks string `json:"socialLinks"`
}

// HandleJoin creates an account from email + profile fields.
//
// HTTP: POST /auth/join
// 201 with the new user and a session cookie; 409 if the email is taken.
func (h *AuthHandler) HandleJoin(w http.ResponseWriter, r *http.Request) {
	var req joinRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	result, err := h.authSvc.Join(r.Context(), service.JoinInput{
		Email:       req.Email,
		Name:        req.Name,
		Password:    req.Password,
		AvatarURL:   req.AvatarURL,
		Skill:       req.Skill,
		Company:     req.Company,
		MBTI:        req.MBTI,
		Goal:        req.Goal,
		SocialLinks: req.SocialLinks,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	h.cookies.SetSession(w, result.Token)
	writeJSON(w, http.StatusCreated, result.User)
}

// checkRequest is the POST /auth/check body.
type checkRequest struct {
	Email      string `json:"email"`
	Provider   string `json:"provider"`
	ProviderID string `json:"providerId"`
	Password   string `json:"password,omitempty"`
}

// HandleCheck resolves an existing account by email or provider identity and
// issues a session cookie for it. 404 means "no such account — go join".
//
// HTTP: POST /auth/check
func (h *AuthHandler) HandleCheck(w http.ResponseWriter, r *http.Request) {
	var req checkRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	result, err := h.authSvc.Check(r.Context(), service.CheckInput{
		Email:      req.Email,
		Provider:   req.Provider,
		ProviderID: req.ProviderID,
		Password:   req.Password,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	h.cookies.SetSession(w, result.Token)
	writeJSON(w, http.StatusOK, result.User)
}

// HandleMe returns the authenticated user's own record (email and provider
// IDs included — it's their account).
//
// HTTP: GET /auth/me (RequireAuth)
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		// Shouldn't happen behind RequireAuth, but be safe.
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "valid authentication required"})
		return
	}

	user, err := h.authSvc.GetUserByID(r.Context(), userID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// updateRequest uses pointers so "field absent" and "field set to empty"
// stay distinguishable — absent fields are left untouched.
type updateRequest struct {
	Name        *string `json:"name"`
	AvatarURL   *string `json:"avatarUrl"`
	Skill       *string `json:"skill"`
	Company     *string `json:"company"`
	MBTI        *string `json:"mbti"`
	Goal        *string `json:"goal"`
	SocialLinks *string `json:"socialLinks"`
}

// HandleUpdate partially updates the caller's profile.
//
// HTTP: PUT /auth/update (RequireAuth)
func (h *AuthHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var req updateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	user, err := h.authSvc.UpdateProfile(r.Context(), userID, repository.UserUpdate{
		Name:        req.Name,
		AvatarURL:   req.AvatarURL,
		Skill:       req.Skill,
		Company:     req.Company,
		MBTI:        req.MBTI,
		Goal:        req.Goal,
		SocialLinks: req.SocialLinks,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// HandleDelete removes the caller's account with the full cascade (places,
// like edges, messages) and clears their session cookie.
//
// HTTP: DELETE /auth/delete (RequireAuth)
func (h *AuthHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	if err := h.authSvc.DeleteAccount(r.Context(), userID); err != nil {
		writeError(w, h.logger, err)
		return
	}

	h.cookies.ClearSession(w)
	writeJSON(w, http.StatusOK, map[string]string{"message": "account deleted"})
}

// HandleLogout clears the session cookie. The token stays technically valid
// until it expires, but without the cookie the browser can't send it.
//
// HTTP: POST /auth/logout
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	h.cookies.ClearSession(w)
	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// HandleLike creates a like edge toward the target user.
//
// HTTP: POST /auth/like/{targetUserId} (RequireAuth)
func (h *AuthHandler) HandleLike(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	targetID := r.PathValue("targetUserId")

	if err := h.socialSvc.Like(r.Context(), userID, targetID); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "liked"})
}

// HandleUnlike removes a like edge.
//
// HTTP: DELETE /auth/unlike/{targetUserId} (RequireAuth)
func (h *AuthHandler) HandleUnlike(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	targetID := r.PathValue("targetUserId")

	if err := h.socialSvc.Unlike(r.Context(), userID, targetID); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "unliked"})
}

// HandleLikedUsers lists who the caller has liked, newest edge first.
//
// HTTP: GET /auth/liked-users?page=&limit= (RequireAuth)
func (h *AuthHandler) HandleLikedUsers(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	page, limit := pageParams(r)

	result, err := h.socialSvc.LikedUsers(r.Context(), userID, page, limit)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// HandleLikedByUsers lists who liked the caller, newest edge first.
//
// HTTP: GET /auth/liked-by-users?page=&limit= (RequireAuth)
func (h *AuthHandler) HandleLikedByUsers(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	page, limit := pageParams(r)

	result, err := h.socialSvc.LikedByUsers(r.Context(), userID, page, limit)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// HandleOAuthLogin redirects the browser to the provider's authorization
// page, stashing a random state value in a short-lived cookie for the CSRF
// check on callback.
//
// HTTP: GET /auth/{provider}/login
func (h *AuthHandler) HandleOAuthLogin(w http.ResponseWriter, r *http.Request) {
	provider, ok := h.providers[r.PathValue("provider")]
	if !ok {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "unknown or unconfigured OAuth provider"})
		return
	}

	state := xid.New().String()
	http.SetCookie(w, &http.Cookie{
		Name:     "oauth_state",
		Value:    state,
		Path:     "/",
		MaxAge:   600, // 10 minutes — long enough to approve, short enough to limit replay
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, provider.AuthURL(state), http.StatusTemporaryRedirect)
}

// HandleOAuthCallback completes the OAuth flow: verifies the CSRF state,
// exchanges the code for a profile, resolves it to exactly one account
// (matching by provider ID, then email, then creating), and issues the
// session cookie.
//
// HTTP: GET /auth/{provider}/callback?code=xxx&state=yyy
func (h *AuthHandler) HandleOAuthCallback(w http.ResponseWriter, r *http.Request) {
	providerName := r.PathValue("provider")
	provider, ok := h.providers[providerName]
	if !ok {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "unknown or unconfigured OAuth provider"})
		return
	}

	// CSRF check: the state must round-trip through our cookie.
	stateCookie, err := r.Cookie("oauth_state")
	if err != nil || stateCookie.Value == "" || r.URL.Query().Get("state") != stateCookie.Value {
		h.logger.Warn("oauth callback: state mismatch", slog.String("provider", providerName))
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid OAuth state"})
		return
	}

	// State is single-use.
	http.SetCookie(w, &http.Cookie{Name: "oauth_state", Value: "", Path: "/", MaxAge: -1})

	// Did the user deny authorization on the provider page?
	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.logger.Info("oauth callback: authorization denied",
			slog.String("provider", providerName),
			slog.String("error", errParam),
		)
		http.Redirect(w, r, "/?auth=denied", http.StatusSeeOther)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "missing OAuth code"})
		return
	}

	profile, err := provider.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("oauth callback: exchange failed",
			slog.String("provider", providerName),
			slog.String("error", err.Error()),
		)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "authentication failed"})
		return
	}

	result, err := h.authSvc.ResolveOAuth(r.Context(), profile)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	h.cookies.SetSession(w, result.Token)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// pageParams reads ?page= and ?limit=, defaulting anything missing or
// malformed to zero — the service clamps to real values.
func pageParams(r *http.Request) (page, limit int) {
	page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	return page, limit
}
