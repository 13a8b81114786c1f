package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
	"golang.org/x/oauth2/google"
)

// Profile is the provider-independent slice of an OAuth identity the rest of
// the app consumes. Whatever else GitHub or Google return about a user, only
// these fields ever cross this package's boundary.
type Profile struct {
	Provider  string // "github" or "google"
	ID        string // provider's stable user ID
	Email     string // may be empty if the user hides it
	Name      string
	AvatarURL string
}

// OAuthProvider is the capability set a social-login provider must offer:
// produce an authorization URL, then trade the callback code for a Profile.
//
// Each configured provider gets one implementation; the server registers
// implementations in a map keyed by name at startup, only for providers whose
// credentials are actually present. Unconfigured providers simply don't
// exist as routes.
type OAuthProvider interface {
	// AuthURL returns the provider page to redirect the user to. state is a
	// random value echoed back on callback for CSRF verification.
	AuthURL(state string) string

	// Exchange completes the flow: trades the authorization code for an
	// access token (server-to-server, using the client secret) and fetches
	// the user's profile with it.
	Exchange(ctx context.Context, code string) (*Profile, error)
}

// ---------------------------------------------------------------------------
// GitHub
// ---------------------------------------------------------------------------

// githubUser is the portion of the GitHub /user API response we care about.
// GitHub returns a much larger object — we only unmarshal what we need.
type githubUser struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatar_url"`
}

// GitHubProvider wraps golang.org/x/oauth2 for the GitHub Authorization Code
// flow. Register an OAuth App at github.com/settings/developers; the
// callback URL must match the registered one exactly.
type GitHubProvider struct {
	config *oauth2.Config
}

var _ OAuthProvider = (*GitHubProvider)(nil)

// NewGitHubProvider creates a GitHubProvider with the given credentials.
//
// Scopes:
//   - "read:user"  — public profile (ID, login, avatar)
//   - "user:email" — the user's email addresses
func NewGitHubProvider(clientID, clientSecret, callbackURL string) *GitHubProvider {
	return &GitHubProvider{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  callbackURL,
			Scopes:       []string{"read:user", "user:email"},
			Endpoint:     github.Endpoint,
		},
	}
}

func (p *GitHubProvider) AuthURL(state string) string {
	return p.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

func (p *GitHubProvider) Exchange(ctx context.Context, code string) (*Profile, error) {
	oauthToken, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("auth: exchanging GitHub OAuth code: %w", err)
	}

	// oauth2.Config.Client returns an *http.Client that adds the
	// "Authorization: Bearer <token>" header to every request.
	client := p.config.Client(ctx, oauthToken)

	resp, err := client.Get("https://api.github.com/user")
	if err != nil {
		return nil, fmt.Errorf("auth: calling GitHub /user API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("auth: GitHub /user API returned status %d", resp.StatusCode)
	}

	var gh githubUser
	if err := json.NewDecoder(resp.Body).Decode(&gh); err != nil {
		return nil, fmt.Errorf("auth: decoding GitHub /user response: %w", err)
	}
	if gh.ID == 0 {
		return nil, fmt.Errorf("auth: GitHub returned an invalid user (ID = 0)")
	}

	// Some GitHub accounts have no display name set; fall back to the login.
	name := gh.Name
	if name == "" {
		name = gh.Login
	}

	return &Profile{
		Provider:  "github",
		ID:        strconv.FormatInt(gh.ID, 10),
		Email:     gh.Email,
		Name:      name,
		AvatarURL: gh.AvatarURL,
	}, nil
}

// ---------------------------------------------------------------------------
// Google
// ---------------------------------------------------------------------------

// googleUser is the slice of Google's OpenID userinfo response we consume.
// "sub" is Google's stable subject identifier — never reuse email as the key,
// emails can change or be recycled.
type googleUser struct {
	Sub     string `json:"sub"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

// GoogleProvider wraps golang.org/x/oauth2 for Google sign-in.
type GoogleProvider struct {
	config *oauth2.Config
}

var _ OAuthProvider = (*GoogleProvider)(nil)

// NewGoogleProvider creates a GoogleProvider. Credentials come from a
// "Web application" OAuth client in the Google Cloud console.
func NewGoogleProvider(clientID, clientSecret, callbackURL string) *GoogleProvider {
	return &GoogleProvider{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  callbackURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		},
	}
}

func (p *GoogleProvider) AuthURL(state string) string {
	return p.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

func (p *GoogleProvider) Exchange(ctx context.Context, code string) (*Profile, error) {
	oauthToken, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("auth: exchanging Google OAuth code: %w", err)
	}

	client := p.config.Client(ctx, oauthToken)

	resp, err := client.Get("https://openidconnect.googleapis.com/v1/userinfo")
	if err != nil {
		return nil, fmt.Errorf("auth: calling Google userinfo API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("auth: Google userinfo API returned status %d", resp.StatusCode)
	}

	var gu googleUser
	if err := json.NewDecoder(resp.Body).Decode(&gu); err != nil {
		return nil, fmt.Errorf("auth: decoding Google userinfo response: %w", err)
	}
	if gu.Sub == "" {
		return nil, fmt.Errorf("auth: Google returned an invalid user (empty sub)")
	}

	return &Profile{
		Provider:  "google",
		ID:        gu.Sub,
		Email:     gu.Email,
		Name:      gu.Name,
		AvatarURL: gu.Picture,
	}, nil
}
