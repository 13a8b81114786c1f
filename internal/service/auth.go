// Package service contains the business logic layer of the application.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (Business layer) → validates, enforces rules, orchestrates
//	Repository (Data layer)  → reads/writes the database
//
// Services accept primitives and domain structs, never *http.Request, and
// return domain errors (apperror), never status codes. Handlers translate
// both directions. Every service takes its repositories as interfaces so
// tests can substitute in-memory fakes.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/workmates/internal/apperror"
	"github.com/sakif/workmates/internal/auth"
	"github.com/sakif/workmates/internal/model"
	"github.com/sakif/workmates/internal/repository"
)

// Validation constants shared across account operations.
const (
	MaxEmailLength = 254 // RFC 5321 path limit
	MaxNameLength  = 100
	MaxFieldLength = 500 // free-text profile fields (skill, goal, links, ...)
)

// AuthService handles accounts: joining, identity resolution, profile
// updates, and account deletion (the full cascade).
type AuthService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger
}

// NewAuthService creates an AuthService with all required dependencies.
func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
	}
}

// AuthResult bundles the user record and the issued JWT so the handler can
// set the cookie and respond in one step.
type AuthResult struct {
	User  *model.User
	Token string
}

// JoinInput is a manual (email) registration request.
type JoinInput struct {
	Email       string
	Name        string
	Password    string // optional; "" means the account has no password
	AvatarURL   string
	Skill       string
	Company     string
	MBTI        string
	Goal        string
	SocialLinks string
}

// Join creates an account from email + profile fields.
//
// Email and name are required; a duplicate email is a conflict and leaves
// the existing account untouched (the UNIQUE constraint guarantees that even
// under concurrent joins). If a password is supplied it's bcrypt-hashed and
// /auth/check will require it from then on.
func (s *AuthService) Join(ctx context.Context, in JoinInput) (*AuthResult, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	name := strings.TrimSpace(in.Name)

	if email == "" {
		return nil, apperror.ValidationFailed("email", "email is required")
	}
	if len(email) > MaxEmailLength || !strings.Contains(email, "@") {
		return nil, apperror.ValidationFailed("email", "email is not valid")
	}
	if name == "" {
		return nil, apperror.ValidationFailed("name", "name is required")
	}
	if len(name) > MaxNameLength {
		return nil, apperror.ValidationFailed("name",
			fmt.Sprintf("name must be %d characters or less", MaxNameLength))
	}
	if err := validateProfileFields(in.Skill, in.Company, in.MBTI, in.Goal, in.SocialLinks); err != nil {
		return nil, err
	}

	var hash string
	if in.Password != "" {
		var err error
		if hash, err = s.passwords.Hash(in.Password); err != nil {
			return nil, apperror.ValidationFailed("password", err.Error())
		}
	}

	user := &model.User{
		Email:        email,
		Name:         name,
		AvatarURL:    strings.TrimSpace(in.AvatarURL),
		Skill:        strings.TrimSpace(in.Skill),
		Company:      strings.TrimSpace(in.Company),
		MBTI:         strings.TrimSpace(in.MBTI),
		Goal:         strings.TrimSpace(in.Goal),
		SocialLinks:  strings.TrimSpace(in.SocialLinks),
		PasswordHash: hash,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("service/auth: creating user (email=%s): %w", email, err)
	}

	s.logger.Info("user joined",
		slog.String("userID", user.ID),
		slog.String("email", user.Email),
	)

	return s.issueFor(user)
}

// CheckInput identifies an existing account: either an email (plus the
// password, if the account set one) or a provider identity.
type CheckInput struct {
	Email      string
	Provider   string // "github" / "google", paired with ProviderID
	ProviderID string
	Password   string
}

// Check resolves an existing account and issues a credential for it.
// Reports absence as NotFound — the client uses that to fall through to the
// join screen.
func (s *AuthService) Check(ctx context.Context, in CheckInput) (*AuthResult, error) {
	var (
		user *model.User
		err  error
	)

	switch {
	case in.ProviderID != "":
		user, err = s.users.GetByProviderID(ctx, in.Provider, in.ProviderID)
	case in.Email != "":
		user, err = s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(in.Email)))
	default:
		return nil, apperror.ValidationFailed("email", "email or provider identity is required")
	}
	if err != nil {
		return nil, err
	}

	// Accounts that set a password must present it. OAuth-only and
	// passwordless accounts skip this.
	if user.PasswordHash != "" {
		if err := s.passwords.Verify(user.PasswordHash, in.Password); err != nil {
			return nil, apperror.Unauthorized("invalid credentials")
		}
	}

	if err := s.users.UpdateLastLogin(ctx, user.ID); err != nil {
		// Best effort — a failed login stamp shouldn't block the login.
		s.logger.Warn("failed to stamp last login",
			slog.String("userID", user.ID),
			slog.String("error", err.Error()),
		)
	}

	return s.issueFor(user)
}

// ResolveOAuth merges an incoming OAuth profile into exactly one account.
//
// Resolution order (this is what prevents duplicate identities across login
// methods):
//
//  1. Provider-ID match → that account, stamp lastLoginAt. Terminal.
//  2. Email match → attach the provider identity to the existing account
//     (one person, one account, multiple login methods).
//  3. No match → create a fresh account from the profile.
func (s *AuthService) ResolveOAuth(ctx context.Context, profile *auth.Profile) (*AuthResult, error) {
	if profile == nil {
		return nil, fmt.Errorf("service/auth: OAuth profile must not be nil")
	}

	// Step 1: provider identity already known?
	user, err := s.users.GetByProviderID(ctx, profile.Provider, profile.ID)
	if err == nil {
		if err := s.users.UpdateLastLogin(ctx, user.ID); err != nil {
			s.logger.Warn("failed to stamp last login",
				slog.String("userID", user.ID),
				slog.String("error", err.Error()),
			)
		}
		s.logger.Info("user authenticated via OAuth",
			slog.String("userID", user.ID),
			slog.String("provider", profile.Provider),
		)
		return s.issueFor(user)
	}
	if !errors.Is(err, apperror.ErrNotFound) {
		return nil, fmt.Errorf("service/auth: resolving %s identity: %w", profile.Provider, err)
	}

	// Step 2: same email registered another way?
	email := strings.ToLower(strings.TrimSpace(profile.Email))
	if email != "" {
		existing, err := s.users.GetByEmail(ctx, email)
		if err == nil {
			if err := s.users.AttachProvider(ctx, existing.ID, profile.Provider, profile.ID, profile.AvatarURL); err != nil {
				return nil, fmt.Errorf("service/auth: attaching %s identity: %w", profile.Provider, err)
			}
			s.logger.Info("provider identity attached to existing account",
				slog.String("userID", existing.ID),
				slog.String("provider", profile.Provider),
			)
			// Re-read so the result carries the attached identity and avatar.
			user, err := s.users.GetByID(ctx, existing.ID)
			if err != nil {
				return nil, fmt.Errorf("service/auth: reloading user %s: %w", existing.ID, err)
			}
			return s.issueFor(user)
		}
		if !errors.Is(err, apperror.ErrNotFound) {
			return nil, fmt.Errorf("service/auth: resolving email %s: %w", email, err)
		}
	} else {
		// We key accounts by email, so a provider profile that hides it
		// can't be auto-registered. The user has to expose an email with
		// the provider or join manually first.
		return nil, apperror.ValidationFailed("email",
			"your "+profile.Provider+" account has no public email; join with an email first")
	}

	// Step 3: genuinely new — create the account.
	user = &model.User{
		Email:     email,
		Name:      strings.TrimSpace(profile.Name),
		AvatarURL: profile.AvatarURL,
	}
	switch profile.Provider {
	case "github":
		user.GitHubID = profile.ID
	case "google":
		user.GoogleID = profile.ID
	default:
		return nil, fmt.Errorf("service/auth: unknown OAuth provider %q", profile.Provider)
	}
	if user.Name == "" {
		user.Name = email
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("service/auth: creating user from %s profile: %w", profile.Provider, err)
	}

	s.logger.Info("user registered via OAuth",
		slog.String("userID", user.ID),
		slog.String("provider", profile.Provider),
	)

	return s.issueFor(user)
}

// GetUserByID returns the user for the given internal ID. Used by /auth/me
// after the middleware resolves the token.
func (s *AuthService) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	if id == "" {
		return nil, apperror.ValidationFailed("id", "user ID is required")
	}
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service/auth: fetching user %s: %w", id, err)
	}
	return user, nil
}

// UpdateProfile applies a partial update to the caller's own profile.
// Nil fields are left untouched; provided fields are validated and trimmed.
func (s *AuthService) UpdateProfile(ctx context.Context, id string, upd repository.UserUpdate) (*model.User, error) {
	if id == "" {
		return nil, apperror.ValidationFailed("id", "user ID is required")
	}

	trim := func(p *string) *string {
		if p == nil {
			return nil
		}
		v := strings.TrimSpace(*p)
		return &v
	}
	upd.Name = trim(upd.Name)
	upd.AvatarURL = trim(upd.AvatarURL)
	upd.Skill = trim(upd.Skill)
	upd.Company = trim(upd.Company)
	upd.MBTI = trim(upd.MBTI)
	upd.Goal = trim(upd.Goal)
	upd.SocialLinks = trim(upd.SocialLinks)

	if upd.Name != nil {
		if *upd.Name == "" {
			return nil, apperror.ValidationFailed("name", "name must not be empty")
		}
		if len(*upd.Name) > MaxNameLength {
			return nil, apperror.ValidationFailed("name",
				fmt.Sprintf("name must be %d characters or less", MaxNameLength))
		}
	}
	for field, val := range map[string]*string{
		"skill": upd.Skill, "company": upd.Company, "mbti": upd.MBTI,
		"goal": upd.Goal, "socialLinks": upd.SocialLinks, "avatarUrl": upd.AvatarURL,
	} {
		if val != nil && len(*val) > MaxFieldLength {
			return nil, apperror.ValidationFailed(field,
				fmt.Sprintf("%s must be %d characters or less", field, MaxFieldLength))
		}
	}

	user, err := s.users.Update(ctx, id, upd)
	if err != nil {
		return nil, fmt.Errorf("service/auth: updating user %s: %w", id, err)
	}

	s.logger.Info("profile updated", slog.String("userID", id))
	return user, nil
}

// DeleteAccount removes the user and all their dependent records: work
// places, like edges in both directions (with counterpart counters
// corrected), and messages. The repository runs the whole cascade in one
// transaction, so a mid-cascade failure leaves everything in place rather
// than a user row with dangling references.
func (s *AuthService) DeleteAccount(ctx context.Context, id string) error {
	if id == "" {
		return apperror.ValidationFailed("id", "user ID is required")
	}

	if err := s.users.DeleteCascade(ctx, id); err != nil {
		return fmt.Errorf("service/auth: deleting account %s: %w", id, err)
	}

	s.logger.Info("account deleted", slog.String("userID", id))
	return nil
}

func (s *AuthService) issueFor(user *model.User) (*AuthResult, error) {
	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for user %s: %w", user.ID, err)
	}
	return &AuthResult{User: user, Token: token}, nil
}

func validateProfileFields(fields ...string) error {
	names := []string{"skill", "company", "mbti", "goal", "socialLinks"}
	for i, f := range fields {
		if len(f) > MaxFieldLength {
			return apperror.ValidationFailed(names[i],
				fmt.Sprintf("%s must be %d characters or less", names[i], MaxFieldLength))
		}
	}
	return nil
}
