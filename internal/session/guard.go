// Package session is the identity guard: it signs users in against stored
// bcrypt hashes, issues session tokens and resolves each request's token
// back to a profile. A valid token whose profile row has vanished is an
// error state and forces sign-out; protected views never see a session
// without a profile.
package session

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"switchdeck/internal/gateway"
	"switchdeck/internal/logging"
	"switchdeck/internal/models"
)

// State is the guard's view of a request or sign-in attempt.
type State int

const (
	Unauthenticated State = iota
	AuthenticatingInitial
	Authenticated
	ProfileMissing
)

// Auth failures. The messages deliberately carry the provider-style
// substrings that FriendlyMessage inspects.
var (
	ErrInvalidCredentials = errors.New("Invalid login credentials")
	ErrEmailNotConfirmed  = errors.New("Email not confirmed")
	ErrUserNotFound       = errors.New("User not found")
	ErrProfileMissing     = errors.New("profile not found for session")
)

// Guard resolves sessions to profiles and gates access on them.
type Guard struct {
	store  gateway.Store
	tokens *TokenManager
}

func NewGuard(store gateway.Store, tokens *TokenManager) *Guard {
	return &Guard{store: store, tokens: tokens}
}

// SignIn checks the credentials and returns a session token plus the
// resolved profile.
func (g *Guard) SignIn(ctx context.Context, email, password string) (string, *models.UserProfile, error) {
	profile, err := g.store.ProfileByEmail(ctx, email)
	if errors.Is(err, gateway.ErrNotFound) {
		return "", nil, ErrUserNotFound
	}
	if err != nil {
		return "", nil, err
	}
	if !profile.Confirmed {
		return "", nil, ErrEmailNotConfirmed
	}
	if bcrypt.CompareHashAndPassword([]byte(profile.PasswordHash), []byte(password)) != nil {
		return "", nil, ErrInvalidCredentials
	}

	token, err := g.tokens.Issue(profile.ID)
	if err != nil {
		return "", nil, err
	}
	logging.Logger.WithField("email", email).Info("user signed in")
	return token, profile, nil
}

// Resolve maps a session token to its profile. An invalid or empty token
// yields Unauthenticated; a valid token with no profile row yields
// ProfileMissing, which callers must treat as forced sign-out.
func (g *Guard) Resolve(ctx context.Context, token string) (*models.UserProfile, State, error) {
	userID, err := g.tokens.Verify(token)
	if err != nil {
		return nil, Unauthenticated, nil
	}
	profile, err := g.store.ProfileByID(ctx, userID)
	if errors.Is(err, gateway.ErrNotFound) {
		logging.Logger.WithField("user_id", userID).Warn("session has no profile row, forcing sign-out")
		return nil, ProfileMissing, ErrProfileMissing
	}
	if err != nil {
		return nil, Unauthenticated, err
	}
	return profile, Authenticated, nil
}

// FriendlyMessage maps an auth failure to the text shown on the login
// page. Messages are matched by substring, mirroring how the identity
// provider's errors are inspected.
func FriendlyMessage(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "Invalid login credentials"):
		return "Invalid credentials. Check your email and password."
	case strings.Contains(msg, "Email not confirmed"):
		return "Email not confirmed. Please check your inbox."
	case strings.Contains(msg, "User not found") || strings.Contains(msg, "No user found"):
		return "User not found. Check the email you entered."
	default:
		return "Sign-in failed. Check your credentials."
	}
}

// HashPassword produces the bcrypt hash stored on profiles.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
