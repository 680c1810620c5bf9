package web

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"switchdeck/internal/models"
	"switchdeck/internal/session"
)

const sessionCookie = "session"

// RequireSession resolves the session cookie to a profile and stores it in
// Locals("profile"). Unauthenticated requests are redirected to /login. A
// session whose profile row is gone is signed out on the spot.
func (s *Server) RequireSession() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Cookies(sessionCookie)
		profile, state, err := s.Guard.Resolve(c.Context(), token)
		switch state {
		case session.Authenticated:
			c.Locals("profile", profile)
			return c.Next()
		case session.ProfileMissing:
			clearSessionCookie(c)
			flashError(c, "Your account profile no longer exists. You have been signed out.")
			return c.Redirect("/login")
		default:
			if err != nil {
				flashError(c, "Could not verify your session. Please sign in again.")
			}
			return c.Redirect("/login")
		}
	}
}

// RedirectIfAuthenticated sends already signed-in users away from /login.
func (s *Server) RedirectIfAuthenticated() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Cookies(sessionCookie)
		if token != "" {
			if _, state, _ := s.Guard.Resolve(c.Context(), token); state == session.Authenticated {
				return c.Redirect("/")
			}
		}
		return c.Next()
	}
}

// currentProfile returns the profile stashed by RequireSession.
func currentProfile(c *fiber.Ctx) *models.UserProfile {
	profile, _ := c.Locals("profile").(*models.UserProfile)
	return profile
}

func setSessionCookie(c *fiber.Ctx, token string, ttl time.Duration) {
	c.Cookie(&fiber.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Expires:  time.Now().Add(ttl),
		HTTPOnly: true,
		SameSite: "Lax",
	})
}

func clearSessionCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
		SameSite: "Lax",
	})
}
