package web

import (
	"net/url"
	"time"

	"github.com/gofiber/fiber/v2"
)

// One-shot notification cookies, the server-side stand-in for toasts.
const (
	flashCookie    = "flash"
	flashErrCookie = "flash_err"
)

func flash(c *fiber.Ctx, msg string) {
	setFlashCookie(c, flashCookie, msg)
}

func flashError(c *fiber.Ctx, msg string) {
	setFlashCookie(c, flashErrCookie, msg)
}

func setFlashCookie(c *fiber.Ctx, name, msg string) {
	c.Cookie(&fiber.Cookie{
		Name:     name,
		Value:    url.QueryEscape(msg),
		Expires:  time.Now().Add(time.Minute),
		HTTPOnly: true,
		SameSite: "Lax",
	})
}

// popFlash reads and clears both flash cookies for a page render.
func popFlash(c *fiber.Ctx) (msg, errMsg string) {
	if v := c.Cookies(flashCookie); v != "" {
		msg, _ = url.QueryUnescape(v)
		expireFlashCookie(c, flashCookie)
	}
	if v := c.Cookies(flashErrCookie); v != "" {
		errMsg, _ = url.QueryUnescape(v)
		expireFlashCookie(c, flashErrCookie)
	}
	return msg, errMsg
}

func expireFlashCookie(c *fiber.Ctx, name string) {
	c.Cookie(&fiber.Cookie{
		Name:     name,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
		SameSite: "Lax",
	})
}
