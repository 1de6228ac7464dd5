package web

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"beefsteak/internal/session"
)

// cookieJar adapts a fiber request to session.Jar.
type cookieJar struct {
	c *fiber.Ctx
}

func jarOf(c *fiber.Ctx) session.Jar {
	return cookieJar{c: c}
}

func (j cookieJar) Cookie(name string) string {
	return j.c.Cookies(name)
}

func (j cookieJar) SetCookie(name, value string) {
	j.c.Cookie(&fiber.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

func (j cookieJar) ClearCookie(name string) {
	j.c.Cookie(&fiber.Cookie{
		Name:     name,
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}
