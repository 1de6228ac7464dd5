package web

import (
	"errors"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"

	"beefsteak/internal/service"
	"beefsteak/internal/session"
)

const identityKey = "identity"

// identify resolves the caller from the identity cookies once per request.
func (s *Server) identify(c *fiber.Ctx) error {
	c.Locals(identityKey, session.ReadIdentity(jarOf(c), s.verifier))
	return c.Next()
}

func identityOf(c *fiber.Ctx) session.Identity {
	if who, ok := c.Locals(identityKey).(session.Identity); ok {
		return who
	}
	return session.Anonymous
}

// requireLogin stops anonymous callers before the handler runs.
func requireLogin(c *fiber.Ctx) error {
	if !identityOf(c).Authenticated {
		return service.ErrAuthenticationRequired
	}
	return c.Next()
}

// overridden serves a POST that carries _method=method (form field or query) with h.
// HTML forms cannot send PUT or DELETE themselves.
func overridden(method string, h fiber.Handler) fiber.Handler {
	return func(c *fiber.Ctx) error {
		requested := c.FormValue("_method")
		if requested == "" {
			requested = c.Query("_method")
		}
		if !strings.EqualFold(requested, method) {
			return fiber.ErrMethodNotAllowed
		}
		return h(c)
	}
}

// errorHandler renders every failure as the error view with a matching status.
func (s *Server) errorHandler(c *fiber.Ctx, err error) error {
	if errors.Is(err, service.ErrNotInGroup) {
		return c.Redirect("/groups/join")
	}

	code, message := statusOf(err)
	if code >= fiber.StatusInternalServerError {
		log.Printf("[warn] %s %s: %v", c.Method(), c.Path(), err)
	}
	return render(c.Status(code), "error", fiber.Map{"message": message})
}

func statusOf(err error) (int, string) {
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		return fe.Code, fe.Message
	case errors.Is(err, service.ErrInvalidCredentials):
		return fiber.StatusUnauthorized, "Invalid Username or Password."
	case errors.Is(err, service.ErrAuthenticationRequired):
		return fiber.StatusUnauthorized, "Please log in to continue."
	case errors.Is(err, service.ErrAuthorizationDenied):
		return fiber.StatusForbidden, "You are not allowed to change this list."
	case errors.Is(err, service.ErrNotFound):
		return fiber.StatusNotFound, "Not found."
	case errors.Is(err, service.ErrInvalidGroup):
		return fiber.StatusBadRequest, "Invalid group ID. Please try again."
	case errors.Is(err, service.ErrValidation):
		return fiber.StatusBadRequest, err.Error()
	case errors.Is(err, service.ErrInvalidTransition):
		return fiber.StatusConflict, "This task list is already finished."
	default:
		return fiber.StatusInternalServerError, "Something went wrong. Please try again later."
	}
}
