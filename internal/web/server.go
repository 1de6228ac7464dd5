// Package web serves the task-list tracker over HTTP with fiber.
package web

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"beefsteak/internal/identity"
	"beefsteak/internal/service"
)

// Services are the operations the routes call into.
type Services struct {
	Tasks    *service.TaskService
	Stats    *service.StatsService
	Groups   *service.GroupService
	Accounts *service.AccountService
}

// Server owns the fiber app and its routes.
type Server struct {
	app      *fiber.App
	verifier *identity.Verifier
	tasks    *service.TaskService
	stats    *service.StatsService
	groups   *service.GroupService
	accounts *service.AccountService
	now      func() time.Time
}

// New builds the app. /metrics is served only when gatherer is not nil.
func New(verifier *identity.Verifier, svc Services, gatherer prometheus.Gatherer) *Server {
	s := &Server{
		verifier: verifier,
		tasks:    svc.Tasks,
		stats:    svc.Stats,
		groups:   svc.Groups,
		accounts: svc.Accounts,
		now:      time.Now,
	}

	s.app = fiber.New(fiber.Config{
		AppName:               "beefsteak",
		DisableStartupMessage: true,
		ErrorHandler:          s.errorHandler,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
	})

	s.app.Use(recover.New())
	s.app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	s.app.Use(logger.New(logger.Config{
		Format: "[${time}] ${locals:requestid} ${status} ${method} ${path} ${latency}\n",
	}))
	if gatherer != nil {
		s.app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}
	s.app.Use(s.identify)

	s.routes()
	return s
}

func (s *Server) routes() {
	app := s.app

	app.Get("/", s.home)
	app.Post("/tasklist/list", s.submitList)
	app.Get("/new", s.restart)

	app.Get("/register", static("signup"))
	app.Post("/register", s.register)
	app.Get("/login", static("login"))
	app.Post("/login", s.login)
	app.Get("/logout", s.logout)

	groups := app.Group("/groups", requireLogin)
	groups.Get("/", s.groupPage)
	groups.Get("/join", static("groups-join"))
	groups.Post("/join", s.joinGroup)
	groups.Get("/new", static("groups-new"))
	groups.Post("/new", s.createGroup)

	app.Get("/inprogress", s.inProgress)
	app.Put("/inprogress/task/:taskID/edit", s.completeTask)
	app.Post("/inprogress/task/:taskID/edit", overridden(fiber.MethodPut, s.completeTask))

	app.Post("/failed/list/:listID", s.failList)
	app.Post("/complete/list/:listID", s.completeList)
	app.Get("/complete/list/:listID", s.listSummary)
	app.Delete("/complete/list/:listID/delete", requireLogin, s.deleteList)
	app.Post("/complete/list/:listID/delete", requireLogin, overridden(fiber.MethodDelete, s.deleteList))
	app.Get("/complete/last", s.lastResult)

	app.Get("/profile", requireLogin, s.ownProfile)
	app.Get("/profile/view/:userID", s.profile)
	app.Get("/profile/view/:userID/stats/daily", s.dailyStats)
}

// App exposes the fiber app, mainly for app.Test.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen serves on addr until Shutdown.
func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

// Shutdown stops accepting requests and waits for in-flight ones within ctx.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}
