package api

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/jackc/pgx/v5/pgxpool"

	swagger "github.com/go-swagno/swagno-fiber/swagger"
	"github.com/punchcardlabs/punchcard/internal/api/docs"
	"github.com/punchcardlabs/punchcard/internal/api/handler"
	"github.com/punchcardlabs/punchcard/internal/api/middleware"
	"github.com/punchcardlabs/punchcard/internal/attendance"
	"github.com/punchcardlabs/punchcard/internal/cache"
	"github.com/punchcardlabs/punchcard/internal/liveness"
	"github.com/punchcardlabs/punchcard/internal/recognizer"
	"github.com/punchcardlabs/punchcard/internal/repository"
	"github.com/punchcardlabs/punchcard/internal/service"
)

type Dependencies struct {
	IdentityRepo *repository.IdentityRepository
	SampleRepo   *repository.SampleRepository
	PunchRepo    *repository.PunchRepository
	AttemptRepo  *repository.AttemptRepository
	Matcher      *recognizer.Recognizer
	Liveness     *liveness.Checker
	Location     *time.Location
	Cooldown     time.Duration
	MinSamples   int
	DB           *pgxpool.Pool
}

type Router struct {
	app    *fiber.App
	logger *slog.Logger
	deps   *Dependencies
}

func NewRouter(logger *slog.Logger, deps *Dependencies) *Router {
	app := fiber.New(fiber.Config{
		ErrorHandler: middleware.ErrorHandler(logger),
		AppName:      "Punchcard API",
		BodyLimit:    64 * 1024 * 1024, // enrollment uploads carry many frames
	})

	return &Router{
		app:    app,
		logger: logger,
		deps:   deps,
	}
}

func (r *Router) Setup() {
	// Global middlewares
	r.app.Use(requestid.New())
	r.app.Use(middleware.Recover(r.logger))
	r.app.Use(middleware.Logger(r.logger))
	r.app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept",
	}))

	// Swagger documentation
	sw := docs.NewSwagger()
	swagger.SwaggerHandler(r.app, sw.MustToJson())

	// Only configure routes if dependencies were provided
	if r.deps == nil {
		return
	}

	// Attendance state machine over the punch event log
	machine := attendance.NewMachine(r.deps.PunchRepo, nil, r.deps.Cooldown, r.deps.Location)
	statusCache := cache.NewStatusCache()

	attendService := service.NewAttendService(
		r.deps.IdentityRepo,
		r.deps.PunchRepo,
		r.deps.AttemptRepo,
		r.deps.Matcher,
		r.deps.Liveness,
		machine,
		statusCache,
		r.deps.Location,
	)
	enrollService := service.NewEnrollService(
		r.deps.IdentityRepo,
		r.deps.SampleRepo,
		r.deps.Matcher,
		r.deps.MinSamples,
	)

	// Health check endpoints
	healthHandler := handler.NewHealthHandler(r.deps.DB, r.deps.Matcher)
	r.app.Get("/health", healthHandler.Health)
	r.app.Get("/ready", healthHandler.Ready)

	punchHandler := handler.NewPunchHandler(attendService, r.deps.Location, r.logger)
	identityHandler := handler.NewIdentityHandler(enrollService, r.logger)

	v1 := r.app.Group("/v1")

	// Punch decision
	v1.Post("/punch", punchHandler.Punch)

	// Identity management
	v1.Post("/identities", identityHandler.Register)
	v1.Get("/identities", identityHandler.List)
	v1.Post("/identities/:name/enroll", identityHandler.Enroll)

	// Derived views
	v1.Get("/identities/:name/status", punchHandler.Status)
	v1.Get("/identities/:name/history", punchHandler.History)
}

func (r *Router) App() *fiber.App {
	return r.app
}

func (r *Router) Listen(addr string) error {
	return r.app.Listen(addr)
}

func (r *Router) Shutdown() error {
	return r.app.Shutdown()
}
