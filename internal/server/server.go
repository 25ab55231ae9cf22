package server

import (
	"errors"
	"strings"

	"visionx-backend/internal/activity"
	"visionx-backend/internal/admin"
	"visionx-backend/internal/appointment"
	"visionx-backend/internal/auth"
	"visionx-backend/internal/cart"
	"visionx-backend/internal/config"
	"visionx-backend/internal/customer"
	"visionx-backend/internal/dashboard"
	"visionx-backend/internal/eyetest"
	"visionx-backend/internal/inventory"
	"visionx-backend/internal/metrics"
	"visionx-backend/internal/notification"
	"visionx-backend/internal/prescription"
	"visionx-backend/internal/vision"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Deps struct {
	Config  *config.Config
	DB      *gorm.DB
	Log     *zap.Logger
	Metrics *metrics.Metrics
	// Analyzer may be nil; the analyze route then answers 503.
	Analyzer vision.Analyzer
}

func errorHandler(log *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return c.Status(fe.Code).JSON(fiber.Map{"error": fe.Message})
		}
		log.Error("unexpected error",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Any("request_id", c.Locals(requestIDKey)),
			zap.Error(err),
		)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal server error"})
	}
}

func New(d Deps) *fiber.App {
	cfg := d.Config
	log := d.Log
	if log == nil {
		log = zap.NewNop()
	}
	m := d.Metrics
	if m == nil {
		m = metrics.New()
	}
	analyzer := vision.Instrument(d.Analyzer, m.RecordAnalysis)

	app := fiber.New(fiber.Config{
		AppName:               "visionx",
		ErrorHandler:          errorHandler(log),
		DisableStartupMessage: true,
		BodyLimit:             12 << 20, // base64 images
	})

	app.Use(recover.New(recover.Config{EnableStackTrace: cfg.Server.AppEnv == "development"}))
	app.Use(requestid.New(requestid.Config{
		Generator:  uuid.NewString,
		ContextKey: requestIDKey,
	}))
	app.Use(requestLogger(log))
	app.Use(m.Middleware())

	corsOrigins := strings.Split(cfg.Server.CORSOrigins, ",")
	for i := range corsOrigins {
		corsOrigins[i] = strings.TrimSpace(corsOrigins[i])
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(corsOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PATCH,DELETE,OPTIONS",
	}))

	app.Get("/healthz", healthHandler(d.DB))
	app.Get("/metrics", m.Handler())

	db := d.DB
	issuer := auth.NewIssuer(db, cfg.Auth)
	limiter := auth.NewRateLimiter(cfg.Auth.LoginRPS, cfg.Auth.LoginBurst)
	authz := auth.NewAuthorizer(cfg.Auth.EnforceRoles, log)
	can := authz.Require
	statuses := appointment.NewStatusUpdater(db, cfg.Features.AppointmentTransitions)

	api := app.Group("/api")

	// Public auth
	api.Post("/auth/login", auth.RateLimit(limiter), auth.LoginHandler(db, issuer, log))
	api.Post("/auth/refresh", auth.RateLimit(limiter), auth.RefreshHandler(issuer, log))

	// Protected
	protected := api.Group("")
	protected.Use(auth.JWTMiddleware(cfg.Auth.JWTSecret))

	protected.Get("/auth/me", auth.MeHandler(db))
	protected.Post("/auth/logout", auth.LogoutHandler(issuer))

	protected.Get("/customers", can(auth.CapCustomersRead), customer.ListHandler(db, log))
	protected.Post("/customers", can(auth.CapCustomersWrite), customer.CreateHandler(db, log))
	protected.Post("/customers/test", can(auth.CapEyeTestsWrite), eyetest.CreateHandler(db, log))
	protected.Get("/customers/:id", can(auth.CapCustomersRead), customer.GetHandler(db))

	protected.Get("/inventory", can(auth.CapInventoryRead), inventory.ListHandler(db, log))
	protected.Post("/inventory", can(auth.CapInventoryWrite), inventory.CreateHandler(db, log))
	protected.Get("/inventory/:id", can(auth.CapInventoryRead), inventory.GetHandler(db))

	protected.Get("/appointments", can(auth.CapAppointmentsRead), appointment.ListHandler(db, log))
	protected.Post("/appointments", can(auth.CapAppointmentsWrite), appointment.CreateHandler(db, log))
	protected.Patch("/appointments/:id", can(auth.CapAppointmentsStatus), appointment.UpdateStatusHandler(db, statuses, log))

	protected.Get("/prescriptions", can(auth.CapPrescriptionsRead), prescription.ListHandler(db, log))
	protected.Post("/prescriptions", can(auth.CapPrescriptionsWrite), prescription.CreateHandler(db, log))

	protected.Get("/eye-tests", can(auth.CapEyeTestsRead), eyetest.ListHandler(db, log))
	protected.Post("/eye-tests/analyze", can(auth.CapEyeTestsAnalyze), eyetest.AnalyzeHandler(db, analyzer, vision.NewFetcher(cfg.Vision.Timeout), log))

	protected.Get("/cart", can(auth.CapCart), cart.ListHandler(db, log))
	protected.Post("/cart", can(auth.CapCart), cart.AddHandler(db, log))
	protected.Delete("/cart/:id", can(auth.CapCart), cart.RemoveHandler(db, log))

	protected.Get("/analytics", can(auth.CapAnalyticsRead), dashboard.AnalyticsHandler(db, log))
	protected.Get("/activity-logs", can(auth.CapActivityRead), activity.ListHandler(db, log))

	protected.Get("/notifications", can(auth.CapNotifications), notification.ListHandler(db, log))
	protected.Patch("/notifications/:id/read", can(auth.CapNotifications), notification.MarkReadHandler(db))

	adminRoutes := protected.Group("/admin", can(auth.CapBranchesManage))
	adminRoutes.Get("/branches", admin.ListBranchesHandler(db, log))
	adminRoutes.Post("/branches", admin.CreateBranchHandler(db, log))
	adminRoutes.Get("/branches/:id", admin.GetBranchHandler(db))

	return app
}
