package handlers

import (
	"context"
	"net/http"

	"room-passport/internal/common/apperror"
	"room-passport/internal/common/logging"
	"room-passport/internal/common/metrics"
	"room-passport/internal/passport/models"
	"room-passport/internal/passport/service"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
)

// ============================================================
// Passport Handler
// ============================================================

// Pinger: проверка готовности хранилища.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	auth      *service.AuthService
	schemas   *service.SchemaService
	passports *service.PassportStore
	db        Pinger
	metrics   *metrics.Metrics
	log       logging.Logger
}

func NewHandler(
	auth *service.AuthService,
	schemas *service.SchemaService,
	passports *service.PassportStore,
	db Pinger,
	m *metrics.Metrics,
	log logging.Logger,
) *Handler {
	if log == nil {
		log = logging.NewNop()
	}
	return &Handler{
		auth:      auth,
		schemas:   schemas,
		passports: passports,
		db:        db,
		metrics:   m,
		log:       log.Named("http"),
	}
}

// Routes регистрирует все маршруты сервиса.
func (h *Handler) Routes(app *fiber.App) {
	// ============================================================
	// Health & metrics
	// ============================================================

	app.Get("/health/live", h.Live)
	app.Get("/health/ready", h.Ready)
	if h.metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(h.metrics.Handler()))
	}

	// ============================================================
	// Public
	// ============================================================

	app.Post("/login", h.Login)
	app.Get("/docs", h.SwaggerUI)
	app.Get("/docs/openapi.yaml", h.OpenAPISpec)

	// ============================================================
	// Authenticated
	// ============================================================

	auth := h.RequireAuth
	app.Get("/me", auth, h.Me)
	app.Get("/me/schemas", auth, h.ListSchemas)
	app.Get("/me/passports", auth, h.ListPassports)

	app.Post("/save", auth, h.SaveSchema)
	app.Get("/schemas/:id/preview.svg", auth, h.PreviewSchema)

	app.Post("/gendocx", auth, h.Generate)
	app.Get("/passports/:id/download", auth, h.Download)
	app.Delete("/passports/:id", auth, h.DeletePassport)
}

// ============================================================
// Helpers
// ============================================================

const userLocalKey = "user"

func currentUser(c fiber.Ctx) *models.User {
	u, _ := c.Locals(userLocalKey).(*models.User)
	return u
}

// writeError переводит вид ошибки в HTTP-статус; внутренние ошибки логируются и маскируются.
func (h *Handler) writeError(c fiber.Ctx, err error) error {
	appErr, ok := apperror.As(err)
	if !ok || appErr.Kind == apperror.KindInternal {
		message := "internal server error"
		if ok {
			message = appErr.Message
		}
		h.log.Error(message,
			logging.String("method", c.Method()),
			logging.String("path", c.Path()),
			logging.Err(err))
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": message})
	}

	body := fiber.Map{"error": appErr.Message}
	if appErr.Detail != "" {
		body["details"] = appErr.Detail
	}
	return c.Status(appErr.Kind.HTTPStatus()).JSON(body)
}
