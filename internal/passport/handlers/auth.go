package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"room-passport/internal/common/apperror"

	"github.com/gofiber/fiber/v3"
)

// ============================================================
// Auth
// ============================================================

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login выдаёт bearer-токен по паре email/password.
func (h *Handler) Login(c fiber.Ctx) error {
	if len(c.Body()) == 0 {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "empty body"})
	}

	var req loginRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid json"})
	}

	token, user, err := h.auth.Login(c.Context(), req.Email, req.Password)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(fiber.Map{"token": token, "user": user})
}

// RequireAuth пускает дальше только запросы с действующим токеном.
func (h *Handler) RequireAuth(c fiber.Ctx) error {
	header := c.Get(fiber.HeaderAuthorization)
	if !strings.HasPrefix(header, "Bearer ") {
		return h.writeError(c, apperror.Unauthorized("unauthorized"))
	}

	user, err := h.auth.Identify(c.Context(), strings.TrimPrefix(header, "Bearer "))
	if err != nil {
		return h.writeError(c, err)
	}
	c.Locals(userLocalKey, user)
	return c.Next()
}

// Me возвращает текущего пользователя.
func (h *Handler) Me(c fiber.Ctx) error {
	return c.JSON(currentUser(c))
}
