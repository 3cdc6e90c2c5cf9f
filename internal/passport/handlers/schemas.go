package handlers

import (
	"net/http"

	"room-passport/internal/common/apperror"
	"room-passport/internal/passport/models"
	"room-passport/internal/passport/service"

	"github.com/gofiber/fiber/v3"
)

// ============================================================
// Schemas
// ============================================================

// SaveSchema принимает multipart-форму: sceneData, cabinetId, image.
func (h *Handler) SaveSchema(c fiber.Ctx) error {
	user := currentUser(c)

	sceneData := c.FormValue("sceneData")
	if sceneData == "" {
		sceneData = c.FormValue("schemaData")
	}

	in := service.SaveSchemaInput{
		SceneData: []byte(sceneData),
		CabinetID: c.FormValue("cabinetId"),
	}

	// без файла Image остаётся nil, ответ даёт сервис
	if fileHeader, err := c.FormFile("image"); err == nil {
		file, err := fileHeader.Open()
		if err != nil {
			return h.writeError(c, apperror.Internal("open upload", err))
		}
		defer file.Close()
		in.Image = file
		in.ImageName = fileHeader.Filename
	}

	schema, err := h.schemas.Save(c.Context(), user.ID, in)
	if err != nil {
		return h.writeError(c, err)
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"message":  "Schema saved successfully",
		"schemaId": schema.ID,
	})
}

// ListSchemas: схемы текущего пользователя в порядке сохранения.
func (h *Handler) ListSchemas(c fiber.Ctx) error {
	items, err := h.schemas.List(c.Context(), currentUser(c).ID)
	if err != nil {
		return h.writeError(c, err)
	}
	if items == nil {
		items = []models.StoredSchema{}
	}
	return c.JSON(items)
}

// PreviewSchema рисует сохранённую сцену в SVG.
func (h *Handler) PreviewSchema(c fiber.Ctx) error {
	svg, err := h.schemas.Preview(c.Context(), c.Params("id"))
	if err != nil {
		return h.writeError(c, err)
	}
	c.Set(fiber.HeaderContentType, "image/svg+xml")
	return c.SendString(svg)
}
