package handlers

import (
	"encoding/json"
	"net/http"

	"room-passport/internal/passport/models"
	"room-passport/internal/passport/service"

	"github.com/gofiber/fiber/v3"
)

// ============================================================
// Passports
// ============================================================

// generateBody принимает и прежние имена полей umkIds/specIds.
type generateBody struct {
	CabinetID         string   `json:"cabinetId"`
	CabinetName       string   `json:"cabinetName"`
	CurriculumIDs     []string `json:"curriculumIds"`
	UMKIDs            []string `json:"umkIds"`
	SpecializationIDs []string `json:"specializationIds"`
	SpecIDs           []string `json:"specIds"`
	SchemaID          string   `json:"schemaId"`
}

func (b generateBody) request() service.GenerateRequest {
	req := service.GenerateRequest{
		CabinetID:         b.CabinetID,
		CabinetName:       b.CabinetName,
		CurriculumIDs:     b.CurriculumIDs,
		SpecializationIDs: b.SpecializationIDs,
		SchemaID:          b.SchemaID,
	}
	if len(req.CurriculumIDs) == 0 {
		req.CurriculumIDs = b.UMKIDs
	}
	if len(req.SpecializationIDs) == 0 {
		req.SpecializationIDs = b.SpecIDs
	}
	return req
}

// Generate собирает паспорт и сразу отдаёт его вложением.
func (h *Handler) Generate(c fiber.Ctx) error {
	var body generateBody
	if len(c.Body()) > 0 {
		if err := json.Unmarshal(c.Body(), &body); err != nil {
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid json"})
		}
	}

	out, err := h.passports.Generate(c.Context(), currentUser(c).ID, body.request())
	if err != nil {
		return h.writeError(c, err)
	}

	c.Set("X-Passport-Id", out.Passport.ID)
	return sendDocx(c, out.Passport.FileName, out.Content)
}

// Download отдаёт ранее сгенерированный паспорт.
func (h *Handler) Download(c fiber.Ctx) error {
	data, fileName, err := h.passports.Download(c.Context(), c.Params("id"))
	if err != nil {
		return h.writeError(c, err)
	}
	return sendDocx(c, fileName, data)
}

func (h *Handler) DeletePassport(c fiber.Ctx) error {
	if err := h.passports.Delete(c.Context(), c.Params("id")); err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Passport deleted successfully"})
}

// ListPassports: паспорта текущего пользователя.
func (h *Handler) ListPassports(c fiber.Ctx) error {
	items, err := h.passports.List(c.Context(), currentUser(c).ID)
	if err != nil {
		return h.writeError(c, err)
	}
	if items == nil {
		items = []models.Passport{}
	}
	return c.JSON(items)
}

func sendDocx(c fiber.Ctx, fileName string, data []byte) error {
	c.Attachment(fileName)
	c.Set(fiber.HeaderContentType, service.DocxContentType)
	return c.Send(data)
}
