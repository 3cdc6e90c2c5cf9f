package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"room-passport/internal/common/apperror"
	"room-passport/internal/scene/aggregate"
	"room-passport/internal/scene/codec"
)

// ============================================================
// Request
// ============================================================

// GenerateRequest: параметры генерации паспорта кабинета.
type GenerateRequest struct {
	CabinetID         string   `json:"cabinetId"`
	CabinetName       string   `json:"cabinetName"`
	CurriculumIDs     []string `json:"curriculumIds"`
	SpecializationIDs []string `json:"specializationIds"`
	SchemaID          string   `json:"schemaId"`
}

// Validate проверяет наличие обязательных полей; CabinetName необязателен.
func (r GenerateRequest) Validate() error {
	var missing []string
	if strings.TrimSpace(r.CabinetID) == "" {
		missing = append(missing, "cabinetId")
	}
	if len(r.CurriculumIDs) == 0 {
		missing = append(missing, "curriculumIds")
	}
	if len(r.SpecializationIDs) == 0 {
		missing = append(missing, "specializationIds")
	}
	if strings.TrimSpace(r.SchemaID) == "" {
		missing = append(missing, "schemaId")
	}
	if len(missing) > 0 {
		return apperror.Validation("Missing required fields").WithDetail(strings.Join(missing, ", "))
	}
	return nil
}

// ============================================================
// Assembler
// ============================================================

// Document: отрендеренный паспорт и всё, что нужно для его записи в хранилище.
type Document struct {
	Content           []byte
	CreatorID         string
	SchemaID          string
	CabinetIDs        []string
	CabinetNumber     string
	CurriculumIDs     []string
	SpecializationIDs []string
}

type Assembler struct {
	loader     *Loader
	templates  *TemplateSource
	renderer   *DocxRenderer
	media      *FileStorage
	imageWidth int
	now        func() time.Time
}

func NewAssembler(loader *Loader, templates *TemplateSource, media *FileStorage, imageWidth int) *Assembler {
	if imageWidth <= 0 {
		imageWidth = DefaultImageWidth
	}
	return &Assembler{
		loader:     loader,
		templates:  templates,
		renderer:   NewDocxRenderer(),
		media:      media,
		imageWidth: imageWidth,
		now:        time.Now,
	}
}

// Assemble проверяет запрос и рендерит документ. Ничего не пишет.
func (a *Assembler) Assemble(ctx context.Context, userID string, req GenerateRequest) (*Document, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	refs, err := a.loader.Load(ctx, userID, req)
	if err != nil {
		return nil, err
	}

	scene, _, err := codec.Import(refs.Schema.SceneData)
	if err != nil {
		if errors.Is(err, codec.ErrInvalidStructure) {
			return nil, apperror.Validation("invalid schema structure").WithDetail(err.Error())
		}
		return nil, apperror.Internal("import scene", err)
	}

	img, err := a.loadImage(refs.Schema.ImagePath)
	if err != nil {
		return nil, err
	}

	tpl, err := a.templates.Template()
	if err != nil {
		return nil, apperror.Internal("load template", err)
	}

	data := a.templateData(refs, req, aggregate.Count(scene.Nodes))
	content, err := a.renderer.Render(tpl, data, img)
	if err != nil {
		return nil, apperror.Internal("Document generation failed", err)
	}

	doc := &Document{
		Content:           content,
		CreatorID:         userID,
		SchemaID:          refs.Schema.ID,
		CabinetIDs:        []string{req.CabinetID},
		CurriculumIDs:     req.CurriculumIDs,
		SpecializationIDs: req.SpecializationIDs,
	}
	if refs.Cabinet != nil {
		doc.CabinetIDs = []string{refs.Cabinet.ID}
		doc.CabinetNumber = refs.Cabinet.Number
	}
	return doc, nil
}

func (a *Assembler) loadImage(stored string) (*EmbeddedImage, error) {
	if stored == "" {
		return nil, apperror.Validation("image file not found")
	}
	data, err := os.ReadFile(a.media.Resolve(stored))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperror.Validation("image file not found").WithDetail(stored)
		}
		return nil, apperror.Internal("read image", err)
	}

	info, err := DecodeImageInfo(data)
	if err != nil {
		return nil, apperror.Validation("unsupported image").WithDetail(err.Error())
	}
	return &EmbeddedImage{
		Data:   data,
		Format: info.Format,
		Width:  a.imageWidth,
		Height: DesiredHeight(info.Width, info.Height, a.imageWidth),
	}, nil
}

// templateData собирает значения плейсхолдеров шаблона.
func (a *Assembler) templateData(refs *References, req GenerateRequest, counts aggregate.Counts) map[string]any {
	data := make(map[string]any, len(counts)+16)
	for kind, n := range counts {
		data[kind] = n
	}

	user := refs.User
	data["counts"] = toAnyMap(counts)
	data["year"] = a.now().Year()
	data["user"] = map[string]any{
		"name":       user.Name,
		"surname":    user.Surname,
		"patronymic": user.Patronymic,
	}
	data["head_of_cabinet"] = user.FullName()
	data["head_of_cab"] = user.ShortName()

	data["num_cabinet"] = ""
	data["cabinet_year"] = ""
	data["name_cabinet"] = req.CabinetName
	data["S"] = ""
	if c := refs.Cabinet; c != nil {
		data["num_cabinet"] = c.Number
		if c.Year > 0 {
			data["cabinet_year"] = strconv.Itoa(c.Year)
		}
		if strings.TrimSpace(req.CabinetName) == "" {
			data["name_cabinet"] = c.Name
		}
		if c.Area > 0 {
			data["S"] = strconv.FormatFloat(c.Area, 'f', -1, 64)
		}
	}

	umk := make([]map[string]any, 0, len(refs.Curricula))
	for _, c := range refs.Curricula {
		umk = append(umk, map[string]any{"name": c.Name, "year": yearString(c.Year)})
	}
	data["umk"] = umk

	spec := make([]map[string]any, 0, len(refs.Specializations))
	for _, s := range refs.Specializations {
		spec = append(spec, map[string]any{"name": s.Name})
	}
	data["spec"] = spec

	// плейсхолдер картинки подменяет рендерер
	data["image"] = ""
	return data
}

func toAnyMap(counts aggregate.Counts) map[string]any {
	out := make(map[string]any, len(counts))
	for k, v := range counts {
		out[k] = v
	}
	return out
}

func yearString(y int) string {
	if y <= 0 {
		return ""
	}
	return strconv.Itoa(y)
}

// passportFileName: имя файла паспорта для момента ts.
func passportFileName(cabinetNumber string, ts time.Time) string {
	return fmt.Sprintf("cabinet-%s-passport-%d.docx", sanitizeFilePart(cabinetNumber), ts.UnixMilli())
}

func sanitizeFilePart(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "custom"
	}
	var b strings.Builder
	for _, r := range s {
		if r == '/' || r == '\\' || r == '"' || r == ':' || r == ' ' || r < 0x20 {
			r = '_'
		}
		b.WriteRune(r)
	}
	return b.String()
}
