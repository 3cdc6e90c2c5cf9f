package service

import (
	"archive/zip"
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"testing"

	"room-passport/internal/passport/models"
	"room-passport/internal/passport/repository"

	"github.com/stretchr/testify/require"
)

const templateDocument = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
	`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
	`<w:p><w:r><w:t>Кабинет №{{.num_cabinet}} {{.name_cabinet}} ({{.cabinet_year}}, S={{.S}})</w:t></w:r></w:p>` +
	`<w:p><w:r><w:t>Зав. кабинетом: {{.head_of_cabinet}} / {{.head_of_cab}}, {{.year}}</w:t></w:r></w:p>` +
	`<w:p><w:r><w:t>Парты: {{.studentDesk}}, доски: {{.board}}, окна: {{.window}}</w:t></w:r></w:p>` +
	`<w:p><w:r><w:t>{{range .umk}}[{{.name}} {{.year}}]{{end}}{{range .spec}}[{{.name}}]{{end}}</w:t></w:r></w:p>` +
	`<w:p><w:r><w:t>{{.image}}</w:t></w:r></w:p>` +
	`</w:body></w:document>`

const templateContentTypes = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
	`<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">` +
	`<Default Extension="xml" ContentType="application/xml"/>` +
	`<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>` +
	`</Types>`

const templateRels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
	`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"></Relationships>`

const sampleScene = `{"nodes":[
	{"id":"d1","type":"studentDesk","position":{"x":0,"y":0}},
	{"id":"d2","type":"studentDesk","position":{"x":100,"y":0}},
	{"id":"d3","type":"studentDesk","position":{"x":200,"y":0}},
	{"id":"b1","type":"board","position":{"x":0,"y":-100}}
],"edges":[]}`

func buildDocx(t *testing.T, parts map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range parts {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func templateDocx(t *testing.T) []byte {
	return buildDocx(t, map[string]string{
		"[Content_Types].xml":          templateContentTypes,
		"word/_rels/document.xml.rels": templateRels,
		"word/document.xml":            templateDocument,
	})
}

func readZipEntry(t *testing.T, data []byte, name string) string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		require.NoError(t, err)
		defer rc.Close()
		content, err := io.ReadAll(rc)
		require.NoError(t, err)
		return string(content)
	}
	t.Fatalf("entry %s not found", name)
	return ""
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// ============================================================
// Fixture
// ============================================================

type fixture struct {
	repo      *repository.Repository
	media     *FileStorage
	docs      *FileStorage
	templates *TemplateSource
	schemas   *SchemaService
	assembler *Assembler
	store     *PassportStore
	auth      *AuthService
	userID    string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	dir := t.TempDir()

	db, err := repository.OpenSQLite(filepath.Join(dir, "passport.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	repo := repository.New(db)
	require.NoError(t, repo.Init(ctx))

	require.NoError(t, repo.CreateUser(ctx, &models.User{
		ID: "u1", Email: "teacher@example.com", PasswordHash: "x",
		Name: "Иван", Surname: "Петров", Patronymic: "Сергеевич",
	}))
	require.NoError(t, repo.UpsertCabinet(ctx, models.Cabinet{ID: "cab1", Number: "101", Name: "Информатика", Year: 2015, Area: 48.5}))
	require.NoError(t, repo.UpsertCurriculum(ctx, models.Curriculum{ID: "c1", Name: "Математика", Year: 2020}))
	require.NoError(t, repo.UpsertCurriculum(ctx, models.Curriculum{ID: "c2", Name: "Физика", Year: 2021}))
	require.NoError(t, repo.UpsertSpecialization(ctx, models.Specialization{ID: "s1", Name: "Программист"}))

	tplPath := filepath.Join(dir, "templates", "passport.docx")
	require.NoError(t, os.MkdirAll(filepath.Dir(tplPath), 0o755))
	require.NoError(t, os.WriteFile(tplPath, templateDocx(t), 0o644))

	media := NewFileStorage(filepath.Join(dir, "media"))
	docs := NewFileStorage(filepath.Join(dir, "docs"))
	templates := NewTemplateSource(tplPath, nil)
	assembler := NewAssembler(NewLoader(repo, repo, repo), templates, media, 0)

	return &fixture{
		repo:      repo,
		media:     media,
		docs:      docs,
		templates: templates,
		schemas:   NewSchemaService(repo, media, nil, nil),
		assembler: assembler,
		store:     NewPassportStore(repo, docs, assembler, nil, nil),
		auth:      NewAuthService(repo, NewSessionManager(0)),
		userID:    "u1",
	}
}

// saveSchema сохраняет сцену с PNG 200x100.
func (f *fixture) saveSchema(t *testing.T, scene string) *models.StoredSchema {
	t.Helper()
	schema, err := f.schemas.Save(context.Background(), f.userID, SaveSchemaInput{
		SceneData: []byte(scene),
		CabinetID: "cab1",
		Image:     bytes.NewReader(pngBytes(t, 200, 100)),
		ImageName: "plan.png",
	})
	require.NoError(t, err)
	return schema
}

func (f *fixture) request(schemaID string) GenerateRequest {
	return GenerateRequest{
		CabinetID:         "cab1",
		CurriculumIDs:     []string{"c1", "c2"},
		SpecializationIDs: []string{"s1"},
		SchemaID:          schemaID,
	}
}

func docFiles(t *testing.T, s *FileStorage) []string {
	t.Helper()
	entries, err := os.ReadDir(s.Root())
	if os.IsNotExist(err) {
		return nil
	}
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}
