package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"testing"
	"time"

	"room-passport/internal/common/apperror"
	"room-passport/internal/common/metrics"
	"room-passport/internal/passport/models"
	"room-passport/internal/passport/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_WritesRowListAndFile(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.store.metrics = metrics.New()
	schema := f.saveSchema(t, sampleScene)

	req := f.request(schema.ID)
	req.CabinetName = `Кабинет <A&B>`
	out, err := f.store.Generate(ctx, f.userID, req)
	require.NoError(t, err)

	p := out.Passport
	assert.Regexp(t, `^cabinet-101-passport-\d+\.docx$`, p.FileName)
	assert.Equal(t, []string{"cab1"}, p.CabinetIDs)
	assert.Equal(t, []string{"c1", "c2"}, p.CurriculumIDs)
	assert.Equal(t, schema.ID, p.SchemaID)

	stored, err := f.repo.GetPassport(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.FileName, stored.FileName)

	listed, err := f.store.List(ctx, f.userID)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, p.ID, listed[0].ID)

	data, name, err := f.store.Download(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.FileName, name)
	assert.Equal(t, out.Content, data)

	doc := readZipEntry(t, out.Content, "word/document.xml")
	assert.Contains(t, doc, "Кабинет №101 Кабинет &lt;A&amp;B&gt; (2015, S=48.5)")
	assert.Contains(t, doc, "Петров Иван Сергеевич / И. С. Петров, "+strconv.Itoa(time.Now().Year()))
	assert.Contains(t, doc, "Парты: 3, доски: 1, окна: 0")
	assert.Contains(t, doc, "[Математика 2020][Физика 2021][Программист]")
	assert.Contains(t, doc, `<wp:extent cx="6191250" cy="3095625"/>`)
	assert.NotContains(t, doc, "{{")

	assert.Contains(t, readZipEntry(t, out.Content, "word/_rels/document.xml.rels"), `Id="rIdPassportImage"`)
	assert.Contains(t, readZipEntry(t, out.Content, "[Content_Types].xml"), `Extension="png"`)
	assert.NotEmpty(t, readZipEntry(t, out.Content, "word/media/passport_schema.png"))
}

func TestGenerate_CabinetNameFallsBackToRecord(t *testing.T) {
	f := newFixture(t)
	schema := f.saveSchema(t, sampleScene)

	doc, err := f.assembler.Assemble(context.Background(), f.userID, f.request(schema.ID))
	require.NoError(t, err)
	assert.Contains(t, readZipEntry(t, doc.Content, "word/document.xml"), "Кабинет №101 Информатика")
	assert.Equal(t, "101", doc.CabinetNumber)
}

func TestGenerate_UnknownCabinetIsCustom(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	schema := f.saveSchema(t, sampleScene)

	req := f.request(schema.ID)
	req.CabinetID = "nowhere"
	req.CabinetName = "Лаборатория"
	out, err := f.store.Generate(ctx, f.userID, req)
	require.NoError(t, err)

	assert.Regexp(t, `^cabinet-custom-passport-\d+\.docx$`, out.Passport.FileName)
	assert.Equal(t, []string{"nowhere"}, out.Passport.CabinetIDs)
	assert.Contains(t, readZipEntry(t, out.Content, "word/document.xml"), "Кабинет № Лаборатория (, S=)")
}

func TestGenerate_ValidationOrder(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	good := f.saveSchema(t, sampleScene)

	broken := &models.StoredSchema{ID: "broken", OwnerID: f.userID, SceneData: []byte(`{"edges":[]}`), ImagePath: good.ImagePath}
	require.NoError(t, f.repo.CreateSchema(ctx, broken))
	noImage := &models.StoredSchema{ID: "no-image", OwnerID: f.userID, SceneData: []byte(sampleScene), ImagePath: "u1/uploads/missing.png"}
	require.NoError(t, f.repo.CreateSchema(ctx, noImage))

	cases := []struct {
		name    string
		mutate  func(r *GenerateRequest)
		kind    apperror.Kind
		message string
	}{
		{
			name:    "missing fields",
			mutate:  func(r *GenerateRequest) { r.CurriculumIDs = nil },
			kind:    apperror.KindValidation,
			message: "Missing required fields",
		},
		{
			name:    "unknown schema wins over missing curricula",
			mutate:  func(r *GenerateRequest) { r.SchemaID = "ghost"; r.CurriculumIDs = []string{"c1", "ghost"} },
			kind:    apperror.KindNotFound,
			message: "user or schema not found",
		},
		{
			name:    "missing curriculum wins over broken scene",
			mutate:  func(r *GenerateRequest) { r.SchemaID = "broken"; r.CurriculumIDs = []string{"c1", "ghost"} },
			kind:    apperror.KindNotFound,
			message: "some curricula not found",
		},
		{
			name:    "missing specialization",
			mutate:  func(r *GenerateRequest) { r.SpecializationIDs = []string{"s1", "s2"} },
			kind:    apperror.KindNotFound,
			message: "some specializations not found",
		},
		{
			name:    "broken scene wins over missing image",
			mutate:  func(r *GenerateRequest) { r.SchemaID = "broken" },
			kind:    apperror.KindValidation,
			message: "invalid schema structure",
		},
		{
			name:    "missing image",
			mutate:  func(r *GenerateRequest) { r.SchemaID = "no-image" },
			kind:    apperror.KindValidation,
			message: "image file not found",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := f.request(good.ID)
			tc.mutate(&req)

			_, err := f.store.Generate(ctx, f.userID, req)
			require.Error(t, err)
			appErr, ok := apperror.As(err)
			require.True(t, ok)
			assert.Equal(t, tc.kind, appErr.Kind)
			assert.Equal(t, tc.message, appErr.Message)
		})
	}

	listed, err := f.store.List(ctx, f.userID)
	require.NoError(t, err)
	assert.Empty(t, listed, "validation failures write nothing")
	assert.Empty(t, docFiles(t, f.docs))
}

func TestGenerate_IDCompleteness(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	schema := f.saveSchema(t, sampleScene)
	f.store.newID = func() string { return "p-fixed" }

	req := f.request(schema.ID)
	req.CurriculumIDs = []string{"c1", "c404"}
	_, err := f.store.Generate(ctx, f.userID, req)
	require.True(t, apperror.IsNotFound(err))

	_, err = f.repo.GetPassport(ctx, "p-fixed")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.Empty(t, docFiles(t, f.docs))
}

func TestGenerate_BumpsTimestampOnNameClash(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	schema := f.saveSchema(t, sampleScene)

	now := time.UnixMilli(1700000000000)
	f.store.now = func() time.Time { return now }
	require.NoError(t, f.docs.Create(ctx, passportFileName("101", now), []byte("taken")))

	out, err := f.store.Generate(ctx, f.userID, f.request(schema.ID))
	require.NoError(t, err)
	assert.Equal(t, "cabinet-101-passport-1700000000001.docx", out.Passport.FileName)
}

type failingArtifacts struct {
	ArtifactStore
}

func (failingArtifacts) Create(context.Context, string, []byte) error {
	return errors.New("disk full")
}

func TestGenerate_RollsBackWhenFileWriteFails(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	schema := f.saveSchema(t, sampleScene)
	f.store.artifacts = failingArtifacts{ArtifactStore: f.docs}
	f.store.newID = func() string { return "p-fixed" }

	_, err := f.store.Generate(ctx, f.userID, f.request(schema.ID))
	require.Error(t, err)
	assert.Equal(t, apperror.KindInternal, apperror.KindOf(err))

	_, err = f.repo.GetPassport(ctx, "p-fixed")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	ids, err := f.repo.UserPassportIDs(ctx, f.userID)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

type flakyListRepo struct {
	*repository.Repository
	failAppend bool
}

func (r *flakyListRepo) AppendUserPassport(ctx context.Context, userID, passportID string) error {
	if r.failAppend {
		return errors.New("database is locked")
	}
	return r.Repository.AppendUserPassport(ctx, userID, passportID)
}

func TestGenerate_DefersFailedListAppend(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	schema := f.saveSchema(t, sampleScene)
	flaky := &flakyListRepo{Repository: f.repo, failAppend: true}
	f.store.repo = flaky

	out, err := f.store.Generate(ctx, f.userID, f.request(schema.ID))
	require.NoError(t, err)

	ids, err := f.repo.UserPassportIDs(ctx, f.userID)
	require.NoError(t, err)
	assert.Empty(t, ids)

	flaky.failAppend = false
	done, err := f.store.Reconcile(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, done)

	ids, err = f.repo.UserPassportIDs(ctx, f.userID)
	require.NoError(t, err)
	assert.Equal(t, []string{out.Passport.ID}, ids)

	pending, err := f.repo.PendingReconciliationTasks(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestGenerate_RollbackDropsDeferredAppend(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	schema := f.saveSchema(t, sampleScene)
	flaky := &flakyListRepo{Repository: f.repo, failAppend: true}
	f.store.repo = flaky
	f.store.artifacts = failingArtifacts{ArtifactStore: f.docs}
	ids := []string{"p-rolled", "task-1"}
	f.store.newID = func() string {
		id := ids[0]
		ids = ids[1:]
		return id
	}

	_, err := f.store.Generate(ctx, f.userID, f.request(schema.ID))
	require.Error(t, err)

	pending, err := f.repo.PendingReconciliationTasks(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)

	flaky.failAppend = false
	done, err := f.store.Reconcile(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, done)

	list, err := f.repo.UserPassportIDs(ctx, f.userID)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestReconcile_SkipsAppendForMissingPassport(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.repo.AddReconciliationTask(ctx, &models.ReconciliationTask{
		ID: "t1", Kind: models.TaskAppendUserPassport, UserID: f.userID, PassportID: "p-gone",
	}))

	done, err := f.store.Reconcile(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, done)

	list, err := f.repo.UserPassportIDs(ctx, f.userID)
	require.NoError(t, err)
	assert.Empty(t, list)

	pending, err := f.repo.PendingReconciliationTasks(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestDelete_ThenDownloadIsNotFound(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	schema := f.saveSchema(t, sampleScene)

	out, err := f.store.Generate(ctx, f.userID, f.request(schema.ID))
	require.NoError(t, err)

	require.NoError(t, f.store.Delete(ctx, out.Passport.ID))

	_, _, err = f.store.Download(ctx, out.Passport.ID)
	assert.True(t, apperror.IsNotFound(err))
	assert.True(t, apperror.IsNotFound(f.store.Delete(ctx, out.Passport.ID)))
	assert.Empty(t, docFiles(t, f.docs))

	listed, err := f.store.List(ctx, f.userID)
	require.NoError(t, err)
	assert.Empty(t, listed)

	// схема остаётся
	_, err = f.repo.GetSchema(ctx, schema.ID)
	assert.NoError(t, err)
}

func TestDelete_MissingFileIsIgnored(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	schema := f.saveSchema(t, sampleScene)

	out, err := f.store.Generate(ctx, f.userID, f.request(schema.ID))
	require.NoError(t, err)
	require.NoError(t, f.docs.Remove(ctx, out.Passport.FileName))

	_, _, err = f.store.Download(ctx, out.Passport.ID)
	assert.True(t, apperror.IsNotFound(err), "missing file on download")

	assert.NoError(t, f.store.Delete(ctx, out.Passport.ID))
}

func TestPassportFileName(t *testing.T) {
	ts := time.UnixMilli(42)
	cases := []struct {
		number string
		want   string
	}{
		{number: "101", want: "cabinet-101-passport-42.docx"},
		{number: "", want: "cabinet-custom-passport-42.docx"},
		{number: "2/14 b", want: "cabinet-2_14_b-passport-42.docx"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, passportFileName(tc.number, ts), fmt.Sprintf("number %q", tc.number))
	}
}
