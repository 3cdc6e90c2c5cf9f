package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"room-passport/internal/passport/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "db", "passport.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := New(db)
	require.NoError(t, repo.Init(context.Background()))
	return repo
}

func seedUser(t *testing.T, repo *Repository, id string) {
	t.Helper()
	require.NoError(t, repo.CreateUser(context.Background(), &models.User{
		ID: id, Email: id + "@example.com", PasswordHash: "x", Name: "Иван", Surname: "Петров",
	}))
}

func TestInit_Idempotent(t *testing.T) {
	repo := newTestRepo(t)
	require.NoError(t, repo.Init(context.Background()))
	assert.NoError(t, repo.Ping(context.Background()))
}

func TestUsers(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	seedUser(t, repo, "u1")

	byID, err := repo.GetUserByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1@example.com", byID.Email)
	assert.Equal(t, "user", byID.Role)
	assert.False(t, byID.CreatedAt.IsZero())

	_, err = repo.GetUserByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestResolve_ExactAndOrdered(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	require.NoError(t, repo.UpsertCurriculum(ctx, models.Curriculum{ID: "c1", Name: "Математика", Year: 2020}))
	require.NoError(t, repo.UpsertCurriculum(ctx, models.Curriculum{ID: "c2", Name: "Физика", Year: 2021}))
	require.NoError(t, repo.UpsertSpecialization(ctx, models.Specialization{ID: "s1", Name: "Программирование"}))

	cases := []struct {
		name string
		ids  []string
		want []string
	}{
		{name: "order follows request", ids: []string{"c2", "c1"}, want: []string{"c2", "c1"}},
		{name: "missing skipped", ids: []string{"c1", "zzz"}, want: []string{"c1"}},
		{name: "duplicates collapse", ids: []string{"c1", "c1"}, want: []string{"c1"}},
		{name: "empty", ids: nil, want: []string{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := repo.ResolveCurricula(ctx, tc.ids)
			require.NoError(t, err)
			ids := make([]string, 0, len(got))
			for _, c := range got {
				ids = append(ids, c.ID)
			}
			assert.Equal(t, tc.want, ids)
		})
	}

	specs, err := repo.ResolveSpecializations(ctx, []string{"s1"})
	require.NoError(t, err)
	require.Len(t, specs, 1)
	assert.Equal(t, "Программирование", specs[0].Name)
}

func TestCabinets(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	require.NoError(t, repo.UpsertCabinet(ctx, models.Cabinet{ID: "k1", Number: "214", Name: "Информатика", Year: 1998, Area: 54.5}))
	require.NoError(t, repo.UpsertCabinet(ctx, models.Cabinet{ID: "k1", Number: "214", Name: "Информатика и ИКТ", Year: 1998, Area: 54.5}))

	c, err := repo.GetCabinet(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, "Информатика и ИКТ", c.Name)
	assert.Equal(t, 54.5, c.Area)

	all, err := repo.ListCabinets(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	_, err = repo.GetCabinet(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSchemas_CreateAppendsToOwnerList(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	seedUser(t, repo, "u1")

	for _, id := range []string{"s1", "s2"} {
		require.NoError(t, repo.CreateSchema(ctx, &models.StoredSchema{
			ID: id, OwnerID: "u1", SceneData: []byte(`{"nodes":[]}`), ImagePath: "u1/" + id + ".png",
		}))
	}

	got, err := repo.GetSchema(ctx, "s1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"nodes":[]}`, string(got.SceneData))

	list, err := repo.ListUserSchemas(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "s1", list[0].ID)
	assert.Equal(t, "s2", list[1].ID)

	err = repo.CreateSchema(ctx, &models.StoredSchema{ID: "s3", OwnerID: "ghost", SceneData: []byte(`{}`), ImagePath: "x"})
	assert.Error(t, err, "foreign key on owner")
	_, err = repo.GetSchema(ctx, "s3")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPassports_Lifecycle(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	p := &models.Passport{
		ID: "p1", CreatorID: "u1", SchemaID: "s1",
		CabinetIDs: []string{"k1"}, CurriculumIDs: []string{"c1", "c2"},
	}
	require.NoError(t, repo.CreatePassport(ctx, p))
	require.NoError(t, repo.AppendUserPassport(ctx, "u1", "p1"))
	require.NoError(t, repo.AppendUserPassport(ctx, "u1", "p1"))
	require.NoError(t, repo.SetPassportFile(ctx, "p1", "cabinet-214-passport-1.docx"))

	got, err := repo.GetPassport(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, []string{"c1", "c2"}, got.CurriculumIDs)
	assert.Equal(t, []string{}, got.SpecializationIDs)
	assert.Equal(t, "cabinet-214-passport-1.docx", got.FileName)

	list, err := repo.ListUserPassports(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, repo.DeletePassport(ctx, "p1"))
	require.NoError(t, repo.RemoveUserPassport(ctx, "u1", "p1"))

	_, err = repo.GetPassport(ctx, "p1")
	assert.ErrorIs(t, err, ErrNotFound)
	ids, err := repo.UserPassportIDs(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, ids)

	assert.ErrorIs(t, repo.SetPassportFile(ctx, "p1", "x.docx"), ErrNotFound)
}

func TestReconciliationTasks(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	tick := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { tick = tick.Add(time.Second); return tick }

	for _, id := range []string{"t1", "t2"} {
		require.NoError(t, repo.AddReconciliationTask(ctx, &models.ReconciliationTask{
			ID: id, Kind: models.TaskAppendUserPassport, UserID: "u1", PassportID: "p-" + id,
		}))
	}

	require.NoError(t, repo.FailReconciliationTask(ctx, "t1", os.ErrDeadlineExceeded))
	require.NoError(t, repo.CompleteReconciliationTask(ctx, "t2"))

	tasks, err := repo.PendingReconciliationTasks(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "t1", tasks[0].ID)
	assert.Equal(t, 1, tasks[0].Attempts)
	assert.Equal(t, models.TaskAppendUserPassport, tasks[0].Kind)
	assert.NotEmpty(t, tasks[0].LastError)

	require.NoError(t, repo.CancelReconciliationTasks(ctx, "p-t1"))
	tasks, err = repo.PendingReconciliationTasks(ctx)
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestSeed(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
cabinets:
  - {id: k1, number: "101", name: Химия, year: 2001, area: 60}
curricula:
  - {id: c1, name: Химия 10 класс, year: 2022}
specializations:
  - {id: s1, name: Лаборант}
users:
  - {email: teacher@example.com, password: secret, name: Мария, surname: Иванова, patronymic: Павловна}
`), 0o644))

	seed, err := LoadSeedFile(path)
	require.NoError(t, err)
	require.NoError(t, repo.Seed(ctx, seed))
	require.NoError(t, repo.Seed(ctx, seed))
	require.NoError(t, repo.EnsureAdmin(ctx, "admin@example.com", "admin"))

	c, err := repo.GetCabinet(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, "101", c.Number)

	u, err := repo.GetUserByEmail(ctx, "teacher@example.com")
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("secret")))

	admin, err := repo.GetUserByEmail(ctx, "admin@example.com")
	require.NoError(t, err)
	assert.Equal(t, "admin", admin.Role)
}
