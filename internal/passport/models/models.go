package models

import (
	"encoding/json"
	"strings"
	"time"
	"unicode/utf8"
)

// ============================================================
// Users
// ============================================================

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Name         string    `json:"name"`
	Surname      string    `json:"surname"`
	Patronymic   string    `json:"patronymic"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// FullName: "Фамилия Имя Отчество" без лишних пробелов при пустом отчестве.
func (u User) FullName() string {
	return joinNonEmpty(u.Surname, u.Name, u.Patronymic)
}

// ShortName: "И. О. Фамилия".
func (u User) ShortName() string {
	return joinNonEmpty(initial(u.Name), initial(u.Patronymic), u.Surname)
}

func initial(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	r, _ := utf8.DecodeRuneInString(s)
	return string(r) + "."
}

func joinNonEmpty(parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, " ")
}

// ============================================================
// Reference data
// ============================================================

type Cabinet struct {
	ID     string  `json:"id" yaml:"id"`
	Number string  `json:"number" yaml:"number"`
	Name   string  `json:"name" yaml:"name"`
	Year   int     `json:"year" yaml:"year"`
	Area   float64 `json:"area" yaml:"area"`
}

// Curriculum: учебно-методический комплекс.
type Curriculum struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
	Year int    `json:"year" yaml:"year"`
}

type Specialization struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

// ============================================================
// Schemas & passports
// ============================================================

// StoredSchema: сохранённая сцена с превью; после создания не меняется.
type StoredSchema struct {
	ID        string          `json:"id"`
	OwnerID   string          `json:"owner_id"`
	CabinetID string          `json:"cabinet_id,omitempty"`
	SceneData json.RawMessage `json:"scene_data"`
	ImagePath string          `json:"image_path"`
	CreatedAt time.Time       `json:"created_at"`
}

// Passport: индекс сгенерированного документа; байты лежат в хранилище под FileName.
type Passport struct {
	ID                string    `json:"id"`
	CabinetIDs        []string  `json:"cabinet_ids"`
	CurriculumIDs     []string  `json:"curriculum_ids"`
	SpecializationIDs []string  `json:"specialization_ids"`
	CreatorID         string    `json:"creator_id"`
	SchemaID          string    `json:"schema_id"`
	FileName          string    `json:"file_name"`
	CreatedAt         time.Time `json:"created_at"`
}

// ============================================================
// Reconciliation
// ============================================================

type TaskKind string

const (
	TaskAppendUserPassport TaskKind = "append_user_passport"
	TaskRemoveUserPassport TaskKind = "remove_user_passport"
)

// ReconciliationTask: отложенное изменение списка паспортов пользователя.
type ReconciliationTask struct {
	ID         string
	Kind       TaskKind
	UserID     string
	PassportID string
	Attempts   int
	LastError  string
	CreatedAt  time.Time
}
