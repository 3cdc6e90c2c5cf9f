package repository

import (
	"context"
	"errors"
	"fmt"
	"os"

	"room-passport/internal/passport/models"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
)

// ============================================================
// Seeding
// ============================================================

// SeedData: справочники и пользователи, загружаемые при старте.
type SeedData struct {
	Cabinets        []models.Cabinet        `yaml:"cabinets"`
	Curricula       []models.Curriculum     `yaml:"curricula"`
	Specializations []models.Specialization `yaml:"specializations"`
	Users           []SeedUser              `yaml:"users"`
}

type SeedUser struct {
	ID         string `yaml:"id"`
	Email      string `yaml:"email"`
	Password   string `yaml:"password"`
	Name       string `yaml:"name"`
	Surname    string `yaml:"surname"`
	Patronymic string `yaml:"patronymic"`
	Role       string `yaml:"role"`
}

func LoadSeedFile(path string) (*SeedData, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var seed SeedData
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	return &seed, nil
}

// Seed обновляет справочники и создаёт недостающих пользователей.
func (r *Repository) Seed(ctx context.Context, seed *SeedData) error {
	for _, c := range seed.Cabinets {
		if err := r.UpsertCabinet(ctx, c); err != nil {
			return err
		}
	}
	for _, c := range seed.Curricula {
		if err := r.UpsertCurriculum(ctx, c); err != nil {
			return err
		}
	}
	for _, s := range seed.Specializations {
		if err := r.UpsertSpecialization(ctx, s); err != nil {
			return err
		}
	}
	for _, u := range seed.Users {
		if err := r.ensureUser(ctx, u); err != nil {
			return err
		}
	}
	return nil
}

// EnsureAdmin создаёт администратора, если пользователя с таким email ещё нет.
func (r *Repository) EnsureAdmin(ctx context.Context, email, password string) error {
	return r.ensureUser(ctx, SeedUser{
		ID:       "11111111-1111-1111-1111-111111111111",
		Email:    email,
		Password: password,
		Name:     "Admin",
		Surname:  "User",
		Role:     "admin",
	})
}

func (r *Repository) ensureUser(ctx context.Context, u SeedUser) error {
	_, err := r.GetUserByEmail(ctx, u.Email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrNotFound) {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password for %s: %w", u.Email, err)
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}

	return r.CreateUser(ctx, &models.User{
		ID:           u.ID,
		Email:        u.Email,
		PasswordHash: string(hash),
		Name:         u.Name,
		Surname:      u.Surname,
		Patronymic:   u.Patronymic,
		Role:         u.Role,
	})
}
