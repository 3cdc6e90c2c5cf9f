package repository

import (
	"context"
	"fmt"

	"room-passport/internal/passport/models"
)

// ============================================================
// Users
// ============================================================

const userColumns = `id, email, password_hash, name, surname, patronymic, role, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var (
		u       models.User
		created string
	)
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.Surname, &u.Patronymic, &u.Role, &created); err != nil {
		return nil, notFound(err)
	}
	u.CreatedAt = parseTime(created)
	return &u, nil
}

func (r *Repository) CreateUser(ctx context.Context, u *models.User) error {
	if u.Role == "" {
		u.Role = "user"
	}
	created := r.timestamp()
	_, err := r.db.ExecContext(ctx, `
        INSERT INTO users (`+userColumns+`)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)
    `, u.ID, u.Email, u.PasswordHash, u.Name, u.Surname, u.Patronymic, u.Role, created)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	u.CreatedAt = parseTime(created)
	return nil
}

func (r *Repository) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return scanUser(row)
}

func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email)
	return scanUser(row)
}
