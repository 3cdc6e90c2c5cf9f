package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"room-passport/internal/passport/models"
)

// ============================================================
// Passports
// ============================================================

const passportColumns = `id, creator_id, schema_id, cabinet_ids, curriculum_ids, specialization_ids, file_name, created_at`

func scanPassport(row rowScanner) (*models.Passport, error) {
	var (
		p                        models.Passport
		cabinets, curricula, spc string
		created                  string
	)
	if err := row.Scan(&p.ID, &p.CreatorID, &p.SchemaID, &cabinets, &curricula, &spc, &p.FileName, &created); err != nil {
		return nil, notFound(err)
	}
	for _, f := range []struct {
		raw string
		dst *[]string
	}{{cabinets, &p.CabinetIDs}, {curricula, &p.CurriculumIDs}, {spc, &p.SpecializationIDs}} {
		if err := json.Unmarshal([]byte(f.raw), f.dst); err != nil {
			return nil, fmt.Errorf("decode passport %s refs: %w", p.ID, err)
		}
	}
	p.CreatedAt = parseTime(created)
	return &p, nil
}

func encodeIDs(ids []string) string {
	if ids == nil {
		ids = []string{}
	}
	data, _ := json.Marshal(ids)
	return string(data)
}

// CreatePassport вставляет строку паспорта; FileName заполняется позже.
func (r *Repository) CreatePassport(ctx context.Context, p *models.Passport) error {
	created := r.timestamp()
	_, err := r.db.ExecContext(ctx, `
        INSERT INTO passports (`+passportColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
    `, p.ID, p.CreatorID, p.SchemaID,
		encodeIDs(p.CabinetIDs), encodeIDs(p.CurriculumIDs), encodeIDs(p.SpecializationIDs),
		p.FileName, created)
	if err != nil {
		return fmt.Errorf("insert passport: %w", err)
	}
	p.CreatedAt = parseTime(created)
	return nil
}

func (r *Repository) SetPassportFile(ctx context.Context, id, fileName string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE passports SET file_name = ? WHERE id = ?`, fileName, id)
	if err != nil {
		return fmt.Errorf("set passport file: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) GetPassport(ctx context.Context, id string) (*models.Passport, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+passportColumns+` FROM passports WHERE id = ?`, id)
	return scanPassport(row)
}

func (r *Repository) DeletePassport(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM passports WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete passport: %w", err)
	}
	return nil
}

// ============================================================
// Owner lists
// ============================================================

// AppendUserPassport идемпотентно добавляет паспорт в список пользователя.
func (r *Repository) AppendUserPassport(ctx context.Context, userID, passportID string) error {
	_, err := r.db.ExecContext(ctx, `
        INSERT OR IGNORE INTO user_passports (user_id, passport_id) VALUES (?, ?)
    `, userID, passportID)
	if err != nil {
		return fmt.Errorf("append user passport: %w", err)
	}
	return nil
}

func (r *Repository) RemoveUserPassport(ctx context.Context, userID, passportID string) error {
	_, err := r.db.ExecContext(ctx, `
        DELETE FROM user_passports WHERE user_id = ? AND passport_id = ?
    `, userID, passportID)
	if err != nil {
		return fmt.Errorf("remove user passport: %w", err)
	}
	return nil
}

func (r *Repository) ListUserPassports(ctx context.Context, userID string) ([]models.Passport, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT p.id, p.creator_id, p.schema_id, p.cabinet_ids, p.curriculum_ids,
               p.specialization_ids, p.file_name, p.created_at
        FROM user_passports up
        JOIN passports p ON p.id = up.passport_id
        WHERE up.user_id = ?
        ORDER BY up.seq
    `, userID)
	if err != nil {
		return nil, fmt.Errorf("list user passports: %w", err)
	}
	defer rows.Close()

	var out []models.Passport
	for rows.Next() {
		p, err := scanPassport(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// UserPassportIDs возвращает сырой список id, включая ссылки на удалённые паспорта.
func (r *Repository) UserPassportIDs(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT passport_id FROM user_passports WHERE user_id = ? ORDER BY seq
    `, userID)
	if err != nil {
		return nil, fmt.Errorf("list user passport ids: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
