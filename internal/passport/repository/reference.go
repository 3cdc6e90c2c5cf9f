package repository

import (
	"context"
	"database/sql"
	"fmt"

	"room-passport/internal/passport/models"
)

// ============================================================
// Reference data
// ============================================================

func (r *Repository) GetCabinet(ctx context.Context, id string) (*models.Cabinet, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, number, name, year, area FROM cabinets WHERE id = ?`, id)

	var c models.Cabinet
	if err := row.Scan(&c.ID, &c.Number, &c.Name, &c.Year, &c.Area); err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

func (r *Repository) ListCabinets(ctx context.Context) ([]models.Cabinet, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, number, name, year, area FROM cabinets ORDER BY number`)
	if err != nil {
		return nil, fmt.Errorf("list cabinets: %w", err)
	}
	defer rows.Close()

	var out []models.Cabinet
	for rows.Next() {
		var c models.Cabinet
		if err := rows.Scan(&c.ID, &c.Number, &c.Name, &c.Year, &c.Area); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ResolveCurricula возвращает найденные записи в порядке ids. Отсутствующие id
// просто пропускаются; проверку полноты делает вызывающий.
func (r *Repository) ResolveCurricula(ctx context.Context, ids []string) ([]models.Curriculum, error) {
	byID := make(map[string]models.Curriculum, len(ids))
	err := r.queryIn(ctx, `SELECT id, name, year FROM curricula WHERE id IN (%s)`, ids, func(rows *sql.Rows) error {
		var c models.Curriculum
		if err := rows.Scan(&c.ID, &c.Name, &c.Year); err != nil {
			return err
		}
		byID[c.ID] = c
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("resolve curricula: %w", err)
	}
	return ordered(ids, byID), nil
}

func (r *Repository) ResolveSpecializations(ctx context.Context, ids []string) ([]models.Specialization, error) {
	byID := make(map[string]models.Specialization, len(ids))
	err := r.queryIn(ctx, `SELECT id, name FROM specializations WHERE id IN (%s)`, ids, func(rows *sql.Rows) error {
		var s models.Specialization
		if err := rows.Scan(&s.ID, &s.Name); err != nil {
			return err
		}
		byID[s.ID] = s
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("resolve specializations: %w", err)
	}
	return ordered(ids, byID), nil
}

func (r *Repository) queryIn(ctx context.Context, query string, ids []string, scan func(*sql.Rows) error) error {
	if len(ids) == 0 {
		return nil
	}
	rows, err := r.db.QueryContext(ctx, fmt.Sprintf(query, placeholders(len(ids))), toArgs(ids)...)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		if err := scan(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}

// ordered раскладывает найденное в порядке запроса; повторный id даёт одну запись.
func ordered[T any](ids []string, byID map[string]T) []T {
	out := make([]T, 0, len(byID))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if v, ok := byID[id]; ok {
			out = append(out, v)
		}
	}
	return out
}

// ============================================================
// Upserts (seeding)
// ============================================================

func (r *Repository) UpsertCabinet(ctx context.Context, c models.Cabinet) error {
	_, err := r.db.ExecContext(ctx, `
        INSERT INTO cabinets (id, number, name, year, area) VALUES (?, ?, ?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET number = excluded.number, name = excluded.name,
            year = excluded.year, area = excluded.area
    `, c.ID, c.Number, c.Name, c.Year, c.Area)
	if err != nil {
		return fmt.Errorf("upsert cabinet %s: %w", c.ID, err)
	}
	return nil
}

func (r *Repository) UpsertCurriculum(ctx context.Context, c models.Curriculum) error {
	_, err := r.db.ExecContext(ctx, `
        INSERT INTO curricula (id, name, year) VALUES (?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET name = excluded.name, year = excluded.year
    `, c.ID, c.Name, c.Year)
	if err != nil {
		return fmt.Errorf("upsert curriculum %s: %w", c.ID, err)
	}
	return nil
}

func (r *Repository) UpsertSpecialization(ctx context.Context, s models.Specialization) error {
	_, err := r.db.ExecContext(ctx, `
        INSERT INTO specializations (id, name) VALUES (?, ?)
        ON CONFLICT(id) DO UPDATE SET name = excluded.name
    `, s.ID, s.Name)
	if err != nil {
		return fmt.Errorf("upsert specialization %s: %w", s.ID, err)
	}
	return nil
}
