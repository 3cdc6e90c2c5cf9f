package repository

import (
	"context"
	"database/sql"
	"fmt"

	"room-passport/internal/passport/models"
)

// ============================================================
// Stored schemas
// ============================================================

const schemaColumns = `id, owner_id, cabinet_id, scene_data, image_path, created_at`

func scanSchema(row rowScanner) (*models.StoredSchema, error) {
	var (
		s       models.StoredSchema
		scene   string
		created string
	)
	if err := row.Scan(&s.ID, &s.OwnerID, &s.CabinetID, &scene, &s.ImagePath, &created); err != nil {
		return nil, notFound(err)
	}
	s.SceneData = []byte(scene)
	s.CreatedAt = parseTime(created)
	return &s, nil
}

// CreateSchema сохраняет схему и добавляет её в список владельца одной транзакцией.
func (r *Repository) CreateSchema(ctx context.Context, s *models.StoredSchema) error {
	created := r.timestamp()
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
            INSERT INTO schemas (`+schemaColumns+`) VALUES (?, ?, ?, ?, ?, ?)
        `, s.ID, s.OwnerID, s.CabinetID, string(s.SceneData), s.ImagePath, created); err != nil {
			return fmt.Errorf("insert schema: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `
            INSERT OR IGNORE INTO user_schemas (user_id, schema_id) VALUES (?, ?)
        `, s.OwnerID, s.ID); err != nil {
			return fmt.Errorf("append user schema: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.CreatedAt = parseTime(created)
	return nil
}

func (r *Repository) GetSchema(ctx context.Context, id string) (*models.StoredSchema, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+schemaColumns+` FROM schemas WHERE id = ?`, id)
	return scanSchema(row)
}

// ListUserSchemas возвращает схемы из списка пользователя в порядке добавления.
func (r *Repository) ListUserSchemas(ctx context.Context, userID string) ([]models.StoredSchema, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT s.id, s.owner_id, s.cabinet_id, s.scene_data, s.image_path, s.created_at
        FROM user_schemas us
        JOIN schemas s ON s.id = us.schema_id
        WHERE us.user_id = ?
        ORDER BY us.seq
    `, userID)
	if err != nil {
		return nil, fmt.Errorf("list user schemas: %w", err)
	}
	defer rows.Close()

	var out []models.StoredSchema
	for rows.Next() {
		s, err := scanSchema(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}
