package repository

import (
	"context"
	"fmt"

	"room-passport/internal/passport/models"
)

// ============================================================
// Reconciliation tasks
// ============================================================

func (r *Repository) AddReconciliationTask(ctx context.Context, t *models.ReconciliationTask) error {
	created := r.timestamp()
	_, err := r.db.ExecContext(ctx, `
        INSERT INTO reconciliation_tasks (id, kind, user_id, passport_id, attempts, last_error, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?)
    `, t.ID, string(t.Kind), t.UserID, t.PassportID, t.Attempts, t.LastError, created)
	if err != nil {
		return fmt.Errorf("insert reconciliation task: %w", err)
	}
	t.CreatedAt = parseTime(created)
	return nil
}

func (r *Repository) PendingReconciliationTasks(ctx context.Context) ([]models.ReconciliationTask, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT id, kind, user_id, passport_id, attempts, last_error, created_at
        FROM reconciliation_tasks
        ORDER BY created_at, id
    `)
	if err != nil {
		return nil, fmt.Errorf("list reconciliation tasks: %w", err)
	}
	defer rows.Close()

	var out []models.ReconciliationTask
	for rows.Next() {
		var (
			t       models.ReconciliationTask
			kind    string
			created string
		)
		if err := rows.Scan(&t.ID, &kind, &t.UserID, &t.PassportID, &t.Attempts, &t.LastError, &created); err != nil {
			return nil, err
		}
		t.Kind = models.TaskKind(kind)
		t.CreatedAt = parseTime(created)
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *Repository) CompleteReconciliationTask(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM reconciliation_tasks WHERE id = ?`, id); err != nil {
		return fmt.Errorf("complete reconciliation task: %w", err)
	}
	return nil
}

func (r *Repository) FailReconciliationTask(ctx context.Context, id string, cause error) error {
	_, err := r.db.ExecContext(ctx, `
        UPDATE reconciliation_tasks SET attempts = attempts + 1, last_error = ? WHERE id = ?
    `, cause.Error(), id)
	if err != nil {
		return fmt.Errorf("fail reconciliation task: %w", err)
	}
	return nil
}

// CancelReconciliationTasks снимает все отложенные задачи по паспорту.
func (r *Repository) CancelReconciliationTasks(ctx context.Context, passportID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM reconciliation_tasks WHERE passport_id = ?`, passportID); err != nil {
		return fmt.Errorf("cancel reconciliation tasks: %w", err)
	}
	return nil
}
