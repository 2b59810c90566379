package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mesh-intelligence/workbench/pkg/types"
)

const subtaskColumns = "id, text, completed, task_id"

func scanSubtask(row rowScanner) (*types.Subtask, error) {
	var s types.Subtask
	err := row.Scan(&s.ID, &s.Text, &s.Completed, &s.TaskID)
	if err == sql.ErrNoRows {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning subtask: %w", err)
	}
	return &s, nil
}

func getSubtask(ctx context.Context, q querier, id int64) (*types.Subtask, error) {
	row := q.QueryRowContext(ctx, "SELECT "+subtaskColumns+" FROM subtasks WHERE id = ?", id)
	return scanSubtask(row)
}

func (b *Backend) listSubtasks(ctx context.Context, op, where string, args ...any) ([]types.Subtask, error) {
	rows, err := b.db.QueryContext(ctx, "SELECT "+subtaskColumns+" FROM subtasks"+where+" ORDER BY id", args...)
	if err != nil {
		return nil, types.Backend(op, err)
	}
	defer rows.Close()

	subtasks := []types.Subtask{}
	for rows.Next() {
		s, err := scanSubtask(rows)
		if err != nil {
			return nil, types.Backend(op, err)
		}
		subtasks = append(subtasks, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, types.Backend(op, err)
	}
	return subtasks, nil
}

func (b *Backend) GetAllSubtasks(ctx context.Context) ([]types.Subtask, error) {
	return b.listSubtasks(ctx, "get all subtasks", "")
}

func (b *Backend) GetSubtasksByTaskID(ctx context.Context, taskID int64) ([]types.Subtask, error) {
	return b.listSubtasks(ctx, "get subtasks by task", " WHERE task_id = ?", taskID)
}

func (b *Backend) GetSubtaskByID(ctx context.Context, id int64) (*types.Subtask, error) {
	s, err := getSubtask(ctx, b.db, id)
	if err != nil {
		return nil, types.Backend("get subtask", err)
	}
	return s, nil
}

func (b *Backend) CreateSubtask(ctx context.Context, in types.NewSubtask) (*types.Subtask, error) {
	var created *types.Subtask
	err := b.withTx(ctx, "create subtask", func(tx *sql.Tx) error {
		if err := checkTask(ctx, tx, in.TaskID); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx,
			"INSERT INTO subtasks (text, completed, task_id) VALUES (?, ?, ?)",
			in.Text, in.Completed, in.TaskID)
		if err != nil {
			return fmt.Errorf("inserting subtask: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		created = &types.Subtask{ID: id, Text: in.Text, Completed: in.Completed, TaskID: in.TaskID}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (b *Backend) UpdateSubtask(ctx context.Context, id int64, patch types.SubtaskPatch) (*types.Subtask, error) {
	var updated *types.Subtask
	err := b.withTx(ctx, "update subtask", func(tx *sql.Tx) error {
		s, err := getSubtask(ctx, tx, id)
		if err != nil {
			return err
		}
		patch.Apply(s)
		if _, err := tx.ExecContext(ctx,
			"UPDATE subtasks SET text = ?, completed = ? WHERE id = ?",
			s.Text, s.Completed, id); err != nil {
			return fmt.Errorf("updating subtask: %w", err)
		}
		updated = s
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (b *Backend) DeleteSubtask(ctx context.Context, id int64) (bool, error) {
	res, err := b.db.ExecContext(ctx, "DELETE FROM subtasks WHERE id = ?", id)
	if err != nil {
		return false, types.Backend("delete subtask", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, types.Backend("delete subtask", err)
	}
	return n > 0, nil
}
