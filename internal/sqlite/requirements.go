package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mesh-intelligence/workbench/pkg/types"
)

const requirementColumns = "id, text, parent_id, task_id"

func scanRequirement(row rowScanner) (*types.Requirement, error) {
	var (
		r      types.Requirement
		parent sql.NullInt64
	)
	err := row.Scan(&r.ID, &r.Text, &parent, &r.TaskID)
	if err == sql.ErrNoRows {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning requirement: %w", err)
	}
	r.ParentID = int64Ptr(parent)
	return &r, nil
}

func (b *Backend) listRequirements(ctx context.Context, op, where string, args ...any) ([]types.Requirement, error) {
	rows, err := b.db.QueryContext(ctx, "SELECT "+requirementColumns+" FROM requirements"+where+" ORDER BY id", args...)
	if err != nil {
		return nil, types.Backend(op, err)
	}
	defer rows.Close()

	reqs := []types.Requirement{}
	for rows.Next() {
		r, err := scanRequirement(rows)
		if err != nil {
			return nil, types.Backend(op, err)
		}
		reqs = append(reqs, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, types.Backend(op, err)
	}
	return reqs, nil
}

func (b *Backend) GetAllRequirements(ctx context.Context) ([]types.Requirement, error) {
	return b.listRequirements(ctx, "get all requirements", "")
}

func (b *Backend) GetRequirementsByTaskID(ctx context.Context, taskID int64) ([]types.Requirement, error) {
	return b.listRequirements(ctx, "get requirements by task", " WHERE task_id = ?", taskID)
}

func (b *Backend) GetRequirementByID(ctx context.Context, id int64) (*types.Requirement, error) {
	row := b.db.QueryRowContext(ctx, "SELECT "+requirementColumns+" FROM requirements WHERE id = ?", id)
	r, err := scanRequirement(row)
	if err != nil {
		return nil, types.Backend("get requirement", err)
	}
	return r, nil
}

// CreateRequirement inserts a requirement. A parent must belong to the
// same task.
func (b *Backend) CreateRequirement(ctx context.Context, in types.NewRequirement) (*types.Requirement, error) {
	var created *types.Requirement
	err := b.withTx(ctx, "create requirement", func(tx *sql.Tx) error {
		if err := checkTask(ctx, tx, in.TaskID); err != nil {
			return err
		}
		if in.ParentID != nil {
			var one int
			err := tx.QueryRowContext(ctx,
				"SELECT 1 FROM requirements WHERE id = ? AND task_id = ?",
				*in.ParentID, in.TaskID).Scan(&one)
			if err == sql.ErrNoRows {
				return &types.ReferenceError{Field: "parentId", ID: *in.ParentID}
			}
			if err != nil {
				return err
			}
		}
		res, err := tx.ExecContext(ctx,
			"INSERT INTO requirements (text, parent_id, task_id) VALUES (?, ?, ?)",
			in.Text, nullInt64(in.ParentID), in.TaskID)
		if err != nil {
			return fmt.Errorf("inserting requirement: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		r := types.Requirement{ID: id, Text: in.Text, ParentID: in.ParentID, TaskID: in.TaskID}.Clone()
		created = &r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}
