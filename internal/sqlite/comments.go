package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mesh-intelligence/workbench/pkg/types"
)

const commentColumns = "id, author, text, time, task_id"

func scanComment(row rowScanner) (*types.Comment, error) {
	var (
		c  types.Comment
		at string
	)
	err := row.Scan(&c.ID, &c.Author, &c.Text, &at, &c.TaskID)
	if err == sql.ErrNoRows {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning comment: %w", err)
	}
	if c.Time, err = parseTime(at); err != nil {
		return nil, fmt.Errorf("parsing comment time: %w", err)
	}
	return &c, nil
}

func (b *Backend) listComments(ctx context.Context, op, where string, args ...any) ([]types.Comment, error) {
	rows, err := b.db.QueryContext(ctx, "SELECT "+commentColumns+" FROM comments"+where+" ORDER BY id", args...)
	if err != nil {
		return nil, types.Backend(op, err)
	}
	defer rows.Close()

	comments := []types.Comment{}
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, types.Backend(op, err)
		}
		comments = append(comments, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, types.Backend(op, err)
	}
	return comments, nil
}

func (b *Backend) GetAllComments(ctx context.Context) ([]types.Comment, error) {
	return b.listComments(ctx, "get all comments", "")
}

func (b *Backend) GetCommentsByTaskID(ctx context.Context, taskID int64) ([]types.Comment, error) {
	return b.listComments(ctx, "get comments by task", " WHERE task_id = ?", taskID)
}

func (b *Backend) GetCommentByID(ctx context.Context, id int64) (*types.Comment, error) {
	row := b.db.QueryRowContext(ctx, "SELECT "+commentColumns+" FROM comments WHERE id = ?", id)
	c, err := scanComment(row)
	if err != nil {
		return nil, types.Backend("get comment", err)
	}
	return c, nil
}

func (b *Backend) CreateComment(ctx context.Context, in types.NewComment) (*types.Comment, error) {
	var created *types.Comment
	err := b.withTx(ctx, "create comment", func(tx *sql.Tx) error {
		if err := checkTask(ctx, tx, in.TaskID); err != nil {
			return err
		}
		at := b.now()
		res, err := tx.ExecContext(ctx,
			"INSERT INTO comments (author, text, time, task_id) VALUES (?, ?, ?, ?)",
			in.Author, in.Text, formatTime(at), in.TaskID)
		if err != nil {
			return fmt.Errorf("inserting comment: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		created = &types.Comment{ID: id, Author: in.Author, Text: in.Text, Time: at, TaskID: in.TaskID}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}
