package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mesh-intelligence/workbench/pkg/types"
)

const taskColumns = `id, title, description, priority, completed, created_at, due_date, due_time,
	project, task_group, has_google_analytics, user_id`

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*types.Task, error) {
	var (
		t         types.Task
		createdAt string
		dueDate   sql.NullString
		dueTime   sql.NullString
		userID    sql.NullInt64
	)
	err := row.Scan(&t.ID, &t.Title, &t.Description, &t.Priority, &t.Completed, &createdAt,
		&dueDate, &dueTime, &t.Project, &t.Group, &t.HasGoogleAnalytics, &userID)
	if err == sql.ErrNoRows {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning task: %w", err)
	}
	t.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("parsing task created_at: %w", err)
	}
	t.DueDate, err = timePtr(dueDate)
	if err != nil {
		return nil, fmt.Errorf("parsing task due_date: %w", err)
	}
	t.DueTime = stringPtr(dueTime)
	t.UserID = int64Ptr(userID)
	return &t, nil
}

func getTask(ctx context.Context, q querier, id int64) (*types.Task, error) {
	row := q.QueryRowContext(ctx, "SELECT "+taskColumns+" FROM tasks WHERE id = ?", id)
	return scanTask(row)
}

func checkUser(ctx context.Context, q querier, userID *int64) error {
	if userID == nil {
		return nil
	}
	ok, err := exists(ctx, q, "users", *userID)
	if err != nil {
		return err
	}
	if !ok {
		return &types.ReferenceError{Field: "userId", ID: *userID}
	}
	return nil
}

func checkTask(ctx context.Context, q querier, taskID int64) error {
	ok, err := exists(ctx, q, "tasks", taskID)
	if err != nil {
		return err
	}
	if !ok {
		return &types.ReferenceError{Field: "taskId", ID: taskID}
	}
	return nil
}

func (b *Backend) GetAllTasks(ctx context.Context) ([]types.Task, error) {
	rows, err := b.db.QueryContext(ctx, "SELECT "+taskColumns+" FROM tasks ORDER BY id")
	if err != nil {
		return nil, types.Backend("get all tasks", err)
	}
	defer rows.Close()

	tasks := []types.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, types.Backend("get all tasks", err)
		}
		tasks = append(tasks, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, types.Backend("get all tasks", err)
	}
	return tasks, nil
}

func (b *Backend) GetTaskByID(ctx context.Context, id int64) (*types.Task, error) {
	t, err := getTask(ctx, b.db, id)
	if err != nil {
		return nil, types.Backend("get task", err)
	}
	return t, nil
}

func (b *Backend) CreateTask(ctx context.Context, in types.NewTask) (*types.Task, error) {
	var created *types.Task
	err := b.withTx(ctx, "create task", func(tx *sql.Tx) error {
		if err := checkUser(ctx, tx, in.UserID); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, `INSERT INTO tasks
			(title, description, priority, completed, created_at, due_date, due_time,
			 project, task_group, has_google_analytics, user_id)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			in.Title, in.Description, string(in.Priority), in.Completed, formatTime(b.now()),
			nullTime(in.DueDate), nullString(in.DueTime), in.Project, string(in.Group),
			in.HasGoogleAnalytics, nullInt64(in.UserID))
		if err != nil {
			return fmt.Errorf("inserting task: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		created, err = getTask(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// UpdateTask reads, merges and writes the task in one transaction.
func (b *Backend) UpdateTask(ctx context.Context, id int64, patch types.TaskPatch) (*types.Task, error) {
	var updated *types.Task
	err := b.withTx(ctx, "update task", func(tx *sql.Tx) error {
		t, err := getTask(ctx, tx, id)
		if err != nil {
			return err
		}
		if patch.UserID.Set {
			if err := checkUser(ctx, tx, patch.UserID.Value); err != nil {
				return err
			}
		}
		patch.Apply(t)
		_, err = tx.ExecContext(ctx, `UPDATE tasks SET
			title = ?, description = ?, priority = ?, completed = ?, due_date = ?, due_time = ?,
			project = ?, task_group = ?, has_google_analytics = ?, user_id = ?
			WHERE id = ?`,
			t.Title, t.Description, string(t.Priority), t.Completed, nullTime(t.DueDate),
			nullString(t.DueTime), t.Project, string(t.Group), t.HasGoogleAnalytics,
			nullInt64(t.UserID), id)
		if err != nil {
			return fmt.Errorf("updating task: %w", err)
		}
		updated = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteTask removes the task and its subtasks, comments and requirements
// in one transaction. The explicit child deletes keep the cascade intact
// even on a connection where foreign keys are off.
func (b *Backend) DeleteTask(ctx context.Context, id int64) (bool, error) {
	var existed bool
	err := b.withTx(ctx, "delete task", func(tx *sql.Tx) error {
		ok, err := exists(ctx, tx, "tasks", id)
		if err != nil || !ok {
			return err
		}
		for _, stmt := range []string{
			"DELETE FROM requirements WHERE task_id = ?",
			"DELETE FROM comments WHERE task_id = ?",
			"DELETE FROM subtasks WHERE task_id = ?",
			"DELETE FROM tasks WHERE id = ?",
		} {
			if _, err := tx.ExecContext(ctx, stmt, id); err != nil {
				return fmt.Errorf("cascading task delete: %w", err)
			}
		}
		existed = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return existed, nil
}
