package sqlite

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/workbench/internal/storetest"
	"github.com/mesh-intelligence/workbench/pkg/types"
)

func openTestBackend(t *testing.T, dataDir string) *Backend {
	t.Helper()
	b, err := Open(types.Config{Backend: types.BackendSQLite, DataDir: dataDir})
	require.NoError(t, err)
	t.Cleanup(func() { b.Close() })
	return b
}

func TestStoreContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) types.Store {
		return openTestBackend(t, t.TempDir())
	})
}

func TestOpen_CreatesDatabaseFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")
	b := openTestBackend(t, dir)

	assert.Equal(t, filepath.Join(dir, DBFileName), b.Path())
	_, err := os.Stat(b.Path())
	assert.NoError(t, err)
}

func TestOpen_RejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  types.Config
		want error
	}{
		{"empty backend", types.Config{DataDir: t.TempDir()}, types.ErrBackendEmpty},
		{"unknown backend", types.Config{Backend: "postgres", DataDir: t.TempDir()}, types.ErrBackendUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Open(tt.cfg)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestClose_Idempotent(t *testing.T) {
	b, err := Open(types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()})
	require.NoError(t, err)

	assert.NoError(t, b.Close())
	assert.NoError(t, b.Close())
}

func TestPersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	b, err := Open(types.Config{Backend: types.BackendSQLite, DataDir: dir})
	require.NoError(t, err)

	due := "2:00 PM"
	task, err := b.CreateTask(ctx, types.NewTask{
		Title:    "Write release notes",
		Priority: types.PriorityHigh,
		Group:    types.GroupToday,
		Project:  "Docs",
		DueTime:  &due,
	})
	require.NoError(t, err)
	_, err = b.CreateSubtask(ctx, types.NewSubtask{Text: "draft", TaskID: task.ID})
	require.NoError(t, err)
	require.NoError(t, b.Close())

	reopened := openTestBackend(t, dir)
	got, err := reopened.GetTaskByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, *task, *got)

	subtasks, err := reopened.GetSubtasksByTaskID(ctx, task.ID)
	require.NoError(t, err)
	require.Len(t, subtasks, 1)
	assert.Equal(t, "draft", subtasks[0].Text)

	// AUTOINCREMENT keeps ids monotonic across restarts.
	next, err := reopened.CreateTask(ctx, types.NewTask{Title: "next", Priority: types.PriorityLow, Group: types.GroupLater})
	require.NoError(t, err)
	assert.Greater(t, next.ID, task.ID)
}

func TestMigrations(t *testing.T) {
	dir := t.TempDir()
	path := DBPath(dir)

	require.NoError(t, MigrateUp(path, nil))
	version, dirty, err := MigrationVersion(path)
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
	assert.False(t, dirty)

	// Applying again is a no-op.
	require.NoError(t, MigrateUp(path, nil))

	require.NoError(t, MigrateDown(path))
	version, _, err = MigrationVersion(path)
	require.NoError(t, err)
	assert.Equal(t, uint(0), version)

	// The schema comes back after a rollback.
	b := openTestBackend(t, dir)
	tasks, err := b.GetAllTasks(context.Background())
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestDBPath_DefaultsToWorkingDir(t *testing.T) {
	assert.Equal(t, DBFileName, DBPath(""))
}

func TestClosedBackend_ReturnsBackendError(t *testing.T) {
	ctx := context.Background()
	b := openTestBackend(t, t.TempDir())
	task, err := b.CreateTask(ctx, types.NewTask{Title: "t", Priority: types.PriorityLow, Group: types.GroupToday})
	require.NoError(t, err)
	require.NoError(t, b.Close())

	ops := []struct {
		name string
		call func() error
	}{
		{"get all tasks", func() error { _, err := b.GetAllTasks(ctx); return err }},
		{"get task", func() error { _, err := b.GetTaskByID(ctx, task.ID); return err }},
		{"create task", func() error {
			_, err := b.CreateTask(ctx, types.NewTask{Title: "u", Priority: types.PriorityLow, Group: types.GroupToday})
			return err
		}},
		{"update task", func() error {
			_, err := b.UpdateTask(ctx, task.ID, types.TaskPatch{Completed: types.Some(true)})
			return err
		}},
		{"delete task", func() error { _, err := b.DeleteTask(ctx, task.ID); return err }},
		{"create subtask", func() error {
			_, err := b.CreateSubtask(ctx, types.NewSubtask{Text: "s", TaskID: task.ID})
			return err
		}},
		{"subtasks by task", func() error { _, err := b.GetSubtasksByTaskID(ctx, task.ID); return err }},
	}
	for _, op := range ops {
		t.Run(op.name, func(t *testing.T) {
			err := op.call()
			require.Error(t, err)

			var be *types.BackendError
			assert.True(t, errors.As(err, &be), "got %T: %v", err, err)
			assert.NotErrorIs(t, err, types.ErrNotFound)
		})
	}
}
