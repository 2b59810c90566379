// Package storetest holds the behavioral contract every types.Store backend
// must satisfy. Backends call Run from their own tests with a factory that
// returns a fresh, empty store.
package storetest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/workbench/pkg/types"
)

// Factory returns a new empty store. Run registers no cleanup of its own;
// the factory should close the store through t.Cleanup.
type Factory func(t *testing.T) types.Store

// Run executes the full contract against stores produced by open.
func Run(t *testing.T, open Factory) {
	tests := []struct {
		name string
		fn   func(t *testing.T, s types.Store)
	}{
		{"create then get returns assigned id and createdAt", testCreateThenGet},
		{"first task scenario", testFirstTaskScenario},
		{"delete cascades to children", testDeleteCascades},
		{"delete leaves other tasks alone", testDeleteIsolated},
		{"update completed changes only completed", testUpdateCompletedOnly},
		{"update missing task changes nothing", testUpdateMissing},
		{"update clears nullable fields", testUpdateClearsNullable},
		{"child creates require an existing task", testChildRequiresTask},
		{"requirement parent must share the task", testRequirementParent},
		{"ids are never reused", testIDsNotReused},
		{"get by task id returns empty slice", testByTaskIDEmpty},
		{"subtask update and delete", testSubtaskUpdateDelete},
		{"comment time is assigned", testCommentTime},
		{"users", testUsers},
		{"task user reference must exist", testTaskUserReference},
		{"get all returns id order", testGetAllOrder},
		{"returned records are copies", testReturnedCopies},
		{"concurrent creates get distinct ids", testConcurrentCreates},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.fn(t, open(t))
		})
	}
}

func ptr[T any](v T) *T { return &v }

func sampleTask(title string) types.NewTask {
	return types.NewTask{
		Title:       title,
		Description: "d",
		Priority:    types.PriorityLow,
		Project:     "P",
		Group:       types.GroupToday,
	}
}

func mustTask(t *testing.T, s types.Store, in types.NewTask) *types.Task {
	t.Helper()
	task, err := s.CreateTask(context.Background(), in)
	require.NoError(t, err)
	return task
}

func assertTaskMatches(t *testing.T, in types.NewTask, got *types.Task) {
	t.Helper()
	assert.Equal(t, in.Title, got.Title)
	assert.Equal(t, in.Description, got.Description)
	assert.Equal(t, in.Priority, got.Priority)
	assert.Equal(t, in.Completed, got.Completed)
	assert.Equal(t, in.Project, got.Project)
	assert.Equal(t, in.Group, got.Group)
	assert.Equal(t, in.HasGoogleAnalytics, got.HasGoogleAnalytics)
	assert.Equal(t, in.DueTime, got.DueTime)
	assert.Equal(t, in.UserID, got.UserID)
	if in.DueDate == nil {
		assert.Nil(t, got.DueDate)
	} else if assert.NotNil(t, got.DueDate) {
		assert.True(t, in.DueDate.Equal(*got.DueDate), "dueDate %v != %v", *in.DueDate, *got.DueDate)
	}
}

func testCreateThenGet(t *testing.T, s types.Store) {
	ctx := context.Background()
	in := sampleTask("Update landing page design")
	in.Priority = types.PriorityHigh
	in.DueDate = ptr(time.Date(2025, 4, 20, 14, 0, 0, 0, time.UTC))
	in.DueTime = ptr("2:00 PM")
	in.HasGoogleAnalytics = true

	before := time.Now().Add(-time.Second)
	created, err := s.CreateTask(ctx, in)
	require.NoError(t, err)
	after := time.Now().Add(time.Second)

	assert.Positive(t, created.ID)
	assert.True(t, created.CreatedAt.After(before) && created.CreatedAt.Before(after),
		"createdAt %v outside [%v, %v]", created.CreatedAt, before, after)
	assertTaskMatches(t, in, created)

	got, err := s.GetTaskByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.True(t, created.CreatedAt.Equal(got.CreatedAt))
	assertTaskMatches(t, in, got)
}

func testFirstTaskScenario(t *testing.T, s types.Store) {
	ctx := context.Background()
	created := mustTask(t, s, sampleTask("A"))
	assert.Equal(t, int64(1), created.ID)
	assert.False(t, created.Completed)
	assert.WithinDuration(t, time.Now(), created.CreatedAt, 5*time.Second)

	existed, err := s.DeleteTask(ctx, 1)
	require.NoError(t, err)
	assert.True(t, existed)

	_, err = s.GetTaskByID(ctx, 1)
	assert.ErrorIs(t, err, types.ErrNotFound)

	existed, err = s.DeleteTask(ctx, 1)
	require.NoError(t, err)
	assert.False(t, existed)
}

func populate(t *testing.T, s types.Store, taskID int64) {
	t.Helper()
	ctx := context.Background()
	for _, text := range []string{"Sketch wireframes", "Create mockup"} {
		_, err := s.CreateSubtask(ctx, types.NewSubtask{Text: text, TaskID: taskID})
		require.NoError(t, err)
	}
	_, err := s.CreateComment(ctx, types.NewComment{Author: "James", Text: "Looks good", TaskID: taskID})
	require.NoError(t, err)
	root, err := s.CreateRequirement(ctx, types.NewRequirement{Text: "Configure events", TaskID: taskID})
	require.NoError(t, err)
	_, err = s.CreateRequirement(ctx, types.NewRequirement{Text: "Newsletter signups", ParentID: &root.ID, TaskID: taskID})
	require.NoError(t, err)
}

func testDeleteCascades(t *testing.T, s types.Store) {
	ctx := context.Background()
	task := mustTask(t, s, sampleTask("A"))
	populate(t, s, task.ID)

	subs, err := s.GetSubtasksByTaskID(ctx, task.ID)
	require.NoError(t, err)
	require.Len(t, subs, 2)

	existed, err := s.DeleteTask(ctx, task.ID)
	require.NoError(t, err)
	require.True(t, existed)

	subs, err = s.GetSubtasksByTaskID(ctx, task.ID)
	require.NoError(t, err)
	assert.Empty(t, subs)
	comments, err := s.GetCommentsByTaskID(ctx, task.ID)
	require.NoError(t, err)
	assert.Empty(t, comments)
	reqs, err := s.GetRequirementsByTaskID(ctx, task.ID)
	require.NoError(t, err)
	assert.Empty(t, reqs)

	allSubs, err := s.GetAllSubtasks(ctx)
	require.NoError(t, err)
	assert.Empty(t, allSubs)
	allComments, err := s.GetAllComments(ctx)
	require.NoError(t, err)
	assert.Empty(t, allComments)
	allReqs, err := s.GetAllRequirements(ctx)
	require.NoError(t, err)
	assert.Empty(t, allReqs)

	_, err = s.GetTaskByID(ctx, task.ID)
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func testDeleteIsolated(t *testing.T, s types.Store) {
	ctx := context.Background()
	doomed := mustTask(t, s, sampleTask("doomed"))
	kept := mustTask(t, s, sampleTask("kept"))
	populate(t, s, doomed.ID)
	populate(t, s, kept.ID)

	_, err := s.DeleteTask(ctx, doomed.ID)
	require.NoError(t, err)

	subs, err := s.GetSubtasksByTaskID(ctx, kept.ID)
	require.NoError(t, err)
	assert.Len(t, subs, 2)
	comments, err := s.GetCommentsByTaskID(ctx, kept.ID)
	require.NoError(t, err)
	assert.Len(t, comments, 1)
	reqs, err := s.GetRequirementsByTaskID(ctx, kept.ID)
	require.NoError(t, err)
	assert.Len(t, reqs, 2)

	tasks, err := s.GetAllTasks(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, kept.ID, tasks[0].ID)
}

func testUpdateCompletedOnly(t *testing.T, s types.Store) {
	ctx := context.Background()
	in := sampleTask("A")
	in.DueTime = ptr("10:00 AM")
	created := mustTask(t, s, in)

	patch := types.TaskPatch{Completed: types.Some(true)}
	first, err := s.UpdateTask(ctx, created.ID, patch)
	require.NoError(t, err)
	assert.True(t, first.Completed)
	assert.Equal(t, created.ID, first.ID)
	assert.True(t, created.CreatedAt.Equal(first.CreatedAt))
	in.Completed = true
	assertTaskMatches(t, in, first)

	second, err := s.UpdateTask(ctx, created.ID, patch)
	require.NoError(t, err)
	assertTaskMatches(t, in, second)

	stored, err := s.GetTaskByID(ctx, created.ID)
	require.NoError(t, err)
	assertTaskMatches(t, in, stored)
	assert.True(t, created.CreatedAt.Equal(stored.CreatedAt))
}

func testUpdateMissing(t *testing.T, s types.Store) {
	ctx := context.Background()
	mustTask(t, s, sampleTask("A"))

	_, err := s.UpdateTask(ctx, 999, types.TaskPatch{Title: types.Some("B")})
	assert.ErrorIs(t, err, types.ErrNotFound)

	tasks, err := s.GetAllTasks(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "A", tasks[0].Title)
}

func testUpdateClearsNullable(t *testing.T, s types.Store) {
	ctx := context.Background()
	in := sampleTask("A")
	in.DueDate = ptr(time.Date(2025, 4, 21, 0, 0, 0, 0, time.UTC))
	in.DueTime = ptr("5:00 PM")
	created := mustTask(t, s, in)

	updated, err := s.UpdateTask(ctx, created.ID, types.TaskPatch{
		DueDate:  types.Some[*time.Time](nil),
		Title:    types.Some("Renamed"),
		Priority: types.Some(types.PriorityUrgent),
	})
	require.NoError(t, err)
	assert.Nil(t, updated.DueDate)
	assert.Equal(t, "Renamed", updated.Title)
	assert.Equal(t, types.PriorityUrgent, updated.Priority)
	require.NotNil(t, updated.DueTime)
	assert.Equal(t, "5:00 PM", *updated.DueTime)
}

func testChildRequiresTask(t *testing.T, s types.Store) {
	ctx := context.Background()
	var ref *types.ReferenceError

	_, err := s.CreateSubtask(ctx, types.NewSubtask{Text: "orphan", TaskID: 42})
	require.True(t, errors.As(err, &ref), "got %v", err)
	assert.Equal(t, "taskId", ref.Field)

	_, err = s.CreateComment(ctx, types.NewComment{Author: "a", Text: "orphan", TaskID: 42})
	require.True(t, errors.As(err, &ref), "got %v", err)
	assert.Equal(t, "taskId", ref.Field)

	_, err = s.CreateRequirement(ctx, types.NewRequirement{Text: "orphan", TaskID: 42})
	require.True(t, errors.As(err, &ref), "got %v", err)
	assert.Equal(t, "taskId", ref.Field)

	subs, err := s.GetAllSubtasks(ctx)
	require.NoError(t, err)
	assert.Empty(t, subs)
	comments, err := s.GetAllComments(ctx)
	require.NoError(t, err)
	assert.Empty(t, comments)
	reqs, err := s.GetAllRequirements(ctx)
	require.NoError(t, err)
	assert.Empty(t, reqs)
}

func testRequirementParent(t *testing.T, s types.Store) {
	ctx := context.Background()
	a := mustTask(t, s, sampleTask("A"))
	b := mustTask(t, s, sampleTask("B"))

	root, err := s.CreateRequirement(ctx, types.NewRequirement{Text: "root", TaskID: a.ID})
	require.NoError(t, err)
	assert.Nil(t, root.ParentID)

	child, err := s.CreateRequirement(ctx, types.NewRequirement{Text: "child", ParentID: &root.ID, TaskID: a.ID})
	require.NoError(t, err)
	require.NotNil(t, child.ParentID)
	assert.Equal(t, root.ID, *child.ParentID)

	grandchild, err := s.CreateRequirement(ctx, types.NewRequirement{Text: "grandchild", ParentID: &child.ID, TaskID: a.ID})
	require.NoError(t, err)
	got, err := s.GetRequirementByID(ctx, grandchild.ID)
	require.NoError(t, err)
	assert.Equal(t, child.ID, *got.ParentID)

	var ref *types.ReferenceError
	_, err = s.CreateRequirement(ctx, types.NewRequirement{Text: "cross", ParentID: &root.ID, TaskID: b.ID})
	require.True(t, errors.As(err, &ref), "got %v", err)
	assert.Equal(t, "parentId", ref.Field)

	_, err = s.CreateRequirement(ctx, types.NewRequirement{Text: "dangling", ParentID: ptr(int64(999)), TaskID: a.ID})
	require.True(t, errors.As(err, &ref), "got %v", err)
	assert.Equal(t, "parentId", ref.Field)

	reqs, err := s.GetRequirementsByTaskID(ctx, b.ID)
	require.NoError(t, err)
	assert.Empty(t, reqs)
}

func testIDsNotReused(t *testing.T, s types.Store) {
	ctx := context.Background()
	first := mustTask(t, s, sampleTask("A"))
	second := mustTask(t, s, sampleTask("B"))
	assert.Greater(t, second.ID, first.ID)

	sub, err := s.CreateSubtask(ctx, types.NewSubtask{Text: "x", TaskID: second.ID})
	require.NoError(t, err)

	_, err = s.DeleteTask(ctx, second.ID)
	require.NoError(t, err)

	third := mustTask(t, s, sampleTask("C"))
	assert.Greater(t, third.ID, second.ID)

	sub2, err := s.CreateSubtask(ctx, types.NewSubtask{Text: "y", TaskID: third.ID})
	require.NoError(t, err)
	assert.Greater(t, sub2.ID, sub.ID)
}

func testByTaskIDEmpty(t *testing.T, s types.Store) {
	ctx := context.Background()
	task := mustTask(t, s, sampleTask("A"))

	for _, id := range []int64{task.ID, 12345} {
		subs, err := s.GetSubtasksByTaskID(ctx, id)
		require.NoError(t, err)
		assert.NotNil(t, subs)
		assert.Empty(t, subs)

		comments, err := s.GetCommentsByTaskID(ctx, id)
		require.NoError(t, err)
		assert.NotNil(t, comments)
		assert.Empty(t, comments)

		reqs, err := s.GetRequirementsByTaskID(ctx, id)
		require.NoError(t, err)
		assert.NotNil(t, reqs)
		assert.Empty(t, reqs)
	}
}

func testSubtaskUpdateDelete(t *testing.T, s types.Store) {
	ctx := context.Background()
	task := mustTask(t, s, sampleTask("A"))
	sub, err := s.CreateSubtask(ctx, types.NewSubtask{Text: "Sketch", TaskID: task.ID})
	require.NoError(t, err)
	assert.False(t, sub.Completed)
	assert.Equal(t, task.ID, sub.TaskID)

	updated, err := s.UpdateSubtask(ctx, sub.ID, types.SubtaskPatch{Completed: types.Some(true)})
	require.NoError(t, err)
	assert.True(t, updated.Completed)
	assert.Equal(t, "Sketch", updated.Text)

	updated, err = s.UpdateSubtask(ctx, sub.ID, types.SubtaskPatch{Text: types.Some("Sketch v2")})
	require.NoError(t, err)
	assert.True(t, updated.Completed)
	assert.Equal(t, "Sketch v2", updated.Text)

	_, err = s.UpdateSubtask(ctx, 999, types.SubtaskPatch{Completed: types.Some(true)})
	assert.ErrorIs(t, err, types.ErrNotFound)

	existed, err := s.DeleteSubtask(ctx, sub.ID)
	require.NoError(t, err)
	assert.True(t, existed)
	existed, err = s.DeleteSubtask(ctx, sub.ID)
	require.NoError(t, err)
	assert.False(t, existed)

	_, err = s.GetSubtaskByID(ctx, sub.ID)
	assert.ErrorIs(t, err, types.ErrNotFound)

	_, err = s.GetTaskByID(ctx, task.ID)
	assert.NoError(t, err, "deleting a subtask leaves its task")
}

func testCommentTime(t *testing.T, s types.Store) {
	ctx := context.Background()
	task := mustTask(t, s, sampleTask("A"))
	c, err := s.CreateComment(ctx, types.NewComment{Author: "James Wilson", Text: "Shared designs", TaskID: task.ID})
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), c.Time, 5*time.Second)

	got, err := s.GetCommentByID(ctx, c.ID)
	require.NoError(t, err)
	assert.True(t, c.Time.Equal(got.Time))
	assert.Equal(t, "James Wilson", got.Author)
	assert.Equal(t, task.ID, got.TaskID)

	_, err = s.GetCommentByID(ctx, 999)
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func testUsers(t *testing.T, s types.Store) {
	ctx := context.Background()
	u, err := s.CreateUser(ctx, types.NewUser{Username: "marketing", Password: "secret"})
	require.NoError(t, err)
	assert.Positive(t, u.ID)

	got, err := s.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, *u, *got)

	byName, err := s.GetUserByUsername(ctx, "marketing")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byName.ID)

	_, err = s.CreateUser(ctx, types.NewUser{Username: "marketing", Password: "other"})
	assert.ErrorIs(t, err, types.ErrDuplicate)

	_, err = s.GetUser(ctx, 999)
	assert.ErrorIs(t, err, types.ErrNotFound)
	_, err = s.GetUserByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func testTaskUserReference(t *testing.T, s types.Store) {
	ctx := context.Background()
	var ref *types.ReferenceError

	in := sampleTask("A")
	in.UserID = ptr(int64(77))
	_, err := s.CreateTask(ctx, in)
	require.True(t, errors.As(err, &ref), "got %v", err)
	assert.Equal(t, "userId", ref.Field)

	u, err := s.CreateUser(ctx, types.NewUser{Username: "owner", Password: "pw"})
	require.NoError(t, err)
	in.UserID = &u.ID
	task := mustTask(t, s, in)
	assert.Equal(t, u.ID, *task.UserID)

	_, err = s.UpdateTask(ctx, task.ID, types.TaskPatch{UserID: types.Some(ptr(int64(78)))})
	require.True(t, errors.As(err, &ref), "got %v", err)

	cleared, err := s.UpdateTask(ctx, task.ID, types.TaskPatch{UserID: types.Some[*int64](nil)})
	require.NoError(t, err)
	assert.Nil(t, cleared.UserID)
}

func testGetAllOrder(t *testing.T, s types.Store) {
	ctx := context.Background()
	for _, title := range []string{"one", "two", "three"} {
		mustTask(t, s, sampleTask(title))
	}
	tasks, err := s.GetAllTasks(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 3)
	for i := 1; i < len(tasks); i++ {
		assert.Less(t, tasks[i-1].ID, tasks[i].ID)
	}
	assert.Equal(t, "one", tasks[0].Title)
}

func testReturnedCopies(t *testing.T, s types.Store) {
	ctx := context.Background()
	in := sampleTask("A")
	in.DueTime = ptr("2:00 PM")
	created := mustTask(t, s, in)
	created.Title = "mutated"
	*created.DueTime = "mutated"

	got, err := s.GetTaskByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "A", got.Title)
	assert.Equal(t, "2:00 PM", *got.DueTime)
}

func testConcurrentCreates(t *testing.T, s types.Store) {
	ctx := context.Background()
	task := mustTask(t, s, sampleTask("A"))

	const n = 20
	ids := make([]int64, n)
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sub, err := s.CreateSubtask(ctx, types.NewSubtask{Text: "concurrent", TaskID: task.ID})
			errs[i] = err
			if err == nil {
				ids[i] = sub.ID
			}
		}(i)
	}
	wg.Wait()

	seen := make(map[int64]bool, n)
	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		assert.False(t, seen[ids[i]], "duplicate id %d", ids[i])
		seen[ids[i]] = true
	}
	subs, err := s.GetSubtasksByTaskID(ctx, task.ID)
	require.NoError(t, err)
	assert.Len(t, subs, n)
}
