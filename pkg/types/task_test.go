package types

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTask() Task {
	due := time.Date(2025, 4, 20, 0, 0, 0, 0, time.UTC)
	dueTime := "2:00 PM"
	return Task{
		ID:          7,
		Title:       "Update landing page design",
		Description: "Redesign the hero section",
		Priority:    PriorityHigh,
		CreatedAt:   time.Date(2025, 4, 19, 9, 0, 0, 0, time.UTC),
		DueDate:     &due,
		DueTime:     &dueTime,
		Project:     "Website Redesign",
		Group:       GroupToday,
	}
}

func TestTaskPatchApply(t *testing.T) {
	t.Run("completed only changes completed", func(t *testing.T) {
		got := sampleTask()
		want := sampleTask()
		want.Completed = true

		patch := TaskPatch{Completed: Some(true)}
		patch.Apply(&got)
		assert.Equal(t, want, got)

		patch.Apply(&got)
		assert.Equal(t, want, got, "applying twice yields the same state")
	})

	t.Run("nil clears nullable fields", func(t *testing.T) {
		got := sampleTask()
		patch := TaskPatch{
			DueDate: Some[*time.Time](nil),
			DueTime: Some[*string](nil),
		}
		patch.Apply(&got)
		assert.Nil(t, got.DueDate)
		assert.Nil(t, got.DueTime)
		assert.Equal(t, "Update landing page design", got.Title)
	})

	t.Run("empty patch leaves task untouched", func(t *testing.T) {
		got := sampleTask()
		var patch TaskPatch
		assert.True(t, patch.Empty())
		patch.Apply(&got)
		assert.Equal(t, sampleTask(), got)
	})

	t.Run("patched pointers are not aliased", func(t *testing.T) {
		got := sampleTask()
		uid := int64(3)
		TaskPatch{UserID: Some(&uid)}.Apply(&got)
		uid = 99
		require.NotNil(t, got.UserID)
		assert.Equal(t, int64(3), *got.UserID)
	})
}

func TestTaskClone(t *testing.T) {
	orig := sampleTask()
	c := orig.Clone()
	*c.DueTime = "5:00 PM"
	assert.Equal(t, "2:00 PM", *orig.DueTime)
}

func TestNewTaskBuild(t *testing.T) {
	now := time.Now()
	in := NewTask{Title: "A", Description: "d", Priority: PriorityLow, Project: "P", Group: GroupToday}
	task := in.Build(1, now)
	assert.Equal(t, int64(1), task.ID)
	assert.Equal(t, now, task.CreatedAt)
	assert.False(t, task.Completed)
	assert.Equal(t, "A", task.Title)
	assert.Equal(t, GroupToday, task.Group)
}

func TestNewTaskValidate(t *testing.T) {
	valid := NewTask{Title: "A", Description: "d", Priority: PriorityLow, Project: "P", Group: GroupToday}
	neg := int64(-1)

	tests := []struct {
		name       string
		mutate     func(n *NewTask)
		wantFields []string
	}{
		{name: "valid", mutate: func(n *NewTask) {}},
		{name: "blank title", mutate: func(n *NewTask) { n.Title = "  " }, wantFields: []string{"title"}},
		{name: "bad priority", mutate: func(n *NewTask) { n.Priority = "critical" }, wantFields: []string{"priority"}},
		{name: "bad group", mutate: func(n *NewTask) { n.Group = "someday" }, wantFields: []string{"group"}},
		{name: "negative user", mutate: func(n *NewTask) { n.UserID = &neg }, wantFields: []string{"userId"}},
		{
			name:       "several at once",
			mutate:     func(n *NewTask) { n.Title = ""; n.Priority = ""; n.Group = "" },
			wantFields: []string{"title", "priority", "group"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid
			tt.mutate(&in)
			err := in.Validate()
			if len(tt.wantFields) == 0 {
				assert.NoError(t, err)
				return
			}
			var verrs ValidationErrors
			require.True(t, errors.As(err, &verrs))
			var fields []string
			for _, fe := range verrs {
				fields = append(fields, fe.Field)
			}
			assert.Equal(t, tt.wantFields, fields)
		})
	}
}

func TestTaskPatchValidate(t *testing.T) {
	assert.NoError(t, TaskPatch{}.Validate())
	assert.NoError(t, TaskPatch{Completed: Some(true)}.Validate())
	assert.Error(t, TaskPatch{Title: Some("")}.Validate())
	assert.Error(t, TaskPatch{Priority: Some(Priority("nope"))}.Validate())
	assert.Error(t, TaskPatch{Group: Some(Group("nope"))}.Validate())
	assert.NoError(t, TaskPatch{UserID: Some[*int64](nil)}.Validate())
}

func TestChildValidate(t *testing.T) {
	zero := int64(0)
	assert.NoError(t, NewSubtask{Text: "x", TaskID: 1}.Validate())
	assert.Error(t, NewSubtask{Text: "", TaskID: 1}.Validate())
	assert.Error(t, NewSubtask{Text: "x"}.Validate())
	assert.Error(t, SubtaskPatch{Text: Some(" ")}.Validate())
	assert.NoError(t, SubtaskPatch{Completed: Some(false)}.Validate())

	assert.NoError(t, NewComment{Author: "a", Text: "t", TaskID: 1}.Validate())
	assert.Error(t, NewComment{Text: "t", TaskID: 1}.Validate())

	assert.NoError(t, NewRequirement{Text: "r", TaskID: 1}.Validate())
	assert.Error(t, NewRequirement{Text: "r", TaskID: 1, ParentID: &zero}.Validate())

	assert.NoError(t, NewUser{Username: "u", Password: "p"}.Validate())
	assert.Error(t, NewUser{Username: "u"}.Validate())
}

func TestSummarize(t *testing.T) {
	tasks := []Task{{Completed: true}, {}, {Completed: true}}
	assert.Equal(t, TaskStats{TotalTasks: 3, CompletedTasks: 2}, Summarize(tasks))
	assert.Equal(t, TaskStats{}, Summarize(nil))
}
