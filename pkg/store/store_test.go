package store

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/workbench/internal/memory"
	"github.com/mesh-intelligence/workbench/internal/sqlite"
	"github.com/mesh-intelligence/workbench/pkg/types"
)

func TestOpen(t *testing.T) {
	t.Run("memory", func(t *testing.T) {
		s, err := Open(types.Config{Backend: types.BackendMemory}, nil)
		require.NoError(t, err)
		defer s.Close()
		assert.IsType(t, &memory.Store{}, s)
	})

	t.Run("sqlite", func(t *testing.T) {
		dir := t.TempDir()
		s, err := Open(types.Config{Backend: types.BackendSQLite, DataDir: dir}, nil)
		require.NoError(t, err)
		defer s.Close()
		assert.IsType(t, &sqlite.Backend{}, s)
		assert.FileExists(t, filepath.Join(dir, sqlite.DBFileName))
	})

	t.Run("unknown backend", func(t *testing.T) {
		_, err := Open(types.Config{Backend: "mongo"}, nil)
		assert.ErrorIs(t, err, types.ErrBackendUnknown)
	})
}

func TestSeed(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	n, err := Seed(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, len(sampleWorkspace), n)

	tasks, err := s.GetAllTasks(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, len(sampleWorkspace))
	assert.Equal(t, "Update landing page design", tasks[0].Title)

	ga, err := Detail(ctx, s, tasks[1].ID)
	require.NoError(t, err)
	assert.True(t, ga.HasGoogleAnalytics)
	assert.Len(t, ga.Subtasks, 4)
	assert.Len(t, ga.Comments, 2)
	// Four top-level requirements plus four nested under the second.
	require.Len(t, ga.Requirements, 8)
	parent := ga.Requirements[1]
	assert.Equal(t, "Configure conversion events for:", parent.Text)
	for _, child := range ga.Requirements[2:6] {
		require.NotNil(t, child.ParentID)
		assert.Equal(t, parent.ID, *child.ParentID)
	}

	t.Run("second seed is a no-op", func(t *testing.T) {
		n, err := Seed(ctx, s)
		require.NoError(t, err)
		assert.Zero(t, n)

		tasks, err := s.GetAllTasks(ctx)
		require.NoError(t, err)
		assert.Len(t, tasks, len(sampleWorkspace))
	})
}

func TestDetail_NotFound(t *testing.T) {
	_, err := Detail(context.Background(), memory.New(), 42)
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestExportImportRoundTrip(t *testing.T) {
	ctx := context.Background()
	src := memory.New()
	_, err := Seed(ctx, src)
	require.NoError(t, err)

	var buf bytes.Buffer
	n, err := Export(ctx, src, &buf)
	require.NoError(t, err)
	assert.Equal(t, len(sampleWorkspace), n)
	assert.Equal(t, len(sampleWorkspace), strings.Count(buf.String(), "\n"))

	dst := memory.New()
	// Occupy id 1 so imported records get different ids than the source.
	_, err = dst.CreateTask(ctx, types.NewTask{Title: "existing", Priority: types.PriorityLow, Group: types.GroupLater})
	require.NoError(t, err)

	n, err = Import(ctx, dst, &buf)
	require.NoError(t, err)
	assert.Equal(t, len(sampleWorkspace), n)

	srcTasks, err := src.GetAllTasks(ctx)
	require.NoError(t, err)
	dstTasks, err := dst.GetAllTasks(ctx)
	require.NoError(t, err)
	require.Len(t, dstTasks, len(srcTasks)+1)

	for i, st := range srcTasks {
		want, err := Detail(ctx, src, st.ID)
		require.NoError(t, err)
		got, err := Detail(ctx, dst, dstTasks[i+1].ID)
		require.NoError(t, err)

		assert.Equal(t, want.Title, got.Title)
		assert.Equal(t, want.DueDate, got.DueDate)
		assert.Equal(t, want.DueTime, got.DueTime)
		assert.Len(t, got.Subtasks, len(want.Subtasks))
		assert.Len(t, got.Comments, len(want.Comments))
		require.Len(t, got.Requirements, len(want.Requirements))
		for j, r := range got.Requirements {
			assert.Equal(t, want.Requirements[j].Text, r.Text)
			assert.Equal(t, want.Requirements[j].ParentID == nil, r.ParentID == nil)
		}
	}
}

func TestImport_Errors(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"malformed json", "{not json}\n", "line 1"},
		{"invalid task", "\n" + `{"title":"","priority":"low","group":"today"}` + "\n", "line 2"},
		{"dangling parent", `{"title":"t","priority":"low","group":"today","requirements":[{"id":5,"text":"x","parentId":4}]}`, "parentId"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Import(ctx, memory.New(), strings.NewReader(tt.input))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

// assertEmpty checks that no record of any kind is stored.
func assertEmpty(t *testing.T, s types.Store) {
	t.Helper()
	ctx := context.Background()

	tasks, err := s.GetAllTasks(ctx)
	require.NoError(t, err)
	assert.Empty(t, tasks)
	subtasks, err := s.GetAllSubtasks(ctx)
	require.NoError(t, err)
	assert.Empty(t, subtasks)
	comments, err := s.GetAllComments(ctx)
	require.NoError(t, err)
	assert.Empty(t, comments)
	reqs, err := s.GetAllRequirements(ctx)
	require.NoError(t, err)
	assert.Empty(t, reqs)
}

func TestImport_InvalidRecordWritesNothing(t *testing.T) {
	const task = `"title":"t","priority":"low","group":"today"`
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			"unknown parent after children",
			`{` + task + `,"subtasks":[{"text":"s"}],"comments":[{"author":"a","text":"c"}],"requirements":[{"id":5,"text":"x","parentId":9}]}`,
			"parentId",
		},
		{
			"parent listed after child",
			`{` + task + `,"requirements":[{"id":5,"text":"child","parentId":6},{"id":6,"text":"parent"}]}`,
			"requirement 1",
		},
		{"blank subtask", `{` + task + `,"subtasks":[{"text":"   "}]}`, "subtask 1"},
		{"blank comment author", `{` + task + `,"comments":[{"author":"","text":"c"}]}`, "comment 1"},
		{"blank comment text", `{` + task + `,"comments":[{"author":"a","text":""}]}`, "comment 1"},
		{"blank requirement", `{` + task + `,"requirements":[{"id":1,"text":""}]}`, "requirement 1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := memory.New()
			n, err := Import(context.Background(), s, strings.NewReader(tt.input))
			require.Error(t, err)
			assert.Zero(t, n)
			assert.Contains(t, err.Error(), "line 1")
			assert.Contains(t, err.Error(), tt.want)
			assertEmpty(t, s)
		})
	}
}

func TestImport_StopsAtBadLine(t *testing.T) {
	ctx := context.Background()
	input := `{"title":"ok","priority":"low","group":"today"}` + "\n" +
		`{"title":"bad","priority":"low","group":"today","subtasks":[{"text":""}]}` + "\n"

	s := memory.New()
	n, err := Import(ctx, s, strings.NewReader(input))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
	assert.Equal(t, 1, n)

	tasks, err := s.GetAllTasks(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "ok", tasks[0].Title)
}

var errDiskFull = errors.New("disk full")

// failingRequirements is a store whose requirement inserts fail.
type failingRequirements struct {
	types.Store
}

func (failingRequirements) CreateRequirement(context.Context, types.NewRequirement) (*types.Requirement, error) {
	return nil, types.Backend("create requirement", errDiskFull)
}

func TestImport_RollsBackOnStoreFailure(t *testing.T) {
	s := failingRequirements{Store: memory.New()}
	input := `{"title":"t","priority":"low","group":"today",` +
		`"subtasks":[{"text":"s"}],"comments":[{"author":"a","text":"c"}],"requirements":[{"id":1,"text":"r"}]}`

	n, err := Import(context.Background(), s, strings.NewReader(input))
	require.Error(t, err)
	assert.Zero(t, n)

	var be *types.BackendError
	require.True(t, errors.As(err, &be))
	assert.ErrorIs(t, err, errDiskFull)
	assertEmpty(t, s.Store)
}

func TestExportFile(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	_, err := Seed(ctx, s)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "tasks.jsonl")
	n, err := ExportFile(ctx, s, path)
	require.NoError(t, err)
	assert.Equal(t, len(sampleWorkspace), n)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file must not be left behind")

	dst := memory.New()
	n, err = ImportFile(ctx, dst, path)
	require.NoError(t, err)
	assert.Equal(t, len(sampleWorkspace), n)
}
