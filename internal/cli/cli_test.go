package cli

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/workbench/internal/paths"
	"github.com/mesh-intelligence/workbench/pkg/types"
	"github.com/mesh-intelligence/workbench/pkg/workbench"
)

type env struct {
	configDir string
	dataDir   string
}

func newEnv(t *testing.T) env {
	t.Helper()
	t.Setenv(paths.EnvConfigDir, "")
	t.Setenv(paths.EnvDataDir, "")
	for _, key := range envKeys {
		t.Setenv(envPrefix+"_"+strings.ToUpper(key), "")
	}
	root := t.TempDir()
	return env{configDir: filepath.Join(root, "config"), dataDir: filepath.Join(root, "data")}
}

// run executes the CLI with the env's directories and returns stdout.
func (e env) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--config-dir", e.configDir, "--data-dir", e.dataDir}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func (e env) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := e.run(t, args...)
	require.NoError(t, err)
	return out
}

func TestVersion(t *testing.T) {
	e := newEnv(t)
	out := e.mustRun(t, "version")
	assert.Contains(t, out, "workbench v"+workbench.Version)

	_, err := os.Stat(e.configDir)
	assert.True(t, os.IsNotExist(err), "version must not touch the config dir")
}

func TestConfigWrittenOnFirstRun(t *testing.T) {
	e := newEnv(t)
	e.mustRun(t, "task", "list")

	data, err := os.ReadFile(filepath.Join(e.configDir, configFileExt))
	require.NoError(t, err)
	assert.Contains(t, string(data), "backend: sqlite")
}

func TestLoadSettings(t *testing.T) {
	newEnv(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, configFileExt), []byte(
		"backend: memory\nlisten_addr: \":9090\"\nrate_limit: 5\nallow_origins: [\"http://a\", \"http://b\"]\n"), 0o644))

	s, err := loadSettings(dir)
	require.NoError(t, err)
	assert.Equal(t, types.BackendMemory, s.Backend)
	assert.Equal(t, ":9090", s.ListenAddr)
	assert.Equal(t, 5.0, s.RateLimit)
	assert.Equal(t, []string{"http://a", "http://b"}, s.AllowOrigins)
	assert.Equal(t, "info", s.LogLevel)

	t.Run("env overrides file", func(t *testing.T) {
		t.Setenv("WORKBENCH_LISTEN_ADDR", ":7070")
		t.Setenv("WORKBENCH_BACKEND", "sqlite")
		s, err := loadSettings(dir)
		require.NoError(t, err)
		assert.Equal(t, ":7070", s.ListenAddr)
		assert.Equal(t, types.BackendSQLite, s.Backend)
	})
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	l, err := newLogger("debug", "json", &buf)
	require.NoError(t, err)
	l.WithField("k", "v").Debug("hello")
	assert.Contains(t, buf.String(), `"msg":"hello"`)

	_, err = newLogger("loud", "text", &buf)
	assert.Error(t, err)
	_, err = newLogger("info", "xml", &buf)
	assert.Error(t, err)
}

func TestTaskLifecycle(t *testing.T) {
	e := newEnv(t)

	out := e.mustRun(t, "task", "create", "Write docs", "--priority", "high", "--project", "Docs", "--due-date", "2025-04-20", "--due-time", "2:00 PM")
	assert.Equal(t, "created task 1\n", out)

	out = e.mustRun(t, "task", "list")
	assert.Contains(t, out, "Write docs")
	assert.Contains(t, out, "2025-04-20 2:00 PM")
	assert.Contains(t, out, "0 of 1 tasks completed")

	out = e.mustRun(t, "task", "done", "1")
	assert.Contains(t, out, "[x]")

	out = e.mustRun(t, "--json", "task", "show", "1")
	var d types.TaskDetail
	require.NoError(t, sonic.Unmarshal([]byte(out), &d))
	assert.True(t, d.Completed)
	assert.Equal(t, "Docs", d.Project)
	assert.Empty(t, d.Subtasks)

	out = e.mustRun(t, "task", "list", "--pending")
	assert.Equal(t, "no tasks\n", out)

	assert.Equal(t, "deleted task 1\n", e.mustRun(t, "task", "delete", "1"))

	_, err := e.run(t, "task", "show", "1")
	require.Error(t, err)
	assert.Equal(t, exitUserError, exitCode(err))
}

func TestTaskCreate_Invalid(t *testing.T) {
	e := newEnv(t)

	_, err := e.run(t, "task", "create", "x", "--priority", "whenever")
	var verrs types.ValidationErrors
	require.True(t, errors.As(err, &verrs), "got %v", err)
	assert.Equal(t, "priority", verrs[0].Field)
	assert.Equal(t, exitUserError, exitCode(err))

	_, err = e.run(t, "task", "done", "abc")
	assert.EqualError(t, err, `invalid task ID "abc"`)
}

func TestSeedAndShow(t *testing.T) {
	e := newEnv(t)

	assert.Equal(t, "seeded 6 tasks\n", e.mustRun(t, "seed"))
	assert.Contains(t, e.mustRun(t, "seed"), "nothing seeded")

	out := e.mustRun(t, "task", "show", "2")
	assert.Contains(t, out, "Setup Google Analytics integration")
	assert.Contains(t, out, "  - Configure conversion events for:\n    - Newsletter signups\n")
	assert.Contains(t, out, "Sarah Chen")

	out = e.mustRun(t, "--json", "task", "list", "--group", "later")
	var tasks []types.Task
	require.NoError(t, sonic.Unmarshal([]byte(out), &tasks))
	assert.Len(t, tasks, 2)
}

func TestExportImport(t *testing.T) {
	src := newEnv(t)
	src.mustRun(t, "seed")
	file := filepath.Join(t.TempDir(), "tasks.jsonl")
	src.mustRun(t, "export", file)

	stdout := src.mustRun(t, "export")
	assert.Equal(t, 6, strings.Count(stdout, "\n"))

	dst := env{configDir: src.configDir, dataDir: filepath.Join(t.TempDir(), "other")}
	assert.Equal(t, "imported 6 tasks\n", dst.mustRun(t, "import", file))
	assert.Contains(t, dst.mustRun(t, "task", "list"), "Finalize Q2 budget")
}

func TestUsers(t *testing.T) {
	e := newEnv(t)

	assert.Equal(t, "created user 1\n", e.mustRun(t, "user", "add", "ana", "--password", "pw"))
	_, err := e.run(t, "user", "add", "ana", "--password", "pw")
	assert.EqualError(t, err, `username "ana" is taken`)

	out := e.mustRun(t, "--json", "user", "show", "ana")
	assert.Contains(t, out, `"username": "ana"`)
	assert.NotContains(t, out, "pw")

	_, err = e.run(t, "user", "show", "bob")
	assert.EqualError(t, err, `user "bob" not found`)
}

func TestMigrate(t *testing.T) {
	e := newEnv(t)

	assert.Equal(t, "schema version 0 (dirty: false)\n", e.mustRun(t, "migrate", "version"))
	assert.Equal(t, "schema version 1 (dirty: false)\n", e.mustRun(t, "migrate", "up"))
	assert.Equal(t, "schema version 0 (dirty: false)\n", e.mustRun(t, "migrate", "down"))

	_, err := e.run(t, "--backend", "memory", "migrate", "up")
	assert.ErrorIs(t, err, errMigrateBackend)
}

func TestMemoryBackend(t *testing.T) {
	e := newEnv(t)
	out := e.mustRun(t, "--backend", "memory", "task", "create", "ephemeral", "--group", "later")
	assert.Equal(t, "created task 1\n", out)

	_, err := os.Stat(filepath.Join(e.dataDir, "workbench.db"))
	assert.True(t, os.IsNotExist(err))

	_, err = e.run(t, "--backend", "cassandra", "task", "list")
	assert.ErrorIs(t, err, types.ErrBackendUnknown)
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, exitSuccess, exitCode(nil))
	assert.Equal(t, exitUserError, exitCode(errors.New("bad input")))
	assert.Equal(t, exitSysError, exitCode(sysError{errors.New("disk")}))
	assert.Equal(t, exitSysError, exitCode(&types.BackendError{Op: "get", Err: errors.New("io")}))
}
