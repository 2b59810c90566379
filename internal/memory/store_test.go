package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/workbench/internal/storetest"
	"github.com/mesh-intelligence/workbench/pkg/types"
)

func TestStoreContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) types.Store {
		s := New()
		t.Cleanup(func() { s.Close() })
		return s
	})
}

func TestStoreIsolatedInstances(t *testing.T) {
	ctx := context.Background()
	a, b := New(), New()

	_, err := a.CreateTask(ctx, types.NewTask{Title: "only in a", Priority: types.PriorityLow, Group: types.GroupLater})
	require.NoError(t, err)

	tasks, err := b.GetAllTasks(ctx)
	require.NoError(t, err)
	assert.Empty(t, tasks)
}
