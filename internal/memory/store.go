// Package memory provides an in-process implementation of types.Store,
// used for tests, demos and ephemeral deployments. State lives for the
// lifetime of the Store value.
package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/mesh-intelligence/workbench/pkg/types"
)

var _ types.Store = (*Store)(nil)

// Store keeps every entity in maps keyed by id. One RWMutex guards all of
// them so that multi-map writes, such as the task cascade, are atomic.
// Records are copied on the way in and out.
type Store struct {
	mu sync.RWMutex

	users        map[int64]types.User
	tasks        map[int64]types.Task
	subtasks     map[int64]types.Subtask
	comments     map[int64]types.Comment
	requirements map[int64]types.Requirement

	// Last id handed out per entity type. Ids are never reused.
	lastUserID        int64
	lastTaskID        int64
	lastSubtaskID     int64
	lastCommentID     int64
	lastRequirementID int64

	now func() time.Time
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		users:        make(map[int64]types.User),
		tasks:        make(map[int64]types.Task),
		subtasks:     make(map[int64]types.Subtask),
		comments:     make(map[int64]types.Comment),
		requirements: make(map[int64]types.Requirement),
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// Close is a no-op; the maps are released with the Store.
func (s *Store) Close() error { return nil }

// sortedValues returns the map values ordered by key, which is insertion
// order because ids are monotonic.
func sortedValues[V any](m map[int64]V, keep func(V) bool, clone func(V) V) []V {
	keys := make([]int64, 0, len(m))
	for k, v := range m {
		if keep == nil || keep(v) {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)
	out := make([]V, 0, len(keys))
	for _, k := range keys {
		v := m[k]
		if clone != nil {
			v = clone(v)
		}
		out = append(out, v)
	}
	return out
}

// User operations

func (s *Store) GetUser(ctx context.Context, id int64) (*types.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, types.ErrNotFound
	}
	return &u, nil
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*types.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, types.ErrNotFound
}

func (s *Store) CreateUser(ctx context.Context, in types.NewUser) (*types.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Username == in.Username {
			return nil, types.ErrDuplicate
		}
	}
	s.lastUserID++
	u := types.User{ID: s.lastUserID, Username: in.Username, Password: in.Password}
	s.users[u.ID] = u
	return &u, nil
}

// Task operations

func (s *Store) GetAllTasks(ctx context.Context) ([]types.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return sortedValues(s.tasks, nil, types.Task.Clone), nil
}

func (s *Store) GetTaskByID(ctx context.Context, id int64) (*types.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tasks[id]
	if !ok {
		return nil, types.ErrNotFound
	}
	t = t.Clone()
	return &t, nil
}

func (s *Store) CreateTask(ctx context.Context, in types.NewTask) (*types.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkUserLocked(in.UserID); err != nil {
		return nil, err
	}
	s.lastTaskID++
	t := in.Build(s.lastTaskID, s.now())
	s.tasks[t.ID] = t
	t = t.Clone()
	return &t, nil
}

func (s *Store) UpdateTask(ctx context.Context, id int64, patch types.TaskPatch) (*types.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[id]
	if !ok {
		return nil, types.ErrNotFound
	}
	if patch.UserID.Set {
		if err := s.checkUserLocked(patch.UserID.Value); err != nil {
			return nil, err
		}
	}
	patch.Apply(&t)
	s.tasks[id] = t
	t = t.Clone()
	return &t, nil
}

// DeleteTask removes the task and everything it owns under one write lock,
// so no reader observes a partial cascade.
func (s *Store) DeleteTask(ctx context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tasks[id]; !ok {
		return false, nil
	}
	delete(s.tasks, id)
	for sid, st := range s.subtasks {
		if st.TaskID == id {
			delete(s.subtasks, sid)
		}
	}
	for cid, c := range s.comments {
		if c.TaskID == id {
			delete(s.comments, cid)
		}
	}
	for rid, r := range s.requirements {
		if r.TaskID == id {
			delete(s.requirements, rid)
		}
	}
	return true, nil
}

func (s *Store) checkUserLocked(userID *int64) error {
	if userID == nil {
		return nil
	}
	if _, ok := s.users[*userID]; !ok {
		return &types.ReferenceError{Field: "userId", ID: *userID}
	}
	return nil
}

func (s *Store) checkTaskLocked(taskID int64) error {
	if _, ok := s.tasks[taskID]; !ok {
		return &types.ReferenceError{Field: "taskId", ID: taskID}
	}
	return nil
}

// Subtask operations

func (s *Store) GetAllSubtasks(ctx context.Context) ([]types.Subtask, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return sortedValues(s.subtasks, nil, nil), nil
}

func (s *Store) GetSubtaskByID(ctx context.Context, id int64) (*types.Subtask, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.subtasks[id]
	if !ok {
		return nil, types.ErrNotFound
	}
	return &st, nil
}

func (s *Store) GetSubtasksByTaskID(ctx context.Context, taskID int64) ([]types.Subtask, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return sortedValues(s.subtasks, func(st types.Subtask) bool { return st.TaskID == taskID }, nil), nil
}

func (s *Store) CreateSubtask(ctx context.Context, in types.NewSubtask) (*types.Subtask, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkTaskLocked(in.TaskID); err != nil {
		return nil, err
	}
	s.lastSubtaskID++
	st := types.Subtask{ID: s.lastSubtaskID, Text: in.Text, Completed: in.Completed, TaskID: in.TaskID}
	s.subtasks[st.ID] = st
	return &st, nil
}

func (s *Store) UpdateSubtask(ctx context.Context, id int64, patch types.SubtaskPatch) (*types.Subtask, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.subtasks[id]
	if !ok {
		return nil, types.ErrNotFound
	}
	patch.Apply(&st)
	s.subtasks[id] = st
	return &st, nil
}

func (s *Store) DeleteSubtask(ctx context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.subtasks[id]; !ok {
		return false, nil
	}
	delete(s.subtasks, id)
	return true, nil
}

// Comment operations

func (s *Store) GetAllComments(ctx context.Context) ([]types.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return sortedValues(s.comments, nil, nil), nil
}

func (s *Store) GetCommentByID(ctx context.Context, id int64) (*types.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.comments[id]
	if !ok {
		return nil, types.ErrNotFound
	}
	return &c, nil
}

func (s *Store) GetCommentsByTaskID(ctx context.Context, taskID int64) ([]types.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return sortedValues(s.comments, func(c types.Comment) bool { return c.TaskID == taskID }, nil), nil
}

func (s *Store) CreateComment(ctx context.Context, in types.NewComment) (*types.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkTaskLocked(in.TaskID); err != nil {
		return nil, err
	}
	s.lastCommentID++
	c := types.Comment{ID: s.lastCommentID, Author: in.Author, Text: in.Text, Time: s.now(), TaskID: in.TaskID}
	s.comments[c.ID] = c
	return &c, nil
}

// Requirement operations

func (s *Store) GetAllRequirements(ctx context.Context) ([]types.Requirement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return sortedValues(s.requirements, nil, types.Requirement.Clone), nil
}

func (s *Store) GetRequirementByID(ctx context.Context, id int64) (*types.Requirement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.requirements[id]
	if !ok {
		return nil, types.ErrNotFound
	}
	r = r.Clone()
	return &r, nil
}

func (s *Store) GetRequirementsByTaskID(ctx context.Context, taskID int64) ([]types.Requirement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return sortedValues(s.requirements, func(r types.Requirement) bool { return r.TaskID == taskID }, types.Requirement.Clone), nil
}

// CreateRequirement stores a requirement. A parent, when given, must be a
// requirement of the same task.
func (s *Store) CreateRequirement(ctx context.Context, in types.NewRequirement) (*types.Requirement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkTaskLocked(in.TaskID); err != nil {
		return nil, err
	}
	if in.ParentID != nil {
		parent, ok := s.requirements[*in.ParentID]
		if !ok || parent.TaskID != in.TaskID {
			return nil, &types.ReferenceError{Field: "parentId", ID: *in.ParentID}
		}
	}
	s.lastRequirementID++
	r := types.Requirement{ID: s.lastRequirementID, Text: in.Text, ParentID: in.ParentID, TaskID: in.TaskID}.Clone()
	s.requirements[r.ID] = r
	r = r.Clone()
	return &r, nil
}
