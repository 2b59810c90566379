package types

import "context"

// Store is the sole authority over entity lifecycle and relational
// integrity. Every backend satisfies the same contract:
//
//   - Get and Update return ErrNotFound when the id does not resolve.
//   - Delete returns false, nil when the id does not resolve.
//   - Get*ByTaskID returns an empty, non-nil slice when nothing matches.
//   - GetAll* returns records in id order.
//   - Create* assigns a fresh id, never reused, and for tasks and comments
//     the creation timestamp. Reference fields that do not resolve yield a
//     *ReferenceError and nothing is written.
//   - DeleteTask removes the task with all its subtasks, comments and
//     requirements, or changes nothing.
//   - Engine failures come back as *BackendError.
//
// Field contents are validated by the caller before they reach the store.
type Store interface {
	GetUser(ctx context.Context, id int64) (*User, error)
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	CreateUser(ctx context.Context, in NewUser) (*User, error)

	GetAllTasks(ctx context.Context) ([]Task, error)
	GetTaskByID(ctx context.Context, id int64) (*Task, error)
	CreateTask(ctx context.Context, in NewTask) (*Task, error)
	UpdateTask(ctx context.Context, id int64, patch TaskPatch) (*Task, error)
	DeleteTask(ctx context.Context, id int64) (bool, error)

	GetAllSubtasks(ctx context.Context) ([]Subtask, error)
	GetSubtaskByID(ctx context.Context, id int64) (*Subtask, error)
	GetSubtasksByTaskID(ctx context.Context, taskID int64) ([]Subtask, error)
	CreateSubtask(ctx context.Context, in NewSubtask) (*Subtask, error)
	UpdateSubtask(ctx context.Context, id int64, patch SubtaskPatch) (*Subtask, error)
	DeleteSubtask(ctx context.Context, id int64) (bool, error)

	GetAllComments(ctx context.Context) ([]Comment, error)
	GetCommentByID(ctx context.Context, id int64) (*Comment, error)
	GetCommentsByTaskID(ctx context.Context, taskID int64) ([]Comment, error)
	CreateComment(ctx context.Context, in NewComment) (*Comment, error)

	GetAllRequirements(ctx context.Context) ([]Requirement, error)
	GetRequirementByID(ctx context.Context, id int64) (*Requirement, error)
	GetRequirementsByTaskID(ctx context.Context, taskID int64) ([]Requirement, error)
	CreateRequirement(ctx context.Context, in NewRequirement) (*Requirement, error)

	// Close releases backend resources. It is safe to call more than once.
	Close() error
}
