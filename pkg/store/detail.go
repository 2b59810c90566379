package store

import (
	"context"

	"github.com/mesh-intelligence/workbench/pkg/types"
)

// Detail loads a task together with its subtasks, comments and
// requirements. An unknown id yields types.ErrNotFound.
func Detail(ctx context.Context, s types.Store, id int64) (*types.TaskDetail, error) {
	task, err := s.GetTaskByID(ctx, id)
	if err != nil {
		return nil, err
	}
	subtasks, err := s.GetSubtasksByTaskID(ctx, id)
	if err != nil {
		return nil, err
	}
	comments, err := s.GetCommentsByTaskID(ctx, id)
	if err != nil {
		return nil, err
	}
	reqs, err := s.GetRequirementsByTaskID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &types.TaskDetail{
		Task:         *task,
		Subtasks:     subtasks,
		Comments:     comments,
		Requirements: reqs,
	}, nil
}
