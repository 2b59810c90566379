package types

// Subtask is a checklist item owned by exactly one task.
type Subtask struct {
	ID        int64  `json:"id"`
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
	TaskID    int64  `json:"taskId"`
}

// NewSubtask is the input to Store.CreateSubtask.
type NewSubtask struct {
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
	TaskID    int64  `json:"taskId"`
}

// SubtaskPatch lists the subtask fields a partial update may change.
type SubtaskPatch struct {
	Text      Optional[string]
	Completed Optional[bool]
}

// Empty reports whether the patch supplies no field at all.
func (p SubtaskPatch) Empty() bool {
	return !p.Text.Set && !p.Completed.Set
}

// Apply merges the supplied fields onto s.
func (p SubtaskPatch) Apply(s *Subtask) {
	p.Text.apply(&s.Text)
	p.Completed.apply(&s.Completed)
}
