package types

// Requirement is an acceptance item on a task. ParentID, when set, names
// another requirement of the same task, which makes requirements a tree.
type Requirement struct {
	ID       int64  `json:"id"`
	Text     string `json:"text"`
	ParentID *int64 `json:"parentId"`
	TaskID   int64  `json:"taskId"`
}

// NewRequirement is the input to Store.CreateRequirement.
type NewRequirement struct {
	Text     string `json:"text"`
	ParentID *int64 `json:"parentId"`
	TaskID   int64  `json:"taskId"`
}

// Clone returns a deep copy of r.
func (r Requirement) Clone() Requirement {
	r.ParentID = cloneInt64(r.ParentID)
	return r
}
