package types

import "time"

// Priority ranks a task.
type Priority string

// Task priorities, lowest first.
const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Valid reports whether p is a recognized priority.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// Group buckets a task by when it should be worked on.
type Group string

// Task groups.
const (
	GroupToday    Group = "today"
	GroupTomorrow Group = "tomorrow"
	GroupLater    Group = "later"
)

// Valid reports whether g is a recognized group.
func (g Group) Valid() bool {
	switch g {
	case GroupToday, GroupTomorrow, GroupLater:
		return true
	}
	return false
}

// Task is a unit of work. It owns its subtasks, comments and requirements.
// ID and CreatedAt are assigned by the store and never change.
type Task struct {
	ID                 int64      `json:"id"`
	Title              string     `json:"title"`
	Description        string     `json:"description"`
	Priority           Priority   `json:"priority"`
	Completed          bool       `json:"completed"`
	CreatedAt          time.Time  `json:"createdAt"`
	DueDate            *time.Time `json:"dueDate"`
	DueTime            *string    `json:"dueTime"`
	Project            string     `json:"project"`
	Group              Group      `json:"group"`
	HasGoogleAnalytics bool       `json:"hasGoogleAnalytics"`
	UserID             *int64     `json:"userId"`
}

// NewTask is the input to Store.CreateTask. It has no ID or CreatedAt;
// those belong to the store.
type NewTask struct {
	Title              string     `json:"title"`
	Description        string     `json:"description"`
	Priority           Priority   `json:"priority"`
	Completed          bool       `json:"completed"`
	DueDate            *time.Time `json:"dueDate"`
	DueTime            *string    `json:"dueTime"`
	Project            string     `json:"project"`
	Group              Group      `json:"group"`
	HasGoogleAnalytics bool       `json:"hasGoogleAnalytics"`
	UserID             *int64     `json:"userId"`
}

// Build returns the Task that n describes, stamped with id and createdAt.
func (n NewTask) Build(id int64, createdAt time.Time) Task {
	return Task{
		ID:                 id,
		Title:              n.Title,
		Description:        n.Description,
		Priority:           n.Priority,
		Completed:          n.Completed,
		CreatedAt:          createdAt,
		DueDate:            cloneTime(n.DueDate),
		DueTime:            cloneString(n.DueTime),
		Project:            n.Project,
		Group:              n.Group,
		HasGoogleAnalytics: n.HasGoogleAnalytics,
		UserID:             cloneInt64(n.UserID),
	}
}

// TaskPatch lists the task fields a partial update may change. Fields left
// unset are untouched. DueDate, DueTime and UserID are nullable: setting
// them to nil clears the value.
type TaskPatch struct {
	Title              Optional[string]
	Description        Optional[string]
	Priority           Optional[Priority]
	Completed          Optional[bool]
	DueDate            Optional[*time.Time]
	DueTime            Optional[*string]
	Project            Optional[string]
	Group              Optional[Group]
	HasGoogleAnalytics Optional[bool]
	UserID             Optional[*int64]
}

// Empty reports whether the patch supplies no field at all.
func (p TaskPatch) Empty() bool {
	return !(p.Title.Set || p.Description.Set || p.Priority.Set || p.Completed.Set ||
		p.DueDate.Set || p.DueTime.Set || p.Project.Set || p.Group.Set ||
		p.HasGoogleAnalytics.Set || p.UserID.Set)
}

// Apply merges the supplied fields onto t. ID and CreatedAt are never
// touched.
func (p TaskPatch) Apply(t *Task) {
	p.Title.apply(&t.Title)
	p.Description.apply(&t.Description)
	p.Priority.apply(&t.Priority)
	p.Completed.apply(&t.Completed)
	if p.DueDate.Set {
		t.DueDate = cloneTime(p.DueDate.Value)
	}
	if p.DueTime.Set {
		t.DueTime = cloneString(p.DueTime.Value)
	}
	p.Project.apply(&t.Project)
	p.Group.apply(&t.Group)
	p.HasGoogleAnalytics.apply(&t.HasGoogleAnalytics)
	if p.UserID.Set {
		t.UserID = cloneInt64(p.UserID.Value)
	}
}

// Clone returns a deep copy of t.
func (t Task) Clone() Task {
	t.DueDate = cloneTime(t.DueDate)
	t.DueTime = cloneString(t.DueTime)
	t.UserID = cloneInt64(t.UserID)
	return t
}

// TaskDetail is a task together with everything it owns.
type TaskDetail struct {
	Task
	Subtasks     []Subtask     `json:"subtasks"`
	Comments     []Comment     `json:"comments"`
	Requirements []Requirement `json:"requirements"`
}

func cloneTime(p *time.Time) *time.Time {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneString(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneInt64(p *int64) *int64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
