package types

// TaskStats summarizes a task list for the workspace header.
type TaskStats struct {
	TotalTasks     int `json:"totalTasks"`
	CompletedTasks int `json:"completedTasks"`
}

// Summarize counts tasks and completed tasks.
func Summarize(tasks []Task) TaskStats {
	s := TaskStats{TotalTasks: len(tasks)}
	for _, t := range tasks {
		if t.Completed {
			s.CompletedTasks++
		}
	}
	return s
}
