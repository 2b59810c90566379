package types

import "time"

// Comment is a note left on a task. Time is assigned by the store.
type Comment struct {
	ID     int64     `json:"id"`
	Author string    `json:"author"`
	Text   string    `json:"text"`
	Time   time.Time `json:"time"`
	TaskID int64     `json:"taskId"`
}

// NewComment is the input to Store.CreateComment.
type NewComment struct {
	Author string `json:"author"`
	Text   string `json:"text"`
	TaskID int64  `json:"taskId"`
}
