package types

import "strings"

// Validation messages.
const (
	msgRequired = "is required"
	msgNotNull  = "must not be null"
	msgPriority = "must be one of low, medium, high, urgent"
	msgGroup    = "must be one of today, tomorrow, later"
	msgPositive = "must be a positive id"
)

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// Validate checks the task creation contract. Description and project must
// be present but may be empty; the HTTP layer reports their absence.
func (n NewTask) Validate() error {
	var errs ValidationErrors
	if blank(n.Title) {
		errs.add("title", msgRequired)
	}
	if !n.Priority.Valid() {
		errs.add("priority", msgPriority)
	}
	if !n.Group.Valid() {
		errs.add("group", msgGroup)
	}
	if n.UserID != nil && *n.UserID <= 0 {
		errs.add("userId", msgPositive)
	}
	return errs.Err()
}

// Validate checks the supplied fields of a task patch.
func (p TaskPatch) Validate() error {
	var errs ValidationErrors
	if p.Title.Set && blank(p.Title.Value) {
		errs.add("title", msgRequired)
	}
	if p.Priority.Set && !p.Priority.Value.Valid() {
		errs.add("priority", msgPriority)
	}
	if p.Group.Set && !p.Group.Value.Valid() {
		errs.add("group", msgGroup)
	}
	if p.UserID.Set && p.UserID.Value != nil && *p.UserID.Value <= 0 {
		errs.add("userId", msgPositive)
	}
	return errs.Err()
}

// Validate checks the subtask creation contract.
func (n NewSubtask) Validate() error {
	var errs ValidationErrors
	if blank(n.Text) {
		errs.add("text", msgRequired)
	}
	if n.TaskID <= 0 {
		errs.add("taskId", msgPositive)
	}
	return errs.Err()
}

// Validate checks the supplied fields of a subtask patch.
func (p SubtaskPatch) Validate() error {
	var errs ValidationErrors
	if p.Text.Set && blank(p.Text.Value) {
		errs.add("text", msgRequired)
	}
	return errs.Err()
}

// Validate checks the comment creation contract.
func (n NewComment) Validate() error {
	var errs ValidationErrors
	if blank(n.Author) {
		errs.add("author", msgRequired)
	}
	if blank(n.Text) {
		errs.add("text", msgRequired)
	}
	if n.TaskID <= 0 {
		errs.add("taskId", msgPositive)
	}
	return errs.Err()
}

// Validate checks the requirement creation contract.
func (n NewRequirement) Validate() error {
	var errs ValidationErrors
	if blank(n.Text) {
		errs.add("text", msgRequired)
	}
	if n.TaskID <= 0 {
		errs.add("taskId", msgPositive)
	}
	if n.ParentID != nil && *n.ParentID <= 0 {
		errs.add("parentId", msgPositive)
	}
	return errs.Err()
}

// Validate checks the user creation contract.
func (n NewUser) Validate() error {
	var errs ValidationErrors
	if blank(n.Username) {
		errs.add("username", msgRequired)
	}
	if n.Password == "" {
		errs.add("password", msgRequired)
	}
	return errs.Err()
}

// NotNull returns the validation failure for a non-nullable field that was
// supplied as null.
func NotNull(field string) FieldError {
	return FieldError{Field: field, Message: msgNotNull}
}

// Missing returns the validation failure for a required field that was not
// supplied at all.
func Missing(field string) FieldError {
	return FieldError{Field: field, Message: msgRequired}
}
