package model

import "time"

type Task struct {
	ID          string     `json:"id"`
	UserID      string     `json:"userId"`
	AssigneeID  *string    `json:"assigneeId,omitempty"`
	CategoryID  *string    `json:"categoryId,omitempty"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Notes       string     `json:"notes,omitempty"`
	Position    int        `json:"position"`
	CreatedAt   time.Time  `json:"createdAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

func (t *Task) Completed() bool {
	return t.CompletedAt != nil
}

// AccessibleBy reports whether userID owns or is assigned the task.
func (t *Task) AccessibleBy(userID string) bool {
	if t.UserID == userID {
		return true
	}
	return t.AssigneeID != nil && *t.AssigneeID == userID
}

type Comment struct {
	ID        string    `json:"id"`
	TaskID    string    `json:"taskId"`
	UserID    string    `json:"userId"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}
