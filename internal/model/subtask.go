package model

import "time"

type SubtaskStatus string

const (
	SubtaskNew        SubtaskStatus = "new"
	SubtaskInProgress SubtaskStatus = "in-progress"
	SubtaskCompleted  SubtaskStatus = "completed"
)

func (s SubtaskStatus) Valid() bool {
	switch s {
	case SubtaskNew, SubtaskInProgress, SubtaskCompleted:
		return true
	}
	return false
}

// Subtask is a checklist item under a task. CompletedAt is set only while
// Status is completed.
type Subtask struct {
	ID          string        `json:"id"`
	TaskID      string        `json:"taskId"`
	UserID      string        `json:"userId"`
	Title       string        `json:"title"`
	Description string        `json:"description,omitempty"`
	Status      SubtaskStatus `json:"status"`
	CreatedAt   time.Time     `json:"createdAt"`
	CompletedAt *time.Time    `json:"completedAt,omitempty"`
}
