package model

import "time"

// WorkSession is one contiguous interval of tracked work on a task.
// A nil EndTime means the session is still open.
type WorkSession struct {
	ID        string     `json:"id"`
	TaskID    string     `json:"taskId"`
	UserID    string     `json:"userId"`
	StartTime time.Time  `json:"startTime"`
	EndTime   *time.Time `json:"endTime,omitempty"`
}

func (s *WorkSession) Open() bool {
	return s.EndTime == nil
}

// Duration is the closed span of the session; open sessions contribute zero.
func (s *WorkSession) Duration() time.Duration {
	if s.EndTime == nil {
		return 0
	}
	d := s.EndTime.Sub(s.StartTime)
	if d < 0 {
		return 0
	}
	return d
}
