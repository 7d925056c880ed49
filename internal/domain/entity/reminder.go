package entity

import "time"

// Reminder is a shopkeeper task. It is never deleted, only completed.
type Reminder struct {
	ID          string         `json:"id"`
	Text        string         `json:"text"`
	DueDate     string         `json:"due_date"`
	Status      ReminderStatus `json:"status"`
	CreatedAt   time.Time      `json:"created_at"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
}

// IsPending reports whether the reminder is still open
func (r *Reminder) IsPending() bool {
	return r.Status == ReminderPending
}
