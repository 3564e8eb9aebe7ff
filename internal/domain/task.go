package domain

import "time"

// Task is the domain model for user-owned task rows.
type Task struct {
	ID          string
	OwnerID     string
	Title       string
	Description string
	Completed   bool
	DueDate     *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
