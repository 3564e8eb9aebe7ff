package events

import "time"

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventUserRegistered EventType = "user_registered"
	EventLoginSucceeded EventType = "login_succeeded"
	EventLoginFailed    EventType = "login_failed"
	EventTaskCreated    EventType = "task_created"
	EventTaskCompleted  EventType = "task_completed"
	EventTaskDeleted    EventType = "task_deleted"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	SubjectID string      `json:"subject_id,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// UserRegisteredPayload payload.
type UserRegisteredPayload struct {
	Email string `json:"email"`
}

// LoginFailedPayload payload. Kind carries the internal failure subtype
// that responses deliberately omit.
type LoginFailedPayload struct {
	Email string `json:"email"`
	Kind  string `json:"kind"`
	IP    string `json:"ip,omitempty"`
}

// LoginSucceededPayload payload.
type LoginSucceededPayload struct {
	Email string `json:"email"`
	IP    string `json:"ip,omitempty"`
}

// TaskEventPayload payload for task lifecycle events.
type TaskEventPayload struct {
	TaskID string `json:"task_id"`
	Title  string `json:"title,omitempty"`
}
