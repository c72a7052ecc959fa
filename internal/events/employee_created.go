package events

import "time"

const EmployeeCreatedTopic = "ees.employee.lifecycle.v1"

const EmployeeCreatedType = "employee_created"

type EmployeeCreatedEvent struct {
	EventType  string    `json:"event_type"`
	RequestID  string    `json:"request_id,omitempty"`
	EmployeeID int       `json:"employee_id"`
	Email      string    `json:"email"`
	HireDate   time.Time `json:"hire_date"`
	OccurredAt time.Time `json:"occurred_at"`
}
