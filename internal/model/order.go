package model

import (
	"encoding/json"
	"time"
)

// Order records a course purchase. PaymentInfo is stored verbatim as the
// client sent it (typically the payment intent object).
type Order struct {
	ID          string          `json:"_id"`
	CourseID    string          `json:"courseId"`
	UserID      string          `json:"userId"`
	PaymentInfo json.RawMessage `json:"paymentInfo,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// Notification statuses.
const (
	NotificationUnread = "unread"
	NotificationRead   = "read"
)

// Notification is an admin-facing activity record.
type Notification struct {
	ID        string    `json:"_id"`
	UserID    string    `json:"user"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
