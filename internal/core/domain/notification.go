package domain

import "time"

// NotificationKind classifies a notification for display.
type NotificationKind string

const (
	NotifySuccess NotificationKind = "success"
	NotifyError   NotificationKind = "error"
)

// Notification is a human-facing message about an outcome.
type Notification struct {
	Kind    NotificationKind `json:"kind"`
	Message string           `json:"message"`
	Cause   FailureKind      `json:"cause,omitempty"`
	At      time.Time        `json:"at"`
}

// Success builds a success notification.
func Success(msg string) Notification {
	return Notification{Kind: NotifySuccess, Message: msg, At: time.Now().UTC()}
}

// Failure builds an error notification for err.
func Failure(msg string, err error) Notification {
	return Notification{Kind: NotifyError, Message: msg, Cause: Classify(err), At: time.Now().UTC()}
}
