package notify

import "github.com/amoylab/taskflow/internal/apiserver/database"

// EventKind names a domain event that may produce notifications
type EventKind string

const (
	// EventTasksAssigned is published once per assignee after a bulk create commits
	EventTasksAssigned EventKind = "tasks_assigned"
)

// Event is a committed mutation handed to the dispatcher
type Event struct {
	Kind        EventKind
	UserID      uint
	CompanySlug string
	TaskCount   int
}

// Message is the rendered, subject-free notification text
type Message struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	URL   string `json:"url"`
}

// Keys are the delivery keys of a push subscription
type Keys struct {
	P256dh string `json:"p256dh"`
	Auth   string `json:"auth"`
}

// Subscription addresses one device
type Subscription struct {
	Endpoint string `json:"endpoint"`
	Keys     Keys   `json:"keys"`
}

// Payload is what the device receives
type Payload struct {
	Notification Message `json:"notification"`
}

// Job is one unit on the push queue: one message for one subscription
type Job struct {
	Subscription Subscription `json:"subscription"`
	Payload      Payload      `json:"payload"`
}

// NewJob builds the job delivering msg to sub
func NewJob(sub *database.PushSubscription, msg Message) Job {
	return Job{
		Subscription: Subscription{
			Endpoint: sub.Endpoint,
			Keys:     Keys{P256dh: sub.P256dh, Auth: sub.Auth},
		},
		Payload: Payload{Notification: msg},
	}
}
