package domain

import (
	"context"
	"time"
)

// ChangeKind identifies the transition a change event reports.
type ChangeKind string

const (
	ChangeCreated ChangeKind = "created"
	ChangeUpdated ChangeKind = "updated"
)

// RegistrationChange is emitted after a registration write commits. Before is nil for
// ChangeCreated.
type RegistrationChange struct {
	ID         string        `json:"id"`
	Kind       ChangeKind    `json:"kind"`
	Before     *Registration `json:"before,omitempty"`
	After      *Registration `json:"after"`
	OccurredAt time.Time     `json:"occurred_at"`
}

// ChangePublisher delivers registration change events to their subscribers.
type ChangePublisher interface {
	Publish(ctx context.Context, change *RegistrationChange) error
}

// ChangeHandler reacts to a registration change event. A returned error asks the
// delivering infrastructure to retry.
type ChangeHandler interface {
	HandleChange(ctx context.Context, change *RegistrationChange) error
}
