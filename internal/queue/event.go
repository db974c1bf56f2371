// Package queue defines the auth events exchanged over RabbitMQ and the
// consumer the profile service runs to record them.
package queue

import "time"

// Event types published by the auth service.
const (
	EventUserRegistered       = "user.registered"
	EventUserLoggedIn         = "user.logged_in"
	EventUserOAuthProvisioned = "user.oauth_provisioned"
)

// DefaultQueue is the durable queue auth events are routed to.
const DefaultQueue = "auth.events"

// AuthEvent is published after a credential is created or a session is
// started.  It carries enough for consumers to log or pre-provision a
// profile without calling the auth service.
type AuthEvent struct {
	Type       string `json:"type"`
	UserID     string `json:"user_id"`
	Email      string `json:"email"`
	Name       string `json:"name,omitempty"`
	Role       string `json:"role"`
	Provider   string `json:"provider"`
	OccurredAt string `json:"occurred_at"`
}

// NewAuthEvent stamps an event with the given time in RFC 3339.
func NewAuthEvent(typ, userID, email, name, role, provider string, at time.Time) AuthEvent {
	return AuthEvent{
		Type:       typ,
		UserID:     userID,
		Email:      email,
		Name:       name,
		Role:       role,
		Provider:   provider,
		OccurredAt: at.UTC().Format(time.RFC3339),
	}
}
