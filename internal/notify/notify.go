// Package notify announces canonical filter state changes to other
// processes.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"
)

// Publisher sends raw messages to a subject.
type Publisher interface {
	Publish(ctx context.Context, subject string, data []byte) error
	Close() error
}

// PublisherOptions configures publisher behavior.
type PublisherOptions struct {
	// SubjectPrefix is prepended to all subjects.
	SubjectPrefix string

	// StreamName, when set, makes the publisher ensure a stream exists.
	StreamName string

	// RetryAttempts is the number of retry attempts for publishing.
	RetryAttempts int

	// OnPublish is called after each publish attempt.
	OnPublish func(subject string, err error, latency time.Duration)
}

// Change describes a canonical state transition.
type Change struct {
	Session       string    `json:"session"`
	Operation     string    `json:"operation"`
	Encoded       string    `json:"encoded"`
	Fingerprint   uint64    `json:"fingerprint"`
	ActiveFilters int       `json:"active_filters"`
	At            time.Time `json:"at"`
}

// Subject returns the subject a change for session is published on.
func Subject(session string) string {
	return session + ".changed"
}

// Notifier encodes changes and hands them to a Publisher.
type Notifier struct {
	pub    Publisher
	logger *slog.Logger
}

// NewNotifier creates a Notifier. A nil publisher yields a Notifier that
// drops every change.
func NewNotifier(pub Publisher, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{pub: pub, logger: logger.With("component", "notify")}
}

// Notify publishes c.
func (n *Notifier) Notify(ctx context.Context, c Change) error {
	if n == nil || n.pub == nil {
		return nil
	}
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal change: %w", err)
	}
	if err := n.pub.Publish(ctx, Subject(c.Session), data); err != nil {
		n.logger.Warn("Failed to publish state change", "session", c.Session, "error", err)
		return err
	}
	return nil
}

// Close closes the underlying publisher.
func (n *Notifier) Close() error {
	if n == nil || n.pub == nil {
		return nil
	}
	return n.pub.Close()
}
