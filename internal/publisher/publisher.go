// Package publisher pushes run-outcome notifications to interested
// consumers.
package publisher

import "context"

// Provider publishes one payload to a topic and returns a message ID.
type Provider interface {
	Publish(ctx context.Context, topic string, payload any) (string, error)
	Close() error
}

// Noop discards all publishes.
type Noop struct{}

// Publish implements Provider; it performs no action.
func (Noop) Publish(context.Context, string, any) (string, error) {
	return "", nil
}

// Close implements Provider; it performs no action.
func (Noop) Close() error {
	return nil
}
