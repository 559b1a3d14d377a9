// Package notify fans out slot-count changes to interested observers.
//
// The reservation core only depends on the Notifier interface; which
// transport actually carries the message (Redis pub/sub, Kafka, or
// nothing) is decided at assembly time in main. Delivery is best effort:
// a failed notification never affects the outcome of the claim or release
// that produced it.
package notify

import "context"

// Notifier receives the new remaining count after every successful claim
// or release.
type Notifier interface {
	SlotsChanged(ctx context.Context, eventID string, remaining int) error
}

// Nop discards all notifications.
type Nop struct{}

// SlotsChanged does nothing.
func (Nop) SlotsChanged(ctx context.Context, eventID string, remaining int) error {
	return nil
}
