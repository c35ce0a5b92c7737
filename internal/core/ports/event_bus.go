package ports

import "context"

// TopicBankLinked is published after a linking flow persists its record,
// so cached views of the user's account list can be invalidated.
const TopicBankLinked = "banks.linked"

// BankLinkedEvent is the payload published on TopicBankLinked.
type BankLinkedEvent struct {
	UserID    string
	AccountID string
}

// Event is a generic wrapper for any event payload.
type Event struct {
	Topic string
	Data  interface{}
}

// EventHandler is a function that can handle a specific event.
type EventHandler func(ctx context.Context, event Event) error

// EventBus defines the interface for the in-process pub/sub system.
type EventBus interface {
	// Publish sends an event to all subscribers of a topic.
	Publish(ctx context.Context, topic string, data interface{}) error

	// Subscribe registers a handler for a specific topic.
	Subscribe(topic string, handler EventHandler)
}
