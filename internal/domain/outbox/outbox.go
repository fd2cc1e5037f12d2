package outbox

import "context"

// Event is any domain event with a name identifier.
type Event interface {
	EventName() string
}

// Identified is implemented by events carrying a unique message id.
type Identified interface {
	MessageID() string
}

// Handler processes a published event.
type Handler func(ctx context.Context, e Event) error

// Publisher hands events to interested subscribers. It is the notifier port of the use cases.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Subscriber registers handlers for event names.
type Subscriber interface {
	Subscribe(eventName string, h Handler)
}

// Bus both publishes and dispatches events.
type Bus interface {
	Publisher
	Subscriber
}
