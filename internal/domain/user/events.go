package user

import (
	"time"

	"github.com/google/uuid"
)

// DetailsChangedEvent is emitted after a user's details were changed remotely and cached.
type DetailsChangedEvent struct {
	EventID    string
	User       User
	OccurredAt time.Time
}

func (DetailsChangedEvent) EventName() string   { return "user.details_changed" }
func (e DetailsChangedEvent) MessageID() string { return e.EventID }

func NewDetailsChangedEvent(u User) DetailsChangedEvent {
	return DetailsChangedEvent{
		EventID:    uuid.NewString(),
		User:       u,
		OccurredAt: time.Now().UTC(),
	}
}

// ProfileFetchedEvent is emitted after a fresh profile was fetched and cached.
type ProfileFetchedEvent struct {
	EventID    string
	User       User
	OccurredAt time.Time
}

func (ProfileFetchedEvent) EventName() string   { return "user.profile_fetched" }
func (e ProfileFetchedEvent) MessageID() string { return e.EventID }

func NewProfileFetchedEvent(u User) ProfileFetchedEvent {
	return ProfileFetchedEvent{
		EventID:    uuid.NewString(),
		User:       u,
		OccurredAt: time.Now().UTC(),
	}
}
