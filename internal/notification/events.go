package notification

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Action identifies the mutation that produced an event.
type Action string

// Mutation actions carried by events.
const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Entity identifies the kind of entity an event is about.
type Entity string

// Entities that produce events.
const (
	EntityTask Entity = "task"
	EntityUser Entity = "user"
)

// Event is the tagged payload fanned out to observers after a successful
// mutation. It is constructed by the service layer only after the mutation
// has been persisted (or, for deletes, carries the pre-deletion snapshot).
type Event struct {
	// ID is a unique identifier for this event.
	ID uuid.UUID `json:"id"`

	// Action is the mutation that produced the event.
	Action Action `json:"action"`

	// Entity is the kind of entity the event is about.
	Entity Entity `json:"entity"`

	// Subject is the affected entity serialized as JSON. For delete
	// events it is the snapshot taken before deletion.
	Subject json.RawMessage `json:"subject"`

	// ContactPoints are the email addresses of the parties related to the
	// mutation (assignee, creator, or the user themself).
	ContactPoints []string `json:"contact_points"`

	// CreatedAt is the timestamp when the event was constructed.
	CreatedAt time.Time `json:"created_at"`
}

// NewEvent creates an Event for the given action, serializing the subject.
func NewEvent(action Action, entity Entity, subject any, contactPoints []string) (Event, error) {
	payload, err := json.Marshal(subject)
	if err != nil {
		return Event{}, err
	}
	return Event{
		ID:            uuid.New(),
		Action:        action,
		Entity:        entity,
		Subject:       payload,
		ContactPoints: contactPoints,
		CreatedAt:     time.Now().UTC(),
	}, nil
}
