package event

import (
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	TypeProjectCreated      Type = "project_created"
	TypeProjectUpdated      Type = "project_updated"
	TypeProjectSuspended    Type = "project_suspended"
	TypeProjectActivated    Type = "project_activated"
	TypeInterestRegistered  Type = "interest_registered"
	TypeActivationScheduled Type = "activation_scheduled"
)

// Channel is a domain-scoped pub/sub channel. Every event type maps to one.
type Channel string

const (
	ChannelProject Channel = "project"
)

var typeToChannel = map[Type]Channel{
	TypeProjectCreated:      ChannelProject,
	TypeProjectUpdated:      ChannelProject,
	TypeProjectSuspended:    ChannelProject,
	TypeProjectActivated:    ChannelProject,
	TypeInterestRegistered:  ChannelProject,
	TypeActivationScheduled: ChannelProject,
}

// ChannelFor returns the domain channel for a given event type.
func ChannelFor(t Type) Channel { return typeToChannel[t] }

// Event carries identifiers only, not full state.
// Subscribers fetch fresh state from the registry.
type Event struct {
	Type      Type      `json:"type"`
	EntityID  uuid.UUID `json:"entity_id"`
	Timestamp time.Time `json:"timestamp"`
}

func New(eventType Type, entityID uuid.UUID) Event {
	return Event{
		Type:      eventType,
		EntityID:  entityID,
		Timestamp: time.Now().UTC(),
	}
}
