// Package telemetry provides run statistics, bookmarks, event logs and run indexing.
package telemetry

import "github.com/pthm-cable/hive/components"

// EventType identifies telemetry events.
type EventType string

const (
	EventPickup     EventType = "pickup"
	EventEmptyVisit EventType = "empty_visit"
	EventDeliver    EventType = "deliver"
	EventDropped    EventType = "dropped"
	EventWaypoint   EventType = "waypoint"
)

// Event is one carry task transition or command, written as a JSON line.
type Event struct {
	Type   EventType `json:"type"`
	Tick   int32     `json:"tick"`
	Agent  uint32    `json:"agent"`
	Kind   string    `json:"kind,omitempty"`
	Amount int       `json:"amount,omitempty"`
	Home   string    `json:"home,omitempty"`
	X      float64   `json:"x"`
	Y      float64   `json:"y"`
}

// NewPickupEvent records an agent loading an item.
func NewPickupEvent(tick int32, agent uint32, item components.Item, x, y float64) Event {
	return Event{Type: EventPickup, Tick: tick, Agent: agent, Kind: item.Kind.String(), Amount: item.Amount, X: x, Y: y}
}

// NewEmptyVisitEvent records an agent reaching a target with nothing to collect.
func NewEmptyVisitEvent(tick int32, agent uint32, x, y float64) Event {
	return Event{Type: EventEmptyVisit, Tick: tick, Agent: agent, X: x, Y: y}
}

// NewDeliverEvent records a payload credited to a home.
func NewDeliverEvent(tick int32, agent uint32, home string, kind components.ItemKind, amount int, x, y float64) Event {
	return Event{Type: EventDeliver, Tick: tick, Agent: agent, Home: home, Kind: kind.String(), Amount: amount, X: x, Y: y}
}

// NewDroppedEvent records a payload lost because the home no longer exists.
func NewDroppedEvent(tick int32, agent uint32, kind components.ItemKind, amount int, x, y float64) Event {
	return Event{Type: EventDropped, Tick: tick, Agent: agent, Kind: kind.String(), Amount: amount, X: x, Y: y}
}

// NewWaypointEvent records a manual move order.
func NewWaypointEvent(tick int32, agent uint32, x, y float64) Event {
	return Event{Type: EventWaypoint, Tick: tick, Agent: agent, X: x, Y: y}
}
