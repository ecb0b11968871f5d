package systems

import (
	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/hive/components"
)

// CarryIntent is the transition an agent wants to commit this tick.
type CarryIntent uint8

const (
	IntentNone CarryIntent = iota
	IntentPickup
	IntentDeliver
)

// ItemSource resolves the pickup-able item on a target entity.
// Claim returns false when the entity is gone, has no item, or was already taken.
type ItemSource interface {
	Claim(e ecs.Entity) (components.Item, bool)
}

// HomeResourceAccumulator receives delivered payloads.
// AddPending returns false when the home no longer exists.
type HomeResourceAccumulator interface {
	AddPending(home ecs.Entity, amount int) bool
}

// CarryTaskMachine drives Idle -> Pursuing -> Carrying -> Idle.
// Evaluate only reads and may run in parallel; Pickup and Deliver mutate
// shared collaborators and must be called serially.
type CarryTaskMachine struct {
	PickupEpsilon  float64
	DeliverEpsilon float64
}

// NewCarryTaskMachine returns a machine with the given arrival distances.
func NewCarryTaskMachine(pickupEpsilon, deliverEpsilon float64) *CarryTaskMachine {
	return &CarryTaskMachine{PickupEpsilon: pickupEpsilon, DeliverEpsilon: deliverEpsilon}
}

// Evaluate returns the transition due for an agent at pos.
func (c *CarryTaskMachine) Evaluate(pos r2.Vec, home *components.Home, target *components.Target, carry *components.Carrying) CarryIntent {
	switch components.TaskOf(target, carry) {
	case components.TaskCarrying:
		if distanceSq(pos, home.Pos) <= c.DeliverEpsilon*c.DeliverEpsilon {
			return IntentDeliver
		}
	case components.TaskPursuing:
		if distanceSq(pos, target.Pos) <= c.PickupEpsilon*c.PickupEpsilon {
			return IntentPickup
		}
	}
	return IntentNone
}

// Pickup clears the target and, if the target still holds an item, loads it.
// Reports whether anything was collected.
func (c *CarryTaskMachine) Pickup(target *components.Target, carry *components.Carrying, items ItemSource) (components.Item, bool) {
	e := target.Entity
	target.Clear()
	item, ok := items.Claim(e)
	if !ok {
		return components.Item{}, false
	}
	carry.Enabled = true
	carry.Kind = item.Kind
	carry.Amount = item.Amount
	return item, true
}

// Deliver hands the payload to the home and clears it. The payload is dropped
// even when the home is gone. Returns the amount and whether it was credited.
func (c *CarryTaskMachine) Deliver(home *components.Home, carry *components.Carrying, acc HomeResourceAccumulator) (int, bool) {
	amount := carry.Amount
	credited := acc.AddPending(home.Entity, amount)
	carry.Clear()
	return amount, credited
}
