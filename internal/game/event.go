package game

// EventType classifies outbound events. The string form is the wire name.
type EventType uint8

const (
	EventUnknown EventType = iota
	EventState
	EventHit
	EventKilled
	EventPowerUpCollected
	EventJoined
	EventLeft
	EventRespawned
	EventWelcome
	EventError
)

// String returns the wire name of the event.
func (t EventType) String() string {
	switch t {
	case EventState:
		return "state"
	case EventHit:
		return "hit"
	case EventKilled:
		return "killed"
	case EventPowerUpCollected:
		return "powerup:collected"
	case EventJoined:
		return "joined"
	case EventLeft:
		return "left"
	case EventRespawned:
		return "respawned"
	case EventWelcome:
		return "welcome"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}

// MarshalText encodes the event type as its wire name.
func (t EventType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// Event is one outbound message. Data holds one of the payload types below,
// or *Snapshot for EventState.
type Event struct {
	Type     EventType
	Tick     uint64
	PlayerID string // subject of the event; empty for world-wide events
	Data     any
}

// HitEvent is emitted once per confirmed projectile hit.
type HitEvent struct {
	TargetID   string `json:"targetId" msgpack:"targetId"`
	AttackerID string `json:"attackerId" msgpack:"attackerId"`
	Damage     int    `json:"damage" msgpack:"damage"`
	NewHealth  int    `json:"newHealth" msgpack:"newHealth"`
}

// KillEvent is emitted once per death. Position is where the victim died.
type KillEvent struct {
	VictimID   string     `json:"victimId" msgpack:"victimId"`
	KillerID   string     `json:"killerId" msgpack:"killerId"`
	VictimName string     `json:"victimName" msgpack:"victimName"`
	KillerName string     `json:"killerName" msgpack:"killerName"`
	Weapon     WeaponType `json:"weapon" msgpack:"weapon"`
	Position   Vec3       `json:"position" msgpack:"position"`
}

// PickupEvent is emitted once per power-up collection.
type PickupEvent struct {
	PowerUpID string      `json:"powerUpId" msgpack:"powerUpId"`
	PlayerID  string      `json:"playerId" msgpack:"playerId"`
	Type      PowerUpType `json:"type" msgpack:"type"`
}

// JoinedEvent announces a new player.
type JoinedEvent struct {
	Player PlayerView `json:"player" msgpack:"player"`
}

// LeftEvent announces a removed player.
type LeftEvent struct {
	PlayerID string `json:"playerId" msgpack:"playerId"`
}

// RespawnedEvent announces a manual respawn.
type RespawnedEvent struct {
	Player PlayerView `json:"player" msgpack:"player"`
}

// WelcomeEvent is sent only to the connection that just joined.
type WelcomeEvent struct {
	PlayerID string     `json:"playerId" msgpack:"playerId"`
	Player   PlayerView `json:"player" msgpack:"player"`
	Mode     GameMode   `json:"mode" msgpack:"mode"`
}

// ErrorEvent is sent to a single connection whose command was rejected.
type ErrorEvent struct {
	Message string `json:"message" msgpack:"message"`
}

// Publisher receives every tick's events in emission order.
// Implementations must not block the tick.
type Publisher interface {
	Publish(events []Event)
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(events []Event)

// Publish calls f(events).
func (f PublisherFunc) Publish(events []Event) { f(events) }

// MultiPublisher fans events out to several publishers in order.
type MultiPublisher []Publisher

// Publish hands events to every non-nil publisher.
func (m MultiPublisher) Publish(events []Event) {
	for _, p := range m {
		if p != nil {
			p.Publish(events)
		}
	}
}
