// Package command turns inbound client messages into World operations.
//
// Messages arrive as an envelope {t, d}. The transport decodes the envelope
// (JSON or msgpack), wraps it in a Command bound to the sending Session and
// hands it to a Queue; a worker applies commands to the World in arrival
// order.
package command

import (
	"sync"
	"sync/atomic"
	"time"

	"skyarena/internal/game"
)

// Type routes a command.
type Type int

const (
	CmdJoin Type = iota
	CmdInput
	CmdShoot
	CmdRespawn
	CmdDisconnect
	CmdUnknown
)

// supportedCommands maps envelope tags to types.
var supportedCommands = map[string]Type{
	"join":       CmdJoin,
	"input":      CmdInput,
	"shoot":      CmdShoot,
	"respawn":    CmdRespawn,
	"disconnect": CmdDisconnect,
}

// ParseType returns the Type for an envelope tag, or CmdUnknown.
func ParseType(tag string) Type {
	if t, ok := supportedCommands[tag]; ok {
		return t
	}
	return CmdUnknown
}

// String returns the envelope tag.
func (t Type) String() string {
	switch t {
	case CmdJoin:
		return "join"
	case CmdInput:
		return "input"
	case CmdShoot:
		return "shoot"
	case CmdRespawn:
		return "respawn"
	case CmdDisconnect:
		return "disconnect"
	default:
		return "unknown"
	}
}

// Message is the inbound envelope.
type Message struct {
	T string  `json:"t" msgpack:"t"`
	D Payload `json:"d" msgpack:"d"`
}

// Payload is the union of every command's fields. Each command reads only
// its own.
type Payload struct {
	// join
	Name        string `json:"name,omitempty" msgpack:"name,omitempty"`
	Team        string `json:"team,omitempty" msgpack:"team,omitempty"`
	Mode        string `json:"mode,omitempty" msgpack:"mode,omitempty"`
	BotBehavior string `json:"botBehavior,omitempty" msgpack:"botBehavior,omitempty"`

	// input
	Forward   float64 `json:"forward,omitempty" msgpack:"forward,omitempty"`
	Strafe    float64 `json:"strafe,omitempty" msgpack:"strafe,omitempty"`
	Vertical  float64 `json:"vertical,omitempty" msgpack:"vertical,omitempty"`
	Pitch     float64 `json:"pitch,omitempty" msgpack:"pitch,omitempty"`
	Yaw       float64 `json:"yaw,omitempty" msgpack:"yaw,omitempty"`
	Roll      float64 `json:"roll,omitempty" msgpack:"roll,omitempty"`
	Boost     bool    `json:"boost,omitempty" msgpack:"boost,omitempty"`
	Timestamp int64   `json:"timestamp,omitempty" msgpack:"timestamp,omitempty"`

	// shoot
	Type      string    `json:"type,omitempty" msgpack:"type,omitempty"`
	Direction game.Vec3 `json:"direction" msgpack:"direction"`
}

// Reply is a message addressed to the sending connection only.
type Reply struct {
	Event game.EventType // EventWelcome or EventError
	Data  any
}

// Command is one parsed message bound to its session.
type Command struct {
	Type       Type
	Session    *Session
	Payload    Payload
	ReceivedAt time.Time

	// Reply is called from the worker when the command produces a reply.
	Reply func(Reply)
}

// NewCommand builds a Command from a decoded envelope.
func NewCommand(s *Session, msg Message, reply func(Reply)) Command {
	return Command{
		Type:    ParseType(msg.T),
		Session: s,
		Payload: msg.D,
		Reply:   reply,
	}
}

// Session is one client connection. It learns its player id on join.
type Session struct {
	ID string

	mu       sync.Mutex
	playerID string
	closed   atomic.Bool
}

// NewSession creates a session for connection id.
func NewSession(id string) *Session {
	return &Session{ID: id}
}

// PlayerID returns the joined player's id, or "" before join.
func (s *Session) PlayerID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playerID
}

func (s *Session) setPlayerID(id string) {
	s.mu.Lock()
	s.playerID = id
	s.mu.Unlock()
}

// Closed reports whether the connection has gone away.
func (s *Session) Closed() bool { return s.closed.Load() }
