package api

import (
	"encoding/json"

	"github.com/gorilla/websocket"
	"github.com/vmihailenco/msgpack/v5"

	"skyarena/internal/command"
)

// Envelope is the outbound frame: event name plus payload.
type Envelope struct {
	T string `json:"t" msgpack:"t"`
	D any    `json:"d" msgpack:"d"`
}

// Codec encodes outbound envelopes and decodes inbound messages for one
// websocket subprotocol.
type Codec interface {
	Name() string
	MessageType() int
	Encode(event string, data any) ([]byte, error)
	Decode(frame []byte, msg *command.Message) error
}

// Subprotocol names offered during the upgrade. JSON is the default when the
// client asks for nothing.
const (
	SubprotocolJSON    = "json"
	SubprotocolMsgpack = "msgpack"
)

type jsonCodec struct{}

func (jsonCodec) Name() string     { return SubprotocolJSON }
func (jsonCodec) MessageType() int { return websocket.TextMessage }

func (jsonCodec) Encode(event string, data any) ([]byte, error) {
	return json.Marshal(Envelope{T: event, D: data})
}

func (jsonCodec) Decode(frame []byte, msg *command.Message) error {
	return json.Unmarshal(frame, msg)
}

type msgpackCodec struct{}

func (msgpackCodec) Name() string     { return SubprotocolMsgpack }
func (msgpackCodec) MessageType() int { return websocket.BinaryMessage }

func (msgpackCodec) Encode(event string, data any) ([]byte, error) {
	return msgpack.Marshal(Envelope{T: event, D: data})
}

func (msgpackCodec) Decode(frame []byte, msg *command.Message) error {
	return msgpack.Unmarshal(frame, msg)
}

// JSONCodec and MsgpackCodec are the two supported codecs.
var (
	JSONCodec    Codec = jsonCodec{}
	MsgpackCodec Codec = msgpackCodec{}
)

// codecFor returns the codec for a negotiated subprotocol.
func codecFor(subprotocol string) Codec {
	if subprotocol == SubprotocolMsgpack {
		return MsgpackCodec
	}
	return JSONCodec
}
