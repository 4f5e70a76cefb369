package game

import "github.com/vmihailenco/msgpack/v5"

// msgpack writes TextMarshaler output as bin, so the enums encode themselves
// as str to match the JSON wire names.

var (
	_ msgpack.CustomEncoder = WeaponType(0)
	_ msgpack.CustomDecoder = (*WeaponType)(nil)
	_ msgpack.CustomEncoder = PowerUpType(0)
	_ msgpack.CustomDecoder = (*PowerUpType)(nil)
	_ msgpack.CustomEncoder = EventType(0)
)

// EncodeMsgpack writes the weapon's wire name.
func (t WeaponType) EncodeMsgpack(enc *msgpack.Encoder) error {
	b, err := t.MarshalText()
	if err != nil {
		return err
	}
	return enc.EncodeString(string(b))
}

// DecodeMsgpack reads a weapon wire name.
func (t *WeaponType) DecodeMsgpack(dec *msgpack.Decoder) error {
	s, err := dec.DecodeString()
	if err != nil {
		return err
	}
	return t.UnmarshalText([]byte(s))
}

// EncodeMsgpack writes the power-up's wire name.
func (t PowerUpType) EncodeMsgpack(enc *msgpack.Encoder) error {
	b, err := t.MarshalText()
	if err != nil {
		return err
	}
	return enc.EncodeString(string(b))
}

// DecodeMsgpack reads a power-up wire name.
func (t *PowerUpType) DecodeMsgpack(dec *msgpack.Decoder) error {
	s, err := dec.DecodeString()
	if err != nil {
		return err
	}
	return t.UnmarshalText([]byte(s))
}

// EncodeMsgpack writes the event's wire name.
func (t EventType) EncodeMsgpack(enc *msgpack.Encoder) error {
	return enc.EncodeString(t.String())
}
