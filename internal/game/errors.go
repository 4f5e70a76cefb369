package game

import "errors"

var (
	// ErrInvalidMode is returned for a mode change to anything but ffa or team.
	ErrInvalidMode = errors.New("invalid game mode")

	// ErrUnknownWeapon is returned when a weapon name is not recognised.
	ErrUnknownWeapon = errors.New("unknown weapon type")

	// ErrUnknownPowerUp is returned when a power-up name is not recognised.
	ErrUnknownPowerUp = errors.New("unknown power-up type")

	// ErrWorldFull is returned by Join once the player cap is reached.
	ErrWorldFull = errors.New("world is full")

	// ErrDuplicatePlayer is returned by Join when the requested id is taken.
	ErrDuplicatePlayer = errors.New("player id already in use")
)
