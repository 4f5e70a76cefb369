package game

import (
	"fmt"

	"skyarena/internal/config"
)

// WeaponType is the closed set of projectile weapons.
type WeaponType uint8

const (
	WeaponLaser   WeaponType = iota // fast, low damage
	WeaponPlasma                    // medium speed, medium damage
	WeaponMissile                   // slow, high damage

	weaponCount
)

var weaponNames = [weaponCount]string{
	WeaponLaser:   "laser",
	WeaponPlasma:  "plasma",
	WeaponMissile: "missile",
}

// String returns the wire name of the weapon.
func (t WeaponType) String() string {
	if !t.Valid() {
		return "unknown"
	}
	return weaponNames[t]
}

// Valid reports whether t is one of the defined weapons.
func (t WeaponType) Valid() bool { return t < weaponCount }

// MarshalText encodes the weapon as its wire name.
func (t WeaponType) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("weapon %d: %w", t, ErrUnknownWeapon)
	}
	return []byte(weaponNames[t]), nil
}

// UnmarshalText decodes a wire name.
func (t *WeaponType) UnmarshalText(b []byte) error {
	w, err := ParseWeaponType(string(b))
	if err != nil {
		return err
	}
	*t = w
	return nil
}

// ParseWeaponType maps a wire name to a WeaponType.
func ParseWeaponType(name string) (WeaponType, error) {
	for i, n := range weaponNames {
		if n == name {
			return WeaponType(i), nil
		}
	}
	return 0, fmt.Errorf("weapon %q: %w", name, ErrUnknownWeapon)
}

// weaponTable is the per-type lookup of speed, damage and cooldown.
type weaponTable [weaponCount]config.WeaponSpec

// newWeaponTable resolves every weapon from the configured specs.
// Weapons missing from the config fall back to the defaults.
func newWeaponTable(specs map[string]config.WeaponSpec) weaponTable {
	defaults := config.DefaultSim().Weapons

	var table weaponTable
	for i, name := range weaponNames {
		spec, ok := specs[name]
		if !ok {
			spec = defaults[name]
		}
		table[i] = spec
	}
	return table
}
