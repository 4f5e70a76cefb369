// Package config provides centralized configuration management.
// Every tunable of the simulation lives here; the rest of the codebase reads
// these values and never hardcodes its own copy.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// =============================================================================
// SIMULATION CONFIGURATION
// =============================================================================

// Vec is a plain 3D coordinate used for spawn pools and power-up placements.
// The game package has its own vector type; config stays dependency free.
type Vec struct {
	X, Y, Z float64
}

// WeaponSpec holds the per-weapon constants.
type WeaponSpec struct {
	Speed    float64       // Units per second
	Damage   int           // Damage per hit, fixed at projectile creation
	Cooldown time.Duration // Minimum time between two shots of this weapon
}

// PowerUpPlacement places one power-up at world initialization.
type PowerUpPlacement struct {
	Type     string
	Position Vec
}

// SimConfig holds the authoritative simulation constants.
type SimConfig struct {
	TickRate        int     // Simulation steps per second
	MaxCatchUpSteps int     // Max fixed steps run per scheduler dispatch
	WorldSize       float64 // Edge length of the cubic world; bounds are ±WorldSize/2

	PlayerSpeed     float64 // Units per second at full input
	BoostMultiplier float64
	RotationStep    float64 // Radians applied per unit of pitch/yaw/roll input
	MaxHealth       int
	ShieldCap       int
	HitRadius       float64
	ProjectileTTL   time.Duration
	KillScore       int

	// Weapons keyed by wire name: "laser", "plasma", "missile"
	Weapons map[string]WeaponSpec

	PickupRadius       float64
	PowerUpRespawn     time.Duration
	HealthPickupAmount int
	ShieldPickupAmount int
	PowerUps           []PowerUpPlacement

	SpawnPoints     []Vec
	RedSpawnPoints  []Vec
	BlueSpawnPoints []Vec

	// BroadPhase selects the projectile candidate filter: "brute", "grid" or "sweep"
	BroadPhase   string
	GridCellSize float64
}

// DefaultSim returns the default simulation configuration.
func DefaultSim() SimConfig {
	return SimConfig{
		TickRate:        60,
		MaxCatchUpSteps: 5,
		WorldSize:       1000,

		PlayerSpeed:     50,
		BoostMultiplier: 2,
		RotationStep:    0.05,
		MaxHealth:       100,
		ShieldCap:       100,
		HitRadius:       5,
		ProjectileTTL:   3 * time.Second,
		KillScore:       100,

		Weapons: map[string]WeaponSpec{
			"laser":   {Speed: 200, Damage: 15, Cooldown: 200 * time.Millisecond},
			"plasma":  {Speed: 150, Damage: 25, Cooldown: 500 * time.Millisecond},
			"missile": {Speed: 100, Damage: 40, Cooldown: time.Second},
		},

		PickupRadius:       10,
		PowerUpRespawn:     30 * time.Second,
		HealthPickupAmount: 25,
		ShieldPickupAmount: 50,
		PowerUps: []PowerUpPlacement{
			{Type: "health", Position: Vec{X: 100, Y: 0, Z: 100}},
			{Type: "health", Position: Vec{X: -100, Y: 0, Z: -100}},
			{Type: "shield", Position: Vec{X: -100, Y: 0, Z: 100}},
			{Type: "shield", Position: Vec{X: 100, Y: 0, Z: -100}},
			{Type: "speed", Position: Vec{X: 0, Y: 50, Z: 0}},
			{Type: "rapidfire", Position: Vec{X: 200, Y: 0, Z: 0}},
			{Type: "damage", Position: Vec{X: -200, Y: 0, Z: 0}},
		},

		SpawnPoints: []Vec{
			{X: 0, Y: 0, Z: 300},
			{X: 0, Y: 0, Z: -300},
			{X: 300, Y: 0, Z: 0},
			{X: -300, Y: 0, Z: 0},
			{X: 212, Y: 50, Z: 212},
			{X: -212, Y: 50, Z: 212},
			{X: 212, Y: -50, Z: -212},
			{X: -212, Y: -50, Z: -212},
		},
		RedSpawnPoints: []Vec{
			{X: -100, Y: 0, Z: -400},
			{X: 0, Y: 0, Z: -400},
			{X: 100, Y: 0, Z: -400},
		},
		BlueSpawnPoints: []Vec{
			{X: -100, Y: 0, Z: 400},
			{X: 0, Y: 0, Z: 400},
			{X: 100, Y: 0, Z: 400},
		},

		BroadPhase:   "brute",
		GridCellSize: 50,
	}
}

// SimFromEnv returns simulation configuration with environment variable overrides.
func SimFromEnv() SimConfig {
	cfg := DefaultSim()

	if v := getEnvInt("SIM_TICK_RATE", 0); v > 0 {
		cfg.TickRate = v
	}
	if v := getEnvFloat("SIM_WORLD_SIZE", 0); v > 0 {
		cfg.WorldSize = v
	}
	if v := getEnvFloat("SIM_PLAYER_SPEED", 0); v > 0 {
		cfg.PlayerSpeed = v
	}
	if v := getEnvFloat("SIM_BOOST_MULTIPLIER", 0); v > 0 {
		cfg.BoostMultiplier = v
	}
	if v := getEnvInt("SIM_MAX_HEALTH", 0); v > 0 {
		cfg.MaxHealth = v
	}
	if v := getEnvInt("SIM_SHIELD_CAP", 0); v > 0 {
		cfg.ShieldCap = v
	}
	if v := getEnvFloat("SIM_HIT_RADIUS", 0); v > 0 {
		cfg.HitRadius = v
	}
	if v := getEnvDuration("SIM_PROJECTILE_TTL", 0); v > 0 {
		cfg.ProjectileTTL = v
	}
	if v := getEnvFloat("SIM_PICKUP_RADIUS", 0); v > 0 {
		cfg.PickupRadius = v
	}
	if v := getEnvDuration("SIM_POWERUP_RESPAWN", 0); v > 0 {
		cfg.PowerUpRespawn = v
	}
	if v := os.Getenv("SIM_BROADPHASE"); v != "" {
		cfg.BroadPhase = strings.ToLower(v)
	}

	// Per-weapon overrides: SIM_WEAPON_LASER_SPEED, SIM_WEAPON_LASER_DAMAGE, ...
	for name, spec := range cfg.Weapons {
		prefix := "SIM_WEAPON_" + strings.ToUpper(name) + "_"
		if v := getEnvFloat(prefix+"SPEED", 0); v > 0 {
			spec.Speed = v
		}
		if v := getEnvInt(prefix+"DAMAGE", 0); v > 0 {
			spec.Damage = v
		}
		if v := getEnvDuration(prefix+"COOLDOWN", 0); v > 0 {
			spec.Cooldown = v
		}
		cfg.Weapons[name] = spec
	}

	return cfg
}

// =============================================================================
// BOT (PRACTICE MODE) CONFIGURATION
// =============================================================================

// BotConfig holds practice-mode bot tuning.
type BotConfig struct {
	Count         int
	Speed         float64
	EngageRadius  float64
	FireRadius    float64
	FireCooldown  time.Duration
	RespawnDelay  time.Duration
	WanderMin     time.Duration // Shortest interval between wander direction changes
	WanderMax     time.Duration
	MaxWanderTilt float64 // Max pitch (radians) of a wander direction
	Weapon        string
}

// DefaultBots returns the default bot configuration.
func DefaultBots() BotConfig {
	return BotConfig{
		Count:         3,
		Speed:         30,
		EngageRadius:  200,
		FireRadius:    150,
		FireCooldown:  time.Second,
		RespawnDelay:  5 * time.Second,
		WanderMin:     2 * time.Second,
		WanderMax:     5 * time.Second,
		MaxWanderTilt: 0.3,
		Weapon:        "laser",
	}
}

// BotsFromEnv returns bot configuration with environment variable overrides.
func BotsFromEnv() BotConfig {
	cfg := DefaultBots()

	if v := getEnvInt("BOT_COUNT", -1); v >= 0 {
		cfg.Count = v
	}
	if v := getEnvFloat("BOT_SPEED", 0); v > 0 {
		cfg.Speed = v
	}
	if v := getEnvFloat("BOT_ENGAGE_RADIUS", 0); v > 0 {
		cfg.EngageRadius = v
	}
	if v := getEnvFloat("BOT_FIRE_RADIUS", 0); v > 0 {
		cfg.FireRadius = v
	}
	if v := getEnvDuration("BOT_FIRE_COOLDOWN", 0); v > 0 {
		cfg.FireCooldown = v
	}
	if v := getEnvDuration("BOT_RESPAWN_DELAY", 0); v > 0 {
		cfg.RespawnDelay = v
	}

	return cfg
}

// =============================================================================
// RESOURCE LIMITS
// =============================================================================

// ResourceLimits controls DoS protection.
type ResourceLimits struct {
	MaxPlayers         int     // Hard cap on players in the world (bots included)
	MaxProjectiles     int     // Hard cap on live projectiles
	InputRatePerSecond float64 // Inbound messages per second per connection
	InputBurst         int
}

// DefaultLimits returns the default resource limits.
func DefaultLimits() ResourceLimits {
	return ResourceLimits{
		MaxPlayers:         64,
		MaxProjectiles:     2000,
		InputRatePerSecond: 120,
		InputBurst:         60,
	}
}

// =============================================================================
// SERVER CONFIGURATION
// =============================================================================

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         int
	CORSOrigins  []string
	EventLogPath string
	LogLevel     string
}

// DefaultServer returns the default server configuration.
func DefaultServer() ServerConfig {
	return ServerConfig{
		Port:     3000,
		LogLevel: "info",
	}
}

// ServerFromEnv returns server configuration with environment variable overrides.
func ServerFromEnv() ServerConfig {
	cfg := DefaultServer()

	if p := getEnvInt("PORT", 0); p > 0 {
		cfg.Port = p
	}
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		cfg.CORSOrigins = splitList(v)
	}
	cfg.EventLogPath = os.Getenv("EVENT_LOG_PATH")
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}

	return cfg
}

// =============================================================================
// OBSERVABILITY, AUTH, BROKER
// =============================================================================

// ObservabilityConfig configures the debug server (pprof + metrics).
type ObservabilityConfig struct {
	Enabled    bool
	ListenAddr string
}

// ObservabilityFromEnv returns the debug server configuration.
func ObservabilityFromEnv() ObservabilityConfig {
	cfg := ObservabilityConfig{Enabled: true, ListenAddr: "127.0.0.1:6060"}
	if os.Getenv("DISABLE_DEBUG_SERVER") == "true" {
		cfg.Enabled = false
	}
	if v := os.Getenv("DEBUG_ADDR"); v != "" {
		cfg.ListenAddr = v
	}
	return cfg
}

// AuthConfig configures control-plane authentication.
// An empty secret disables the check.
type AuthConfig struct {
	JWTSecret string
}

// BrokerConfig configures the optional NATS event fan-out.
// An empty URL disables it.
type BrokerConfig struct {
	NATSURL       string
	Stream        string
	SubjectPrefix string

	// StateBucket is the key-value bucket holding the latest snapshot,
	// written every StateEvery ticks. Zero disables it.
	StateBucket string
	StateEvery  int
}

// BrokerFromEnv returns broker configuration from the environment.
func BrokerFromEnv() BrokerConfig {
	return BrokerConfig{
		NATSURL:       os.Getenv("NATS_URL"),
		Stream:        getEnvWithDefault("NATS_STREAM", "ARENA_EVENTS"),
		SubjectPrefix: getEnvWithDefault("NATS_SUBJECT_PREFIX", "arena.events"),
		StateBucket:   getEnvWithDefault("NATS_STATE_BUCKET", "ARENA_STATE"),
		StateEvery:    getEnvInt("NATS_STATE_EVERY", 30),
	}
}

// =============================================================================
// COMPLETE APP CONFIGURATION
// =============================================================================

// AppConfig holds the complete application configuration.
type AppConfig struct {
	Server        ServerConfig
	Sim           SimConfig
	Bots          BotConfig
	Limits        ResourceLimits
	Observability ObservabilityConfig
	Auth          AuthConfig
	Broker        BrokerConfig
}

// Load returns the complete configuration with environment overrides.
func Load() AppConfig {
	return AppConfig{
		Server:        ServerFromEnv(),
		Sim:           SimFromEnv(),
		Bots:          BotsFromEnv(),
		Limits:        DefaultLimits(),
		Observability: ObservabilityFromEnv(),
		Auth:          AuthConfig{JWTSecret: os.Getenv("ADMIN_JWT_SECRET")},
		Broker:        BrokerFromEnv(),
	}
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func getEnvWithDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
