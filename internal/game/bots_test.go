package game

import (
	"math"
	"testing"
	"time"

	"skyarena/internal/config"
)

// practiceWorld joins a human at the origin in practice mode and lines the
// bots up along +Z, 50 units apart.
func practiceWorld(t *testing.T, behavior BotMode, opts ...Option) (*World, *ManualClock, *Player) {
	t.Helper()
	w, clock := newTestWorld(t, testSim(), opts...)
	if _, err := w.Join(JoinRequest{ID: "human", Name: "human", Mode: "practice", BotBehavior: behavior}); err != nil {
		t.Fatal(err)
	}
	human := w.store.Player("human")
	human.Position = Vec3{}
	for i, b := range w.store.Bots() {
		w.store.Player(b.ID).Position = Vec3{Z: float64(50 * (i + 1))}
	}
	return w, clock, human
}

func TestPracticeJoinSpawnsBots(t *testing.T) {
	w, _, _ := practiceWorld(t, BotAggressive)

	res := w.Step(0.01)

	if len(res.Membership) != 4 {
		t.Fatalf("membership events = %d, want human plus 3 bots", len(res.Membership))
	}
	for i, want := range []string{"human", "bot-1", "bot-2", "bot-3"} {
		if got := res.Membership[i].PlayerID; got != want || res.Membership[i].Type != EventJoined {
			t.Errorf("event %d = %s %s, want joined %s", i, res.Membership[i].Type, got, want)
		}
	}
	if st := w.Status(); st.Bots != 3 || !st.Practice {
		t.Errorf("status = %+v", st)
	}
	for _, b := range w.store.Bots() {
		if !w.store.Player(b.ID).IsBot {
			t.Errorf("%s not flagged as a bot", b.ID)
		}
	}

	if _, err := w.Join(JoinRequest{ID: "other", Mode: "practice"}); err != nil {
		t.Fatal(err)
	}
	if w.store.BotCount() != 3 {
		t.Errorf("second practice join spawned more bots: %d", w.store.BotCount())
	}
}

// TestOnlyOneBotAttacks verifies the lowest-ordinal living bot is the only
// one that moves and fires; the rest hold position.
func TestOnlyOneBotAttacks(t *testing.T) {
	w, _, _ := practiceWorld(t, BotAggressive)

	w.Step(0.01)

	attacker := w.store.Player("bot-1")
	if !vecApprox(attacker.Velocity, Vec3{Z: -30}) {
		t.Errorf("attacker velocity = %v, want toward the human", attacker.Velocity)
	}
	for _, id := range []string{"bot-2", "bot-3"} {
		if v := w.store.Player(id).Velocity; v != (Vec3{}) {
			t.Errorf("%s velocity = %v, want still", id, v)
		}
	}

	owners := map[string]int{}
	for _, pr := range w.store.Projectiles() {
		owners[pr.OwnerID]++
	}
	if owners["bot-1"] != 1 || len(owners) != 1 {
		t.Errorf("projectile owners = %v, want one shot from bot-1", owners)
	}
}

func TestBotFireCooldown(t *testing.T) {
	w, clock, _ := practiceWorld(t, BotAggressive)

	w.Step(0.01)
	clock.Advance(500 * time.Millisecond)
	w.Step(0.01)
	if n := len(w.store.Projectiles()); n != 1 {
		t.Fatalf("projectiles = %d inside the bot cooldown, want 1", n)
	}

	clock.Advance(500 * time.Millisecond)
	w.Step(0.01)
	if n := len(w.store.Projectiles()); n != 2 {
		t.Errorf("projectiles = %d after the cooldown, want 2", n)
	}
}

func TestAttackRoleMovesOnDeath(t *testing.T) {
	w, clock, human := practiceWorld(t, BotAggressive)
	bot1 := w.store.Player("bot-1")
	w.applyHit(&Projectile{OwnerID: "human", Damage: 1000}, human, bot1, clock.Now())

	w.Step(0.01)

	if v := w.store.Player("bot-2").Velocity; v == (Vec3{}) {
		t.Error("bot-2 did not take over the attack")
	}
	if v := w.store.Player("bot-3").Velocity; v != (Vec3{}) {
		t.Errorf("bot-3 velocity = %v, want still", v)
	}
}

func TestPassiveBotsWander(t *testing.T) {
	w, _, _ := practiceWorld(t, BotPassive)

	w.Step(0.01)

	for _, b := range w.store.Bots() {
		speed := w.store.Player(b.ID).Velocity.Length()
		if math.Abs(speed-30) > 1e-9 {
			t.Errorf("%s speed = %v, want 30", b.ID, speed)
		}
	}
	if n := len(w.store.Projectiles()); n != 0 {
		t.Errorf("passive bots fired %d shots", n)
	}
}

// TestBotsFaceWhereTheyGo verifies the -Z nose of every bot points at the
// human while engaging or holding, and along its heading while wandering.
func TestBotsFaceWhereTheyGo(t *testing.T) {
	nose := func(p *Player) Vec3 { return p.Rotation.Rotate(Vec3{Z: -1}) }

	w, _, human := practiceWorld(t, BotAggressive)
	w.Step(0.01)
	for _, id := range []string{"bot-1", "bot-2", "bot-3"} {
		bot := w.store.Player(id)
		toHuman, _ := human.Position.Sub(bot.Position).Normalize()
		if got := nose(bot); !vecApprox(got, toHuman) {
			t.Errorf("%s nose = %v, want %v", id, got, toHuman)
		}
	}

	w, _, _ = practiceWorld(t, BotPassive)
	w.Step(0.01)
	for _, b := range w.store.Bots() {
		heading, _ := Vec3{X: b.MoveDirection.X, Z: b.MoveDirection.Z}.Normalize()
		if got := nose(w.store.Player(b.ID)); !vecApprox(got, heading) {
			t.Errorf("%s nose = %v, want heading %v", b.ID, got, heading)
		}
	}
}

// TestBotIDsSkipTakenIDs verifies a bot never replaces a human who joined
// under a bot-style id.
func TestBotIDsSkipTakenIDs(t *testing.T) {
	w, _ := newTestWorld(t, testSim())
	if _, err := w.Join(JoinRequest{ID: "bot-1", Name: "sneaky"}); err != nil {
		t.Fatal(err)
	}
	if _, err := w.Join(JoinRequest{ID: "human", Mode: "practice"}); err != nil {
		t.Fatal(err)
	}

	if p := w.store.Player("bot-1"); p.IsBot || p.Name != "sneaky" {
		t.Errorf("bot-1 = %+v, want the human record", p)
	}
	var ids []string
	for _, b := range w.store.Bots() {
		ids = append(ids, b.ID)
	}
	if len(ids) != 3 || ids[0] != "bot-2" || ids[2] != "bot-4" {
		t.Errorf("bot ids = %v, want bot-2..bot-4", ids)
	}
}

// TestBotRespawnDelay verifies a killed bot comes back exactly RespawnDelay
// after its death.
func TestBotRespawnDelay(t *testing.T) {
	w, clock, human := practiceWorld(t, BotPassive)
	bot := w.store.Player("bot-2")

	_, kill := w.applyHit(&Projectile{OwnerID: "human", Type: WeaponLaser, Damage: 1000}, human, bot, clock.Now())
	if kill == nil {
		t.Fatal("no kill reported")
	}

	clock.Advance(5*time.Second - time.Millisecond)
	w.Step(0.01)
	if bot.IsAlive {
		t.Fatal("bot respawned early")
	}

	clock.Advance(time.Millisecond)
	res := w.Step(0.01)
	if !bot.IsAlive || bot.Health != 100 {
		t.Fatalf("bot alive=%v health=%d after the delay", bot.IsAlive, bot.Health)
	}
	if !w.store.Bot("bot-2").RespawnTime.IsZero() {
		t.Error("respawn deadline not cleared")
	}
	if len(res.Membership) != 0 {
		t.Errorf("bot respawn raised membership events: %+v", res.Membership)
	}
}

func TestBotsCappedByMaxPlayers(t *testing.T) {
	limits := config.DefaultLimits()
	limits.MaxPlayers = 2
	w, _ := newTestWorld(t, testSim(), WithLimits(limits))

	if _, err := w.Join(JoinRequest{ID: "human", Mode: "practice"}); err != nil {
		t.Fatal(err)
	}
	if n := w.store.BotCount(); n != 1 {
		t.Errorf("bots = %d, want 1", n)
	}
}

func TestBotsSkipTeammates(t *testing.T) {
	w, _ := newTestWorld(t, testSim())
	if err := w.SetMode("team"); err != nil {
		t.Fatal(err)
	}
	if _, err := w.Join(JoinRequest{ID: "human", Team: TeamBlue, Mode: "practice"}); err != nil {
		t.Fatal(err)
	}

	// With a blue human the bots fill red, red, blue.
	human := w.store.Player("human")
	for _, b := range w.store.Bots() {
		p := w.store.Player(b.ID)
		target, _ := w.nearestTarget(p, w.store.Players())
		if p.Team == human.Team && target != nil {
			t.Errorf("%s (%s) targets its teammate", b.ID, p.Team)
		}
		if p.Team != human.Team && target != human {
			t.Errorf("%s (%s) does not target the human", b.ID, p.Team)
		}
	}
}

func TestParseBotMode(t *testing.T) {
	tests := map[string]BotMode{
		"passive":  BotPassive,
		" PASSIVE": BotPassive,
		"":         BotAggressive,
		"berserk":  BotAggressive,
	}
	for in, want := range tests {
		if got := ParseBotMode(in); got != want {
			t.Errorf("ParseBotMode(%q) = %s, want %s", in, got, want)
		}
	}
}
