package command

import (
	"errors"

	"github.com/charmbracelet/log"

	"skyarena/internal/game"
	"skyarena/internal/metrics"
)

// World is the subset of *game.World the handler drives.
type World interface {
	Join(req game.JoinRequest) (game.PlayerView, error)
	ApplyInput(id string, in game.Input)
	Shoot(id string, t game.WeaponType, direction game.Vec3)
	Respawn(id string)
	Disconnect(id string)
	Mode() game.GameMode
}

// Handler applies commands to the World.
type Handler struct {
	world       World
	rateLimiter *RateLimiter
	logger      *log.Logger
}

// NewHandler creates a handler with per-session rate limiting.
func NewHandler(world World, cfg RateLimitConfig, logger *log.Logger) *Handler {
	if logger == nil {
		logger = log.Default()
	}
	return &Handler{
		world:       world,
		rateLimiter: NewRateLimiter(cfg),
		logger:      logger.WithPrefix("command"),
	}
}

// Stop releases the rate limiter.
func (h *Handler) Stop() {
	h.rateLimiter.Stop()
}

// ProcessCommand applies one command. ok is false when there is nothing to
// send back to the client.
func (h *Handler) ProcessCommand(cmd Command) (reply Reply, ok bool) {
	if cmd.Type == CmdDisconnect {
		h.Disconnect(cmd.Session)
		return Reply{}, false
	}

	if !h.rateLimiter.Allow(cmd.Session.ID) {
		metrics.RecordCommand(cmd.Type.String(), "rate_limited")
		return Reply{}, false
	}

	switch cmd.Type {
	case CmdJoin:
		reply, ok = h.handleJoin(cmd)
	case CmdInput:
		h.handleInput(cmd)
	case CmdShoot:
		reply, ok = h.handleShoot(cmd)
	case CmdRespawn:
		h.handleRespawn(cmd)
	default:
		metrics.RecordCommand("unknown", "rejected")
		return errorReply("unknown command"), true
	}

	if ok && reply.Event == game.EventError {
		metrics.RecordCommand(cmd.Type.String(), "rejected")
	} else {
		metrics.RecordCommand(cmd.Type.String(), "applied")
	}
	return reply, ok
}

// Disconnect removes the session's player immediately. It bypasses the
// queue and the rate limiter.
func (h *Handler) Disconnect(s *Session) {
	s.closed.Store(true)
	h.rateLimiter.Forget(s.ID)

	if id := s.PlayerID(); id != "" {
		h.world.Disconnect(id)
		metrics.RecordCommand(CmdDisconnect.String(), "applied")
	}
}

func (h *Handler) handleJoin(cmd Command) (Reply, bool) {
	if cmd.Session.PlayerID() != "" {
		return errorReply("already joined"), true
	}

	p := cmd.Payload
	view, err := h.world.Join(game.JoinRequest{
		Name:        p.Name,
		Team:        game.ParseTeam(p.Team),
		Mode:        p.Mode,
		BotBehavior: game.ParseBotMode(p.BotBehavior),
	})
	if err != nil {
		h.logger.Warn("join refused", "session", cmd.Session.ID, "err", err)
		if errors.Is(err, game.ErrWorldFull) {
			return errorReply("server is full"), true
		}
		return errorReply("join failed"), true
	}

	cmd.Session.setPlayerID(view.ID)

	// The connection may have closed while the join was queued
	if cmd.Session.Closed() {
		h.world.Disconnect(view.ID)
		return Reply{}, false
	}

	return Reply{
		Event: game.EventWelcome,
		Data:  game.WelcomeEvent{PlayerID: view.ID, Player: view, Mode: h.world.Mode()},
	}, true
}

func (h *Handler) handleInput(cmd Command) {
	id := cmd.Session.PlayerID()
	if id == "" {
		return
	}

	p := cmd.Payload
	h.world.ApplyInput(id, game.Input{
		Forward:   p.Forward,
		Strafe:    p.Strafe,
		Vertical:  p.Vertical,
		Pitch:     p.Pitch,
		Yaw:       p.Yaw,
		Roll:      p.Roll,
		Boost:     p.Boost,
		Timestamp: p.Timestamp,
	})
}

func (h *Handler) handleShoot(cmd Command) (Reply, bool) {
	id := cmd.Session.PlayerID()
	if id == "" {
		return Reply{}, false
	}

	weapon, err := game.ParseWeaponType(cmd.Payload.Type)
	if err != nil {
		return errorReply(err.Error()), true
	}

	h.world.Shoot(id, weapon, cmd.Payload.Direction)
	return Reply{}, false
}

func (h *Handler) handleRespawn(cmd Command) {
	if id := cmd.Session.PlayerID(); id != "" {
		h.world.Respawn(id)
	}
}

func errorReply(msg string) Reply {
	return Reply{Event: game.EventError, Data: game.ErrorEvent{Message: msg}}
}
