package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"skyarena/internal/game"
)

const (
	defaultLeaderboardLimit = 10
	maxLeaderboardLimit     = 100
)

func (h *routerHandlers) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

func (h *routerHandlers) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.world.Status())
}

func (h *routerHandlers) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.world.Latest())
}

func (h *routerHandlers) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit := defaultLeaderboardLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = min(n, maxLeaderboardLimit)
	}

	entries := h.world.Leaderboard(limit)
	if entries == nil {
		entries = []game.LeaderboardEntry{}
	}
	writeJSON(w, entries)
}

func (h *routerHandlers) handleSetMode(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Mode string `json:"mode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request", http.StatusBadRequest)
		return
	}

	if err := h.world.SetMode(req.Mode); err != nil {
		if errors.Is(err, game.ErrInvalidMode) {
			writeError(w, err.Error(), http.StatusBadRequest)
			return
		}
		writeError(w, "mode change failed", http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]string{"mode": string(h.world.Status().Mode)})
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
