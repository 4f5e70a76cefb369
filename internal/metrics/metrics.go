// Package metrics holds the process-wide prometheus collectors and the debug
// server that exposes them alongside pprof.
package metrics

import (
	"net/http"
	"net/http/pprof"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// All label values are drawn from small fixed sets; no per-player labels.
var (
	tickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "sim_tick_duration_seconds",
		Help:    "Time spent in one simulation step",
		Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05},
	})

	ticksDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sim_ticks_dropped_total",
		Help: "Fixed steps discarded because the scheduler fell behind",
	})

	playerCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "sim_players",
		Help: "Players in the world, bots included",
	})

	projectileCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "sim_projectiles",
		Help: "Live projectiles",
	})

	projectilesDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sim_projectiles_dropped_total",
		Help: "Shots refused because the projectile cap was reached",
	})

	hitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sim_hits_total",
		Help: "Projectile hits by weapon",
	}, []string{"weapon"})

	killsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sim_kills_total",
		Help: "Kills by weapon",
	}, []string{"weapon"})

	pickupsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sim_pickups_total",
		Help: "Power-ups collected",
	})

	entityPanics = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sim_entity_panics_total",
		Help: "Entity steps that panicked and were skipped",
	}, []string{"kind"}) // player, projectile, powerup, bot

	commandsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "commands_total",
		Help: "Inbound commands by type and outcome",
	}, []string{"type", "outcome"}) // outcome: applied, rate_limited, rejected, dropped

	connectionRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "connection_rejected_total",
		Help: "Connections rejected by rate limiter or origin check",
	}, []string{"reason"})

	requestLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "endpoint"})

	requestTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "endpoint", "status"})

	wsConnectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "websocket_connections_active",
		Help: "Currently active WebSocket connections",
	})

	wsMessagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "websocket_messages_total",
		Help: "WebSocket frames sent by codec",
	}, []string{"codec"})

	wsMessagesDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "websocket_messages_dropped_total",
		Help: "Frames dropped because a client send buffer was full",
	})

	brokerPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "broker_events_published_total",
		Help: "Events published to the message broker",
	}, []string{"result"}) // ok, error
)

// RecordTick records the duration of one simulation step.
func RecordTick(d time.Duration) { tickDuration.Observe(d.Seconds()) }

// RecordTicksDropped counts fixed steps discarded by the scheduler.
func RecordTicksDropped(n int) { ticksDropped.Add(float64(n)) }

// UpdateWorld sets the entity gauges.
func UpdateWorld(players, projectiles int) {
	playerCount.Set(float64(players))
	projectileCount.Set(float64(projectiles))
}

// RecordProjectileDropped counts a refused shot.
func RecordProjectileDropped() { projectilesDropped.Inc() }

// RecordHit counts a projectile hit.
func RecordHit(weapon string) { hitsTotal.WithLabelValues(weapon).Inc() }

// RecordKill counts a kill.
func RecordKill(weapon string) { killsTotal.WithLabelValues(weapon).Inc() }

// RecordPickup counts a power-up collection.
func RecordPickup() { pickupsTotal.Inc() }

// RecordEntityPanic counts a recovered entity panic.
func RecordEntityPanic(kind string) { entityPanics.WithLabelValues(kind).Inc() }

// RecordCommand counts an inbound command.
func RecordCommand(cmdType, outcome string) { commandsTotal.WithLabelValues(cmdType, outcome).Inc() }

// RecordConnectionRejected counts a refused connection or request.
// reason must be one of: "rate_limit", "origin", "ws_total_limit", "ws_ip_limit", "unauthorized"
func RecordConnectionRejected(reason string) { connectionRejected.WithLabelValues(reason).Inc() }

// RecordRequest records HTTP request metrics. endpoint is the route pattern.
func RecordRequest(method, endpoint string, status int, d time.Duration) {
	requestLatency.WithLabelValues(method, endpoint).Observe(d.Seconds())
	requestTotal.WithLabelValues(method, endpoint, http.StatusText(status)).Inc()
}

// UpdateWSConnections sets the active connection gauge.
func UpdateWSConnections(n int) { wsConnectionsActive.Set(float64(n)) }

// IncrementWSMessages counts one frame sent with codec.
func IncrementWSMessages(codec string) { wsMessagesTotal.WithLabelValues(codec).Inc() }

// RecordWSDropped counts a frame dropped for a slow client.
func RecordWSDropped() { wsMessagesDropped.Inc() }

// RecordBrokerPublish counts one broker publish attempt.
func RecordBrokerPublish(ok bool) {
	if ok {
		brokerPublished.WithLabelValues("ok").Inc()
		return
	}
	brokerPublished.WithLabelValues("error").Inc()
}

// =============================================================================
// DEBUG SERVER
// =============================================================================

// DebugServerConfig configures the internal observability server.
type DebugServerConfig struct {
	Enabled    bool
	ListenAddr string // must stay on localhost in production
}

// DebugMux returns the handler tree of the debug server: pprof, /metrics and
// /health.
func DebugMux() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)

	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	return mux
}

// StartDebugServer serves DebugMux in the background. Non-localhost
// addresses are refused unless ALLOW_DEBUG_EXTERNAL=true.
func StartDebugServer(cfg DebugServerConfig, logger *log.Logger) *http.Server {
	if !cfg.Enabled {
		logger.Info("debug server disabled")
		return nil
	}

	addr := cfg.ListenAddr
	if !isLocalAddr(addr) && os.Getenv("ALLOW_DEBUG_EXTERNAL") != "true" {
		logger.Warn("debug server forced to localhost", "requested", addr)
		addr = "127.0.0.1:6060"
	}

	srv := &http.Server{Addr: addr, Handler: DebugMux(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		logger.Info("debug server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("debug server stopped", "err", err)
		}
	}()
	return srv
}

func isLocalAddr(addr string) bool {
	for _, prefix := range []string{"127.0.0.1:", "localhost:", "[::1]:"} {
		if strings.HasPrefix(addr, prefix) {
			return true
		}
	}
	return false
}
