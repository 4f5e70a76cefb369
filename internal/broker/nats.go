// Package broker fans simulation events out to NATS JetStream so services
// outside the game process (stats, replays, moderation) can consume them.
package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"skyarena/internal/config"
	"skyarena/internal/game"
	"skyarena/internal/metrics"
)

const (
	stateKey     = "latest"
	outboxSize   = 1024
	writeTimeout = 2 * time.Second
)

// sink is the JetStream surface the publisher writes to.
type sink interface {
	publish(ctx context.Context, subject string, data []byte) error
	putState(ctx context.Context, data []byte) error
}

// envelope is the JSON body of every event message.
type envelope struct {
	Type     string `json:"type"`
	Tick     uint64 `json:"tick"`
	PlayerID string `json:"playerId,omitempty"`
	Data     any    `json:"data"`
}

type message struct {
	subject string
	data    []byte
	state   bool
}

// NATSPublisher implements game.Publisher. Publish only encodes and queues;
// a background goroutine does the network writes, so a slow or absent broker
// never stalls a tick. Messages that do not fit in the outbox are dropped.
type NATSPublisher struct {
	sink       sink
	prefix     string
	stateEvery int
	logger     *log.Logger

	outbox   chan message
	done     chan struct{}
	stopOnce sync.Once
	closer   func()
}

// Connect dials NATS, makes sure the event stream and state bucket exist,
// and starts the writer.
func Connect(ctx context.Context, cfg config.BrokerConfig, logger *log.Logger) (*NATSPublisher, error) {
	if logger == nil {
		logger = log.Default()
	}
	logger = logger.WithPrefix("broker")

	nc, err := nats.Connect(cfg.NATSURL,
		nats.Name("skyarena"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "err", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("nats reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	if _, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     cfg.Stream,
		Subjects: []string{cfg.SubjectPrefix + ".>"},
		MaxAge:   24 * time.Hour,
	}); err != nil {
		nc.Close()
		return nil, fmt.Errorf("create stream %s: %w", cfg.Stream, err)
	}

	s := &jetstreamSink{js: js}
	if cfg.StateBucket != "" && cfg.StateEvery > 0 {
		kv, err := js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
			Bucket:  cfg.StateBucket,
			History: 1,
		})
		if err != nil {
			nc.Close()
			return nil, fmt.Errorf("create bucket %s: %w", cfg.StateBucket, err)
		}
		s.kv = kv
	}

	p := newPublisher(s, cfg, logger)
	p.closer = func() {
		if err := nc.Drain(); err != nil {
			nc.Close()
		}
	}
	go p.run()

	logger.Info("publishing events", "url", nc.ConnectedUrl(), "stream", cfg.Stream, "prefix", cfg.SubjectPrefix)
	return p, nil
}

func newPublisher(s sink, cfg config.BrokerConfig, logger *log.Logger) *NATSPublisher {
	every := cfg.StateEvery
	if cfg.StateBucket == "" {
		every = 0
	}
	return &NATSPublisher{
		sink:       s,
		prefix:     cfg.SubjectPrefix,
		stateEvery: every,
		logger:     logger,
		outbox:     make(chan message, outboxSize),
		done:       make(chan struct{}),
	}
}

// Subject returns the subject an event type is published on.
func (p *NATSPublisher) Subject(t game.EventType) string {
	return p.prefix + "." + strings.ReplaceAll(t.String(), ":", "_")
}

// Publish queues every non-state event, plus the state snapshot on ticks
// that are a multiple of the state interval.
func (p *NATSPublisher) Publish(events []game.Event) {
	for _, ev := range events {
		if ev.Type == game.EventState {
			if p.stateEvery <= 0 || ev.Tick%uint64(p.stateEvery) != 0 {
				continue
			}
			data, err := json.Marshal(ev.Data)
			if err != nil {
				p.logger.Error("encode snapshot failed", "err", err)
				continue
			}
			p.enqueue(message{data: data, state: true})
			continue
		}

		data, err := json.Marshal(envelope{Type: ev.Type.String(), Tick: ev.Tick, PlayerID: ev.PlayerID, Data: ev.Data})
		if err != nil {
			p.logger.Error("encode event failed", "type", ev.Type, "err", err)
			continue
		}
		p.enqueue(message{subject: p.Subject(ev.Type), data: data})
	}
}

func (p *NATSPublisher) enqueue(m message) {
	select {
	case p.outbox <- m:
	default:
		metrics.RecordBrokerPublish(false)
	}
}

func (p *NATSPublisher) run() {
	defer close(p.done)

	for m := range p.outbox {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		var err error
		if m.state {
			err = p.sink.putState(ctx, m.data)
		} else {
			err = p.sink.publish(ctx, m.subject, m.data)
		}
		cancel()

		metrics.RecordBrokerPublish(err == nil)
		if err != nil {
			p.logger.Warn("publish failed", "subject", m.subject, "state", m.state, "err", err)
		}
	}
}

// Close flushes queued messages and closes the connection. Publish must not
// be called afterwards.
func (p *NATSPublisher) Close() {
	p.stopOnce.Do(func() {
		close(p.outbox)
		<-p.done
		if p.closer != nil {
			p.closer()
		}
	})
}

type jetstreamSink struct {
	js jetstream.JetStream
	kv jetstream.KeyValue
}

func (s *jetstreamSink) publish(ctx context.Context, subject string, data []byte) error {
	_, err := s.js.Publish(ctx, subject, data)
	return err
}

func (s *jetstreamSink) putState(ctx context.Context, data []byte) error {
	if s.kv == nil {
		return nil
	}
	_, err := s.kv.Put(ctx, stateKey, data)
	return err
}
