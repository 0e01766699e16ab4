// Package events is the internal pub/sub bus: the circuit breaker manager
// and the orchestrator publish state-change/fan-out-completion events here,
// and the sources surface can subscribe for live provider health instead of
// polling. Disabled by default; a disabled Bus is a no-op that never dials
// out, mirroring the teacher's embedded-NATS opt-in.
package events

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
)

const (
	SubjectBreakerStateChanged = "research-master.breaker.state_changed"
	SubjectFanOutCompleted     = "research-master.fanout.completed"
)

// BreakerStateChanged is published whenever a provider's circuit breaker
// transitions, per spec.md §4.3's state machine.
type BreakerStateChanged struct {
	Provider string `json:"provider"`
	From     string `json:"from"`
	To       string `json:"to"`
	AtUnix   int64  `json:"at"`
}

// FanOutCompleted is published once per orchestrator call, summarizing how
// many of the candidate providers contributed to the merged result.
type FanOutCompleted struct {
	Operation     string `json:"operation"`
	Query         string `json:"query"`
	ProviderCount int    `json:"provider_count"`
	SuccessCount  int    `json:"success_count"`
	AtUnix        int64  `json:"at"`
}

// Config controls whether the bus embeds a NATS server and dials it.
type Config struct {
	Enabled  bool
	Host     string
	Port     int
	StoreDir string
}

func DefaultConfig() Config {
	return Config{Enabled: false, Host: "127.0.0.1", Port: 4225}
}

// Bus wraps an embedded NATS server and a client connection to it. A
// disabled or failed-to-start Bus degrades to a no-op so callers never need
// to nil-check before publishing.
type Bus struct {
	cfg    Config
	logger *slog.Logger

	mu     sync.Mutex
	server *server.Server
	conn   *nats.Conn
}

// Start builds and, if cfg.Enabled, boots the embedded server and dials a
// client connection. A disabled Bus is returned even when Start succeeds
// so every Publish call becomes a cheap no-op.
func Start(cfg Config, logger *slog.Logger) (*Bus, error) {
	if logger == nil {
		logger = slog.Default()
	}
	b := &Bus{cfg: cfg, logger: logger}
	if !cfg.Enabled {
		return b, nil
	}

	opts := &server.Options{
		Host:       cfg.Host,
		Port:       cfg.Port,
		ServerName: "research-master-events",
	}
	if cfg.StoreDir != "" {
		if err := os.MkdirAll(cfg.StoreDir, 0o755); err != nil {
			return nil, fmt.Errorf("creating event store dir: %w", err)
		}
	}

	srv, err := server.NewServer(opts)
	if err != nil {
		return nil, fmt.Errorf("creating embedded event server: %w", err)
	}
	go srv.Start()
	if !srv.ReadyForConnections(5 * time.Second) {
		return nil, fmt.Errorf("embedded event server did not become ready")
	}

	conn, err := nats.Connect(srv.ClientURL())
	if err != nil {
		srv.Shutdown()
		return nil, fmt.Errorf("connecting to embedded event server: %w", err)
	}

	b.server = srv
	b.conn = conn
	logger.Info("event bus started", slog.String("client_url", srv.ClientURL()))
	return b, nil
}

func (b *Bus) publish(subject string, v interface{}) {
	if b == nil || b.conn == nil {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		b.logger.Warn("event failed to marshal", slog.String("subject", subject), slog.String("error", err.Error()))
		return
	}
	if err := b.conn.Publish(subject, data); err != nil {
		b.logger.Warn("event failed to publish", slog.String("subject", subject), slog.String("error", err.Error()))
	}
}

// PublishBreakerStateChanged is the hook CircuitBreaker.SetOnStateChange wires to.
func (b *Bus) PublishBreakerStateChanged(provider, from, to string) {
	b.publish(SubjectBreakerStateChanged, BreakerStateChanged{
		Provider: provider,
		From:     from,
		To:       to,
		AtUnix:   time.Now().Unix(),
	})
}

// PublishFanOutCompleted is the hook Orchestrator.SetOnFanOutComplete wires to.
func (b *Bus) PublishFanOutCompleted(operation, query string, providerCount, successCount int) {
	b.publish(SubjectFanOutCompleted, FanOutCompleted{
		Operation:     operation,
		Query:         query,
		ProviderCount: providerCount,
		SuccessCount:  successCount,
		AtUnix:        time.Now().Unix(),
	})
}

// SubscribeBreakerStateChanged registers handler for every breaker state
// transition and returns an unsubscribe function. On a disabled bus,
// handler is simply never called.
func (b *Bus) SubscribeBreakerStateChanged(handler func(BreakerStateChanged)) (func(), error) {
	if b == nil || b.conn == nil {
		return func() {}, nil
	}
	sub, err := b.conn.Subscribe(SubjectBreakerStateChanged, func(msg *nats.Msg) {
		var evt BreakerStateChanged
		if err := json.Unmarshal(msg.Data, &evt); err != nil {
			return
		}
		handler(evt)
	})
	if err != nil {
		return nil, err
	}
	return func() { _ = sub.Unsubscribe() }, nil
}

// Close drains the client connection and shuts the embedded server down.
func (b *Bus) Close() {
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.conn != nil {
		b.conn.Close()
	}
	if b.server != nil {
		b.server.Shutdown()
	}
}
