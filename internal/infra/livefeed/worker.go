package livefeed

import (
	"context"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"lending_go/internal/event"
	"lending_go/internal/infra"
)

// Config describes the push channel connection.
type Config struct {
	URL          string
	Token        string
	UserAgent    string
	ReadTimeout  time.Duration
	PingInterval time.Duration
}

// Worker decodes lending push frames and forwards them to the sequencer inbox.
type Worker struct {
	base    *infra.BaseWSWorker
	url     string
	inbox   chan<- event.Event
	metrics *infra.Metrics
	logger  *slog.Logger
	now     func() time.Time
}

// NewWorker creates a feed worker. metrics may be nil.
func NewWorker(cfg Config, inbox chan<- event.Event, metrics *infra.Metrics, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	w := &Worker{
		url:     cfg.URL,
		inbox:   inbox,
		metrics: metrics,
		logger:  logger.With("component", "livefeed"),
		now:     time.Now,
	}
	w.base = infra.NewBaseWSWorker(w, logger)
	if cfg.ReadTimeout > 0 {
		w.base.ReadTimeout = cfg.ReadTimeout
	}
	if cfg.PingInterval > 0 {
		w.base.PingInterval = cfg.PingInterval
	}
	if cfg.UserAgent != "" {
		w.base.Header.Set("User-Agent", cfg.UserAgent)
	}
	if cfg.Token != "" {
		w.base.Header.Set("Authorization", "Bearer "+cfg.Token)
	}
	w.base.OnReconnect = metrics.RecordFeedReconnect
	return w
}

// ID returns the worker identifier.
func (w *Worker) ID() string { return "LENDING_FEED" }

// GetURL returns the push endpoint.
func (w *Worker) GetURL() string { return w.url }

// Start connects in the background. The subscription ends when ctx is
// cancelled or Stop is called.
func (w *Worker) Start(ctx context.Context) {
	w.base.Start(ctx)
}

// Stop tears down the subscription and waits for the read loop to exit.
func (w *Worker) Stop() {
	w.base.Stop()
}

// Connected reports whether the push channel is open.
func (w *Worker) Connected() bool { return w.base.Connected() }

// OnConnect needs no handshake; lending frames are broadcast to every session.
func (w *Worker) OnConnect(ctx context.Context, conn *websocket.Conn) error {
	return nil
}

// OnMessage never fails: malformed frames are logged and dropped, unknown
// types are ignored.
func (w *Worker) OnMessage(ctx context.Context, msg []byte) {
	ev, err := event.Decode(msg, w.now().UnixMicro())
	if err != nil {
		w.logger.Warn("Malformed lending frame", slog.Any("error", err), slog.Int("bytes", len(msg)))
		w.metrics.RecordFeedMessage("malformed")
		return
	}
	if ev == nil {
		w.metrics.RecordFeedMessage("ignored")
		return
	}

	select {
	case w.inbox <- ev:
		w.metrics.RecordFeedMessage(string(ev.GetType()))
	case <-ctx.Done():
	}
}

// OnPing sends a control ping.
func (w *Worker) OnPing(ctx context.Context, conn *websocket.Conn) error {
	return conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second))
}
