package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"lending_go/internal/domain"
	"lending_go/internal/event"
	"lending_go/internal/storage"
)

// DefaultSnapshotEvery is how many applied events trigger a snapshot.
const DefaultSnapshotEvery = 100

// Sequencer is the single goroutine that owns the live snapshot.
// Feed workers send decoded events to Inbox; readers get copies.
type Sequencer struct {
	inbox   chan event.Event
	live    domain.LiveSnapshot
	nextSeq uint64
	applied uint64
	store   *storage.Store
	logger  *slog.Logger
	now     func() time.Time

	SnapshotEvery uint64

	mu sync.RWMutex // guards live for external reads

	subMu  sync.Mutex
	subs   map[int]chan domain.LiveSnapshot
	nextID int
}

// NewSequencer creates a sequencer. store may be nil to run without persistence.
func NewSequencer(inboxSize int, store *storage.Store, logger *slog.Logger) *Sequencer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sequencer{
		inbox:         make(chan event.Event, inboxSize),
		nextSeq:       1,
		store:         store,
		logger:        logger.With("component", "sequencer"),
		now:           time.Now,
		SnapshotEvery: DefaultSnapshotEvery,
		subs:          make(map[int]chan domain.LiveSnapshot),
	}
}

// Recover restores the last snapshot and replays the WAL tail through the
// same apply path used for live events.
func (s *Sequencer) Recover(ctx context.Context) error {
	if s.store == nil {
		s.logger.Info("No store configured, starting fresh")
		return nil
	}

	snap, err := s.store.LoadSnapshot(ctx)
	if err != nil {
		return fmt.Errorf("failed to load snapshot: %w", err)
	}
	if snap != nil {
		s.mu.Lock()
		s.live = snap.Live.Clone()
		s.mu.Unlock()
		s.nextSeq = snap.Seq + 1
		s.logger.Info("Snapshot restored", slog.Uint64("seq", snap.Seq))
	}

	events, err := s.store.LoadEvents(ctx, s.nextSeq)
	if err != nil {
		return fmt.Errorf("failed to load events: %w", err)
	}
	if len(events) == 0 {
		s.logger.Info("WAL tail is empty", slog.Uint64("next_seq", s.nextSeq))
		return nil
	}

	s.logger.Info("Replaying events from WAL", slog.Int("count", len(events)))
	for _, ev := range events {
		if err := s.ReplayEvent(ev); err != nil {
			return err
		}
	}
	s.logger.Info("State recovered from WAL", slog.Uint64("next_seq", s.nextSeq))
	return nil
}

// Inbox returns the event channel. Feed workers send events here.
func (s *Sequencer) Inbox() chan<- event.Event {
	return s.inbox
}

// Run processes events until ctx is done, then writes a final snapshot
// and closes every subscription. It must run in a single goroutine.
func (s *Sequencer) Run(ctx context.Context) {
	s.logger.Info("Sequencer started")

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("CRITICAL_PANIC_DETECTED", slog.Any("panic", r))
			s.DumpState("panic_dump.json")
			panic(fmt.Sprintf("HALTED: %v", r))
		}
	}()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Sequencer stopping...")
			s.snapshot(context.Background())
			s.closeSubscribers()
			return
		case ev := <-s.inbox:
			s.processEvent(ctx, ev)
		}
	}
}

func (s *Sequencer) processEvent(ctx context.Context, ev event.Event) {
	ts := ev.GetTs()
	if ts == 0 {
		ts = s.now().UnixMicro()
	}
	ev.Stamp(s.nextSeq, ts)

	// WAL first
	if s.store != nil {
		if err := s.store.SaveEvent(ctx, ev); err != nil {
			s.logger.Error("WAL write failed", slog.Uint64("seq", ev.GetSeq()), slog.Any("error", err))
		}
	}

	s.apply(ev)
	s.nextSeq++
	s.applied++
	s.publish()

	if s.SnapshotEvery > 0 && s.applied%s.SnapshotEvery == 0 {
		s.snapshot(ctx)
	}
}

// ReplayEvent applies a stored event without writing it to the WAL.
func (s *Sequencer) ReplayEvent(ev event.Event) error {
	if ev.GetSeq() != s.nextSeq {
		return fmt.Errorf("REPLAY_GAP_DETECTED: expected %d, got %d", s.nextSeq, ev.GetSeq())
	}
	s.apply(ev)
	s.nextSeq++
	return nil
}

// apply replaces the slice matching the event type wholesale.
func (s *Sequencer) apply(ev event.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch e := ev.(type) {
	case *event.MarketsEvent:
		stats := e.Stats
		stats.Markets = append([]domain.MarketSummary(nil), e.Stats.Markets...)
		s.live.Stats = &stats
	case *event.TransactionsEvent:
		s.live.RecentTransactions = append([]domain.LendingTransaction{}, e.Transactions...)
	case *event.LiquidationsEvent:
		s.live.RecentLiquidations = append([]domain.LendingLiquidation{}, e.Liquidations...)
	case *event.RiskMonitorEvent:
		s.live.RiskCounts = e.Counts
	default:
		s.logger.Warn("Unknown event type", slog.Any("type", ev.GetType()))
		return
	}
	s.live.UpdatedUnixM = ev.GetTs()
}

// Snapshot returns a copy of the live state.
func (s *Sequencer) Snapshot() domain.LiveSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.live.Clone()
}

// GetNextSeq returns the sequence number the next event will receive.
func (s *Sequencer) GetNextSeq() uint64 {
	return s.nextSeq
}

// Subscribe registers a receiver of snapshot copies. Slow receivers miss
// intermediate snapshots. The returned func ends the subscription.
func (s *Sequencer) Subscribe(buffer int) (<-chan domain.LiveSnapshot, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan domain.LiveSnapshot, buffer)

	s.subMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = ch
	s.subMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.subMu.Lock()
			defer s.subMu.Unlock()
			if c, ok := s.subs[id]; ok {
				delete(s.subs, id)
				close(c)
			}
		})
	}
}

func (s *Sequencer) publish() {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	if len(s.subs) == 0 {
		return
	}
	snap := s.Snapshot()
	for id, ch := range s.subs {
		select {
		case ch <- snap.Clone():
		default:
			s.logger.Debug("subscriber lagging, snapshot dropped", slog.Int("sub", id))
		}
	}
}

func (s *Sequencer) closeSubscribers() {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
	}
}

func (s *Sequencer) snapshot(ctx context.Context) {
	if s.store == nil || s.nextSeq == 1 {
		return
	}
	snap := storage.Snapshot{
		Seq:     s.nextSeq - 1,
		TsUnixM: s.now().UnixMicro(),
		Live:    s.Snapshot(),
	}
	if err := s.store.SaveSnapshot(ctx, snap); err != nil {
		s.logger.Error("Snapshot failed", slog.Uint64("seq", snap.Seq), slog.Any("error", err))
		return
	}
	s.logger.Debug("Snapshot saved", slog.Uint64("seq", snap.Seq))
}

// DumpState writes the live state to a file for post-mortem.
func (s *Sequencer) DumpState(filename string) {
	s.logger.Info("Dumping internal state...", slog.String("file", filename))

	data := struct {
		NextSeq uint64              `json:"next_seq"`
		Live    domain.LiveSnapshot `json:"live"`
	}{
		NextSeq: s.nextSeq,
		Live:    s.Snapshot(),
	}

	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		s.logger.Error("Failed to marshal state", slog.Any("error", err))
		return
	}
	if err := os.WriteFile(filename, b, 0644); err != nil {
		s.logger.Error("Failed to write state dump", slog.Any("error", err))
	}
}
