package engine

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lending_go/internal/domain"
	"lending_go/internal/event"
	"lending_go/internal/storage"
)

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func openStore(t *testing.T) *storage.Store {
	t.Helper()
	store, err := storage.NewStore(filepath.Join(t.TempDir(), "seq.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func mustDecode(t *testing.T, frame string) event.Event {
	t.Helper()
	ev, err := event.Decode([]byte(frame), 1000)
	require.NoError(t, err)
	require.NotNil(t, ev)
	return ev
}

func TestSequencer_ReplacesSlicesWholesale(t *testing.T) {
	seq := NewSequencer(10, nil, quiet())
	ctx := context.Background()

	seq.processEvent(ctx, mustDecode(t, `{"type":"lending_transactions","data":{"transactions":[{"id":"a"},{"id":"b"}]}}`))
	seq.processEvent(ctx, mustDecode(t, `{"type":"lending_transactions","data":{"transactions":[{"id":"c"}]}}`))
	seq.processEvent(ctx, mustDecode(t, `{"type":"lending_risk_monitor","data":{"atRiskCount":4,"liquidatableCount":1}}`))

	snap := seq.Snapshot()
	require.Len(t, snap.RecentTransactions, 1)
	assert.Equal(t, "c", snap.RecentTransactions[0].ID)
	assert.Equal(t, domain.RiskCounts{AtRiskCount: 4, LiquidatableCount: 1}, snap.RiskCounts)
	assert.Nil(t, snap.Stats, "other slices untouched")
	assert.Equal(t, uint64(4), seq.GetNextSeq())
}

func TestSequencer_SnapshotIsACopy(t *testing.T) {
	seq := NewSequencer(10, nil, quiet())
	seq.processEvent(context.Background(), mustDecode(t, `{"type":"lending_liquidations","data":{"liquidations":[{"id":"l1"}]}}`))

	snap := seq.Snapshot()
	snap.RecentLiquidations[0].ID = "mutated"
	assert.Equal(t, "l1", seq.Snapshot().RecentLiquidations[0].ID)
}

func TestSequencer_RunAndSubscribe(t *testing.T) {
	seq := NewSequencer(10, nil, quiet())
	updates, unsubscribe := seq.Subscribe(4)
	defer unsubscribe()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		seq.Run(ctx)
		close(done)
	}()

	seq.Inbox() <- mustDecode(t, `{"type":"lending_markets","data":{"totalMarkets":2,"activeMarkets":2,"totalSupplyUsd":"1","totalBorrowUsd":"0","avgSupplyRate":1,"avgBorrowRate":2,"avgUtilization":3}}`)

	select {
	case snap := <-updates:
		require.NotNil(t, snap.Stats)
		assert.Equal(t, 2, snap.Stats.TotalMarkets)
	case <-time.After(time.Second):
		t.Fatal("no snapshot published")
	}

	cancel()
	<-done

	_, open := <-updates
	assert.False(t, open, "subscription closes when the sequencer stops")
	unsubscribe() // safe after close
}

func TestSequencer_Unsubscribe(t *testing.T) {
	seq := NewSequencer(10, nil, quiet())
	updates, unsubscribe := seq.Subscribe(1)
	unsubscribe()

	seq.processEvent(context.Background(), mustDecode(t, `{"type":"lending_risk_monitor","data":{}}`))
	_, open := <-updates
	assert.False(t, open)
}

func TestSequencer_RecoverFromSnapshotAndWAL(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	first := NewSequencer(10, store, quiet())
	first.SnapshotEvery = 2
	first.processEvent(ctx, mustDecode(t, `{"type":"lending_transactions","data":{"transactions":[{"id":"t1"}]}}`))
	first.processEvent(ctx, mustDecode(t, `{"type":"lending_risk_monitor","data":{"atRiskCount":9}}`))
	// Snapshot at seq 2; this one stays in the WAL tail
	first.processEvent(ctx, mustDecode(t, `{"type":"lending_liquidations","data":{"liquidations":[{"id":"l1"}]}}`))

	tail, err := store.LoadEvents(ctx, 0)
	require.NoError(t, err)
	require.Len(t, tail, 1)

	second := NewSequencer(10, store, quiet())
	require.NoError(t, second.Recover(ctx))

	assert.Equal(t, first.Snapshot(), second.Snapshot())
	assert.Equal(t, uint64(4), second.GetNextSeq())
}

func TestSequencer_RecoverEmpty(t *testing.T) {
	seq := NewSequencer(10, openStore(t), quiet())
	require.NoError(t, seq.Recover(context.Background()))
	assert.Equal(t, uint64(1), seq.GetNextSeq())

	require.NoError(t, NewSequencer(1, nil, quiet()).Recover(context.Background()))
}

func TestSequencer_ReplayGap(t *testing.T) {
	seq := NewSequencer(10, nil, quiet())
	ev := &event.RiskMonitorEvent{BaseEvent: event.BaseEvent{Seq: 5, Ts: 1}}
	assert.Error(t, seq.ReplayEvent(ev))
}
