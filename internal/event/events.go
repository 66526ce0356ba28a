package event

import (
	"encoding/json"
	"errors"
	"fmt"

	"lending_go/internal/domain"
)

// Type is the push frame discriminator.
type Type string

const (
	TypeMarkets      Type = "lending_markets"
	TypeTransactions Type = "lending_transactions"
	TypeLiquidations Type = "lending_liquidations"
	TypeRiskMonitor  Type = "lending_risk_monitor"
)

// Types lists every frame type the feed understands.
var Types = []Type{TypeMarkets, TypeTransactions, TypeLiquidations, TypeRiskMonitor}

// ErrMissingData is returned for a known frame type without a data object.
var ErrMissingData = errors.New("frame has no data")

// Event is the interface for all sequencer events.
type Event interface {
	GetSeq() uint64
	GetTs() int64
	GetType() Type
	Stamp(seq uint64, ts int64)
}

// BaseEvent carries the sequence number assigned by the sequencer and
// the receive time in unix microseconds.
type BaseEvent struct {
	Seq uint64 `json:"seq"`
	Ts  int64  `json:"ts"`
}

func (e *BaseEvent) GetSeq() uint64 { return e.Seq }
func (e *BaseEvent) GetTs() int64   { return e.Ts }

func (e *BaseEvent) Stamp(seq uint64, ts int64) {
	e.Seq = seq
	e.Ts = ts
}

// MarketsEvent replaces the live protocol stats.
type MarketsEvent struct {
	BaseEvent
	Stats domain.LendingStats `json:"stats"`
}

func (e *MarketsEvent) GetType() Type { return TypeMarkets }

// TransactionsEvent replaces the recent transaction list.
type TransactionsEvent struct {
	BaseEvent
	Transactions []domain.LendingTransaction `json:"transactions"`
}

func (e *TransactionsEvent) GetType() Type { return TypeTransactions }

// LiquidationsEvent replaces the recent liquidation list.
type LiquidationsEvent struct {
	BaseEvent
	Liquidations []domain.LendingLiquidation `json:"liquidations"`
}

func (e *LiquidationsEvent) GetType() Type { return TypeLiquidations }

// RiskMonitorEvent replaces the risk counters.
type RiskMonitorEvent struct {
	BaseEvent
	Counts domain.RiskCounts `json:"counts"`
}

func (e *RiskMonitorEvent) GetType() Type { return TypeRiskMonitor }

// Envelope is the wire shape of every push frame.
type Envelope struct {
	Type Type            `json:"type"`
	Data json.RawMessage `json:"data"`
}

// New returns an empty event of type t, or nil for an unknown type.
func New(t Type) Event {
	switch t {
	case TypeMarkets:
		return &MarketsEvent{}
	case TypeTransactions:
		return &TransactionsEvent{}
	case TypeLiquidations:
		return &LiquidationsEvent{}
	case TypeRiskMonitor:
		return &RiskMonitorEvent{}
	}
	return nil
}

// Decode parses one push frame received at ts.
// Unknown types return (nil, nil). Missing arrays decode as empty and
// missing risk counts as zero.
func Decode(frame []byte, ts int64) (Event, error) {
	var env Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return nil, fmt.Errorf("decode frame: %w", err)
	}
	ev := New(env.Type)
	if ev == nil {
		return nil, nil
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return nil, fmt.Errorf("%s: %w", env.Type, ErrMissingData)
	}

	switch e := ev.(type) {
	case *MarketsEvent:
		if err := json.Unmarshal(env.Data, &e.Stats); err != nil {
			return nil, fmt.Errorf("%s: %w", env.Type, err)
		}
	case *TransactionsEvent:
		var body struct {
			Transactions []domain.LendingTransaction `json:"transactions"`
		}
		if err := json.Unmarshal(env.Data, &body); err != nil {
			return nil, fmt.Errorf("%s: %w", env.Type, err)
		}
		e.Transactions = body.Transactions
		if e.Transactions == nil {
			e.Transactions = []domain.LendingTransaction{}
		}
	case *LiquidationsEvent:
		var body struct {
			Liquidations []domain.LendingLiquidation `json:"liquidations"`
		}
		if err := json.Unmarshal(env.Data, &body); err != nil {
			return nil, fmt.Errorf("%s: %w", env.Type, err)
		}
		e.Liquidations = body.Liquidations
		if e.Liquidations == nil {
			e.Liquidations = []domain.LendingLiquidation{}
		}
	case *RiskMonitorEvent:
		if err := json.Unmarshal(env.Data, &e.Counts); err != nil {
			return nil, fmt.Errorf("%s: %w", env.Type, err)
		}
	}
	ev.Stamp(0, ts)
	return ev, nil
}

// Unmarshal restores a persisted event of type t.
func Unmarshal(t Type, payload []byte) (Event, error) {
	ev := New(t)
	if ev == nil {
		return nil, fmt.Errorf("unknown event type %q", t)
	}
	if err := json.Unmarshal(payload, ev); err != nil {
		return nil, fmt.Errorf("unmarshal %s: %w", t, err)
	}
	return ev, nil
}
