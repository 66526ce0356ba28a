package domain

// ActionStatus is the final state of a submitted action.
type ActionStatus string

const (
	ActionSucceeded ActionStatus = "succeeded"
	ActionFailed    ActionStatus = "failed"
)

// ActionRecord is one journaled submission. Amount is in base units.
type ActionRecord struct {
	ID           string       `json:"id"`
	Kind         ActionKind   `json:"kind"`
	MarketID     string       `json:"marketId"`
	Amount       string       `json:"amount"`
	Status       ActionStatus `json:"status"`
	Message      string       `json:"message"`
	CreatedUnixM int64        `json:"createdUnixM,string"`
}
