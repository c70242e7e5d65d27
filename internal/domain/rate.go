package domain

import (
	"maps"

	"github.com/google/uuid"
)

// RateTable maps a target currency to the amount of it one unit of the
// table's base currency buys. It never contains the base currency itself.
type RateTable map[string]float64

func (t RateTable) Clone() RateTable {
	if t == nil {
		return RateTable{}
	}
	return maps.Clone(t)
}

// Snapshot holds every base currency's RateTable for one tick.
type Snapshot map[string]RateTable

type TimedRateTable struct {
	Values    RateTable `json:"values"`
	Timestamp int64     `json:"timestamp"`
}

// RateRecord is one raw entry of a snapshot as stored by a source,
// e.g. {Pair: "BTC_USD", Rate: "9000.5"}.
type RateRecord struct {
	Pair string
	Rate string
}

type RateUpdate struct {
	ExchangeID uuid.UUID `json:"exchange_id"`
	Currency   string    `json:"currency"`
	Rates      RateTable `json:"rates"`
	Timestamp  int64     `json:"timestamp"`
}

// TickTimestamp converts a logical tick into the millisecond timestamp
// attached to rates.
func TickTimestamp(tick int) int64 {
	return int64(tick) * 1000
}
