package adapters

import (
	"bytes"
	"encoding/json"

	"simex/internal/domain"
)

// JSONRecord is one entry of a JSON snapshot: {"pair": "BTC_USD", "rate": "9000.5"}.
type JSONRecord struct {
	Pair string    `json:"pair"`
	Rate RateValue `json:"rate"`
}

func (r JSONRecord) RateRecord() domain.RateRecord {
	return domain.RateRecord{Pair: r.Pair, Rate: string(r.Rate)}
}

// RateValue accepts both "9000.5" and 9000.5.
type RateValue string

func (v *RateValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = RateValue(s)
		return nil
	}
	*v = RateValue(data)
	return nil
}
