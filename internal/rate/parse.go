package rate

import (
	"fmt"
	"math"
	"strings"

	"simex/internal/domain"

	"github.com/shopspring/decimal"
)

// ParseSnapshot folds raw records into per-base rate tables. Records whose
// codes are not 3 characters are dropped silently; other unusable records are
// reported in skipped. A repeated base->quote pair keeps the last value.
func ParseSnapshot(records []domain.RateRecord) (snapshot domain.Snapshot, skipped []error) {
	snapshot = make(domain.Snapshot)

	for _, rec := range records {
		parts := strings.Split(rec.Pair, "_")
		if len(parts) != 2 {
			skipped = append(skipped, fmt.Errorf("malformed pair %q", rec.Pair))
			continue
		}

		base, quote := NormalizeCode(parts[0]), NormalizeCode(parts[1])
		if ValidateCode(base) != nil || ValidateCode(quote) != nil {
			continue
		}
		if base == quote {
			skipped = append(skipped, fmt.Errorf("pair %q quotes its own base", rec.Pair))
			continue
		}

		value, err := decimal.NewFromString(strings.TrimSpace(rec.Rate))
		if err != nil {
			skipped = append(skipped, fmt.Errorf("invalid rate %q for pair %q: %w", rec.Rate, rec.Pair, err))
			continue
		}
		price := value.InexactFloat64()
		if math.IsInf(price, 0) || math.IsNaN(price) {
			skipped = append(skipped, fmt.Errorf("rate %q for pair %q is out of range", rec.Rate, rec.Pair))
			continue
		}

		table, ok := snapshot[base]
		if !ok {
			table = make(domain.RateTable)
			snapshot[base] = table
		}
		table[quote] = price
	}

	return snapshot, skipped
}
