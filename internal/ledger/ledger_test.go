package ledger

import (
	"errors"
	"math"
	"testing"

	"simex/internal/domain"

	"github.com/stretchr/testify/require"
)

func fixedRates(rates map[string]float64) RateLookup {
	return func(from, to string) (float64, error) {
		rate, ok := rates[from+"_"+to]
		if !ok {
			return 0, domain.ErrRateNotFound
		}
		return rate, nil
	}
}

func sequence(addresses ...string) func() string {
	i := 0
	return func() string {
		a := addresses[i%len(addresses)]
		i++
		return a
	}
}

var btcToUsd = domain.Order{From: "btc", To: "usd", Amount: 2, Destination: "wallet-1"}

func TestRandomAddress_Format(t *testing.T) {
	a := RandomAddress()
	b := RandomAddress()

	require.Len(t, a, 32)
	require.Regexp(t, "^[0-9a-f]{32}$", a)
	require.NotEqual(t, a, b)
}

// --- Initiate ---

func TestLedger_Initiate_ReturnsInvoice(t *testing.T) {
	l := NewLedger()

	invoice, err := l.Initiate(btcToUsd, 3)
	require.NoError(t, err)
	require.Len(t, invoice.Address, 32)
	require.Equal(t, "btc", invoice.Currency)
	require.InDelta(t, 2, invoice.Amount, 1e-9)
	require.Equal(t, 1, l.Len())
	require.Equal(t, 1, l.Pending())

	status, err := l.Status(invoice.Address)
	require.NoError(t, err)
	require.Equal(t, domain.StatePending, status.State)
	require.Equal(t, int64(3000), status.CreatedAt)
}

func TestLedger_Initiate_InvalidOrders(t *testing.T) {
	cases := []struct {
		name  string
		order domain.Order
	}{
		{name: "zero amount", order: domain.Order{From: "btc", To: "usd", Amount: 0}},
		{name: "negative amount", order: domain.Order{From: "btc", To: "usd", Amount: -1}},
		{name: "nan amount", order: domain.Order{From: "btc", To: "usd", Amount: math.NaN()}},
		{name: "infinite amount", order: domain.Order{From: "btc", To: "usd", Amount: math.Inf(1)}},
		{name: "missing from", order: domain.Order{To: "usd", Amount: 1}},
		{name: "missing to", order: domain.Order{From: "btc", Amount: 1}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			l := NewLedger()
			_, err := l.Initiate(tc.order, 0)
			require.ErrorIs(t, err, domain.ErrInvalidOrder)
			require.Zero(t, l.Len())
		})
	}
}

func TestLedger_Initiate_UnknownCurrencyAccepted(t *testing.T) {
	l := NewLedger()

	_, err := l.Initiate(domain.Order{From: "zzz", To: "qqq", Amount: 1}, 0)
	require.NoError(t, err)
}

func TestLedger_Initiate_AddressCollisionKeepsExisting(t *testing.T) {
	l := NewLedger(WithAddressGenerator(sequence("same")))

	first, err := l.Initiate(btcToUsd, 0)
	require.NoError(t, err)

	_, err = l.Initiate(domain.Order{From: "eth", To: "usd", Amount: 5}, 1)
	require.ErrorIs(t, err, domain.ErrAddressCollision)

	status, err := l.Status(first.Address)
	require.NoError(t, err)
	require.Equal(t, "btc", status.From)
	require.Equal(t, 1, l.Len())
}

// --- Finalize ---

func TestLedger_Finalize_UnknownAddress(t *testing.T) {
	l := NewLedger()
	_, err := l.Initiate(btcToUsd, 0)
	require.NoError(t, err)

	settlement, err := l.Finalize("nope", fixedRates(map[string]float64{"btc_usd": 9000}), 1)
	require.ErrorIs(t, err, domain.ErrTransactionNotFound)
	require.Equal(t, domain.Settlement{}, settlement)
	require.Equal(t, 1, l.Len())
	require.Equal(t, 1, l.Pending())
}

func TestLedger_Finalize_Settles(t *testing.T) {
	l := NewLedger()
	invoice, err := l.Initiate(btcToUsd, 0)
	require.NoError(t, err)

	settlement, err := l.Finalize(invoice.Address, fixedRates(map[string]float64{"btc_usd": 9100.5}), 4)
	require.NoError(t, err)
	require.Equal(t, invoice.Address, settlement.Address)
	require.Equal(t, "usd", settlement.Currency)
	require.Equal(t, "wallet-1", settlement.Destination)
	require.InDelta(t, 18201, settlement.Amount, 1e-9)
	require.False(t, settlement.Repeated)
	require.Zero(t, l.Pending())

	status, err := l.Status(invoice.Address)
	require.NoError(t, err)
	require.Equal(t, domain.StateComplete, status.State)
	require.InDelta(t, 18201, status.SettledAmount, 1e-9)
}

func TestLedger_Finalize_DecimalArithmetic(t *testing.T) {
	l := NewLedger()
	invoice, err := l.Initiate(domain.Order{From: "usd", To: "eur", Amount: 0.1}, 0)
	require.NoError(t, err)

	settlement, err := l.Finalize(invoice.Address, fixedRates(map[string]float64{"usd_eur": 0.3}), 0)
	require.NoError(t, err)
	require.Equal(t, 0.03, settlement.Amount)
}

func TestLedger_Finalize_RepeatedUsesCurrentRate(t *testing.T) {
	l := NewLedger()
	invoice, err := l.Initiate(btcToUsd, 0)
	require.NoError(t, err)

	_, err = l.Finalize(invoice.Address, fixedRates(map[string]float64{"btc_usd": 9000}), 1)
	require.NoError(t, err)

	again, err := l.Finalize(invoice.Address, fixedRates(map[string]float64{"btc_usd": 9500}), 2)
	require.NoError(t, err)
	require.True(t, again.Repeated)
	require.InDelta(t, 19000, again.Amount, 1e-9)
}

func TestLedger_Finalize_RateUnavailableLeavesPending(t *testing.T) {
	l := NewLedger()
	invoice, err := l.Initiate(domain.Order{From: "btc", To: "xyz", Amount: 1}, 0)
	require.NoError(t, err)

	_, err = l.Finalize(invoice.Address, fixedRates(nil), 1)
	require.ErrorIs(t, err, domain.ErrSettlementRateUnavailable)
	require.ErrorIs(t, err, domain.ErrRateNotFound)
	require.Equal(t, 1, l.Pending())

	boom := errors.New("boom")
	_, err = l.Finalize(invoice.Address, func(string, string) (float64, error) { return 0, boom }, 1)
	require.ErrorIs(t, err, boom)
}

// --- Status ---

func TestLedger_Status_Unknown(t *testing.T) {
	_, err := NewLedger().Status("missing")
	require.ErrorIs(t, err, domain.ErrTransactionNotFound)
}
