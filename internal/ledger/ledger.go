package ledger

import (
	"fmt"
	"math"
	"strings"

	"simex/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// RateLookup returns how many units of to one unit of from buys right now.
type RateLookup func(from, to string) (float64, error)

// Ledger keeps every transaction ever initiated, keyed by its address.
// It is not safe for concurrent use; the tick loop is its only caller.
type Ledger struct {
	transactions map[string]*domain.Transaction
	newAddress   func() string
}

func (l *Ledger) Initiate(order domain.Order, tick int) (domain.Invoice, error) {
	if err := validateOrder(order); err != nil {
		return domain.Invoice{}, err
	}

	address := l.newAddress()
	if _, exists := l.transactions[address]; exists {
		return domain.Invoice{}, fmt.Errorf("%w: %s", domain.ErrAddressCollision, address)
	}

	l.transactions[address] = &domain.Transaction{
		Address:   address,
		Order:     order,
		State:     domain.StatePending,
		CreatedAt: tick,
	}
	logrus.WithFields(logrus.Fields{
		"address": address,
		"from":    order.From,
		"to":      order.To,
		"amount":  order.Amount,
	}).Debug("Transaction initiated")

	return domain.Invoice{Address: address, Currency: order.From, Amount: order.Amount}, nil
}

// Finalize settles the transaction at address using the rate lookup reports
// for the current tick. An unknown address yields a zero Settlement and
// ErrTransactionNotFound. Finalizing a complete transaction settles it again
// at the current rate and marks the result as repeated.
func (l *Ledger) Finalize(address string, lookup RateLookup, tick int) (domain.Settlement, error) {
	tx, ok := l.transactions[address]
	if !ok {
		return domain.Settlement{}, fmt.Errorf("%w: %s", domain.ErrTransactionNotFound, address)
	}

	rate, err := lookup(tx.Order.From, tx.Order.To)
	if err != nil {
		return domain.Settlement{}, fmt.Errorf("%w: %s_%s: %w", domain.ErrSettlementRateUnavailable, tx.Order.From, tx.Order.To, err)
	}
	amount := decimal.NewFromFloat(rate).Mul(decimal.NewFromFloat(tx.Order.Amount)).InexactFloat64()

	repeated := tx.State == domain.StateComplete
	if repeated {
		logrus.WithField("address", address).Warn("Transaction already complete, settling again")
	}
	tx.State = domain.StateComplete
	tx.SettledAt = tick
	tx.SettledAmount = amount

	return domain.Settlement{
		Address:     address,
		Currency:    tx.Order.To,
		Amount:      amount,
		Destination: tx.Order.Destination,
		Repeated:    repeated,
	}, nil
}

func (l *Ledger) Status(address string) (domain.TransactionStatus, error) {
	tx, ok := l.transactions[address]
	if !ok {
		return domain.TransactionStatus{}, fmt.Errorf("%w: %s", domain.ErrTransactionNotFound, address)
	}
	return domain.TransactionStatus{
		Address:       tx.Address,
		State:         tx.State,
		From:          tx.Order.From,
		To:            tx.Order.To,
		Amount:        tx.Order.Amount,
		CreatedAt:     domain.TickTimestamp(tx.CreatedAt),
		SettledAmount: tx.SettledAmount,
	}, nil
}

func (l *Ledger) Len() int {
	return len(l.transactions)
}

func (l *Ledger) Pending() int {
	pending := 0
	for _, tx := range l.transactions {
		if tx.State == domain.StatePending {
			pending++
		}
	}
	return pending
}

func validateOrder(order domain.Order) error {
	if order.From == "" || order.To == "" {
		return fmt.Errorf("%w: currency codes are required", domain.ErrInvalidOrder)
	}
	if math.IsNaN(order.Amount) || math.IsInf(order.Amount, 0) || order.Amount <= 0 {
		return fmt.Errorf("%w: amount must be a positive number, got %v", domain.ErrInvalidOrder, order.Amount)
	}
	return nil
}

// RandomAddress returns 32 hex characters of a random UUID.
func RandomAddress() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

type Option func(*Ledger)

// WithAddressGenerator replaces RandomAddress.
func WithAddressGenerator(gen func() string) Option {
	return func(l *Ledger) {
		l.newAddress = gen
	}
}

func NewLedger(opts ...Option) *Ledger {
	l := &Ledger{
		transactions: make(map[string]*domain.Transaction),
		newAddress:   RandomAddress,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}
