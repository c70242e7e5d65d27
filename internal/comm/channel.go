package comm

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"simex/internal/domain"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
)

// Venue is what the channel serves requests against.
type Venue interface {
	RatesForAllCurrencies() []domain.RateUpdate
	QueryHistory(ctx context.Context, currency string, ageMs int64) ([]domain.TimedRateTable, error)
	InitiateTransaction(order domain.Order) (domain.Invoice, error)
	FinalizeTransaction(ctx context.Context, address string) (domain.Settlement, error)
	TransactionStatus(address string) (domain.TransactionStatus, error)
}

// Publisher is the broadcast endpoint.
type Publisher interface {
	Publish(payload []byte) error
}

// Channel owns the three endpoints of the venue: broadcast out, the
// request-reply inbox and the payment side-channel inbox.
type Channel struct {
	venue      Venue
	publisher  Publisher
	requests   Inbox
	payments   Inbox
	tickPeriod time.Duration
	clock      clockwork.Clock
	stats      Stats
}

// ServeTick runs one tick: broadcast the current rates, serve both inboxes
// until they run dry or the tick period elapses, then sleep out the rest of
// the period.
func (c *Channel) ServeTick(ctx context.Context) error {
	c.stats.ticks.Add(1)
	c.broadcast()

	deadline := c.clock.Now().Add(c.tickPeriod)
	c.service(ctx, deadline)

	if rest := Remaining(deadline, c.clock.Now()); rest > 0 {
		timer := c.clock.NewTimer(rest)
		defer timer.Stop()
		select {
		case <-timer.Chan():
		case <-ctx.Done():
		}
	}
	return ctx.Err()
}

func (c *Channel) Stats() *Stats {
	return &c.stats
}

func (c *Channel) broadcast() {
	for _, update := range c.venue.RatesForAllCurrencies() {
		payload, err := json.Marshal(update)
		if err == nil {
			err = c.publisher.Publish(payload)
		}
		if err != nil {
			c.stats.publishFailures.Add(1)
			logrus.WithError(err).WithField("currency", update.Currency).Warn("Rate update not broadcast")
			continue
		}
		c.stats.broadcasts.Add(1)
	}
}

func (c *Channel) service(ctx context.Context, deadline time.Time) {
	for ctx.Err() == nil {
		env, payment, ok := c.wait(ctx, Remaining(deadline, c.clock.Now()))
		if !ok {
			return
		}
		if env.Abandoned() {
			c.stats.abandoned.Add(1)
			continue
		}

		var err error
		if payment {
			err = c.handlePayment(ctx, env)
		} else {
			err = c.handleRequest(ctx, env)
		}
		if errors.Is(err, ErrDecodeEmpty) {
			return
		}
	}
}

// wait blocks for at most d on both inboxes. A zero d polls without blocking.
func (c *Channel) wait(ctx context.Context, d time.Duration) (env *Envelope, payment, ok bool) {
	if d == 0 {
		select {
		case env = <-c.requests.Incoming():
			return env, false, true
		case env = <-c.payments.Incoming():
			return env, true, true
		default:
			c.stats.starvedTicks.Add(1)
			return nil, false, false
		}
	}

	timer := c.clock.NewTimer(d)
	defer timer.Stop()
	select {
	case env = <-c.requests.Incoming():
		return env, false, true
	case env = <-c.payments.Incoming():
		return env, true, true
	case <-timer.Chan():
		c.stats.starvedTicks.Add(1)
		return nil, false, false
	case <-ctx.Done():
		return nil, false, false
	}
}

func (c *Channel) handleRequest(ctx context.Context, env *Envelope) error {
	c.stats.requests.Add(1)

	req, err := DecodeRequest(env.Payload)
	if err != nil {
		c.rejected(env, "request", err)
		return err
	}

	switch r := req.(type) {
	case HistoryRequest:
		rates, err := c.venue.QueryHistory(ctx, r.Currency, r.AgeMs)
		if err != nil {
			logrus.WithError(err).WithField("currency", r.Currency).Warn("History request refused")
			env.Respond(errorResponse(err))
			return nil
		}
		env.Respond(replyWith(HistoryReply{Kind: KindHistory, Rates: rates}))
	case StatusRequest:
		status, err := c.venue.TransactionStatus(r.Address)
		if err != nil {
			env.Respond(errorResponse(err))
			return nil
		}
		env.Respond(replyWith(StatusReply{Kind: KindStatus, TransactionStatus: status}))
	case ExchangeRequest:
		invoice, err := c.venue.InitiateTransaction(domain.Order{
			From:        r.From,
			To:          r.To,
			Amount:      r.Amount,
			Destination: r.Destination,
		})
		if err != nil {
			logrus.WithError(err).WithFields(logrus.Fields{"from": r.From, "to": r.To}).Warn("Exchange request refused")
			env.Respond(errorResponse(err))
			return nil
		}
		env.Respond(replyWith(InvoiceReply{Kind: KindInvoice, Invoice: invoice}))
	}
	return nil
}

func (c *Channel) handlePayment(ctx context.Context, env *Envelope) error {
	c.stats.payments.Add(1)

	address, err := DecodePayment(env.Payload)
	if err != nil {
		c.rejected(env, "payment", err)
		return err
	}

	settlement, err := c.venue.FinalizeTransaction(ctx, address)
	switch {
	case errors.Is(err, domain.ErrTransactionNotFound):
		logrus.WithField("address", address).Info("Payment for unknown transaction")
	case err != nil:
		logrus.WithError(err).WithField("address", address).Error("Payment not settled")
	default:
		logrus.WithFields(logrus.Fields{
			"address":     address,
			"currency":    settlement.Currency,
			"amount":      settlement.Amount,
			"destination": settlement.Destination,
			"repeated":    settlement.Repeated,
		}).Info("Transaction settled")
	}
	env.Respond(Reply{Body: EncodeAmount(settlement.Amount), Err: err})
	return nil
}

func (c *Channel) rejected(env *Envelope, endpoint string, err error) {
	if errors.Is(err, ErrDecodeFailure) {
		c.stats.decodeFailures.Add(1)
		logrus.WithError(err).WithField("endpoint", endpoint).Warn("Skipping malformed message")
	}
	env.Respond(errorResponse(err))
}

type Option func(*Channel)

func WithClock(clock clockwork.Clock) Option {
	return func(c *Channel) {
		c.clock = clock
	}
}

func NewChannel(venue Venue, publisher Publisher, requests, payments Inbox, tickPeriod time.Duration, opts ...Option) *Channel {
	c := &Channel{
		venue:      venue,
		publisher:  publisher,
		requests:   requests,
		payments:   payments,
		tickPeriod: tickPeriod,
		clock:      clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}
