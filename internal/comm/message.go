package comm

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"simex/internal/domain"
)

var (
	// ErrDecodeEmpty means nothing usable arrived; it ends the service phase.
	ErrDecodeEmpty = errors.New("empty message")
	// ErrDecodeFailure means a malformed message arrived; it is skipped.
	ErrDecodeFailure = errors.New("malformed message")
	ErrEncodeFailure = errors.New("failed to encode reply")
)

const (
	KindHistory  = "history"
	KindStatus   = "status"
	KindExchange = "exchange"
	KindInvoice  = "invoice"
	KindError    = "error"
)

// Request is one of HistoryRequest, StatusRequest or ExchangeRequest.
type Request interface {
	kind() string
}

type HistoryRequest struct {
	Currency string
	AgeMs    int64
}

type StatusRequest struct {
	Address string
}

type ExchangeRequest struct {
	From        string
	To          string
	Amount      float64
	Destination string
}

func (HistoryRequest) kind() string  { return KindHistory }
func (StatusRequest) kind() string   { return KindStatus }
func (ExchangeRequest) kind() string { return KindExchange }

// RequestMessage is the JSON form of every Request.
type RequestMessage struct {
	Kind        string   `json:"kind"`
	Currency    string   `json:"currency,omitempty"`
	AgeMs       *int64   `json:"age_ms,omitempty"`
	Address     string   `json:"address,omitempty"`
	From        string   `json:"from,omitempty"`
	To          string   `json:"to,omitempty"`
	Amount      *float64 `json:"amount,omitempty"`
	Destination string   `json:"destination,omitempty"`
}

func DecodeRequest(payload []byte) (Request, error) {
	if len(bytes.TrimSpace(payload)) == 0 {
		return nil, ErrDecodeEmpty
	}

	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.DisallowUnknownFields()
	var w RequestMessage
	if err := dec.Decode(&w); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecodeFailure, err)
	}

	switch w.Kind {
	case KindHistory:
		if w.Currency == "" || w.AgeMs == nil {
			return nil, fmt.Errorf("%w: history needs currency and age_ms", ErrDecodeFailure)
		}
		return HistoryRequest{Currency: w.Currency, AgeMs: *w.AgeMs}, nil
	case KindStatus:
		if w.Address == "" {
			return nil, fmt.Errorf("%w: status needs address", ErrDecodeFailure)
		}
		return StatusRequest{Address: w.Address}, nil
	case KindExchange:
		if w.From == "" || w.To == "" || w.Amount == nil {
			return nil, fmt.Errorf("%w: exchange needs from, to and amount", ErrDecodeFailure)
		}
		return ExchangeRequest{From: w.From, To: w.To, Amount: *w.Amount, Destination: w.Destination}, nil
	default:
		return nil, fmt.Errorf("%w: unknown kind %q", ErrDecodeFailure, w.Kind)
	}
}

// EncodeRequest is the client side of DecodeRequest.
func EncodeRequest(req Request) ([]byte, error) {
	w := RequestMessage{Kind: req.kind()}
	switch r := req.(type) {
	case HistoryRequest:
		w.Currency, w.AgeMs = r.Currency, &r.AgeMs
	case StatusRequest:
		w.Address = r.Address
	case ExchangeRequest:
		w.From, w.To, w.Amount, w.Destination = r.From, r.To, &r.Amount, r.Destination
	}
	return json.Marshal(w)
}

// DecodePayment reads a payment notification: the bare transaction address.
func DecodePayment(payload []byte) (string, error) {
	address := strings.TrimSpace(string(payload))
	if address == "" {
		return "", ErrDecodeEmpty
	}
	if strings.ContainsAny(address, " \t\r\n") {
		return "", fmt.Errorf("%w: address contains whitespace", ErrDecodeFailure)
	}
	return address, nil
}

type HistoryReply struct {
	Kind  string                  `json:"kind"`
	Rates []domain.TimedRateTable `json:"rates"`
}

type InvoiceReply struct {
	Kind string `json:"kind"`
	domain.Invoice
}

type StatusReply struct {
	Kind string `json:"kind"`
	domain.TransactionStatus
}

type ErrorReply struct {
	Kind  string `json:"kind"`
	Error string `json:"error"`
}

// replyWith encodes v as a reply. A value that can't be encoded turns into an
// error reply carrying ErrEncodeFailure.
func replyWith(v any) Reply {
	body, err := json.Marshal(v)
	if err != nil {
		return errorResponse(fmt.Errorf("%w: %w", ErrEncodeFailure, err))
	}
	return Reply{Body: body}
}

func errorResponse(err error) Reply {
	return Reply{Body: errorReply(err), Err: err}
}

func errorReply(err error) []byte {
	body, _ := json.Marshal(ErrorReply{Kind: KindError, Error: err.Error()})
	return body
}

// EncodeAmount formats a settled amount for the payment side channel.
func EncodeAmount(amount float64) []byte {
	return []byte(strconv.FormatFloat(amount, 'f', -1, 64))
}
