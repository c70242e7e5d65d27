package domain

import "errors"

var (
	ErrRateNotFound       = errors.New("rate not found")
	ErrSnapshotOutOfRange = errors.New("snapshot out of range")
	ErrHistoryEmpty       = errors.New("no snapshots available")
	ErrHistoryExhausted   = errors.New("snapshot history exhausted")
	ErrHistoryAgeTooLarge = errors.New("history age too large")

	ErrInvalidOrder              = errors.New("invalid order")
	ErrTransactionNotFound       = errors.New("transaction not found")
	ErrAddressCollision          = errors.New("transaction address already in use")
	ErrSettlementRateUnavailable = errors.New("settlement rate unavailable")
)
