package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"simex/internal/comm"
)

const maxBodyBytes = 4096

// Submitter is the sending end of a comm inbox.
type Submitter interface {
	Submit(ctx context.Context, payload []byte) (comm.Reply, error)
}

type Handler struct {
	requests     Submitter
	payments     Submitter
	replyTimeout time.Duration
}

func NewHandler(requests, payments Submitter, replyTimeout time.Duration) *Handler {
	return &Handler{requests: requests, payments: payments, replyTimeout: replyTimeout}
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, statusCode int, errorMsg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(errorResponse{
		Error: errorMsg,
	})
}

// writeSubmitError maps a failed hand-off to the tick loop.
func writeSubmitError(w http.ResponseWriter, err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, comm.ErrQueueFull):
		writeError(w, http.StatusServiceUnavailable, "venue is busy, try again")
	case errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusGatewayTimeout, "venue did not reply in time")
	default:
		writeError(w, http.StatusInternalServerError, "ups, couldn't reach the venue this time")
	}
	return true
}
