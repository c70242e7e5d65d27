package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"simex/internal/comm"
	"simex/internal/domain"

	"github.com/sirupsen/logrus"
)

// SubmitPayment godoc
// @Summary Notify a payment
// @Description Confirm a payment to a transaction address. The reply is the settled amount
// @Description in the target currency, or 0 when no transaction uses the address.
// @Tags Venue
// @Accept plain
// @Produce plain
// @Param address body string true "Transaction address"
// @Success 200 {string} string "18201.5"
// @Failure 400 {object} errorResponse
// @Failure 409 {object} errorResponse "settlement rate unavailable"
// @Failure 503 {object} errorResponse
// @Failure 504 {object} errorResponse
// @Router /payments [post]
func (h *Handler) SubmitPayment(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.replyTimeout)
	defer cancel()

	reply, err := h.payments.Submit(ctx, payload)
	if err != nil {
		logrus.WithError(err).WithField("handler", "SubmitPayment").Warn("payment not served")
	}
	if writeSubmitError(w, err) {
		return
	}

	switch {
	case reply.Err == nil, errors.Is(reply.Err, domain.ErrTransactionNotFound):
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(reply.Body)
	case errors.Is(reply.Err, comm.ErrDecodeFailure), errors.Is(reply.Err, comm.ErrDecodeEmpty):
		writeError(w, http.StatusBadRequest, "invalid payment address")
	case errors.Is(reply.Err, domain.ErrSettlementRateUnavailable):
		writeError(w, http.StatusConflict, "settlement rate unavailable, retry on a later tick")
	default:
		writeError(w, http.StatusInternalServerError, "ups, couldn't settle payment this time")
	}
}
