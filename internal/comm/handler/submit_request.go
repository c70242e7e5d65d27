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

// SubmitRequest godoc
// @Summary Send a request to the venue
// @Description Forward a history, status or exchange request to the venue and return its reply.
// @Description The reply is produced during the next service phase of the simulation.
// @Tags Venue
// @Accept json
// @Produce json
// @Param request body comm.RequestMessage true "Request, e.g. {\"kind\":\"history\",\"currency\":\"btc\",\"age_ms\":5000}"
// @Success 200 {object} comm.HistoryReply
// @Failure 400 {object} comm.ErrorReply
// @Failure 404 {object} comm.ErrorReply
// @Failure 503 {object} errorResponse
// @Failure 504 {object} errorResponse
// @Router /requests [post]
func (h *Handler) SubmitRequest(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.replyTimeout)
	defer cancel()

	reply, err := h.requests.Submit(ctx, payload)
	if err != nil {
		logrus.WithError(err).WithField("handler", "SubmitRequest").Warn("request not served")
	}
	if writeSubmitError(w, err) {
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(requestStatus(reply.Err))
	_, _ = w.Write(reply.Body)
}

func requestStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, comm.ErrDecodeFailure), errors.Is(err, comm.ErrDecodeEmpty), errors.Is(err, domain.ErrInvalidOrder),
		errors.Is(err, domain.ErrHistoryAgeTooLarge):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrTransactionNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrAddressCollision):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
