package httpinterface

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/polling-network/polling-daemon/internal/core/application"
	"github.com/polling-network/polling-daemon/internal/core/domain"
	"github.com/polling-network/polling-daemon/internal/core/ports"
	log "github.com/sirupsen/logrus"
)

const maxBodySize = 1 << 20

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.WithError(err).Warn("failed to write response")
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := statusFromError(err)
	if status >= http.StatusInternalServerError {
		log.WithError(err).Warn("request failed")
	}
	writeJSON(w, status, errorResponse{err.Error()})
}

func readJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return badRequestError{fmt.Errorf("malformed request body: %w", err)}
	}
	return nil
}

type badRequestError struct {
	error
}

func (e badRequestError) Unwrap() error {
	return e.error
}

func statusFromError(err error) int {
	var badRequest badRequestError
	switch {
	case errors.As(err, &badRequest),
		errors.Is(err, application.ErrInvalidAddress),
		errors.Is(err, application.ErrInvalidAmount),
		errors.Is(err, application.ErrUnknownAccountType),
		errors.Is(err, application.ErrUnknownCandidate),
		errors.Is(err, application.ErrInvalidWebhookEvent),
		errors.Is(err, ports.ErrInvalidEndpoint):
		return http.StatusBadRequest
	case errors.Is(err, application.ErrAccountNotFound),
		errors.Is(err, ports.ErrSubscriptionNotFound):
		return http.StatusNotFound
	case errors.Is(err, application.ErrNoPendingScan),
		errors.Is(err, domain.ErrScanSuperseded):
		return http.StatusConflict
	case errors.Is(err, errWebhooksDisabled):
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

func parseAccountType(r *http.Request) (domain.AccountType, error) {
	accountType := domain.AccountType(r.PathValue("type"))
	if !accountType.IsHardware() {
		return "", application.ErrUnknownAccountType
	}
	return accountType, nil
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Hijack lets the websocket upgrader take over the connection.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	return hijacker.Hijack()
}

func withLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		log.WithFields(log.Fields{
			"status":   rec.status,
			"duration": time.Since(start),
		}).Debugf("%s %s", r.Method, r.URL.Path)
	})
}
