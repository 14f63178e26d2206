package server

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/brojonat/yatori/service/metrics"
	"github.com/brojonat/yatori/service/solana"
)

const maxRequestBodySize = 1 << 20 // 1MB, requests carry a few addresses at most

// errBadRequest marks request bodies that could not be decoded.
var errBadRequest = errors.New("bad request")

// dataEnvelope is the success shape shared by every query endpoint.
type dataEnvelope struct {
	Data   any    `json:"data"`
	Status string `json:"status"`
}

// errorEnvelope is the failure shape shared by every query endpoint.
type errorEnvelope struct {
	Error string `json:"error"`
}

// envelopes writes success and failure envelopes. With alwaysOK set every
// envelope goes out as HTTP 200, matching clients that only inspect the body.
type envelopes struct {
	alwaysOK bool
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

func (e *envelopes) writeData(w http.ResponseWriter, data any, status string) {
	writeJSON(w, dataEnvelope{Data: data, Status: status}, http.StatusOK)
}

// writeFailure answers with message. The status code is derived from err
// unless alwaysOK is set.
func (e *envelopes) writeFailure(w http.ResponseWriter, r *http.Request, handler string, err error, message string) {
	code, kind := classify(err)

	if e.metrics != nil {
		e.metrics.RecordEnvelopeError(handler, kind)
	}

	level := slog.LevelDebug
	if code >= http.StatusInternalServerError {
		level = slog.LevelWarn
	}
	e.logger.Log(r.Context(), level, "request failed",
		"handler", handler,
		"kind", kind,
		"message", message,
		"error", err,
	)

	if e.alwaysOK {
		code = http.StatusOK
	}
	writeError(w, message, code)
}

// classify maps an error to its HTTP status code and a short label for metrics.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, errBadRequest),
		errors.Is(err, solana.ErrInvalidAddress),
		errors.Is(err, solana.ErrInvalidSignature),
		errors.Is(err, solana.ErrUnknownNetwork):
		return http.StatusBadRequest, "invalid_input"
	case errors.Is(err, solana.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, solana.ErrNoSamples):
		return http.StatusServiceUnavailable, "no_samples"
	case solana.IsRemoteQueryError(err):
		return http.StatusBadGateway, "remote"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

// decodeBody decodes a JSON request body into dst. An empty body leaves dst
// at its zero value so that optional-only payloads may be omitted.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) (string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)

	err := json.NewDecoder(r.Body).Decode(dst)
	switch {
	case err == nil, errors.Is(err, io.EOF):
		return "", nil
	case strings.Contains(err.Error(), "http: request body too large"):
		return "request body too large: maximum size is 1MB", errors.Join(errBadRequest, err)
	default:
		return "invalid request body: must be valid JSON", errors.Join(errBadRequest, err)
	}
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, data any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, message string, statusCode int) {
	writeJSON(w, errorEnvelope{Error: message}, statusCode)
}
