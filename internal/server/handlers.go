package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/mealtrail/mealtrail/internal/cipher"
	"github.com/mealtrail/mealtrail/internal/fetch"
	"github.com/mealtrail/mealtrail/internal/importer"
	"github.com/mealtrail/mealtrail/internal/logger"
	"github.com/mealtrail/mealtrail/internal/model"
	"github.com/mealtrail/mealtrail/internal/report"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 32 << 20

type handlers struct {
	pipeline *report.Pipeline
	fetcher  BlobFetcher
}

type errorResponse struct {
	Error string `json:"error"`
}

type fetchRequest struct {
	IDSerial    string `json:"idserial"`
	ServiceHall string `json:"servicehall"`
}

func (h *handlers) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

// reportFromBody builds a report from the request body. The format query
// parameter selects the parser and defaults to the encrypted blob.
func (h *handlers) reportFromBody(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = importer.FormatEncrypted
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, r, http.StatusRequestEntityTooLarge, "reading body: "+err.Error())
		return
	}

	rep, err := h.pipeline.Run(r.Context(), format, body)
	if err != nil {
		writeError(w, r, statusFor(err), report.UserMessage(err))
		return
	}
	writeJSON(w, r, http.StatusOK, rep.Document())
}

// reportFromFetch fetches the blob with the given credentials, then builds
// the report.
func (h *handlers) reportFromFetch(w http.ResponseWriter, r *http.Request) {
	if h.fetcher == nil {
		writeError(w, r, http.StatusNotImplemented, "fetching is disabled")
		return
	}

	var req fetchRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	blob, err := h.fetcher.FetchBlob(r.Context(), fetch.Credentials{IDSerial: req.IDSerial, ServiceHall: req.ServiceHall})
	if err != nil {
		writeError(w, r, statusFor(err), report.UserMessage(err))
		return
	}

	rep, err := h.pipeline.Run(r.Context(), importer.FormatEncrypted, []byte(blob))
	if err != nil {
		writeError(w, r, statusFor(err), report.UserMessage(err))
		return
	}
	writeJSON(w, r, http.StatusOK, rep.Document())
}

func statusFor(err error) int {
	var (
		rowErr    *importer.RowError
		svcErr    *fetch.ServiceError
		syntaxErr *json.SyntaxError
	)
	switch {
	case errors.Is(err, fetch.ErrMissingCredentials),
		errors.Is(err, report.ErrUnknownFormat),
		errors.Is(err, cipher.ErrDecryption),
		errors.As(err, &syntaxErr):
		return http.StatusBadRequest
	case errors.As(err, &svcErr):
		return http.StatusBadGateway
	case errors.Is(err, model.ErrEmptyDataset),
		errors.As(err, &rowErr):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log := logger.FromContext(r.Context())
		log.Error().Err(err).Msg("encoding response")
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, r, status, errorResponse{Error: msg})
}
