package apiserver

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/goccy/go-json"
	"github.com/gorilla/mux"

	"social-go/internal/apperr"
	"social-go/internal/config"
	"social-go/internal/logging"
	"social-go/internal/models"
	"social-go/internal/storage"
)

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

const maxBodyBytes = 1 << 20

// writeJSONResponse writes data as the JSON body with statusCode.
func writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// writeError maps err to a status and a caller-safe body. Server-side
// failures are logged with the request's logger.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperr.HTTPStatus(err)
	if apperr.ShouldLog(err) {
		logging.Ctx(r.Context()).Error().Err(err).Int("status", status).
			Str("path", r.URL.Path).Msg("request failed")
	}
	body := ErrorResponse{Error: apperr.PublicMessage(err)}
	var valErr *apperr.ValidationError
	if errors.As(err, &valErr) {
		body.Fields = valErr.Fields
	}
	writeJSONResponse(w, status, body)
}

// decodeJSON reads a bounded JSON body into v. An empty body leaves v untouched.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	defer r.Body.Close()
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return apperr.Invalid("body", "must be valid JSON")
	}
	return nil
}

// pathID reads an id route variable and checks its shape.
func pathID(r *http.Request, name string) (string, error) {
	id := mux.Vars(r)[name]
	if !models.ValidID(id) {
		return "", apperr.Invalid(name, "must be a valid id")
	}
	return id, nil
}

// pageFromQuery reads ?before=<id>&limit=<n>, clamping limit to the configured bounds.
func pageFromQuery(r *http.Request, pagination config.PaginationConfig) (storage.Page, error) {
	q := r.URL.Query()
	page := storage.Page{BeforeID: q.Get("before")}
	if page.BeforeID != "" && !models.ValidID(page.BeforeID) {
		return page, apperr.Invalid("before", "must be a valid id")
	}
	requested := 0
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return page, apperr.Invalid("limit", "must be a positive integer")
		}
		requested = n
	}
	page.Limit = pagination.ClampLimit(requested)
	return page, nil
}
