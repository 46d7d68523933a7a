package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/phuslu/log"

	"OilTracker/internal/analytics"
	"OilTracker/internal/model"
	"OilTracker/internal/store"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

// WriteJSON writes a JSON response with the specified status code. The body
// is encoded before the header goes out so an encoding failure still yields a 500.
func WriteJSON(w http.ResponseWriter, statusCode int, v interface{}) error {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		log.Error().Err(err).Int("status", statusCode).Msg("failed to encode response")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		io.WriteString(w, `{"message":"Internal server error"}`+"\n")
		return err
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_, err := buf.WriteTo(w)
	return err
}

// WriteData writes the {"data": ...} success envelope.
func WriteData(w http.ResponseWriter, v interface{}) error {
	return WriteJSON(w, http.StatusOK, map[string]interface{}{"data": v})
}

// WriteError writes the {"message": ...} error envelope.
func WriteError(w http.ResponseWriter, statusCode int, message string) error {
	return WriteJSON(w, statusCode, map[string]string{"message": message})
}

// writeStoreError maps domain errors to HTTP statuses.
func writeStoreError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, analytics.ErrNoData):
		WriteError(w, http.StatusNotFound, "No data for grade")
	case errors.Is(err, store.ErrNotFound):
		WriteError(w, http.StatusNotFound, "Not found")
	case errors.Is(err, store.ErrInvalid):
		WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrDuplicate):
		WriteError(w, http.StatusConflict, err.Error())
	default:
		log.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		WriteError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// decodeJSON reads a bounded JSON body into v and checks its validate tags,
// writing a 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid JSON payload")
		return false
	}
	if err := model.Validate(v); err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

// gradeIDParam parses the {id} path value as a positive grade ID.
func gradeIDParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil || id <= 0 {
		WriteError(w, http.StatusBadRequest, "Invalid grade id")
		return 0, false
	}
	return id, true
}
