package server

import (
	"encoding/json"
	"net/http"

	"github.com/fumiya-kume/cra/pkg/errors"
)

// statusFor maps a typed error onto an HTTP status
func statusFor(err error) int {
	switch errors.TypeOf(err) {
	case errors.ErrorTypeValidation, errors.ErrorTypeConflict:
		return http.StatusBadRequest
	case errors.ErrorTypeNotFound:
		return http.StatusNotFound
	case errors.ErrorTypeAuthentication:
		return http.StatusUnauthorized
	case errors.ErrorTypeRateLimit:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeErr hides the details of unexpected failures from clients
func (s *Server) writeErr(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	message := errors.MessageOf(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("%s %s failed (request_id: %s): %v", r.Method, r.URL.Path, RequestID(r.Context()), err)
		if !s.options.Debug {
			message = "internal server error"
		}
	}
	writeError(w, status, message)
}

// decodeJSON reads a JSON body of at most maxBody bytes
func decodeJSON(w http.ResponseWriter, r *http.Request, dest any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dest); err != nil {
		return errors.ValidationError("invalid JSON body: " + err.Error())
	}
	return nil
}
