package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"

	"github.com/mmynk/calories/internal/auth"
	"github.com/mmynk/calories/internal/middleware"
	"github.com/mmynk/calories/internal/service"
)

// Response messages.
const (
	msgNotFound           = "Not found."
	msgForbidden          = "You do not have permission to perform this action."
	msgNotAuthenticated   = "Authentication credentials were not provided."
	msgInvalidToken       = "Invalid token."
	msgInvalidCredentials = "Please check your credentials and try again!"
	msgSuspended          = "Your account has been suspended"
	msgServerError        = "A server error occurred."
	msgInvalidInteger     = "A valid integer is required."
	msgInvalidBoolean     = "Must be a valid boolean."
	msgInvalidDate        = "Enter a valid date in YYYY-MM-DD format."
)

type detail struct {
	Detail string `json:"detail"`
}

// errBadRequest marks a request body that could not be decoded at all.
type errBadRequest struct {
	msg string
}

func (e *errBadRequest) Error() string { return e.msg }

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *service.ValidationError
	var bad *errBadRequest
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, verr.Fields)
	case errors.As(err, &bad):
		writeJSON(w, http.StatusBadRequest, detail{Detail: bad.msg})
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeJSON(w, http.StatusBadRequest, nonFieldError(msgInvalidCredentials))
	case errors.Is(err, auth.ErrAccountSuspended):
		writeJSON(w, http.StatusBadRequest, nonFieldError(msgSuspended))
	case errors.Is(err, service.ErrNotFound):
		writeJSON(w, http.StatusNotFound, detail{Detail: msgNotFound})
	case errors.Is(err, service.ErrForbidden):
		writeJSON(w, http.StatusForbidden, detail{Detail: msgForbidden})
	default:
		s.logger.Error("Request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"account_id", middleware.GetAccountID(r.Context()),
			"error", err,
		)
		writeJSON(w, http.StatusInternalServerError, detail{Detail: msgServerError})
	}
}

func (s *Server) unauthorized(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, auth.ErrMissingToken):
		w.Header().Set("WWW-Authenticate", "Token")
		writeJSON(w, http.StatusUnauthorized, detail{Detail: msgNotAuthenticated})
	case errors.Is(err, auth.ErrInvalidToken):
		w.Header().Set("WWW-Authenticate", "Token")
		writeJSON(w, http.StatusUnauthorized, detail{Detail: msgInvalidToken})
	default:
		s.writeError(w, r, err)
	}
}

func nonFieldError(msg string) map[string][]string {
	return map[string][]string{service.NonFieldErrors: {msg}}
}

// decodeJSON reads the request body into v. Type mismatches become field
// errors; malformed bodies become errBadRequest.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	err := dec.Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		verr := &service.ValidationError{}
		field := typeErr.Field
		if field == "" {
			field = service.NonFieldErrors
		}
		verr.Add(field, typeMessage(typeErr))
		return verr
	}
	return &errBadRequest{msg: fmt.Sprintf("JSON parse error - %v", err)}
}

func typeMessage(e *json.UnmarshalTypeError) string {
	switch e.Type.Kind() {
	case reflect.Int, reflect.Int64:
		return msgInvalidInteger
	case reflect.Bool:
		return msgInvalidBoolean
	case reflect.Slice:
		return fmt.Sprintf("Expected a list of items but got type %q.", e.Value)
	default:
		return fmt.Sprintf("Invalid value of type %s.", e.Value)
	}
}
