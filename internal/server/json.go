package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/houseparty/houseparty/internal/houseparty"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// readJSON decodes the body into v and runs its validate tags.
func readJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return houseparty.Invalid("invalid request body")
	}
	if err := validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return houseparty.Invalid(validationMessage(verrs[0]))
		}
		return houseparty.Invalid("invalid request body")
	}
	return nil
}

func validationMessage(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field()[:1]) + fe.Field()[1:]
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "min", "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	}
	return field + " is invalid"
}

// ErrorResponse is returned for all error responses.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

var kindStatus = map[houseparty.Kind]int{
	houseparty.KindNotFound:  http.StatusNotFound,
	houseparty.KindForbidden: http.StatusForbidden,
	houseparty.KindConflict:  http.StatusConflict,
	houseparty.KindInvalid:   http.StatusBadRequest,
	houseparty.KindLocked:    http.StatusLocked,
}

// writeFailure maps domain errors to their status and hides everything
// else behind a 500.
func writeFailure(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	var de *houseparty.Error
	if errors.As(err, &de) {
		writeJSON(w, kindStatus[de.Kind], ErrorResponse{Error: de.Message, Code: de.Code})
		return
	}
	logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
	writeError(w, http.StatusInternalServerError, "internal error")
}
