package httputil

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validator is the shared request validator for handler payload structs.
var Validator = validator.New(validator.WithRequiredStructEnabled())

// ValidationError renders validator failures as a 400 with one line per
// failed field.
func ValidationError(log *slog.Logger, w http.ResponseWriter, err error) {
	var fields []string
	if errs, ok := err.(validator.ValidationErrors); ok {
		for _, fe := range errs {
			fields = append(fields, fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag()))
		}
	} else {
		fields = append(fields, err.Error())
	}
	message := strings.Join(fields, "; ")
	log.Warn("request validation failed", "detail", message)
	WriteJSON(w, http.StatusBadRequest, map[string]any{"error": message})
}
