package httptransport

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "vendorflow/pkg/domainerrors"
)

// writeJSON centralizes response encoding so every handler emits the same
// envelope.
func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeError translates the domain error taxonomy into HTTP. Domain error
// messages are caller-safe; anything uncoded renders as a bare internal.
func writeError(w http.ResponseWriter, err error) {
	message := "internal error"
	var de *dErrors.Error
	if errors.As(err, &de) {
		message = de.Message
	}
	code := dErrors.GetCode(err)
	writeJSON(w, dErrors.ToHTTPStatus(code), map[string]string{
		"error":   string(code),
		"message": message,
	})
}
