package common

import (
	"encoding/json"
	"net/http"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

func RespondWithError(w http.ResponseWriter, code int, message string) {
	RespondWithJSON(w, code, ErrorResponse{Error: message})
}

// RespondWithErr writes err with the status HTTPStatusFromError picks for it.
// Internal failures are reported without their wrapped detail.
func RespondWithErr(w http.ResponseWriter, err error) {
	code := HTTPStatusFromError(err)
	msg := err.Error()
	if code == http.StatusInternalServerError {
		msg = ErrInternalServer.Error()
	}
	RespondWithError(w, code, msg)
}

func RespondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": "Failed to marshal JSON response"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}
