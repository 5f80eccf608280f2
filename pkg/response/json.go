package response

import (
	"encoding/json"
	"net/http"
)

// TraceHeader carries the request trace id. Error bodies echo it so a
// reporter can quote it to support.
const TraceHeader = "X-Trace-Id"

type APIResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Errors  interface{} `json:"errors,omitempty"`
	TraceID string      `json:"trace_id,omitempty"`
}

// JSON writes payload with statusCode. Headers are already sent when the
// encoder fails, so the failure can only truncate the body.
func JSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func Success(w http.ResponseWriter, statusCode int, message string, data interface{}) {
	JSON(w, statusCode, APIResponse{Status: "success", Message: message, Data: data})
}

func Error(w http.ResponseWriter, statusCode int, message string, errDetail string) {
	JSON(w, statusCode, APIResponse{
		Status:  "error",
		Message: message,
		Error:   errDetail,
		TraceID: w.Header().Get(TraceHeader),
	})
}

// Invalid reports field-level problems so a client can render all of them
// at once. data carries optional context such as the allowed next states.
func Invalid(w http.ResponseWriter, statusCode int, message string, errs interface{}, data interface{}) {
	JSON(w, statusCode, APIResponse{
		Status:  "error",
		Message: message,
		Data:    data,
		Errors:  errs,
		TraceID: w.Header().Get(TraceHeader),
	})
}
