// Package envelope writes the JSON response shape the frontend depends on:
// { success, data?, message?, count?, error? }.
package envelope

import (
	"encoding/json"
	"net/http"
)

// Response is the wire shape of every API reply.
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
	Count   *int        `json:"count,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// OK writes a success response carrying data.
func OK(w http.ResponseWriter, status int, data interface{}) {
	write(w, status, Response{Success: true, Data: data})
}

// OKCount writes a success response carrying a collection plus its length.
func OKCount(w http.ResponseWriter, status int, count int, data interface{}) {
	write(w, status, Response{Success: true, Data: data, Count: &count})
}

// OKMessage writes a success response carrying only a message.
func OKMessage(w http.ResponseWriter, status int, message string) {
	write(w, status, Response{Success: true, Message: message})
}

// Fail writes a failure response with an error code and a human-readable message.
func Fail(w http.ResponseWriter, status int, code, message string) {
	write(w, status, Response{Success: false, Error: code, Message: message})
}

// BadRequest writes a 400 failure response.
func BadRequest(w http.ResponseWriter, code, message string) {
	Fail(w, http.StatusBadRequest, code, message)
}

// Unauthorized writes a 401 failure response.
func Unauthorized(w http.ResponseWriter, code, message string) {
	Fail(w, http.StatusUnauthorized, code, message)
}

// Forbidden writes a 403 failure response.
func Forbidden(w http.ResponseWriter, message string) {
	Fail(w, http.StatusForbidden, CodeForbidden, message)
}

// NotFound writes a 404 failure response.
func NotFound(w http.ResponseWriter, message string) {
	Fail(w, http.StatusNotFound, CodeNotFound, message)
}

// QuotaExceeded writes a 429 failure response.
func QuotaExceeded(w http.ResponseWriter, message string) {
	Fail(w, http.StatusTooManyRequests, CodeQuotaExceeded, message)
}

// Internal writes a 500 failure response.
func Internal(w http.ResponseWriter, message string) {
	Fail(w, http.StatusInternalServerError, CodeInternalError, message)
}

func write(w http.ResponseWriter, status int, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}
