package dto

import "fmt"

// ErrorResponse is the body of every failed request. Error carries a single
// message; Errors carries field-level validation failures.
type ErrorResponse struct {
	Error  string              `json:"error,omitempty"`
	Errors map[string][]string `json:"errors,omitempty"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type NoticeResponse struct {
	Notice string `json:"notice"`
}

// MissingParam is the message for a request without its top-level key.
func MissingParam(key string) string {
	return fmt.Sprintf("param is missing or the value is empty: %s", key)
}
