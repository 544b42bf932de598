package models

import (
	"bytes"
	"encoding/json"
)

// Result is a JSON object returned by the external service. Raw keeps the
// body as received so it can be displayed with its original key order.
type Result struct {
	Raw    json.RawMessage
	Fields map[string]interface{}
}

// Pretty returns the body indented with two spaces. Whitespace around the
// body is dropped.
func (r *Result) Pretty() string {
	if r == nil {
		return ""
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, r.Raw, "", "  "); err != nil {
		return string(r.Raw)
	}
	return string(bytes.TrimRight(buf.Bytes(), " \t\r\n"))
}

// ErrorResponse is the structured error body of the JSON API.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Version string `json:"version"`
}
