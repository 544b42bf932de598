package models

import "time"

// SessionSnapshot is the visible state of one browser session.
type SessionSnapshot struct {
	ID           string      `json:"id"`
	State        UploadState `json:"state"`
	Status       string      `json:"status,omitempty"`
	StatusLevel  StatusLevel `json:"status_level,omitempty"`
	Result       string      `json:"result,omitempty"`
	QueryEnabled bool        `json:"query_enabled"`
	Notice       string      `json:"notice,omitempty"`
	LastSeen     time.Time   `json:"last_seen"`
}
