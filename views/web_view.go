// Package views renders gate state for the web page and the terminal.
package views

import (
	"sync"

	"github/itish2003/pdfquery/models"
)

// WebView records what the browser page should display.
type WebView struct {
	mu           sync.Mutex
	status       string
	level        models.StatusLevel
	result       string
	queryEnabled bool
	notice       string
}

// NewWebView returns an empty view with the query disabled.
func NewWebView() *WebView {
	return &WebView{}
}

// ShowStatus sets the line under the upload form.
func (v *WebView) ShowStatus(text string, level models.StatusLevel) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.status = text
	v.level = level
}

// ShowResult replaces the result area.
func (v *WebView) ShowResult(text string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.result = text
}

// SetQueryEnabled enables or disables the query input and its button.
func (v *WebView) SetQueryEnabled(enabled bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.queryEnabled = enabled
}

// Notify stores a notice for the next render. A later notice replaces an
// unread one.
func (v *WebView) Notify(message string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.notice = message
}

// TakeNotice returns the pending notice and clears it.
func (v *WebView) TakeNotice() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	n := v.notice
	v.notice = ""
	return n
}

// QueryEnabled reports whether the query input and button are enabled.
func (v *WebView) QueryEnabled() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.queryEnabled
}

// Snapshot copies the displayed state without consuming the notice.
func (v *WebView) Snapshot() models.SessionSnapshot {
	v.mu.Lock()
	defer v.mu.Unlock()
	return models.SessionSnapshot{
		Status:       v.status,
		StatusLevel:  v.level,
		Result:       v.result,
		QueryEnabled: v.queryEnabled,
		Notice:       v.notice,
	}
}
