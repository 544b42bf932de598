package views

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github/itish2003/pdfquery/models"

	"github.com/fatih/color"
)

// ConsoleView prints gate updates to a terminal.
type ConsoleView struct {
	mu      sync.Mutex
	out     io.Writer
	enabled bool

	info    *color.Color
	success *color.Color
	failure *color.Color
	notice  *color.Color
	dim     *color.Color
}

// NewConsoleView writes to out. Colors follow color.NoColor, which is set
// when out is not a terminal or NO_COLOR is present.
func NewConsoleView(out io.Writer) *ConsoleView {
	return &ConsoleView{
		out:     out,
		info:    color.New(color.FgBlue),
		success: color.New(color.FgGreen),
		failure: color.New(color.FgRed),
		notice:  color.New(color.FgYellow, color.Bold),
		dim:     color.New(color.Faint),
	}
}

// ShowStatus prints text colored by level.
func (v *ConsoleView) ShowStatus(text string, level models.StatusLevel) {
	v.mu.Lock()
	defer v.mu.Unlock()
	c := v.info
	switch level {
	case models.StatusSuccess:
		c = v.success
	case models.StatusError:
		c = v.failure
	}
	c.Fprintln(v.out, text)
}

// ShowResult prints text as is.
func (v *ConsoleView) ShowResult(text string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	fmt.Fprintln(v.out, strings.TrimRight(text, "\n"))
}

// SetQueryEnabled only prints when the state actually changes.
func (v *ConsoleView) SetQueryEnabled(enabled bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.enabled == enabled {
		return
	}
	v.enabled = enabled
	if enabled {
		v.dim.Fprintln(v.out, "query enabled")
	} else {
		v.dim.Fprintln(v.out, "query disabled")
	}
}

// Notify prints message prefixed with "!".
func (v *ConsoleView) Notify(message string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.notice.Fprintln(v.out, "! "+message)
}

// QueryEnabled reports the last affordance state.
func (v *ConsoleView) QueryEnabled() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.enabled
}
