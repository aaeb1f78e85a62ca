package webber

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

const (
	StatusStarting = "Starting..."
	StatusStarted  = "Started"
)

// StatusStyles holds the styles of the status line
type StatusStyles struct {
	Title  lipgloss.Style
	Status lipgloss.Style
	Error  lipgloss.Style
	Target lipgloss.Style
}

// DefaultStatusStyles returns the default color scheme
func DefaultStatusStyles() StatusStyles {
	highlight := lipgloss.AdaptiveColor{Light: "#7D56F4", Dark: "#AD8EE6"}
	subtle := lipgloss.AdaptiveColor{Light: "#666", Dark: "#999"}
	errorColor := lipgloss.AdaptiveColor{Light: "#AA0000", Dark: "#FF0000"}

	return StatusStyles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(highlight).
			PaddingRight(1),

		Status: lipgloss.NewStyle(),

		Error: lipgloss.NewStyle().
			Foreground(errorColor).
			Bold(true),

		Target: lipgloss.NewStyle().
			Foreground(subtle).
			PaddingLeft(2),
	}
}

// StatusDisplay renders server status lines to a terminal. It is driven by
// lifecycle notifications and keeps the last status for inspection.
type StatusDisplay struct {
	mutex   sync.Mutex
	out     io.Writer
	title   string
	styles  StatusStyles
	status  string
	isError bool
}

func NewStatusDisplay(out io.Writer, title string, styles StatusStyles) *StatusDisplay {
	return &StatusDisplay{
		out:    out,
		title:  title,
		styles: styles,
	}
}

// SetStatus shows an ordinary status message
func (d *StatusDisplay) SetStatus(msg string) {
	d.set(msg, false)
}

// SetError shows an error message in the error style
func (d *StatusDisplay) SetError(msg string) {
	d.set(msg, true)
}

// ShowTargets lists the pages that are now available
func (d *StatusDisplay) ShowTargets(targets []Target) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	for _, target := range targets {
		fmt.Fprintln(d.out, d.styles.Target.Render(target.URL))
	}
}

// Current returns the last status and whether it was an error
func (d *StatusDisplay) Current() (string, bool) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return d.status, d.isError
}

func (d *StatusDisplay) set(msg string, isError bool) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	d.status = msg
	d.isError = isError

	style := d.styles.Status
	if isError {
		style = d.styles.Error
	}
	fmt.Fprintln(d.out, lipgloss.JoinHorizontal(lipgloss.Top, d.styles.Title.Render(d.title), style.Render(msg)))
}
