package logcollection

import (
	"io"
	"strings"
	"sync"
	"time"
)

// DefaultConsoleMaxLines is the number of server lines retained by default
const DefaultConsoleMaxLines = 10000

// Console keeps the most recent lines of server output, dropping the oldest
// once MaxLines is reached, and optionally forwards every line to a
// structured logger.
type Console struct {
	mu      sync.Mutex
	lines   []ConsoleLine
	size    int
	pos     int
	full    bool
	seq     int64
	forward StructuredLogger
}

// ConsoleConfig configures a Console
type ConsoleConfig struct {
	MaxLines int  `yaml:"max_lines,omitempty"`
	Forward  bool `yaml:"forward,omitempty"` // Forward lines to the application log at debug level
}

// NewConsole creates a console retaining at most maxLines lines.
// forward may be nil.
func NewConsole(maxLines int, forward StructuredLogger) *Console {
	if maxLines <= 0 {
		maxLines = DefaultConsoleMaxLines
	}
	return &Console{
		lines:   make([]ConsoleLine, maxLines),
		size:    maxLines,
		forward: forward,
	}
}

// SetForward replaces the logger lines are forwarded to; nil stops forwarding
func (c *Console) SetForward(forward StructuredLogger) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.forward = forward
}

// CollectLine implements LineCollector
func (c *Console) CollectLine(line string) {
	c.mu.Lock()
	c.seq++
	entry := ConsoleLine{Timestamp: time.Now(), Seq: c.seq, Text: line}
	c.lines[c.pos] = entry
	c.pos = (c.pos + 1) % c.size
	if c.pos == 0 {
		c.full = true
	}
	forward := c.forward
	c.mu.Unlock()

	if forward != nil {
		forward.LogWithFields(DebugLevel, line, Source("catalina"))
	}
}

// Lines returns all retained lines, oldest first
func (c *Console) Lines() []ConsoleLine {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.full {
		result := make([]ConsoleLine, c.pos)
		copy(result, c.lines[:c.pos])
		return result
	}

	result := make([]ConsoleLine, c.size)
	copy(result, c.lines[c.pos:])
	copy(result[c.size-c.pos:], c.lines[:c.pos])
	return result
}

// Last returns the last n lines. If fewer lines exist, returns all of them.
func (c *Console) Last(n int) []ConsoleLine {
	all := c.Lines()
	if n >= len(all) {
		return all
	}
	return all[len(all)-n:]
}

// Len returns the number of retained lines
func (c *Console) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.full {
		return c.size
	}
	return c.pos
}

// Total returns how many lines were ever collected
func (c *Console) Total() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seq
}

// Text joins the retained lines with newlines
func (c *Console) Text() string {
	lines := c.Lines()
	texts := make([]string, len(lines))
	for i, l := range lines {
		texts[i] = l.Text
	}
	return strings.Join(texts, "\n")
}

// WriteTo dumps the retained lines to w, one per line
func (c *Console) WriteTo(w io.Writer) (int64, error) {
	var written int64
	for _, l := range c.Lines() {
		n, err := io.WriteString(w, l.Text+"\n")
		written += int64(n)
		if err != nil {
			return written, err
		}
	}
	return written, nil
}
