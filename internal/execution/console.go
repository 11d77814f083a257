package execution

import (
	"strings"
	"sync"
)

// LineKind classifies a console line for rendering.
type LineKind string

// Console line classifications.
const (
	LineSuccess LineKind = "success"
	LineFailure LineKind = "failure"
	LineInfo    LineKind = "info"
	LinePlain   LineKind = "plain"
)

// EmptyConsoleHint is rendered when the console holds no lines.
const EmptyConsoleHint = `Click "Run" to execute your code...`

// ClassifyLine derives the display class of a console line from its markers.
func ClassifyLine(line string) LineKind {
	switch {
	case strings.HasPrefix(line, "✓") || strings.Contains(line, "PASSED"):
		return LineSuccess
	case strings.HasPrefix(line, "✗") || strings.HasPrefix(line, "❌") || strings.Contains(line, "FAILED"):
		return LineFailure
	case strings.HasPrefix(line, ">"):
		return LineInfo
	default:
		return LinePlain
	}
}

// ConsoleEventType describes a console mutation.
type ConsoleEventType string

// Console mutations delivered to listeners.
const (
	ConsoleAppend ConsoleEventType = "append"
	ConsoleClear  ConsoleEventType = "clear"
)

// ConsoleEvent is delivered to listeners after each mutation.
type ConsoleEvent struct {
	Type ConsoleEventType `json:"type"`
	Line string           `json:"line,omitempty"`
	Kind LineKind         `json:"kind,omitempty"`
}

// ConsoleListener observes console mutations.
type ConsoleListener func(ConsoleEvent)

// Console is an append-only transcript of display lines.
type Console struct {
	mu        sync.Mutex
	lines     []string
	listeners []ConsoleListener
}

// NewConsole creates a console seeded with existing lines.
func NewConsole(lines []string, listeners ...ConsoleListener) *Console {
	seeded := make([]string, len(lines))
	copy(seeded, lines)
	return &Console{lines: seeded, listeners: listeners}
}

// Append adds a line to the end of the transcript.
func (c *Console) Append(line string) {
	c.mu.Lock()
	c.lines = append(c.lines, line)
	c.mu.Unlock()

	c.notify(ConsoleEvent{Type: ConsoleAppend, Line: line, Kind: ClassifyLine(line)})
}

// Clear drops every line.
func (c *Console) Clear() {
	c.mu.Lock()
	c.lines = nil
	c.mu.Unlock()

	c.notify(ConsoleEvent{Type: ConsoleClear})
}

// Lines returns a copy of the transcript in order.
func (c *Console) Lines() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]string, len(c.lines))
	copy(out, c.lines)
	return out
}

// Len returns the number of lines held.
func (c *Console) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.lines)
}

func (c *Console) notify(event ConsoleEvent) {
	for _, listener := range c.listeners {
		listener(event)
	}
}

// ConsoleLine pairs a line with its display class.
type ConsoleLine struct {
	Text string   `json:"text"`
	Kind LineKind `json:"kind"`
}

// RenderConsole classifies every line of a transcript.
func RenderConsole(lines []string) []ConsoleLine {
	rendered := make([]ConsoleLine, 0, len(lines))
	for _, line := range lines {
		rendered = append(rendered, ConsoleLine{Text: line, Kind: ClassifyLine(line)})
	}
	return rendered
}
