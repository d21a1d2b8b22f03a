// Package transcript accumulates recognized text and page markers into an
// editable buffer that is exported as flat UTF-8 text.
package transcript

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DefaultFileName is the suggested export name.
const DefaultFileName = "Raw_text.txt"

// LegendNone suppresses the line prefix.
const LegendNone = "none"

// Legends is the closed set of line prefixes offered to the user.
var Legends = []string{`"":`, `():`, `[]:`, `//:`, `::`, `OT:`, `ST:`, `Sfx:`, LegendNone}

// IsLegend reports whether s is one of Legends.
func IsLegend(s string) bool {
	for _, l := range Legends {
		if l == s {
			return true
		}
	}
	return false
}

// Transcript is an append-mostly text buffer. The user may replace its content
// at any time through SetText.
type Transcript struct {
	buf     strings.Builder
	counter int
}

// New returns an empty transcript whose first page marker is page1.
func New() *Transcript {
	return &Transcript{counter: 1}
}

// String returns the full buffer.
func (t *Transcript) String() string { return t.buf.String() }

// SetText replaces the buffer with user-edited content.
func (t *Transcript) SetText(s string) {
	t.buf.Reset()
	t.buf.WriteString(s)
}

// Counter returns the number the next page marker will use.
func (t *Transcript) Counter() int { return t.counter }

// SetCounter sets the next page marker number.
func (t *Transcript) SetCounter(n int) {
	if n < 1 {
		n = 1
	}
	t.counter = n
}

// AppendRecognition appends one recognized line. Empty text appends nothing.
// It returns the line that was added.
func (t *Transcript) AppendRecognition(text, legend string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	line := text + "\n"
	if legend != "" && legend != LegendNone {
		line = legend + " " + line
	}
	t.ensureLineStart()
	t.buf.WriteString(line)
	return line
}

// AppendPageMarker appends "page<N>" and advances the counter. A blank line
// separates it from earlier non-blank content.
func (t *Transcript) AppendPageMarker() string {
	s := t.buf.String()
	if strings.TrimSpace(s) != "" && !strings.HasSuffix(s, "\n\n") {
		if !strings.HasSuffix(s, "\n") {
			t.buf.WriteString("\n")
		}
		t.buf.WriteString("\n")
	}
	marker := fmt.Sprintf("page%d\n", t.counter)
	t.buf.WriteString(marker)
	t.counter++
	return marker
}

func (t *Transcript) ensureLineStart() {
	s := t.buf.String()
	if s != "" && !strings.HasSuffix(s, "\n") {
		t.buf.WriteString("\n")
	}
}

// Export writes the buffer verbatim to path, replacing any existing file.
func (t *Transcript) Export(path string) error {
	if err := os.WriteFile(path, []byte(t.buf.String()), 0o644); err != nil {
		return fmt.Errorf("failed to save transcript: %w", err)
	}
	return nil
}

// DefaultExportPath returns the suggested export file inside dir.
func DefaultExportPath(dir string) string {
	return filepath.Join(dir, DefaultFileName)
}
