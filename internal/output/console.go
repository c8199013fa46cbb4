package output

import (
	"fmt"
	"io"
	"os"
	"reclone/internal/repo"
	"sync"
	"time"

	"github.com/fatih/color"
)

var (
	okTag     = color.New(color.FgGreen, color.Bold)
	failedTag = color.New(color.FgRed, color.Bold)
)

// ConsoleSink is the human-facing sink. In text mode it prints one line per
// outcome; json and ndjson behave like EmitSink.
type ConsoleSink struct {
	writer io.Writer
	format string // "text", "json", "ndjson"
	mu     sync.Mutex
	enc    *structured
}

func NewConsoleSink(w io.Writer, format string) *ConsoleSink {
	if w == nil {
		w = os.Stdout
	}
	if format == "" {
		format = "text"
	}
	s := &ConsoleSink{writer: w, format: format}
	if validStructuredFormat(format) {
		s.enc = &structured{w: w, format: format}
	}
	return s
}

func (s *ConsoleSink) Write(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.enc != nil {
		return s.enc.write(v)
	}
	if s.format != "text" {
		return fmt.Errorf("unsupported console format: %s", s.format)
	}

	o, ok := v.(repo.Outcome)
	if !ok {
		// Ignore lifecycle events in text mode.
		return nil
	}
	if o.Succeeded() {
		okTag.Fprint(s.writer, "[OK]")
		fmt.Fprintf(s.writer, " %s -> %s (%s)\n", o.Ref.Name, o.Destination, o.Duration.Round(time.Millisecond))
	} else {
		failedTag.Fprint(s.writer, "[FAILED]")
		fmt.Fprintf(s.writer, " %s (%s)", o.Ref.Name, o.Ref.URL)
		if o.Message != "" {
			fmt.Fprintf(s.writer, " - %s", o.Message)
		}
		fmt.Fprintln(s.writer)
	}
	return flushIfPossible(s.writer)
}

func (s *ConsoleSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.enc != nil {
		return s.enc.close()
	}
	if s.format != "text" {
		return fmt.Errorf("unsupported console format: %s", s.format)
	}
	return nil
}
