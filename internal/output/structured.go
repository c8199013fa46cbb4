package output

import (
	"encoding/json"
	"fmt"
	"io"
	"reclone/internal/repo"
)

// structured implements the json (aggregate on close) and ndjson (one event
// per line) encodings shared by the console, emit and file sinks. Callers hold
// their own lock.
type structured struct {
	w        io.Writer
	format   string
	outcomes []repo.Outcome
}

func validStructuredFormat(format string) bool {
	return format == "json" || format == "ndjson"
}

func (s *structured) write(v any) error {
	switch s.format {
	case "json":
		if o, ok := v.(repo.Outcome); ok {
			s.outcomes = append(s.outcomes, o)
		}
		// Lifecycle events are dropped in aggregate mode.
		return nil
	case "ndjson":
		var e Event
		switch t := v.(type) {
		case Event:
			e = t
		case repo.Outcome:
			e = eventFromOutcome(t)
		default:
			return nil
		}
		if err := json.NewEncoder(s.w).Encode(e); err != nil {
			return err
		}
		return flushIfPossible(s.w)
	default:
		return fmt.Errorf("unsupported structured format: %s", s.format)
	}
}

func (s *structured) close() error {
	if s.format != "json" {
		return nil
	}
	outcomes := s.outcomes
	if outcomes == nil {
		outcomes = []repo.Outcome{}
	}
	encoder := json.NewEncoder(s.w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(outcomes); err != nil {
		return err
	}
	return flushIfPossible(s.w)
}
