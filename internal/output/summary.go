package output

import (
	"fmt"
	"io"
	"reclone/internal/repo"
	"sort"
	"sync"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"
)

// SummarySink collects outcomes and renders a Markdown table, sorted by name,
// when closed.
type SummarySink struct {
	writer   io.Writer
	mu       sync.Mutex
	outcomes []repo.Outcome
}

func NewSummarySink(w io.Writer) (*SummarySink, error) {
	if w == nil {
		return nil, fmt.Errorf("summary sink writer must not be nil")
	}
	return &SummarySink{writer: w}, nil
}

func (s *SummarySink) Write(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if o, ok := v.(repo.Outcome); ok {
		s.outcomes = append(s.outcomes, o)
	}
	return nil
}

func (s *SummarySink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sort.Slice(s.outcomes, func(i, j int) bool { return s.outcomes[i].Ref.Name < s.outcomes[j].Ref.Name })

	table := newSummaryTable(s.writer, []string{"Repository", "Status", "Duration", "Message"})
	var ok, failed int
	for _, o := range s.outcomes {
		if o.Succeeded() {
			ok++
		} else {
			failed++
		}
		if err := table.Append([]string{o.Ref.Name, string(o.Status), o.Duration.Round(time.Millisecond).String(), o.Message}); err != nil {
			return err
		}
	}
	if err := table.Render(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(s.writer, "\n%d succeeded, %d failed\n", ok, failed)
	return err
}

func newSummaryTable(w io.Writer, headers []string) *tablewriter.Table {
	cfg := tablewriter.Config{
		Header: tw.CellConfig{
			Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
			Formatting: tw.CellFormatting{AutoFormat: tw.Off},
		},
		Row: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignLeft},
		},
		Behavior: tw.Behavior{TrimSpace: tw.Off},
	}
	return tablewriter.NewTable(w,
		tablewriter.WithConfig(cfg),
		tablewriter.WithHeader(headers),
		tablewriter.WithRenderer(renderer.NewBlueprint()),
		tablewriter.WithRendition(tw.Rendition{
			Symbols: tw.NewSymbols(tw.StyleMarkdown),
			Borders: tw.Border{Left: tw.On, Top: tw.Off, Right: tw.On, Bottom: tw.Off},
		}),
		tablewriter.WithRowAutoWrap(tw.WrapNone),
	)
}
