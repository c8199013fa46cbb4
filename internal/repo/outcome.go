package repo

import (
	"sort"
	"time"
)

type Status string

const (
	StatusSuccess Status = "SUCCESS"
	StatusFailure Status = "FAILURE"
)

// Outcome is the result of one clone attempt.
type Outcome struct {
	Ref         Ref           `json:"ref"`
	Status      Status        `json:"status"`
	Message     string        `json:"message,omitempty"`
	Destination string        `json:"destination"`
	Duration    time.Duration `json:"duration_ns"`
}

func (o Outcome) Succeeded() bool {
	return o.Status == StatusSuccess
}

// Results maps a ref name to its outcome.
type Results map[string]Outcome

func (r Results) Names() []string {
	names := make([]string, 0, len(r))
	for name := range r {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Failed returns failing outcomes sorted by name.
func (r Results) Failed() []Outcome {
	var out []Outcome
	for _, name := range r.Names() {
		if o := r[name]; !o.Succeeded() {
			out = append(out, o)
		}
	}
	return out
}

func (r Results) Counts() (succeeded, failed int) {
	for _, o := range r {
		if o.Succeeded() {
			succeeded++
		} else {
			failed++
		}
	}
	return succeeded, failed
}
