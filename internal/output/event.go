package output

import "reclone/internal/repo"

const (
	EventRunStarted  = "run.started"
	EventCloneResult = "clone.result"
	EventRunFinished = "run.finished"
)

// Event is a lifecycle record for NDJSON streaming output:
// run.started, one clone.result per repository, run.finished.
//
// ExitCode is set only on run.finished.
//
// JSON mode is an aggregate array of repo.Outcome values instead.
type Event struct {
	Type   string `json:"type"`
	RunID  string `json:"run_id,omitempty"`
	Source string `json:"source,omitempty"`
	*repo.Outcome
	Repos     int  `json:"repos,omitempty"`
	Workers   int  `json:"workers,omitempty"`
	Succeeded int  `json:"succeeded,omitempty"`
	Failed    int  `json:"failed,omitempty"`
	ExitCode  *int `json:"exit_code,omitempty"`
}

func eventFromOutcome(o repo.Outcome) Event {
	return Event{Type: EventCloneResult, Outcome: &o}
}
