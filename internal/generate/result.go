package generate

import (
	"time"

	"git.home.luguber.info/inful/pomosite/internal/history"
	"git.home.luguber.info/inful/pomosite/internal/linkverify"
	"git.home.luguber.info/inful/pomosite/internal/manifest"
)

// Result describes a finished run.
type Result struct {
	RunID      string
	OutputRoot string
	Start      time.Time
	End        time.Time
	Outcome    history.Outcome
	// Failed is the step that failed; nil on success.
	Failed *Step
	// Files are the paths written by the run, in write order.
	Files []string
	// Manifest covers Files. It is empty when the run failed.
	Manifest    manifest.Manifest
	BrokenLinks []linkverify.BrokenLink
}

// Duration is the wall time of the run.
func (r *Result) Duration() time.Duration {
	return r.End.Sub(r.Start)
}

// FailedState names the failed step, empty on success.
func (r *Result) FailedState() string {
	if r.Failed == nil {
		return ""
	}
	return r.Failed.String()
}

// Run converts the result into a history record.
func (r *Result) Run(err error) history.Run {
	run := history.Run{
		ID:          r.RunID,
		OutputRoot:  r.OutputRoot,
		StartedAt:   r.Start,
		FinishedAt:  r.End,
		Outcome:     r.Outcome,
		FileCount:   len(r.Files),
		FailedState: r.FailedState(),
	}
	if err != nil {
		run.Error = err.Error()
	}
	if len(r.Manifest) > 0 {
		run.ManifestDigest = r.Manifest.Digest()
	}
	return run
}
