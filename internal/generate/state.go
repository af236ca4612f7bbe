package generate

import (
	"fmt"
	"time"

	"git.home.luguber.info/inful/pomosite/internal/metrics"
)

// State is a generation state.
type State string

const (
	StateValidating        State = "validating"
	StateCopyingResources  State = "copying_resources"
	StateRenderingLanguage State = "rendering_language"
	StateVerifyingLinks    State = "verifying_links"
	StateWritingManifest   State = "writing_manifest"
	StateDone              State = "done"
	StateFailed            State = "failed"
)

// Step is one state of a run. Language passes carry their index and tag.
type Step struct {
	State State
	// Index is the language pass index for StateRenderingLanguage; 0 is the default language.
	Index       int
	LanguageTag string
}

func (s Step) String() string {
	if s.State != StateRenderingLanguage {
		return string(s.State)
	}
	if s.LanguageTag == "" {
		return fmt.Sprintf("%s[%d]", s.State, s.Index)
	}
	return fmt.Sprintf("%s[%d] (%s)", s.State, s.Index, s.LanguageTag)
}

// Observer receives state transitions of a run.
type Observer interface {
	OnStateStart(step Step)
	OnStateComplete(step Step, d time.Duration, err error)
	OnRunComplete(res *Result)
}

// NoopObserver is a no-op implementation.
type NoopObserver struct{}

func (NoopObserver) OnStateStart(Step)                          {}
func (NoopObserver) OnStateComplete(Step, time.Duration, error) {}
func (NoopObserver) OnRunComplete(*Result)                      {}

// recorderObserver adapts metrics.Recorder into an Observer.
type recorderObserver struct{ rec metrics.Recorder }

func (r recorderObserver) OnStateStart(Step) {}

func (r recorderObserver) OnStateComplete(step Step, d time.Duration, err error) {
	r.rec.ObserveStageDuration(string(step.State), d)
	r.rec.IncStageResult(string(step.State), resultLabel(err))
}

func (r recorderObserver) OnRunComplete(res *Result) {
	r.rec.ObserveBuildDuration(res.Duration())
	r.rec.IncBuildOutcome(metrics.BuildOutcomeLabel(res.Outcome))
}

func resultLabel(err error) metrics.ResultLabel {
	switch {
	case err == nil:
		return metrics.ResultSuccess
	case isCanceled(err):
		return metrics.ResultCanceled
	default:
		return metrics.ResultFatal
	}
}

// languageLabel is the metrics label of a language pass.
func languageLabel(tag string) string {
	if tag == "" {
		return "default"
	}
	return tag
}
