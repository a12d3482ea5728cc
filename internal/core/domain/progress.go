package domain

// Stage is one step of the harvest state machine.
// Stages advance strictly forward; Failed may follow any non-terminal stage.
type Stage string

const (
	StageIdle         Stage = "idle"
	StageValidating   Stage = "validating"
	StageFetchingPage Stage = "fetching-page"
	StageAnalyzing    Stage = "analyzing"
	StageDiscovering  Stage = "discovering"
	StageDownloading  Stage = "downloading"
	StagePackaging    Stage = "packaging"
	StageDone         Stage = "done"
	StageFailed       Stage = "failed"
)

// ProgressEvent is one report in the ordered stream a run emits.
// Percent values are non-decreasing within a run, and exactly one terminal
// event (Done or Failed) closes the sequence.
type ProgressEvent struct {
	// RunID identifies the harvest run this event belongs to.
	RunID string `json:"run_id"`

	Stage   Stage `json:"stage"`
	Percent int   `json:"percent"`

	// Total and Completed count resolved assets during StageDownloading.
	Total     int `json:"total,omitempty"`
	Completed int `json:"completed,omitempty"`

	// Item is the just-processed asset's final filename, when applicable.
	Item string `json:"item,omitempty"`

	// Err carries the human-readable reason on StageFailed.
	Err string `json:"error,omitempty"`

	// Archive and Filename carry the finished result on StageDone.
	Archive  []byte `json:"archive,omitempty"`
	Filename string `json:"filename,omitempty"`
}

// Terminal reports whether the event closes the run.
func (e ProgressEvent) Terminal() bool {
	return e.Stage == StageDone || e.Stage == StageFailed
}
