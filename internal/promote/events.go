package promote

import "time"

// State is a stage of a run
type State string

const (
	StateInit             State = "INIT"
	StateKeywordsResolved State = "KEYWORDS_RESOLVED"
	StateSearching        State = "SEARCHING"
	StateScoring          State = "SCORING"
	StateEngaging         State = "ENGAGING"
	StateDone             State = "DONE"
	StateFailed           State = "FAILED"
)

// Event is one stage transition
type Event struct {
	RunID   string    `json:"run_id"`
	State   State     `json:"state"`
	Message string    `json:"message,omitempty"`
	At      time.Time `json:"at"`
}

// eventBuffer holds every transition a run can emit, so a run never blocks
// on a consumer that is not reading.
const eventBuffer = 8
