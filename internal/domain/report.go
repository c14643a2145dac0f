package domain

import "time"

type Verdict string

const (
	VerdictWorking        Verdict = "working"
	VerdictNeedsDebugging Verdict = "needs debugging"
)

// RunReport is the outcome of one fetch + assert cycle against a target.
// Checks is empty exactly when Err is set.
type RunReport struct {
	ID            string                `json:"id"`
	Target        CheckTarget           `json:"target"`
	Result        *FetchResult          `json:"result,omitempty"`
	Err           error                 `json:"-"`
	Checks        []FragmentCheckResult `json:"checks"`
	MissingModule ModuleHint            `json:"missing_module"`
	Verdict       Verdict               `json:"verdict"`
	StartedAt     time.Time             `json:"started_at"`
	Duration      time.Duration         `json:"duration_ns"`
}

// Failed reports whether the fetch itself failed.
func (r RunReport) Failed() bool { return r.Err != nil }

// ErrorMessage is the connection error text, or "" on success.
func (r RunReport) ErrorMessage() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}
