package model

// OutcomeStatus says what happened to one fetched email during triage.
type OutcomeStatus string

const (
	OutcomeStored          OutcomeStatus = "stored"
	OutcomeBelowThreshold  OutcomeStatus = "below_threshold"
	OutcomeScoreFailed     OutcomeStatus = "score_failed"
	OutcomeSummarizeFailed OutcomeStatus = "summarize_failed"
	OutcomeStoreFailed     OutcomeStatus = "store_failed"
)

// ItemOutcome records the result for one fetched email.
type ItemOutcome struct {
	EmailID  string        `json:"id"`
	Priority int           `json:"priority"`
	Status   OutcomeStatus `json:"status"`
	Reason   string        `json:"reason,omitempty"`
}

// Skipped reports whether the email was dropped instead of stored.
func (o ItemOutcome) Skipped() bool {
	return o.Status != OutcomeStored
}
