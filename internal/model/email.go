package model

import "time"

// EmailRecord is a message as fetched from the mail source.
type EmailRecord struct {
	ID      string
	Subject string
	Body    string
}

// ScoredEmail is an EmailRecord with its keyword priority.
type ScoredEmail struct {
	EmailRecord
	Priority int
}

// ImportantEmail is a ScoredEmail that cleared the threshold and was summarized.
type ImportantEmail struct {
	ScoredEmail
	Summary string
}

// StoredEmail is the persisted form of an ImportantEmail, keyed by ID.
type StoredEmail struct {
	ID        string    `json:"id"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	Priority  int       `json:"priority"`
	Summary   string    `json:"summary"`
	UpdatedAt time.Time `json:"-"`
}

// Stored converts e to its persisted form.
func (e ImportantEmail) Stored() StoredEmail {
	return StoredEmail{
		ID:       e.ID,
		Subject:  e.Subject,
		Body:     e.Body,
		Priority: e.Priority,
		Summary:  e.Summary,
	}
}
