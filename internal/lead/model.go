package lead

import "time"

// Submission is the untrusted request body of POST /api/lead. Field names
// match what the landing page sends.
type Submission struct {
	Name           string `json:"name"`
	Contact        string `json:"contact"`
	Source         string `json:"source"`
	Company        string `json:"company"` // honeypot, must stay empty
	FormOpenedAt   int64  `json:"formOpenedAt"`
	SubmittedAt    int64  `json:"submittedAt"`
	TurnstileToken string `json:"turnstileToken"`
}

// Lead is the validated, trusted shape handed to notifiers. It is only
// constructed after every gate in the pipeline has passed.
type Lead struct {
	Name      string `json:"name"`
	Contact   string `json:"contact"`
	Source    string `json:"source"`
	CreatedAt string `json:"createdAt"`
}

// NewLead builds the trusted payload from already-validated fields.
func NewLead(name, contact, source string, now time.Time) Lead {
	if source == "" {
		source = "website"
	}
	return Lead{
		Name:      name,
		Contact:   contact,
		Source:    source,
		CreatedAt: now.UTC().Format(time.RFC3339),
	}
}
