package response

type Submission struct {
	SubmissionID   string `json:"submission_id"`
	State          string `json:"state"`
	Error          string `json:"error,omitempty"`
	TranslatedText string `json:"translated_text,omitempty"`
	TranslatedFrom string `json:"translated_from,omitempty"`
	TranslatedTo   string `json:"translated_to,omitempty"`
	UpdatedAt      string `json:"updated_at,omitempty"`
}
