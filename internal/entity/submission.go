package entity

import "time"

type Submission struct {
	ID        string `json:"id"`
	SessionID string `json:"session_id"`
	State     State  `json:"state"`

	Error          *string `json:"error,omitempty"`
	Text           *string `json:"text,omitempty"`
	TextTranslated *string `json:"text_translated,omitempty"`
	TranslatedFrom *string `json:"translated_from,omitempty"`
	TranslatedTo   *string `json:"translated_to,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Translation is the result of a completed submission.
type Translation struct {
	Text string `json:"translated_text"`
	From string `json:"translated_from"`
	To   string `json:"translated_to"`
}
