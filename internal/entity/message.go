package entity

// Attribute keys carried by every stage work item.
const (
	AttrSubmissionID   = "submissionId"
	AttrTargetLanguage = "targetLanguage"
)

// Message is one delivery taken from a stage queue.
type Message struct {
	ID         string
	Payload    []byte
	Attributes map[string]string

	// Receipt is the broker handle used to acknowledge the delivery.
	Receipt any
}
