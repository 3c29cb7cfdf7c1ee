// Package v1 is the client-facing contract of the image text translation
// service. Messages travel as JSON under the "json" gRPC content-subtype.
package v1

type SignInRequest struct {
	Username string `json:"username"`
}

type SignInReply struct {
	SessionID string `json:"session_id"`
}

type SignOutRequest struct {
	SessionID string `json:"session_id"`
}

type SignOutReply struct{}

// ImageFrame is one message of SubmitImage. Exactly one of Metadata and
// Chunk is set; the first frame of a stream carries Metadata.
type ImageFrame struct {
	Metadata *ImageMetadata `json:"metadata,omitempty"`
	Chunk    *ImageChunk    `json:"chunk,omitempty"`
}

type ImageMetadata struct {
	SessionID   string `json:"session_id"`
	Name        string `json:"name"`
	Size        int64  `json:"size"`
	TranslateTo string `json:"translate_to"`
}

type ImageChunk struct {
	Data []byte `json:"data"`
}

type SubmitImageReply struct {
	SubmissionID string `json:"submission_id"`
}

type GetResultRequest struct {
	SessionID    string `json:"session_id"`
	SubmissionID string `json:"submission_id"`
}

type GetResultReply struct {
	TranslatedText string `json:"translated_text"`
	TranslatedFrom string `json:"translated_from"`
	TranslatedTo   string `json:"translated_to"`
}
