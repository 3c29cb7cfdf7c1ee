package entity

// Frame is one message of a chunked image upload: a MetadataFrame or a ChunkFrame.
type Frame interface {
	frame()
}

type MetadataFrame struct {
	SessionID   string
	Filename    string
	Size        int64
	TranslateTo string
}

type ChunkFrame struct {
	Data []byte
}

func (MetadataFrame) frame() {}
func (ChunkFrame) frame()    {}
