package infrastructure

import (
	"context"

	"github.com/RXLU5x/translate-image-text-cloud/internal/entity"
)

type (
	Publisher interface {
		Publish(ctx context.Context, topic string, payload []byte, attributes map[string]string) error
		Close() error
	}

	// MessageSource yields deliveries of one subscription. Every fetched
	// message stays unacknowledged until Ack and may be delivered again.
	MessageSource interface {
		Fetch(ctx context.Context) (*entity.Message, error)
		Ack(ctx context.Context, msg *entity.Message) error
		Close() error
	}

	TextDetector interface {
		DetectText(ctx context.Context, image []byte) (string, error)
	}

	Translator interface {
		DetectLanguage(ctx context.Context, text string) (string, error)
		Translate(ctx context.Context, text, from, to string) (string, error)
	}

	InstanceGroupScaler interface {
		Resize(ctx context.Context, group entity.InstanceGroup, size int64) error
	}

	ImagePreparer interface {
		Prepare(data []byte) ([]byte, error)
	}
)
