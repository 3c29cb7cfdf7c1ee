package ocr

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/RXLU5x/translate-image-text-cloud/internal/entity"
	"github.com/RXLU5x/translate-image-text-cloud/internal/infrastructure"
	"github.com/RXLU5x/translate-image-text-cloud/internal/repo"
	"github.com/RXLU5x/translate-image-text-cloud/internal/usecase"
	"github.com/RXLU5x/translate-image-text-cloud/internal/usecase/stage"
	"github.com/RXLU5x/translate-image-text-cloud/pkg/logger"
	"github.com/RXLU5x/translate-image-text-cloud/pkg/metrics"
	"github.com/RXLU5x/translate-image-text-cloud/pkg/types/errs"
)

// OCRUseCase turns an uploaded image into detected text and forwards it to
// the translation stage of the same tier.
type OCRUseCase struct {
	submissions usecase.SubmissionUseCase
	objects     repo.ObjectRepo
	preparer    infrastructure.ImagePreparer
	detector    infrastructure.TextDetector
	publisher   infrastructure.Publisher
	next        string

	metrics *metrics.Metrics
	logger  logger.Interface
}

func New(
	submissions usecase.SubmissionUseCase,
	objects repo.ObjectRepo,
	preparer infrastructure.ImagePreparer,
	detector infrastructure.TextDetector,
	publisher infrastructure.Publisher,
	level entity.ServiceLevel,
	m *metrics.Metrics,
	l logger.Interface,
) *OCRUseCase {
	return &OCRUseCase{
		submissions: submissions,
		objects:     objects,
		preparer:    preparer,
		detector:    detector,
		publisher:   publisher,
		next:        level.TranslationTopic(),
		metrics:     m,
		logger:      l,
	}
}

// Handle never leaves a failure unrecorded: any error is written to the
// submission as its terminal error state before it is returned.
func (uc *OCRUseCase) Handle(ctx context.Context, msg *entity.Message) (err error) {
	started := time.Now()
	defer func() { uc.metrics.StageHandled("ocr", started, err) }()

	item, err := stage.ParseItem(msg)
	if err != nil {
		if item.SubmissionID != "" {
			uc.fail(ctx, item.SubmissionID, err)
		}
		return fmt.Errorf("OCRUseCase - Handle - %s: %w", msg.ID, err)
	}

	err = uc.process(ctx, item)
	if err != nil {
		uc.fail(ctx, item.SubmissionID, err)

		return fmt.Errorf("OCRUseCase - Handle - %s: %w", item.SubmissionID, err)
	}

	return nil
}

func (uc *OCRUseCase) process(ctx context.Context, item stage.Item) error {
	sub, err := uc.submissions.Get(ctx, item.SubmissionID)
	if err != nil {
		return fmt.Errorf("uc.submissions.Get: %w", err)
	}

	switch sub.State {
	case entity.Completed, entity.Failed:
		uc.logger.Info("OCRUseCase - process - %s already %s, skipping", sub.ID, sub.State)

		return nil
	case entity.Detected:
		// Redelivery after the text was stored; the image may already be gone.
		uc.logger.Info("OCRUseCase - process - %s already detected, forwarding stored text", sub.ID)

		return uc.forward(ctx, item, derefOrEmpty(sub.Text))
	}

	key := string(item.Payload)

	data, err := uc.objects.Get(ctx, key)
	if err != nil {
		if errors.Is(err, errs.ErrRecordNotFound) {
			return fmt.Errorf("%s: %w", key, errs.ErrImageNotFound)
		}
		return fmt.Errorf("uc.objects.Get: %w", err)
	}

	prepared, err := uc.preparer.Prepare(data)
	if err != nil {
		return fmt.Errorf("uc.preparer.Prepare: %w", err)
	}

	text, err := uc.detector.DetectText(ctx, prepared)
	if err != nil {
		return fmt.Errorf("uc.detector.DetectText: %w", err)
	}

	err = uc.submissions.MarkDetected(ctx, item.SubmissionID, text)
	if err != nil {
		return fmt.Errorf("uc.submissions.MarkDetected: %w", err)
	}

	if err := uc.objects.Delete(ctx, key); err != nil {
		uc.logger.Warn("OCRUseCase - process - failed to delete key=%s, error=%v", key, err)
	}

	return uc.forward(ctx, item, text)
}

func (uc *OCRUseCase) forward(ctx context.Context, item stage.Item, text string) error {
	err := uc.publisher.Publish(ctx, uc.next, []byte(text), item.Attributes())
	if err != nil {
		return fmt.Errorf("uc.publisher.Publish: %w", err)
	}

	return nil
}

func (uc *OCRUseCase) fail(ctx context.Context, submissionID string, cause error) {
	if stage.Abandoned(ctx, cause) {
		uc.logger.Warn("OCRUseCase - fail - %s stopped before finishing, not recorded", submissionID)

		return
	}

	ctx, cancel := stage.RecordContext(ctx)
	defer cancel()

	err := uc.submissions.MarkFailed(ctx, submissionID, stage.Detail(stage.OCRName, cause))
	if err != nil {
		uc.logger.Error(err, "OCRUseCase - fail - uc.submissions.MarkFailed")
	}
}

func derefOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
