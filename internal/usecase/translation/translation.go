package translation

import (
	"context"
	"fmt"
	"time"

	"github.com/RXLU5x/translate-image-text-cloud/internal/entity"
	"github.com/RXLU5x/translate-image-text-cloud/internal/infrastructure"
	"github.com/RXLU5x/translate-image-text-cloud/internal/usecase"
	"github.com/RXLU5x/translate-image-text-cloud/internal/usecase/stage"
	"github.com/RXLU5x/translate-image-text-cloud/pkg/logger"
	"github.com/RXLU5x/translate-image-text-cloud/pkg/metrics"
)

type TranslationUseCase struct {
	submissions usecase.SubmissionUseCase
	translator  infrastructure.Translator

	metrics *metrics.Metrics
	logger  logger.Interface
}

func New(
	submissions usecase.SubmissionUseCase,
	translator infrastructure.Translator,
	m *metrics.Metrics,
	l logger.Interface,
) *TranslationUseCase {
	return &TranslationUseCase{
		submissions: submissions,
		translator:  translator,
		metrics:     m,
		logger:      l,
	}
}

// Handle translates the detected text carried by msg and completes the
// submission. Failures are written as the submission error state.
func (uc *TranslationUseCase) Handle(ctx context.Context, msg *entity.Message) (err error) {
	started := time.Now()
	defer func() { uc.metrics.StageHandled("translation", started, err) }()

	item, err := stage.ParseItem(msg)
	if err != nil {
		if item.SubmissionID != "" {
			uc.fail(ctx, item.SubmissionID, err)
		}
		return fmt.Errorf("TranslationUseCase - Handle - %s: %w", msg.ID, err)
	}

	err = uc.process(ctx, item)
	if err != nil {
		uc.fail(ctx, item.SubmissionID, err)

		return fmt.Errorf("TranslationUseCase - Handle - %s: %w", item.SubmissionID, err)
	}

	return nil
}

func (uc *TranslationUseCase) process(ctx context.Context, item stage.Item) error {
	sub, err := uc.submissions.Get(ctx, item.SubmissionID)
	if err != nil {
		return fmt.Errorf("uc.submissions.Get: %w", err)
	}

	if sub.State.Terminal() {
		uc.logger.Info("TranslationUseCase - process - %s already %s, skipping", sub.ID, sub.State)

		return nil
	}

	text := string(item.Payload)

	from, err := uc.translator.DetectLanguage(ctx, text)
	if err != nil {
		return fmt.Errorf("uc.translator.DetectLanguage: %w", err)
	}

	translated, err := uc.translator.Translate(ctx, text, from, item.TargetLanguage)
	if err != nil {
		return fmt.Errorf("uc.translator.Translate: %w", err)
	}

	err = uc.submissions.MarkCompleted(ctx, item.SubmissionID, entity.Translation{
		Text: translated,
		From: from,
		To:   item.TargetLanguage,
	})
	if err != nil {
		return fmt.Errorf("uc.submissions.MarkCompleted: %w", err)
	}

	return nil
}

func (uc *TranslationUseCase) fail(ctx context.Context, submissionID string, cause error) {
	if stage.Abandoned(ctx, cause) {
		uc.logger.Warn("TranslationUseCase - fail - %s stopped before finishing, not recorded", submissionID)

		return
	}

	ctx, cancel := stage.RecordContext(ctx)
	defer cancel()

	err := uc.submissions.MarkFailed(ctx, submissionID, stage.Detail(stage.TranslationName, cause))
	if err != nil {
		uc.logger.Error(err, "TranslationUseCase - fail - uc.submissions.MarkFailed")
	}
}
