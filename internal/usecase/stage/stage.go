// Package stage holds what the OCR and translation work item handlers share.
package stage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/RXLU5x/translate-image-text-cloud/internal/entity"
	"github.com/RXLU5x/translate-image-text-cloud/pkg/types/errs"
)

const (
	OCRName         = "CNTextOCR module"
	TranslationName = "CNTextTranslation module"
)

const _recordTimeout = 5 * time.Second

// Abandoned reports whether err only says that the handler was stopped. Such
// work is unfinished, not failed, and is left for redelivery.
func Abandoned(ctx context.Context, err error) bool {
	return ctx.Err() != nil && errors.Is(err, context.Canceled)
}

// RecordContext returns the context a failure is written on. It outlives the
// deadline of the handler context, which may be what caused the failure.
func RecordContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), _recordTimeout)
}

// Item is the routing part of a work item.
type Item struct {
	SubmissionID   string
	TargetLanguage string
	Payload        []byte
}

func ParseItem(msg *entity.Message) (Item, error) {
	item := Item{
		SubmissionID:   msg.Attributes[entity.AttrSubmissionID],
		TargetLanguage: msg.Attributes[entity.AttrTargetLanguage],
		Payload:        msg.Payload,
	}

	if item.SubmissionID == "" {
		return item, fmt.Errorf("%s: %w", entity.AttrSubmissionID, errs.ErrMissingAttribute)
	}
	if item.TargetLanguage == "" {
		return item, fmt.Errorf("%s: %w", entity.AttrTargetLanguage, errs.ErrMissingAttribute)
	}

	return item, nil
}

func (i Item) Attributes() map[string]string {
	return map[string]string{
		entity.AttrSubmissionID:   i.SubmissionID,
		entity.AttrTargetLanguage: i.TargetLanguage,
	}
}

var known = []error{
	errs.ErrNoTextDetected,
	errs.ErrUnsupportedImage,
	errs.ErrImageNotFound,
	errs.ErrSubmissionNotFound,
	errs.ErrInvalidTransition,
	errs.ErrMissingAttribute,
}

// Detail renders err as the error text stored on a failed submission:
// "<stage>: <message>", where message is the domain error when there is one
// and the innermost cause otherwise.
func Detail(stage string, err error) string {
	for _, k := range known {
		if errors.Is(err, k) {
			return stage + ": " + k.Error()
		}
	}

	return stage + ": " + innermost(err).Error()
}

func innermost(err error) error {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err
		}
		err = next
	}
}
