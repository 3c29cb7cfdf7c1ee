package google

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/api/translate/v2"
)

const undetermined = "und"

var errEmptyTranslation = errors.New("translation response is empty")

type Translator struct {
	svc *translate.Service
}

func NewTranslator(svc *translate.Service) *Translator {
	return &Translator{svc}
}

// DetectLanguage returns the most likely language code of text, or "und".
func (t *Translator) DetectLanguage(ctx context.Context, text string) (string, error) {
	resp, err := t.svc.Detections.List([]string{text}).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("Translator - DetectLanguage - t.svc.Detections.List: %w", err)
	}

	if len(resp.Detections) == 0 || len(resp.Detections[0]) == 0 || resp.Detections[0][0].Language == "" {
		return undetermined, nil
	}

	return resp.Detections[0][0].Language, nil
}

func (t *Translator) Translate(ctx context.Context, text, from, to string) (string, error) {
	call := t.svc.Translations.List([]string{text}, to).Format("text")
	if from != "" && from != undetermined {
		call = call.Source(from)
	}

	resp, err := call.Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("Translator - Translate - t.svc.Translations.List: %w", err)
	}

	if len(resp.Translations) == 0 {
		return "", fmt.Errorf("Translator - Translate: %w", errEmptyTranslation)
	}

	return resp.Translations[0].TranslatedText, nil
}
