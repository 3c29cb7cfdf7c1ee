package google

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/RXLU5x/translate-image-text-cloud/pkg/types/errs"
	"google.golang.org/api/vision/v1"
)

const textDetection = "TEXT_DETECTION"

type TextDetector struct {
	svc *vision.Service
}

func NewTextDetector(svc *vision.Service) *TextDetector {
	return &TextDetector{svc}
}

// DetectText returns the full text annotation of image. An image without text
// yields errs.ErrNoTextDetected.
func (d *TextDetector) DetectText(ctx context.Context, image []byte) (string, error) {
	req := &vision.BatchAnnotateImagesRequest{
		Requests: []*vision.AnnotateImageRequest{{
			Image:    &vision.Image{Content: base64.StdEncoding.EncodeToString(image)},
			Features: []*vision.Feature{{Type: textDetection}},
		}},
	}

	resp, err := d.svc.Images.Annotate(req).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("TextDetector - DetectText - d.svc.Images.Annotate: %w", err)
	}

	if len(resp.Responses) == 0 {
		return "", fmt.Errorf("TextDetector - DetectText: %w", errs.ErrNoTextDetected)
	}

	r := resp.Responses[0]
	if r.Error != nil && r.Error.Message != "" {
		return "", fmt.Errorf("TextDetector - DetectText: %w", errors.New(r.Error.Message))
	}

	if r.FullTextAnnotation == nil || r.FullTextAnnotation.Text == "" {
		return "", fmt.Errorf("TextDetector - DetectText: %w", errs.ErrNoTextDetected)
	}

	return r.FullTextAnnotation.Text, nil
}
