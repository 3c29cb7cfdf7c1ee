package app

import (
	"context"
	"fmt"

	"github.com/RXLU5x/translate-image-text-cloud/config"
	"github.com/RXLU5x/translate-image-text-cloud/internal/infrastructure/google"
	"github.com/RXLU5x/translate-image-text-cloud/internal/infrastructure/processor"
	"github.com/RXLU5x/translate-image-text-cloud/internal/usecase/ocr"
	"github.com/RXLU5x/translate-image-text-cloud/internal/usecase/stage"
	"google.golang.org/api/vision/v1"
)

// RunOCR runs the OCR stage worker of the configured tier.
func RunOCR(cfg *config.Config) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	w := newWorker(ctx, cfg, "ocr")
	tp := startTracing(ctx, cfg, cfg.App.Name+"-ocr", w.l)
	defer stopTracing(context.Background(), tp, w.l)

	objects, err := openObjects(ctx, cfg)
	if err != nil {
		w.l.Fatal(fmt.Errorf("app - RunOCR - openObjects: %w", err))
	}

	svc, err := vision.NewService(ctx, googleOptions(cfg)...)
	if err != nil {
		w.l.Fatal(fmt.Errorf("app - RunOCR - vision.NewService: %w", err))
	}

	publisher, err := w.broker.Publisher(ctx)
	if err != nil {
		w.l.Fatal(fmt.Errorf("app - RunOCR - w.broker.Publisher: %w", err))
	}
	defer closeOnExit(publisher, w.l)

	level := cfg.Level()
	handler := ocr.New(
		w.submissions,
		objects,
		processor.New(processor.MaxSide(cfg.Stage.MaxImageSide)),
		google.NewTextDetector(svc),
		publisher,
		level,
		w.m,
		w.l,
	)

	w.run(ctx, stage.OCRName, level.OCRTopic(), handler)
}
