package app

import (
	"context"
	"fmt"

	"github.com/RXLU5x/translate-image-text-cloud/config"
	"github.com/RXLU5x/translate-image-text-cloud/internal/infrastructure/google"
	"github.com/RXLU5x/translate-image-text-cloud/internal/usecase/stage"
	"github.com/RXLU5x/translate-image-text-cloud/internal/usecase/translation"
	"google.golang.org/api/translate/v2"
)

// RunTranslation runs the translation stage worker of the configured tier.
func RunTranslation(cfg *config.Config) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	w := newWorker(ctx, cfg, "translation")
	tp := startTracing(ctx, cfg, cfg.App.Name+"-translation", w.l)
	defer stopTracing(context.Background(), tp, w.l)

	svc, err := translate.NewService(ctx, googleOptions(cfg)...)
	if err != nil {
		w.l.Fatal(fmt.Errorf("app - RunTranslation - translate.NewService: %w", err))
	}

	handler := translation.New(w.submissions, google.NewTranslator(svc), w.m, w.l)

	w.run(ctx, stage.TranslationName, cfg.Level().TranslationTopic(), handler)
}
