package v1

import (
	"github.com/RXLU5x/translate-image-text-cloud/internal/usecase"
	"github.com/RXLU5x/translate-image-text-cloud/pkg/logger"
)

type V1 struct {
	submissions usecase.SubmissionUseCase
	logger      logger.Interface
}
