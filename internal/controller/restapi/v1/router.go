package v1

import (
	"github.com/RXLU5x/translate-image-text-cloud/internal/usecase"
	"github.com/RXLU5x/translate-image-text-cloud/pkg/logger"
	"github.com/gofiber/fiber/v2"
)

func NewSubmissionRoutes(apiV1Group fiber.Router, submissions usecase.SubmissionUseCase, l logger.Interface) {
	r := &V1{submissions: submissions, logger: l}

	{
		apiV1Group.Get("/sessions/:sessionId/submissions/:submissionId", r.getSubmission)
	}
}
