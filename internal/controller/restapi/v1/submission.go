package v1

import (
	"errors"
	"net/http"
	"time"

	"github.com/RXLU5x/translate-image-text-cloud/internal/controller/restapi/v1/response"
	"github.com/RXLU5x/translate-image-text-cloud/internal/controller/restapi/v1/validate"
	"github.com/RXLU5x/translate-image-text-cloud/internal/entity"
	"github.com/RXLU5x/translate-image-text-cloud/pkg/types/errs"
	"github.com/gofiber/fiber/v2"
)

const _retryAfter = "2"

// @Summary 	Get submission result
// @Description Reads the state of a submission of the session. Completed submissions carry the translation
// @Tags 		submissions
// @Produce 	json
// @Param 		sessionId    path string true "Session ID"
// @Param 		submissionId path string true "Submission ID"
// @Success 	200 {object} response.Submission
// @Failure 	400 {object} response.Error "Invalid ID"
// @Failure 	404 {object} response.Error "Session or submission not found"
// @Failure 	503 {object} response.Submission "Not ready or failed"
// @Failure 	500 {object} response.Error "Internal"
// @Router 		/v1/sessions/{sessionId}/submissions/{submissionId} [get]
func (r *V1) getSubmission(ctx *fiber.Ctx) error {
	sessionID := ctx.Params("sessionId")
	submissionID := ctx.Params("submissionId")

	if !validate.ID(sessionID) || !validate.ID(submissionID) {
		return errorResponse(ctx, http.StatusBadRequest, "invalid id")
	}

	sub, err := r.submissions.Result(ctx.UserContext(), sessionID, submissionID)
	switch {
	case err == nil:
		return ctx.Status(http.StatusOK).JSON(toResponse(sub))
	case errors.Is(err, errs.ErrSessionNotFound):
		return errorResponse(ctx, http.StatusNotFound, "session not found")
	case errors.Is(err, errs.ErrSubmissionNotFound):
		return errorResponse(ctx, http.StatusNotFound, "submission not found")
	case errors.Is(err, errs.ErrSubmissionNotReady):
		ctx.Set(fiber.HeaderRetryAfter, _retryAfter)

		return ctx.Status(http.StatusServiceUnavailable).JSON(toResponse(sub))
	case errors.Is(err, errs.ErrSubmissionFailed):
		return ctx.Status(http.StatusServiceUnavailable).JSON(toResponse(sub))
	}

	r.logger.Error(err, "restapi - v1 - getSubmission")

	return errorResponse(ctx, http.StatusInternalServerError, "storage problems")
}

func toResponse(sub *entity.Submission) response.Submission {
	resp := response.Submission{
		SubmissionID:   sub.ID,
		State:          sub.State.String(),
		Error:          deref(sub.Error),
		TranslatedText: deref(sub.TextTranslated),
		TranslatedFrom: deref(sub.TranslatedFrom),
		TranslatedTo:   deref(sub.TranslatedTo),
	}
	if !sub.UpdatedAt.IsZero() {
		resp.UpdatedAt = sub.UpdatedAt.Format(time.RFC3339)
	}

	return resp
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
