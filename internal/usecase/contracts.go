package usecase

import (
	"context"

	"github.com/RXLU5x/translate-image-text-cloud/internal/entity"
)

type (
	SessionUseCase interface {
		SignIn(ctx context.Context, username string) (string, error)
		SignOut(ctx context.Context, sessionID string) error
		DeleteAll(ctx context.Context) (int, error)
	}

	SubmissionUseCase interface {
		Open(ctx context.Context, sessionID string) (*entity.Submission, entity.ServiceLevel, error)
		Get(ctx context.Context, submissionID string) (*entity.Submission, error)
		Result(ctx context.Context, sessionID, submissionID string) (*entity.Submission, error)
		MarkDetected(ctx context.Context, submissionID, text string) error
		MarkCompleted(ctx context.Context, submissionID string, translation entity.Translation) error
		MarkFailed(ctx context.Context, submissionID, detail string) error
		DeleteAll(ctx context.Context) (int, error)
	}

	// StageHandler processes one work item of a pipeline stage.
	StageHandler interface {
		Handle(ctx context.Context, msg *entity.Message) error
	}

	CapacityUseCase interface {
		Rebalance(ctx context.Context) error
	}
)

type (
	IngestionUseCase interface {
		Begin() Upload
	}

	// Upload consumes the frames of one streaming call. After an error
	// or Abort it accepts nothing more.
	Upload interface {
		Accept(ctx context.Context, frame entity.Frame) error
		Complete(ctx context.Context) (string, error)
		Abort(ctx context.Context)
	}
)
