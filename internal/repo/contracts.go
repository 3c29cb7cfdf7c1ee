package repo

import (
	"context"

	"github.com/RXLU5x/translate-image-text-cloud/internal/entity"
)

type (
	Transactor interface {
		WithinTransaction(ctx context.Context, f func(ctx context.Context) error) error
	}

	UserRepo interface {
		GetByUsername(ctx context.Context, username string) (*entity.User, error)
	}

	SessionRepo interface {
		Create(ctx context.Context, session *entity.Session) error
		GetByID(ctx context.Context, id string) (*entity.Session, error)
		GetServiceLevel(ctx context.Context, id string) (entity.ServiceLevel, error)
		Delete(ctx context.Context, id string) error
		DeleteBatch(ctx context.Context, limit int) (int, error)
	}

	SubmissionRepo interface {
		Create(ctx context.Context, sessionID string) (*entity.Submission, error)
		GetByID(ctx context.Context, id string) (*entity.Submission, error)
		GetForUpdate(ctx context.Context, id string) (*entity.Submission, error)
		Update(ctx context.Context, submission *entity.Submission) error
		DeleteBatch(ctx context.Context, limit int) (int, error)
	}

	ObjectRepo interface {
		Put(ctx context.Context, key string, data []byte) error
		OpenWriter(ctx context.Context, key string) (ObjectWriter, error)
		Get(ctx context.Context, key string) ([]byte, error)
		Delete(ctx context.Context, key string) error
	}

	// ObjectWriter streams one object in order. Exactly one of Close or Abort
	// must be called.
	ObjectWriter interface {
		Write(ctx context.Context, p []byte) error
		Close(ctx context.Context) error
		Abort(ctx context.Context) error
	}
)
