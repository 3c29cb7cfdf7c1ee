package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/RXLU5x/translate-image-text-cloud/internal/entity"
	"github.com/RXLU5x/translate-image-text-cloud/internal/repo"
	"github.com/RXLU5x/translate-image-text-cloud/pkg/logger"
	"github.com/RXLU5x/translate-image-text-cloud/pkg/types/errs"
	"github.com/google/uuid"
)

// CleanupBatchSize is how many sessions one cleanup transaction deletes.
const CleanupBatchSize = 25

type SessionUseCase struct {
	users      repo.UserRepo
	sessions   repo.SessionRepo
	transactor repo.Transactor

	logger logger.Interface
}

func New(users repo.UserRepo, sessions repo.SessionRepo, transactor repo.Transactor, l logger.Interface) *SessionUseCase {
	return &SessionUseCase{
		users:      users,
		sessions:   sessions,
		transactor: transactor,
		logger:     l,
	}
}

// SignIn opens a session for an existing account and returns its id.
func (uc *SessionUseCase) SignIn(ctx context.Context, username string) (string, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return "", fmt.Errorf("SessionUseCase - SignIn: %w", errs.ErrUsernameInvalid)
	}

	id, err := repo.InTransaction(ctx, uc.transactor, func(ctx context.Context) (string, error) {
		_, err := uc.users.GetByUsername(ctx, username)
		if err != nil {
			if errors.Is(err, errs.ErrRecordNotFound) {
				return "", errs.ErrAccountNotFound
			}
			return "", fmt.Errorf("uc.users.GetByUsername: %w", err)
		}

		session := &entity.Session{
			ID:        uuid.NewString(),
			Username:  username,
			CreatedAt: time.Now(),
		}
		if err := uc.sessions.Create(ctx, session); err != nil {
			return "", fmt.Errorf("uc.sessions.Create: %w", err)
		}

		return session.ID, nil
	})
	if err != nil {
		return "", fmt.Errorf("SessionUseCase - SignIn - %s: %w", username, err)
	}

	uc.logger.Info("session %s opened for %s", id, username)

	return id, nil
}

func (uc *SessionUseCase) SignOut(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("SessionUseCase - SignOut: %w", errs.ErrSessionInvalid)
	}

	err := uc.sessions.Delete(ctx, sessionID)
	if err != nil {
		if errors.Is(err, errs.ErrRecordNotFound) {
			return fmt.Errorf("SessionUseCase - SignOut - %s: %w", sessionID, errs.ErrSessionNotFound)
		}
		return fmt.Errorf("SessionUseCase - SignOut - uc.sessions.Delete: %w", err)
	}

	uc.logger.Info("session %s closed", sessionID)

	return nil
}

// DeleteAll removes every session, one batch per transaction, and reports
// how many were removed.
func (uc *SessionUseCase) DeleteAll(ctx context.Context) (int, error) {
	total, err := repo.DeleteInBatches(ctx, uc.transactor, CleanupBatchSize, uc.sessions.DeleteBatch)
	if err != nil {
		return total, fmt.Errorf("SessionUseCase - DeleteAll: %w", err)
	}

	return total, nil
}
