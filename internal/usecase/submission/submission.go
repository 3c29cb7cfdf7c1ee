package submission

import (
	"context"
	"errors"
	"fmt"

	"github.com/RXLU5x/translate-image-text-cloud/internal/entity"
	"github.com/RXLU5x/translate-image-text-cloud/internal/repo"
	"github.com/RXLU5x/translate-image-text-cloud/pkg/metrics"
	"github.com/RXLU5x/translate-image-text-cloud/pkg/types/errs"
)

// CleanupBatchSize is how many submissions one cleanup transaction deletes.
const CleanupBatchSize = 25

type SubmissionUseCase struct {
	sessions    repo.SessionRepo
	submissions repo.SubmissionRepo
	transactor  repo.Transactor

	metrics *metrics.Metrics
}

func New(
	sessions repo.SessionRepo,
	submissions repo.SubmissionRepo,
	transactor repo.Transactor,
	m *metrics.Metrics,
) *SubmissionUseCase {
	return &SubmissionUseCase{
		sessions:    sessions,
		submissions: submissions,
		transactor:  transactor,
		metrics:     m,
	}
}

type opened struct {
	submission *entity.Submission
	level      entity.ServiceLevel
}

// Open validates the session and creates an in_progress submission for it in
// one transaction. It returns the tier the submission belongs to.
func (uc *SubmissionUseCase) Open(ctx context.Context, sessionID string) (*entity.Submission, entity.ServiceLevel, error) {
	if sessionID == "" {
		return nil, "", fmt.Errorf("SubmissionUseCase - Open: %w", errs.ErrSessionInvalid)
	}

	res, err := repo.InTransaction(ctx, uc.transactor, func(ctx context.Context) (opened, error) {
		level, err := uc.sessions.GetServiceLevel(ctx, sessionID)
		if err != nil {
			if errors.Is(err, errs.ErrRecordNotFound) {
				return opened{}, errs.ErrSessionNotFound
			}
			return opened{}, fmt.Errorf("uc.sessions.GetServiceLevel: %w", err)
		}

		s, err := uc.submissions.Create(ctx, sessionID)
		if err != nil {
			return opened{}, fmt.Errorf("uc.submissions.Create: %w", err)
		}

		return opened{submission: s, level: level}, nil
	})
	if err != nil {
		return nil, "", fmt.Errorf("SubmissionUseCase - Open - %s: %w", sessionID, err)
	}

	uc.metrics.Transition(string(entity.InProgress))

	return res.submission, res.level, nil
}

func (uc *SubmissionUseCase) Get(ctx context.Context, submissionID string) (*entity.Submission, error) {
	if submissionID == "" {
		return nil, fmt.Errorf("SubmissionUseCase - Get: %w", errs.ErrSubmissionInvalid)
	}

	s, err := uc.submissions.GetByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, errs.ErrRecordNotFound) {
			return nil, fmt.Errorf("SubmissionUseCase - Get - %s: %w", submissionID, errs.ErrSubmissionNotFound)
		}
		return nil, fmt.Errorf("SubmissionUseCase - Get - uc.submissions.GetByID: %w", err)
	}

	return s, nil
}

// Result reads a submission of the session. A submission that failed yields
// errs.ErrSubmissionFailed and one that is still moving through the stages
// errs.ErrSubmissionNotReady; in both cases the submission is returned too so
// the caller can report its state.
func (uc *SubmissionUseCase) Result(ctx context.Context, sessionID, submissionID string) (*entity.Submission, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("SubmissionUseCase - Result: %w", errs.ErrSessionInvalid)
	}
	if submissionID == "" {
		return nil, fmt.Errorf("SubmissionUseCase - Result: %w", errs.ErrSubmissionInvalid)
	}

	s, err := repo.InTransaction(ctx, uc.transactor, func(ctx context.Context) (*entity.Submission, error) {
		_, err := uc.sessions.GetByID(ctx, sessionID)
		if err != nil {
			if errors.Is(err, errs.ErrRecordNotFound) {
				return nil, errs.ErrSessionNotFound
			}
			return nil, fmt.Errorf("uc.sessions.GetByID: %w", err)
		}

		s, err := uc.submissions.GetByID(ctx, submissionID)
		if err != nil {
			if errors.Is(err, errs.ErrRecordNotFound) {
				return nil, errs.ErrSubmissionNotFound
			}
			return nil, fmt.Errorf("uc.submissions.GetByID: %w", err)
		}

		// Submissions of other sessions are not visible.
		if s.SessionID != sessionID {
			return nil, errs.ErrSubmissionNotFound
		}

		return s, nil
	})
	if err != nil {
		return nil, fmt.Errorf("SubmissionUseCase - Result - %s: %w", submissionID, err)
	}

	switch s.State {
	case entity.Completed:
		return s, nil
	case entity.Failed:
		return s, fmt.Errorf("SubmissionUseCase - Result - %s: %w", submissionID, errs.ErrSubmissionFailed)
	default:
		return s, fmt.Errorf("SubmissionUseCase - Result - %s is %s: %w", submissionID, s.State, errs.ErrSubmissionNotReady)
	}
}

func (uc *SubmissionUseCase) MarkDetected(ctx context.Context, submissionID, text string) error {
	err := uc.transition(ctx, submissionID, entity.Detected, func(s *entity.Submission) {
		s.Text = &text
	})
	if err != nil {
		return fmt.Errorf("SubmissionUseCase - MarkDetected: %w", err)
	}

	return nil
}

func (uc *SubmissionUseCase) MarkCompleted(ctx context.Context, submissionID string, t entity.Translation) error {
	err := uc.transition(ctx, submissionID, entity.Completed, func(s *entity.Submission) {
		s.TextTranslated = &t.Text
		s.TranslatedFrom = &t.From
		s.TranslatedTo = &t.To
	})
	if err != nil {
		return fmt.Errorf("SubmissionUseCase - MarkCompleted: %w", err)
	}

	return nil
}

func (uc *SubmissionUseCase) MarkFailed(ctx context.Context, submissionID, detail string) error {
	err := uc.transition(ctx, submissionID, entity.Failed, func(s *entity.Submission) {
		s.Error = &detail
	})
	if err != nil {
		return fmt.Errorf("SubmissionUseCase - MarkFailed: %w", err)
	}

	return nil
}

// transition locks the submission, checks that next is reachable from its
// current state and writes it together with the fields set by apply. A
// transition the state does not rewrite succeeds without writing.
func (uc *SubmissionUseCase) transition(ctx context.Context, submissionID string, next entity.State, apply func(*entity.Submission)) error {
	if submissionID == "" {
		return errs.ErrSubmissionInvalid
	}

	written, err := repo.InTransaction(ctx, uc.transactor, func(ctx context.Context) (bool, error) {
		s, err := uc.submissions.GetForUpdate(ctx, submissionID)
		if err != nil {
			if errors.Is(err, errs.ErrRecordNotFound) {
				return false, errs.ErrSubmissionNotFound
			}
			return false, fmt.Errorf("uc.submissions.GetForUpdate: %w", err)
		}

		if !s.State.CanTransitionTo(next) {
			return false, fmt.Errorf("%s -> %s: %w", s.State, next, errs.ErrInvalidTransition)
		}

		if !s.State.Rewrites(next) {
			return false, nil
		}

		apply(s)
		s.State = next

		if err := uc.submissions.Update(ctx, s); err != nil {
			return false, fmt.Errorf("uc.submissions.Update: %w", err)
		}

		return true, nil
	})
	if err != nil {
		return fmt.Errorf("%s: %w", submissionID, err)
	}

	if written {
		uc.metrics.Transition(string(next))
	}

	return nil
}

// DeleteAll removes every submission, one batch per transaction.
func (uc *SubmissionUseCase) DeleteAll(ctx context.Context) (int, error) {
	total, err := repo.DeleteInBatches(ctx, uc.transactor, CleanupBatchSize, uc.submissions.DeleteBatch)
	if err != nil {
		return total, fmt.Errorf("SubmissionUseCase - DeleteAll: %w", err)
	}

	return total, nil
}
