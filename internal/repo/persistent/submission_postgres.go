package persistent

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/RXLU5x/translate-image-text-cloud/internal/entity"
	"github.com/RXLU5x/translate-image-text-cloud/pkg/postgres"
	"github.com/RXLU5x/translate-image-text-cloud/pkg/types/errs"
	"github.com/jackc/pgx/v5"
)

const (
	submissionsTable = "submissions"

	sessionIDColumn      = "session_id"
	stateColumn          = "state"
	errorColumn          = "error"
	textColumn           = "text"
	textTranslatedColumn = "text_translated"
	translatedFromColumn = "translated_from"
	translatedToColumn   = "translated_to"
	updatedAtColumn      = "updated_at"
)

var submissionColumns = []string{
	idColumn,
	sessionIDColumn,
	stateColumn,
	errorColumn,
	textColumn,
	textTranslatedColumn,
	translatedFromColumn,
	translatedToColumn,
	createdAtColumn,
	updatedAtColumn,
}

type SubmissionRepo struct {
	*postgres.Postgres
}

func NewSubmissionRepo(pg *postgres.Postgres) *SubmissionRepo {
	return &SubmissionRepo{pg}
}

// Create inserts an in_progress submission and returns it with the id
// the store generated.
func (r *SubmissionRepo) Create(ctx context.Context, sessionID string) (*entity.Submission, error) {
	sql, args, err := r.Builder.
		Insert(submissionsTable).
		Columns(sessionIDColumn, stateColumn).
		Values(sessionID, entity.InProgress).
		Suffix("RETURNING " + idColumn + ", " + createdAtColumn + ", " + updatedAtColumn).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("SubmissionRepo - Create - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	submission := entity.Submission{
		SessionID: sessionID,
		State:     entity.InProgress,
	}

	err = executor.QueryRow(ctx, sql, args...).Scan(&submission.ID, &submission.CreatedAt, &submission.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("SubmissionRepo - Create - executor.QueryRow.Scan: %w", err)
	}

	return &submission, nil
}

func (r *SubmissionRepo) GetByID(ctx context.Context, id string) (*entity.Submission, error) {
	return r.get(ctx, id, "")
}

// GetForUpdate locks the row until the surrounding transaction ends.
func (r *SubmissionRepo) GetForUpdate(ctx context.Context, id string) (*entity.Submission, error) {
	return r.get(ctx, id, "FOR UPDATE")
}

func (r *SubmissionRepo) get(ctx context.Context, id, lock string) (*entity.Submission, error) {
	q := r.Builder.
		Select(submissionColumns...).
		From(submissionsTable).
		Where(squirrel.Eq{idColumn: id})
	if lock != "" {
		q = q.Suffix(lock)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("SubmissionRepo - get - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	var s entity.Submission
	err = executor.QueryRow(ctx, sql, args...).Scan(
		&s.ID,
		&s.SessionID,
		&s.State,
		&s.Error,
		&s.Text,
		&s.TextTranslated,
		&s.TranslatedFrom,
		&s.TranslatedTo,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("SubmissionRepo - get: %w", errs.ErrRecordNotFound)
		}
		return nil, fmt.Errorf("SubmissionRepo - get - executor.QueryRow.Scan: %w", err)
	}

	return &s, nil
}

// Update overwrites the lifecycle fields of the submission.
func (r *SubmissionRepo) Update(ctx context.Context, s *entity.Submission) error {
	sql, args, err := r.Builder.
		Update(submissionsTable).
		Set(stateColumn, s.State).
		Set(errorColumn, s.Error).
		Set(textColumn, s.Text).
		Set(textTranslatedColumn, s.TextTranslated).
		Set(translatedFromColumn, s.TranslatedFrom).
		Set(translatedToColumn, s.TranslatedTo).
		Set(updatedAtColumn, squirrel.Expr("now()")).
		Where(squirrel.Eq{idColumn: s.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("SubmissionRepo - Update - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	tag, err := executor.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("SubmissionRepo - Update - executor.Exec: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("SubmissionRepo - Update: %w", errs.ErrRecordNotFound)
	}

	return nil
}

func (r *SubmissionRepo) DeleteBatch(ctx context.Context, limit int) (int, error) {
	return deleteBatch(ctx, r.Postgres, submissionsTable, limit)
}
