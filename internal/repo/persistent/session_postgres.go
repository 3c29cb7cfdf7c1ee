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
	sessionsTable = "sessions"

	idColumn        = "id"
	createdAtColumn = "created_at"
)

type SessionRepo struct {
	*postgres.Postgres
}

func NewSessionRepo(pg *postgres.Postgres) *SessionRepo {
	return &SessionRepo{pg}
}

func (r *SessionRepo) Create(ctx context.Context, session *entity.Session) error {
	sql, args, err := r.Builder.
		Insert(sessionsTable).
		Columns(idColumn, usernameColumn, createdAtColumn).
		Values(session.ID, session.Username, session.CreatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("SessionRepo - Create - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	_, err = executor.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("SessionRepo - Create - executor.Exec: %w", err)
	}

	return nil
}

// GetByID takes a share lock on the row when called inside a transaction, so
// a concurrent sign-out waits until the caller commits.
func (r *SessionRepo) GetByID(ctx context.Context, id string) (*entity.Session, error) {
	sql, args, err := r.Builder.
		Select(idColumn, usernameColumn, createdAtColumn).
		From(sessionsTable).
		Where(squirrel.Eq{idColumn: id}).
		Suffix("FOR SHARE").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("SessionRepo - GetByID - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	var session entity.Session
	err = executor.QueryRow(ctx, sql, args...).Scan(&session.ID, &session.Username, &session.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("SessionRepo - GetByID: %w", errs.ErrRecordNotFound)
		}
		return nil, fmt.Errorf("SessionRepo - GetByID - executor.QueryRow.Scan: %w", err)
	}

	return &session, nil
}

func (r *SessionRepo) GetServiceLevel(ctx context.Context, id string) (entity.ServiceLevel, error) {
	sql, args, err := r.Builder.
		Select("u." + serviceLevelColumn).
		From(sessionsTable + " s").
		Join(usersTable + " u ON u." + usernameColumn + " = s." + usernameColumn).
		Where(squirrel.Eq{"s." + idColumn: id}).
		Suffix("FOR SHARE OF s").
		ToSql()
	if err != nil {
		return "", fmt.Errorf("SessionRepo - GetServiceLevel - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	var level entity.ServiceLevel
	err = executor.QueryRow(ctx, sql, args...).Scan(&level)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", fmt.Errorf("SessionRepo - GetServiceLevel: %w", errs.ErrRecordNotFound)
		}
		return "", fmt.Errorf("SessionRepo - GetServiceLevel - executor.QueryRow.Scan: %w", err)
	}

	return level, nil
}

func (r *SessionRepo) Delete(ctx context.Context, id string) error {
	sql, args, err := r.Builder.
		Delete(sessionsTable).
		Where(squirrel.Eq{idColumn: id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("SessionRepo - Delete - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	tag, err := executor.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("SessionRepo - Delete - executor.Exec: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("SessionRepo - Delete: %w", errs.ErrRecordNotFound)
	}

	return nil
}

// DeleteBatch removes up to limit sessions and reports how many were removed.
func (r *SessionRepo) DeleteBatch(ctx context.Context, limit int) (int, error) {
	return deleteBatch(ctx, r.Postgres, sessionsTable, limit)
}

func deleteBatch(ctx context.Context, pg *postgres.Postgres, table string, limit int) (int, error) {
	sql, args, err := pg.Builder.
		Delete(table).
		Where(idColumn+" IN (SELECT "+idColumn+" FROM "+table+" LIMIT ? FOR UPDATE SKIP LOCKED)", limit).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("persistent - deleteBatch - pg.Builder.ToSql: %w", err)
	}

	executor := pg.GetExecutor(ctx)

	tag, err := executor.Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("persistent - deleteBatch - executor.Exec: %w", err)
	}

	return int(tag.RowsAffected()), nil
}
