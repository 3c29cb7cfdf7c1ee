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
	usersTable = "users"

	usernameColumn     = "username"
	serviceLevelColumn = "service_level"
)

type UserRepo struct {
	*postgres.Postgres
}

func NewUserRepo(pg *postgres.Postgres) *UserRepo {
	return &UserRepo{pg}
}

func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*entity.User, error) {
	sql, args, err := r.Builder.
		Select(usernameColumn, serviceLevelColumn).
		From(usersTable).
		Where(squirrel.Eq{usernameColumn: username}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("UserRepo - GetByUsername - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	var user entity.User
	err = executor.QueryRow(ctx, sql, args...).Scan(&user.Username, &user.ServiceLevel)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("UserRepo - GetByUsername: %w", errs.ErrRecordNotFound)
		}
		return nil, fmt.Errorf("UserRepo - GetByUsername - executor.QueryRow.Scan: %w", err)
	}

	return &user, nil
}
