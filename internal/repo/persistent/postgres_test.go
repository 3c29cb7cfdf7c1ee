package persistent

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/RXLU5x/translate-image-text-cloud/internal/entity"
	"github.com/RXLU5x/translate-image-text-cloud/internal/repo"
	"github.com/RXLU5x/translate-image-text-cloud/pkg/postgres"
	"github.com/RXLU5x/translate-image-text-cloud/pkg/types/errs"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// newTestPostgres connects to TEST_PG_URL and skips when it is not set.
func newTestPostgres(t *testing.T) *postgres.Postgres {
	t.Helper()

	url := os.Getenv("TEST_PG_URL")
	if url == "" {
		t.Skip("TEST_PG_URL is not set")
	}

	pg, err := postgres.New(url, postgres.MaxPoolSize(4), postgres.ConnAttempts(1))
	require.NoError(t, err)
	t.Cleanup(pg.Close)

	ctx := context.Background()
	require.NoError(t, Migrate(ctx, pg))

	_, err = pg.Pool.Exec(ctx, "TRUNCATE submissions, sessions, users")
	require.NoError(t, err)

	_, err = pg.Pool.Exec(ctx, "INSERT INTO users (username, service_level) VALUES ('alice', 'premium'), ('bob', 'free')")
	require.NoError(t, err)

	return pg
}

func TestSessionRepo(t *testing.T) {
	pg := newTestPostgres(t)
	ctx := context.Background()

	users := NewUserRepo(pg)
	sessions := NewSessionRepo(pg)

	user, err := users.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, entity.Premium, user.ServiceLevel)

	_, err = users.GetByUsername(ctx, "mallory")
	require.ErrorIs(t, err, errs.ErrRecordNotFound)

	s := &entity.Session{ID: uuid.NewString(), Username: "alice", CreatedAt: time.Now()}
	require.NoError(t, sessions.Create(ctx, s))

	got, err := sessions.GetByID(ctx, s.ID)
	require.NoError(t, err)
	require.Equal(t, "alice", got.Username)

	level, err := sessions.GetServiceLevel(ctx, s.ID)
	require.NoError(t, err)
	require.Equal(t, entity.Premium, level)

	require.NoError(t, sessions.Delete(ctx, s.ID))
	require.ErrorIs(t, sessions.Delete(ctx, s.ID), errs.ErrRecordNotFound)

	_, err = sessions.GetByID(ctx, s.ID)
	require.ErrorIs(t, err, errs.ErrRecordNotFound)
}

func TestSubmissionRepoLifecycle(t *testing.T) {
	pg := newTestPostgres(t)
	ctx := context.Background()

	submissions := NewSubmissionRepo(pg)

	created, err := submissions.Create(ctx, "session-1")
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	require.Equal(t, entity.InProgress, created.State)

	_, err = repo.InTransaction(ctx, pg, func(ctx context.Context) (struct{}, error) {
		s, err := submissions.GetForUpdate(ctx, created.ID)
		if err != nil {
			return struct{}{}, err
		}

		text := "你好"
		s.State = entity.Detected
		s.Text = &text

		return struct{}{}, submissions.Update(ctx, s)
	})
	require.NoError(t, err)

	got, err := submissions.GetByID(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, entity.Detected, got.State)
	require.Equal(t, "你好", *got.Text)
	require.Nil(t, got.TextTranslated)

	_, err = submissions.GetByID(ctx, "missing")
	require.ErrorIs(t, err, errs.ErrRecordNotFound)
}

func TestDeleteBatchDrainsPages(t *testing.T) {
	pg := newTestPostgres(t)
	ctx := context.Background()

	submissions := NewSubmissionRepo(pg)
	for i := 0; i < 30; i++ {
		_, err := submissions.Create(ctx, "session-1")
		require.NoError(t, err)
	}

	n, err := submissions.DeleteBatch(ctx, 25)
	require.NoError(t, err)
	require.Equal(t, 25, n)

	n, err = submissions.DeleteBatch(ctx, 25)
	require.NoError(t, err)
	require.Equal(t, 5, n)
}
