package repo_test

import (
	"context"
	"errors"
	"testing"

	"github.com/RXLU5x/translate-image-text-cloud/internal/entity"
	"github.com/RXLU5x/translate-image-text-cloud/internal/repo"
	"github.com/RXLU5x/translate-image-text-cloud/internal/repo/repotest"
	"github.com/stretchr/testify/require"
)

func TestInTransactionRollsBack(t *testing.T) {
	ctx := context.Background()
	store := repotest.New()
	boom := errors.New("boom")

	_, err := repo.InTransaction(ctx, store, func(ctx context.Context) (*entity.Submission, error) {
		if _, err := store.Submissions.Create(ctx, "s1"); err != nil {
			return nil, err
		}
		return nil, boom
	})
	require.ErrorIs(t, err, boom)
	require.Zero(t, store.SubmissionCount())

	sub, err := repo.InTransaction(ctx, store, func(ctx context.Context) (*entity.Submission, error) {
		return store.Submissions.Create(ctx, "s1")
	})
	require.NoError(t, err)
	require.Equal(t, entity.InProgress, sub.State)
	require.Equal(t, 1, store.SubmissionCount())
}

func TestDeleteInBatchesDrainsPages(t *testing.T) {
	ctx := context.Background()
	store := repotest.New()

	for i := 0; i < 60; i++ {
		_, err := store.Submissions.Create(ctx, "s1")
		require.NoError(t, err)
	}

	var batches []int
	total, err := repo.DeleteInBatches(ctx, store, 25, func(ctx context.Context, limit int) (int, error) {
		n, err := store.Submissions.DeleteBatch(ctx, limit)
		batches = append(batches, n)
		return n, err
	})
	require.NoError(t, err)
	require.Equal(t, 60, total)
	require.Equal(t, []int{25, 25, 10}, batches)
	require.Zero(t, store.SubmissionCount())
}

func TestDeleteInBatchesStopsOnError(t *testing.T) {
	boom := errors.New("boom")
	calls := 0

	total, err := repo.DeleteInBatches(context.Background(), repotest.New(), 25, func(context.Context, int) (int, error) {
		calls++
		if calls == 2 {
			return 0, boom
		}
		return 25, nil
	})
	require.ErrorIs(t, err, boom)
	require.Equal(t, 25, total)
}
