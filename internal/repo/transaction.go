package repo

import "context"

// InTransaction runs f inside one transaction and hands back its result.
// Any error returned by f rolls the transaction back and is returned as is,
// so callers can match domain errors with errors.Is.
func InTransaction[T any](ctx context.Context, tr Transactor, f func(ctx context.Context) (T, error)) (T, error) {
	var res T

	err := tr.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error

		res, err = f(ctx)

		return err
	})
	if err != nil {
		var zero T

		return zero, err
	}

	return res, nil
}

// DeleteInBatches calls deleteBatch in its own transaction until a batch
// removes fewer than size rows. It returns the number of rows removed.
func DeleteInBatches(ctx context.Context, tr Transactor, size int, deleteBatch func(ctx context.Context, limit int) (int, error)) (int, error) {
	total := 0

	for {
		n, err := InTransaction(ctx, tr, func(ctx context.Context) (int, error) {
			return deleteBatch(ctx, size)
		})
		if err != nil {
			return total, err
		}

		total += n

		if n < size {
			return total, nil
		}
	}
}
