package application

import "context"

// UnitOfWork scopes a set of repository writes to one transaction.
type UnitOfWork interface {
	Begin(ctx context.Context) (context.Context, error)
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// UnitOfWorkFunc runs inside a transaction context.
type UnitOfWorkFunc func(ctx context.Context) error

// WithUnitOfWork begins a transaction, runs fn and commits.
// Any error from fn rolls the transaction back and is returned unchanged.
func WithUnitOfWork(ctx context.Context, uow UnitOfWork, fn UnitOfWorkFunc) error {
	txCtx, err := uow.Begin(ctx)
	if err != nil {
		return err
	}

	if err := fn(txCtx); err != nil {
		_ = uow.Rollback(txCtx)
		return err
	}

	return uow.Commit(txCtx)
}

// WithUnitOfWorkResult is WithUnitOfWork for handlers that produce a value.
// The zero value is returned when the transaction does not commit.
func WithUnitOfWorkResult[T any](ctx context.Context, uow UnitOfWork, fn func(ctx context.Context) (T, error)) (T, error) {
	var result T
	err := WithUnitOfWork(ctx, uow, func(txCtx context.Context) error {
		out, err := fn(txCtx)
		if err != nil {
			return err
		}
		result = out
		return nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return result, nil
}
