package db

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andreasstove999/ecommerce-system/shopping-cart-go/internal/cart"
	"github.com/andreasstove999/ecommerce-system/shopping-cart-go/internal/catalog"
)

var readCommitted = pgx.TxOptions{IsoLevel: pgx.ReadCommitted}

func TestInTxCommitsOnSuccess(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBeginTx(readCommitted)
	mock.ExpectQuery("SELECT count").WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectCommit()

	var counted int
	err = NewTransactor(mock).InTx(context.Background(), func(ctx context.Context, s cart.Stores) error {
		n, err := s.Products.Count(ctx)
		counted = n
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, 2, counted)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInTxBindsSequencesToTheTransaction(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	// every statement runs between begin and commit, on the one connection
	// the transaction holds
	mock.ExpectBeginTx(readCommitted)
	mock.ExpectExec("UPDATE offers").
		WithArgs(int64(10), int64(100), 1).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectQuery("INSERT INTO event_sequences").
		WithArgs("cart-7").
		WillReturnRows(pgxmock.NewRows([]string{"last_sequence"}).AddRow(int64(4)))
	mock.ExpectCommit()

	var seq int64
	err = NewTransactor(mock).InTx(context.Background(), func(ctx context.Context, s cart.Stores) error {
		if err := s.Products.DecreaseStock(ctx, 10, 100, 1); err != nil {
			return err
		}
		n, err := s.Sequences.NextSequence(ctx, "cart-7")
		seq = n
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, int64(4), seq)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInTxRollsBackOnError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBeginTx(readCommitted)
	mock.ExpectExec("UPDATE offers").
		WithArgs(int64(10), int64(100), 3).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectRollback()

	err = NewTransactor(mock).InTx(context.Background(), func(ctx context.Context, s cart.Stores) error {
		return s.Products.DecreaseStock(ctx, 10, 100, 3)
	})

	var stockErr *catalog.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInTxBeginFailure(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	beginErr := errors.New("too many connections")
	mock.ExpectBeginTx(readCommitted).WillReturnError(beginErr)

	called := false
	err = NewTransactor(mock).InTx(context.Background(), func(ctx context.Context, s cart.Stores) error {
		called = true
		return nil
	})
	require.ErrorIs(t, err, beginErr)
	assert.False(t, called)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInTxCommitFailure(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	commitErr := errors.New("serialization failure")
	mock.ExpectBeginTx(readCommitted)
	mock.ExpectCommit().WillReturnError(commitErr)

	err = NewTransactor(mock).InTx(context.Background(), func(ctx context.Context, s cart.Stores) error {
		return nil
	})
	require.ErrorIs(t, err, commitErr)
	require.NoError(t, mock.ExpectationsWereMet())
}
