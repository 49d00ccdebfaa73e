package repositories

import "context"

// TxFn is a function executed within a transaction context.
type TxFn func(ctx context.Context) error

// TransactionManager runs a function inside a database transaction.
// Store methods called with the resulting context join the transaction.
type TransactionManager interface {
	ExecTx(ctx context.Context, fn TxFn) error
}
