// Package repositories declares the storage contracts services depend on.
package repositories

import "context"

// TxFn is the unit of work run by ExecTx. Repository calls made with the
// ctx it receives take part in the transaction.
type TxFn func(ctx context.Context) error

// TransactionManager runs units of work atomically. Implementations reuse a
// transaction already carried by ctx, so nested calls commit together.
type TransactionManager interface {
	ExecTx(ctx context.Context, fn TxFn) error
}
