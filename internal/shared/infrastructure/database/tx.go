package database

import (
	"context"
	"errors"
)

type txKey struct{}

// TxInfo holds the transaction in context and whether the current unit of
// work opened it.
type TxInfo struct {
	Tx    Transaction
	Owned bool
}

// WithTx stores transaction info in the context.
func WithTx(ctx context.Context, tx Transaction, owned bool) context.Context {
	return context.WithValue(ctx, txKey{}, TxInfo{Tx: tx, Owned: owned})
}

// TxInfoFromContext extracts transaction info from the context.
func TxInfoFromContext(ctx context.Context) (TxInfo, bool) {
	info, ok := ctx.Value(txKey{}).(TxInfo)
	if !ok || info.Tx == nil {
		return TxInfo{}, false
	}
	return info, true
}

// ExecutorFromContext returns the active transaction, falling back to the
// connection so repositories work inside and outside a unit of work.
func ExecutorFromContext(ctx context.Context, conn Connection) Executor {
	if info, ok := TxInfoFromContext(ctx); ok {
		return info.Tx
	}
	return conn
}

// UnitOfWork implements application.UnitOfWork on top of a Connection.
// Nested Begin calls join the outer transaction.
type UnitOfWork struct {
	conn Connection
}

// NewUnitOfWork creates a UnitOfWork for conn.
func NewUnitOfWork(conn Connection) *UnitOfWork {
	return &UnitOfWork{conn: conn}
}

// Begin starts a transaction, or joins the one already in ctx.
func (u *UnitOfWork) Begin(ctx context.Context) (context.Context, error) {
	if info, ok := TxInfoFromContext(ctx); ok {
		return WithTx(ctx, info.Tx, false), nil
	}

	tx, err := u.conn.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	return WithTx(ctx, tx, true), nil
}

// Commit commits the transaction if this unit owns it.
func (u *UnitOfWork) Commit(ctx context.Context) error {
	info, ok := TxInfoFromContext(ctx)
	if !ok {
		return errors.New("no transaction in context")
	}
	if !info.Owned {
		return nil
	}
	return info.Tx.Commit(ctx)
}

// Rollback rolls back the transaction if this unit owns it.
func (u *UnitOfWork) Rollback(ctx context.Context) error {
	info, ok := TxInfoFromContext(ctx)
	if !ok {
		return errors.New("no transaction in context")
	}
	if !info.Owned {
		return nil
	}
	return info.Tx.Rollback(ctx)
}
