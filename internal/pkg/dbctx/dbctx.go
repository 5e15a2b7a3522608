package dbctx

import (
	"context"

	"gorm.io/gorm"
)

// Context bundles a request context with an optional GORM transaction.
// Repos fall back to their own *gorm.DB when Tx is nil, so services can
// pass the same Context shape inside and outside transactions.
type Context struct {
	Ctx context.Context
	Tx  *gorm.DB
}

// New returns a Context carrying no transaction.
func New(ctx context.Context) Context { return Context{Ctx: ctx} }

// WithTx returns a copy bound to tx.
func (c Context) WithTx(tx *gorm.DB) Context { return Context{Ctx: c.Ctx, Tx: tx} }
