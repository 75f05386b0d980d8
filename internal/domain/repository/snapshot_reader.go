package repository

import (
	"context"

	"github.com/ajg707/laurx-portal/internal/domain/entity"
)

// SnapshotReader reads the billing collections mirrored into the cache store.
// An empty customerID means "the whole collection".
type SnapshotReader interface {
	Customers(ctx context.Context) ([]*entity.Customer, error)
	// Customer returns nil, nil when the customer is not in the cache.
	Customer(ctx context.Context, id string) (*entity.Customer, error)
	Subscriptions(ctx context.Context, customerID string) ([]*entity.Subscription, error)
	Invoices(ctx context.Context, customerID string) ([]*entity.Invoice, error)
	Charges(ctx context.Context, customerID string) ([]*entity.Charge, error)
}
