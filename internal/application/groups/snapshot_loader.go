package groups

import (
	"context"
	"fmt"
	"time"

	"github.com/ajg707/laurx-portal/internal/domain/entity"
	"github.com/ajg707/laurx-portal/internal/domain/repository"
	"github.com/ajg707/laurx-portal/internal/domain/segmentation"
)

const defaultFetchTimeout = 30 * time.Second

// SnapshotLoader reads the four cached collections an evaluation needs.
//
// The reads are independent, so they run in parallel; the loader waits for all
// of them and fails if any one fails. A failed read is never replaced by an
// empty collection: that would silently zero every customer's aggregates.
type SnapshotLoader struct {
	reader  repository.SnapshotReader
	timeout time.Duration
}

// NewSnapshotLoader builds the loader. timeout <= 0 uses 30s.
func NewSnapshotLoader(reader repository.SnapshotReader, timeout time.Duration) *SnapshotLoader {
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}
	return &SnapshotLoader{reader: reader, timeout: timeout}
}

type result[T any] struct {
	items []T
	err   error
}

func fetch[T any](ctx context.Context, fn func(context.Context) ([]T, error)) <-chan result[T] {
	ch := make(chan result[T], 1)
	go func() {
		items, err := fn(ctx)
		ch <- result[T]{items, err}
	}()
	return ch
}

// Load reads the full population plus every subscription, invoice and charge.
func (l *SnapshotLoader) Load(ctx context.Context) (segmentation.Snapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	customersCh := fetch(ctx, l.reader.Customers)
	subs, invoices, charges, relErr := l.related(ctx, "")
	customers := <-customersCh

	if customers.err != nil {
		return segmentation.Snapshot{}, fmt.Errorf("snapshot: customers: %w", customers.err)
	}
	if relErr != nil {
		return segmentation.Snapshot{}, relErr
	}
	return segmentation.Snapshot{
		Customers:     customers.items,
		Subscriptions: subs,
		Invoices:      invoices,
		Charges:       charges,
	}, nil
}

// LoadCustomer reads one customer and only that customer's records.
// The customer is nil (and err nil) when it is not in the cache.
func (l *SnapshotLoader) LoadCustomer(ctx context.Context, customerID string) (*entity.Customer, segmentation.Snapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	type customerResult struct {
		customer *entity.Customer
		err      error
	}
	customerCh := make(chan customerResult, 1)
	go func() {
		c, err := l.reader.Customer(ctx, customerID)
		customerCh <- customerResult{c, err}
	}()
	subs, invoices, charges, relErr := l.related(ctx, customerID)
	cr := <-customerCh

	if cr.err != nil {
		return nil, segmentation.Snapshot{}, fmt.Errorf("snapshot: customer %s: %w", customerID, cr.err)
	}
	if relErr != nil {
		return nil, segmentation.Snapshot{}, relErr
	}
	if cr.customer == nil {
		return nil, segmentation.Snapshot{}, nil
	}
	return cr.customer, segmentation.Snapshot{
		Customers:     []*entity.Customer{cr.customer},
		Subscriptions: subs,
		Invoices:      invoices,
		Charges:       charges,
	}, nil
}

// related fans out the three join-collection reads and waits for all of them.
func (l *SnapshotLoader) related(ctx context.Context, customerID string) (
	[]*entity.Subscription, []*entity.Invoice, []*entity.Charge, error,
) {
	subsCh := fetch(ctx, func(ctx context.Context) ([]*entity.Subscription, error) {
		return l.reader.Subscriptions(ctx, customerID)
	})
	invoicesCh := fetch(ctx, func(ctx context.Context) ([]*entity.Invoice, error) {
		return l.reader.Invoices(ctx, customerID)
	})
	chargesCh := fetch(ctx, func(ctx context.Context) ([]*entity.Charge, error) {
		return l.reader.Charges(ctx, customerID)
	})

	subs := <-subsCh
	invoices := <-invoicesCh
	charges := <-chargesCh

	if subs.err != nil {
		return nil, nil, nil, fmt.Errorf("snapshot: subscriptions: %w", subs.err)
	}
	if invoices.err != nil {
		return nil, nil, nil, fmt.Errorf("snapshot: invoices: %w", invoices.err)
	}
	if charges.err != nil {
		return nil, nil, nil, fmt.Errorf("snapshot: charges: %w", charges.err)
	}
	return subs.items, invoices.items, charges.items, nil
}
