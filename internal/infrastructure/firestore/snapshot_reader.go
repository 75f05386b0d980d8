package firestore

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"github.com/ajg707/laurx-portal/internal/domain/entity"
	"github.com/ajg707/laurx-portal/internal/domain/repository"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var _ repository.SnapshotReader = (*SnapshotReader)(nil)

// Collections names the four mirrored collections.
type Collections struct {
	Customers     string
	Subscriptions string
	Invoices      string
	Charges       string
}

// DefaultCollections builds the collection names from the sync prefix.
func DefaultCollections(prefix string) Collections {
	return Collections{
		Customers:     prefix + "customers",
		Subscriptions: prefix + "subscriptions",
		Invoices:      prefix + "invoices",
		Charges:       prefix + "charges",
	}
}

// SnapshotReader implements repository.SnapshotReader over Firestore.
type SnapshotReader struct {
	client *firestore.Client
	cols   Collections
}

// NewSnapshotReader builds the reader.
func NewSnapshotReader(client *firestore.Client, cols Collections) *SnapshotReader {
	return &SnapshotReader{client: client, cols: cols}
}

func (r *SnapshotReader) Customers(ctx context.Context) ([]*entity.Customer, error) {
	return readAll(ctx, r.client.Collection(r.cols.Customers).Query, customerDoc.toEntity)
}

// Customer looks the customer up by document key first, then by its id field,
// the same two sources Customers uses. Returns nil, nil when neither matches.
func (r *SnapshotReader) Customer(ctx context.Context, id string) (*entity.Customer, error) {
	return findCustomer(ctx, id, r.customerByKey, r.customerByField)
}

type customerLookup func(ctx context.Context, id string) (*entity.Customer, error)

func findCustomer(ctx context.Context, id string, byKey, byField customerLookup) (*entity.Customer, error) {
	c, err := byKey(ctx, id)
	if err != nil {
		return nil, err
	}
	// A document stored under another key can still carry this id in its field.
	if c != nil && c.ID == id {
		return c, nil
	}
	return byField(ctx, id)
}

func (r *SnapshotReader) customerByKey(ctx context.Context, id string) (*entity.Customer, error) {
	snap, err := r.client.Collection(r.cols.Customers).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("get %s/%s: %w", r.cols.Customers, id, err)
	}
	var d customerDoc
	if err := snap.DataTo(&d); err != nil {
		return nil, fmt.Errorf("decode %s/%s: %w", r.cols.Customers, id, err)
	}
	return d.toEntity(snap.Ref.ID), nil
}

func (r *SnapshotReader) customerByField(ctx context.Context, id string) (*entity.Customer, error) {
	q := r.client.Collection(r.cols.Customers).Where("id", "==", id).Limit(1)
	found, err := readAll(ctx, q, customerDoc.toEntity)
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, nil
	}
	return found[0], nil
}

func (r *SnapshotReader) Subscriptions(ctx context.Context, customerID string) ([]*entity.Subscription, error) {
	return readAll(ctx, r.query(r.cols.Subscriptions, customerID), subscriptionDoc.toEntity)
}

func (r *SnapshotReader) Invoices(ctx context.Context, customerID string) ([]*entity.Invoice, error) {
	return readAll(ctx, r.query(r.cols.Invoices, customerID), invoiceDoc.toEntity)
}

func (r *SnapshotReader) Charges(ctx context.Context, customerID string) ([]*entity.Charge, error) {
	return readAll(ctx, r.query(r.cols.Charges, customerID), chargeDoc.toEntity)
}

func (r *SnapshotReader) query(collection, customerID string) firestore.Query {
	col := r.client.Collection(collection)
	if customerID == "" {
		return col.Query
	}
	return col.Where("customer", "==", customerID)
}

// readAll drains q and converts every document. A document that fails to
// decode aborts the read: a partial snapshot would misclassify customers.
func readAll[D any, E any](ctx context.Context, q firestore.Query, conv func(D, string) *E) ([]*E, error) {
	iter := q.Documents(ctx)
	defer iter.Stop()

	var out []*E
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read documents: %w", err)
		}
		var d D
		if err := snap.DataTo(&d); err != nil {
			return nil, fmt.Errorf("decode %s: %w", snap.Ref.Path, err)
		}
		out = append(out, conv(d, snap.Ref.ID))
	}
	return out, nil
}
