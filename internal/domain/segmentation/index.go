// Package segmentation evaluates customer-group criteria against point-in-time
// snapshots of the billing collections. Everything here is pure: no I/O, no
// shared state, safe to call from several goroutines at once.
package segmentation

import (
	"time"

	"github.com/ajg707/laurx-portal/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// Snapshot groups the four collections one evaluation runs against.
type Snapshot struct {
	Customers     []*entity.Customer
	Subscriptions []*entity.Subscription
	Invoices      []*entity.Invoice
	Charges       []*entity.Charge
}

// Facts are the per-customer values derived from the joined records.
type Facts struct {
	CustomerID            string
	TotalSpent            decimal.Decimal // major units
	OrderCount            int
	SubscriptionCount     int
	HasActiveSubscription bool
	Status                entity.CustomerStatus
	CreatedAt             time.Time
	LastOrderAt           time.Time // zero when the customer has no invoices or charges
}

// Index joins subscriptions, invoices and charges to their customer id.
// Records without a customer id are dropped during construction.
type Index struct {
	subscriptions map[string][]*entity.Subscription
	invoices      map[string][]*entity.Invoice
	charges       map[string][]*entity.Charge
}

// NewIndex builds the join maps in one pass per collection.
func NewIndex(subs []*entity.Subscription, invoices []*entity.Invoice, charges []*entity.Charge) *Index {
	ix := &Index{
		subscriptions: make(map[string][]*entity.Subscription, len(subs)),
		invoices:      make(map[string][]*entity.Invoice, len(invoices)),
		charges:       make(map[string][]*entity.Charge, len(charges)),
	}
	for _, s := range subs {
		if s == nil || s.CustomerID == "" {
			continue
		}
		ix.subscriptions[s.CustomerID] = append(ix.subscriptions[s.CustomerID], s)
	}
	for _, inv := range invoices {
		if inv == nil || inv.CustomerID == "" {
			continue
		}
		ix.invoices[inv.CustomerID] = append(ix.invoices[inv.CustomerID], inv)
	}
	for _, ch := range charges {
		if ch == nil || ch.CustomerID == "" {
			continue
		}
		ix.charges[ch.CustomerID] = append(ix.charges[ch.CustomerID], ch)
	}
	return ix
}

// Facts derives the customer's facts from the indexed records.
// A customer with no related records gets zero aggregates and status churned.
func (ix *Index) Facts(c *entity.Customer) Facts {
	f := Facts{
		CustomerID: c.ID,
		CreatedAt:  c.CreatedAt,
	}

	var spentCents int64
	invoices := ix.invoices[c.ID]
	for _, inv := range invoices {
		if inv.Status == entity.InvoiceStatusPaid {
			spentCents += inv.AmountPaid
		}
		if inv.CreatedAt.After(f.LastOrderAt) {
			f.LastOrderAt = inv.CreatedAt
		}
	}
	charges := ix.charges[c.ID]
	for _, ch := range charges {
		if ch.Status == entity.ChargeStatusSucceeded {
			spentCents += ch.Amount
		}
		if ch.CreatedAt.After(f.LastOrderAt) {
			f.LastOrderAt = ch.CreatedAt
		}
	}
	f.TotalSpent = decimal.New(spentCents, -2)
	f.OrderCount = len(invoices) + len(charges)

	subs := ix.subscriptions[c.ID]
	f.SubscriptionCount = len(subs)
	for _, s := range subs {
		if s.Status.IsActiveLike() {
			f.HasActiveSubscription = true
			break
		}
	}

	switch {
	case f.HasActiveSubscription:
		f.Status = entity.CustomerStatusActive
	case f.SubscriptionCount > 0:
		f.Status = entity.CustomerStatusInactive
	default:
		f.Status = entity.CustomerStatusChurned
	}
	return f
}
