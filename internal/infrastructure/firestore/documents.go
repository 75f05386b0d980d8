package firestore

import (
	"time"

	"github.com/ajg707/laurx-portal/internal/domain/entity"
)

// Documents as written by the provider sync. Timestamps are unix seconds and
// amounts are integer cents, the same shape the provider API returns.

type customerDoc struct {
	ID      string `firestore:"id"`
	Email   string `firestore:"email"`
	Name    string `firestore:"name"`
	Created int64  `firestore:"created"`
}

type subscriptionDoc struct {
	ID       string `firestore:"id"`
	Customer string `firestore:"customer"`
	Status   string `firestore:"status"`
	Created  int64  `firestore:"created"`
}

type invoiceDoc struct {
	ID         string `firestore:"id"`
	Customer   string `firestore:"customer"`
	Status     string `firestore:"status"`
	AmountPaid int64  `firestore:"amount_paid"`
	Created    int64  `firestore:"created"`
}

type chargeDoc struct {
	ID       string `firestore:"id"`
	Customer string `firestore:"customer"`
	Status   string `firestore:"status"`
	Amount   int64  `firestore:"amount"`
	Created  int64  `firestore:"created"`
}

// docID prefers the id field and falls back to the document key.
func docID(field, key string) string {
	if field != "" {
		return field
	}
	return key
}

func unix(sec int64) time.Time {
	if sec <= 0 {
		return time.Time{}
	}
	return time.Unix(sec, 0).UTC()
}

func (d customerDoc) toEntity(key string) *entity.Customer {
	return &entity.Customer{
		ID:        docID(d.ID, key),
		Email:     d.Email,
		Name:      d.Name,
		CreatedAt: unix(d.Created),
	}
}

func (d subscriptionDoc) toEntity(key string) *entity.Subscription {
	return &entity.Subscription{
		ID:         docID(d.ID, key),
		CustomerID: d.Customer,
		Status:     entity.ParseSubscriptionStatus(d.Status),
		CreatedAt:  unix(d.Created),
	}
}

func (d invoiceDoc) toEntity(key string) *entity.Invoice {
	return &entity.Invoice{
		ID:         docID(d.ID, key),
		CustomerID: d.Customer,
		Status:     entity.ParseInvoiceStatus(d.Status),
		AmountPaid: d.AmountPaid,
		CreatedAt:  unix(d.Created),
	}
}

func (d chargeDoc) toEntity(key string) *entity.Charge {
	return &entity.Charge{
		ID:         docID(d.ID, key),
		CustomerID: d.Customer,
		Status:     entity.ParseChargeStatus(d.Status),
		Amount:     d.Amount,
		CreatedAt:  unix(d.Created),
	}
}
