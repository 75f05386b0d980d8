package entity

import "time"

// Invoice states reported by the billing provider.
const (
	InvoiceStatusPaid          InvoiceStatus = "paid"
	InvoiceStatusOpen          InvoiceStatus = "open"
	InvoiceStatusVoid          InvoiceStatus = "void"
	InvoiceStatusUncollectible InvoiceStatus = "uncollectible"
	InvoiceStatusOther         InvoiceStatus = "other"
)

// InvoiceStatus is the invoice state at the provider.
type InvoiceStatus string

// ParseInvoiceStatus normalizes a provider value; unknown values (including "draft") map to "other".
func ParseInvoiceStatus(s string) InvoiceStatus {
	switch st := InvoiceStatus(s); st {
	case InvoiceStatusPaid, InvoiceStatusOpen, InvoiceStatusVoid, InvoiceStatusUncollectible:
		return st
	default:
		return InvoiceStatusOther
	}
}

// Invoice is a provider invoice header. AmountPaid is in minor currency units (cents).
type Invoice struct {
	ID         string
	CustomerID string
	Status     InvoiceStatus
	AmountPaid int64
	CreatedAt  time.Time
}
