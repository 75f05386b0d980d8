package entity

import "time"

// Customer is a billing customer mirrored from the payment provider.
// ID is the provider-assigned id (e.g. "cus_...").
type Customer struct {
	ID        string
	Email     string
	Name      string
	CreatedAt time.Time
}

// CustomerStatus is the lifecycle label derived from a customer's subscriptions.
type CustomerStatus string

const (
	CustomerStatusActive   CustomerStatus = "active"   // at least one active-like subscription
	CustomerStatusInactive CustomerStatus = "inactive" // has subscriptions, none active-like
	CustomerStatusChurned  CustomerStatus = "churned"  // no subscription records at all
)

// ParseCustomerStatus validates a customer status label.
func ParseCustomerStatus(s string) (CustomerStatus, bool) {
	switch CustomerStatus(s) {
	case CustomerStatusActive, CustomerStatusInactive, CustomerStatusChurned:
		return CustomerStatus(s), true
	default:
		return "", false
	}
}
