package entity

import "time"

// SubscriptionStatus mirrors the provider's subscription states we care about.
type SubscriptionStatus string

const (
	SubscriptionStatusActive   SubscriptionStatus = "active"
	SubscriptionStatusTrialing SubscriptionStatus = "trialing"
	SubscriptionStatusPastDue  SubscriptionStatus = "past_due"
	SubscriptionStatusCanceled SubscriptionStatus = "canceled"
	SubscriptionStatusUnpaid   SubscriptionStatus = "unpaid"
	SubscriptionStatusOther    SubscriptionStatus = "other"
)

// ParseSubscriptionStatus normalizes a provider value; unknown values map to "other".
func ParseSubscriptionStatus(s string) SubscriptionStatus {
	switch st := SubscriptionStatus(s); st {
	case SubscriptionStatusActive, SubscriptionStatusTrialing, SubscriptionStatusPastDue,
		SubscriptionStatusCanceled, SubscriptionStatusUnpaid:
		return st
	default:
		return SubscriptionStatusOther
	}
}

// IsActiveLike reports whether the customer still counts as subscribed.
// Trialing and past_due customers have not churned yet.
func (s SubscriptionStatus) IsActiveLike() bool {
	return s == SubscriptionStatusActive || s == SubscriptionStatusTrialing || s == SubscriptionStatusPastDue
}

// Subscription is a provider subscription. CustomerID may be empty on malformed records.
type Subscription struct {
	ID         string
	CustomerID string
	Status     SubscriptionStatus
	CreatedAt  time.Time
}
