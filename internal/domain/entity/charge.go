package entity

import "time"

// ChargeStatus is the payment state of a one-off charge.
type ChargeStatus string

const (
	ChargeStatusSucceeded ChargeStatus = "succeeded"
	ChargeStatusFailed    ChargeStatus = "failed"
	ChargeStatusPending   ChargeStatus = "pending"
	ChargeStatusOther     ChargeStatus = "other"
)

// ParseChargeStatus normalizes a provider value; unknown values map to "other".
func ParseChargeStatus(s string) ChargeStatus {
	switch st := ChargeStatus(s); st {
	case ChargeStatusSucceeded, ChargeStatusFailed, ChargeStatusPending:
		return st
	default:
		return ChargeStatusOther
	}
}

// Charge is a provider charge. Amount is in minor currency units (cents).
type Charge struct {
	ID         string
	CustomerID string
	Status     ChargeStatus
	Amount     int64
	CreatedAt  time.Time
}
