package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// GroupType distinguishes stored membership from computed membership.
type GroupType string

const (
	GroupTypeStatic  GroupType = "static"  // explicit, manually maintained customer ids
	GroupTypeDynamic GroupType = "dynamic" // membership computed from Criteria on demand
)

// ParseGroupType validates a group type.
func ParseGroupType(s string) (GroupType, bool) {
	switch GroupType(s) {
	case GroupTypeStatic, GroupTypeDynamic:
		return GroupType(s), true
	default:
		return "", false
	}
}

// GroupCriteria is the predicate of a dynamic group. Every field is optional:
// a nil field (or an empty Status slice) imposes no constraint.
// Spend bounds are in major currency units.
type GroupCriteria struct {
	MinTotalSpent         *decimal.Decimal
	MaxTotalSpent         *decimal.Decimal
	Status                []CustomerStatus
	HasActiveSubscription *bool
	HasAnySubscription    *bool
	CreatedAfter          *time.Time
	CreatedBefore         *time.Time
	LastOrderAfter        *time.Time
	LastOrderBefore       *time.Time
	MinOrders             *int
	MaxOrders             *int
}

// IsEmpty reports whether no field is set.
func (c GroupCriteria) IsEmpty() bool {
	return c.MinTotalSpent == nil &&
		c.MaxTotalSpent == nil &&
		len(c.Status) == 0 &&
		c.HasActiveSubscription == nil &&
		c.HasAnySubscription == nil &&
		c.CreatedAfter == nil &&
		c.CreatedBefore == nil &&
		c.LastOrderAfter == nil &&
		c.LastOrderBefore == nil &&
		c.MinOrders == nil &&
		c.MaxOrders == nil
}

// CustomerGroup is a named set of customers used for targeting.
// Static groups carry CustomerIDs; dynamic groups carry Criteria.
type CustomerGroup struct {
	ID              string
	Name            string
	Description     string
	Type            GroupType
	CustomerIDs     []string
	Criteria        *GroupCriteria
	MemberCount     int
	LastEvaluatedAt *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// IsDynamic reports whether membership is computed.
func (g *CustomerGroup) IsDynamic() bool {
	return g.Type == GroupTypeDynamic
}
