package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// GroupCriteria predicate of a dynamic group. Omitted fields impose no constraint.
// Spend bounds are in major currency units.
type GroupCriteria struct {
	MinTotalSpent         *decimal.Decimal `json:"min_total_spent,omitempty"`
	MaxTotalSpent         *decimal.Decimal `json:"max_total_spent,omitempty"`
	Status                []string         `json:"status,omitempty"` // active | inactive | churned
	HasActiveSubscription *bool            `json:"has_active_subscription,omitempty"`
	HasAnySubscription    *bool            `json:"has_any_subscription,omitempty"`
	CreatedAfter          *time.Time       `json:"created_after,omitempty"`
	CreatedBefore         *time.Time       `json:"created_before,omitempty"`
	LastOrderAfter        *time.Time       `json:"last_order_after,omitempty"`
	LastOrderBefore       *time.Time       `json:"last_order_before,omitempty"`
	MinOrders             *int             `json:"min_orders,omitempty"`
	MaxOrders             *int             `json:"max_orders,omitempty"`
}

// CreateGroupRequest body for POST /api/admin/groups.
type CreateGroupRequest struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Type        string         `json:"type"`                   // static | dynamic
	CustomerIDs []string       `json:"customer_ids,omitempty"` // static only
	Criteria    *GroupCriteria `json:"criteria,omitempty"`     // dynamic only
}

// UpdateGroupRequest body for PUT /api/admin/groups/:id. Nil fields are left untouched.
type UpdateGroupRequest struct {
	Name        *string        `json:"name,omitempty"`
	Description *string        `json:"description,omitempty"`
	CustomerIDs []string       `json:"customer_ids,omitempty"` // replaces the member set (static only)
	Criteria    *GroupCriteria `json:"criteria,omitempty"`     // replaces the predicate (dynamic only)
}

// GroupMembersRequest body for POST/DELETE /api/admin/groups/:id/customers.
type GroupMembersRequest struct {
	CustomerIDs []string `json:"customer_ids"`
}

// GroupResponse group in responses. CustomerIDs only for static groups fetched by id.
type GroupResponse struct {
	ID              string         `json:"id"`
	Name            string         `json:"name"`
	Description     string         `json:"description"`
	Type            string         `json:"type"`
	CustomerIDs     []string       `json:"customer_ids,omitempty"`
	Criteria        *GroupCriteria `json:"criteria,omitempty"`
	MemberCount     int            `json:"member_count"`
	LastEvaluatedAt *time.Time     `json:"last_evaluated_at,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// GroupListResponse paginated group list.
type GroupListResponse struct {
	Items []GroupResponse `json:"items"`
	Page  PageResponse    `json:"page"`
}

// GroupCustomersResponse resolved membership of a group.
type GroupCustomersResponse struct {
	GroupID     string   `json:"group_id"`
	Type        string   `json:"type"`
	CustomerIDs []string `json:"customer_ids"`
	Count       int      `json:"count"`
}

// GroupPreviewResponse result of evaluating criteria without saving a group.
type GroupPreviewResponse struct {
	CustomerIDs []string  `json:"customer_ids"`
	Count       int       `json:"count"`
	Population  int       `json:"population"` // customers in the snapshot
	EvaluatedAt time.Time `json:"evaluated_at"`
}

// CustomerFactsResponse derived billing facts of one customer (admin customer detail).
type CustomerFactsResponse struct {
	CustomerID            string          `json:"customer_id"`
	Email                 string          `json:"email,omitempty"`
	TotalSpent            decimal.Decimal `json:"total_spent"`
	OrderCount            int             `json:"order_count"`
	SubscriptionCount     int             `json:"subscription_count"`
	HasActiveSubscription bool            `json:"has_active_subscription"`
	Status                string          `json:"status"`
	CreatedAt             time.Time       `json:"created_at"`
	LastOrderAt           *time.Time      `json:"last_order_at,omitempty"`
}
