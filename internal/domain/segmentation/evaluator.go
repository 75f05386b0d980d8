package segmentation

import (
	"sort"

	"github.com/ajg707/laurx-portal/internal/domain/entity"
)

// Evaluate returns the ids of the customers in s that satisfy every set field of
// criteria. Empty criteria match every customer; rejecting them is the caller's job.
// The result is sorted so repeated evaluations compare equal.
func Evaluate(s Snapshot, criteria entity.GroupCriteria) []string {
	ix := NewIndex(s.Subscriptions, s.Invoices, s.Charges)
	return ix.Filter(s.Customers, criteria)
}

// Filter tests each customer against criteria using the indexed records.
// Facts are derived lazily, one customer at a time.
func (ix *Index) Filter(customers []*entity.Customer, criteria entity.GroupCriteria) []string {
	out := make([]string, 0, len(customers))
	seen := make(map[string]struct{}, len(customers))
	for _, c := range customers {
		if c == nil || c.ID == "" {
			continue
		}
		if _, dup := seen[c.ID]; dup {
			continue
		}
		seen[c.ID] = struct{}{}
		if Matches(ix.Facts(c), criteria) {
			out = append(out, c.ID)
		}
	}
	sort.Strings(out)
	return out
}

// Matches is the conjunction of every constraint set in criteria.
//
// LastOrderAfter/LastOrderBefore compare against the latest invoice or charge;
// a customer without any order never satisfies either bound.
func Matches(f Facts, c entity.GroupCriteria) bool {
	if c.MinTotalSpent != nil && f.TotalSpent.LessThan(*c.MinTotalSpent) {
		return false
	}
	if c.MaxTotalSpent != nil && f.TotalSpent.GreaterThan(*c.MaxTotalSpent) {
		return false
	}
	if len(c.Status) > 0 && !containsStatus(c.Status, f.Status) {
		return false
	}
	if c.HasActiveSubscription != nil && f.HasActiveSubscription != *c.HasActiveSubscription {
		return false
	}
	if c.HasAnySubscription != nil && (f.SubscriptionCount > 0) != *c.HasAnySubscription {
		return false
	}
	if c.CreatedAfter != nil && f.CreatedAt.Before(*c.CreatedAfter) {
		return false
	}
	if c.CreatedBefore != nil && f.CreatedAt.After(*c.CreatedBefore) {
		return false
	}
	if c.MinOrders != nil && f.OrderCount < *c.MinOrders {
		return false
	}
	if c.MaxOrders != nil && f.OrderCount > *c.MaxOrders {
		return false
	}
	if c.LastOrderAfter != nil && (f.LastOrderAt.IsZero() || f.LastOrderAt.Before(*c.LastOrderAfter)) {
		return false
	}
	if c.LastOrderBefore != nil && (f.LastOrderAt.IsZero() || f.LastOrderAt.After(*c.LastOrderBefore)) {
		return false
	}
	return true
}

func containsStatus(set []entity.CustomerStatus, s entity.CustomerStatus) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}
