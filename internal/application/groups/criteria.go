package groups

import (
	"fmt"
	"strings"

	"github.com/ajg707/laurx-portal/internal/application/dto"
	"github.com/ajg707/laurx-portal/internal/domain"
	"github.com/ajg707/laurx-portal/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// Spend bounds are stored as NUMERIC(14,2).
var maxSpendBound = decimal.New(1, 12)

func validSpendBound(d *decimal.Decimal) bool {
	return d == nil || (d.Equal(d.Round(2)) && d.LessThan(maxSpendBound))
}

// toCriteria validates the request criteria and maps it to the domain type.
// It does not reject empty criteria; callers decide whether that is allowed.
func toCriteria(in *dto.GroupCriteria) (entity.GroupCriteria, error) {
	var c entity.GroupCriteria
	if in == nil {
		return c, nil
	}
	if in.MinTotalSpent != nil && in.MinTotalSpent.IsNegative() {
		return c, fmt.Errorf("%w: min_total_spent must not be negative", domain.ErrInvalidInput)
	}
	if in.MaxTotalSpent != nil && in.MaxTotalSpent.IsNegative() {
		return c, fmt.Errorf("%w: max_total_spent must not be negative", domain.ErrInvalidInput)
	}
	if !validSpendBound(in.MinTotalSpent) || !validSpendBound(in.MaxTotalSpent) {
		return c, fmt.Errorf("%w: spend bounds take at most two decimal places and must be below 1e12", domain.ErrInvalidInput)
	}
	if in.MinTotalSpent != nil && in.MaxTotalSpent != nil && in.MinTotalSpent.GreaterThan(*in.MaxTotalSpent) {
		return c, fmt.Errorf("%w: min_total_spent greater than max_total_spent", domain.ErrInvalidInput)
	}
	if (in.MinOrders != nil && *in.MinOrders < 0) || (in.MaxOrders != nil && *in.MaxOrders < 0) {
		return c, fmt.Errorf("%w: order bounds must not be negative", domain.ErrInvalidInput)
	}
	if in.MinOrders != nil && in.MaxOrders != nil && *in.MinOrders > *in.MaxOrders {
		return c, fmt.Errorf("%w: min_orders greater than max_orders", domain.ErrInvalidInput)
	}
	if in.CreatedAfter != nil && in.CreatedBefore != nil && in.CreatedAfter.After(*in.CreatedBefore) {
		return c, fmt.Errorf("%w: created_after is after created_before", domain.ErrInvalidInput)
	}
	if in.LastOrderAfter != nil && in.LastOrderBefore != nil && in.LastOrderAfter.After(*in.LastOrderBefore) {
		return c, fmt.Errorf("%w: last_order_after is after last_order_before", domain.ErrInvalidInput)
	}

	for _, s := range in.Status {
		st, ok := entity.ParseCustomerStatus(strings.ToLower(strings.TrimSpace(s)))
		if !ok {
			return c, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidInput, s)
		}
		c.Status = append(c.Status, st)
	}

	c.MinTotalSpent = in.MinTotalSpent
	c.MaxTotalSpent = in.MaxTotalSpent
	c.HasActiveSubscription = in.HasActiveSubscription
	c.HasAnySubscription = in.HasAnySubscription
	c.CreatedAfter = in.CreatedAfter
	c.CreatedBefore = in.CreatedBefore
	c.LastOrderAfter = in.LastOrderAfter
	c.LastOrderBefore = in.LastOrderBefore
	c.MinOrders = in.MinOrders
	c.MaxOrders = in.MaxOrders
	return c, nil
}

func toCriteriaDTO(c *entity.GroupCriteria) *dto.GroupCriteria {
	if c == nil {
		return nil
	}
	out := &dto.GroupCriteria{
		MinTotalSpent:         c.MinTotalSpent,
		MaxTotalSpent:         c.MaxTotalSpent,
		HasActiveSubscription: c.HasActiveSubscription,
		HasAnySubscription:    c.HasAnySubscription,
		CreatedAfter:          c.CreatedAfter,
		CreatedBefore:         c.CreatedBefore,
		LastOrderAfter:        c.LastOrderAfter,
		LastOrderBefore:       c.LastOrderBefore,
		MinOrders:             c.MinOrders,
		MaxOrders:             c.MaxOrders,
	}
	for _, s := range c.Status {
		out.Status = append(out.Status, string(s))
	}
	return out
}

// normalizeIDs trims, drops empties and deduplicates while keeping input order.
func normalizeIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
