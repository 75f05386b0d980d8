package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ajg707/laurx-portal/internal/domain"
	"github.com/ajg707/laurx-portal/internal/domain/entity"
	"github.com/ajg707/laurx-portal/internal/domain/repository"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

var _ repository.CustomerGroupRepository = (*CustomerGroupRepo)(nil)

// CustomerGroupRepo stores groups in customer_groups (criteria as nullable columns)
// and static members in customer_group_members. Usable with pool or tx.
type CustomerGroupRepo struct {
	q Querier
}

// NewCustomerGroupRepository builds the adapter. Pass pool or tx (Querier).
func NewCustomerGroupRepository(q Querier) *CustomerGroupRepo {
	return &CustomerGroupRepo{q: q}
}

const groupColumns = `
	id, name, description, type,
	min_total_spent, max_total_spent, statuses,
	has_active_subscription, has_any_subscription,
	created_after, created_before, last_order_after, last_order_before,
	min_orders, max_orders,
	member_count, last_evaluated_at, created_at, updated_at`

// Create inserts the group and, for static groups, its members.
func (r *CustomerGroupRepo) Create(ctx context.Context, g *entity.CustomerGroup) error {
	query := `
		INSERT INTO customer_groups (` + groupColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`
	args := append([]any{g.ID, g.Name, g.Description, string(g.Type)}, criteriaArgs(g.Criteria)...)
	args = append(args, g.MemberCount, g.LastEvaluatedAt, g.CreatedAt, g.UpdatedAt)
	if _, err := r.q.Exec(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert customer group: %w", err)
	}
	if g.Type == entity.GroupTypeStatic && len(g.CustomerIDs) > 0 {
		return r.AddMembers(ctx, g.ID, g.CustomerIDs)
	}
	return nil
}

// GetByID returns nil, nil when the group does not exist.
func (r *CustomerGroupRepo) GetByID(ctx context.Context, id string) (*entity.CustomerGroup, error) {
	query := `SELECT ` + groupColumns + ` FROM customer_groups WHERE id = $1`
	g, err := scanGroup(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get customer group: %w", err)
	}
	if g.Type == entity.GroupTypeStatic {
		if g.CustomerIDs, err = r.members(ctx, g.ID); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// List lists groups by name with pagination (members not loaded).
func (r *CustomerGroupRepo) List(ctx context.Context, limit, offset int) ([]*entity.CustomerGroup, error) {
	query := `SELECT ` + groupColumns + ` FROM customer_groups ORDER BY name LIMIT $1 OFFSET $2`
	return r.queryGroups(ctx, query, limit, offset)
}

// Count total number of groups.
func (r *CustomerGroupRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.q.QueryRow(ctx, `SELECT count(*) FROM customer_groups`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count customer groups: %w", err)
	}
	return n, nil
}

// ListByType lists every group of the given type (members not loaded).
func (r *CustomerGroupRepo) ListByType(ctx context.Context, groupType entity.GroupType) ([]*entity.CustomerGroup, error) {
	query := `SELECT ` + groupColumns + ` FROM customer_groups WHERE type = $1 ORDER BY name`
	return r.queryGroups(ctx, query, string(groupType))
}

// Update writes name, description and criteria. Members are changed through the member methods.
func (r *CustomerGroupRepo) Update(ctx context.Context, g *entity.CustomerGroup) error {
	query := `
		UPDATE customer_groups SET
			name = $2, description = $3,
			min_total_spent = $4, max_total_spent = $5, statuses = $6,
			has_active_subscription = $7, has_any_subscription = $8,
			created_after = $9, created_before = $10, last_order_after = $11, last_order_before = $12,
			min_orders = $13, max_orders = $14,
			updated_at = $15
		WHERE id = $1`
	args := append([]any{g.ID, g.Name, g.Description}, criteriaArgs(g.Criteria)...)
	args = append(args, g.UpdatedAt)
	tag, err := r.q.Exec(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("update customer group: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete removes the group; members go with it (ON DELETE CASCADE).
func (r *CustomerGroupRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM customer_groups WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete customer group: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// AddMembers inserts ids that are not members yet.
func (r *CustomerGroupRepo) AddMembers(ctx context.Context, groupID string, customerIDs []string) error {
	query := `
		INSERT INTO customer_group_members (group_id, customer_id, added_at)
		SELECT $1, unnest($2::text[]), now()
		ON CONFLICT (group_id, customer_id) DO NOTHING`
	if _, err := r.q.Exec(ctx, query, groupID, customerIDs); err != nil {
		return fmt.Errorf("add group members: %w", err)
	}
	return r.syncMemberCount(ctx, groupID)
}

// RemoveMembers deletes the given ids; unknown ids are ignored.
func (r *CustomerGroupRepo) RemoveMembers(ctx context.Context, groupID string, customerIDs []string) error {
	query := `DELETE FROM customer_group_members WHERE group_id = $1 AND customer_id = ANY($2)`
	if _, err := r.q.Exec(ctx, query, groupID, customerIDs); err != nil {
		return fmt.Errorf("remove group members: %w", err)
	}
	return r.syncMemberCount(ctx, groupID)
}

// ReplaceMembers swaps the whole member set. Call inside a transaction.
func (r *CustomerGroupRepo) ReplaceMembers(ctx context.Context, groupID string, customerIDs []string) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM customer_group_members WHERE group_id = $1`, groupID); err != nil {
		return fmt.Errorf("clear group members: %w", err)
	}
	if len(customerIDs) == 0 {
		return r.syncMemberCount(ctx, groupID)
	}
	return r.AddMembers(ctx, groupID, customerIDs)
}

// UpdateEvaluation stores the size of a dynamic evaluation unless the group
// changed after version was read.
func (r *CustomerGroupRepo) UpdateEvaluation(ctx context.Context, groupID string, version time.Time, memberCount int, evaluatedAt time.Time) (bool, error) {
	tag, err := r.q.Exec(ctx,
		`UPDATE customer_groups SET member_count = $3, last_evaluated_at = $4 WHERE id = $1 AND updated_at = $2`,
		groupID, version, memberCount, evaluatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("update group evaluation: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *CustomerGroupRepo) syncMemberCount(ctx context.Context, groupID string) error {
	query := `
		UPDATE customer_groups
		SET member_count = (SELECT count(*) FROM customer_group_members WHERE group_id = $1),
		    updated_at = now()
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query, groupID)
	if err != nil {
		return fmt.Errorf("sync member count: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *CustomerGroupRepo) members(ctx context.Context, groupID string) ([]string, error) {
	rows, err := r.q.Query(ctx,
		`SELECT customer_id FROM customer_group_members WHERE group_id = $1 ORDER BY customer_id`, groupID)
	if err != nil {
		return nil, fmt.Errorf("list group members: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scan group member: %w", err)
	}
	return ids, nil
}

func (r *CustomerGroupRepo) queryGroups(ctx context.Context, query string, args ...any) ([]*entity.CustomerGroup, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list customer groups: %w", err)
	}
	defer rows.Close()
	var list []*entity.CustomerGroup
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			return nil, fmt.Errorf("scan customer group: %w", err)
		}
		list = append(list, g)
	}
	return list, rows.Err()
}

// criteriaArgs flattens criteria into the 11 nullable columns, in groupColumns order.
func criteriaArgs(c *entity.GroupCriteria) []any {
	if c == nil {
		return []any{
			decimal.NullDecimal{}, decimal.NullDecimal{}, []string(nil),
			(*bool)(nil), (*bool)(nil),
			(*time.Time)(nil), (*time.Time)(nil), (*time.Time)(nil), (*time.Time)(nil),
			(*int)(nil), (*int)(nil),
		}
	}
	var statuses []string
	for _, s := range c.Status {
		statuses = append(statuses, string(s))
	}
	return []any{
		nullDecimal(c.MinTotalSpent), nullDecimal(c.MaxTotalSpent), statuses,
		c.HasActiveSubscription, c.HasAnySubscription,
		c.CreatedAfter, c.CreatedBefore, c.LastOrderAfter, c.LastOrderBefore,
		c.MinOrders, c.MaxOrders,
	}
}

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}

func scanGroup(row pgx.Row) (*entity.CustomerGroup, error) {
	var (
		g                    entity.CustomerGroup
		groupType            string
		minSpent, maxSpent   decimal.NullDecimal
		statuses             []string
		hasActive, hasAny    *bool
		createdAfter         *time.Time
		createdBefore        *time.Time
		lastOrderAfter       *time.Time
		lastOrderBefore      *time.Time
		minOrders, maxOrders *int
	)
	err := row.Scan(
		&g.ID, &g.Name, &g.Description, &groupType,
		&minSpent, &maxSpent, &statuses,
		&hasActive, &hasAny,
		&createdAfter, &createdBefore, &lastOrderAfter, &lastOrderBefore,
		&minOrders, &maxOrders,
		&g.MemberCount, &g.LastEvaluatedAt, &g.CreatedAt, &g.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	g.Type = entity.GroupType(groupType)
	if g.Type != entity.GroupTypeDynamic {
		return &g, nil
	}

	c := entity.GroupCriteria{
		HasActiveSubscription: hasActive,
		HasAnySubscription:    hasAny,
		CreatedAfter:          createdAfter,
		CreatedBefore:         createdBefore,
		LastOrderAfter:        lastOrderAfter,
		LastOrderBefore:       lastOrderBefore,
		MinOrders:             minOrders,
		MaxOrders:             maxOrders,
	}
	if minSpent.Valid {
		c.MinTotalSpent = &minSpent.Decimal
	}
	if maxSpent.Valid {
		c.MaxTotalSpent = &maxSpent.Decimal
	}
	for _, s := range statuses {
		if st, ok := entity.ParseCustomerStatus(s); ok {
			c.Status = append(c.Status, st)
		}
	}
	g.Criteria = &c
	return &g, nil
}
