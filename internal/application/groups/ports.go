// Package groups holds the customer-group use cases: CRUD over group records,
// static membership mutations and resolution of dynamic groups through the
// segmentation evaluator.
package groups

import (
	"context"

	"github.com/ajg707/laurx-portal/internal/domain/repository"
)

// TxRunner runs fn with a group repository bound to a single transaction.
type TxRunner interface {
	RunGroups(ctx context.Context, fn func(repo repository.CustomerGroupRepository) error) error
}

// MembershipCache stores resolved dynamic memberships tagged with the group
// version they were computed for. Get only hits when the stored version equals
// version; a miss is (nil, false, nil). Implementations must be safe for
// concurrent use.
type MembershipCache interface {
	Get(ctx context.Context, groupID, version string) ([]string, bool, error)
	Set(ctx context.Context, groupID, version string, customerIDs []string) error
	Invalidate(ctx context.Context, groupID string) error
}

type noopCache struct{}

func (noopCache) Get(context.Context, string, string) ([]string, bool, error) { return nil, false, nil }
func (noopCache) Set(context.Context, string, string, []string) error        { return nil }
func (noopCache) Invalidate(context.Context, string) error                    { return nil }
