package repository

import (
	"context"
	"time"

	"github.com/ajg707/laurx-portal/internal/domain/entity"
)

// CustomerGroupRepository defines the persistence port for CustomerGroup and its static members.
type CustomerGroupRepository interface {
	// Create persists the group and, for static groups, its CustomerIDs.
	Create(ctx context.Context, group *entity.CustomerGroup) error
	// GetByID returns nil, nil when the group does not exist. Static groups come with CustomerIDs loaded.
	GetByID(ctx context.Context, id string) (*entity.CustomerGroup, error)
	// List returns groups ordered by name, without member ids.
	List(ctx context.Context, limit, offset int) ([]*entity.CustomerGroup, error)
	Count(ctx context.Context) (int, error)
	ListByType(ctx context.Context, groupType entity.GroupType) ([]*entity.CustomerGroup, error)
	Update(ctx context.Context, group *entity.CustomerGroup) error
	// Delete returns domain.ErrNotFound when nothing was deleted.
	Delete(ctx context.Context, id string) error

	AddMembers(ctx context.Context, groupID string, customerIDs []string) error
	RemoveMembers(ctx context.Context, groupID string, customerIDs []string) error
	ReplaceMembers(ctx context.Context, groupID string, customerIDs []string) error

	// UpdateEvaluation stores the result size of a dynamic evaluation computed
	// for the group as of version (its UpdatedAt). It reports false, without
	// writing, when the group was modified or deleted since.
	UpdateEvaluation(ctx context.Context, groupID string, version time.Time, memberCount int, evaluatedAt time.Time) (bool, error)
}
