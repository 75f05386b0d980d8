package groups

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ajg707/laurx-portal/internal/application/dto"
	"github.com/ajg707/laurx-portal/internal/domain"
	"github.com/ajg707/laurx-portal/internal/domain/entity"
	"github.com/ajg707/laurx-portal/internal/domain/repository"
	"github.com/ajg707/laurx-portal/internal/domain/segmentation"
	"github.com/ajg707/laurx-portal/pkg/logger"
	"github.com/google/uuid"
)

// GroupUseCase manages customer groups and resolves their membership.
//
// Static groups are resolved from the stored member set. Dynamic groups are
// resolved by loading a fresh snapshot and running the segmentation evaluator
// over it; the result may be served from MembershipCache until it expires or
// the group changes.
type GroupUseCase struct {
	repo   repository.CustomerGroupRepository
	tx     TxRunner
	loader *SnapshotLoader
	cache  MembershipCache
	log    *logger.Logger
	now    func() time.Time
}

// NewGroupUseCase builds the use case. cache and log may be nil.
func NewGroupUseCase(
	repo repository.CustomerGroupRepository,
	tx TxRunner,
	loader *SnapshotLoader,
	cache MembershipCache,
	log *logger.Logger,
) *GroupUseCase {
	if cache == nil {
		cache = noopCache{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &GroupUseCase{
		repo:   repo,
		tx:     tx,
		loader: loader,
		cache:  cache,
		log:    log,
		now:    func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
	}
}

// Create validates and persists a new group.
// Dynamic groups need at least one criteria field; static groups take an optional initial member set.
func (uc *GroupUseCase) Create(ctx context.Context, in dto.CreateGroupRequest) (*dto.GroupResponse, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", domain.ErrInvalidInput)
	}
	groupType, ok := entity.ParseGroupType(strings.ToLower(strings.TrimSpace(in.Type)))
	if !ok {
		return nil, fmt.Errorf("%w: type must be static or dynamic", domain.ErrInvalidInput)
	}

	now := uc.now()
	group := &entity.CustomerGroup{
		ID:          uuid.New().String(),
		Name:        name,
		Description: strings.TrimSpace(in.Description),
		Type:        groupType,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	switch groupType {
	case entity.GroupTypeDynamic:
		if len(in.CustomerIDs) > 0 {
			return nil, fmt.Errorf("%w: customer_ids only apply to static groups", domain.ErrWrongGroupType)
		}
		criteria, err := toCriteria(in.Criteria)
		if err != nil {
			return nil, err
		}
		if criteria.IsEmpty() {
			return nil, domain.ErrEmptyCriteria
		}
		group.Criteria = &criteria
	case entity.GroupTypeStatic:
		if in.Criteria != nil {
			return nil, fmt.Errorf("%w: criteria only apply to dynamic groups", domain.ErrWrongGroupType)
		}
		group.CustomerIDs = normalizeIDs(in.CustomerIDs)
		group.MemberCount = len(group.CustomerIDs)
	}

	if err := uc.tx.RunGroups(ctx, func(repo repository.CustomerGroupRepository) error {
		return repo.Create(ctx, group)
	}); err != nil {
		return nil, err
	}

	uc.log.Info().Str("group_id", group.ID).Str("type", string(group.Type)).Msg("group created")
	return toGroupResponse(group), nil
}

// Update applies a partial update. Criteria can only change on dynamic groups and
// the member set only on static groups.
func (uc *GroupUseCase) Update(ctx context.Context, id string, in dto.UpdateGroupRequest) (*dto.GroupResponse, error) {
	group, err := uc.get(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: name must not be empty", domain.ErrInvalidInput)
		}
		group.Name = name
	}
	if in.Description != nil {
		group.Description = strings.TrimSpace(*in.Description)
	}
	if in.Criteria != nil {
		if !group.IsDynamic() {
			return nil, fmt.Errorf("%w: criteria only apply to dynamic groups", domain.ErrWrongGroupType)
		}
		criteria, err := toCriteria(in.Criteria)
		if err != nil {
			return nil, err
		}
		if criteria.IsEmpty() {
			return nil, domain.ErrEmptyCriteria
		}
		group.Criteria = &criteria
	}
	replaceMembers := in.CustomerIDs != nil
	if replaceMembers {
		if group.IsDynamic() {
			return nil, fmt.Errorf("%w: customer_ids only apply to static groups", domain.ErrWrongGroupType)
		}
		group.CustomerIDs = normalizeIDs(in.CustomerIDs)
		group.MemberCount = len(group.CustomerIDs)
	}
	// UpdatedAt is the membership version; it must move on every update.
	now := uc.now()
	if !now.After(group.UpdatedAt) {
		now = group.UpdatedAt.Add(time.Microsecond)
	}
	group.UpdatedAt = now

	if err := uc.tx.RunGroups(ctx, func(repo repository.CustomerGroupRepository) error {
		if err := repo.Update(ctx, group); err != nil {
			return err
		}
		if replaceMembers {
			return repo.ReplaceMembers(ctx, group.ID, group.CustomerIDs)
		}
		return nil
	}); err != nil {
		return nil, err
	}

	if group.IsDynamic() {
		uc.invalidate(ctx, group.ID)
	}
	return toGroupResponse(group), nil
}

// Delete removes the group and its members.
func (uc *GroupUseCase) Delete(ctx context.Context, id string) error {
	if err := uc.repo.Delete(ctx, id); err != nil {
		return err
	}
	uc.invalidate(ctx, id)
	uc.log.Info().Str("group_id", id).Msg("group deleted")
	return nil
}

// GetByID returns the group; domain.ErrNotFound when it does not exist.
func (uc *GroupUseCase) GetByID(ctx context.Context, id string) (*dto.GroupResponse, error) {
	group, err := uc.get(ctx, id)
	if err != nil {
		return nil, err
	}
	return toGroupResponse(group), nil
}

// List lists groups ordered by name.
func (uc *GroupUseCase) List(ctx context.Context, limit, offset int) (*dto.GroupListResponse, error) {
	page := dto.PageRequest{Limit: limit, Offset: offset}
	page.DefaultPage()

	list, err := uc.repo.List(ctx, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	total, err := uc.repo.Count(ctx)
	if err != nil {
		return nil, err
	}
	items := make([]dto.GroupResponse, 0, len(list))
	for _, g := range list {
		items = append(items, *toGroupResponse(g))
	}
	return &dto.GroupListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset, Total: total},
	}, nil
}

// GetGroupCustomers resolves a group to its current member ids.
func (uc *GroupUseCase) GetGroupCustomers(ctx context.Context, id string) ([]string, error) {
	group, err := uc.get(ctx, id)
	if err != nil {
		return nil, err
	}
	return uc.resolve(ctx, group)
}

// ResolveMembers is GetGroupCustomers shaped for the HTTP layer.
func (uc *GroupUseCase) ResolveMembers(ctx context.Context, id string) (*dto.GroupCustomersResponse, error) {
	group, err := uc.get(ctx, id)
	if err != nil {
		return nil, err
	}
	ids, err := uc.resolve(ctx, group)
	if err != nil {
		return nil, err
	}
	return &dto.GroupCustomersResponse{
		GroupID:     group.ID,
		Type:        string(group.Type),
		CustomerIDs: ids,
		Count:       len(ids),
	}, nil
}

// AddCustomers adds ids to a static group (set union).
func (uc *GroupUseCase) AddCustomers(ctx context.Context, id string, customerIDs []string) (*dto.GroupResponse, error) {
	return uc.mutateMembers(ctx, id, customerIDs, repository.CustomerGroupRepository.AddMembers)
}

// RemoveCustomers removes ids from a static group (set difference).
func (uc *GroupUseCase) RemoveCustomers(ctx context.Context, id string, customerIDs []string) (*dto.GroupResponse, error) {
	return uc.mutateMembers(ctx, id, customerIDs, repository.CustomerGroupRepository.RemoveMembers)
}

type memberMutation func(repo repository.CustomerGroupRepository, ctx context.Context, groupID string, ids []string) error

func (uc *GroupUseCase) mutateMembers(ctx context.Context, id string, customerIDs []string, mutate memberMutation) (*dto.GroupResponse, error) {
	ids := normalizeIDs(customerIDs)
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: customer_ids is required", domain.ErrInvalidInput)
	}

	var updated *entity.CustomerGroup
	err := uc.tx.RunGroups(ctx, func(repo repository.CustomerGroupRepository) error {
		group, err := repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if group == nil {
			return domain.ErrNotFound
		}
		if group.IsDynamic() {
			return fmt.Errorf("%w: membership of dynamic groups is computed", domain.ErrWrongGroupType)
		}
		if err := mutate(repo, ctx, id, ids); err != nil {
			return err
		}
		updated, err = repo.GetByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, domain.ErrNotFound
	}
	return toGroupResponse(updated), nil
}

// Preview evaluates criteria against a fresh snapshot without saving anything.
func (uc *GroupUseCase) Preview(ctx context.Context, in dto.GroupCriteria) (*dto.GroupPreviewResponse, error) {
	criteria, err := toCriteria(&in)
	if err != nil {
		return nil, err
	}
	if criteria.IsEmpty() {
		return nil, domain.ErrEmptyCriteria
	}
	snapshot, err := uc.loader.Load(ctx)
	if err != nil {
		return nil, err
	}
	ids := segmentation.Evaluate(snapshot, criteria)
	return &dto.GroupPreviewResponse{
		CustomerIDs: ids,
		Count:       len(ids),
		Population:  len(snapshot.Customers),
		EvaluatedAt: uc.now(),
	}, nil
}

// RefreshDynamicGroups re-evaluates every dynamic group against one shared
// snapshot and stores member counts. Returns how many groups were refreshed;
// per-group failures are joined into the error without stopping the others.
func (uc *GroupUseCase) RefreshDynamicGroups(ctx context.Context) (int, error) {
	list, err := uc.repo.ListByType(ctx, entity.GroupTypeDynamic)
	if err != nil {
		return 0, err
	}
	if len(list) == 0 {
		return 0, nil
	}

	snapshot, err := uc.loader.Load(ctx)
	if err != nil {
		return 0, err
	}
	ix := segmentation.NewIndex(snapshot.Subscriptions, snapshot.Invoices, snapshot.Charges)

	var errs []error
	refreshed := 0
	for _, g := range list {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		ids := ix.Filter(snapshot.Customers, criteriaOf(g))
		stored, err := uc.repo.UpdateEvaluation(ctx, g.ID, g.UpdatedAt, len(ids), uc.now())
		if err != nil {
			errs = append(errs, fmt.Errorf("group %s: %w", g.ID, err))
			continue
		}
		if !stored {
			uc.log.Debug().Str("group_id", g.ID).Msg("group changed during refresh, result dropped")
			continue
		}
		if err := uc.cache.Set(ctx, g.ID, membershipVersion(g), ids); err != nil {
			uc.log.Warn().Err(err).Str("group_id", g.ID).Msg("membership cache write failed")
		}
		refreshed++
	}

	uc.log.Info().
		Int("groups", len(list)).
		Int("refreshed", refreshed).
		Int("population", len(snapshot.Customers)).
		Msg("dynamic groups refreshed")
	return refreshed, errors.Join(errs...)
}

func (uc *GroupUseCase) get(ctx context.Context, id string) (*entity.CustomerGroup, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("%w: id is required", domain.ErrInvalidInput)
	}
	group, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if group == nil {
		return nil, domain.ErrNotFound
	}
	return group, nil
}

// resolve bypasses the evaluator for static groups.
func (uc *GroupUseCase) resolve(ctx context.Context, group *entity.CustomerGroup) ([]string, error) {
	if !group.IsDynamic() {
		if group.CustomerIDs == nil {
			return []string{}, nil
		}
		return group.CustomerIDs, nil
	}

	version := membershipVersion(group)
	if ids, ok, err := uc.cache.Get(ctx, group.ID, version); err != nil {
		uc.log.Warn().Err(err).Str("group_id", group.ID).Msg("membership cache read failed")
	} else if ok {
		return ids, nil
	}

	snapshot, err := uc.loader.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("group %s: %w", group.ID, err)
	}
	started := time.Now()
	ids := segmentation.Evaluate(snapshot, criteriaOf(group))
	uc.log.Debug().
		Str("group_id", group.ID).
		Int("population", len(snapshot.Customers)).
		Int("matched", len(ids)).
		Dur("took", time.Since(started)).
		Msg("dynamic group evaluated")

	// The caller gets the result for the criteria it read; it is only stored
	// if the group is still at that version.
	stored, err := uc.repo.UpdateEvaluation(ctx, group.ID, group.UpdatedAt, len(ids), uc.now())
	if err != nil {
		uc.log.Warn().Err(err).Str("group_id", group.ID).Msg("store evaluation result")
		return ids, nil
	}
	if !stored {
		uc.log.Debug().Str("group_id", group.ID).Msg("group changed during evaluation, result not cached")
		return ids, nil
	}
	if err := uc.cache.Set(ctx, group.ID, version, ids); err != nil {
		uc.log.Warn().Err(err).Str("group_id", group.ID).Msg("membership cache write failed")
	}
	return ids, nil
}

// membershipVersion tags cached members with the group revision they were computed for.
func membershipVersion(g *entity.CustomerGroup) string {
	return strconv.FormatInt(g.UpdatedAt.UnixMicro(), 10)
}

func (uc *GroupUseCase) invalidate(ctx context.Context, groupID string) {
	if err := uc.cache.Invalidate(ctx, groupID); err != nil {
		uc.log.Warn().Err(err).Str("group_id", groupID).Msg("membership cache invalidation failed")
	}
}

func criteriaOf(g *entity.CustomerGroup) entity.GroupCriteria {
	if g.Criteria == nil {
		return entity.GroupCriteria{}
	}
	return *g.Criteria
}

func toGroupResponse(g *entity.CustomerGroup) *dto.GroupResponse {
	return &dto.GroupResponse{
		ID:              g.ID,
		Name:            g.Name,
		Description:     g.Description,
		Type:            string(g.Type),
		CustomerIDs:     g.CustomerIDs,
		Criteria:        toCriteriaDTO(g.Criteria),
		MemberCount:     g.MemberCount,
		LastEvaluatedAt: g.LastEvaluatedAt,
		CreatedAt:       g.CreatedAt,
		UpdatedAt:       g.UpdatedAt,
	}
}
