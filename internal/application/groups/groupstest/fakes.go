// Package groupstest provides in-memory implementations of the ports used by
// the groups use cases, for tests in this and other packages.
package groupstest

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ajg707/laurx-portal/internal/application/groups"
	"github.com/ajg707/laurx-portal/internal/domain"
	"github.com/ajg707/laurx-portal/internal/domain/entity"
	"github.com/ajg707/laurx-portal/internal/domain/repository"
)

var (
	_ repository.CustomerGroupRepository = (*GroupRepo)(nil)
	_ repository.SnapshotReader          = (*Snapshots)(nil)
	_ groups.TxRunner                    = (*GroupRepo)(nil)
	_ groups.MembershipCache             = (*Cache)(nil)
)

// GroupRepo is a map-backed CustomerGroupRepository that doubles as TxRunner
// (the "transaction" is the repo itself).
type GroupRepo struct {
	mu          sync.Mutex
	groups      map[string]*entity.CustomerGroup
	Evaluations map[string]int // group id -> last stored member count
}

// NewGroupRepo returns an empty repository.
func NewGroupRepo() *GroupRepo {
	return &GroupRepo{
		groups:      make(map[string]*entity.CustomerGroup),
		Evaluations: make(map[string]int),
	}
}

// RunGroups implements groups.TxRunner.
func (r *GroupRepo) RunGroups(ctx context.Context, fn func(repository.CustomerGroupRepository) error) error {
	return fn(r)
}

func clone(g *entity.CustomerGroup) *entity.CustomerGroup {
	c := *g
	if g.CustomerIDs != nil {
		c.CustomerIDs = append([]string(nil), g.CustomerIDs...)
	}
	return &c
}

func (r *GroupRepo) Create(ctx context.Context, g *entity.CustomerGroup) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.groups {
		if strings.EqualFold(existing.Name, g.Name) {
			return domain.ErrDuplicate
		}
	}
	r.groups[g.ID] = clone(g)
	return nil
}

func (r *GroupRepo) GetByID(ctx context.Context, id string) (*entity.CustomerGroup, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.groups[id]
	if !ok {
		return nil, nil
	}
	return clone(g), nil
}

func (r *GroupRepo) sorted() []*entity.CustomerGroup {
	out := make([]*entity.CustomerGroup, 0, len(r.groups))
	for _, g := range r.groups {
		out = append(out, clone(g))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (r *GroupRepo) List(ctx context.Context, limit, offset int) ([]*entity.CustomerGroup, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := r.sorted()
	if offset >= len(all) {
		return nil, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	out := all[offset:end]
	for _, g := range out {
		g.CustomerIDs = nil
	}
	return out, nil
}

func (r *GroupRepo) Count(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.groups), nil
}

func (r *GroupRepo) ListByType(ctx context.Context, t entity.GroupType) ([]*entity.CustomerGroup, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.CustomerGroup
	for _, g := range r.sorted() {
		if g.Type == t {
			out = append(out, g)
		}
	}
	return out, nil
}

func (r *GroupRepo) Update(ctx context.Context, g *entity.CustomerGroup) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.groups[g.ID]
	if !ok {
		return domain.ErrNotFound
	}
	updated := clone(g)
	updated.CustomerIDs = existing.CustomerIDs
	updated.MemberCount = existing.MemberCount
	r.groups[g.ID] = updated
	return nil
}

func (r *GroupRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.groups[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.groups, id)
	return nil
}

func (r *GroupRepo) AddMembers(ctx context.Context, groupID string, ids []string) error {
	return r.setMembers(groupID, func(set map[string]struct{}) {
		for _, id := range ids {
			set[id] = struct{}{}
		}
	})
}

func (r *GroupRepo) RemoveMembers(ctx context.Context, groupID string, ids []string) error {
	return r.setMembers(groupID, func(set map[string]struct{}) {
		for _, id := range ids {
			delete(set, id)
		}
	})
}

func (r *GroupRepo) ReplaceMembers(ctx context.Context, groupID string, ids []string) error {
	return r.setMembers(groupID, func(set map[string]struct{}) {
		for k := range set {
			delete(set, k)
		}
		for _, id := range ids {
			set[id] = struct{}{}
		}
	})
}

func (r *GroupRepo) setMembers(groupID string, fn func(map[string]struct{})) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.groups[groupID]
	if !ok {
		return domain.ErrNotFound
	}
	set := make(map[string]struct{}, len(g.CustomerIDs))
	for _, id := range g.CustomerIDs {
		set[id] = struct{}{}
	}
	fn(set)
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	g.CustomerIDs = ids
	g.MemberCount = len(ids)
	return nil
}

func (r *GroupRepo) UpdateEvaluation(ctx context.Context, groupID string, version time.Time, count int, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.groups[groupID]
	if !ok || !g.UpdatedAt.Equal(version) {
		return false, nil
	}
	g.MemberCount = count
	g.LastEvaluatedAt = &at
	r.Evaluations[groupID] = count
	return true, nil
}

// Snapshots is a slice-backed SnapshotReader. Set the *Err fields to simulate
// a failing collection read.
//
// When Gate is set, Customers blocks until Gate is closed (or ctx ends); if
// Entered is also set it receives a value as soon as the read starts.
type Snapshots struct {
	CustomerList     []*entity.Customer
	SubscriptionList []*entity.Subscription
	InvoiceList      []*entity.Invoice
	ChargeList       []*entity.Charge

	CustomersErr     error
	SubscriptionsErr error
	InvoicesErr      error
	ChargesErr       error

	Gate    chan struct{}
	Entered chan struct{}

	mu    sync.Mutex
	Loads int // number of full customer reads
}

func (s *Snapshots) Customers(ctx context.Context) ([]*entity.Customer, error) {
	s.mu.Lock()
	s.Loads++
	s.mu.Unlock()
	if s.Entered != nil {
		s.Entered <- struct{}{}
	}
	if s.Gate != nil {
		select {
		case <-s.Gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.CustomersErr != nil {
		return nil, s.CustomersErr
	}
	return s.CustomerList, nil
}

func (s *Snapshots) Customer(ctx context.Context, id string) (*entity.Customer, error) {
	if s.CustomersErr != nil {
		return nil, s.CustomersErr
	}
	for _, c := range s.CustomerList {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, nil
}

func (s *Snapshots) Subscriptions(ctx context.Context, customerID string) ([]*entity.Subscription, error) {
	if s.SubscriptionsErr != nil {
		return nil, s.SubscriptionsErr
	}
	var out []*entity.Subscription
	for _, v := range s.SubscriptionList {
		if customerID == "" || v.CustomerID == customerID {
			out = append(out, v)
		}
	}
	return out, nil
}

func (s *Snapshots) Invoices(ctx context.Context, customerID string) ([]*entity.Invoice, error) {
	if s.InvoicesErr != nil {
		return nil, s.InvoicesErr
	}
	var out []*entity.Invoice
	for _, v := range s.InvoiceList {
		if customerID == "" || v.CustomerID == customerID {
			out = append(out, v)
		}
	}
	return out, nil
}

func (s *Snapshots) Charges(ctx context.Context, customerID string) ([]*entity.Charge, error) {
	if s.ChargesErr != nil {
		return nil, s.ChargesErr
	}
	var out []*entity.Charge
	for _, v := range s.ChargeList {
		if customerID == "" || v.CustomerID == customerID {
			out = append(out, v)
		}
	}
	return out, nil
}

type cacheEntry struct {
	version string
	ids     []string
}

// Cache is a map-backed MembershipCache.
type Cache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]cacheEntry)}
}

func (c *Cache) Get(ctx context.Context, groupID, version string) ([]string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[groupID]
	if !ok || e.version != version {
		return nil, false, nil
	}
	return e.ids, true, nil
}

// Cached returns whatever is stored for groupID, regardless of version.
func (c *Cache) Cached(groupID string) ([]string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[groupID]
	return e.ids, ok
}

func (c *Cache) Set(ctx context.Context, groupID, version string, ids []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[groupID] = cacheEntry{version: version, ids: append([]string(nil), ids...)}
	return nil
}

func (c *Cache) Invalidate(ctx context.Context, groupID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, groupID)
	return nil
}
