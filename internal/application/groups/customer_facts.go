package groups

import (
	"context"
	"fmt"
	"strings"

	"github.com/ajg707/laurx-portal/internal/application/dto"
	"github.com/ajg707/laurx-portal/internal/domain"
	"github.com/ajg707/laurx-portal/internal/domain/segmentation"
)

// CustomerFactsUseCase exposes the evaluator's derived facts for a single customer,
// so the admin console shows the same numbers group criteria are tested against.
type CustomerFactsUseCase struct {
	loader *SnapshotLoader
}

// NewCustomerFactsUseCase builds the use case.
func NewCustomerFactsUseCase(loader *SnapshotLoader) *CustomerFactsUseCase {
	return &CustomerFactsUseCase{loader: loader}
}

// Get returns the facts of customerID; domain.ErrNotFound when it is not cached.
func (uc *CustomerFactsUseCase) Get(ctx context.Context, customerID string) (*dto.CustomerFactsResponse, error) {
	customerID = strings.TrimSpace(customerID)
	if customerID == "" {
		return nil, fmt.Errorf("%w: customer id is required", domain.ErrInvalidInput)
	}
	customer, snapshot, err := uc.loader.LoadCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, domain.ErrNotFound
	}

	f := segmentation.NewIndex(snapshot.Subscriptions, snapshot.Invoices, snapshot.Charges).Facts(customer)
	out := &dto.CustomerFactsResponse{
		CustomerID:            f.CustomerID,
		Email:                 customer.Email,
		TotalSpent:            f.TotalSpent,
		OrderCount:            f.OrderCount,
		SubscriptionCount:     f.SubscriptionCount,
		HasActiveSubscription: f.HasActiveSubscription,
		Status:                string(f.Status),
		CreatedAt:             f.CreatedAt,
	}
	if !f.LastOrderAt.IsZero() {
		last := f.LastOrderAt
		out.LastOrderAt = &last
	}
	return out, nil
}
