package segmentation_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajg707/laurx-portal/internal/domain/entity"
	"github.com/ajg707/laurx-portal/internal/domain/segmentation"
)

// ──────────────────────────────────────────────────────────────────────────────
// Fixtures
// ──────────────────────────────────────────────────────────────────────────────

var baseTime = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func customer(id string, created time.Time) *entity.Customer {
	return &entity.Customer{ID: id, Email: id + "@example.com", CreatedAt: created}
}

func sub(id, customerID string, status entity.SubscriptionStatus) *entity.Subscription {
	return &entity.Subscription{ID: id, CustomerID: customerID, Status: status, CreatedAt: baseTime}
}

func invoice(id, customerID string, status entity.InvoiceStatus, cents int64, created time.Time) *entity.Invoice {
	return &entity.Invoice{ID: id, CustomerID: customerID, Status: status, AmountPaid: cents, CreatedAt: created}
}

func charge(id, customerID string, status entity.ChargeStatus, cents int64, created time.Time) *entity.Charge {
	return &entity.Charge{ID: id, CustomerID: customerID, Status: status, Amount: cents, CreatedAt: created}
}

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func boolPtr(b bool) *bool           { return &b }
func intPtr(n int) *int              { return &n }
func timePtr(t time.Time) *time.Time { return &t }

// mixedSnapshot covers every status combination used across the tests.
func mixedSnapshot() segmentation.Snapshot {
	return segmentation.Snapshot{
		Customers: []*entity.Customer{
			customer("cus_1", baseTime.AddDate(0, -6, 0)),
			customer("cus_2", baseTime.AddDate(0, -3, 0)),
			customer("cus_3", baseTime.AddDate(0, -1, 0)),
			customer("cus_4", baseTime),
			customer("cus_5", baseTime.AddDate(0, 0, 10)),
		},
		Subscriptions: []*entity.Subscription{
			sub("sub_2", "cus_2", entity.SubscriptionStatusTrialing),
			sub("sub_3", "cus_3", entity.SubscriptionStatusCanceled),
			sub("sub_5a", "cus_5", entity.SubscriptionStatusTrialing),
			sub("sub_5b", "cus_5", entity.SubscriptionStatusCanceled),
		},
		Invoices: []*entity.Invoice{
			invoice("in_1", "cus_1", entity.InvoiceStatusPaid, 5000, baseTime.AddDate(0, -2, 0)),
			invoice("in_3", "cus_3", entity.InvoiceStatusOpen, 9900, baseTime.AddDate(0, 0, -5)),
			invoice("in_5", "cus_5", entity.InvoiceStatusPaid, 10000, baseTime.AddDate(0, 0, 12)),
		},
		Charges: []*entity.Charge{
			charge("ch_1", "cus_1", entity.ChargeStatusSucceeded, 2500, baseTime.AddDate(0, -1, 0)),
			charge("ch_5", "cus_5", entity.ChargeStatusSucceeded, 5000, baseTime.AddDate(0, 0, 11)),
			charge("ch_5f", "cus_5", entity.ChargeStatusFailed, 7000, baseTime.AddDate(0, 0, 11)),
		},
	}
}

func factsFor(t *testing.T, s segmentation.Snapshot, id string) segmentation.Facts {
	t.Helper()
	ix := segmentation.NewIndex(s.Subscriptions, s.Invoices, s.Charges)
	for _, c := range s.Customers {
		if c.ID == id {
			return ix.Facts(c)
		}
	}
	require.FailNow(t, "customer not in snapshot", id)
	return segmentation.Facts{}
}

// ──────────────────────────────────────────────────────────────────────────────
// Derived facts
// ──────────────────────────────────────────────────────────────────────────────

func TestFacts_NoRecords_ZeroAggregatesAndChurned(t *testing.T) {
	f := factsFor(t, mixedSnapshot(), "cus_4")

	assert.True(t, f.TotalSpent.IsZero())
	assert.Equal(t, 0, f.OrderCount)
	assert.Equal(t, 0, f.SubscriptionCount)
	assert.False(t, f.HasActiveSubscription)
	assert.Equal(t, entity.CustomerStatusChurned, f.Status)
	assert.True(t, f.LastOrderAt.IsZero())
}

// Paid invoice + succeeded charge are summed and converted to major units.
func TestFacts_TotalSpent_PaidInvoicePlusSucceededCharge(t *testing.T) {
	f := factsFor(t, mixedSnapshot(), "cus_1")

	assert.True(t, decimal.RequireFromString("75.00").Equal(f.TotalSpent), "got %s", f.TotalSpent)
	assert.Equal(t, 2, f.OrderCount)
}

func TestFacts_TotalSpent_IgnoresUnpaidButCountsOrders(t *testing.T) {
	f := factsFor(t, mixedSnapshot(), "cus_5")

	// 100.00 paid invoice + 50.00 succeeded charge; the failed charge is not spend.
	assert.True(t, decimal.RequireFromString("150").Equal(f.TotalSpent), "got %s", f.TotalSpent)
	assert.Equal(t, 3, f.OrderCount, "order count includes every invoice and charge")
	assert.Equal(t, baseTime.AddDate(0, 0, 12), f.LastOrderAt)
}

func TestFacts_TrialingIsActive(t *testing.T) {
	f := factsFor(t, mixedSnapshot(), "cus_2")

	assert.True(t, f.HasActiveSubscription)
	assert.Equal(t, entity.CustomerStatusActive, f.Status)
}

func TestFacts_PastDueIsActive(t *testing.T) {
	s := segmentation.Snapshot{
		Customers:     []*entity.Customer{customer("cus_pd", baseTime)},
		Subscriptions: []*entity.Subscription{sub("sub_pd", "cus_pd", entity.SubscriptionStatusPastDue)},
	}
	f := factsFor(t, s, "cus_pd")

	assert.True(t, f.HasActiveSubscription)
	assert.Equal(t, entity.CustomerStatusActive, f.Status)
}

func TestFacts_CanceledOnlyIsInactive(t *testing.T) {
	f := factsFor(t, mixedSnapshot(), "cus_3")

	assert.False(t, f.HasActiveSubscription)
	assert.Equal(t, 1, f.SubscriptionCount)
	assert.Equal(t, entity.CustomerStatusInactive, f.Status)
	assert.True(t, f.TotalSpent.IsZero(), "open invoices are not spend")
}

// Records without a customer id must not be attributed to anyone nor panic.
func TestNewIndex_DropsRecordsWithoutCustomerID(t *testing.T) {
	s := segmentation.Snapshot{
		Customers: []*entity.Customer{customer("cus_x", baseTime), {ID: "", CreatedAt: baseTime}},
		Subscriptions: []*entity.Subscription{
			sub("sub_orphan", "", entity.SubscriptionStatusActive),
			nil,
		},
		Invoices: []*entity.Invoice{invoice("in_orphan", "", entity.InvoiceStatusPaid, 1000, baseTime)},
		Charges: []*entity.Charge{
			charge("ch_null", "", entity.ChargeStatusSucceeded, 2500, baseTime),
			charge("ch_ghost", "cus_missing", entity.ChargeStatusSucceeded, 2500, baseTime),
		},
	}

	require.NotPanics(t, func() { segmentation.Evaluate(s, entity.GroupCriteria{}) })

	f := factsFor(t, s, "cus_x")
	assert.True(t, f.TotalSpent.IsZero())
	assert.Equal(t, 0, f.OrderCount)
	assert.Equal(t, entity.CustomerStatusChurned, f.Status)

	got := segmentation.Evaluate(s, entity.GroupCriteria{MinOrders: intPtr(1)})
	assert.Empty(t, got, "orphan records cannot create customers")
}

// ──────────────────────────────────────────────────────────────────────────────
// Evaluate
// ──────────────────────────────────────────────────────────────────────────────

func TestEvaluate_EmptyCriteria_ReturnsEveryCustomer(t *testing.T) {
	s := mixedSnapshot()

	got := segmentation.Evaluate(s, entity.GroupCriteria{})

	assert.Equal(t, []string{"cus_1", "cus_2", "cus_3", "cus_4", "cus_5"}, got)
}

func TestEvaluate_Idempotent(t *testing.T) {
	s := mixedSnapshot()
	c := entity.GroupCriteria{MinTotalSpent: dec("10"), MaxOrders: intPtr(5)}

	first := segmentation.Evaluate(s, c)
	second := segmentation.Evaluate(s, c)

	assert.Equal(t, first, second)
}

// Spent >= 100 AND active: cus_1 spent 75 with no subscription, cus_5 spent 150 trialing.
func TestEvaluate_MinSpentAndActive(t *testing.T) {
	s := segmentation.Snapshot{
		Customers: []*entity.Customer{customer("cus_1", baseTime), customer("cus_5", baseTime)},
		Subscriptions: []*entity.Subscription{
			sub("sub_5", "cus_5", entity.SubscriptionStatusTrialing),
		},
		Invoices: []*entity.Invoice{
			invoice("in_1", "cus_1", entity.InvoiceStatusPaid, 5000, baseTime),
			invoice("in_5", "cus_5", entity.InvoiceStatusPaid, 15000, baseTime),
		},
		Charges: []*entity.Charge{
			charge("ch_1", "cus_1", entity.ChargeStatusSucceeded, 2500, baseTime),
		},
	}

	got := segmentation.Evaluate(s, entity.GroupCriteria{
		MinTotalSpent:         dec("100"),
		HasActiveSubscription: boolPtr(true),
	})

	assert.Equal(t, []string{"cus_5"}, got)
}

func TestEvaluate_SingleCriterion(t *testing.T) {
	cases := []struct {
		name     string
		criteria entity.GroupCriteria
		want     []string
	}{
		{"min spent inclusive", entity.GroupCriteria{MinTotalSpent: dec("75")}, []string{"cus_1", "cus_5"}},
		{"max spent inclusive", entity.GroupCriteria{MaxTotalSpent: dec("75")}, []string{"cus_1", "cus_2", "cus_3", "cus_4"}},
		{"status active", entity.GroupCriteria{Status: []entity.CustomerStatus{entity.CustomerStatusActive}}, []string{"cus_2", "cus_5"}},
		{"status inactive or churned", entity.GroupCriteria{Status: []entity.CustomerStatus{entity.CustomerStatusInactive, entity.CustomerStatusChurned}}, []string{"cus_1", "cus_3", "cus_4"}},
		{"has active false is exact", entity.GroupCriteria{HasActiveSubscription: boolPtr(false)}, []string{"cus_1", "cus_3", "cus_4"}},
		{"has any subscription", entity.GroupCriteria{HasAnySubscription: boolPtr(true)}, []string{"cus_2", "cus_3", "cus_5"}},
		{"never subscribed", entity.GroupCriteria{HasAnySubscription: boolPtr(false)}, []string{"cus_1", "cus_4"}},
		{"created after inclusive", entity.GroupCriteria{CreatedAfter: timePtr(baseTime)}, []string{"cus_4", "cus_5"}},
		{"created before inclusive", entity.GroupCriteria{CreatedBefore: timePtr(baseTime.AddDate(0, -3, 0))}, []string{"cus_1", "cus_2"}},
		{"min orders", entity.GroupCriteria{MinOrders: intPtr(2)}, []string{"cus_1", "cus_5"}},
		{"max orders zero", entity.GroupCriteria{MaxOrders: intPtr(0)}, []string{"cus_2", "cus_4"}},
		{"last order after", entity.GroupCriteria{LastOrderAfter: timePtr(baseTime.AddDate(0, 0, -5))}, []string{"cus_3", "cus_5"}},
		{"last order before excludes customers without orders", entity.GroupCriteria{LastOrderBefore: timePtr(baseTime)}, []string{"cus_1", "cus_3"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := segmentation.Evaluate(mixedSnapshot(), tc.criteria)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestEvaluate_RaisingMinSpentNeverGrowsResult(t *testing.T) {
	s := mixedSnapshot()
	prev := segmentation.Evaluate(s, entity.GroupCriteria{MinTotalSpent: dec("0")})
	for _, min := range []string{"0.01", "50", "75", "75.01", "150", "1000"} {
		got := segmentation.Evaluate(s, entity.GroupCriteria{MinTotalSpent: dec(min)})
		assert.Subset(t, prev, got, "min %s", min)
		prev = got
	}
}

func TestEvaluate_LoweringMaxOrdersNeverGrowsResult(t *testing.T) {
	s := mixedSnapshot()
	prev := segmentation.Evaluate(s, entity.GroupCriteria{MaxOrders: intPtr(10)})
	for n := 9; n >= 0; n-- {
		got := segmentation.Evaluate(s, entity.GroupCriteria{MaxOrders: intPtr(n)})
		assert.Subset(t, prev, got, "max orders %d", n)
		prev = got
	}
}

func TestEvaluate_DuplicateCustomersAppearOnce(t *testing.T) {
	s := segmentation.Snapshot{
		Customers: []*entity.Customer{customer("cus_1", baseTime), customer("cus_1", baseTime), nil},
	}

	got := segmentation.Evaluate(s, entity.GroupCriteria{})

	assert.Equal(t, []string{"cus_1"}, got)
}

func TestIndex_FilterReusedAcrossCriteria(t *testing.T) {
	s := mixedSnapshot()
	ix := segmentation.NewIndex(s.Subscriptions, s.Invoices, s.Charges)

	active := ix.Filter(s.Customers, entity.GroupCriteria{HasActiveSubscription: boolPtr(true)})
	big := ix.Filter(s.Customers, entity.GroupCriteria{MinTotalSpent: dec("100")})

	assert.Equal(t, []string{"cus_2", "cus_5"}, active)
	assert.Equal(t, []string{"cus_5"}, big)
}
