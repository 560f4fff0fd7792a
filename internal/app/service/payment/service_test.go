package payment

import (
	"context"
	"fmt"
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/fuelflow/fuelflow/internal/models"
	"github.com/fuelflow/fuelflow/internal/platform/db/dbtest"
	"github.com/fuelflow/fuelflow/pkg/types"
)

func TestUpsert_KeyedOnPaymentIntent(t *testing.T) {
	gdb := dbtest.New(t)
	s := New(gdb, zap.NewNop().Sugar())
	ctx := context.Background()

	require.NoError(t, s.Upsert(ctx, &models.Payment{
		PaymentIntentID:   lo.ToPtr("pi_1"),
		CheckoutSessionID: lo.ToPtr("cs_1"),
		OrderID:           lo.ToPtr("ord_A"),
		Amount:            4000,
		Currency:          "gbp",
		Status:            "processing",
		CustomerEmail:     "Jo@Example.com",
		Metadata:          datatypes.JSONMap{"order_id": "ord_A"},
		EventID:           "evt_1",
	}))
	require.NoError(t, s.Upsert(ctx, &models.Payment{
		PaymentIntentID: lo.ToPtr("pi_1"),
		Amount:          4000,
		Currency:        "GBP",
		Status:          "succeeded",
		EventID:         "evt_2",
	}))

	var n int64
	require.NoError(t, gdb.Model(&models.Payment{}).Count(&n).Error)
	require.Equal(t, int64(1), n)

	p, err := s.GetByPaymentIntent(ctx, "pi_1")
	require.NoError(t, err)
	require.Equal(t, "succeeded", p.Status)
	require.Equal(t, "evt_2", p.EventID)
	require.Equal(t, "GBP", p.Currency)
	require.Equal(t, "ord_A", *p.OrderID, "linkage kept")
	require.Equal(t, "cs_1", *p.CheckoutSessionID)
	require.Equal(t, "jo@example.com", p.CustomerEmail)
}

func TestUpsert_WithoutIntentInserts(t *testing.T) {
	gdb := dbtest.New(t)
	s := New(gdb, zap.NewNop().Sugar())
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		require.NoError(t, s.Upsert(ctx, &models.Payment{PaymentIntentID: lo.ToPtr(""), Amount: 100, Currency: "GBP", Status: "paid"}))
	}
	res, err := s.Scan(ctx, &ScanPaymentsRequest{
		Filters: []*types.CommonFilter{{Field: "status", Operator: types.CommonFilterOperatorEq, Values: []any{"paid"}}},
	})
	require.NoError(t, err)
	require.Equal(t, int64(2), res.Total)

	_, err = s.Scan(ctx, &ScanPaymentsRequest{Filters: []*types.CommonFilter{{Field: "secret", Operator: types.CommonFilterOperatorEq, Values: []any{1}}}})
	require.Error(t, err)
}

func TestScan(t *testing.T) {
	s := New(dbtest.New(t), zap.NewNop().Sugar())
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		require.NoError(t, s.Upsert(ctx, &models.Payment{
			PaymentIntentID: lo.ToPtr(fmt.Sprintf("pi_%d", i)),
			Amount:          int64(1000 * (i + 1)),
			Currency:        "GBP",
			Status:          lo.Ternary(i == 0, "unpaid", "succeeded"),
		}))
	}

	res, err := s.Scan(ctx, &ScanPaymentsRequest{
		Filters: []*types.CommonFilter{{Field: "status", Operator: types.CommonFilterOperatorEq, Values: []any{"succeeded"}}},
	})
	require.NoError(t, err)
	require.Equal(t, int64(2), res.Total)

	req := &ScanPaymentsRequest{Size: 1 << 20, SortBy: "amount", SortOrder: "asc"}
	res, err = s.Scan(ctx, req)
	require.NoError(t, err)
	require.Equal(t, types.MaxPageSize, req.Size)
	require.Len(t, res.Items, 3)
	require.Equal(t, int64(1000), res.Items[0].Amount)

	_, err = s.Scan(ctx, &ScanPaymentsRequest{SortBy: "secret"})
	require.Error(t, err)
}
