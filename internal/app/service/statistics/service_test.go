package statistics

import (
	"context"
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/fuelflow/fuelflow/internal/models"
	"github.com/fuelflow/fuelflow/internal/platform/db/dbtest"
	"github.com/fuelflow/fuelflow/pkg/tool"
	"github.com/fuelflow/fuelflow/pkg/types"
)

func seedOrder(t *testing.T, db *gorm.DB, fuel types.FuelType, currency string, total int64, created time.Time, paid *time.Time) {
	t.Helper()
	status := types.OrderStatusOrdered
	if paid != nil {
		status = types.OrderStatusPaid
	}
	require.NoError(t, db.Create(&models.Order{
		ID:             tool.GenerateUUIDV7(),
		CustomerEmail:  "jo@example.com",
		FuelType:       fuel,
		QuantityLitres: 10,
		UnitPrice:      total / 10,
		TotalPrice:     total,
		Currency:       currency,
		AddressLine1:   "1 Depot Road",
		City:           "Leeds",
		Postcode:       "LS1 1AA",
		DeliveryDate:   created.AddDate(0, 0, 3),
		Status:         status,
		PaidAt:         paid,
		CreatedAt:      created,
		UpdatedAt:      created,
	}).Error)
}

func newSeeded(t *testing.T) *Service {
	t.Helper()
	db := dbtest.New(t)
	d1 := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	d2 := d1.AddDate(0, 0, 1)
	seedOrder(t, db, types.FuelTypeDiesel, "GBP", 1000, d1, lo.ToPtr(d1.Add(time.Hour)))
	seedOrder(t, db, types.FuelTypePetrol, "GBP", 500, d1, lo.ToPtr(d2))
	seedOrder(t, db, types.FuelTypeDiesel, "EUR", 700, d2, lo.ToPtr(d2))
	seedOrder(t, db, types.FuelTypeDiesel, "GBP", 300, d2, nil)

	for i, st := range []models.ProviderEventStatus{models.ProviderEventStatusProcessed, models.ProviderEventStatusProcessed, models.ProviderEventStatusFailed} {
		require.NoError(t, db.Create(&models.ProviderEvent{
			EventID:    "evt_" + string(rune('a'+i)),
			Provider:   string(types.PaymentProviderStripe),
			EventType:  "payment_intent.succeeded",
			Payload:    datatypes.JSON(`{}`),
			Status:     st,
			ReceivedAt: d2,
		}).Error)
	}
	return New(db, zap.NewNop().Sugar())
}

func items(ids ...StatisticType) []*StatisticDataItem {
	return lo.Map(ids, func(id StatisticType, _ int) *StatisticDataItem { return &StatisticDataItem{ID: id} })
}

func TestGetOrderStatistic_Daily(t *testing.T) {
	s := newSeeded(t)

	res, err := s.GetOrderStatistic(context.Background(), &StatisticRequest{DataItems: items(
		StatisticTypeDailyOrderCount,
		StatisticTypeDailyPaidOrderCount,
		StatisticTypeDailyRevenue,
		StatisticTypeTotalRevenue,
		StatisticTypeOrderStatusCount,
		StatisticTypeDailyWebhookEvents,
	)})
	require.NoError(t, err)

	require.Equal(t, []StatisticResponseDataItem{
		{Date: "2024-05-02", Value: 2},
		{Date: "2024-05-01", Value: 2},
	}, res.DataItems[StatisticTypeDailyOrderCount])

	require.Equal(t, []StatisticResponseDataItem{
		{Date: "2024-05-02", Value: 2},
		{Date: "2024-05-01", Value: 1},
	}, res.DataItems[StatisticTypeDailyPaidOrderCount])

	require.Equal(t, []StatisticResponseDataItem{
		{Date: "2024-05-02", Label: "EUR", Value: 700},
		{Date: "2024-05-02", Label: "GBP", Value: 500},
		{Date: "2024-05-01", Label: "GBP", Value: 1000},
	}, res.DataItems[StatisticTypeDailyRevenue])

	require.Equal(t, []StatisticResponseDataItem{
		{Date: "2024-05-02", Label: "EUR", Value: 700},
		{Date: "2024-05-02", Label: "GBP", Value: 1500},
		{Date: "2024-05-01", Label: "GBP", Value: 1000},
	}, res.DataItems[StatisticTypeTotalRevenue])

	require.Equal(t, []StatisticResponseDataItem{
		{Label: "ordered", Value: 1},
		{Label: "paid", Value: 3},
	}, res.DataItems[StatisticTypeOrderStatusCount])

	require.Equal(t, []StatisticResponseDataItem{
		{Date: "2024-05-02", Label: "failed", Value: 1},
		{Date: "2024-05-02", Label: "processed", Value: 2},
	}, res.DataItems[StatisticTypeDailyWebhookEvents])
}

func TestGetOrderStatistic_Filters(t *testing.T) {
	s := newSeeded(t)

	res, err := s.GetOrderStatistic(context.Background(), &StatisticRequest{
		Filters:   []*types.CommonFilter{{Field: "fuel_type", Operator: types.CommonFilterOperatorEq, Values: []any{"diesel"}}},
		DataItems: items(StatisticTypeDailyRevenue, StatisticTypeDailyWebhookEvents),
	})
	require.NoError(t, err)
	require.Equal(t, []StatisticResponseDataItem{
		{Date: "2024-05-02", Label: "EUR", Value: 700},
		{Date: "2024-05-01", Label: "GBP", Value: 1000},
	}, res.DataItems[StatisticTypeDailyRevenue])
	// order filters do not apply to webhook events
	require.Len(t, res.DataItems[StatisticTypeDailyWebhookEvents], 2)

	_, err = s.GetOrderStatistic(context.Background(), &StatisticRequest{
		Filters:   []*types.CommonFilter{{Field: "1=1; drop table orders", Operator: types.CommonFilterOperatorEq, Values: []any{"x"}}},
		DataItems: items(StatisticTypeDailyOrderCount),
	})
	require.Error(t, err)
}

func TestGetOrderStatistic_UnknownItem(t *testing.T) {
	s := newSeeded(t)
	_, err := s.GetOrderStatistic(context.Background(), &StatisticRequest{DataItems: items("renewal_success_rate")})
	require.ErrorContains(t, err, "invalid data item id")

	_, err = s.GetOrderStatistic(context.Background(), nil)
	require.Error(t, err)
}
