package statistics

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fuelflow/fuelflow/internal/models"
	"github.com/fuelflow/fuelflow/pkg/logctx"
	"github.com/fuelflow/fuelflow/pkg/types"
)

type StatisticType string

const (
	StatisticTypeDailyOrderCount     StatisticType = "daily_order_count"
	StatisticTypeDailyPaidOrderCount StatisticType = "daily_paid_order_count"
	// revenue counts paid orders only, bucketed by paid_at and labelled by currency
	StatisticTypeDailyRevenue StatisticType = "daily_revenue"
	StatisticTypeTotalRevenue StatisticType = "total_revenue"

	StatisticTypeOrderStatusCount   StatisticType = "order_status_count"
	StatisticTypeDailyWebhookEvents StatisticType = "daily_webhook_events"
)

// OrderFilterFields are the order columns a statistic request may filter on.
var OrderFilterFields = []string{"fuel_type", "currency", "status", "created_at", "paid_at", "customer_email"}

// webhook statistics read provider_events and ignore order filters
var orderBased = []StatisticType{
	StatisticTypeDailyOrderCount,
	StatisticTypeDailyPaidOrderCount,
	StatisticTypeDailyRevenue,
	StatisticTypeTotalRevenue,
	StatisticTypeOrderStatusCount,
}

type StatisticDataItem struct {
	ID StatisticType `json:"id"`
}

type StatisticRequest struct {
	Filters   []*types.CommonFilter `json:"filters"`
	DataItems []*StatisticDataItem  `json:"data_items"`
}

func (r *StatisticRequest) where(statisticType StatisticType) clause.Expression {
	if r == nil || !lo.Contains(orderBased, statisticType) {
		return types.FiltersAnd(nil)
	}
	return types.FiltersAnd(r.Filters)
}

type StatisticResponseDataItem struct {
	Date  string `json:"date,omitempty"`
	Label string `json:"label,omitempty"`
	Value int64  `json:"value"`
}

type StatisticResponse struct {
	DataItems map[StatisticType][]StatisticResponseDataItem `json:"data_items"`
}

type Service struct {
	db  *gorm.DB
	log *zap.SugaredLogger
}

func New(db *gorm.DB, log *zap.SugaredLogger) *Service { return &Service{db: db, log: log} }

type orderRow struct {
	CreatedAt  time.Time
	PaidAt     *time.Time
	Status     types.OrderStatus
	Currency   string
	TotalPrice int64
}

func (s *Service) loadOrders(ctx context.Context, request *StatisticRequest, statisticType StatisticType) ([]orderRow, error) {
	var rows []orderRow
	err := s.db.WithContext(ctx).Model(&models.Order{}).
		Select("created_at, paid_at, status, currency, total_price").
		Where(clause.Where{Exprs: []clause.Expression{request.where(statisticType)}}).
		Find(&rows).Error
	return rows, err
}

func day(t time.Time) string { return t.UTC().Format(time.DateOnly) }

type bucketKey struct{ date, label string }

// buckets sums values per (date, label), newest date first.
func buckets[T any](rows []T, key func(T) (bucketKey, bool), value func(T) int64) []StatisticResponseDataItem {
	sums := map[bucketKey]int64{}
	for _, row := range rows {
		k, ok := key(row)
		if !ok {
			continue
		}
		sums[k] += value(row)
	}
	out := lo.MapToSlice(sums, func(k bucketKey, v int64) StatisticResponseDataItem {
		return StatisticResponseDataItem{Date: k.date, Label: k.label, Value: v}
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date > out[j].Date
		}
		return out[i].Label < out[j].Label
	})
	return out
}

func one[T any](T) int64 { return 1 }

func (s *Service) getDailyOrderCount(ctx context.Context, request *StatisticRequest) ([]StatisticResponseDataItem, error) {
	rows, err := s.loadOrders(ctx, request, StatisticTypeDailyOrderCount)
	if err != nil {
		return nil, err
	}
	return buckets(rows, func(r orderRow) (bucketKey, bool) {
		return bucketKey{date: day(r.CreatedAt)}, true
	}, one[orderRow]), nil
}

func (s *Service) getDailyPaidOrderCount(ctx context.Context, request *StatisticRequest) ([]StatisticResponseDataItem, error) {
	rows, err := s.loadOrders(ctx, request, StatisticTypeDailyPaidOrderCount)
	if err != nil {
		return nil, err
	}
	return buckets(rows, paidKey(false), one[orderRow]), nil
}

func paidKey(byCurrency bool) func(orderRow) (bucketKey, bool) {
	return func(r orderRow) (bucketKey, bool) {
		if r.Status != types.OrderStatusPaid || r.PaidAt == nil {
			return bucketKey{}, false
		}
		k := bucketKey{date: day(*r.PaidAt)}
		if byCurrency {
			k.label = r.Currency
		}
		return k, true
	}
}

func (s *Service) getDailyRevenue(ctx context.Context, request *StatisticRequest) ([]StatisticResponseDataItem, error) {
	rows, err := s.loadOrders(ctx, request, StatisticTypeDailyRevenue)
	if err != nil {
		return nil, err
	}
	return buckets(rows, paidKey(true), func(r orderRow) int64 { return r.TotalPrice }), nil
}

// getTotalRevenue is the running revenue per currency for every day with revenue.
func (s *Service) getTotalRevenue(ctx context.Context, request *StatisticRequest) ([]StatisticResponseDataItem, error) {
	daily, err := s.getDailyRevenue(ctx, request)
	if err != nil {
		return nil, err
	}
	out := make([]StatisticResponseDataItem, len(daily))
	running := map[string]int64{}
	// daily is newest first; accumulate oldest first
	for i := len(daily) - 1; i >= 0; i-- {
		running[daily[i].Label] += daily[i].Value
		out[i] = StatisticResponseDataItem{Date: daily[i].Date, Label: daily[i].Label, Value: running[daily[i].Label]}
	}
	return out, nil
}

func (s *Service) getOrderStatusCount(ctx context.Context, request *StatisticRequest) ([]StatisticResponseDataItem, error) {
	var results []StatisticResponseDataItem
	err := s.db.WithContext(ctx).Model(&models.Order{}).
		Select("status as label, count(*) as value").
		Where(clause.Where{Exprs: []clause.Expression{request.where(StatisticTypeOrderStatusCount)}}).
		Group("status").
		Order("label").
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

func (s *Service) getDailyWebhookEvents(ctx context.Context, _ *StatisticRequest) ([]StatisticResponseDataItem, error) {
	var rows []models.ProviderEvent
	if err := s.db.WithContext(ctx).Select("received_at, status").Find(&rows).Error; err != nil {
		return nil, err
	}
	return buckets(rows, func(e models.ProviderEvent) (bucketKey, bool) {
		return bucketKey{date: day(e.ReceivedAt), label: string(e.Status)}, true
	}, one[models.ProviderEvent]), nil
}

func (s *Service) getStatistic(ctx context.Context, request *StatisticRequest, dataItem *StatisticDataItem) ([]StatisticResponseDataItem, error) {
	switch dataItem.ID {
	case StatisticTypeDailyOrderCount:
		return s.getDailyOrderCount(ctx, request)
	case StatisticTypeDailyPaidOrderCount:
		return s.getDailyPaidOrderCount(ctx, request)
	case StatisticTypeDailyRevenue:
		return s.getDailyRevenue(ctx, request)
	case StatisticTypeTotalRevenue:
		return s.getTotalRevenue(ctx, request)
	case StatisticTypeOrderStatusCount:
		return s.getOrderStatusCount(ctx, request)
	case StatisticTypeDailyWebhookEvents:
		return s.getDailyWebhookEvents(ctx, request)
	default:
		return nil, fmt.Errorf("invalid data item id: %s", dataItem.ID)
	}
}

// GetOrderStatistic computes every requested data item concurrently.
func (s *Service) GetOrderStatistic(ctx context.Context, request *StatisticRequest) (*StatisticResponse, error) {
	if request == nil {
		return nil, fmt.Errorf("nil request")
	}
	if err := types.ValidateFilters(request.Filters, OrderFilterFields); err != nil {
		return nil, err
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
		results  = make(map[StatisticType][]StatisticResponseDataItem, len(request.DataItems))
	)
	for _, item := range request.DataItems {
		if item == nil {
			continue
		}
		wg.Add(1)
		go func(di *StatisticDataItem) {
			defer wg.Done()
			res, err := s.getStatistic(ctx, request, di)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				return
			}
			results[di.ID] = res
		}(item)
	}
	wg.Wait()

	if firstErr != nil {
		logctx.FromCtx(ctx, s.log).Errorw("order_statistic_failed", "err", firstErr)
		return nil, firstErr
	}
	return &StatisticResponse{DataItems: results}, nil
}
