package handlers

import (
	"github.com/fuelflow/fuelflow/internal/app/service/access"
	"github.com/fuelflow/fuelflow/internal/app/service/reconciler"
	"github.com/fuelflow/fuelflow/internal/app/service/statistics"
	"github.com/fuelflow/fuelflow/internal/models"
	"github.com/fuelflow/fuelflow/pkg/response"
)

// RespOK is a generic OK envelope for endpoints returning no specific data.
type RespOK struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    interface{}              `json:"data"`
}

type RespWebhookResult struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    reconciler.Result        `json:"data"`
}

type RespAccessDecision struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    access.Decision          `json:"data"`
}

type RespCreateOrder struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    CreateOrderResponse      `json:"data"`
}

type RespOrder struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    OrderItem                `json:"data"`
}

type RespListOrders struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    ListOrdersResponse       `json:"data"`
}

// RespListPayments documents payment.ScanPaymentsResponse.
type RespListPayments struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    struct {
		Items []models.Payment `json:"items"`
		Total int64            `json:"total"`
	} `json:"data"`
}

// RespListWebhookLogs documents notificationlog.ScanWebhookLogsResponse.
type RespListWebhookLogs struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    struct {
		Items []models.WebhookLog `json:"items"`
		Total int64               `json:"total"`
	} `json:"data"`
}

type RespOrderStatistic struct {
	Code    response.APIResponseCode     `json:"code"`
	Message string                       `json:"message"`
	Data    statistics.StatisticResponse `json:"data"`
}

type RespMembershipStatus struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    access.MembershipStatus  `json:"data"`
}
