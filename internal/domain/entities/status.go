package entities

import "strings"

// OrderStatus is the lifecycle state of a service request.
//
// Canonical spelling is CANCELED; the legacy CANCELLED spelling is folded into it by ParseOrderStatus.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "PENDING"
	OrderStatusAccepted   OrderStatus = "ACCEPTED"
	OrderStatusComing     OrderStatus = "COMING"
	OrderStatusInProgress OrderStatus = "IN_PROGRESS"
	OrderStatusFinished   OrderStatus = "FINISHED"
	OrderStatusInvoiced   OrderStatus = "INVOICED"
	OrderStatusPaid       OrderStatus = "PAID"
	OrderStatusDeclined   OrderStatus = "DECLINED"
	OrderStatusCanceled   OrderStatus = "CANCELED"
)

// AllOrderStatuses lists every registered status in lifecycle order.
var AllOrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusAccepted,
	OrderStatusComing,
	OrderStatusInProgress,
	OrderStatusFinished,
	OrderStatusInvoiced,
	OrderStatusPaid,
	OrderStatusDeclined,
	OrderStatusCanceled,
}

func (s OrderStatus) String() string {
	return string(s)
}

// ParseOrderStatus normalises a raw status literal to a registered status.
func ParseOrderStatus(raw string) (OrderStatus, bool) {
	v := strings.ToUpper(strings.TrimSpace(raw))
	v = strings.ReplaceAll(v, "-", "_")
	if v == "CANCELLED" {
		v = string(OrderStatusCanceled)
	}
	for _, s := range AllOrderStatuses {
		if string(s) == v {
			return s, true
		}
	}
	return "", false
}
