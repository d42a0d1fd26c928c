package order

import (
	"time"

	"github.com/Harish222600/sonica-backend/internal/domain"
)

// AnalyticsSummary — административная сводка по магазину.
type AnalyticsSummary struct {
	OrdersByStatus map[domain.OrderStatus]int
	TotalOrders    int
	// RevenueMinor — сумма оплаченных и более поздних заказов.
	RevenueMinor int64
	LowStock     []domain.Product
	Outbox       domain.OutboxStats
	GeneratedAt  time.Time
}

// revenueStatuses — статусы, заказы в которых считаются выручкой.
var revenueStatuses = []domain.OrderStatus{
	domain.OrderStatusPaid,
	domain.OrderStatusPacked,
	domain.OrderStatusShipped,
	domain.OrderStatusDelivered,
	domain.OrderStatusCompleted,
}

// Summary собирает сводку для административной панели.
func (s *Service) Summary(principal domain.Principal) (AnalyticsSummary, error) {
	if !principal.IsAdmin() {
		return AnalyticsSummary{}, domain.ErrForbidden
	}

	counts, err := s.orders.CountByStatus()
	if err != nil {
		return AnalyticsSummary{}, err
	}

	summary := AnalyticsSummary{
		OrdersByStatus: counts,
		GeneratedAt:    time.Now().UTC(),
	}
	for _, count := range counts {
		summary.TotalOrders += count
	}

	for _, status := range revenueStatuses {
		orders, _, err := s.orders.List(status, 1, 0)
		if err != nil {
			return AnalyticsSummary{}, err
		}
		for _, order := range orders {
			summary.RevenueMinor += order.AmountMinor
		}
	}

	lowStock, err := s.products.LowStock(20)
	if err != nil {
		return AnalyticsSummary{}, err
	}
	summary.LowStock = lowStock

	if s.outbox != nil {
		stats, err := s.outbox.Stats()
		if err != nil {
			return AnalyticsSummary{}, err
		}
		summary.Outbox = stats
	}

	return summary, nil
}
