package api

import (
	"time"

	"github.com/Harish222600/sonica-backend/internal/domain"
	"github.com/Harish222600/sonica-backend/internal/service/order"
)

// Представления домена для JSON-выдачи. Денежные суммы отдаются
// в минорных единицах, времена — в RFC3339; опциональные даты — null.

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

type productView struct {
	ID                 string    `json:"id"`
	Name               string    `json:"name"`
	Description        string    `json:"description"`
	Category           string    `json:"category"`
	PriceMinor         int64     `json:"price_minor"`
	DiscountPriceMinor int64     `json:"discount_price_minor,omitempty"`
	EffectivePrice     int64     `json:"effective_price_minor"`
	Stock              int32     `json:"stock"`
	Reserved           int32     `json:"reserved"`
	Available          int32     `json:"available"`
	LowStockThreshold  int32     `json:"low_stock_threshold"`
	RatingAvg          float64   `json:"rating_avg"`
	RatingCount        int32     `json:"rating_count"`
	ImageURL           string    `json:"image_url,omitempty"`
	Active             bool      `json:"active"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

func toProductView(p domain.Product) productView {
	return productView{
		ID:                 p.ID,
		Name:               p.Name,
		Description:        p.Description,
		Category:           string(p.Category),
		PriceMinor:         p.PriceMinor,
		DiscountPriceMinor: p.DiscountPriceMinor,
		EffectivePrice:     p.EffectivePriceMinor(),
		Stock:              p.Stock,
		Reserved:           p.Reserved,
		Available:          p.Available(),
		LowStockThreshold:  p.LowStockThreshold,
		RatingAvg:          p.RatingAvg,
		RatingCount:        p.RatingCount,
		ImageURL:           p.ImageURL,
		Active:             p.Active,
		CreatedAt:          p.CreatedAt,
		UpdatedAt:          p.UpdatedAt,
	}
}

func toProductViews(products []domain.Product) []productView {
	views := make([]productView, 0, len(products))
	for _, p := range products {
		views = append(views, toProductView(p))
	}
	return views
}

type cartItemView struct {
	ProductID  string    `json:"product_id"`
	Qty        int32     `json:"qty"`
	PriceMinor int64     `json:"price_minor"`
	AddedAt    time.Time `json:"added_at"`
}

type cartView struct {
	ID         string         `json:"id"`
	UserID     string         `json:"user_id"`
	Items      []cartItemView `json:"items"`
	TotalMinor int64          `json:"total_minor"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

func toCartView(c domain.Cart) cartView {
	items := make([]cartItemView, 0, len(c.Items))
	for _, item := range c.Items {
		items = append(items, cartItemView{
			ProductID:  item.ProductID,
			Qty:        item.Qty,
			PriceMinor: item.PriceMinor,
			AddedAt:    item.AddedAt,
		})
	}
	return cartView{
		ID:         c.ID,
		UserID:     c.UserID,
		Items:      items,
		TotalMinor: c.TotalMinor(),
		UpdatedAt:  c.UpdatedAt,
	}
}

type orderItemView struct {
	ID         string `json:"id"`
	ProductID  string `json:"product_id"`
	Name       string `json:"name"`
	Qty        int32  `json:"qty"`
	PriceMinor int64  `json:"price_minor"`
}

type historyEntryView struct {
	Status   string    `json:"status"`
	Note     string    `json:"note,omitempty"`
	Actor    string    `json:"actor,omitempty"`
	Occurred time.Time `json:"occurred"`
}

type paymentView struct {
	IntentID string     `json:"intent_id,omitempty"`
	Method   string     `json:"method,omitempty"`
	State    string     `json:"state"`
	PaidAt   *time.Time `json:"paid_at,omitempty"`
}

type orderView struct {
	ID                 string             `json:"id"`
	OrderNumber        string             `json:"order_number"`
	UserID             string             `json:"user_id"`
	Status             string             `json:"status"`
	Items              []orderItemView    `json:"items"`
	AmountMinor        int64              `json:"amount_minor"`
	ShippingAddress    string             `json:"shipping_address"`
	Payment            paymentView        `json:"payment"`
	DeliveryPartnerID  string             `json:"delivery_partner_id,omitempty"`
	EstimatedDelivery  *time.Time         `json:"estimated_delivery,omitempty"`
	ActualDelivery     *time.Time         `json:"actual_delivery,omitempty"`
	CancellationReason string             `json:"cancellation_reason,omitempty"`
	InvoiceNumber      string             `json:"invoice_number,omitempty"`
	StatusHistory      []historyEntryView `json:"status_history,omitempty"`
	CreatedAt          time.Time          `json:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at"`
}

func toOrderView(o domain.Order) orderView {
	items := make([]orderItemView, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, orderItemView{
			ID:         item.ID,
			ProductID:  item.ProductID,
			Name:       item.Name,
			Qty:        item.Qty,
			PriceMinor: item.PriceMinor,
		})
	}
	history := make([]historyEntryView, 0, len(o.StatusHistory))
	for _, entry := range o.StatusHistory {
		history = append(history, historyEntryView{
			Status:   string(entry.Status),
			Note:     entry.Note,
			Actor:    entry.Actor,
			Occurred: entry.Occurred,
		})
	}
	return orderView{
		ID:              o.ID,
		OrderNumber:     o.OrderNumber,
		UserID:          o.UserID,
		Status:          string(o.Status),
		Items:           items,
		AmountMinor:     o.AmountMinor,
		ShippingAddress: o.ShippingAddress,
		Payment: paymentView{
			IntentID: o.Payment.IntentID,
			Method:   o.Payment.Method,
			State:    string(o.Payment.State),
			PaidAt:   timePtr(o.Payment.PaidAt),
		},
		DeliveryPartnerID:  o.Delivery.PartnerID,
		EstimatedDelivery:  timePtr(o.Delivery.EstimatedDate),
		ActualDelivery:     timePtr(o.Delivery.ActualDate),
		CancellationReason: o.CancellationReason,
		InvoiceNumber:      o.Invoice.Number,
		StatusHistory:      history,
		CreatedAt:          o.CreatedAt,
		UpdatedAt:          o.UpdatedAt,
	}
}

func toOrderViews(orders []domain.Order) []orderView {
	views := make([]orderView, 0, len(orders))
	for _, o := range orders {
		views = append(views, toOrderView(o))
	}
	return views
}

type deliveryHistoryView struct {
	Status   string    `json:"status"`
	Note     string    `json:"note,omitempty"`
	Location string    `json:"location,omitempty"`
	Actor    string    `json:"actor,omitempty"`
	Occurred time.Time `json:"occurred"`
}

type deliveryView struct {
	ID                 string                `json:"id"`
	OrderID            string                `json:"order_id"`
	PartnerID          string                `json:"partner_id"`
	Status             string                `json:"status"`
	EstimatedDate      *time.Time            `json:"estimated_date,omitempty"`
	ActualDeliveryDate *time.Time            `json:"actual_delivery_date,omitempty"`
	PickupAddress      string                `json:"pickup_address,omitempty"`
	DeliveryAddress    string                `json:"delivery_address"`
	ProofOfDelivery    string                `json:"proof_of_delivery,omitempty"`
	FailureReason      string                `json:"failure_reason,omitempty"`
	Attempts           int32                 `json:"attempts"`
	StatusHistory      []deliveryHistoryView `json:"status_history,omitempty"`
	CreatedAt          time.Time             `json:"created_at"`
	UpdatedAt          time.Time             `json:"updated_at"`
}

func toDeliveryView(d domain.Delivery) deliveryView {
	history := make([]deliveryHistoryView, 0, len(d.StatusHistory))
	for _, entry := range d.StatusHistory {
		history = append(history, deliveryHistoryView{
			Status:   string(entry.Status),
			Note:     entry.Note,
			Location: entry.Location,
			Actor:    entry.Actor,
			Occurred: entry.Occurred,
		})
	}
	return deliveryView{
		ID:                 d.ID,
		OrderID:            d.OrderID,
		PartnerID:          d.PartnerID,
		Status:             string(d.Status),
		EstimatedDate:      timePtr(d.EstimatedDate),
		ActualDeliveryDate: timePtr(d.ActualDeliveryDate),
		PickupAddress:      d.PickupAddress,
		DeliveryAddress:    d.DeliveryAddress,
		ProofOfDelivery:    d.ProofOfDelivery,
		FailureReason:      d.FailureReason,
		Attempts:           d.Attempts,
		StatusHistory:      history,
		CreatedAt:          d.CreatedAt,
		UpdatedAt:          d.UpdatedAt,
	}
}

func toDeliveryViews(deliveries []domain.Delivery) []deliveryView {
	views := make([]deliveryView, 0, len(deliveries))
	for _, d := range deliveries {
		views = append(views, toDeliveryView(d))
	}
	return views
}

type reviewView struct {
	ID               string    `json:"id"`
	Kind             string    `json:"kind"`
	UserID           string    `json:"user_id"`
	ProductID        string    `json:"product_id,omitempty"`
	OrderID          string    `json:"order_id,omitempty"`
	PartnerID        string    `json:"partner_id,omitempty"`
	Rating           int32     `json:"rating"`
	Title            string    `json:"title,omitempty"`
	Comment          string    `json:"comment,omitempty"`
	VerifiedPurchase bool      `json:"verified_purchase"`
	IsApproved       bool      `json:"is_approved"`
	HelpfulCount     int32     `json:"helpful_count"`
	CreatedAt        time.Time `json:"created_at"`
}

func toReviewView(r domain.Review) reviewView {
	return reviewView{
		ID:               r.ID,
		Kind:             string(r.Kind),
		UserID:           r.UserID,
		ProductID:        r.ProductID,
		OrderID:          r.OrderID,
		PartnerID:        r.PartnerID,
		Rating:           r.Rating,
		Title:            r.Title,
		Comment:          r.Comment,
		VerifiedPurchase: r.VerifiedPurchase,
		IsApproved:       r.IsApproved,
		HelpfulCount:     r.HelpfulCount,
		CreatedAt:        r.CreatedAt,
	}
}

func toReviewViews(reviews []domain.Review) []reviewView {
	views := make([]reviewView, 0, len(reviews))
	for _, r := range reviews {
		views = append(views, toReviewView(r))
	}
	return views
}

type movementView struct {
	ID            string    `json:"id"`
	ProductID     string    `json:"product_id"`
	Type          string    `json:"type"`
	Qty           int32     `json:"qty"`
	PreviousStock int32     `json:"previous_stock"`
	NewStock      int32     `json:"new_stock"`
	Reason        string    `json:"reason,omitempty"`
	Actor         string    `json:"actor,omitempty"`
	Occurred      time.Time `json:"occurred"`
}

func toMovementViews(movements []domain.StockMovement) []movementView {
	views := make([]movementView, 0, len(movements))
	for _, m := range movements {
		views = append(views, movementView{
			ID:            m.ID,
			ProductID:     m.ProductID,
			Type:          string(m.Type),
			Qty:           m.Qty,
			PreviousStock: m.PreviousStock,
			NewStock:      m.NewStock,
			Reason:        m.Reason,
			Actor:         m.Actor,
			Occurred:      m.Occurred,
		})
	}
	return views
}

type summaryView struct {
	OrdersByStatus map[string]int `json:"orders_by_status"`
	TotalOrders    int            `json:"total_orders"`
	RevenueMinor   int64          `json:"revenue_minor"`
	LowStock       []productView  `json:"low_stock"`
	OutboxPending  int            `json:"outbox_pending"`
	GeneratedAt    time.Time      `json:"generated_at"`
}

func toSummaryView(s order.AnalyticsSummary) summaryView {
	counts := make(map[string]int, len(s.OrdersByStatus))
	for status, count := range s.OrdersByStatus {
		counts[string(status)] = count
	}
	return summaryView{
		OrdersByStatus: counts,
		TotalOrders:    s.TotalOrders,
		RevenueMinor:   s.RevenueMinor,
		LowStock:       toProductViews(s.LowStock),
		OutboxPending:  s.Outbox.PendingCount,
		GeneratedAt:    s.GeneratedAt,
	}
}
