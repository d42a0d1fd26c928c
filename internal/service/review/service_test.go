package review_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Harish222600/sonica-backend/internal/domain"
	"github.com/Harish222600/sonica-backend/internal/service/review"
	"github.com/Harish222600/sonica-backend/internal/storage/memory"
)

type testEnv struct {
	svc        *review.Service
	products   *memory.ProductStore
	orders     domain.OrderRepository
	deliveries domain.DeliveryRepository
	partners   domain.PartnerRepository
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	products := memory.NewProductStore()
	orders := memory.NewOrderRepository()
	deliveries := memory.NewDeliveryRepository()
	partners := memory.NewPartnerRepository()

	svc := review.NewService(review.Deps{
		Reviews:    memory.NewReviewRepository(),
		Products:   products,
		Orders:     orders,
		Deliveries: deliveries,
		Partners:   partners,
	})

	return &testEnv{svc: svc, products: products, orders: orders, deliveries: deliveries, partners: partners}
}

func (e *testEnv) seedProduct(t *testing.T, id string) {
	t.Helper()
	now := time.Now().UTC()
	require.NoError(t, e.products.Create(domain.Product{
		ID:         id,
		Name:       "Gravel Bike",
		Category:   domain.CategoryRoad,
		PriceMinor: 4500,
		Stock:      10,
		Active:     true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}))
}

// seedDeliveredOrder создаёт доставленный заказ с назначенным курьером.
func (e *testEnv) seedDeliveredOrder(t *testing.T, orderID, userID, productID, partnerID string) {
	t.Helper()
	now := time.Now().UTC()

	require.NoError(t, e.orders.Create(domain.Order{
		ID:              orderID,
		UserID:          userID,
		OrderNumber:     domain.NewOrderNumber(now),
		Status:          domain.OrderStatusDelivered,
		AmountMinor:     4500,
		ShippingAddress: "addr",
		Items: []domain.OrderItem{
			{ID: orderID + "-item", ProductID: productID, Name: "Gravel Bike", Qty: 1, PriceMinor: 4500},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}))

	if partnerID != "" {
		require.NoError(t, e.partners.Ensure(domain.PartnerProfile{PartnerID: partnerID, DisplayName: partnerID}))
		require.NoError(t, e.deliveries.Create(domain.Delivery{
			ID:              "delivery-" + orderID,
			OrderID:         orderID,
			PartnerID:       partnerID,
			Status:          domain.DeliveryStatusDelivered,
			DeliveryAddress: "addr",
			CreatedAt:       now,
			UpdatedAt:       now,
		}))
	}
}

func customer(id string) domain.Principal {
	return domain.Principal{ID: id, Role: domain.RoleCustomer}
}

func admin() domain.Principal {
	return domain.Principal{ID: "admin-1", Role: domain.RoleAdmin}
}

func TestCreateProductReview(t *testing.T) {
	env := newTestEnv(t)
	env.seedProduct(t, "p1")
	env.seedDeliveredOrder(t, "o1", "u1", "p1", "")

	created, err := env.svc.CreateProductReview(customer("u1"), "p1", 4, "Solid", "Handles gravel well")
	require.NoError(t, err)
	require.True(t, created.VerifiedPurchase, "delivered order makes the purchase verified")
	require.True(t, created.IsApproved)

	// Без покупки флаг не выставляется.
	other, err := env.svc.CreateProductReview(customer("u2"), "p1", 5, "", "")
	require.NoError(t, err)
	require.False(t, other.VerifiedPurchase)

	// Повторный отзыв той же пары отклоняется.
	_, err = env.svc.CreateProductReview(customer("u1"), "p1", 5, "", "")
	require.ErrorIs(t, err, domain.ErrDuplicateReview)

	_, err = env.svc.CreateProductReview(customer("u1"), "ghost", 4, "", "")
	require.ErrorIs(t, err, domain.ErrProductNotFound)

	_, err = env.svc.CreateProductReview(customer("u3"), "p1", 0, "", "")
	require.ErrorIs(t, err, domain.ErrRatingOutOfRange)

	product, err := env.products.Get("p1")
	require.NoError(t, err)
	require.Equal(t, 4.5, product.RatingAvg)
	require.EqualValues(t, 2, product.RatingCount)
}

func TestCreateDeliveryReview(t *testing.T) {
	env := newTestEnv(t)
	env.seedProduct(t, "p1")
	env.seedDeliveredOrder(t, "o1", "u1", "p1", "partner-1")

	_, err := env.svc.CreateDeliveryReview(customer("u2"), "o1", 5, "", "")
	require.ErrorIs(t, err, domain.ErrForbidden)

	created, err := env.svc.CreateDeliveryReview(customer("u1"), "o1", 5, "Fast", "Arrived early")
	require.NoError(t, err)
	require.Equal(t, domain.ReviewKindDelivery, created.Kind)
	require.Equal(t, "partner-1", created.PartnerID)

	// Один отзыв на заказ.
	_, err = env.svc.CreateDeliveryReview(customer("u1"), "o1", 4, "", "")
	require.ErrorIs(t, err, domain.ErrDuplicateReview)

	partner, err := env.partners.Get("partner-1")
	require.NoError(t, err)
	require.Equal(t, 5.0, partner.RatingAvg)
	require.EqualValues(t, 1, partner.RatingCount)
}

func TestCreateDeliveryReview_Eligibility(t *testing.T) {
	env := newTestEnv(t)
	env.seedProduct(t, "p1")

	// Заказ ещё не доставлен.
	now := time.Now().UTC()
	require.NoError(t, env.orders.Create(domain.Order{
		ID:              "o-pending",
		UserID:          "u1",
		OrderNumber:     domain.NewOrderNumber(now),
		Status:          domain.OrderStatusPaid,
		AmountMinor:     4500,
		ShippingAddress: "addr",
		Items: []domain.OrderItem{
			{ID: "i1", ProductID: "p1", Name: "Gravel Bike", Qty: 1, PriceMinor: 4500},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}))
	_, err := env.svc.CreateDeliveryReview(customer("u1"), "o-pending", 5, "", "")
	require.ErrorIs(t, err, domain.ErrReviewNotEligible)

	// Доставленный заказ без записи о доставке.
	env.seedDeliveredOrder(t, "o-no-delivery", "u1", "p1", "")
	_, err = env.svc.CreateDeliveryReview(customer("u1"), "o-no-delivery", 5, "", "")
	require.ErrorIs(t, err, domain.ErrPartnerNotAssigned)
}

func TestUpdate_OwnershipAndRecompute(t *testing.T) {
	env := newTestEnv(t)
	env.seedProduct(t, "p1")
	env.seedDeliveredOrder(t, "o1", "u1", "p1", "")

	created, err := env.svc.CreateProductReview(customer("u1"), "p1", 2, "Meh", "")
	require.NoError(t, err)

	_, err = env.svc.Update(customer("u2"), created.ID, 5, "", "")
	require.ErrorIs(t, err, domain.ErrForbidden)

	_, err = env.svc.Update(customer("u1"), created.ID, 6, "", "")
	require.ErrorIs(t, err, domain.ErrRatingOutOfRange)

	updated, err := env.svc.Update(customer("u1"), created.ID, 5, "Better", "Grew on me")
	require.NoError(t, err)
	require.EqualValues(t, 5, updated.Rating)

	product, _ := env.products.Get("p1")
	require.Equal(t, 5.0, product.RatingAvg)
}

func TestDelete(t *testing.T) {
	env := newTestEnv(t)
	env.seedProduct(t, "p1")

	created, err := env.svc.CreateProductReview(customer("u1"), "p1", 4, "", "")
	require.NoError(t, err)

	require.ErrorIs(t, env.svc.Delete(customer("u2"), created.ID), domain.ErrForbidden)

	// Администратор удаляет чужой отзыв, рейтинг обнуляется.
	require.NoError(t, env.svc.Delete(admin(), created.ID))

	product, _ := env.products.Get("p1")
	require.Equal(t, 0.0, product.RatingAvg)
	require.EqualValues(t, 0, product.RatingCount)

	require.ErrorIs(t, env.svc.Delete(admin(), created.ID), domain.ErrReviewNotFound)
}

func TestModerate(t *testing.T) {
	env := newTestEnv(t)
	env.seedProduct(t, "p1")

	first, err := env.svc.CreateProductReview(customer("u1"), "p1", 5, "", "")
	require.NoError(t, err)
	_, err = env.svc.CreateProductReview(customer("u2"), "p1", 2, "", "")
	require.NoError(t, err)

	_, err = env.svc.Moderate(customer("u1"), first.ID, false)
	require.ErrorIs(t, err, domain.ErrForbidden)

	hidden, err := env.svc.Moderate(admin(), first.ID, false)
	require.NoError(t, err)
	require.False(t, hidden.IsApproved)

	// Скрытый отзыв выпадает из среднего и из выдачи.
	product, _ := env.products.Get("p1")
	require.Equal(t, 2.0, product.RatingAvg)
	require.EqualValues(t, 1, product.RatingCount)

	listed, total, err := env.svc.ListByProduct("p1", 1, 10)
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Len(t, listed, 1)
	require.EqualValues(t, 2, listed[0].Rating)

	restored, err := env.svc.Moderate(admin(), first.ID, true)
	require.NoError(t, err)
	require.True(t, restored.IsApproved)

	product, _ = env.products.Get("p1")
	require.Equal(t, 3.5, product.RatingAvg)
}
