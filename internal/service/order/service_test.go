package order_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Harish222600/sonica-backend/internal/domain"
	"github.com/Harish222600/sonica-backend/internal/service/order"
	"github.com/Harish222600/sonica-backend/internal/service/payment"
	"github.com/Harish222600/sonica-backend/internal/storage/memory"
)

// testEnv собирает сервис заказов поверх in-memory зависимостей.
type testEnv struct {
	svc      *order.Service
	products *memory.ProductStore
	carts    domain.CartRepository
	orders   domain.OrderRepository
	outbox   *memory.OutboxRepository
	signer   *payment.Signer
	gateway  *payment.MockGateway
}

func newTestEnv(t *testing.T, cfg order.Config) *testEnv {
	t.Helper()

	products := memory.NewProductStore()
	carts := memory.NewCartRepository()
	orders := memory.NewOrderRepository()
	outbox := memory.NewOutboxRepository()
	signer := payment.NewSigner("test-secret")
	gateway := payment.NewMockGateway()

	svc := order.NewService(order.Deps{
		Products:   products,
		Ledger:     products,
		Carts:      carts,
		Orders:     orders,
		Deliveries: memory.NewDeliveryRepository(),
		Partners:   memory.NewPartnerRepository(),
		Outbox:     outbox,
		Gateway:    gateway,
		Signer:     signer,
	}, cfg)

	return &testEnv{
		svc:      svc,
		products: products,
		carts:    carts,
		orders:   orders,
		outbox:   outbox,
		signer:   signer,
		gateway:  gateway,
	}
}

func (e *testEnv) seedProduct(t *testing.T, id string, priceMinor int64, stock int32) {
	t.Helper()
	require.NoError(t, e.products.Create(domain.Product{
		ID:         id,
		Name:       "Bike " + id,
		Category:   domain.CategoryRoad,
		PriceMinor: priceMinor,
		Stock:      stock,
		Active:     true,
		CreatedAt:  time.Now().UTC(),
	}))
}

func (e *testEnv) mustCheckout(t *testing.T, userID string) domain.Order {
	t.Helper()
	created, err := e.svc.Checkout(userID, "42 Hill Road, Bengaluru")
	require.NoError(t, err)
	return created
}

// mustPay проводит заказ через intent + verify с корректной подписью.
func (e *testEnv) mustPay(t *testing.T, principal domain.Principal, orderID string) domain.Order {
	t.Helper()

	intent, err := e.svc.CreatePaymentIntent(principal, orderID)
	require.NoError(t, err)

	signature := e.signer.SignPayment(intent.IntentID, "pay_1")
	paid, err := e.svc.VerifyPayment(principal, orderID, "pay_1", signature, "card")
	require.NoError(t, err)
	return paid
}

func customer(id string) domain.Principal {
	return domain.Principal{ID: id, Role: domain.RoleCustomer}
}

func admin() domain.Principal {
	return domain.Principal{ID: "admin-1", Role: domain.RoleAdmin}
}

func TestService_Get_OwnershipEnforced(t *testing.T) {
	env := newTestEnv(t, order.Config{StrictTransitions: true})
	env.seedProduct(t, "p1", 1000, 10)
	_, err := env.svc.AddToCart("u1", "p1", 1)
	require.NoError(t, err)
	created := env.mustCheckout(t, "u1")

	_, err = env.svc.Get(customer("u2"), created.ID)
	require.ErrorIs(t, err, domain.ErrForbidden)

	got, err := env.svc.Get(admin(), created.ID)
	require.NoError(t, err)
	require.Equal(t, created.ID, got.ID)
}

func TestService_ListAll_AdminOnly(t *testing.T) {
	env := newTestEnv(t, order.Config{StrictTransitions: true})

	_, _, err := env.svc.ListAll(customer("u1"), "", 1, 10)
	require.ErrorIs(t, err, domain.ErrForbidden)

	_, _, err = env.svc.ListAll(admin(), "teleported", 1, 10)
	require.ErrorIs(t, err, domain.ErrInvalidTransition)

	_, total, err := env.svc.ListAll(admin(), "", 1, 10)
	require.NoError(t, err)
	require.Zero(t, total)
}
