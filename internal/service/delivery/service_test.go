package delivery_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Harish222600/sonica-backend/internal/domain"
	"github.com/Harish222600/sonica-backend/internal/service/delivery"
	"github.com/Harish222600/sonica-backend/internal/storage/local"
	"github.com/Harish222600/sonica-backend/internal/storage/memory"
)

type testEnv struct {
	svc        *delivery.Service
	deliveries domain.DeliveryRepository
	orders     domain.OrderRepository
	outbox     *memory.OutboxRepository
	filesRoot  string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	deliveries := memory.NewDeliveryRepository()
	orders := memory.NewOrderRepository()
	outbox := memory.NewOutboxRepository()
	filesRoot := t.TempDir()

	svc := delivery.NewService(delivery.Deps{
		Deliveries: deliveries,
		Orders:     orders,
		Files:      local.NewFileStorage(filesRoot, "http://localhost:8080/files"),
		Outbox:     outbox,
	})

	return &testEnv{
		svc:        svc,
		deliveries: deliveries,
		orders:     orders,
		outbox:     outbox,
		filesRoot:  filesRoot,
	}
}

// seedAssigned создаёт оплаченный заказ с назначенной доставкой.
func (e *testEnv) seedAssigned(t *testing.T, orderID, userID, partnerID string) domain.Delivery {
	t.Helper()
	now := time.Now().UTC()

	require.NoError(t, e.orders.Create(domain.Order{
		ID:              orderID,
		UserID:          userID,
		OrderNumber:     domain.NewOrderNumber(now),
		Status:          domain.OrderStatusPaid,
		AmountMinor:     1000,
		ShippingAddress: "addr",
		Items: []domain.OrderItem{
			{ID: orderID + "-item", ProductID: "p1", Name: "Bike", Qty: 1, PriceMinor: 1000},
		},
		Payment:   domain.PaymentInfo{State: domain.PaymentStateCompleted},
		CreatedAt: now,
		UpdatedAt: now,
	}))

	d := domain.Delivery{
		ID:              "delivery-" + orderID,
		OrderID:         orderID,
		PartnerID:       partnerID,
		Status:          domain.DeliveryStatusAssigned,
		DeliveryAddress: "addr",
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	require.NoError(t, e.deliveries.Create(d))
	return d
}

func partner(id string) domain.Principal {
	return domain.Principal{ID: id, Role: domain.RoleDeliveryPartner}
}

func admin() domain.Principal {
	return domain.Principal{ID: "admin-1", Role: domain.RoleAdmin}
}

func customer(id string) domain.Principal {
	return domain.Principal{ID: id, Role: domain.RoleCustomer}
}

func TestSetStatus_HappyChainProjectsOrder(t *testing.T) {
	env := newTestEnv(t)
	d := env.seedAssigned(t, "o1", "u1", "partner-1")

	steps := []struct {
		status      domain.DeliveryStatus
		orderStatus domain.OrderStatus
	}{
		{domain.DeliveryStatusPicked, domain.OrderStatusPacked},
		{domain.DeliveryStatusInTransit, domain.OrderStatusShipped},
		{domain.DeliveryStatusOutForDelivery, domain.OrderStatusShipped},
		{domain.DeliveryStatusDelivered, domain.OrderStatusDelivered},
	}

	for _, step := range steps {
		updated, err := env.svc.SetStatus(partner("partner-1"), d.ID, delivery.UpdateInput{
			Status:   step.status,
			Location: "en route",
		})
		require.NoError(t, err, "transition to %s", step.status)
		require.Equal(t, step.status, updated.Status)

		order, err := env.orders.Get("o1")
		require.NoError(t, err)
		require.Equal(t, step.orderStatus, order.Status, "order projection for %s", step.status)
	}

	final, err := env.svc.Get(partner("partner-1"), d.ID)
	require.NoError(t, err)
	require.False(t, final.ActualDeliveryDate.IsZero())
	require.EqualValues(t, 1, final.Attempts)
	require.Len(t, final.StatusHistory, 4)

	order, _ := env.orders.Get("o1")
	require.False(t, order.Delivery.ActualDate.IsZero())
}

func TestSetStatus_BackwardForbidden(t *testing.T) {
	env := newTestEnv(t)
	d := env.seedAssigned(t, "o1", "u1", "partner-1")

	_, err := env.svc.SetStatus(partner("partner-1"), d.ID, delivery.UpdateInput{Status: domain.DeliveryStatusInTransit})
	require.NoError(t, err)

	_, err = env.svc.SetStatus(partner("partner-1"), d.ID, delivery.UpdateInput{Status: domain.DeliveryStatusPicked})
	require.ErrorIs(t, err, domain.ErrInvalidTransition)

	_, err = env.svc.SetStatus(partner("partner-1"), d.ID, delivery.UpdateInput{Status: "teleported"})
	require.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestSetStatus_FailedFromAnyNonTerminal(t *testing.T) {
	env := newTestEnv(t)
	d := env.seedAssigned(t, "o1", "u1", "partner-1")

	failed, err := env.svc.SetStatus(partner("partner-1"), d.ID, delivery.UpdateInput{
		Status:        domain.DeliveryStatusFailed,
		FailureReason: "recipient unavailable",
	})
	require.NoError(t, err)
	require.Equal(t, "recipient unavailable", failed.FailureReason)
	require.EqualValues(t, 1, failed.Attempts)

	// Из терминального статуса переходы запрещены.
	_, err = env.svc.SetStatus(partner("partner-1"), d.ID, delivery.UpdateInput{Status: domain.DeliveryStatusPicked})
	require.ErrorIs(t, err, domain.ErrInvalidTransition)

	// Провал доставки не двигает заказ.
	order, _ := env.orders.Get("o1")
	require.Equal(t, domain.OrderStatusPaid, order.Status)
}

func TestSetStatus_OnlyAssignedPartnerOrAdmin(t *testing.T) {
	env := newTestEnv(t)
	d := env.seedAssigned(t, "o1", "u1", "partner-1")

	_, err := env.svc.SetStatus(partner("partner-2"), d.ID, delivery.UpdateInput{Status: domain.DeliveryStatusPicked})
	require.ErrorIs(t, err, domain.ErrForbidden)

	_, err = env.svc.SetStatus(admin(), d.ID, delivery.UpdateInput{Status: domain.DeliveryStatusPicked})
	require.NoError(t, err)
}

func TestGet_Authorization(t *testing.T) {
	env := newTestEnv(t)
	d := env.seedAssigned(t, "o1", "u1", "partner-1")

	// Владелец заказа видит доставку.
	got, err := env.svc.GetByOrder(customer("u1"), "o1")
	require.NoError(t, err)
	require.Equal(t, d.ID, got.ID)

	_, err = env.svc.Get(customer("u2"), d.ID)
	require.ErrorIs(t, err, domain.ErrForbidden)

	_, err = env.svc.Get(partner("partner-2"), d.ID)
	require.ErrorIs(t, err, domain.ErrForbidden)
}

func TestConfirmReceipt(t *testing.T) {
	env := newTestEnv(t)
	d := env.seedAssigned(t, "o1", "u1", "partner-1")

	// До вручения подтверждать нечего.
	_, err := env.svc.ConfirmReceipt(customer("u1"), "o1")
	require.ErrorIs(t, err, domain.ErrInvalidTransition)

	for _, status := range []domain.DeliveryStatus{domain.DeliveryStatusPicked, domain.DeliveryStatusDelivered} {
		_, err = env.svc.SetStatus(partner("partner-1"), d.ID, delivery.UpdateInput{Status: status})
		require.NoError(t, err)
	}

	_, err = env.svc.ConfirmReceipt(customer("u2"), "o1")
	require.ErrorIs(t, err, domain.ErrForbidden)

	completed, err := env.svc.ConfirmReceipt(customer("u1"), "o1")
	require.NoError(t, err)
	require.Equal(t, domain.OrderStatusCompleted, completed.Status)

	// Повторное подтверждение отклоняется.
	_, err = env.svc.ConfirmReceipt(customer("u1"), "o1")
	require.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestConfirm_TerminalHandover(t *testing.T) {
	env := newTestEnv(t)
	d := env.seedAssigned(t, "o1", "u1", "partner-1")

	// Подтверждать может только назначенный курьер или администратор.
	_, err := env.svc.Confirm(customer("u1"), d.ID, delivery.ConfirmInput{})
	require.ErrorIs(t, err, domain.ErrForbidden)
	_, err = env.svc.Confirm(partner("partner-2"), d.ID, delivery.ConfirmInput{})
	require.ErrorIs(t, err, domain.ErrForbidden)

	// Вручение из in_transit, минуя out_for_delivery и delivered.
	_, err = env.svc.SetStatus(partner("partner-1"), d.ID, delivery.UpdateInput{Status: domain.DeliveryStatusPicked})
	require.NoError(t, err)
	_, err = env.svc.SetStatus(partner("partner-1"), d.ID, delivery.UpdateInput{Status: domain.DeliveryStatusInTransit})
	require.NoError(t, err)

	confirmed, err := env.svc.Confirm(partner("partner-1"), d.ID, delivery.ConfirmInput{
		CustomerSignature: "sig-data",
		ProofOfDelivery:   "http://files/proof.jpg",
		Note:              "handed to customer",
	})
	require.NoError(t, err)
	require.Equal(t, domain.DeliveryStatusDelivered, confirmed.Status)
	require.False(t, confirmed.ActualDeliveryDate.IsZero())
	require.Equal(t, "sig-data", confirmed.CustomerSignature)
	require.Equal(t, "http://files/proof.jpg", confirmed.ProofOfDelivery)
	require.EqualValues(t, 1, confirmed.Attempts)

	// Заказ закрыт сразу, без отдельного подтверждения покупателем.
	o, err := env.orders.Get("o1")
	require.NoError(t, err)
	require.Equal(t, domain.OrderStatusCompleted, o.Status)
	require.True(t, o.Delivery.ActualDate.Equal(confirmed.ActualDeliveryDate))

	// Повторное подтверждение по терминальной доставке отклоняется.
	_, err = env.svc.Confirm(partner("partner-1"), d.ID, delivery.ConfirmInput{})
	require.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestUploadProof(t *testing.T) {
	env := newTestEnv(t)
	d := env.seedAssigned(t, "o1", "u1", "partner-1")

	_, err := env.svc.UploadProof(customer("u1"), d.ID, []byte("jpeg-bytes"), "image/jpeg")
	require.ErrorIs(t, err, domain.ErrForbidden)

	updated, err := env.svc.UploadProof(partner("partner-1"), d.ID, []byte("jpeg-bytes"), "image/jpeg")
	require.NoError(t, err)
	require.Equal(t, "http://localhost:8080/files/delivery-proofs/"+d.ID, updated.ProofOfDelivery)

	stored, err := os.ReadFile(filepath.Join(env.filesRoot, "delivery-proofs", d.ID))
	require.NoError(t, err)
	require.Equal(t, []byte("jpeg-bytes"), stored)
}

func TestListMine(t *testing.T) {
	env := newTestEnv(t)
	env.seedAssigned(t, "o1", "u1", "partner-1")
	env.seedAssigned(t, "o2", "u2", "partner-1")
	env.seedAssigned(t, "o3", "u3", "partner-2")

	deliveries, total, err := env.svc.ListMine("partner-1", 1, 10)
	require.NoError(t, err)
	require.Equal(t, 2, total)
	require.Len(t, deliveries, 2)
}
