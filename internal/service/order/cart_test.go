package order_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Harish222600/sonica-backend/internal/domain"
	"github.com/Harish222600/sonica-backend/internal/service/order"
)

func TestAddToCart_NewAndMerge(t *testing.T) {
	env := newTestEnv(t, order.Config{StrictTransitions: true})
	env.seedProduct(t, "p1", 1000, 10)

	cart, err := env.svc.AddToCart("u1", "p1", 2)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	require.EqualValues(t, 2, cart.Items[0].Qty)
	require.EqualValues(t, 1000, cart.Items[0].PriceMinor)

	// Повторное добавление сливается в одну позицию.
	cart, err = env.svc.AddToCart("u1", "p1", 3)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	require.EqualValues(t, 5, cart.Items[0].Qty)
}

func TestAddToCart_UsesDiscountPrice(t *testing.T) {
	env := newTestEnv(t, order.Config{StrictTransitions: true})
	env.seedProduct(t, "p1", 1000, 10)

	product, err := env.products.Get("p1")
	require.NoError(t, err)
	product.DiscountPriceMinor = 800
	require.NoError(t, env.products.Save(product))

	cart, err := env.svc.AddToCart("u1", "p1", 1)
	require.NoError(t, err)
	require.EqualValues(t, 800, cart.Items[0].PriceMinor)
}

func TestAddToCart_Validation(t *testing.T) {
	env := newTestEnv(t, order.Config{StrictTransitions: true})
	env.seedProduct(t, "p1", 1000, 3)

	_, err := env.svc.AddToCart("u1", "p1", 0)
	require.ErrorIs(t, err, domain.ErrQtyInvalid)

	_, err = env.svc.AddToCart("u1", "ghost", 1)
	require.ErrorIs(t, err, domain.ErrProductNotFound)

	// Мягкая проверка остатка при добавлении.
	_, err = env.svc.AddToCart("u1", "p1", 4)
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	// Снятый с продажи товар ведёт себя как отсутствующий.
	product, _ := env.products.Get("p1")
	product.Active = false
	require.NoError(t, env.products.Save(product))
	_, err = env.svc.AddToCart("u1", "p1", 1)
	require.ErrorIs(t, err, domain.ErrProductNotFound)
}

func TestUpdateCartItem(t *testing.T) {
	env := newTestEnv(t, order.Config{StrictTransitions: true})
	env.seedProduct(t, "p1", 1000, 10)
	_, err := env.svc.AddToCart("u1", "p1", 2)
	require.NoError(t, err)

	cart, err := env.svc.UpdateCartItem("u1", "p1", 5)
	require.NoError(t, err)
	require.EqualValues(t, 5, cart.Items[0].Qty)

	_, err = env.svc.UpdateCartItem("u1", "p1", 11)
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	_, err = env.svc.UpdateCartItem("u1", "p1", -1)
	require.ErrorIs(t, err, domain.ErrQtyInvalid)

	_, err = env.svc.UpdateCartItem("u1", "ghost", 1)
	require.ErrorIs(t, err, domain.ErrCartItemNotFound)

	// Ноль удаляет позицию.
	cart, err = env.svc.UpdateCartItem("u1", "p1", 0)
	require.NoError(t, err)
	require.Empty(t, cart.Items)
}

func TestUpdateCartItem_KeepsSnapshotPrice(t *testing.T) {
	env := newTestEnv(t, order.Config{StrictTransitions: true})
	env.seedProduct(t, "p1", 1000, 10)
	_, err := env.svc.AddToCart("u1", "p1", 2)
	require.NoError(t, err)

	// Скидка после добавления не трогает уже снятую цену позиции.
	product, _ := env.products.Get("p1")
	product.DiscountPriceMinor = 700
	require.NoError(t, env.products.Save(product))

	cart, err := env.svc.UpdateCartItem("u1", "p1", 4)
	require.NoError(t, err)
	require.EqualValues(t, 1000, cart.Items[0].PriceMinor)

	// Повторное добавление переснимает цену.
	cart, err = env.svc.AddToCart("u1", "p1", 1)
	require.NoError(t, err)
	require.EqualValues(t, 700, cart.Items[0].PriceMinor)
}

func TestRemoveFromCart(t *testing.T) {
	env := newTestEnv(t, order.Config{StrictTransitions: true})
	env.seedProduct(t, "p1", 1000, 10)
	env.seedProduct(t, "p2", 2000, 10)
	_, err := env.svc.AddToCart("u1", "p1", 1)
	require.NoError(t, err)
	_, err = env.svc.AddToCart("u1", "p2", 1)
	require.NoError(t, err)

	cart, err := env.svc.RemoveFromCart("u1", "p1")
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	require.Equal(t, "p2", cart.Items[0].ProductID)

	_, err = env.svc.RemoveFromCart("u1", "p1")
	require.ErrorIs(t, err, domain.ErrCartItemNotFound)
}

func TestGetCart_MissingIsEmpty(t *testing.T) {
	env := newTestEnv(t, order.Config{StrictTransitions: true})

	cart, err := env.svc.GetCart("u1")
	require.NoError(t, err)
	require.Equal(t, "u1", cart.UserID)
	require.Empty(t, cart.Items)
}

func TestClearCart_MissingIsNoop(t *testing.T) {
	env := newTestEnv(t, order.Config{StrictTransitions: true})
	require.NoError(t, env.svc.ClearCart("u1"))
}
