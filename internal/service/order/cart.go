package order

import (
	"time"

	"github.com/google/uuid"

	"github.com/Harish222600/sonica-backend/internal/domain"
)

// GetCart возвращает корзину пользователя; отсутствующая корзина — пустая.
func (s *Service) GetCart(userID string) (domain.Cart, error) {
	cart, err := s.carts.GetByUser(userID)
	if err != nil {
		if domain.IsNotFound(err) {
			return emptyCart(userID), nil
		}
		return domain.Cart{}, err
	}
	return cart, nil
}

// AddToCart добавляет товар в корзину или увеличивает количество уже
// добавленного. Цена снимается с товара на момент добавления.
func (s *Service) AddToCart(userID, productID string, qty int32) (domain.Cart, error) {
	if qty <= 0 {
		return domain.Cart{}, domain.ErrQtyInvalid
	}

	product, err := s.products.Get(productID)
	if err != nil {
		return domain.Cart{}, err
	}
	if !product.Active {
		return domain.Cart{}, domain.ErrProductNotFound
	}

	cart, err := s.GetCart(userID)
	if err != nil {
		return domain.Cart{}, err
	}

	now := time.Now().UTC()
	idx := cart.FindItem(productID)
	requested := qty
	if idx >= 0 {
		requested += cart.Items[idx].Qty
	}
	// Мягкая проверка доступности: жёсткая гарантия даётся резервированием
	// на оформлении заказа.
	if requested > product.Available() {
		return domain.Cart{}, domain.ErrInsufficientStock
	}

	if idx >= 0 {
		cart.Items[idx].Qty = requested
		cart.Items[idx].PriceMinor = product.EffectivePriceMinor()
	} else {
		cart.Items = append(cart.Items, domain.CartItem{
			ProductID:  productID,
			Qty:        qty,
			PriceMinor: product.EffectivePriceMinor(),
			AddedAt:    now,
		})
	}
	cart.UpdatedAt = now

	if err := s.carts.Save(cart); err != nil {
		return domain.Cart{}, err
	}

	return cart, nil
}

// UpdateCartItem выставляет количество позиции; ноль удаляет позицию.
func (s *Service) UpdateCartItem(userID, productID string, qty int32) (domain.Cart, error) {
	if qty < 0 {
		return domain.Cart{}, domain.ErrQtyInvalid
	}
	if qty == 0 {
		return s.RemoveFromCart(userID, productID)
	}

	cart, err := s.carts.GetByUser(userID)
	if err != nil {
		return domain.Cart{}, err
	}

	idx := cart.FindItem(productID)
	if idx < 0 {
		return domain.Cart{}, domain.ErrCartItemNotFound
	}

	product, err := s.products.Get(productID)
	if err != nil {
		return domain.Cart{}, err
	}
	if qty > product.Available() {
		return domain.Cart{}, domain.ErrInsufficientStock
	}

	// Цена не переснимается: снимок обновляется только при добавлении.
	cart.Items[idx].Qty = qty
	cart.UpdatedAt = time.Now().UTC()

	if err := s.carts.Save(cart); err != nil {
		return domain.Cart{}, err
	}

	return cart, nil
}

// RemoveFromCart удаляет позицию из корзины.
func (s *Service) RemoveFromCart(userID, productID string) (domain.Cart, error) {
	cart, err := s.carts.GetByUser(userID)
	if err != nil {
		return domain.Cart{}, err
	}

	found := false
	items := cart.Items[:0]
	for _, item := range cart.Items {
		if item.ProductID == productID {
			found = true
			continue
		}
		items = append(items, item)
	}
	if !found {
		return domain.Cart{}, domain.ErrCartItemNotFound
	}
	cart.Items = items
	cart.UpdatedAt = time.Now().UTC()

	if err := s.carts.Save(cart); err != nil {
		return domain.Cart{}, err
	}

	return cart, nil
}

// ClearCart очищает корзину пользователя.
func (s *Service) ClearCart(userID string) error {
	cart, err := s.carts.GetByUser(userID)
	if err != nil {
		if domain.IsNotFound(err) {
			return nil
		}
		return err
	}

	cart.Items = nil
	cart.UpdatedAt = time.Now().UTC()
	return s.carts.Save(cart)
}

func emptyCart(userID string) domain.Cart {
	now := time.Now().UTC()
	return domain.Cart{
		ID:        uuid.NewString(),
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
