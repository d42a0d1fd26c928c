package domain

import "time"

// Category описывает категорию товара в каталоге велобутика.
type Category string

const (
	CategoryRoad        Category = "road"
	CategoryMountain    Category = "mountain"
	CategoryHybrid      Category = "hybrid"
	CategoryElectric    Category = "electric"
	CategoryKids        Category = "kids"
	CategoryAccessories Category = "accessories"
)

// Valid проверяет, что категория относится к поддерживаемым значениям.
func (c Category) Valid() bool {
	switch c {
	case CategoryRoad, CategoryMountain, CategoryHybrid, CategoryElectric, CategoryKids, CategoryAccessories:
		return true
	default:
		return false
	}
}

// Product — товар каталога вместе со складскими счётчиками.
// Инвариант: 0 <= Reserved <= Stock. Доступный остаток не хранится,
// а вычисляется как Stock - Reserved.
type Product struct {
	ID          string
	Name        string
	Description string
	Category    Category
	// PriceMinor — цена за единицу в минимальных денежных единицах.
	PriceMinor int64
	// DiscountPriceMinor — акционная цена; 0 означает отсутствие скидки.
	DiscountPriceMinor int64
	// Stock — подтверждённый остаток на складе.
	Stock int32
	// Reserved — единицы, удержанные под неоплаченные заказы.
	Reserved          int32
	LowStockThreshold int32
	RatingAvg         float64
	RatingCount       int32
	ImageURL          string
	Active            bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Available возвращает количество, доступное к покупке прямо сейчас.
func (p *Product) Available() int32 {
	return p.Stock - p.Reserved
}

// EffectivePriceMinor возвращает цену, по которой товар попадает в корзину:
// акционную, если она задана, иначе базовую.
func (p *Product) EffectivePriceMinor() int64 {
	if p.DiscountPriceMinor > 0 {
		return p.DiscountPriceMinor
	}
	return p.PriceMinor
}

// LowStock сообщает, опустился ли доступный остаток до порога пополнения.
func (p *Product) LowStock() bool {
	return p.Available() <= p.LowStockThreshold
}

// ValidateInvariants проверяет базовые инварианты товара и возвращает список замечаний.
func (p *Product) ValidateInvariants() []error {
	var errs []error

	if p.Name == "" {
		errs = append(errs, ErrProductNameRequired)
	}
	if !p.Category.Valid() {
		errs = append(errs, ErrCategoryInvalid)
	}
	if p.PriceMinor < 0 || p.DiscountPriceMinor < 0 {
		errs = append(errs, ErrPriceNegative)
	}
	if p.Reserved < 0 || p.Reserved > p.Stock {
		errs = append(errs, ErrInsufficientStock)
	}

	return errs
}
