package domain

// Role определяет роль аутентифицированного принципала.
type Role string

const (
	// RoleCustomer — обычный покупатель.
	RoleCustomer Role = "customer"
	// RoleAdmin — администратор магазина.
	RoleAdmin Role = "admin"
	// RoleInventoryManager — сотрудник, управляющий складскими остатками.
	RoleInventoryManager Role = "inventory_manager"
	// RoleDeliveryPartner — курьер, выполняющий доставки.
	RoleDeliveryPartner Role = "delivery_partner"
)

// Valid проверяет, что роль относится к поддерживаемым значениям.
func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RoleAdmin, RoleInventoryManager, RoleDeliveryPartner:
		return true
	default:
		return false
	}
}

// Principal — аутентифицированный субъект запроса. Ядро доверяет этим данным
// без повторной проверки учётных данных: выпуск токенов лежит на внешнем сервисе.
type Principal struct {
	ID   string
	Role Role
}

// IsAdmin сообщает, обладает ли принципал административными правами.
func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// CanManageStock сообщает, разрешены ли принципалу складские операции.
func (p Principal) CanManageStock() bool {
	return p.Role == RoleAdmin || p.Role == RoleInventoryManager
}
