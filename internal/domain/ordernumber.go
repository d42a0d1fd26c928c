package domain

import (
	"fmt"
	"sync/atomic"
	"time"
)

// orderNumberSeq — сквозной счётчик для суффикса номера заказа.
// Комбинация с epoch-миллисекундами делает коллизии практически невозможными
// даже при перезапуске процесса внутри одной миллисекунды.
var orderNumberSeq atomic.Uint32

// NewOrderNumber генерирует уникальный номер заказа вида SON-<epochMillis>-<4 цифры>.
func NewOrderNumber(now time.Time) string {
	seq := orderNumberSeq.Add(1) % 10000
	return fmt.Sprintf("SON-%d-%04d", now.UnixMilli(), seq)
}
