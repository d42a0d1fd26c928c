package payment

import (
	"sync"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/Harish222600/sonica-backend/internal/domain"
)

// MockGateway — встроенный платёжный шлюз для разработки и тестов.
// Создаёт платёжные намерения локально и всегда одобряет возвраты.
type MockGateway struct {
	mu      sync.Mutex
	logger  *log.Entry
	intents map[string]domain.PaymentIntent
}

// NewMockGateway создаёт mock-шлюз.
func NewMockGateway() *MockGateway {
	return &MockGateway{
		logger:  log.WithField("component", "mock-payment-gateway"),
		intents: make(map[string]domain.PaymentIntent),
	}
}

func (g *MockGateway) CreateIntent(amountMinor int64, currency, reference string) (domain.PaymentIntent, error) {
	if amountMinor <= 0 {
		return domain.PaymentIntent{}, domain.ErrAmountMismatch
	}

	intent := domain.PaymentIntent{
		IntentID:    "pi_" + uuid.NewString(),
		AmountMinor: amountMinor,
		Currency:    currency,
	}

	g.mu.Lock()
	g.intents[intent.IntentID] = intent
	g.mu.Unlock()

	g.logger.WithFields(log.Fields{
		"intent_id":    intent.IntentID,
		"amount_minor": amountMinor,
		"reference":    reference,
	}).Debug("payment intent created")

	return intent, nil
}

func (g *MockGateway) Refund(paymentID string, amountMinor int64, reason string) (domain.RefundResult, error) {
	result := domain.RefundResult{
		RefundID: "rf_" + uuid.NewString(),
		Status:   "processed",
	}

	g.logger.WithFields(log.Fields{
		"payment_id":   paymentID,
		"refund_id":    result.RefundID,
		"amount_minor": amountMinor,
		"reason":       reason,
	}).Info("refund processed")

	return result, nil
}

var _ domain.PaymentGateway = (*MockGateway)(nil)
