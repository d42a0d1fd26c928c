package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"

	"github.com/Harish222600/sonica-backend/internal/domain"
)

// Signer проверяет подписи платёжного шлюза по схеме HMAC-SHA256.
// Подпись платежа считается от строки "<intentID>|<paymentID>",
// подпись webhook — от сырого тела запроса.
type Signer struct {
	secret []byte
}

// NewSigner создаёт Signer с секретом шлюза.
func NewSigner(secret string) *Signer {
	return &Signer{secret: []byte(secret)}
}

// SignPayment возвращает hex-подпись пары (intentID, paymentID).
func (s *Signer) SignPayment(intentID, paymentID string) string {
	return s.sign([]byte(intentID + "|" + paymentID))
}

// VerifyPayment сравнивает подпись платежа за постоянное время.
func (s *Signer) VerifyPayment(intentID, paymentID, signature string) error {
	expected := s.SignPayment(intentID, paymentID)
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return domain.ErrSignatureMismatch
	}
	return nil
}

// SignWebhook возвращает hex-подпись сырого тела webhook.
func (s *Signer) SignWebhook(body []byte) string {
	return s.sign(body)
}

// VerifyWebhook сравнивает подпись сырого тела webhook за постоянное время.
func (s *Signer) VerifyWebhook(body []byte, signature string) error {
	expected := s.sign(body)
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return domain.ErrSignatureMismatch
	}
	return nil
}

func (s *Signer) sign(data []byte) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write(data)
	return hex.EncodeToString(mac.Sum(nil))
}
