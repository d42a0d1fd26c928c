package payment_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/Harish222600/sonica-backend/internal/domain"
	"github.com/Harish222600/sonica-backend/internal/service/payment"
)

func TestSigner_PaymentRoundTrip(t *testing.T) {
	signer := payment.NewSigner("gateway-secret")

	sig := signer.SignPayment("pi_1", "pay_1")
	if sig == "" {
		t.Fatal("expected non-empty signature")
	}
	if err := signer.VerifyPayment("pi_1", "pay_1", sig); err != nil {
		t.Fatalf("valid signature rejected: %v", err)
	}
}

func TestSigner_VerifyPaymentRejectsTampering(t *testing.T) {
	signer := payment.NewSigner("gateway-secret")
	sig := signer.SignPayment("pi_1", "pay_1")

	cases := []struct {
		name      string
		intentID  string
		paymentID string
		signature string
	}{
		{"forged signature", "pi_1", "pay_1", "deadbeef"},
		{"other intent", "pi_2", "pay_1", sig},
		{"other payment", "pi_1", "pay_2", sig},
		{"empty signature", "pi_1", "pay_1", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := signer.VerifyPayment(tc.intentID, tc.paymentID, tc.signature)
			if !errors.Is(err, domain.ErrSignatureMismatch) {
				t.Fatalf("expected ErrSignatureMismatch, got %v", err)
			}
		})
	}
}

func TestSigner_DifferentSecretsDisagree(t *testing.T) {
	a := payment.NewSigner("secret-a")
	b := payment.NewSigner("secret-b")

	sig := a.SignPayment("pi_1", "pay_1")
	if err := b.VerifyPayment("pi_1", "pay_1", sig); !errors.Is(err, domain.ErrSignatureMismatch) {
		t.Fatalf("expected ErrSignatureMismatch, got %v", err)
	}
}

func TestSigner_WebhookRoundTrip(t *testing.T) {
	signer := payment.NewSigner("gateway-secret")
	body := []byte(`{"intent_id":"pi_1","payment_id":"pay_1"}`)

	sig := signer.SignWebhook(body)
	if err := signer.VerifyWebhook(body, sig); err != nil {
		t.Fatalf("valid webhook signature rejected: %v", err)
	}

	tampered := []byte(`{"intent_id":"pi_1","payment_id":"pay_2"}`)
	if err := signer.VerifyWebhook(tampered, sig); !errors.Is(err, domain.ErrSignatureMismatch) {
		t.Fatalf("expected ErrSignatureMismatch, got %v", err)
	}
}

func TestMockGateway_CreateIntent(t *testing.T) {
	gateway := payment.NewMockGateway()

	intent, err := gateway.CreateIntent(4500, "INR", "SON-1")
	if err != nil {
		t.Fatalf("CreateIntent: %v", err)
	}
	if !strings.HasPrefix(intent.IntentID, "pi_") {
		t.Fatalf("unexpected intent id %q", intent.IntentID)
	}
	if intent.AmountMinor != 4500 || intent.Currency != "INR" {
		t.Fatalf("unexpected intent %+v", intent)
	}

	for _, amount := range []int64{0, -100} {
		if _, err := gateway.CreateIntent(amount, "INR", "SON-1"); !errors.Is(err, domain.ErrAmountMismatch) {
			t.Fatalf("amount %d: expected ErrAmountMismatch, got %v", amount, err)
		}
	}
}

func TestMockGateway_Refund(t *testing.T) {
	gateway := payment.NewMockGateway()

	result, err := gateway.Refund("pay_1", 4500, "order cancelled")
	if err != nil {
		t.Fatalf("Refund: %v", err)
	}
	if !strings.HasPrefix(result.RefundID, "rf_") {
		t.Fatalf("unexpected refund id %q", result.RefundID)
	}
	if result.Status != "processed" {
		t.Fatalf("unexpected refund status %q", result.Status)
	}
}
