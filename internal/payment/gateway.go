package payment

import (
	"context"
	"errors"
)

var (
	ErrInvalidSignature = errors.New("payment: invalid webhook signature")
	// ErrIgnoredEvent - событие корректно подписано, но бронирование по нему не создается
	ErrIgnoredEvent = errors.New("payment: event ignored")
)

// CheckoutRequest - данные для страницы оплаты одного тура
type CheckoutRequest struct {
	TourID        string
	TourName      string
	Summary       string
	ImageURL      string
	Price         float64
	CustomerEmail string
	SuccessURL    string
	CancelURL     string
}

type CheckoutSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// CompletedCheckout - успешная оплата из вебхука
type CompletedCheckout struct {
	SessionID     string
	TourID        string
	CustomerEmail string
	Amount        float64
}

// Gateway - платежный провайдер
type Gateway interface {
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error)
	// ParseWebhook проверяет подпись и разбирает событие завершенной оплаты
	ParseWebhook(payload []byte, signature string) (*CompletedCheckout, error)
}
