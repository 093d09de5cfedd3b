package gateway

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/ignatzorin/skillmarket-backend/internal/pkg/apperror"
)

// PaymentOrder — заказ, созданный в платёжном шлюзе.
type PaymentOrder struct {
	OrderID  string  `json:"id"`
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
	Receipt  string  `json:"receipt"`
}

// PaymentClient — клиент платёжного шлюза (Razorpay-совместимый API).
type PaymentClient struct {
	baseURL    string
	keyID      string
	keySecret  string
	httpClient *http.Client
}

// NewPaymentClient создаёт экземпляр клиента.
func NewPaymentClient(baseURL, keyID, keySecret string, httpClient *http.Client) *PaymentClient {
	if keyID == "" {
		keyID = os.Getenv("PAYMENT_KEY_ID")
	}
	if keySecret == "" {
		keySecret = os.Getenv("PAYMENT_KEY_SECRET")
	}
	return &PaymentClient{
		baseURL:    baseURL,
		keyID:      keyID,
		keySecret:  keySecret,
		httpClient: httpClient,
	}
}

// CreateOrder создаёт заказ в шлюзе. Сумма передаётся в минорных единицах
// (пайсы/копейки), как того требует API шлюза.
func (c *PaymentClient) CreateOrder(ctx context.Context, amount float64, currency, receipt string) (*PaymentOrder, error) {
	payload := map[string]any{
		"amount":   int64(amount * 100),
		"currency": currency,
		"receipt":  receipt,
	}

	result, err := c.post(ctx, "/orders", payload)
	if err != nil {
		return nil, err
	}

	order := &PaymentOrder{
		Amount:   amount,
		Currency: currency,
		Receipt:  receipt,
	}
	if id, ok := result["id"].(string); ok {
		order.OrderID = id
	}
	if order.OrderID == "" {
		return nil, apperror.New(apperror.ErrCodeInternal, "платёжный шлюз не вернул идентификатор заказа")
	}
	return order, nil
}

// VerifySignature проверяет подпись платежа: HMAC-SHA256 от "orderID|paymentID"
// на секретном ключе должен совпасть с подписью, присланной шлюзом.
func (c *PaymentClient) VerifySignature(orderID, paymentID, signature string) bool {
	mac := hmac.New(sha256.New, []byte(c.keySecret))
	mac.Write([]byte(orderID + "|" + paymentID))
	expected := hex.EncodeToString(mac.Sum(nil))
	return subtle.ConstantTimeCompare([]byte(expected), []byte(signature)) == 1
}

// post выполняет HTTP запрос к платёжному шлюзу.
func (c *PaymentClient) post(ctx context.Context, path string, payload any) (map[string]any, error) {
	if c.baseURL == "" {
		return nil, fmt.Errorf("payment: baseURL не задан")
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.keyID, c.keySecret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, apperror.Wrap(err, apperror.ErrCodeGatewayTimeout, "платёжный шлюз не ответил вовремя")
		}
		return nil, fmt.Errorf("payment: запрос не выполнен: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("payment: код ответа %d", resp.StatusCode)
	}

	var result map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}
	return result, nil
}

// isTimeout распознаёт таймаут или отмену контекста в сетевой ошибке.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr interface{ Timeout() bool }
	return errors.As(err, &netErr) && netErr.Timeout()
}
