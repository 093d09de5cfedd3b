package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/ignatzorin/skillmarket-backend/internal/pkg/apperror"
)

// CertificationResult — результат публикации сертификата во внешнем реестре.
type CertificationResult struct {
	TransactionID   string `json:"transactionId"`
	CertificateHash string `json:"certificateHash"`
}

// CertificationClient публикует хэши сертификатов навыков во внешнем
// реестре и возвращает идентификатор транзакции.
type CertificationClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewCertificationClient создаёт экземпляр клиента.
func NewCertificationClient(baseURL string, httpClient *http.Client) *CertificationClient {
	return &CertificationClient{baseURL: baseURL, httpClient: httpClient}
}

// Certify публикует хэш сертификата и возвращает идентификатор транзакции
// реестра. Идентификатор — непрозрачная строка, мы его не разбираем.
func (c *CertificationClient) Certify(ctx context.Context, userID uuid.UUID, skillName, certificateHash string) (*CertificationResult, error) {
	if c.baseURL == "" {
		return nil, fmt.Errorf("certification: baseURL не задан")
	}

	payload := map[string]any{
		"userId":          userID.String(),
		"skillName":       skillName,
		"certificateHash": certificateHash,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/certify", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, apperror.Wrap(err, apperror.ErrCodeGatewayTimeout, "реестр сертификации не ответил вовремя")
		}
		return nil, fmt.Errorf("certification: запрос не выполнен: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("certification: код ответа %d", resp.StatusCode)
	}

	var result CertificationResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}
	if result.TransactionID == "" {
		return nil, apperror.New(apperror.ErrCodeInternal, "реестр сертификации не вернул идентификатор транзакции")
	}
	if result.CertificateHash == "" {
		result.CertificateHash = certificateHash
	}
	return &result, nil
}
