package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"savora-be/internal/logger"
	"savora-be/internal/metrics"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

const apiVersion = "2024-06-01"

type httpGateway struct {
	baseURL       string
	apiKey        string
	httpClient    *http.Client
	successURL    string
	failureURL    string
	cancelURL     string
	callbackToken string
	breaker       *gobreaker.CircuitBreaker
}

// NewHTTPGateway builds the processor client. The base URL is overridable so
// tests can point it at a local server.
func NewHTTPGateway(apiKey, callbackToken string) Gateway {
	if apiKey == "" {
		logger.L().Warn("payment API key is empty")
	}

	baseURL := os.Getenv("PAYMENT_API_URL")
	if baseURL == "" {
		baseURL = "https://api.payments.example.com"
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "payment-gateway",
		MaxRequests: 3,
		Interval:    30 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.L().Warn("payment gateway breaker state changed",
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
			metrics.GatewayBreakerState.Set(float64(to))
		},
	})

	return &httpGateway{
		baseURL:       baseURL,
		apiKey:        apiKey,
		httpClient:    &http.Client{Timeout: 15 * time.Second},
		successURL:    os.Getenv("SUCCESS_RETURN_URL"),
		failureURL:    os.Getenv("FAILURE_RETURN_URL"),
		cancelURL:     os.Getenv("CANCEL_RETURN_URL"),
		callbackToken: callbackToken,
		breaker:       breaker,
	}
}

type handleResponse struct {
	ID           string     `json:"id"`
	ReferenceID  string     `json:"reference_id"`
	Amount       int64      `json:"amount"`
	Currency     string     `json:"currency"`
	Status       string     `json:"status"`
	ClientSecret string     `json:"client_secret"`
	RedirectURL  string     `json:"redirect_url"`
	ExpiresAt    *time.Time `json:"expires_at"`
}

func (g *httpGateway) CreateHandle(ctx context.Context, params CreateHandleParams) (*Handle, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("reference_id", params.ReferenceID),
		zap.Int64("amount", params.Amount),
		zap.String("currency", params.Currency),
	)

	body := map[string]interface{}{
		"reference_id": params.ReferenceID,
		"amount":       params.Amount,
		"currency":     params.Currency,
		"customer": map[string]interface{}{
			"email": params.CustomerEmail,
		},
		"return_urls": map[string]string{
			"success": g.successURL,
			"failure": g.failureURL,
			"cancel":  g.cancelURL,
		},
	}

	res, err := g.breaker.Execute(func() (interface{}, error) {
		return g.createHandle(ctx, log, body)
	})
	if err != nil {
		return nil, err
	}
	return res.(*Handle), nil
}

func (g *httpGateway) createHandle(ctx context.Context, log *zap.Logger, body map[string]interface{}) (*Handle, error) {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", g.baseURL+"/v1/payment_intents", bytes.NewBuffer(jsonBody))
	if err != nil {
		log.Error("Failed creating request", zap.Error(err))
		return nil, err
	}

	req.SetBasicAuth(g.apiKey, "")
	req.Header.Add("Content-Type", "application/json")
	req.Header.Add("api-version", apiVersion)

	log.Info("Requesting payment handle")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		log.Error("Payment request failed", zap.Error(err))
		return nil, err
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read processor response: %w", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		log.Error("Processor returned non-success status",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("response", bodyBytes),
		)
		return nil, fmt.Errorf("payment processor error: %s", string(bodyBytes))
	}

	var res handleResponse
	if err := json.Unmarshal(bodyBytes, &res); err != nil {
		log.Error("Failed decoding processor response", zap.Error(err))
		return nil, err
	}

	log.Info("Payment handle created",
		zap.String("payment_id", res.ID),
		zap.String("status", res.Status),
	)

	expiresAt := time.Now().Add(24 * time.Hour)
	if res.ExpiresAt != nil {
		expiresAt = *res.ExpiresAt
	}

	return &Handle{
		ProviderPaymentID: res.ID,
		ReferenceID:       res.ReferenceID,
		Amount:            res.Amount,
		Currency:          res.Currency,
		Status:            res.Status,
		ClientSecret:      res.ClientSecret,
		RedirectURL:       res.RedirectURL,
		ExpiresAt:         expiresAt,
	}, nil
}

func (g *httpGateway) GetStatus(ctx context.Context, referenceID string) (*Status, error) {
	log := logger.FromCtx(ctx).With(zap.String("reference_id", referenceID))

	url := fmt.Sprintf("%s/v1/payment_intents?reference_id=%s", g.baseURL, referenceID)

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(g.apiKey, "")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		log.Error("Status request failed", zap.Error(err))
		return nil, err
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read processor response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		log.Error("Processor returned error",
			zap.Int("http_status", resp.StatusCode),
			zap.ByteString("response", bodyBytes),
		)
		return nil, fmt.Errorf("payment processor error: %s", string(bodyBytes))
	}

	var intents []struct {
		Status string     `json:"status"`
		PaidAt *time.Time `json:"paid_at"`
	}
	if err := json.Unmarshal(bodyBytes, &intents); err != nil {
		return nil, err
	}

	if len(intents) == 0 {
		log.Warn("Payment intent not found")
		return nil, errors.New("payment intent not found")
	}

	return &Status{
		Status: intents[0].Status,
		PaidAt: intents[0].PaidAt,
	}, nil
}

func (g *httpGateway) VerifySignature(r *http.Request) error {
	sig := r.Header.Get("x-callback-token")
	expected := g.callbackToken

	if expected == "" {
		return nil // skip in dev
	}

	if sig != expected {
		return errors.New("invalid webhook signature")
	}
	return nil
}
