package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"savora-be/internal/logger"

	"go.uber.org/zap"
)

// OrderConfirmation is the payload for the fire-and-forget confirmation
// message (email/SMS relay). Failures are logged by callers, never surfaced.
type OrderConfirmation struct {
	OrderNumber string `json:"order_number"`
	Email       string `json:"email"`
	Phone       string `json:"phone,omitempty"`
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency"`
}

type Notifier interface {
	SendOrderConfirmation(ctx context.Context, msg OrderConfirmation) error
}

type httpNotifier struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
}

// NewHTTPNotifier builds the relay client. With an empty endpoint it degrades
// to a no-op, which keeps local development quiet.
func NewHTTPNotifier(endpoint, apiKey string) Notifier {
	if endpoint == "" {
		logger.L().Warn("notifier endpoint is empty, confirmations disabled")
		return noopNotifier{}
	}

	return &httpNotifier{
		endpoint:   endpoint,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (n *httpNotifier) SendOrderConfirmation(ctx context.Context, msg OrderConfirmation) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", n.endpoint+"/v1/messages", bytes.NewBuffer(body))
	if err != nil {
		return err
	}
	req.Header.Add("Content-Type", "application/json")
	req.Header.Add("Authorization", "Bearer "+n.apiKey)

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("notifier error (%d): %s", resp.StatusCode, string(respBody))
	}

	logger.FromCtx(ctx).Info("order confirmation sent",
		zap.String("order_number", msg.OrderNumber),
	)
	return nil
}

type noopNotifier struct{}

func (noopNotifier) SendOrderConfirmation(context.Context, OrderConfirmation) error {
	return nil
}
