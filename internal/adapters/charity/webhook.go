package charity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/vncsmyrnk/civicstake/internal/core/domain"
)

// WebhookSink posts each payout to a charity endpoint. The payout id is sent
// as Idempotency-Key so the receiver can drop redeliveries.
type WebhookSink struct {
	url    string
	client *http.Client
}

func NewWebhookSink(url string, client *http.Client) *WebhookSink {
	if client == nil {
		client = http.DefaultClient
	}
	return &WebhookSink{url: url, client: client}
}

type disbursement struct {
	PayoutID     string `json:"payout_id"`
	QuestionID   string `json:"question_id"`
	PoliticianID string `json:"politician_id"`
	Amount       int64  `json:"amount"`
}

func (s *WebhookSink) Disburse(ctx context.Context, payout domain.CharityPayout) error {
	body, err := json.Marshal(disbursement{
		PayoutID:     payout.ID.String(),
		QuestionID:   payout.QuestionID.String(),
		PoliticianID: payout.PoliticianID.String(),
		Amount:       payout.Amount,
	})
	if err != nil {
		return fmt.Errorf("failed to encode payout: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build payout request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", payout.ID.String())

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to deliver payout %s: %w", payout.ID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("charity endpoint rejected payout %s with status %d", payout.ID, resp.StatusCode)
	}
	return nil
}

// LogSink only records payouts. It stands in when no endpoint is configured.
type LogSink struct {
	logger *slog.Logger
}

func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Disburse(ctx context.Context, payout domain.CharityPayout) error {
	s.logger.InfoContext(ctx, "charity payout",
		"payout_id", payout.ID,
		"question_id", payout.QuestionID,
		"politician_id", payout.PoliticianID,
		"amount", payout.Amount,
	)
	return nil
}
