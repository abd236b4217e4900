package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"carebridge/internal/credentials"
	"carebridge/internal/integrations"
)

// DebugTokenExchange resolves credentials by exchanging a debug token against
// the token-management endpoint. Local/dev only. Exchange failures are logged
// and resolve to nothing; the caller must handle an absent config.
type DebugTokenExchange struct {
	client  *http.Client
	baseURL string
	token   string
	logger  *slog.Logger
}

func NewDebugTokenExchange(baseURL, token string, logger *slog.Logger) *DebugTokenExchange {
	return &DebugTokenExchange{
		client:  &http.Client{Timeout: 10 * time.Second},
		baseURL: baseURL,
		token:   token,
		logger:  logger,
	}
}

func (p *DebugTokenExchange) Resolve(ctx context.Context, integration integrations.Integration) (*credentials.Config, error) {
	body, err := json.Marshal(map[string]string{"token": p.token})
	if err != nil {
		return nil, fmt.Errorf("marshal token exchange body: %w", err)
	}

	url := fmt.Sprintf("%s/integration/%s/token-management/getAccessTokenData", p.baseURL, integration.ID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build token exchange request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		p.logger.WarnContext(ctx, "debug token exchange failed",
			"integration_id", integration.ID, "error", err)
		return nil, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		p.logger.WarnContext(ctx, "debug token exchange rejected",
			"integration_id", integration.ID, "status", resp.StatusCode)
		return nil, nil
	}

	var cfg credentials.Config
	if err := json.NewDecoder(resp.Body).Decode(&cfg); err != nil {
		p.logger.WarnContext(ctx, "debug token exchange unparsable",
			"integration_id", integration.ID, "error", err)
		return nil, nil
	}
	return &cfg, nil
}
