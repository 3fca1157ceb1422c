package correct

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/schemaflow/schemaflow/internal/apperror"
)

// Config holds the correction service client configuration
type Config struct {
	URL     string
	Timeout time.Duration
}

// Client calls the external correction service over HTTP. A single
// bounded request per correction; no retries.
type Client struct {
	url        string
	httpClient *http.Client
	logger     Logger
}

// NewClient creates a new correction service client
func NewClient(cfg *Config, logger Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		url: cfg.URL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

type correctionRequest struct {
	Schema       string `json:"schema"`
	TargetEngine string `json:"targetEngine"`
}

// Correct sends the schema to the correction service. Transport
// failures and non-200 responses are returned as a CorrectionError
// alongside an unsuccessful Result.
func (c *Client) Correct(ctx context.Context, schemaText, targetEngine string) (Result, error) {
	payload, err := json.Marshal(correctionRequest{
		Schema:       schemaText,
		TargetEngine: targetEngine,
	})
	if err != nil {
		return Result{}, apperror.NewCorrectionError("failed to encode correction request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return Result{}, apperror.NewCorrectionError("failed to build correction request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Result{}, apperror.NewCorrectionError("correction service unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Result{}, apperror.NewCorrectionError(
			fmt.Sprintf("correction service returned status %d", resp.StatusCode), nil)
	}

	var result Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return Result{}, apperror.NewCorrectionError("failed to decode correction response", err)
	}

	if !result.Success {
		c.logger.LogWarn("Correction service reported failure", map[string]interface{}{
			"targetEngine": targetEngine,
			"error":        result.Error,
		})
	}
	return result, nil
}
