package enhance

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/salmonumbrella/braindump/internal/record"
)

// Remote enhances text through another server's POST /api/enhance route.
type Remote struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewRemote creates a Remote enhancer. token may be empty.
func NewRemote(baseURL, token string) *Remote {
	return &Remote{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

// Enhance posts text and decodes the reply.
func (r *Remote) Enhance(ctx context.Context, text string) (*record.Enhancement, error) {
	body, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/api/enhance", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("enhance proxy error (status %d): %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}
	return Decode(string(respBody))
}
