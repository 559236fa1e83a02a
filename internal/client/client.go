// Package client calls a running analysis endpoint over HTTP.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"symptrack/pkg"
)

// DefaultPath is appended to a base URL that carries no path of its own.
const DefaultPath = "/functions/v1/analyze-symptoms"

// misconfiguredText is what older servers put in the message instead of a
// structured code.
const misconfiguredText = "not configured"

// APIError is a non-200 answer from the endpoint.
type APIError struct {
	StatusCode int
	Message    string
	Code       pkg.ErrorCode
}

func (e *APIError) Error() string {
	return fmt.Sprintf("analysis endpoint returned %d: %s", e.StatusCode, e.Message)
}

// Kind classifies the failure.  The structured code wins; servers that omit
// it are classified by message text and status.
func (e *APIError) Kind() pkg.ErrorCode {
	switch {
	case e.Code != "":
		return e.Code
	case strings.Contains(e.Message, misconfiguredText):
		return pkg.CodeMisconfigured
	case e.StatusCode == http.StatusBadRequest:
		return pkg.CodeMissingInput
	default:
		return pkg.CodeProviderError
	}
}

// IsMisconfigured reports whether err means the server lacks its provider
// credential.
func IsMisconfigured(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Kind() == pkg.CodeMisconfigured
}

// Client posts symptoms to the analysis endpoint.
type Client struct {
	Endpoint string
	// APIKey, when set, is sent the way the hosted-functions gateway
	// expects: as apikey and as a bearer token.
	APIKey string
	client *http.Client
}

// New creates a client for endpoint.  A bare host URL gets DefaultPath.
func New(endpoint, apiKey string) *Client {
	endpoint = strings.TrimRight(endpoint, "/")
	if i := strings.Index(endpoint, "://"); i >= 0 && !strings.Contains(endpoint[i+3:], "/") {
		endpoint += DefaultPath
	}
	return &Client{
		Endpoint: endpoint,
		APIKey:   apiKey,
		client:   &http.Client{Timeout: 60 * time.Second},
	}
}

// Analyze sends symptoms and decodes the result.  Non-200 answers become
// *APIError.
func (c *Client) Analyze(ctx context.Context, symptoms string) (*pkg.AnalysisResult, error) {
	jsonData, err := json.Marshal(pkg.AnalysisRequest{Symptoms: symptoms})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.APIKey != "" {
		req.Header.Set("apikey", c.APIKey)
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling analysis endpoint: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp pkg.ErrorResponse
		if err := json.Unmarshal(body, &errResp); err != nil || errResp.Error == "" {
			errResp.Error = strings.TrimSpace(string(body))
		}
		return nil, &APIError{StatusCode: resp.StatusCode, Message: errResp.Error, Code: errResp.Code}
	}

	var result pkg.AnalysisResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	return &result, nil
}
