package predict

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

type ReplicateOptions struct {
	APIToken   string
	BaseURL    string
	HTTPClient *http.Client
}

// ReplicateClient implements Service against a Replicate-style predictions
// REST API.
type ReplicateClient struct {
	apiToken string
	baseURL  string
	client   *http.Client
}

const replicateDefaultTimeout = 30 * time.Second

type replicateCreateRequest struct {
	Version string         `json:"version"`
	Input   replicateInput `json:"input"`
}

type replicateInput struct {
	Prompt   string `json:"prompt"`
	Image    string `json:"image"`
	Duration int    `json:"duration,omitempty"`
}

func NewReplicateClient(opts ReplicateOptions) (*ReplicateClient, error) {
	if strings.TrimSpace(opts.APIToken) == "" {
		return nil, errors.New("predict: api token is required")
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.replicate.com/v1"
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: replicateDefaultTimeout}
	}
	return &ReplicateClient{
		apiToken: strings.TrimSpace(opts.APIToken),
		baseURL:  baseURL,
		client:   client,
	}, nil
}

// Create submits a generation request and returns the opaque handle assigned
// by the service.
func (c *ReplicateClient) Create(ctx context.Context, req CreateRequest) (*Prediction, error) {
	payload := replicateCreateRequest{
		Version: req.Version,
		Input: replicateInput{
			Prompt:   req.Prompt,
			Image:    req.ImageURL,
			Duration: req.Duration,
		},
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		return nil, fmt.Errorf("predict: encode request: %w", err)
	}
	endpoint := fmt.Sprintf("%s/predictions", c.baseURL)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &buf)
	if err != nil {
		return nil, fmt.Errorf("predict: build request: %w", err)
	}
	c.setHeaders(httpReq)
	return c.do(httpReq)
}

// Get reports the current status of a prediction.
func (c *ReplicateClient) Get(ctx context.Context, id string) (*Prediction, error) {
	if strings.TrimSpace(id) == "" {
		return nil, errors.New("predict: prediction id is required")
	}
	endpoint := fmt.Sprintf("%s/predictions/%s", c.baseURL, url.PathEscape(id))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("predict: build request: %w", err)
	}
	c.setHeaders(httpReq)
	return c.do(httpReq)
}

func (c *ReplicateClient) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiToken)
}

func (c *ReplicateClient) do(req *http.Request) (*Prediction, error) {
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("predict: http request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("predict: service status %d", resp.StatusCode)
	}
	var prediction Prediction
	if err := json.NewDecoder(resp.Body).Decode(&prediction); err != nil {
		return nil, fmt.Errorf("predict: decode response: %w", err)
	}
	return &prediction, nil
}

var _ Service = (*ReplicateClient)(nil)
