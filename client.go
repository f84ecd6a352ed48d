package pob

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client talks to the campaign API served by pob-server.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// NewClient creates a new client instance.
func NewClient(cfg Config) (*Client, error) {
	cfg = cfg.WithDefaults()
	if cfg.ServerURL == "" {
		return nil, NewValidationError("ServerURL", "is required")
	}

	tlsConfig := cfg.TLSConfig
	if tlsConfig == nil {
		tlsConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	if cfg.SkipTLSVerify {
		tlsConfig.InsecureSkipVerify = true
	}

	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		TLSClientConfig:     tlsConfig,
	}

	return &Client{
		httpClient: &http.Client{Timeout: cfg.HTTPTimeout, Transport: transport},
		baseURL:    strings.TrimSuffix(cfg.ServerURL, "/"),
		apiKey:     cfg.APIKey,
	}, nil
}

// CreateCampaign asks the server to generate a campaign. The returned URLs
// are not retrievable again.
func (c *Client) CreateCampaign(ctx context.Context, req CreateCampaignRequest) (*CampaignResult, error) {
	var result CampaignResult
	if err := c.do(ctx, http.MethodPost, "/v1/campaigns", req, &result); err != nil {
		return nil, fmt.Errorf("create campaign: %w", err)
	}
	return &result, nil
}

// GetCampaign retrieves a campaign manifest.
func (c *Client) GetCampaign(ctx context.Context, id string) (*Manifest, error) {
	var result Manifest
	if err := c.do(ctx, http.MethodGet, "/v1/campaigns/"+url.PathEscape(id), nil, &result); err != nil {
		return nil, fmt.Errorf("get campaign %s: %w", id, err)
	}
	return &result, nil
}

// DeleteCampaign removes a campaign and its claims from the server.
func (c *Client) DeleteCampaign(ctx context.Context, id string) error {
	if err := c.do(ctx, http.MethodDelete, "/v1/campaigns/"+url.PathEscape(id), nil, nil); err != nil {
		return fmt.Errorf("delete campaign %s: %w", id, err)
	}
	return nil
}

// ListCampaigns lists campaigns, optionally filtered by contract address.
func (c *Client) ListCampaigns(ctx context.Context, contract string) ([]*Manifest, error) {
	path := "/v1/campaigns"
	if contract != "" {
		path += "?contract=" + url.QueryEscape(contract)
	}
	var result []*Manifest
	if err := c.do(ctx, http.MethodGet, path, nil, &result); err != nil {
		return nil, fmt.Errorf("list campaigns: %w", err)
	}
	return result, nil
}

// GetProof retrieves the Merkle proof for an address in a campaign.
func (c *Client) GetProof(ctx context.Context, id, address string) (*ProofResult, error) {
	path := fmt.Sprintf("/v1/campaigns/%s/proofs/%s", url.PathEscape(id), url.PathEscape(address))
	var result ProofResult
	if err := c.do(ctx, http.MethodGet, path, nil, &result); err != nil {
		return nil, fmt.Errorf("get proof: %w", err)
	}
	return &result, nil
}

// Redeem submits a redemption key and records the claim.
func (c *Client) Redeem(ctx context.Context, id string, req RedeemRequest) (*ClaimResult, error) {
	path := fmt.Sprintf("/v1/campaigns/%s/claims", url.PathEscape(id))
	var result ClaimResult
	if err := c.do(ctx, http.MethodPost, path, req, &result); err != nil {
		return nil, fmt.Errorf("redeem index %d: %w", req.Index, err)
	}
	return &result, nil
}

// Health checks server liveness.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return ErrServer
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return ErrServer
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return &APIError{StatusCode: resp.StatusCode}
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrServer, err)
	}

	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrServer, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrServer, err)
	}

	var envelope struct {
		Data  json.RawMessage `json:"data"`
		Error *struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	_ = json.Unmarshal(respBody, &envelope)

	if resp.StatusCode >= 400 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if envelope.Error != nil {
			apiErr.Code = envelope.Error.Code
			apiErr.Message = envelope.Error.Message
		}
		return apiErr
	}

	if out == nil || len(envelope.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
