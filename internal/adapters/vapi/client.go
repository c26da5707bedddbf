package vapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client talks to the call provider REST API
type Client struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

// NewClient creates a new provider API client
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		BaseURL: baseURL,
		APIKey:  apiKey,
		HTTPClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

func (c *Client) do(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewBuffer(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("provider API returned status %d: %s", resp.StatusCode, string(respBody))
	}

	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("failed to unmarshal response: %w", err)
		}
	}
	return nil
}

// CreateAssistant provisions a new assistant with the provider
func (c *Client) CreateAssistant(ctx context.Context, req *CreateAssistantRequest) (*AssistantResponse, error) {
	var resp AssistantResponse
	if err := c.do(ctx, http.MethodPost, "/assistant", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UpdateAssistant patches an existing assistant
func (c *Client) UpdateAssistant(ctx context.Context, assistantID string, req *CreateAssistantRequest) (*AssistantResponse, error) {
	var resp AssistantResponse
	if err := c.do(ctx, http.MethodPatch, "/assistant/"+assistantID, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DeleteAssistant removes an assistant from the provider
func (c *Client) DeleteAssistant(ctx context.Context, assistantID string) error {
	return c.do(ctx, http.MethodDelete, "/assistant/"+assistantID, nil, nil)
}

// CreatePhoneNumber provisions or imports a phone number
func (c *Client) CreatePhoneNumber(ctx context.Context, req *CreatePhoneNumberRequest) (*PhoneNumberResponse, error) {
	var resp PhoneNumberResponse
	if err := c.do(ctx, http.MethodPost, "/phone-number", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DeletePhoneNumber releases a phone number
func (c *Client) DeletePhoneNumber(ctx context.Context, phoneNumberID string) error {
	return c.do(ctx, http.MethodDelete, "/phone-number/"+phoneNumberID, nil, nil)
}

// CreateCall initiates an outbound call
func (c *Client) CreateCall(ctx context.Context, req *CreateCallRequest) (*CallResponse, error) {
	var resp CallResponse
	if err := c.do(ctx, http.MethodPost, "/call", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CreateTool registers a tool with the provider
func (c *Client) CreateTool(ctx context.Context, req *CreateToolRequest) (*ToolResponse, error) {
	var resp ToolResponse
	if err := c.do(ctx, http.MethodPost, "/tool", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CreateCredential registers a provider credential
func (c *Client) CreateCredential(ctx context.Context, req *CreateCredentialRequest) (*CredentialResponse, error) {
	var resp CredentialResponse
	if err := c.do(ctx, http.MethodPost, "/credential", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
