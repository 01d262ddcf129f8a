package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"wabridge/internal/errors"
	"wabridge/pkg/whatsapp/types"
)

// Client is the Cloud API surface the bridge needs: identity self-fetch and
// outbound message delivery.
type Client interface {
	GetPhoneNumber(ctx context.Context) (*types.PhoneNumber, error)
	SendMessage(ctx context.Context, req *types.SendMessageRequest) (*types.SendMessageResponse, error)
}

// GraphClient talks to the WhatsApp Cloud API (Meta Graph API) with a
// bearer token. All calls are JSON request/response.
type GraphClient struct {
	baseURL       string
	apiVersion    string
	accessToken   string
	phoneNumberID string
	client        *http.Client
}

func NewClient(cfg types.ClientConfig) Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &GraphClient{
		baseURL:       cfg.BaseURL,
		apiVersion:    cfg.APIVersion,
		accessToken:   cfg.AccessToken,
		phoneNumberID: cfg.PhoneNumberID,
		client:        &http.Client{Timeout: timeout},
	}
}

// GetPhoneNumber fetches the business phone number record behind the
// configured phone number ID. One call resolves everything the handshake
// needs.
func (c *GraphClient) GetPhoneNumber(ctx context.Context) (*types.PhoneNumber, error) {
	endpoint := fmt.Sprintf("%s/%s/%s?fields=verified_name,display_phone_number",
		c.baseURL, c.apiVersion, c.phoneNumberID)

	var phone types.PhoneNumber
	if err := c.doRequest(ctx, http.MethodGet, endpoint, nil, &phone); err != nil {
		return nil, err
	}
	if phone.ID == "" {
		return nil, errors.New(errors.ErrCodeGraphAPI, "phone number lookup returned no identifier")
	}
	return &phone, nil
}

// SendMessage posts one outbound message to the messages endpoint.
func (c *GraphClient) SendMessage(ctx context.Context, req *types.SendMessageRequest) (*types.SendMessageResponse, error) {
	endpoint := fmt.Sprintf("%s/%s/%s/messages", c.baseURL, c.apiVersion, c.phoneNumberID)

	var resp types.SendMessageResponse
	if err := c.doRequest(ctx, http.MethodPost, endpoint, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *GraphClient) doRequest(ctx context.Context, method, endpoint string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal payload: %w", err)
		}
		body = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errors.NewGraphAPIError(endpoint, resp.StatusCode, decodeGraphError(resp))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// decodeGraphError extracts the platform error body so it can be logged
// verbatim on the swallow-and-log send path.
func decodeGraphError(resp *http.Response) error {
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return fmt.Errorf("status %d (unreadable body: %v)", resp.StatusCode, err)
	}

	var graphErr types.GraphErrorResponse
	if err := json.Unmarshal(raw, &graphErr); err == nil && graphErr.Error != nil {
		return graphErr.Error
	}
	return fmt.Errorf("status %d: %s", resp.StatusCode, bytes.TrimSpace(raw))
}
