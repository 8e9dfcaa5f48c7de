package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// Client talks to the hosted-checkout payment API over HTTP with bearer
// authentication. The http.Client is injected so callers control timeouts
// and tests can point it at a stub server.
type Client struct {
	baseURL   string
	secretKey string
	hc        *http.Client
}

// NewClient builds a gateway client for the given API base URL and secret
// key.
func NewClient(baseURL, secretKey string, hc *http.Client) *Client {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Client{baseURL: baseURL, secretKey: secretKey, hc: hc}
}

// CreateSession opens a hosted checkout session and returns its id and
// redirect URL.
func (c *Client) CreateSession(ctx context.Context, req CreateSessionRequest) (Session, error) {
	var s Session
	err := c.do(ctx, http.MethodPost, "/v1/checkout/sessions", req, &s)
	return s, err
}

// RetrieveSession fetches the current state of a session, including the
// payment status, customer details and the metadata attached at creation.
func (c *Client) RetrieveSession(ctx context.Context, id string) (Session, error) {
	var s Session
	err := c.do(ctx, http.MethodGet, "/v1/checkout/sessions/"+url.PathEscape(id), nil, &s)
	return s, err
}

// RetrievePrice fetches a price object by reference.
func (c *Client) RetrievePrice(ctx context.Context, priceRef string) (Price, error) {
	var p Price
	err := c.do(ctx, http.MethodGet, "/v1/prices/"+url.PathEscape(priceRef), nil, &p)
	return p, err
}

func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewBuffer(buf)
	}

	hr, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	hr.Header.Set("Accept", "application/json")
	hr.Header.Set("Authorization", "Bearer "+c.secretKey)
	if in != nil {
		hr.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.hc.Do(hr)
	if err != nil {
		return fmt.Errorf("payment gateway request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("payment gateway response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &GatewayError{StatusCode: resp.StatusCode, Message: gatewayMessage(respBody)}
	}

	return json.Unmarshal(respBody, out)
}

// gatewayMessage pulls the human-readable message out of a gateway error
// body, falling back to the raw body when the shape is unexpected.
func gatewayMessage(body []byte) string {
	var e struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &e); err == nil && e.Error.Message != "" {
		return e.Error.Message
	}
	return string(body)
}
