// Package slipok calls the SlipOK bank-transfer slip verification API.
package slipok

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
)

// Client is a thin wrapper around the SlipOK verify endpoint.  Upstream
// responses, including 4xx rejections, are surfaced to the caller through
// VerifyResult rather than as errors; an error return means the request
// never produced a response.
type Client struct {
	url    string
	secret string
	http   *http.Client
}

// New builds a Client.  url and secret come from configuration; empty
// values mean the service is not configured and Configured reports false.
func New(url, secret string) *Client {
	return &Client{
		url:    url,
		secret: secret,
		http:   &http.Client{Timeout: 30 * time.Second},
	}
}

// Configured reports whether both the endpoint URL and the secret are set.
func (c *Client) Configured() bool { return c.url != "" && c.secret != "" }

// VerifyResult carries the upstream status and decoded body of one
// verification call.
type VerifyResult struct {
	StatusCode int
	Success    bool
	Body       json.RawMessage
}

// VerifySlip uploads a slip image for verification against the expected
// amount.  The multipart form matches what the SlipOK API expects: the
// image under "files", "log" enabled, and the amount as a plain string.
func (c *Client) VerifySlip(ctx context.Context, filename string, image io.Reader, amount decimal.Decimal) (VerifyResult, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("files", filename)
	if err != nil {
		return VerifyResult{}, err
	}
	if _, err := io.Copy(part, image); err != nil {
		return VerifyResult{}, err
	}
	if err := w.WriteField("log", "true"); err != nil {
		return VerifyResult{}, err
	}
	if err := w.WriteField("amount", amount.StringFixed(2)); err != nil {
		return VerifyResult{}, err
	}
	if err := w.Close(); err != nil {
		return VerifyResult{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, &buf)
	if err != nil {
		return VerifyResult{}, err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("x-authorization", c.secret)

	resp, err := c.http.Do(req)
	if err != nil {
		return VerifyResult{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return VerifyResult{}, err
	}
	res := VerifyResult{StatusCode: resp.StatusCode, Body: json.RawMessage(body)}
	var envelope struct {
		Success bool `json:"success"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil {
		res.Success = envelope.Success
	}
	return res, nil
}
