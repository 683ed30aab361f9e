// Package dialog talks to the wallet dialog bridge, which renders alert,
// confirmation and prompt dialogs to the user and reports their response.
package dialog

import (
	"context"
	"fmt"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/celo-org/gas-snap/internal/port"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	dialogTypeAlert        = "alert"
	dialogTypeConfirmation = "confirmation"
	dialogTypePrompt       = "prompt"
)

type dialogRequest struct {
	Type        string   `json:"type"`
	Content     []string `json:"content"`
	Placeholder string   `json:"placeholder,omitempty"`
}

// dialogResponse carries the dialog outcome. Result is a bool for
// confirmations, a string for prompts and null when a prompt is dismissed.
type dialogResponse struct {
	Result interface{} `json:"result"`
}

// httpDialogClient is the implementation of port.Dialog over the bridge's
// HTTP endpoint.
type httpDialogClient struct {
	client  *fasthttp.Client
	baseURL string
	timeout time.Duration
	logger  *zap.Logger
}

// NewHTTPClient creates a dialog client pointed at the bridge base URL.
func NewHTTPClient(baseURL string, timeout time.Duration, logger *zap.Logger) port.Dialog {
	return &httpDialogClient{
		client:  &fasthttp.Client{},
		baseURL: baseURL,
		timeout: timeout,
		logger:  logger.Named("DialogClient"),
	}
}

func (c *httpDialogClient) do(ctx context.Context, payload dialogRequest) (*dialogResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal dialog request: %w", err)
	}

	c.logger.Debug("Sending dialog request", zap.String("type", payload.Type))

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	req.SetRequestURI(c.baseURL)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentTypeBytes([]byte("application/json"))
	req.SetBody(body)

	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	deadline, ok := ctx.Deadline()
	if ok {
		err = c.client.DoDeadline(req, resp, deadline)
	} else {
		err = c.client.DoTimeout(req, resp, c.timeout)
	}
	if err != nil {
		c.logger.Error("Dialog request failed", zap.String("type", payload.Type), zap.Error(err))
		return nil, fmt.Errorf("dialog request failed: %w", err)
	}

	if resp.StatusCode() != fasthttp.StatusOK {
		c.logger.Error("Dialog bridge returned non-OK status",
			zap.String("type", payload.Type),
			zap.Int("statusCode", resp.StatusCode()))
		return nil, fmt.Errorf("dialog bridge returned status %d", resp.StatusCode())
	}

	var parsed dialogResponse
	if err := json.Unmarshal(resp.Body(), &parsed); err != nil {
		return nil, fmt.Errorf("failed to unmarshal dialog response: %w", err)
	}
	return &parsed, nil
}

// Alert shows a notification dialog. The user can only acknowledge it.
func (c *httpDialogClient) Alert(ctx context.Context, content []string) error {
	_, err := c.do(ctx, dialogRequest{Type: dialogTypeAlert, Content: content})
	return err
}

// Confirm shows an approve/decline dialog and returns the user's choice.
func (c *httpDialogClient) Confirm(ctx context.Context, content []string) (bool, error) {
	resp, err := c.do(ctx, dialogRequest{Type: dialogTypeConfirmation, Content: content})
	if err != nil {
		return false, err
	}
	approved, ok := resp.Result.(bool)
	if !ok {
		return false, fmt.Errorf("confirmation dialog returned unexpected result %v", resp.Result)
	}
	return approved, nil
}

// Prompt shows a free-text input dialog. ok reports whether the user
// submitted a value; a dismissed prompt returns ok=false.
func (c *httpDialogClient) Prompt(ctx context.Context, content []string, placeholder string) (string, bool, error) {
	resp, err := c.do(ctx, dialogRequest{Type: dialogTypePrompt, Content: content, Placeholder: placeholder})
	if err != nil {
		return "", false, err
	}
	switch value := resp.Result.(type) {
	case nil:
		return "", false, nil
	case string:
		return value, true, nil
	default:
		return "", false, fmt.Errorf("prompt dialog returned unexpected result %v", resp.Result)
	}
}
