package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/smeazy/invoicing-backend/pkg/config"
	pkgerrors "github.com/smeazy/invoicing-backend/pkg/errors"
)

// DeliveryResult reports the gateway's verdict for one recipient.
type DeliveryResult struct {
	Recipient string
	Status    string
	MessageID string
}

// Channel delivers a text message to a phone number.
type Channel interface {
	Send(ctx context.Context, phoneNumber, text string) (*DeliveryResult, error)
}

// AfricasTalkingChannel posts messages to the Africa's Talking SMS gateway.
// Credentials come from configuration only.
type AfricasTalkingChannel struct {
	baseURL  string
	username string
	apiKey   string
	client   *http.Client
}

// NewAfricasTalkingChannel builds the gateway client from SMS configuration.
func NewAfricasTalkingChannel(cfg config.SMSConfig) (*AfricasTalkingChannel, error) {
	if strings.TrimSpace(cfg.Username) == "" {
		return nil, fmt.Errorf("sms username is required")
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("sms api key is required")
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, fmt.Errorf("sms base url is required")
	}
	return &AfricasTalkingChannel{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		username: cfg.Username,
		apiKey:   cfg.APIKey,
		client:   &http.Client{Timeout: cfg.Timeout},
	}, nil
}

type gatewayResponse struct {
	SMSMessageData struct {
		Recipients []struct {
			Number    string `json:"number"`
			Status    string `json:"status"`
			MessageID string `json:"messageId"`
		} `json:"Recipients"`
	} `json:"SMSMessageData"`
}

// Send posts one message. Delivery is synchronous from the gateway's point of
// view; the returned status is its acceptance verdict, not final delivery.
func (c *AfricasTalkingChannel) Send(ctx context.Context, phoneNumber, text string) (*DeliveryResult, error) {
	form := url.Values{}
	form.Set("username", c.username)
	form.Set("to", phoneNumber)
	form.Set("message", text)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/version1/messaging", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build sms request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("apiKey", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "send sms")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, pkgerrors.New(pkgerrors.CodeDependency,
			fmt.Sprintf("sms gateway returned %d", resp.StatusCode))
	}

	var payload gatewayResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode sms response")
	}
	if len(payload.SMSMessageData.Recipients) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "sms gateway accepted no recipients")
	}

	recipient := payload.SMSMessageData.Recipients[0]
	return &DeliveryResult{
		Recipient: recipient.Number,
		Status:    recipient.Status,
		MessageID: recipient.MessageID,
	}, nil
}
