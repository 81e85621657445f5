package stripe

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const DefaultBaseURL = "https://api.stripe.com/v1"

// Client talks to the payment processor's REST API. Amounts are always sent
// in minor units (cents) regardless of how the caller stores them.
type Client struct {
	baseURL    string
	secretKey  string
	httpClient *http.Client
}

// NewClient creates a new payment API client
func NewClient(secretKey string) *Client {
	return &Client{
		baseURL:   DefaultBaseURL,
		secretKey: secretKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// NewClientWithBaseURL is used by tests to point the client at a stub server.
func NewClientWithBaseURL(secretKey, baseURL string) *Client {
	c := NewClient(secretKey)
	c.baseURL = strings.TrimRight(baseURL, "/")
	return c
}

// PaymentIntent is the processor's hold/charge object
type PaymentIntent struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Amount int64  `json:"amount"`
}

// Transfer is a direct payout to a connected account
type Transfer struct {
	ID          string `json:"id"`
	Amount      int64  `json:"amount"`
	Destination string `json:"destination"`
}

// Customer represents a buyer with a stored payment method
type Customer struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Account is a seller's connected sub-merchant account
type Account struct {
	ID             string `json:"id"`
	ChargesEnabled bool   `json:"charges_enabled"`
}

// Refund of a captured payment
type Refund struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type apiError struct {
	Error struct {
		Type    string `json:"type"`
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) post(ctx context.Context, path string, form url.Values, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode >= 400 {
		var apiErr apiError
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error.Message != "" {
			return fmt.Errorf("payment API error: %s", apiErr.Error.Message)
		}
		return fmt.Errorf("payment API error: %s - %s", resp.Status, string(body))
	}

	if out != nil {
		return json.Unmarshal(body, out)
	}
	return nil
}

// CreateCustomer registers a buyer with the processor.
func (c *Client) CreateCustomer(ctx context.Context, email, name string) (*Customer, error) {
	form := url.Values{}
	form.Set("email", email)
	form.Set("name", name)

	var customer Customer
	if err := c.post(ctx, "/customers", form, &customer); err != nil {
		return nil, err
	}
	return &customer, nil
}

// CreateConnectedAccount creates a seller sub-merchant account.
func (c *Client) CreateConnectedAccount(ctx context.Context, email string) (*Account, error) {
	form := url.Values{}
	form.Set("type", "express")
	form.Set("email", email)

	var account Account
	if err := c.post(ctx, "/accounts", form, &account); err != nil {
		return nil, err
	}
	return &account, nil
}

// CreateAuthorization places a manual-capture hold on the customer's card,
// routed to the seller's connected account with the platform fee withheld.
func (c *Client) CreateAuthorization(ctx context.Context, amountCents int64, currency, customerID, destinationAccountID string, applicationFeeCents int64) (*PaymentIntent, error) {
	form := url.Values{}
	form.Set("amount", strconv.FormatInt(amountCents, 10))
	form.Set("currency", currency)
	form.Set("customer", customerID)
	form.Set("capture_method", "manual")
	form.Set("confirm", "true")
	form.Set("transfer_data[destination]", destinationAccountID)
	form.Set("application_fee_amount", strconv.FormatInt(applicationFeeCents, 10))

	var pi PaymentIntent
	if err := c.post(ctx, "/payment_intents", form, &pi); err != nil {
		return nil, err
	}
	return &pi, nil
}

// CaptureAuthorization converts a hold into a charge for up to the
// authorized amount.
func (c *Client) CaptureAuthorization(ctx context.Context, paymentIntentID string, amountCents int64) (*PaymentIntent, error) {
	form := url.Values{}
	form.Set("amount_to_capture", strconv.FormatInt(amountCents, 10))

	var pi PaymentIntent
	if err := c.post(ctx, "/payment_intents/"+paymentIntentID+"/capture", form, &pi); err != nil {
		return nil, err
	}
	return &pi, nil
}

// CancelAuthorization releases a hold without charging.
func (c *Client) CancelAuthorization(ctx context.Context, paymentIntentID string) error {
	return c.post(ctx, "/payment_intents/"+paymentIntentID+"/cancel", url.Values{}, nil)
}

// CreateRefund refunds a captured payment.
func (c *Client) CreateRefund(ctx context.Context, paymentIntentID string) (*Refund, error) {
	form := url.Values{}
	form.Set("payment_intent", paymentIntentID)

	var refund Refund
	if err := c.post(ctx, "/refunds", form, &refund); err != nil {
		return nil, err
	}
	return &refund, nil
}

// CreateTransfer moves funds directly to a connected account. Used by the
// payout queue when the original charge did not route funds automatically.
func (c *Client) CreateTransfer(ctx context.Context, amountCents int64, currency, destinationAccountID string, auctionID int64) (*Transfer, error) {
	form := url.Values{}
	form.Set("amount", strconv.FormatInt(amountCents, 10))
	form.Set("currency", currency)
	form.Set("destination", destinationAccountID)
	form.Set("metadata[auction_id]", strconv.FormatInt(auctionID, 10))

	var transfer Transfer
	if err := c.post(ctx, "/transfers", form, &transfer); err != nil {
		return nil, err
	}
	return &transfer, nil
}
