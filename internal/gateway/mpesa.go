package gateway

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/clintonochieng072-gif/ClintonStack-websites-sub002/internal/config"
)

// Mpesa talks to Safaricom Daraja.
type Mpesa struct {
	baseURL        string
	consumerKey    string
	consumerSecret string
	shortCode      string
	passKey        string
	client         *http.Client
	now            func() time.Time

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

func NewMpesa(cfg config.MpesaConfig) *Mpesa {
	return &Mpesa{
		baseURL:        cfg.BaseURL,
		consumerKey:    cfg.ConsumerKey,
		consumerSecret: cfg.ConsumerSecret,
		shortCode:      cfg.ShortCode,
		passKey:        cfg.PassKey,
		client:         newHTTPClient(),
		now:            time.Now,
	}
}

func (m *Mpesa) Name() string {
	return "mpesa"
}

func (m *Mpesa) accessToken(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.token != "" && m.now().Before(m.tokenExpiry) {
		return m.token, nil
	}

	var res struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   string `json:"expires_in"`
	}
	err := doJSON(ctx, m.client, http.MethodGet, m.baseURL+"/oauth/v1/generate?grant_type=client_credentials", nil, &res,
		func(req *http.Request) { req.SetBasicAuth(m.consumerKey, m.consumerSecret) })
	if err != nil {
		return "", fmt.Errorf("mpesa token: %w", err)
	}
	if res.AccessToken == "" {
		return "", fmt.Errorf("mpesa token: empty access token")
	}

	// Daraja tokens live for an hour.
	m.token = res.AccessToken
	m.tokenExpiry = m.now().Add(50 * time.Minute)
	return m.token, nil
}

func (m *Mpesa) STKPush(ctx context.Context, req STKRequest) (*STKResponse, error) {
	token, err := m.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	timestamp := m.now().Format("20060102150405")
	password := base64.StdEncoding.EncodeToString([]byte(m.shortCode + m.passKey + timestamp))

	payload := map[string]interface{}{
		"BusinessShortCode": m.shortCode,
		"Password":          password,
		"Timestamp":         timestamp,
		"TransactionType":   "CustomerPayBillOnline",
		"Amount":            req.Amount.Ceil().IntPart(),
		"PartyA":            req.Phone,
		"PartyB":            m.shortCode,
		"PhoneNumber":       req.Phone,
		"CallBackURL":       req.CallbackURL,
		"AccountReference":  req.Reference,
		"TransactionDesc":   req.Description,
	}

	var res struct {
		CheckoutRequestID   string `json:"CheckoutRequestID"`
		ResponseCode        string `json:"ResponseCode"`
		ResponseDescription string `json:"ResponseDescription"`
		CustomerMessage     string `json:"CustomerMessage"`
	}
	err = doJSON(ctx, m.client, http.MethodPost, m.baseURL+"/mpesa/stkpush/v1/processrequest", payload, &res,
		func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) })
	if err != nil {
		return nil, fmt.Errorf("mpesa stk push: %w", err)
	}
	if res.ResponseCode != "0" {
		return nil, fmt.Errorf("mpesa stk push rejected: %s", res.ResponseDescription)
	}

	return &STKResponse{ExternalRef: res.CheckoutRequestID, Message: res.CustomerMessage}, nil
}

func (m *Mpesa) ParseCallback(body []byte) (*CallbackResult, error) {
	var payload struct {
		Body struct {
			StkCallback struct {
				CheckoutRequestID string `json:"CheckoutRequestID"`
				ResultCode        int    `json:"ResultCode"`
				ResultDesc        string `json:"ResultDesc"`
				CallbackMetadata  struct {
					Item []struct {
						Name  string          `json:"Name"`
						Value json.RawMessage `json:"Value"`
					} `json:"Item"`
				} `json:"CallbackMetadata"`
			} `json:"stkCallback"`
		} `json:"Body"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCallback, err)
	}

	cb := payload.Body.StkCallback
	if cb.CheckoutRequestID == "" {
		return nil, ErrInvalidCallback
	}

	result := &CallbackResult{
		ExternalRef: cb.CheckoutRequestID,
		Success:     cb.ResultCode == 0,
	}
	if !result.Success {
		result.Reason = cb.ResultDesc
	}
	for _, item := range cb.CallbackMetadata.Item {
		switch item.Name {
		case "MpesaReceiptNumber":
			_ = json.Unmarshal(item.Value, &result.Receipt)
		case "Amount":
			_ = json.Unmarshal(item.Value, &result.Amount)
		}
	}
	return result, nil
}
