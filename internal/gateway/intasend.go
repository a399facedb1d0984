package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/clintonochieng072-gif/ClintonStack-websites-sub002/internal/config"
)

type IntaSend struct {
	baseURL        string
	secretKey      string
	publishableKey string
	client         *http.Client
}

func NewIntaSend(cfg config.IntaSendConfig) *IntaSend {
	return &IntaSend{
		baseURL:        cfg.BaseURL,
		secretKey:      cfg.SecretKey,
		publishableKey: cfg.PublishableKey,
		client:         newHTTPClient(),
	}
}

func (i *IntaSend) Name() string {
	return "intasend"
}

func (i *IntaSend) STKPush(ctx context.Context, req STKRequest) (*STKResponse, error) {
	payload := map[string]interface{}{
		"public_key":   i.publishableKey,
		"amount":       req.Amount.StringFixed(2),
		"currency":     "KES",
		"phone_number": req.Phone,
		"api_ref":      req.Reference,
		"narrative":    req.Description,
	}

	var res struct {
		ID      string `json:"id"`
		Invoice struct {
			InvoiceID string `json:"invoice_id"`
			State     string `json:"state"`
		} `json:"invoice"`
	}
	err := doJSON(ctx, i.client, http.MethodPost, i.baseURL+"/api/v1/payment/mpesa-stk-push/", payload, &res,
		func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+i.secretKey) })
	if err != nil {
		return nil, fmt.Errorf("intasend stk push: %w", err)
	}
	if res.Invoice.InvoiceID == "" {
		return nil, fmt.Errorf("intasend stk push: missing invoice id")
	}

	return &STKResponse{ExternalRef: res.Invoice.InvoiceID, Message: res.Invoice.State}, nil
}

func (i *IntaSend) ParseCallback(body []byte) (*CallbackResult, error) {
	var payload struct {
		InvoiceID      string              `json:"invoice_id"`
		State          string              `json:"state"`
		Value          decimal.NullDecimal `json:"value"`
		FailedReason   string              `json:"failed_reason"`
		MpesaReference string              `json:"mpesa_reference"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCallback, err)
	}
	if payload.InvoiceID == "" || payload.State == "" {
		return nil, ErrInvalidCallback
	}

	state := strings.ToUpper(payload.State)
	switch state {
	case "COMPLETE", "FAILED":
	default:
		return nil, fmt.Errorf("%w: %s", ErrCallbackNotFinal, state)
	}

	result := &CallbackResult{
		ExternalRef: payload.InvoiceID,
		Success:     state == "COMPLETE",
		Receipt:     payload.MpesaReference,
		Amount:      payload.Value,
	}
	if !result.Success {
		result.Reason = payload.FailedReason
	}
	return result, nil
}
