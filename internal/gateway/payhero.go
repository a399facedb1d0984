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

type PayHero struct {
	baseURL   string
	username  string
	password  string
	channelID int
	provider  string
	client    *http.Client
}

func NewPayHero(cfg config.PayHeroConfig) *PayHero {
	return &PayHero{
		baseURL:   cfg.BaseURL,
		username:  cfg.Username,
		password:  cfg.Password,
		channelID: cfg.ChannelID,
		provider:  cfg.Provider,
		client:    newHTTPClient(),
	}
}

func (p *PayHero) Name() string {
	return "payhero"
}

func (p *PayHero) STKPush(ctx context.Context, req STKRequest) (*STKResponse, error) {
	payload := map[string]interface{}{
		"amount":             req.Amount.Ceil().IntPart(),
		"phone_number":       req.Phone,
		"channel_id":         p.channelID,
		"provider":           p.provider,
		"external_reference": req.Reference,
		"callback_url":       req.CallbackURL,
	}

	var res struct {
		Success           bool   `json:"success"`
		Status            string `json:"status"`
		Reference         string `json:"reference"`
		CheckoutRequestID string `json:"CheckoutRequestID"`
	}
	err := doJSON(ctx, p.client, http.MethodPost, p.baseURL+"/api/v2/payments", payload, &res,
		func(r *http.Request) { r.SetBasicAuth(p.username, p.password) })
	if err != nil {
		return nil, fmt.Errorf("payhero stk push: %w", err)
	}
	if !res.Success || res.CheckoutRequestID == "" {
		return nil, fmt.Errorf("payhero stk push rejected: %s", res.Status)
	}

	return &STKResponse{ExternalRef: res.CheckoutRequestID, Message: res.Status}, nil
}

func (p *PayHero) ParseCallback(body []byte) (*CallbackResult, error) {
	var payload struct {
		Status   bool `json:"status"`
		Response struct {
			Amount             decimal.NullDecimal `json:"Amount"`
			CheckoutRequestID  string              `json:"CheckoutRequestID"`
			ExternalReference  string              `json:"ExternalReference"`
			MpesaReceiptNumber string              `json:"MpesaReceiptNumber"`
			ResultCode         int                 `json:"ResultCode"`
			ResultDesc         string              `json:"ResultDesc"`
			Status             string              `json:"Status"`
		} `json:"response"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCallback, err)
	}
	if payload.Response.CheckoutRequestID == "" {
		return nil, ErrInvalidCallback
	}

	success := strings.EqualFold(payload.Response.Status, "Success") && payload.Response.ResultCode == 0
	result := &CallbackResult{
		ExternalRef: payload.Response.CheckoutRequestID,
		Success:     success,
		Receipt:     payload.Response.MpesaReceiptNumber,
		Amount:      payload.Response.Amount,
	}
	if !success {
		result.Reason = payload.Response.ResultDesc
		if result.Reason == "" {
			result.Reason = payload.Response.Status
		}
	}
	return result, nil
}
