package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/clintonochieng072-gif/ClintonStack-websites-sub002/internal/config"
)

var (
	ErrGatewayNotConfigured = errors.New("payment gateway not configured")
	ErrInvalidCallback      = errors.New("invalid callback payload")
	ErrCallbackNotFinal     = errors.New("callback reports a non-final state")
)

// STKRequest asks a provider to prompt the payer's phone.
type STKRequest struct {
	Phone       string
	Amount      decimal.Decimal
	Reference   string
	Description string
	CallbackURL string
}

type STKResponse struct {
	// ExternalRef is the provider id later echoed in the callback.
	ExternalRef string
	Message     string
}

// CallbackResult is the provider-neutral outcome of a payment callback.
type CallbackResult struct {
	ExternalRef string
	Success     bool
	Reason      string
	Receipt     string
	// Amount is what the provider reports as paid; invalid when absent.
	Amount decimal.NullDecimal
}

type Gateway interface {
	Name() string
	STKPush(ctx context.Context, req STKRequest) (*STKResponse, error)
	ParseCallback(body []byte) (*CallbackResult, error)
}

// Registry maps provider names to configured gateways.
type Registry struct {
	gateways map[string]Gateway
}

func NewRegistry(gateways ...Gateway) *Registry {
	r := &Registry{gateways: make(map[string]Gateway)}
	for _, g := range gateways {
		r.gateways[g.Name()] = g
	}
	return r
}

// FromConfig registers every provider whose credentials are set.
func FromConfig(cfg config.GatewaysConfig) *Registry {
	var gateways []Gateway
	if cfg.Mpesa.ConsumerKey != "" && cfg.Mpesa.ShortCode != "" {
		gateways = append(gateways, NewMpesa(cfg.Mpesa))
	}
	if cfg.PayHero.Username != "" && cfg.PayHero.ChannelID != 0 {
		gateways = append(gateways, NewPayHero(cfg.PayHero))
	}
	if cfg.IntaSend.SecretKey != "" {
		gateways = append(gateways, NewIntaSend(cfg.IntaSend))
	}
	return NewRegistry(gateways...)
}

func (r *Registry) Get(name string) (Gateway, error) {
	g, ok := r.gateways[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrGatewayNotConfigured, name)
	}
	return g, nil
}

func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.gateways))
	for name := range r.gateways {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: 30 * time.Second}
}

// doJSON sends payload as JSON and decodes a 2xx response into out.
func doJSON(ctx context.Context, client *http.Client, method, url string, payload interface{}, out interface{}, auth func(*http.Request)) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if auth != nil {
		auth(req)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(respBody))
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
