package provider

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/GlebRadaev/creditsettle/internal/domain"
)

const (
	polarOrderCreated   = "order.created"
	polarOrderCompleted = "order.completed"
	polarOrderPaid      = "order.paid"
	polarOrderRefunded  = "order.refunded"
	polarPaymentFailed  = "order.payment_failed"
)

type HTTPClient interface {
	Get(url string, headers http.Header) (statusCode int, respBody []byte, respHeaders http.Header, err error)
	Post(url string, headers http.Header, body []byte) (statusCode int, respBody []byte, respHeaders http.Header, err error)
}

// PolarProducts maps purchases to Polar product ids.
type PolarProducts struct {
	Starter     string
	Popular     string
	Pro         string
	LinksUnlock string
}

type PolarConfig struct {
	WebhookSecret string
	AccessToken   string
	APIURL        string
	PublicBaseURL string
	Products      PolarProducts
}

// Polar is the alternative-checkout adapter.
type Polar struct {
	cfg    PolarConfig
	client HTTPClient
}

func NewPolar(cfg PolarConfig, client HTTPClient) *Polar {
	cfg.APIURL = strings.TrimSuffix(cfg.APIURL, "/")
	return &Polar{cfg: cfg, client: client}
}

func (p *Polar) Provider() domain.Provider {
	return domain.ProviderAlternativeCheckout
}

type polarEvent struct {
	ID   string     `json:"id"`
	Type string     `json:"type"`
	Data polarOrder `json:"data"`
}

type polarOrder struct {
	ID            string            `json:"id"`
	Status        string            `json:"status"`
	PaymentStatus string            `json:"payment_status"`
	Paid          *bool             `json:"paid"`
	Amount        int64             `json:"amount"`
	Customer      *polarCustomer    `json:"customer"`
	Metadata      map[string]any    `json:"metadata"`
	Checkout      *polarCheckoutRef `json:"checkout"`
	CheckoutID    string            `json:"checkout_id"`
}

func (o polarOrder) checkoutID() string {
	if o.Checkout != nil && o.Checkout.ID != "" {
		return o.Checkout.ID
	}
	return o.CheckoutID
}

type polarCustomer struct {
	ExternalID string `json:"external_id"`
}

type polarCheckoutRef struct {
	ID string `json:"id"`
}

type polarOrderList struct {
	Items []polarOrder `json:"items"`
}

type polarCheckout struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// Normalize checks the hex HMAC-SHA256 in X-Polar-Signature and maps the event.
func (p *Polar) Normalize(body []byte, signature string) (*domain.ProviderEvent, error) {
	if p.cfg.WebhookSecret == "" {
		return nil, fmt.Errorf("%w: polar webhook secret is not configured", domain.ErrAuthentication)
	}
	if !p.validSignature(body, signature) {
		return nil, fmt.Errorf("%w: signature mismatch", domain.ErrAuthentication)
	}

	var event polarEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, fmt.Errorf("decode polar event: %w", err)
	}
	eventID := event.ID
	if eventID == "" {
		eventID = event.Type + ":" + event.Data.ID
	}
	ev := &domain.ProviderEvent{
		Provider:  domain.ProviderAlternativeCheckout,
		EventID:   eventID,
		EventType: event.Type,
	}

	switch event.Type {
	case polarOrderCreated, polarOrderCompleted, polarOrderPaid:
		ev.Intent = polarIntent(event.Data)
	case polarOrderRefunded, polarPaymentFailed:
		// Pending entries are recorded under the checkout id.
		ev.FailedRef = event.Data.ID
		if ref := event.Data.checkoutID(); ref != "" {
			ev.FailedRef = ref
		}
	}
	return ev, nil
}

func (p *Polar) validSignature(body []byte, signature string) bool {
	signature = strings.TrimSpace(strings.ToLower(signature))
	if signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(p.cfg.WebhookSecret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// LookupSession accepts the checkout id the success page receives, or an order
// id. The session is always the order, so it settles under the same key as the
// order webhooks. A checkout with no order yet is reported as unpaid.
func (p *Polar) LookupSession(_ context.Context, id string) (*domain.PaymentSession, error) {
	var list polarOrderList
	status, err := p.getJSON(p.cfg.APIURL+"/v1/orders/?limit=1&checkout_id="+url.QueryEscape(id), &list)
	if err != nil {
		return nil, fmt.Errorf("polar list orders: %w", err)
	}
	switch {
	case status == http.StatusOK && len(list.Items) > 0:
		return polarSession(list.Items[0]), nil
	case status != http.StatusOK && status != http.StatusNotFound && status != http.StatusUnprocessableEntity:
		zap.L().Error("unexpected polar response", zap.Int("status", status), zap.String("checkout_id", id))
		return nil, fmt.Errorf("polar list orders: unexpected status %d", status)
	}

	var order polarOrder
	status, err = p.getJSON(p.cfg.APIURL+"/v1/orders/"+url.PathEscape(id), &order)
	if err != nil {
		return nil, fmt.Errorf("polar get order: %w", err)
	}
	switch status {
	case http.StatusOK:
		return polarSession(order), nil
	case http.StatusNotFound:
	default:
		zap.L().Error("unexpected polar response", zap.Int("status", status), zap.String("order_id", id))
		return nil, fmt.Errorf("polar get order: unexpected status %d", status)
	}

	var checkout polarCheckout
	status, err = p.getJSON(p.cfg.APIURL+"/v1/checkouts/"+url.PathEscape(id), &checkout)
	if err != nil {
		return nil, fmt.Errorf("polar get checkout: %w", err)
	}
	switch status {
	case http.StatusOK:
		return &domain.PaymentSession{ID: checkout.ID, Status: checkout.Status}, nil
	case http.StatusNotFound:
		return nil, domain.ErrNotFound
	default:
		zap.L().Error("unexpected polar response", zap.Int("status", status), zap.String("checkout_id", id))
		return nil, fmt.Errorf("polar get checkout: unexpected status %d", status)
	}
}

// getJSON decodes the body into out only on 200.
func (p *Polar) getJSON(endpoint string, out any) (int, error) {
	status, body, _, err := p.client.Get(endpoint, p.headers())
	if err != nil {
		return 0, err
	}
	if status == http.StatusOK {
		if err := json.Unmarshal(body, out); err != nil {
			return status, fmt.Errorf("decode polar response: %w", err)
		}
	}
	return status, nil
}

func polarSession(order polarOrder) *domain.PaymentSession {
	return &domain.PaymentSession{
		ID:     order.ID,
		Paid:   polarPaid(order),
		Status: order.Status,
		Intent: polarIntent(order),
	}
}

type polarCheckoutRequest struct {
	Products           []string          `json:"products"`
	SuccessURL         string            `json:"success_url"`
	ExternalCustomerID string            `json:"external_customer_id"`
	Metadata           map[string]string `json:"metadata"`
}

type polarCheckoutResponse struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

func (p *Polar) CreateCheckout(_ context.Context, order domain.CheckoutOrder) (*domain.CheckoutSession, error) {
	product := p.productFor(order)
	if product == "" {
		return nil, fmt.Errorf("%w: no polar product for %s %s", domain.ErrInvalidInput, order.Type, order.PackageID)
	}
	md := checkoutMetadata(order)
	md["outfit_id"] = order.ResourceID
	payload, err := json.Marshal(polarCheckoutRequest{
		Products:           []string{product},
		SuccessURL:         p.cfg.PublicBaseURL + "/payment/success?checkout_id={CHECKOUT_ID}&provider=" + string(domain.ProviderAlternativeCheckout),
		ExternalCustomerID: order.UserID,
		Metadata:           md,
	})
	if err != nil {
		return nil, fmt.Errorf("encode polar checkout: %w", err)
	}

	headers := p.headers()
	headers.Set("Content-Type", "application/json")
	status, body, _, err := p.client.Post(p.cfg.APIURL+"/v1/checkouts/", headers, payload)
	if err != nil {
		return nil, fmt.Errorf("polar create checkout: %w", err)
	}
	if status != http.StatusOK && status != http.StatusCreated {
		zap.L().Error("polar checkout rejected", zap.Int("status", status), zap.ByteString("body", body))
		return nil, fmt.Errorf("polar create checkout: unexpected status %d", status)
	}

	var resp polarCheckoutResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode polar checkout: %w", err)
	}
	return &domain.CheckoutSession{ID: resp.ID, URL: resp.URL, Provider: domain.ProviderAlternativeCheckout}, nil
}

func (p *Polar) headers() http.Header {
	h := http.Header{}
	h.Set("Authorization", "Bearer "+p.cfg.AccessToken)
	h.Set("Accept", "application/json")
	return h
}

func (p *Polar) productFor(order domain.CheckoutOrder) string {
	if order.Type == domain.IntentLinksUnlock {
		return p.cfg.Products.LinksUnlock
	}
	switch order.PackageID {
	case "starter":
		return p.cfg.Products.Starter
	case "popular":
		return p.cfg.Products.Popular
	case "pro":
		return p.cfg.Products.Pro
	}
	return ""
}

func polarPaid(order polarOrder) bool {
	if order.PaymentStatus != "" {
		return strings.EqualFold(order.PaymentStatus, "paid")
	}
	if order.Paid != nil {
		return *order.Paid
	}
	switch strings.ToLower(order.Status) {
	case "paid", "succeeded", "completed":
		return true
	}
	return false
}

func polarIntent(order polarOrder) *domain.PurchaseIntent {
	md := make(map[string]string, len(order.Metadata))
	for k, v := range order.Metadata {
		switch val := v.(type) {
		case string:
			md[k] = val
		case float64:
			md[k] = fmt.Sprintf("%.0f", val)
		case nil:
		default:
			md[k] = fmt.Sprint(val)
		}
	}
	userID := ""
	if order.Customer != nil {
		userID = order.Customer.ExternalID
	}
	if userID == "" {
		userID = lookup(md, metaUserID, "user_id")
	}
	intent := intentFromMetadata(domain.ProviderAlternativeCheckout, userID, order.ID, md)
	if intent == nil {
		return nil
	}
	intent.AmountCents = order.Amount
	intent.ProviderRef = order.checkoutID()
	return intent
}
