package paypal

import (
	"fmt"
)

// Статусы заказа PayPal, которые важны для сценария оплаты.
const (
	StatusCreated   = "CREATED"
	StatusApproved  = "APPROVED"
	StatusCompleted = "COMPLETED"
)

// Amount сумма в формате PayPal: валюта и строка с двумя знаками.
type Amount struct {
	CurrencyCode string `json:"currency_code"`
	Value        string `json:"value"`
}

// PurchaseUnit одна позиция заказа.
type PurchaseUnit struct {
	ReferenceID string    `json:"reference_id"`
	Amount      Amount    `json:"amount"`
	Description string    `json:"description,omitempty"`
	CustomID    string    `json:"custom_id,omitempty"`
	Payments    *Payments `json:"payments,omitempty"`
}

// Payments списания позиции, приходят в ответе capture.
type Payments struct {
	Captures []CaptureDetail `json:"captures,omitempty"`
}

// CaptureDetail одно списание.
type CaptureDetail struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Amount Amount `json:"amount"`
}

// ApplicationContext параметры страницы оплаты PayPal.
type ApplicationContext struct {
	BrandName   string `json:"brand_name,omitempty"`
	LandingPage string `json:"landing_page,omitempty"`
	UserAction  string `json:"user_action,omitempty"`
	ReturnURL   string `json:"return_url"`
	CancelURL   string `json:"cancel_url"`
}

// CreateOrderRequest тело POST /v2/checkout/orders.
type CreateOrderRequest struct {
	Intent             string             `json:"intent"`
	ApplicationContext ApplicationContext `json:"application_context"`
	PurchaseUnits      []PurchaseUnit     `json:"purchase_units"`
}

// Link ссылка HATEOAS из ответа PayPal.
type Link struct {
	Href   string `json:"href"`
	Rel    string `json:"rel"`
	Method string `json:"method,omitempty"`
}

// Order заказ PayPal, как его возвращают create и capture.
type Order struct {
	ID            string         `json:"id"`
	Status        string         `json:"status"`
	Links         []Link         `json:"links"`
	PurchaseUnits []PurchaseUnit `json:"purchase_units,omitempty"`
}

// ReferenceID reference_id первой позиции заказа, в нем лежит идентификатор транзакции.
func (o *Order) ReferenceID() string {
	if len(o.PurchaseUnits) == 0 {
		return ""
	}
	return o.PurchaseUnits[0].ReferenceID
}

// CapturedAmount сумма первого списания первой позиции. Если списаний в ответе нет,
// берется сумма позиции.
func (o *Order) CapturedAmount() (Amount, bool) {
	if len(o.PurchaseUnits) == 0 {
		return Amount{}, false
	}
	pu := o.PurchaseUnits[0]
	if pu.Payments != nil && len(pu.Payments.Captures) > 0 {
		return pu.Payments.Captures[0].Amount, true
	}
	if pu.Amount.Value != "" {
		return pu.Amount, true
	}
	return Amount{}, false
}

// ApprovalURL ссылка rel=approve, по которой покупатель подтверждает оплату.
func (o *Order) ApprovalURL() (string, bool) {
	for _, l := range o.Links {
		if l.Rel == "approve" {
			return l.Href, true
		}
	}
	return "", false
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// APIError ответ PayPal с кодом 4xx или 5xx.
type APIError struct {
	StatusCode int    `json:"-"`
	Name       string `json:"name"`
	Message    string `json:"message"`
	DebugID    string `json:"debug_id"`
}

func (e *APIError) Error() string {
	if e.Name == "" && e.Message == "" {
		return fmt.Sprintf("paypal: status %d", e.StatusCode)
	}
	return fmt.Sprintf("paypal: status %d: %s: %s", e.StatusCode, e.Name, e.Message)
}

// Temporary сообщает, можно ли повторить запрос с тем же ключом идемпотентности.
func (e *APIError) Temporary() bool {
	return e.StatusCode >= 500 || e.StatusCode == 429
}
