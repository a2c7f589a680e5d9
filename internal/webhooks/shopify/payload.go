package shopifywebhook

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/colondancer/raffle-bee/internal/entries"
	pkgerrors "github.com/colondancer/raffle-bee/pkg/errors"
)

type address struct {
	CountryCode string `json:"country_code"`
	Name        string `json:"name"`
}

type customer struct {
	ID        json.Number `json:"id"`
	Email     string      `json:"email"`
	FirstName string      `json:"first_name"`
	LastName  string      `json:"last_name"`
}

type refundTransaction struct {
	Kind   string          `json:"kind"`
	Status string          `json:"status"`
	Amount decimal.Decimal `json:"amount"`
}

type refund struct {
	Transactions []refundTransaction `json:"transactions"`
}

// orderPayload is the part of a Shopify order resource the app reads.
type orderPayload struct {
	ID             json.Number      `json:"id"`
	OrderNumber    json.Number      `json:"order_number"`
	Email          string           `json:"email"`
	SubtotalPrice  *decimal.Decimal `json:"subtotal_price"`
	TotalRefunded  *decimal.Decimal `json:"total_refunded"`
	BillingAddress *address         `json:"billing_address"`
	Customer       *customer        `json:"customer"`
	Refunds        []refund         `json:"refunds"`
}

func decodeOrder(body []byte) (*orderPayload, error) {
	var order orderPayload
	if err := json.Unmarshal(body, &order); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode order payload")
	}
	if order.ID.String() == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id missing")
	}
	if order.SubtotalPrice == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order subtotal missing").
			WithDetails(map[string]any{"field": "subtotal_price", "orderId": order.ID.String()})
	}
	return &order, nil
}

// OrderPaidFromPayload maps an orders/paid body onto the lifecycle event.
func OrderPaidFromPayload(shopDomain string, body []byte) (entries.OrderPaid, error) {
	order, err := decodeOrder(body)
	if err != nil {
		return entries.OrderPaid{}, err
	}
	event := entries.OrderPaid{
		OrderID:       order.ID.String(),
		OrderNumber:   order.OrderNumber.String(),
		ShopDomain:    shopDomain,
		Subtotal:      *order.SubtotalPrice,
		CustomerEmail: order.Email,
	}
	if order.BillingAddress != nil {
		event.BillingCountry = order.BillingAddress.CountryCode
	}
	if c := order.Customer; c != nil {
		if id := c.ID.String(); id != "" {
			event.CustomerID = &id
		}
		if event.CustomerEmail == "" {
			event.CustomerEmail = c.Email
		}
		if name := strings.TrimSpace(c.FirstName + " " + c.LastName); name != "" {
			event.CustomerName = &name
		}
	}
	if event.CustomerName == nil && order.BillingAddress != nil && order.BillingAddress.Name != "" {
		name := order.BillingAddress.Name
		event.CustomerName = &name
	}
	return event, nil
}

// OrderUpdatedFromPayload maps an orders/updated body onto the refund event.
// total_refunded wins when present; otherwise successful refund
// transactions are summed.
func OrderUpdatedFromPayload(shopDomain string, body []byte) (entries.OrderUpdated, error) {
	order, err := decodeOrder(body)
	if err != nil {
		return entries.OrderUpdated{}, err
	}
	return entries.OrderUpdated{
		OrderID:       order.ID.String(),
		ShopDomain:    shopDomain,
		Subtotal:      *order.SubtotalPrice,
		TotalRefunded: order.refunded(),
	}, nil
}

func (o *orderPayload) refunded() decimal.Decimal {
	if o.TotalRefunded != nil {
		return *o.TotalRefunded
	}
	total := decimal.Zero
	for _, r := range o.Refunds {
		for _, txn := range r.Transactions {
			if !strings.EqualFold(txn.Kind, "refund") {
				continue
			}
			if txn.Status != "" && !strings.EqualFold(txn.Status, "success") {
				continue
			}
			total = total.Add(txn.Amount)
		}
	}
	return total
}

// CustomerRedaction is the customers/redact request.
type CustomerRedaction struct {
	ShopDomain string
	CustomerID *string
	Email      string
}

type customerRedactPayload struct {
	ShopDomain string `json:"shop_domain"`
	Customer   struct {
		ID    json.Number `json:"id"`
		Email string      `json:"email"`
	} `json:"customer"`
}

// CustomerRedactionFromPayload decodes a customers/redact body. The shop in
// the body is used only when the header carried none.
func CustomerRedactionFromPayload(shopDomain string, body []byte) (CustomerRedaction, error) {
	var payload customerRedactPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return CustomerRedaction{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode customer redact payload")
	}
	out := CustomerRedaction{ShopDomain: shopDomain, Email: payload.Customer.Email}
	if out.ShopDomain == "" {
		out.ShopDomain = payload.ShopDomain
	}
	if id := payload.Customer.ID.String(); id != "" {
		out.CustomerID = &id
	}
	return out, nil
}

type shopPayload struct {
	ShopDomain string `json:"shop_domain"`
	Domain     string `json:"domain"`
}

// ShopDomainFromPayload picks the shop for app and shop level topics.
func ShopDomainFromPayload(shopDomain string, body []byte) string {
	if shopDomain != "" {
		return shopDomain
	}
	var payload shopPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	if payload.ShopDomain != "" {
		return payload.ShopDomain
	}
	return payload.Domain
}
