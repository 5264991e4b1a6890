package models

import "time"

// DeliveryDateLayout is the wire format of delivery dates
const DeliveryDateLayout = "2006-01-02"

// OrderStatus tags a persisted order
type OrderStatus string

const (
	OrderStatusPaid           OrderStatus = "paid"
	OrderStatusPendingHandoff OrderStatus = "pending-handoff"
)

// OrderDraft holds the checkout details collected for the order in progress
type OrderDraft struct {
	CompanyName     string    `json:"companyName"`
	Email           string    `json:"email"`
	DeliveryAddress string    `json:"deliveryAddress"`
	Note            string    `json:"note,omitempty"`
	DeliveryDate    string    `json:"deliveryDate"` // YYYY-MM-DD
	TeamSize        int       `json:"teamSize"`
	Mood            string    `json:"mood,omitempty"`
	Frequency       Frequency `json:"frequency"`
	AddOns          []string  `json:"addOns,omitempty"` // Add-on ids whose flag is set
}

// HasAddOn reports whether the add-on flag id is set
func (d OrderDraft) HasAddOn(id string) bool {
	for _, a := range d.AddOns {
		if a == id {
			return true
		}
	}
	return false
}

// Order is the immutable record created once checkout succeeds
type Order struct {
	ID               string         `json:"id"`
	CompanyName      string         `json:"companyName"`
	Email            string         `json:"email"`
	DeliveryAddress  string         `json:"deliveryAddress"`
	Note             string         `json:"note,omitempty"`
	DeliveryDate     string         `json:"deliveryDate"`
	TeamSize         int            `json:"teamSize"`
	Mood             string         `json:"mood,omitempty"`
	Frequency        Frequency      `json:"frequency"`
	AddOns           []string       `json:"addOns,omitempty"`
	BoxItems         map[string]int `json:"boxItems"`
	PerDelivery      int64          `json:"perDelivery"`
	Multiplier       int64          `json:"multiplier"`
	TotalPrice       int64          `json:"totalPrice"`
	AmountMinor      int64          `json:"amountMinor"` // TotalPrice in minor units (kobo)
	Currency         string         `json:"currency"`
	PaymentReference string         `json:"paymentReference,omitempty"`
	Status           OrderStatus    `json:"status"`
	CreatedAt        time.Time      `json:"createdAt"`
}

// FieldError describes one failed checkout check
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// UpdateDetailsRequest represents the request body for PUT /api/checkout/details
// Example: {"companyName": "Creative Hub", "email": "hi@office.com", "deliveryAddress": "12 Marina, Lagos", "deliveryDate": "2026-10-20"}
type UpdateDetailsRequest struct {
	CompanyName     *string `json:"companyName,omitempty"`
	Email           *string `json:"email,omitempty"`
	DeliveryAddress *string `json:"deliveryAddress,omitempty"`
	Note            *string `json:"note,omitempty"`
	DeliveryDate    *string `json:"deliveryDate,omitempty"`
}

// UpdatePreferencesRequest represents the request body for PUT /api/session/preferences
// Example: {"frequency": "bi-weekly", "teamSize": 25, "mood": "Deadline week", "addOns": ["branding"]}
type UpdatePreferencesRequest struct {
	Frequency *string   `json:"frequency,omitempty"`
	TeamSize  *int      `json:"teamSize,omitempty"`
	Mood      *string   `json:"mood,omitempty"`
	AddOns    *[]string `json:"addOns,omitempty"`
}

// ReplaceBoxRequest represents the request body for PUT /api/box
// Example: {"items": {"apple": 4, "kiwi": 2}}
type ReplaceBoxRequest struct {
	Items map[string]int `json:"items"`
}

// PaymentCallbackRequest represents the request body for POST /api/checkout/pay/callback
// Example: {"reference": "OF-3f1c..."}
type PaymentCallbackRequest struct {
	Reference string `json:"reference"`
}
