package models

// Confirmation is the thank-you block shown once an order is confirmed
type Confirmation struct {
	Message   string `json:"message"`
	ReceiptTo string `json:"receiptTo"`
}

// SessionView is the response for GET /api/session and for every workflow mutation
// Example:
//
//	{
//	  "id": "9b0c...", "state": "checkout", "box": {"apple": 2, "banana": 3},
//	  "quote": {"perDelivery": 3100, "multiplier": 4, "total": 12400, ...},
//	  "draft": {"companyName": "", "email": "", "deliveryDate": "2026-10-16", "teamSize": 10, "frequency": "weekly"},
//	  "validation": [{"field": "email", "message": "Please enter a valid work email! 📧"}],
//	  "canReview": true
//	}
type SessionView struct {
	ID                    string           `json:"id"`
	State                 string           `json:"state"`
	Box                   map[string]int   `json:"box"`
	Quote                 PricingBreakdown `json:"quote"`
	Draft                 OrderDraft       `json:"draft"`
	Generation            uint64           `json:"generation"`
	CanReview             bool             `json:"canReview"`
	RecommendationPending bool             `json:"recommendationPending"`
	GuruMessage           string           `json:"guruMessage,omitempty"`
	Submitting            bool             `json:"submitting"`
	Notice                string           `json:"notice,omitempty"`
	Validation            []FieldError     `json:"validation,omitempty"` // Only during checkout
	Order                 *Order           `json:"order,omitempty"`
	Confirmation          *Confirmation    `json:"confirmation,omitempty"`
}
