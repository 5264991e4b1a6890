package models

// PricingLine represents pricing information for a single box entry
type PricingLine struct {
	ItemID    string `json:"itemId"`
	Name      string `json:"name"`      // Empty when the item is not in the catalog
	Qty       int    `json:"qty"`       // Quantity per delivery
	UnitPrice int64  `json:"unitPrice"` // Catalog unit price, 0 for unknown items
	LineTotal int64  `json:"lineTotal"` // Qty * UnitPrice
	Known     bool   `json:"known"`     // False when the item id is not in the catalog
}

// AddOnCharge represents a flat fee applied to the order
type AddOnCharge struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Fee  int64  `json:"fee"`
}

// PricingBreakdown represents the complete pricing calculation result
// Example:
//
//	{
//	  "lines": [{"itemId": "apple", "qty": 2, "unitPrice": 800, "lineTotal": 1600}],
//	  "itemCount": 2,
//	  "perDelivery": 1600,
//	  "frequency": "weekly",
//	  "multiplier": 4,
//	  "subtotal": 6400,
//	  "addOns": [],
//	  "total": 6400
//	}
type PricingBreakdown struct {
	Lines       []PricingLine `json:"lines"`
	ItemCount   int           `json:"itemCount"`
	PerDelivery int64         `json:"perDelivery"` // Price of one delivery
	Frequency   Frequency     `json:"frequency"`
	Multiplier  int64         `json:"multiplier"` // Number of prepaid deliveries
	Subtotal    int64         `json:"subtotal"`   // PerDelivery * Multiplier
	AddOns      []AddOnCharge `json:"addOns"`
	Total       int64         `json:"total"` // Subtotal + add-on fees
}
