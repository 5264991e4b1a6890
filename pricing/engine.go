package pricing

import (
	"officefruits/models"
)

// Catalog is the read-only view of the catalog the engine prices against
type Catalog interface {
	Get(id string) (models.Item, bool)
	AddOn(id string) (models.AddOn, bool)
}

// Engine derives box totals from catalog prices, frequency and add-ons.
// All amounts are integers in whole currency units.
type Engine struct {
	catalog Catalog
}

// NewEngine creates a new pricing engine over catalog
func NewEngine(catalog Catalog) *Engine {
	return &Engine{catalog: catalog}
}

// ItemCount returns the total number of fruits in the box
func (e *Engine) ItemCount(box models.Box) int {
	return box.ItemCount()
}

// PerDeliveryPrice sums unit price * quantity; unknown items contribute 0
func (e *Engine) PerDeliveryPrice(box models.Box) int64 {
	var total int64
	for _, id := range box.IDs() {
		if item, ok := e.catalog.Get(id); ok {
			total += item.Price * int64(box.Quantity(id))
		}
	}
	return total
}

// DeliveryMultiplier returns the number of prepaid deliveries for f
func (e *Engine) DeliveryMultiplier(f models.Frequency) int64 {
	return f.Multiplier()
}

// AddOnFees sums the flat fees of the set add-on flags. Unknown ids are ignored
// and an id listed twice is charged once.
func (e *Engine) AddOnFees(addOns []string) int64 {
	var total int64
	for _, charge := range e.addOnCharges(addOns) {
		total += charge.Fee
	}
	return total
}

// TotalPrice is the upfront amount: perDelivery * multiplier + add-on fees
func (e *Engine) TotalPrice(box models.Box, f models.Frequency, addOns []string) int64 {
	return e.PerDeliveryPrice(box)*e.DeliveryMultiplier(f) + e.AddOnFees(addOns)
}

// Quote calculates the full pricing breakdown for display
func (e *Engine) Quote(box models.Box, f models.Frequency, addOns []string) models.PricingBreakdown {
	breakdown := models.PricingBreakdown{
		Lines:      []models.PricingLine{},
		ItemCount:  box.ItemCount(),
		Frequency:  f,
		Multiplier: e.DeliveryMultiplier(f),
		AddOns:     e.addOnCharges(addOns),
	}

	for _, id := range box.IDs() {
		qty := box.Quantity(id)
		line := models.PricingLine{ItemID: id, Qty: qty}
		if item, ok := e.catalog.Get(id); ok {
			line.Name = item.Name
			line.UnitPrice = item.Price
			line.LineTotal = item.Price * int64(qty)
			line.Known = true
		}
		breakdown.PerDelivery += line.LineTotal
		breakdown.Lines = append(breakdown.Lines, line)
	}

	breakdown.Subtotal = breakdown.PerDelivery * breakdown.Multiplier
	breakdown.Total = breakdown.Subtotal
	for _, charge := range breakdown.AddOns {
		breakdown.Total += charge.Fee
	}
	return breakdown
}

func (e *Engine) addOnCharges(addOns []string) []models.AddOnCharge {
	charges := []models.AddOnCharge{}
	seen := make(map[string]bool, len(addOns))
	for _, id := range addOns {
		if seen[id] {
			continue
		}
		seen[id] = true
		if addOn, ok := e.catalog.AddOn(id); ok {
			charges = append(charges, models.AddOnCharge{ID: addOn.ID, Name: addOn.Name, Fee: addOn.Fee})
		}
	}
	return charges
}
