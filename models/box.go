package models

import (
	"encoding/json"
	"sort"
)

// Box is the order-in-progress: item id -> quantity.
// A stored quantity is always positive; reaching zero removes the entry.
type Box struct {
	items map[string]int
}

// NewBox creates a box holding the positive entries of mapping
func NewBox(mapping map[string]int) Box {
	var b Box
	b.ReplaceAll(mapping)
	return b
}

// Increment adds one unit of itemID
func (b *Box) Increment(itemID string) {
	if b.items == nil {
		b.items = make(map[string]int)
	}
	b.items[itemID]++
}

// Decrement removes one unit of itemID. Absent items are ignored.
func (b *Box) Decrement(itemID string) {
	qty, ok := b.items[itemID]
	if !ok {
		return
	}
	if qty <= 1 {
		delete(b.items, itemID)
		return
	}
	b.items[itemID] = qty - 1
}

// ReplaceAll discards the current content and installs mapping.
// Entries with a non-positive quantity are dropped.
func (b *Box) ReplaceAll(mapping map[string]int) {
	b.items = make(map[string]int, len(mapping))
	for id, qty := range mapping {
		if qty > 0 {
			b.items[id] = qty
		}
	}
}

// Clear empties the box
func (b *Box) Clear() {
	b.items = nil
}

// Quantity returns the quantity of itemID, 0 when absent
func (b Box) Quantity(itemID string) int {
	return b.items[itemID]
}

// ItemCount returns the sum of all quantities
func (b Box) ItemCount() int {
	total := 0
	for _, qty := range b.items {
		total += qty
	}
	return total
}

// IsEmpty reports whether the box holds no items
func (b Box) IsEmpty() bool {
	return len(b.items) == 0
}

// Len returns the number of distinct items
func (b Box) Len() int {
	return len(b.items)
}

// IDs returns the item ids in lexical order
func (b Box) IDs() []string {
	ids := make([]string, 0, len(b.items))
	for id := range b.items {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Items returns a copy of the underlying mapping
func (b Box) Items() map[string]int {
	out := make(map[string]int, len(b.items))
	for id, qty := range b.items {
		out[id] = qty
	}
	return out
}

// Clone returns an independent copy of the box
func (b Box) Clone() Box {
	return Box{items: b.Items()}
}

// Equal reports whether both boxes hold the same entries
func (b Box) Equal(other Box) bool {
	if len(b.items) != len(other.items) {
		return false
	}
	for id, qty := range b.items {
		if other.items[id] != qty {
			return false
		}
	}
	return true
}

// MarshalJSON encodes the box as a plain object, e.g. {"apple":2}
func (b Box) MarshalJSON() ([]byte, error) {
	return json.Marshal(b.Items())
}

// UnmarshalJSON decodes a plain object, dropping non-positive entries
func (b *Box) UnmarshalJSON(data []byte) error {
	var mapping map[string]int
	if err := json.Unmarshal(data, &mapping); err != nil {
		return err
	}
	b.ReplaceAll(mapping)
	return nil
}
