package models

// Item represents a purchasable fruit in the catalog.
// Price is expressed in whole currency units (naira).
type Item struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Price       int64  `json:"price" yaml:"price"`
	Description string `json:"description" yaml:"description"`
	Emoji       string `json:"emoji" yaml:"emoji"`
	Color       string `json:"color" yaml:"color"` // presentation tag, e.g. "bg-red-400"
}

// Preset is a named, ready-made box
// Example: {"id": "starter", "name": "Starter Crate", "items": {"apple": 10, "banana": 10}}
type Preset struct {
	ID    string         `json:"id" yaml:"id"`
	Name  string         `json:"name" yaml:"name"`
	Items map[string]int `json:"items" yaml:"items"`
}

// AddOn is an optional flat fee charged once per order
type AddOn struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Fee         int64  `json:"fee" yaml:"fee"`
	Description string `json:"description" yaml:"description"`
}
