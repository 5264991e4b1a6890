package models

// CatalogResponse represents the response for GET /api/catalog
type CatalogResponse struct {
	Currency        string          `json:"currency"`
	Items           []Item          `json:"items"`
	Presets         []Preset        `json:"presets"`
	AddOns          []AddOn         `json:"addOns"`
	Frequencies     []FrequencyInfo `json:"frequencies"`
	LoadingMessages []string        `json:"loadingMessages"`
}

// FrequencyInfo describes one selectable delivery frequency
type FrequencyInfo struct {
	Key        Frequency `json:"key"`
	Label      string    `json:"label"`
	Multiplier int64     `json:"multiplier"`
}
