// Package catalog exposes the immutable list of purchasable fruits, presets and add-ons.
package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"officefruits/models"
)

//go:embed catalog.yaml
var defaultCatalog []byte

type catalogFile struct {
	Currency        string          `yaml:"currency"`
	Items           []models.Item   `yaml:"items"`
	Presets         []models.Preset `yaml:"presets"`
	AddOns          []models.AddOn  `yaml:"add_ons"`
	LoadingMessages []string        `yaml:"loading_messages"`
}

// Provider serves the static catalog. It is read-only after construction.
type Provider struct {
	currency        string
	items           []models.Item
	byID            map[string]models.Item
	presets         map[string]models.Preset
	presetOrder     []string
	addOns          map[string]models.AddOn
	addOnOrder      []string
	loadingMessages []string
}

// Default returns the catalog shipped with the binary
func Default() (*Provider, error) {
	return Parse(defaultCatalog)
}

// Load reads a catalog file; an empty path means the built-in catalog
func Load(path string) (*Provider, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	return Parse(data)
}

// Parse builds a provider from YAML and validates it
func Parse(data []byte) (*Provider, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	return New(file.Currency, file.Items, file.Presets, file.AddOns, file.LoadingMessages)
}

// New builds a provider from in-memory values
func New(currency string, items []models.Item, presets []models.Preset, addOns []models.AddOn, loadingMessages []string) (*Provider, error) {
	if currency == "" {
		currency = "NGN"
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("catalog has no items")
	}

	p := &Provider{
		currency:        currency,
		items:           make([]models.Item, 0, len(items)),
		byID:            make(map[string]models.Item, len(items)),
		presets:         make(map[string]models.Preset, len(presets)),
		addOns:          make(map[string]models.AddOn, len(addOns)),
		loadingMessages: append([]string(nil), loadingMessages...),
	}

	for _, item := range items {
		if strings.TrimSpace(item.ID) == "" {
			return nil, fmt.Errorf("catalog item %q has no id", item.Name)
		}
		if _, dup := p.byID[item.ID]; dup {
			return nil, fmt.Errorf("duplicate catalog item id %q", item.ID)
		}
		if item.Price <= 0 {
			return nil, fmt.Errorf("catalog item %q must have a positive price", item.ID)
		}
		p.items = append(p.items, item)
		p.byID[item.ID] = item
	}

	for _, preset := range presets {
		for id, qty := range preset.Items {
			if _, ok := p.byID[id]; !ok {
				return nil, fmt.Errorf("preset %q references unknown item %q", preset.ID, id)
			}
			if qty <= 0 {
				return nil, fmt.Errorf("preset %q has non-positive quantity for %q", preset.ID, id)
			}
		}
		p.presets[preset.ID] = preset
		p.presetOrder = append(p.presetOrder, preset.ID)
	}

	for _, addOn := range addOns {
		if addOn.Fee < 0 {
			return nil, fmt.Errorf("add-on %q has a negative fee", addOn.ID)
		}
		p.addOns[addOn.ID] = addOn
		p.addOnOrder = append(p.addOnOrder, addOn.ID)
	}

	return p, nil
}

// Currency returns the ISO currency code of the prices
func (p *Provider) Currency() string {
	return p.currency
}

// Items returns the catalog in display order
func (p *Provider) Items() []models.Item {
	return append([]models.Item(nil), p.items...)
}

// Get returns the item with the given id
func (p *Provider) Get(id string) (models.Item, bool) {
	item, ok := p.byID[id]
	return item, ok
}

// Preset returns the named preset
func (p *Provider) Preset(id string) (models.Preset, bool) {
	preset, ok := p.presets[id]
	return preset, ok
}

// Presets returns all presets in file order
func (p *Provider) Presets() []models.Preset {
	out := make([]models.Preset, 0, len(p.presetOrder))
	for _, id := range p.presetOrder {
		out = append(out, p.presets[id])
	}
	return out
}

// AddOn returns the add-on with the given id
func (p *Provider) AddOn(id string) (models.AddOn, bool) {
	addOn, ok := p.addOns[id]
	return addOn, ok
}

// AddOns returns all add-ons in file order
func (p *Provider) AddOns() []models.AddOn {
	out := make([]models.AddOn, 0, len(p.addOnOrder))
	for _, id := range p.addOnOrder {
		out = append(out, p.addOns[id])
	}
	return out
}

// LoadingMessages returns the Fruit Guru waiting lines
func (p *Provider) LoadingMessages() []string {
	return append([]string(nil), p.loadingMessages...)
}

// Names returns item display names in catalog order
func (p *Provider) Names() []string {
	names := make([]string, len(p.items))
	for i, item := range p.items {
		names[i] = item.Name
	}
	return names
}

// Match resolves a free-text hint against the catalog, see MatchHint
func (p *Provider) Match(hint string) (models.Item, bool) {
	return MatchHint(hint, p.items)
}

// Response builds the GET /api/catalog payload
func (p *Provider) Response() models.CatalogResponse {
	freqs := models.Frequencies()
	infos := make([]models.FrequencyInfo, len(freqs))
	for i, f := range freqs {
		infos[i] = f.Info()
	}
	return models.CatalogResponse{
		Currency:        p.currency,
		Items:           p.Items(),
		Presets:         p.Presets(),
		AddOns:          p.AddOns(),
		Frequencies:     infos,
		LoadingMessages: p.LoadingMessages(),
	}
}
