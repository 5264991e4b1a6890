package catalog

import (
	"strings"

	"officefruits/models"
)

// MatchHint finds the first item whose name contains the hint or is contained in it,
// ignoring case. "banana" matches "Sweet Banana"; "Big Pineapple Chunks" matches "Big Pineapple".
func MatchHint(hint string, items []models.Item) (models.Item, bool) {
	h := strings.ToLower(strings.TrimSpace(hint))
	if h == "" {
		return models.Item{}, false
	}
	for _, item := range items {
		name := strings.ToLower(item.Name)
		if strings.Contains(name, h) || strings.Contains(h, name) {
			return item, true
		}
	}
	return models.Item{}, false
}
