package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"officefruits/catalog"
)

// CatalogController serves the static product catalog
type CatalogController struct {
	catalog *catalog.Provider
}

// NewCatalogController creates a new CatalogController
func NewCatalogController(catalog *catalog.Provider) *CatalogController {
	return &CatalogController{catalog: catalog}
}

// GetCatalog handles GET /api/catalog
// Response: {"currency": "NGN", "items": [...], "presets": [...], "addOns": [...], "frequencies": [...], "loadingMessages": [...]}
func (cc *CatalogController) GetCatalog(c *gin.Context) {
	c.Header("Cache-Control", "public, max-age=300")
	c.JSON(http.StatusOK, cc.catalog.Response())
}
