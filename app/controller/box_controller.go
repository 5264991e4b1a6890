package controller

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"officefruits/catalog"
	"officefruits/models"
	"officefruits/repository"
	"officefruits/service"
	"officefruits/workflow"
)

// BoxController handles HTTP requests that edit the box
type BoxController struct {
	sessions
	catalog *catalog.Provider
}

// NewBoxController creates a new BoxController
func NewBoxController(store repository.SessionStore, checkout *service.CheckoutService, catalog *catalog.Provider, logger *zap.Logger) *BoxController {
	return &BoxController{
		sessions: sessions{store: store, checkout: checkout, logger: logger},
		catalog:  catalog,
	}
}

// Increment handles POST /api/box/items/:id/increment
func (bc *BoxController) Increment(c *gin.Context) {
	id := c.Param("id")
	if _, ok := bc.catalog.Get(id); !ok {
		writeError(c, bc.logger, fmt.Errorf("%w: %s", errUnknownItem, id))
		return
	}
	sess, err := bc.update(c.Request.Context(), c, func(s *workflow.Session) error {
		return s.Increment(id)
	})
	bc.respond(c, sess, err)
}

// Decrement handles POST /api/box/items/:id/decrement
func (bc *BoxController) Decrement(c *gin.Context) {
	id := c.Param("id")
	sess, err := bc.update(c.Request.Context(), c, func(s *workflow.Session) error {
		return s.Decrement(id)
	})
	bc.respond(c, sess, err)
}

// Replace handles PUT /api/box
// Request: {"items": {"apple": 4, "kiwi": 2}}
func (bc *BoxController) Replace(c *gin.Context) {
	var req models.ReplaceBoxRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	for id := range req.Items {
		if _, ok := bc.catalog.Get(id); !ok {
			writeError(c, bc.logger, fmt.Errorf("%w: %s", errUnknownItem, id))
			return
		}
	}
	sess, err := bc.update(c.Request.Context(), c, func(s *workflow.Session) error {
		return s.ReplaceBox(req.Items)
	})
	bc.respond(c, sess, err)
}

// Clear handles DELETE /api/box
func (bc *BoxController) Clear(c *gin.Context) {
	sess, err := bc.update(c.Request.Context(), c, func(s *workflow.Session) error {
		return s.ClearBox()
	})
	bc.respond(c, sess, err)
}

// ApplyPreset handles POST /api/box/presets/:preset
func (bc *BoxController) ApplyPreset(c *gin.Context) {
	preset, ok := bc.catalog.Preset(c.Param("preset"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown preset"})
		return
	}
	sess, err := bc.update(c.Request.Context(), c, func(s *workflow.Session) error {
		return s.ReplaceBox(preset.Items)
	})
	bc.respond(c, sess, err)
}
