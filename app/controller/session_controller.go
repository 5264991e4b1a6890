package controller

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"officefruits/models"
	"officefruits/repository"
	"officefruits/service"
	"officefruits/workflow"
)

// SessionController handles session state, preferences, reset and receipts
type SessionController struct {
	sessions
	receipts *service.ReceiptService
	now      func() time.Time
}

// NewSessionController creates a new SessionController. receipts may be nil.
func NewSessionController(store repository.SessionStore, checkout *service.CheckoutService, receipts *service.ReceiptService, now func() time.Time, logger *zap.Logger) *SessionController {
	return &SessionController{
		sessions: sessions{store: store, checkout: checkout, logger: logger},
		receipts: receipts,
		now:      now,
	}
}

// GetSession handles GET /api/session
func (sc *SessionController) GetSession(c *gin.Context) {
	sess, err := sc.store.Get(c.Request.Context(), sessionID(c))
	sc.respond(c, sess, err)
}

// UpdatePreferences handles PUT /api/session/preferences
// Request: {"frequency": "bi-weekly", "teamSize": 25, "mood": "Deadline week", "addOns": ["branding"]}
func (sc *SessionController) UpdatePreferences(c *gin.Context) {
	var req models.UpdatePreferencesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	var frequency models.Frequency
	if req.Frequency != nil {
		f, err := models.ParseFrequency(*req.Frequency)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		frequency = f
	}

	sess, err := sc.update(c.Request.Context(), c, func(s *workflow.Session) error {
		if req.Frequency != nil {
			if err := s.SetFrequency(frequency); err != nil {
				return err
			}
		}
		if req.TeamSize != nil {
			if err := s.SetTeamSize(*req.TeamSize); err != nil {
				return err
			}
		}
		if req.Mood != nil {
			if err := s.SetMood(*req.Mood); err != nil {
				return err
			}
		}
		if req.AddOns != nil {
			if err := s.SetAddOns(*req.AddOns); err != nil {
				return err
			}
		}
		return nil
	})
	sc.respond(c, sess, err)
}

// Reset handles POST /api/session/reset
func (sc *SessionController) Reset(c *gin.Context) {
	sess, err := sc.update(c.Request.Context(), c, func(s *workflow.Session) error {
		return s.Reset(sc.now())
	})
	sc.respond(c, sess, err)
}

func (sc *SessionController) confirmedOrder(c *gin.Context) (*models.Order, bool) {
	sess, err := sc.store.Get(c.Request.Context(), sessionID(c))
	if err != nil {
		writeError(c, sc.logger, err)
		return nil, false
	}
	if sess.State != workflow.StateConfirmed || sess.Order == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no confirmed order"})
		return nil, false
	}
	return sess.Order, true
}

// ReceiptHTML handles GET /api/receipt.html
func (sc *SessionController) ReceiptHTML(c *gin.Context) {
	if sc.receipts == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "receipts are disabled"})
		return
	}
	order, ok := sc.confirmedOrder(c)
	if !ok {
		return
	}
	html, err := sc.receipts.RenderHTML(*order)
	if err != nil {
		writeError(c, sc.logger, err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", html)
}

// ReceiptPDF handles GET /api/receipt
// The PDF is archived to object storage when configured; its URL is returned in X-Receipt-URL.
func (sc *SessionController) ReceiptPDF(c *gin.Context) {
	if sc.receipts == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "receipts are disabled"})
		return
	}
	order, ok := sc.confirmedOrder(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	pdf, err := sc.receipts.GeneratePDF(ctx, *order)
	if err != nil {
		sc.logger.Error("ReceiptPDF: failed to generate receipt", zap.Error(err), zap.String("order_id", order.ID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate receipt"})
		return
	}
	if url, err := sc.receipts.Archive(ctx, *order, pdf); err == nil && url != "" {
		c.Header("X-Receipt-URL", url)
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="officefruits-%s.pdf"`, order.ID))
	c.Data(http.StatusOK, "application/pdf", pdf)
}
