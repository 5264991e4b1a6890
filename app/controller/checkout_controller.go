package controller

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"officefruits/models"
	"officefruits/repository"
	"officefruits/service"
	"officefruits/workflow"
)

// CheckoutController handles the review, details and payment steps
type CheckoutController struct {
	sessions
	handoffAddress string
	handoffSubject string
}

// NewCheckoutController creates a new CheckoutController
func NewCheckoutController(store repository.SessionStore, checkout *service.CheckoutService, handoffAddress, handoffSubject string, logger *zap.Logger) *CheckoutController {
	return &CheckoutController{
		sessions:       sessions{store: store, checkout: checkout, logger: logger},
		handoffAddress: handoffAddress,
		handoffSubject: handoffSubject,
	}
}

// Review handles POST /api/checkout/review
func (cc *CheckoutController) Review(c *gin.Context) {
	sess, err := cc.update(c.Request.Context(), c, func(s *workflow.Session) error {
		return s.RequestReview()
	})
	cc.respond(c, sess, err)
}

// Back handles POST /api/checkout/back
func (cc *CheckoutController) Back(c *gin.Context) {
	sess, err := cc.update(c.Request.Context(), c, func(s *workflow.Session) error {
		return s.Back()
	})
	cc.respond(c, sess, err)
}

// UpdateDetails handles PUT /api/checkout/details
// Request: {"companyName": "Creative Hub", "email": "hi@office.com", "deliveryAddress": "12 Marina, Lagos", "note": "Happy Friday!", "deliveryDate": "2026-10-20"}
func (cc *CheckoutController) UpdateDetails(c *gin.Context) {
	var req models.UpdateDetailsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	sess, err := cc.update(c.Request.Context(), c, func(s *workflow.Session) error {
		return s.UpdateDetails(req)
	})
	cc.respond(c, sess, err)
}

// Pay handles POST /api/checkout/pay
// Response: {"intent": {"reference": "OF-...", "amount": 1240000, "currency": "NGN", ...}, "session": {...}}
func (cc *CheckoutController) Pay(c *gin.Context) {
	var intent *service.PaymentIntent
	sess, err := cc.update(c.Request.Context(), c, func(s *workflow.Session) error {
		var err error
		intent, err = cc.checkout.Begin(s)
		return err
	})
	if err != nil {
		writeError(c, cc.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"intent": intent, "session": cc.view(sess)})
}

// PaymentCallback handles POST /api/checkout/pay/callback, posted by the widget on success
// Request: {"reference": "OF-..."}
func (cc *CheckoutController) PaymentCallback(c *gin.Context) {
	var req models.PaymentCallbackRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Reference) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "reference is required"})
		return
	}
	reference := strings.TrimSpace(req.Reference)
	ctx := c.Request.Context()

	// Verification talks to the provider, so it runs outside the session update
	current, err := cc.store.Get(ctx, sessionID(c))
	if err != nil {
		writeError(c, cc.logger, err)
		return
	}
	result, err := cc.checkout.Verify(ctx, current, reference)
	if err != nil {
		writeError(c, cc.logger, err)
		return
	}

	cc.resolve(c, result)
}

// CancelPayment handles POST /api/checkout/pay/cancel, posted when the widget is closed
func (cc *CheckoutController) CancelPayment(c *gin.Context) {
	cc.resolve(c, service.PaymentResult{Status: service.PaymentCancelled})
}

func (cc *CheckoutController) resolve(c *gin.Context, result service.PaymentResult) {
	var (
		order      *models.Order
		resolveErr error
	)
	sess, err := cc.update(c.Request.Context(), c, func(s *workflow.Session) error {
		order, resolveErr = cc.checkout.Resolve(c.Request.Context(), s, result)
		if errors.Is(resolveErr, service.ErrPaymentCancelled) || errors.Is(resolveErr, service.ErrPaymentFailed) {
			// The session change (notice, submitting cleared) must still be stored
			return nil
		}
		return resolveErr
	})
	if err != nil {
		writeError(c, cc.logger, err)
		return
	}
	// Only a committed confirmation is recorded; a lost update leaves the session submitting
	if order != nil {
		cc.checkout.Record(c.Request.Context(), *order)
	}

	switch {
	case errors.Is(resolveErr, service.ErrPaymentFailed):
		c.JSON(http.StatusPaymentRequired, cc.view(sess))
	default:
		c.JSON(http.StatusOK, cc.view(sess))
	}
}

// Handoff handles POST /api/checkout/handoff
// Places the order without online payment and returns a mailto link carrying the order summary.
// Response: {"mailto": "mailto:orders@...", "summary": "...", "session": {...}}
func (cc *CheckoutController) Handoff(c *gin.Context) {
	payer := service.NewHandoffPayer(cc.handoffAddress, cc.handoffSubject)
	var order *models.Order
	sess, err := cc.update(c.Request.Context(), c, func(s *workflow.Session) error {
		payer.Prepare(s.Draft, cc.checkout.Quote(s))
		var err error
		order, err = cc.checkout.Submit(c.Request.Context(), s, payer)
		if errors.Is(err, service.ErrUnexpected) {
			// Keep the cleared submitting flag
			return nil
		}
		return err
	})
	if err != nil {
		writeError(c, cc.logger, err)
		return
	}
	if order != nil {
		cc.checkout.Record(c.Request.Context(), *order)
	}
	if sess.State != workflow.StateConfirmed {
		c.JSON(http.StatusInternalServerError, gin.H{"error": service.NoticeUnexpected, "session": cc.view(sess)})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"mailto":  payer.MailtoURL(),
		"summary": payer.Summary(),
		"session": cc.view(sess),
	})
}
