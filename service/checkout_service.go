package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"officefruits/models"
	"officefruits/pricing"
	"officefruits/repository"
	"officefruits/workflow"
)

var (
	ErrPaymentCancelled = errors.New("payment cancelled")
	ErrPaymentFailed    = errors.New("payment failed")
	ErrUnexpected       = errors.New("unexpected checkout failure")
)

const (
	NoticePaymentCancelled = "Transaction cancelled. Your team is still hungry for vitamins! 🍎"
	NoticePaymentFailed    = "We couldn't complete your payment. Nothing was charged by OfficeFruits, please try again."
	NoticeUnexpected       = "Something went wrong on our side. Please try again."
)

// ValidationError lists the checkout fields that failed validation
type ValidationError struct {
	Fields []models.FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// IsValidation reports whether err carries checkout field errors
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// CheckoutConfig holds the payment and persistence settings of a CheckoutService
type CheckoutConfig struct {
	Currency       string
	MinorUnits     int64 // Minor units per whole currency unit
	PublicKey      string
	PersistTimeout time.Duration
	VerifyTimeout  time.Duration
	Location       *time.Location // Time zone for "today" in delivery date checks
}

// CheckoutService validates the draft, drives the payment step and records the order
type CheckoutService struct {
	engine   *pricing.Engine
	orders   repository.OrderSink
	outbox   repository.OutboxRepositoryInterface
	verifier PaymentVerifier
	cfg      CheckoutConfig
	logger   *zap.Logger

	now   func() time.Time
	newID func() string
}

// NewCheckoutService creates a new CheckoutService. outbox and verifier may be nil:
// without an outbox unpersisted orders are only logged, without a verifier widget
// references are trusted as reported.
func NewCheckoutService(
	engine *pricing.Engine,
	orders repository.OrderSink,
	outbox repository.OutboxRepositoryInterface,
	verifier PaymentVerifier,
	cfg CheckoutConfig,
	logger *zap.Logger,
) *CheckoutService {
	if cfg.MinorUnits <= 0 {
		cfg.MinorUnits = 100
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &CheckoutService{
		engine:   engine,
		orders:   orders,
		outbox:   outbox,
		verifier: verifier,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// Quote prices the session's box with its frequency and add-ons
func (s *CheckoutService) Quote(sess *workflow.Session) models.PricingBreakdown {
	return s.engine.Quote(sess.Box, sess.Draft.Frequency, sess.Draft.AddOns)
}

// Validate runs every checkout check and returns all failures, in field order
func (s *CheckoutService) Validate(sess *workflow.Session) []models.FieldError {
	var errs []models.FieldError
	d := sess.Draft

	email := strings.TrimSpace(d.Email)
	if email == "" || !strings.Contains(email, "@") {
		errs = append(errs, models.FieldError{Field: "email", Message: "Please enter a valid work email! 📧"})
	}
	if strings.TrimSpace(d.CompanyName) == "" {
		errs = append(errs, models.FieldError{Field: "companyName", Message: "Please enter your company or office name! 🏢"})
	}
	if strings.TrimSpace(d.DeliveryAddress) == "" {
		errs = append(errs, models.FieldError{Field: "deliveryAddress", Message: "Please enter a delivery address! 📍"})
	}
	if msg := s.checkDeliveryDate(d.DeliveryDate); msg != "" {
		errs = append(errs, models.FieldError{Field: "deliveryDate", Message: msg})
	}
	if sess.Box.ItemCount() == 0 {
		errs = append(errs, models.FieldError{Field: "box", Message: "Your box is empty. Add some fruit first! 🍌"})
	}
	return errs
}

func (s *CheckoutService) checkDeliveryDate(value string) string {
	if value == "" {
		return "Please pick a delivery date! 📅"
	}
	date, err := time.ParseInLocation(models.DeliveryDateLayout, value, s.cfg.Location)
	if err != nil {
		return "Please use the YYYY-MM-DD format for the delivery date."
	}
	today := s.now().In(s.cfg.Location).Format(models.DeliveryDateLayout)
	if date.Format(models.DeliveryDateLayout) < today {
		return "The delivery date can't be in the past."
	}
	return ""
}

// Begin validates the session and moves it into the submitting state.
// No external call happens when validation fails.
func (s *CheckoutService) Begin(sess *workflow.Session) (*PaymentIntent, error) {
	if sess.State != workflow.StateCheckout {
		return nil, fmt.Errorf("%w: checkout requires the review step, session is %s", workflow.ErrIllegalTransition, sess.State)
	}
	if sess.Submitting {
		return nil, workflow.ErrSubmissionInProgress
	}
	if fields := s.Validate(sess); len(fields) > 0 {
		s.logger.Debug("Begin: checkout details rejected", zap.String("session_id", sess.ID), zap.Int("fields", len(fields)))
		return nil, &ValidationError{Fields: fields}
	}

	reference := "OF-" + s.newID()
	if err := sess.BeginSubmit(reference); err != nil {
		return nil, err
	}

	intent := s.intent(sess, reference)
	s.logger.Info("Begin: payment started",
		zap.String("session_id", sess.ID),
		zap.String("reference", reference),
		zap.Int64("amount", intent.Amount),
		zap.String("currency", intent.Currency),
	)
	return &intent, nil
}

// Intent rebuilds the payment intent of a pending submission
func (s *CheckoutService) Intent(sess *workflow.Session) (*PaymentIntent, error) {
	if sess.State != workflow.StateCheckout || !sess.Submitting {
		return nil, fmt.Errorf("%w: no payment in progress", workflow.ErrIllegalTransition)
	}
	intent := s.intent(sess, sess.PaymentReference)
	return &intent, nil
}

func (s *CheckoutService) intent(sess *workflow.Session, reference string) PaymentIntent {
	quote := s.Quote(sess)
	return PaymentIntent{
		Reference: reference,
		Email:     strings.TrimSpace(sess.Draft.Email),
		Amount:    quote.Total * s.cfg.MinorUnits,
		Total:     quote.Total,
		Currency:  s.cfg.Currency,
		PublicKey: s.cfg.PublicKey,
		Metadata: map[string]string{
			"session_id":   sess.ID,
			"company_name": strings.TrimSpace(sess.Draft.CompanyName),
			"frequency":    string(quote.Frequency),
			"deliveries":   strconv.FormatInt(quote.Multiplier, 10),
		},
	}
}

// Verify checks a widget-reported reference with the payment provider.
// Provider errors come back as a failed result.
func (s *CheckoutService) Verify(ctx context.Context, sess *workflow.Session, reference string) (PaymentResult, error) {
	if err := sess.CheckReference(reference); err != nil {
		return PaymentResult{}, err
	}
	intent := s.intent(sess, reference)

	if s.verifier == nil {
		s.logger.Warn("Verify: no payment verifier configured, trusting widget reference", zap.String("reference", reference))
		return PaymentResult{Status: PaymentSucceeded, Reference: reference}, nil
	}

	if s.cfg.VerifyTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.VerifyTimeout)
		defer cancel()
	}

	v, err := s.verifier.Verify(ctx, reference)
	if err != nil {
		s.logger.Error("Verify: payment verification failed",
			zap.Error(err),
			zap.String("session_id", sess.ID),
			zap.String("reference", reference),
		)
		return PaymentResult{Status: PaymentFailed, Reference: reference, Reason: "verification unavailable"}, nil
	}
	return ResultFromVerification(v, intent), nil
}

// Resolve applies the outcome of the payment step. A cancelled or failed
// payment returns the session to checkout with a notice. A successful one
// builds the order and confirms the session. The order is not stored here:
// callers pass it to Record once the confirmed session has been saved.
func (s *CheckoutService) Resolve(ctx context.Context, sess *workflow.Session, result PaymentResult) (*models.Order, error) {
	if sess.State != workflow.StateCheckout || !sess.Submitting {
		return nil, fmt.Errorf("%w: no payment in progress", workflow.ErrIllegalTransition)
	}

	switch result.Status {
	case PaymentCancelled:
		s.logger.Info("Resolve: payment cancelled", zap.String("session_id", sess.ID), zap.String("reference", sess.PaymentReference))
		sess.AbortSubmit(NoticePaymentCancelled)
		return nil, ErrPaymentCancelled
	case PaymentFailed:
		s.logger.Warn("Resolve: payment failed",
			zap.String("session_id", sess.ID),
			zap.String("reference", sess.PaymentReference),
			zap.String("reason", result.Reason),
		)
		sess.AbortSubmit(NoticePaymentFailed)
		return nil, ErrPaymentFailed
	case PaymentSucceeded:
	default:
		sess.AbortSubmit(NoticeUnexpected)
		return nil, fmt.Errorf("%w: unknown payment status %q", ErrUnexpected, result.Status)
	}

	if result.Reference != "" && result.Reference != sess.PaymentReference {
		return nil, workflow.ErrUnknownReference
	}

	order := s.buildOrder(sess, result.Reference)
	if err := sess.Complete(order); err != nil {
		return nil, err
	}
	s.logger.Info("Resolve: order confirmed",
		zap.String("session_id", sess.ID),
		zap.String("order_id", order.ID),
		zap.String("status", string(order.Status)),
		zap.Int64("total", order.TotalPrice),
	)
	return &order, nil
}

// Submit runs Begin, waits for payer's result and resolves it. Context
// cancellation while waiting counts as a cancelled payment. Panics are recovered
// here and leave the session out of the submitting state. As with Resolve the
// returned order still has to be passed to Record.
func (s *CheckoutService) Submit(ctx context.Context, sess *workflow.Session, payer Payer) (order *models.Order, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Submit: recovered from panic", zap.Any("panic", r), zap.String("session_id", sess.ID))
			if sess.State == workflow.StateCheckout {
				sess.AbortSubmit(NoticeUnexpected)
			}
			order, err = nil, ErrUnexpected
		}
	}()

	intent, err := s.Begin(sess)
	if err != nil {
		return nil, err
	}

	var result PaymentResult
	select {
	case r, ok := <-payer.Pay(ctx, *intent):
		if !ok {
			result = PaymentResult{Status: PaymentFailed, Reason: "payer closed without a result"}
		} else {
			result = r
		}
	case <-ctx.Done():
		result = PaymentResult{Status: PaymentCancelled, Reason: ctx.Err().Error()}
	}

	return s.Resolve(ctx, sess, result)
}

func (s *CheckoutService) buildOrder(sess *workflow.Session, reference string) models.Order {
	quote := s.Quote(sess)
	d := sess.Draft

	addOns := make([]string, 0, len(quote.AddOns))
	for _, a := range quote.AddOns {
		addOns = append(addOns, a.ID)
	}

	status := models.OrderStatusPaid
	if reference == "" {
		status = models.OrderStatusPendingHandoff
	}

	return models.Order{
		ID:               OrderID(sess.PaymentReference),
		CompanyName:      strings.TrimSpace(d.CompanyName),
		Email:            strings.TrimSpace(d.Email),
		DeliveryAddress:  strings.TrimSpace(d.DeliveryAddress),
		Note:             strings.TrimSpace(d.Note),
		DeliveryDate:     d.DeliveryDate,
		TeamSize:         d.TeamSize,
		Mood:             d.Mood,
		Frequency:        quote.Frequency,
		AddOns:           addOns,
		BoxItems:         sess.Box.Items(),
		PerDelivery:      quote.PerDelivery,
		Multiplier:       quote.Multiplier,
		TotalPrice:       quote.Total,
		AmountMinor:      quote.Total * s.cfg.MinorUnits,
		Currency:         s.cfg.Currency,
		PaymentReference: reference,
		Status:           status,
		CreatedAt:        s.now().UTC(),
	}
}

// orderIDSpace namespaces order ids derived from payment references
var orderIDSpace = uuid.MustParse("6f1c2e0a-4b7d-4f43-9a55-0ffc0f5e1a7b")

// OrderID derives the order id from the submission's payment reference, so
// storing the same submission twice lands on the same row.
func OrderID(reference string) string {
	return uuid.NewSHA1(orderIDSpace, []byte(reference)).String()
}

// Record writes a confirmed order. On failure the order is logged in full and
// parked in the outbox; the customer still gets a confirmation.
func (s *CheckoutService) Record(ctx context.Context, order models.Order) {
	saveCtx := ctx
	if s.cfg.PersistTimeout > 0 {
		var cancel context.CancelFunc
		saveCtx, cancel = context.WithTimeout(ctx, s.cfg.PersistTimeout)
		defer cancel()
	}

	err := s.orders.Save(saveCtx, order)
	if err == nil {
		return
	}

	s.logger.Error("Record: failed to save paid order",
		zap.Error(err),
		zap.String("order_id", order.ID),
		zap.String("reference", order.PaymentReference),
		zap.Any("order", order),
	)
	if s.outbox == nil {
		return
	}

	// The request context may already be done; the outbox write must not depend on it
	outboxCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if _, outboxErr := s.outbox.Add(outboxCtx, order, err); outboxErr != nil {
		s.logger.Error("Record: failed to add order to outbox",
			zap.Error(outboxErr),
			zap.String("order_id", order.ID),
		)
	}
}

// ConfirmationMessage renders the thank-you text shown once an order is confirmed
func ConfirmationMessage(order models.Order) string {
	return fmt.Sprintf(
		"Welcome to the OfficeFruits family, %s! We've locked in your upfront payment for %d %s deliveries.",
		order.CompanyName, order.Multiplier, strings.ToLower(order.Frequency.Label()),
	)
}
