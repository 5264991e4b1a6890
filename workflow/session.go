// Package workflow holds the per-tab order-building state machine:
// building -> checkout -> confirmed -> building.
package workflow

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"officefruits/models"
)

// State is a workflow step
type State string

const (
	StateBuilding  State = "building"
	StateCheckout  State = "checkout"
	StateConfirmed State = "confirmed"
)

// DefaultTeamSize is preselected for new sessions
const DefaultTeamSize = 10

var (
	ErrEmptyBox              = errors.New("box is empty")
	ErrIllegalTransition     = errors.New("illegal workflow transition")
	ErrSubmissionInProgress  = errors.New("checkout submission in progress")
	ErrRecommendationPending = errors.New("recommendation already in progress")
	ErrUnknownReference      = errors.New("payment reference does not match the pending submission")
)

// Session is the state owned by one browser tab
type Session struct {
	ID    string            `json:"id"`
	State State             `json:"state"`
	Box   models.Box        `json:"box"`
	Draft models.OrderDraft `json:"draft"`

	// Generation increases on every box change and reset; stale recommendation
	// results carry an older value and are discarded.
	Generation uint64 `json:"generation"`

	RecommendationPending   bool      `json:"recommendationPending"`
	RecommendationRequest   uint64    `json:"recommendationRequest"`
	RecommendationStartedAt time.Time `json:"recommendationStartedAt,omitempty"`
	GuruMessage             string    `json:"guruMessage,omitempty"`

	Submitting       bool   `json:"submitting"`
	PaymentReference string `json:"paymentReference,omitempty"`
	Notice           string `json:"notice,omitempty"`

	Order *models.Order `json:"order,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// New creates a session in the building state with default draft values
func New(id string, now time.Time) *Session {
	return &Session{
		ID:    id,
		State: StateBuilding,
		Draft: models.OrderDraft{
			DeliveryDate: DefaultDeliveryDate(now),
			TeamSize:     DefaultTeamSize,
			Frequency:    models.DefaultFrequency,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// DefaultDeliveryDate returns tomorrow in now's location
func DefaultDeliveryDate(now time.Time) string {
	return now.AddDate(0, 0, 1).Format(models.DeliveryDateLayout)
}

func (s *Session) transitionError(action string) error {
	return fmt.Errorf("%w: cannot %s while %s", ErrIllegalTransition, action, s.State)
}

func (s *Session) requireBuilding(action string) error {
	if s.State != StateBuilding {
		return s.transitionError(action)
	}
	return nil
}

func (s *Session) requireEditable(action string) error {
	if s.Submitting {
		return ErrSubmissionInProgress
	}
	if s.State == StateConfirmed {
		return s.transitionError(action)
	}
	return nil
}

func (s *Session) boxChanged() {
	s.Generation++
	s.Notice = ""
}

// Increment adds one unit of itemID to the box
func (s *Session) Increment(itemID string) error {
	if err := s.requireBuilding("edit the box"); err != nil {
		return err
	}
	s.Box.Increment(itemID)
	s.boxChanged()
	return nil
}

// Decrement removes one unit of itemID from the box
func (s *Session) Decrement(itemID string) error {
	if err := s.requireBuilding("edit the box"); err != nil {
		return err
	}
	s.Box.Decrement(itemID)
	s.boxChanged()
	return nil
}

// ReplaceBox installs mapping as the new box content
func (s *Session) ReplaceBox(mapping map[string]int) error {
	if err := s.requireBuilding("edit the box"); err != nil {
		return err
	}
	s.Box.ReplaceAll(mapping)
	s.boxChanged()
	return nil
}

// ClearBox empties the box
func (s *Session) ClearBox() error {
	if err := s.requireBuilding("edit the box"); err != nil {
		return err
	}
	s.Box.Clear()
	s.GuruMessage = ""
	s.boxChanged()
	return nil
}

// SetFrequency selects the delivery cadence
func (s *Session) SetFrequency(f models.Frequency) error {
	if err := s.requireEditable("change the frequency"); err != nil {
		return err
	}
	if !f.Valid() {
		return fmt.Errorf("unknown frequency %q", f)
	}
	s.Draft.Frequency = f
	return nil
}

// SetTeamSize stores the team size, clamped to at least 1
func (s *Session) SetTeamSize(n int) error {
	if err := s.requireEditable("change the team size"); err != nil {
		return err
	}
	if n < 1 {
		n = 1
	}
	s.Draft.TeamSize = n
	return nil
}

// SetMood stores the office mood descriptor
func (s *Session) SetMood(mood string) error {
	if err := s.requireEditable("change the mood"); err != nil {
		return err
	}
	s.Draft.Mood = strings.TrimSpace(mood)
	return nil
}

// SetAddOns replaces the add-on flags
func (s *Session) SetAddOns(ids []string) error {
	if err := s.requireEditable("change add-ons"); err != nil {
		return err
	}
	seen := make(map[string]bool, len(ids))
	addOns := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		addOns = append(addOns, id)
	}
	s.Draft.AddOns = addOns
	return nil
}

// UpdateDetails applies the non-nil contact fields of req
func (s *Session) UpdateDetails(req models.UpdateDetailsRequest) error {
	if err := s.requireEditable("edit checkout details"); err != nil {
		return err
	}
	if req.CompanyName != nil {
		s.Draft.CompanyName = *req.CompanyName
	}
	if req.Email != nil {
		s.Draft.Email = strings.TrimSpace(*req.Email)
	}
	if req.DeliveryAddress != nil {
		s.Draft.DeliveryAddress = *req.DeliveryAddress
	}
	if req.Note != nil {
		s.Draft.Note = *req.Note
	}
	if req.DeliveryDate != nil {
		s.Draft.DeliveryDate = strings.TrimSpace(*req.DeliveryDate)
	}
	return nil
}

// RequestReview moves building -> checkout. The box must not be empty.
func (s *Session) RequestReview() error {
	if err := s.requireBuilding("review the order"); err != nil {
		return err
	}
	if s.Box.ItemCount() == 0 {
		return ErrEmptyBox
	}
	s.State = StateCheckout
	s.Notice = ""
	return nil
}

// Back moves checkout -> building keeping box and draft
func (s *Session) Back() error {
	if s.State != StateCheckout {
		return s.transitionError("go back to the box")
	}
	if s.Submitting {
		return ErrSubmissionInProgress
	}
	s.State = StateBuilding
	s.Notice = ""
	return nil
}

// BeginSubmit marks the checkout as awaiting the payment step
func (s *Session) BeginSubmit(reference string) error {
	if s.State != StateCheckout {
		return s.transitionError("submit the order")
	}
	if s.Submitting {
		return ErrSubmissionInProgress
	}
	s.Submitting = true
	s.PaymentReference = reference
	s.Notice = ""
	return nil
}

// CheckReference verifies that reference belongs to the pending submission
func (s *Session) CheckReference(reference string) error {
	if s.State != StateCheckout || !s.Submitting {
		return s.transitionError("resolve a payment")
	}
	if reference == "" || reference != s.PaymentReference {
		return ErrUnknownReference
	}
	return nil
}

// AbortSubmit returns to the pre-submission checkout state with an informational notice
func (s *Session) AbortSubmit(notice string) {
	s.Submitting = false
	s.PaymentReference = ""
	s.Notice = notice
}

// Complete moves checkout -> confirmed. Only a pending submission can complete.
func (s *Session) Complete(order models.Order) error {
	if s.State != StateCheckout || !s.Submitting {
		return s.transitionError("confirm the order")
	}
	s.State = StateConfirmed
	s.Submitting = false
	s.PaymentReference = ""
	s.Notice = ""
	s.Order = &order
	return nil
}

// Reset moves confirmed -> building and clears the box and contact fields
func (s *Session) Reset(now time.Time) error {
	if s.State != StateConfirmed {
		return s.transitionError("start a new box")
	}
	s.State = StateBuilding
	s.Box.Clear()
	s.Draft.CompanyName = ""
	s.Draft.Email = ""
	s.Draft.DeliveryAddress = ""
	s.Draft.Note = ""
	s.Draft.AddOns = nil
	s.Draft.DeliveryDate = DefaultDeliveryDate(now)
	s.GuruMessage = ""
	s.Notice = ""
	s.Order = nil
	s.RecommendationPending = false
	s.Generation++
	return nil
}

// RecommendationTicket identifies one Fruit Guru request
type RecommendationTicket struct {
	Request    uint64
	Generation uint64 // Box generation when the request started
}

// StartRecommendation marks a Fruit Guru request as in flight and returns the
// ticket its result must present. A pending request older than staleAfter is
// treated as abandoned and its ticket stops being accepted.
func (s *Session) StartRecommendation(now time.Time, staleAfter time.Duration) (RecommendationTicket, error) {
	if err := s.requireBuilding("ask the Fruit Guru"); err != nil {
		return RecommendationTicket{}, err
	}
	if s.RecommendationPending && now.Sub(s.RecommendationStartedAt) < staleAfter {
		return RecommendationTicket{}, ErrRecommendationPending
	}
	s.RecommendationRequest++
	s.RecommendationPending = true
	s.RecommendationStartedAt = now
	s.GuruMessage = ""
	return RecommendationTicket{Request: s.RecommendationRequest, Generation: s.Generation}, nil
}

func (s *Session) currentRecommendation(t RecommendationTicket) bool {
	return t.Request == s.RecommendationRequest
}

// ApplyRecommendation installs a recommended box if t is the latest request
// and nothing changed since it started. It reports whether the result was applied.
func (s *Session) ApplyRecommendation(t RecommendationTicket, mapping map[string]int, message string) bool {
	if !s.currentRecommendation(t) {
		return false
	}
	s.RecommendationPending = false
	if s.State != StateBuilding || s.Generation != t.Generation {
		return false
	}
	s.Box.ReplaceAll(mapping)
	s.GuruMessage = message
	s.boxChanged()
	return true
}

// FinishRecommendation clears the in-flight marker after a failed request.
// A superseded request leaves the newer one pending.
func (s *Session) FinishRecommendation(t RecommendationTicket) {
	if s.currentRecommendation(t) {
		s.RecommendationPending = false
	}
}
