package service

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"officefruits/models"
	"officefruits/utils"
)

// HandoffPayer replaces the payment step with an order e-mail prepared for the
// customer's mail client. It resolves immediately and carries no payment reference.
type HandoffPayer struct {
	address string
	subject string
	summary string
	link    string
}

// NewHandoffPayer creates a new HandoffPayer sending to address
func NewHandoffPayer(address, subject string) *HandoffPayer {
	return &HandoffPayer{address: address, subject: subject}
}

// Ensure HandoffPayer implements Payer
var _ Payer = (*HandoffPayer)(nil)

// Prepare renders the summary and mailto link for the order in progress
func (h *HandoffPayer) Prepare(draft models.OrderDraft, quote models.PricingBreakdown) {
	h.summary = BuildOrderSummary(draft, quote)
	h.link = BuildMailtoURL(h.address, h.subject+": "+draft.CompanyName, h.summary)
}

// Summary returns the prepared order summary
func (h *HandoffPayer) Summary() string { return h.summary }

// MailtoURL returns the prepared mailto link
func (h *HandoffPayer) MailtoURL() string { return h.link }

// Pay resolves as succeeded without a reference
func (h *HandoffPayer) Pay(ctx context.Context, intent PaymentIntent) <-chan PaymentResult {
	ch := make(chan PaymentResult, 1)
	ch <- PaymentResult{Status: PaymentSucceeded}
	close(ch)
	return ch
}

// BuildOrderSummary renders a plain-text order summary
func BuildOrderSummary(draft models.OrderDraft, quote models.PricingBreakdown) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Company: %s\n", draft.CompanyName)
	fmt.Fprintf(&b, "Email: %s\n", draft.Email)
	fmt.Fprintf(&b, "Delivery address: %s\n", draft.DeliveryAddress)
	fmt.Fprintf(&b, "First delivery: %s\n", draft.DeliveryDate)
	fmt.Fprintf(&b, "Team size: %d\n", draft.TeamSize)
	fmt.Fprintf(&b, "Frequency: %s (%d deliveries)\n", quote.Frequency.Label(), quote.Multiplier)
	if draft.Note != "" {
		fmt.Fprintf(&b, "Note: %s\n", draft.Note)
	}
	b.WriteString("\nBox:\n")
	for _, line := range quote.Lines {
		if !line.Known {
			continue
		}
		fmt.Fprintf(&b, "- %d x %s @ %s = %s\n", line.Qty, line.Name, utils.FormatNaira(line.UnitPrice), utils.FormatNaira(line.LineTotal))
	}
	fmt.Fprintf(&b, "\nPer delivery: %s\n", utils.FormatNaira(quote.PerDelivery))
	for _, a := range quote.AddOns {
		fmt.Fprintf(&b, "Add-on %s: %s\n", a.Name, utils.FormatNaira(a.Fee))
	}
	fmt.Fprintf(&b, "Total upfront: %s\n", utils.FormatNaira(quote.Total))
	return b.String()
}

// BuildMailtoURL builds a mailto: link with subject and body
func BuildMailtoURL(address, subject, body string) string {
	q := url.Values{}
	q.Set("subject", subject)
	q.Set("body", body)
	// mail clients expect %20 rather than + for spaces
	return "mailto:" + address + "?" + strings.ReplaceAll(q.Encode(), "+", "%20")
}
