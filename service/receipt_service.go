package service

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"os"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"officefruits/models"
	"officefruits/repository"
	"officefruits/utils"
)

//go:embed templates/receipt.html
var receiptTemplates embed.FS

// ItemCatalog resolves item and add-on ids for display
type ItemCatalog interface {
	Get(id string) (models.Item, bool)
	AddOn(id string) (models.AddOn, bool)
}

// ReceiptService renders confirmed orders as HTML and PDF receipts
type ReceiptService struct {
	tmpl       *template.Template
	catalog    ItemCatalog
	store      repository.ReceiptStore
	chromePath string
	timeout    time.Duration
	logger     *zap.Logger
}

// NewReceiptService creates a new ReceiptService. store may be nil to skip archiving.
func NewReceiptService(catalog ItemCatalog, store repository.ReceiptStore, chromePath string, timeout time.Duration, logger *zap.Logger) (*ReceiptService, error) {
	tmpl, err := template.ParseFS(receiptTemplates, "templates/receipt.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse template: %w", err)
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &ReceiptService{
		tmpl:       tmpl,
		catalog:    catalog,
		store:      store,
		chromePath: chromePath,
		timeout:    timeout,
		logger:     logger,
	}, nil
}

type receiptLine struct {
	Emoji     string
	Name      string
	Qty       int
	UnitPrice string
	LineTotal string
}

type receiptAddOn struct {
	Name string
	Fee  string
}

// RenderHTML renders the receipt page for order
func (s *ReceiptService) RenderHTML(order models.Order) ([]byte, error) {
	data := struct {
		Order          models.Order
		Message        string
		CreatedAt      string
		FrequencyLabel string
		Lines          []receiptLine
		AddOns         []receiptAddOn
		PerDelivery    string
		Total          string
	}{
		Order:          order,
		Message:        ConfirmationMessage(order),
		CreatedAt:      order.CreatedAt.Format("2 Jan 2006 15:04 MST"),
		FrequencyLabel: order.Frequency.Label(),
		PerDelivery:    utils.FormatNaira(order.PerDelivery),
		Total:          utils.FormatNaira(order.TotalPrice),
	}

	box := models.NewBox(order.BoxItems)
	for _, id := range box.IDs() {
		item, ok := s.catalog.Get(id)
		if !ok {
			continue
		}
		qty := box.Quantity(id)
		data.Lines = append(data.Lines, receiptLine{
			Emoji:     item.Emoji,
			Name:      item.Name,
			Qty:       qty,
			UnitPrice: utils.FormatNaira(item.Price),
			LineTotal: utils.FormatNaira(item.Price * int64(qty)),
		})
	}
	for _, id := range order.AddOns {
		if addOn, ok := s.catalog.AddOn(id); ok {
			data.AddOns = append(data.AddOns, receiptAddOn{Name: addOn.Name, Fee: utils.FormatNaira(addOn.Fee)})
		}
	}

	var buf bytes.Buffer
	if err := s.tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to execute template: %w", err)
	}
	return buf.Bytes(), nil
}

// GeneratePDF renders the receipt and prints it to an A4 PDF with headless Chrome
func (s *ReceiptService) GeneratePDF(ctx context.Context, order models.Order) ([]byte, error) {
	html, err := s.RenderHTML(order)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	opts := append(chromedp.DefaultExecAllocatorOptions[:], chromedp.NoSandbox)
	if chromePath := detectChromePath(s.chromePath); chromePath != "" {
		opts = append(opts, chromedp.ExecPath(chromePath))
	}
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	defer allocCancel()

	chromedpCtx, chromedpCancel := chromedp.NewContext(allocCtx)
	defer chromedpCancel()

	var pdfBuf []byte
	err = chromedp.Run(chromedpCtx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			frameTree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(frameTree.Frame.ID, string(html)).Do(ctx)
		}),
		chromedp.WaitReady("body"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			// A4: 210mm x 297mm = 8.27" x 11.69"
			pdfBuf, _, err = page.PrintToPDF().
				WithPrintBackground(true).
				WithPaperWidth(8.27).
				WithPaperHeight(11.69).
				WithMarginTop(0).
				WithMarginBottom(0).
				WithMarginLeft(0).
				WithMarginRight(0).
				Do(ctx)
			return err
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}

	s.logger.Debug("GeneratePDF: receipt printed", zap.String("order_id", order.ID), zap.Int("bytes", len(pdfBuf)))
	return pdfBuf, nil
}

// Archive uploads a receipt PDF and returns its public URL. It returns an
// empty URL when no store is configured.
func (s *ReceiptService) Archive(ctx context.Context, order models.Order, pdf []byte) (string, error) {
	if s.store == nil {
		return "", nil
	}
	url, err := s.store.Put(ctx, ReceiptKey(order), pdf, "application/pdf")
	if err != nil {
		s.logger.Error("Archive: failed to upload receipt", zap.Error(err), zap.String("order_id", order.ID))
		return "", err
	}
	s.logger.Info("Archive: receipt uploaded", zap.String("order_id", order.ID), zap.String("url", url))
	return url, nil
}

// ReceiptKey is the object key of an order's receipt
func ReceiptKey(order models.Order) string {
	return fmt.Sprintf("receipts/%s/%s.pdf", order.CreatedAt.UTC().Format("2006/01/02"), order.ID)
}

// detectChromePath returns configured if it exists, otherwise the first common
// Chrome/Chromium install found. Empty lets chromedp search PATH.
func detectChromePath(configured string) string {
	if configured != "" {
		if _, err := os.Stat(configured); err == nil {
			return configured
		}
	}
	paths := []string{
		"/usr/bin/chromium",
		"/usr/bin/chromium-browser",
		"/usr/bin/google-chrome",
		"/usr/bin/google-chrome-stable",
		"/snap/bin/chromium",
	}
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
