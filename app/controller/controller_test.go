package controller_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"officefruits/app/controller"
	"officefruits/app/router"
	"officefruits/catalog"
	"officefruits/models"
	"officefruits/pricing"
	"officefruits/repository"
	"officefruits/service"
	"officefruits/workflow"
)

const cookieName = "fruitbox_session"

type recommenderFunc func(ctx context.Context, teamSize int, mood string) (*models.Recommendation, error)

func (f recommenderFunc) Recommend(ctx context.Context, teamSize int, mood string) (*models.Recommendation, error) {
	return f(ctx, teamSize, mood)
}

type verifierFunc func(ctx context.Context, reference string) (*service.PaymentVerification, error)

func (f verifierFunc) Verify(ctx context.Context, reference string) (*service.PaymentVerification, error) {
	return f(ctx, reference)
}

type harness struct {
	t      *testing.T
	engine *gin.Engine
	orders *repository.MemoryOrderRepository
	cookie *http.Cookie
}

type harnessOptions struct {
	recommender service.Recommender
	verifier    service.PaymentVerifier
	wrapStore   func(repository.SessionStore) repository.SessionStore
}

// lostWriteStore runs the next armed Update callback against a copy and then
// reports a conflict without writing, like a Redis transaction that lost its WATCH.
type lostWriteStore struct {
	repository.SessionStore
	armed bool
}

func (s *lostWriteStore) Update(ctx context.Context, id string, fn func(*workflow.Session) error) (*workflow.Session, error) {
	if !s.armed {
		return s.SessionStore.Update(ctx, id, fn)
	}
	s.armed = false
	sess, err := s.SessionStore.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(sess); err != nil {
		return nil, err
	}
	return nil, repository.ErrSessionConflict
}

func newHarness(t *testing.T, opts harnessOptions) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	products, err := catalog.Default()
	require.NoError(t, err)
	logger := zap.NewNop()
	var store repository.SessionStore = repository.NewMemorySessionStore(time.Hour)
	if opts.wrapStore != nil {
		store = opts.wrapStore(store)
	}
	orders := repository.NewMemoryOrderRepository()

	checkout := service.NewCheckoutService(pricing.NewEngine(products), orders, nil, opts.verifier, service.CheckoutConfig{
		Currency:       "NGN",
		MinorUnits:     100,
		PublicKey:      "pk_test_123",
		PersistTimeout: time.Second,
		VerifyTimeout:  time.Second,
		Location:       time.UTC,
	}, logger)

	rec := opts.recommender
	if rec == nil {
		rec = service.NewUnavailableRecommender()
	}
	recommendations := service.NewRecommendationService(rec, products, time.Second, "", logger)
	receipts, err := service.NewReceiptService(products, nil, "", time.Second, logger)
	require.NoError(t, err)

	engine := router.SetupRoutes(&router.Controllers{
		Catalog:        controller.NewCatalogController(products),
		Box:            controller.NewBoxController(store, checkout, products, logger),
		Recommendation: controller.NewRecommendationController(store, checkout, recommendations, time.Minute, time.Now, logger),
		Checkout:       controller.NewCheckoutController(store, checkout, "orders@officefruits.ng", "New OfficeFruits order", logger),
		Session:        controller.NewSessionController(store, checkout, receipts, time.Now, logger),
	}, router.Options{
		Session: controller.SessionMiddleware(store, cookieName, time.Hour, false, time.Now, logger),
	})

	return &harness{t: t, engine: engine, orders: orders}
}

func (h *harness) do(method, path string, body any) *httptest.ResponseRecorder {
	h.t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(h.t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if h.cookie != nil {
		req.AddCookie(h.cookie)
	}

	w := httptest.NewRecorder()
	h.engine.ServeHTTP(w, req)
	for _, c := range w.Result().Cookies() {
		if c.Name == cookieName {
			h.cookie = c
		}
	}
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func (h *harness) fillBox() {
	h.t.Helper()
	for i := 0; i < 2; i++ {
		require.Equal(h.t, http.StatusOK, h.do(http.MethodPost, "/api/box/items/apple/increment", nil).Code)
	}
	for i := 0; i < 3; i++ {
		require.Equal(h.t, http.StatusOK, h.do(http.MethodPost, "/api/box/items/banana/increment", nil).Code)
	}
}

func (h *harness) fillDetails() {
	h.t.Helper()
	w := h.do(http.MethodPut, "/api/checkout/details", map[string]string{
		"companyName":     "Creative Hub",
		"email":           "hi@creativehub.ng",
		"deliveryAddress": "12 Marina, Lagos",
		"deliveryDate":    time.Now().UTC().AddDate(0, 0, 2).Format(models.DeliveryDateLayout),
	})
	require.Equal(h.t, http.StatusOK, w.Code, w.Body.String())
}

type payResponse struct {
	Intent  service.PaymentIntent `json:"intent"`
	Session models.SessionView    `json:"session"`
}

func (h *harness) startPayment() payResponse {
	h.t.Helper()
	h.fillBox()
	require.Equal(h.t, http.StatusOK, h.do(http.MethodPost, "/api/checkout/review", nil).Code)
	h.fillDetails()
	w := h.do(http.MethodPost, "/api/checkout/pay", nil)
	require.Equal(h.t, http.StatusOK, w.Code, w.Body.String())
	return decode[payResponse](h.t, w)
}

func TestHealth(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	for _, path := range []string{"/ping", "/health"} {
		w := h.do(http.MethodGet, path, nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
	}
}

func TestGetCatalog(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	w := h.do(http.MethodGet, "/api/catalog", nil)
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode[models.CatalogResponse](t, w)
	assert.Equal(t, "NGN", resp.Currency)
	assert.Len(t, resp.Items, 12)
	assert.Len(t, resp.Frequencies, 6)
	assert.Nil(t, h.cookie, "catalog is served without a session")
}

func TestSession_CookieIsIssuedOnce(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	first := decode[models.SessionView](t, h.do(http.MethodGet, "/api/session", nil))
	require.NotNil(t, h.cookie)
	assert.True(t, h.cookie.HttpOnly)
	assert.Equal(t, "building", first.State)
	assert.Equal(t, 10, first.Draft.TeamSize)
	assert.Equal(t, models.FrequencyWeekly, first.Draft.Frequency)

	second := decode[models.SessionView](t, h.do(http.MethodGet, "/api/session", nil))
	assert.Equal(t, first.ID, second.ID)
}

func TestSession_UnknownCookieStartsFresh(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	h.cookie = &http.Cookie{Name: cookieName, Value: "expired-id"}
	view := decode[models.SessionView](t, h.do(http.MethodGet, "/api/session", nil))
	assert.NotEqual(t, "expired-id", view.ID)
	assert.Equal(t, view.ID, h.cookie.Value)
}

func TestBox_EditAndQuote(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	h.fillBox()

	w := h.do(http.MethodPost, "/api/box/items/banana/decrement", nil)
	require.Equal(t, http.StatusOK, w.Code)
	view := decode[models.SessionView](t, w)
	assert.Equal(t, map[string]int{"apple": 2, "banana": 2}, view.Box)
	assert.Equal(t, int64(2600), view.Quote.PerDelivery)
	assert.Equal(t, int64(10400), view.Quote.Total)
	assert.True(t, view.CanReview)

	assert.Equal(t, http.StatusNotFound, h.do(http.MethodPost, "/api/box/items/durian/increment", nil).Code)
	assert.Equal(t, http.StatusNotFound, h.do(http.MethodPut, "/api/box", map[string]any{"items": map[string]int{"durian": 1}}).Code)

	w = h.do(http.MethodPost, "/api/box/presets/starter", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, map[string]int{"apple": 10, "banana": 10, "orange": 10}, decode[models.SessionView](t, w).Box)
	assert.Equal(t, http.StatusNotFound, h.do(http.MethodPost, "/api/box/presets/nope", nil).Code)

	w = h.do(http.MethodDelete, "/api/box", nil)
	require.Equal(t, http.StatusOK, w.Code)
	view = decode[models.SessionView](t, w)
	assert.Empty(t, view.Box)
	assert.False(t, view.CanReview)
}

func TestPreferences(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	h.fillBox()

	w := h.do(http.MethodPut, "/api/session/preferences", map[string]any{
		"frequency": "Bi-Weekly",
		"teamSize":  0,
		"addOns":    []string{"branding"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	view := decode[models.SessionView](t, w)
	assert.Equal(t, models.FrequencyBiWeekly, view.Draft.Frequency)
	assert.Equal(t, 1, view.Draft.TeamSize)
	assert.Equal(t, int64(3100*2+5000), view.Quote.Total)

	assert.Equal(t, http.StatusBadRequest, h.do(http.MethodPut, "/api/session/preferences", map[string]any{"frequency": "hourly"}).Code)
}

func TestReview_EmptyBox(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	w := h.do(http.MethodPost, "/api/checkout/review", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "building", decode[models.SessionView](t, h.do(http.MethodGet, "/api/session", nil)).State)
}

func TestCheckout_FullFlow(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	h.fillBox()

	w := h.do(http.MethodPost, "/api/checkout/review", nil)
	require.Equal(t, http.StatusOK, w.Code)
	view := decode[models.SessionView](t, w)
	assert.Equal(t, "checkout", view.State)
	assert.NotEmpty(t, view.Validation)

	// box edits are locked during checkout
	assert.Equal(t, http.StatusConflict, h.do(http.MethodPost, "/api/box/items/apple/increment", nil).Code)

	w = h.do(http.MethodPost, "/api/checkout/pay", nil)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	invalid := decode[struct {
		Fields []models.FieldError `json:"fields"`
	}](t, w)
	require.NotEmpty(t, invalid.Fields)
	assert.Equal(t, "email", invalid.Fields[0].Field)

	h.fillDetails()
	w = h.do(http.MethodPost, "/api/checkout/pay", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	pay := decode[payResponse](t, w)
	assert.True(t, strings.HasPrefix(pay.Intent.Reference, "OF-"))
	assert.Equal(t, int64(1240000), pay.Intent.Amount)
	assert.Equal(t, "NGN", pay.Intent.Currency)
	assert.True(t, pay.Session.Submitting)

	assert.Equal(t, http.StatusConflict, h.do(http.MethodPost, "/api/checkout/pay", nil).Code)
	assert.Equal(t, http.StatusConflict, h.do(http.MethodPost, "/api/checkout/back", nil).Code)
	assert.Equal(t, http.StatusBadRequest, h.do(http.MethodPost, "/api/checkout/pay/callback", map[string]string{"reference": "OF-bogus"}).Code)
	assert.Equal(t, http.StatusBadRequest, h.do(http.MethodPost, "/api/checkout/pay/callback", map[string]string{}).Code)

	w = h.do(http.MethodPost, "/api/checkout/pay/callback", map[string]string{"reference": pay.Intent.Reference})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	view = decode[models.SessionView](t, w)
	assert.Equal(t, "confirmed", view.State)
	require.NotNil(t, view.Order)
	assert.Equal(t, int64(12400), view.Order.TotalPrice)
	assert.Equal(t, models.OrderStatusPaid, view.Order.Status)
	require.NotNil(t, view.Confirmation)
	assert.Contains(t, view.Confirmation.Message, "Creative Hub")
	assert.Equal(t, "hi@creativehub.ng", view.Confirmation.ReceiptTo)

	stored, err := h.orders.GetByID(context.Background(), view.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, pay.Intent.Reference, stored.PaymentReference)

	w = h.do(http.MethodGet, "/api/receipt.html", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Creative Hub")
	assert.Contains(t, w.Body.String(), "₦12,400")

	w = h.do(http.MethodPost, "/api/session/reset", nil)
	require.Equal(t, http.StatusOK, w.Code)
	view = decode[models.SessionView](t, w)
	assert.Equal(t, "building", view.State)
	assert.Empty(t, view.Box)
	assert.Empty(t, view.Draft.CompanyName)
	assert.Nil(t, view.Order)

	assert.Equal(t, http.StatusNotFound, h.do(http.MethodGet, "/api/receipt.html", nil).Code)
}

func TestCheckout_CancelKeepsBox(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	h.startPayment()

	w := h.do(http.MethodPost, "/api/checkout/pay/cancel", nil)
	require.Equal(t, http.StatusOK, w.Code)
	view := decode[models.SessionView](t, w)
	assert.Equal(t, "checkout", view.State)
	assert.False(t, view.Submitting)
	assert.Equal(t, service.NoticePaymentCancelled, view.Notice)
	assert.Equal(t, map[string]int{"apple": 2, "banana": 3}, view.Box)
	assert.Equal(t, "Creative Hub", view.Draft.CompanyName)

	// cancel again with nothing pending
	assert.Equal(t, http.StatusConflict, h.do(http.MethodPost, "/api/checkout/pay/cancel", nil).Code)

	w = h.do(http.MethodPost, "/api/checkout/back", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "building", decode[models.SessionView](t, w).State)
}

func TestCheckout_VerificationFailure(t *testing.T) {
	h := newHarness(t, harnessOptions{
		verifier: verifierFunc(func(ctx context.Context, reference string) (*service.PaymentVerification, error) {
			return &service.PaymentVerification{Reference: reference, Status: "failed"}, nil
		}),
	})
	pay := h.startPayment()

	w := h.do(http.MethodPost, "/api/checkout/pay/callback", map[string]string{"reference": pay.Intent.Reference})
	require.Equal(t, http.StatusPaymentRequired, w.Code)
	view := decode[models.SessionView](t, w)
	assert.Equal(t, "checkout", view.State)
	assert.Equal(t, service.NoticePaymentFailed, view.Notice)

	orders, err := h.orders.List(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestCheckout_Handoff(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	h.fillBox()
	require.Equal(t, http.StatusOK, h.do(http.MethodPost, "/api/checkout/review", nil).Code)
	h.fillDetails()

	w := h.do(http.MethodPost, "/api/checkout/handoff", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode[struct {
		Mailto  string             `json:"mailto"`
		Summary string             `json:"summary"`
		Session models.SessionView `json:"session"`
	}](t, w)
	assert.True(t, strings.HasPrefix(resp.Mailto, "mailto:orders@officefruits.ng?"))
	assert.Contains(t, resp.Summary, "Total upfront: ₦12,400")
	assert.Equal(t, "confirmed", resp.Session.State)
	require.NotNil(t, resp.Session.Order)
	assert.Equal(t, models.OrderStatusPendingHandoff, resp.Session.Order.Status)
}

func TestCheckout_LostSessionWriteStoresOrderOnce(t *testing.T) {
	lossy := &lostWriteStore{}
	h := newHarness(t, harnessOptions{wrapStore: func(s repository.SessionStore) repository.SessionStore {
		lossy.SessionStore = s
		return lossy
	}})
	pay := h.startPayment()

	lossy.armed = true
	w := h.do(http.MethodPost, "/api/checkout/pay/callback", map[string]string{"reference": pay.Intent.Reference})
	require.Equal(t, http.StatusConflict, w.Code, w.Body.String())
	stored, err := h.orders.List(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, stored, "nothing is stored while the session is still submitting")

	w = h.do(http.MethodPost, "/api/checkout/pay/callback", map[string]string{"reference": pay.Intent.Reference})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	view := decode[models.SessionView](t, w)
	require.NotNil(t, view.Order)

	stored, err = h.orders.List(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, view.Order.ID, stored[0].ID)
	assert.Equal(t, pay.Intent.Reference, stored[0].PaymentReference)
}

func TestCheckout_HandoffLostSessionWriteStoresOrderOnce(t *testing.T) {
	lossy := &lostWriteStore{}
	h := newHarness(t, harnessOptions{wrapStore: func(s repository.SessionStore) repository.SessionStore {
		lossy.SessionStore = s
		return lossy
	}})
	h.fillBox()
	require.Equal(t, http.StatusOK, h.do(http.MethodPost, "/api/checkout/review", nil).Code)
	h.fillDetails()

	lossy.armed = true
	require.Equal(t, http.StatusConflict, h.do(http.MethodPost, "/api/checkout/handoff", nil).Code)
	require.Equal(t, http.StatusOK, h.do(http.MethodPost, "/api/checkout/handoff", nil).Code)

	stored, err := h.orders.List(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, stored, 1)
}

func TestCheckout_HandoffRejectsInvalidDetails(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	h.fillBox()
	require.Equal(t, http.StatusOK, h.do(http.MethodPost, "/api/checkout/review", nil).Code)

	assert.Equal(t, http.StatusUnprocessableEntity, h.do(http.MethodPost, "/api/checkout/handoff", nil).Code)
	assert.False(t, decode[models.SessionView](t, h.do(http.MethodGet, "/api/session", nil)).Submitting)
}

type recommendResponse struct {
	GuruMessage string             `json:"guruMessage"`
	Box         map[string]int     `json:"box"`
	Applied     bool               `json:"applied"`
	Session     models.SessionView `json:"session"`
}

func TestRecommendation_Applied(t *testing.T) {
	var gotSize int
	h := newHarness(t, harnessOptions{
		recommender: recommenderFunc(func(ctx context.Context, teamSize int, mood string) (*models.Recommendation, error) {
			gotSize = teamSize
			return &models.Recommendation{
				Message:     "Citrus for the sprint!",
				Suggestions: []models.Suggestion{{FruitName: "Orange", Quantity: 12}, {FruitName: "kiwi", Quantity: 4}},
			}, nil
		}),
	})
	h.fillBox()

	w := h.do(http.MethodPost, "/api/recommendation", map[string]any{"teamSize": 25, "mood": "Deadline week"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode[recommendResponse](t, w)
	assert.Equal(t, 25, gotSize)
	assert.True(t, resp.Applied)
	assert.Equal(t, "Citrus for the sprint!", resp.GuruMessage)
	assert.Equal(t, map[string]int{"orange": 12, "kiwi": 4}, resp.Session.Box)
	assert.Equal(t, "Citrus for the sprint!", resp.Session.GuruMessage)
	assert.False(t, resp.Session.RecommendationPending)
	assert.Equal(t, "Deadline week", resp.Session.Draft.Mood)
}

func TestRecommendation_Unavailable(t *testing.T) {
	h := newHarness(t, harnessOptions{
		recommender: recommenderFunc(func(ctx context.Context, teamSize int, mood string) (*models.Recommendation, error) {
			return nil, errors.New("quota exceeded")
		}),
	})
	h.fillBox()

	assert.Equal(t, http.StatusServiceUnavailable, h.do(http.MethodPost, "/api/recommendation", nil).Code)
	// the pending marker was cleared so a retry is allowed
	assert.Equal(t, http.StatusServiceUnavailable, h.do(http.MethodPost, "/api/recommendation", nil).Code)

	view := decode[models.SessionView](t, h.do(http.MethodGet, "/api/session", nil))
	assert.Equal(t, map[string]int{"apple": 2, "banana": 3}, view.Box)
	assert.False(t, view.RecommendationPending)
}

func TestRecommendation_OnlyWhileBuilding(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	h.fillBox()
	require.Equal(t, http.StatusOK, h.do(http.MethodPost, "/api/checkout/review", nil).Code)
	assert.Equal(t, http.StatusConflict, h.do(http.MethodPost, "/api/recommendation", nil).Code)
}

func TestReceipt_BeforeConfirmation(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	assert.Equal(t, http.StatusNotFound, h.do(http.MethodGet, "/api/receipt.html", nil).Code)
	assert.Equal(t, http.StatusNotFound, h.do(http.MethodGet, "/api/receipt", nil).Code)
}
