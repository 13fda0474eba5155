package router

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"aecoin-store-api/internal/billplz"
	"aecoin-store-api/internal/cache"
	"aecoin-store-api/internal/handler"
	"aecoin-store-api/internal/metrics"
	"aecoin-store-api/internal/middleware"
	"aecoin-store-api/internal/model"
	"aecoin-store-api/internal/notify"
	"aecoin-store-api/internal/repository"
	"aecoin-store-api/internal/service"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	signatureKey = "s3cr3t"
	adminKey     = "admin-key"
	frontendURL  = "https://store.test"
)

type stubGateway struct {
	mu    sync.Mutex
	n     int
	paid  bool
	bills []billplz.CreateBillParams
}

func (g *stubGateway) CreateBill(ctx context.Context, p billplz.CreateBillParams) (*billplz.Bill, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	g.bills = append(g.bills, p)
	id := fmt.Sprintf("bill_%d", g.n)
	return &billplz.Bill{ID: id, URL: "https://billplz.test/bills/" + id}, nil
}

func (g *stubGateway) VerifyBillPayment(ctx context.Context, id string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.paid
}

type testServer struct {
	srv     *httptest.Server
	store   *repository.Store
	gateway *stubGateway
	metrics *metrics.Metrics
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	ctx := context.Background()
	store, err := repository.Open(ctx, "sqlite", ":memory:", nil)
	require.NoError(t, err)
	require.NoError(t, store.Migrate(ctx))
	t.Cleanup(func() { _ = store.Close() })

	c := cache.NewMemoryCache()
	t.Cleanup(func() { _ = c.Close() })

	m := metrics.New("aecoin_store")
	reg := prometheus.NewRegistry()
	require.NoError(t, m.Register(reg))

	gw := &stubGateway{paid: true}
	events := repository.NewLoggingPaymentEventLog(nil)
	dispatcher := notify.NewDispatcher(nil, time.Second, nil, m)

	sessions := service.NewSessionService(c, time.Hour, nil)
	orders := service.NewOrderService(store.Packages(), store.Orders(), store.Codes(), gw, service.OrderConfig{
		CallbackURL: "https://api.test/api/v1/payments/billplz/callback",
		RedirectURL: "https://api.test/api/v1/payments/billplz/redirect",
		MaxQuantity: 10,
	}, nil, m)
	payments := service.NewPaymentService(store.Orders(), gw, billplz.NewVerifier(signatureKey, false, nil), events, dispatcher, nil, m)

	r := New(Config{
		Handler:        handler.New("aecoin-store", "test", handler.Dependency{Name: "store", Pinger: store}, handler.Dependency{Name: "cache", Pinger: c}),
		SessionHandler: handler.NewSessionHandler(sessions, nil),
		PackageHandler: handler.NewPackageHandler(service.NewCatalogService(store.Packages(), nil), nil),
		OrderHandler:   handler.NewOrderHandler(orders, nil),
		PaymentHandler: handler.NewPaymentHandler(payments, frontendURL, nil),
		RankingHandler: handler.NewRankingHandler(service.NewRankingService(store.Rankings(), nil), nil),
		HeroHandler:    handler.NewHeroHandler(service.NewHeroService(store.Heroes(), nil), nil),
		AdminHandler:   handler.NewAdminHandler(store.Orders(), events, func() string { return "col_test" }, "sqlite", nil),
		SessionAuth:    middleware.NewSessionAuth(sessions, nil),
		AdminAuth:      middleware.NewAdminAuth([]string{adminKey}, nil),
		Metrics:        m,
		Gatherer:       reg,
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	return &testServer{srv: srv, store: store, gateway: gw, metrics: m}
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (ts *testServer) do(t *testing.T, method, path, body string, headers map[string]string) (*http.Response, envelope) {
	t.Helper()

	req, err := http.NewRequest(method, ts.srv.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	client := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }}
	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	_ = json.NewDecoder(resp.Body).Decode(&env)
	return resp, env
}

func (ts *testServer) postForm(t *testing.T, path string, form url.Values) (*http.Response, envelope) {
	t.Helper()

	resp, err := http.PostForm(ts.srv.URL+path, form)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	_ = json.NewDecoder(resp.Body).Decode(&env)
	return resp, env
}

func admin() map[string]string { return map[string]string{"X-Admin-Key": adminKey} }

func (ts *testServer) createPackage(t *testing.T) model.Package {
	t.Helper()

	resp, env := ts.do(t, http.MethodPost, "/api/v1/admin/packages",
		`{"name":"AECOIN 5000","aecoin_amount":5000,"price":5000,"sort_order":1}`, admin())
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var p model.Package
	require.NoError(t, json.Unmarshal(env.Data, &p))
	return p
}

func (ts *testServer) session(t *testing.T) string {
	t.Helper()

	resp, env := ts.do(t, http.MethodPost, "/api/v1/session", `{"username":"ali","email":"ali@example.com"}`, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var s handler.SessionResponse
	require.NoError(t, json.Unmarshal(env.Data, &s))
	return s.Token
}

func (ts *testServer) checkout(t *testing.T, token string, pkgID int64, qty int) service.CheckoutResult {
	t.Helper()

	resp, env := ts.do(t, http.MethodPost, "/api/v1/orders",
		fmt.Sprintf(`{"package_id":%d,"quantity":%d}`, pkgID, qty), map[string]string{"X-Token": token})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var res service.CheckoutResult
	require.NoError(t, json.Unmarshal(env.Data, &res))
	return res
}

func signedCallback(billID string) url.Values {
	fields := map[string]string{
		"id":      billID,
		"paid":    "true",
		"state":   "paid",
		"paid_at": "2026-10-18 10:00:00 +0800",
		"amount":  "10000",
	}
	form := url.Values{}
	for k, v := range fields {
		form.Set(k, v)
	}
	form.Set(billplz.SignatureField, billplz.Sign(signatureKey, fields, ""))
	return form
}

func TestPurchaseFlow(t *testing.T) {
	ts := newTestServer(t)
	pkg := ts.createPackage(t)
	token := ts.session(t)

	res := ts.checkout(t, token, pkg.ID, 2)
	assert.Equal(t, "https://billplz.test/bills/bill_1", res.BillURL)
	assert.Equal(t, model.OrderPending, res.Order.Status)
	require.Len(t, ts.gateway.bills, 1)
	assert.Equal(t, "2x AECOIN 5000", ts.gateway.bills[0].Description)

	// Codes are not available before payment.
	resp, env := ts.do(t, http.MethodGet, "/api/v1/orders/"+res.Order.ID+"/codes", "", map[string]string{"X-Token": token})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.False(t, env.Success)

	resp, env = ts.postForm(t, "/api/v1/payments/billplz/callback", signedCallback("bill_1"))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var ack handler.CallbackResponse
	require.NoError(t, json.Unmarshal(env.Data, &ack))
	assert.Equal(t, "fulfilled", ack.Status)

	// A repeated callback is acknowledged without issuing more codes.
	resp, _ = ts.postForm(t, "/api/v1/payments/billplz/callback", signedCallback("bill_1"))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, env = ts.do(t, http.MethodGet, "/api/v1/orders/"+res.Order.ID+"/codes", "", map[string]string{"X-Token": token})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var codes []model.RedemptionCode
	require.NoError(t, json.Unmarshal(env.Data, &codes))
	assert.Len(t, codes, 2)

	resp, env = ts.do(t, http.MethodGet, "/api/v1/orders", "", map[string]string{"X-Token": token})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var orders []model.Order
	require.NoError(t, json.Unmarshal(env.Data, &orders))
	require.Len(t, orders, 1)
	assert.Equal(t, model.OrderFulfilled, orders[0].Status)
}

func TestCallback_Errors(t *testing.T) {
	ts := newTestServer(t)
	pkg := ts.createPackage(t)
	ts.checkout(t, ts.session(t), pkg.ID, 1)

	tampered := signedCallback("bill_1")
	tampered.Set("amount", "1")
	resp, env := ts.postForm(t, "/api/v1/payments/billplz/callback", tampered)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	require.NotNil(t, env.Error)
	assert.Equal(t, "invalid signature", env.Error.Message)

	unsigned := signedCallback("bill_1")
	unsigned.Del(billplz.SignatureField)
	resp, _ = ts.postForm(t, "/api/v1/payments/billplz/callback", unsigned)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = ts.postForm(t, "/api/v1/payments/billplz/callback", signedCallback("bill_unknown"))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = ts.postForm(t, "/api/v1/payments/billplz/callback", url.Values{"paid": {"true"}})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	order, err := ts.store.Orders().GetByBillID(context.Background(), "bill_1")
	require.NoError(t, err)
	assert.Equal(t, model.OrderPending, order.Status)
}

func TestRedirect(t *testing.T) {
	ts := newTestServer(t)
	pkg := ts.createPackage(t)
	res := ts.checkout(t, ts.session(t), pkg.ID, 1)

	fields := map[string]string{"id": "bill_1", "paid": "true", "paid_at": "2026-10-18 10:00:00 +0800"}
	q := url.Values{}
	for k, v := range fields {
		q.Set("billplz["+k+"]", v)
	}
	q.Set("billplz["+billplz.SignatureField+"]", billplz.Sign(signatureKey, fields, billplz.RedirectPrefix))

	resp, _ := ts.do(t, http.MethodGet, "/api/v1/payments/billplz/redirect?"+q.Encode(), "", nil)
	require.Equal(t, http.StatusFound, resp.StatusCode)

	loc, err := url.Parse(resp.Header.Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "store.test", loc.Host)
	assert.Equal(t, "/orders", loc.Path)
	assert.Equal(t, res.Order.ID, loc.Query().Get("order"))
	assert.Equal(t, "fulfilled", loc.Query().Get("status"))

	q.Set("billplz[paid]", "false")
	resp, _ = ts.do(t, http.MethodGet, "/api/v1/payments/billplz/redirect?"+q.Encode(), "", nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = ts.do(t, http.MethodGet, "/api/v1/payments/billplz/redirect", "", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCheckout_Validation(t *testing.T) {
	ts := newTestServer(t)
	pkg := ts.createPackage(t)
	token := ts.session(t)
	auth := map[string]string{"X-Token": token}

	resp, _ := ts.do(t, http.MethodPost, "/api/v1/orders", fmt.Sprintf(`{"package_id":%d,"quantity":11}`, pkg.ID), auth)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, env := ts.do(t, http.MethodPost, "/api/v1/orders", `{"quantity":1}`, auth)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.NotNil(t, env.Error)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)

	resp, _ = ts.do(t, http.MethodPost, "/api/v1/orders", `{"package_id":999,"quantity":1}`, auth)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = ts.do(t, http.MethodPost, "/api/v1/orders", `not json`, auth)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = ts.do(t, http.MethodPost, "/api/v1/orders", fmt.Sprintf(`{"package_id":%d,"quantity":1}`, pkg.ID), nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestOrders_ScopedToSession(t *testing.T) {
	ts := newTestServer(t)
	pkg := ts.createPackage(t)
	res := ts.checkout(t, ts.session(t), pkg.ID, 1)

	resp, env := ts.do(t, http.MethodPost, "/api/v1/session", `{"username":"bob","email":"bob@example.com"}`, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var other handler.SessionResponse
	require.NoError(t, json.Unmarshal(env.Data, &other))

	resp, _ = ts.do(t, http.MethodGet, "/api/v1/orders/"+res.Order.ID, "", map[string]string{"X-Token": other.Token})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestOrderCodes_NotSharedBetweenSessionsWithSameEmail(t *testing.T) {
	ts := newTestServer(t)
	pkg := ts.createPackage(t)
	owner := ts.session(t)
	res := ts.checkout(t, owner, pkg.ID, 1)

	resp, _ := ts.postForm(t, "/api/v1/payments/billplz/callback", signedCallback("bill_1"))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = ts.do(t, http.MethodGet, "/api/v1/orders/"+res.Order.ID+"/codes", "", map[string]string{"X-Token": owner})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, env := ts.do(t, http.MethodPost, "/api/v1/session", `{"username":"mallory","email":"ALI@example.com"}`, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var other handler.SessionResponse
	require.NoError(t, json.Unmarshal(env.Data, &other))
	auth := map[string]string{"X-Token": other.Token}

	resp, _ = ts.do(t, http.MethodGet, "/api/v1/orders/"+res.Order.ID+"/codes", "", auth)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, env = ts.do(t, http.MethodGet, "/api/v1/orders", "", auth)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var orders []model.Order
	require.NoError(t, json.Unmarshal(env.Data, &orders))
	assert.Empty(t, orders)
}

func TestSession_Lifecycle(t *testing.T) {
	ts := newTestServer(t)
	token := ts.session(t)
	auth := map[string]string{"X-Token": token}

	resp, env := ts.do(t, http.MethodGet, "/api/v1/session", "", auth)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var data model.SessionData
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, "ali", data.Username)

	resp, _ = ts.do(t, http.MethodPost, "/api/v1/session/refresh", "", auth)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = ts.do(t, http.MethodDelete, "/api/v1/session", "", auth)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = ts.do(t, http.MethodGet, "/api/v1/session", "", auth)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = ts.do(t, http.MethodPost, "/api/v1/session", `{"username":"ali","email":"not-an-email"}`, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAdminRoutes_RequireKey(t *testing.T) {
	ts := newTestServer(t)

	resp, _ := ts.do(t, http.MethodGet, "/api/v1/admin/packages", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = ts.do(t, http.MethodGet, "/api/v1/admin/packages", "", map[string]string{"X-Admin-Key": "nope"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = ts.do(t, http.MethodGet, "/api/v1/admin/stats", "", admin())
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestPackages_AdminCRUD(t *testing.T) {
	ts := newTestServer(t)
	pkg := ts.createPackage(t)

	resp, env := ts.do(t, http.MethodGet, "/api/v1/packages", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list []model.Package
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Len(t, list, 1)

	resp, _ = ts.do(t, http.MethodPatch, fmt.Sprintf("/api/v1/admin/packages/%d", pkg.ID), `{"active":false}`, admin())
	require.Equal(t, http.StatusOK, resp.StatusCode)

	_, env = ts.do(t, http.MethodGet, "/api/v1/packages", "", nil)
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Empty(t, list)

	resp, _ = ts.do(t, http.MethodPatch, fmt.Sprintf("/api/v1/admin/packages/%d", pkg.ID), `{"price":0}`, admin())
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = ts.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/admin/packages/%d", pkg.ID), "", admin())
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = ts.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/admin/packages/%d", pkg.ID), "", admin())
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = ts.do(t, http.MethodDelete, "/api/v1/admin/packages/abc", "", admin())
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRankingsAndHero(t *testing.T) {
	ts := newTestServer(t)

	resp, _ := ts.do(t, http.MethodPost, "/api/v1/admin/rankings/seed", "", admin())
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, env := ts.do(t, http.MethodPost, "/api/v1/admin/rankings",
		`{"user_id":"player-1","player_name":"CHAMPION","stars":999,"rank":1}`, admin())
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var champ model.PlayerRanking
	require.NoError(t, json.Unmarshal(env.Data, &champ))

	resp, env = ts.do(t, http.MethodGet, "/api/v1/rankings", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var rankings []model.PlayerRanking
	require.NoError(t, json.Unmarshal(env.Data, &rankings))
	require.Len(t, rankings, 8)
	assert.Equal(t, "CHAMPION", rankings[0].PlayerName)

	resp, _ = ts.do(t, http.MethodPatch, fmt.Sprintf("/api/v1/admin/rankings/%d", champ.ID), `{"stars":1000}`, admin())
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = ts.do(t, http.MethodGet, "/api/v1/hero", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = ts.do(t, http.MethodPost, "/api/v1/admin/hero", `{"background_image":"/bg.jpg","is_active":true}`, admin())
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, env = ts.do(t, http.MethodGet, "/api/v1/hero", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var hero model.HeroSetting
	require.NoError(t, json.Unmarshal(env.Data, &hero))
	assert.Equal(t, "/bg.jpg", hero.BackgroundImage)
}

func TestHealthAndMetrics(t *testing.T) {
	ts := newTestServer(t)

	resp, env := ts.do(t, http.MethodGet, "/api/v1/ready", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var ready handler.ReadyResponse
	require.NoError(t, json.Unmarshal(env.Data, &ready))
	assert.True(t, ready.Ready)
	assert.Len(t, ready.Checks, 3)

	resp, _ = ts.do(t, http.MethodGet, "/api/status", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err := http.Get(ts.srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "aecoin_store_http_requests_total")
}
