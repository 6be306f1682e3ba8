//go:build integration

package e2e

// End-to-end integration tests using real Postgres + Redis via testcontainers.
// Run with: go test -tags integration ./internal/e2e/... -v
//
// Covered flows:
//   - catalog setup → storefront order → paid confirmation → ship → deliver
//   - insufficient stock rejects the whole order
//   - cancellation releases reserved stock and refunds
//   - manual stock adjustment writes a ledger entry
//   - collection aggregation rolls up the live tree

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"beewear/internal/config"
	"beewear/internal/infra"
	"beewear/internal/model"
	"beewear/internal/router"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	tcRedis "github.com/testcontainers/testcontainers-go/modules/redis"
	"golang.org/x/crypto/bcrypt"
)

// ── Helpers ──────────────────────────────────────────────────────────────────

func jsonBody(t *testing.T, v any) *bytes.Buffer {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewBuffer(b)
}

func do(t *testing.T, srv *httptest.Server, method, path string, body *bytes.Buffer, token string) *http.Response {
	t.Helper()
	var req *http.Request
	var err error
	if body != nil {
		req, err = http.NewRequest(method, srv.URL+path, body)
	} else {
		req, err = http.NewRequest(method, srv.URL+path, nil)
	}
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, dest any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dest))
}

// memGateway is an in-process checkout provider: sessions are created
// unpaid and flipped to paid by the test.
type memGateway struct {
	mu   sync.Mutex
	paid map[string]bool
}

func newMemGateway() *memGateway { return &memGateway{paid: make(map[string]bool)} }

func (g *memGateway) CreateSession(_ context.Context, orderNumber int64, _ decimal.Decimal, _ string) (*infra.CheckoutSession, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	id := fmt.Sprintf("cs_test_%d_%s", orderNumber, uuid.NewString()[:8])
	g.paid[id] = false
	return &infra.CheckoutSession{ID: id, URL: "https://pay.test/" + id}, nil
}

func (g *memGateway) VerifySession(_ context.Context, sessionID string) (*infra.SessionStatus, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return &infra.SessionStatus{ID: sessionID, Paid: g.paid[sessionID]}, nil
}

func (g *memGateway) settle(sessionID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.paid[sessionID] = true
}

// ── Test Suite Setup ─────────────────────────────────────────────────────────

type testEnv struct {
	server  *httptest.Server
	token   string // admin JWT
	gateway *memGateway
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	pgC, err := tcPostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:15-alpine"),
		tcPostgres.WithDatabase("beewear_test"),
		tcPostgres.WithUsername("beewear"),
		tcPostgres.WithPassword("beewear"),
		testcontainers.WithWaitStrategy(
			tcPostgres.BasicWaitStrategies()...,
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(ctx) })

	pgURL, err := pgC.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	rdC, err := tcRedis.RunContainer(ctx,
		testcontainers.WithImage("redis:7-alpine"),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdC.Terminate(ctx) })

	rdURL, err := rdC.ConnectionString(ctx)
	require.NoError(t, err)

	cfg := &config.Config{
		Port:               8000,
		Env:                "test",
		JWTSecret:          "test-secret-key",
		JWTExpirationHours: 8,
		JWTRefreshHours:    24,
		DatabaseURL:        pgURL,
		RedisURL:           rdURL,
		WorkerPoolSize:     1,
		ReceiptStoragePath: t.TempDir(),
		StoreName:          "Beewear Test",
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	require.NoError(t, err)

	rdb, err := infra.NewRedis(cfg.RedisURL)
	require.NoError(t, err)

	// Seed admin user
	hash, err := bcrypt.GenerateFromPassword([]byte("e2e-password"), 12)
	require.NoError(t, err)
	require.NoError(t, db.Create(&model.User{
		Username:     "admin.e2e",
		Name:         "Admin E2E",
		PasswordHash: string(hash),
		Role:         "admin",
		Active:       true,
	}).Error)

	gw := newMemGateway()
	r, _ := router.New(cfg, db, rdb, gw, nil)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	loginResp := do(t, srv, "POST", "/v1/auth/login",
		jsonBody(t, map[string]string{"username": "admin.e2e", "password": "e2e-password"}),
		"",
	)
	require.Equal(t, http.StatusOK, loginResp.StatusCode)
	var loginBody struct {
		AccessToken string `json:"access_token"`
	}
	decodeJSON(t, loginResp, &loginBody)
	require.NotEmpty(t, loginBody.AccessToken)

	return &testEnv{server: srv, token: loginBody.AccessToken, gateway: gw}
}

// seedCatalog creates a collection with one product (one variation, one size)
// and returns the collection id, the size id and its stock item id.
func seedCatalog(t *testing.T, env *testEnv, price string, initialStock int) (string, string, string) {
	t.Helper()

	collResp := do(t, env.server, "POST", "/v1/collections",
		jsonBody(t, map[string]any{"name": "E2E " + uuid.NewString()[:8]}), env.token)
	require.Equal(t, http.StatusCreated, collResp.StatusCode)
	var coll struct {
		ID string `json:"id"`
	}
	decodeJSON(t, collResp, &coll)

	prodResp := do(t, env.server, "POST", "/v1/products",
		jsonBody(t, map[string]any{
			"collection_id": coll.ID,
			"name":          "Hoodie",
			"variations": []map[string]any{{
				"color": "black",
				"price": price,
				"sizes": []map[string]any{
					{"size": "M", "initial_stock": initialStock, "minimum_stock": 2},
				},
			}},
		}), env.token)
	require.Equal(t, http.StatusCreated, prodResp.StatusCode)
	var prod struct {
		Variations []struct {
			Sizes []struct {
				ID          string `json:"id"`
				StockItemID string `json:"stock_item_id"`
			} `json:"sizes"`
		} `json:"variations"`
	}
	decodeJSON(t, prodResp, &prod)
	require.Len(t, prod.Variations, 1)
	require.Len(t, prod.Variations[0].Sizes, 1)

	return coll.ID, prod.Variations[0].Sizes[0].ID, prod.Variations[0].Sizes[0].StockItemID
}

func placeOrder(t *testing.T, env *testEnv, sizeID string, qty int) (orderID, checkoutURL string) {
	t.Helper()
	resp := do(t, env.server, "POST", "/v1/orders",
		jsonBody(t, map[string]any{
			"items":          []map[string]any{{"variation_size_id": sizeID, "quantity": qty}},
			"customer_name":  "Ada Lovelace",
			"customer_email": "ada@e2e.test",
			"address_line":   "12 Analytical Way",
			"city":           "London",
			"postal_code":    "N1 9GU",
			"country":        "UK",
		}), "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var body struct {
		ID          string `json:"id"`
		CheckoutURL string `json:"checkout_url"`
	}
	decodeJSON(t, resp, &body)
	return body.ID, body.CheckoutURL
}

func sessionFromURL(t *testing.T, checkoutURL string) string {
	t.Helper()
	require.NotEmpty(t, checkoutURL)
	return checkoutURL[len("https://pay.test/"):]
}

// ── Tests ────────────────────────────────────────────────────────────────────

func TestE2E_OrderLifecycle(t *testing.T) {
	env := setupTestEnv(t)
	_, sizeID, stockItemID := seedCatalog(t, env, "49.90", 10)

	orderID, checkoutURL := placeOrder(t, env, sizeID, 3)
	session := sessionFromURL(t, checkoutURL)

	// Stock reserved immediately: one OUT movement on the ledger.
	movResp := do(t, env.server, "GET", "/v1/stock/"+stockItemID+"/movements", nil, env.token)
	require.Equal(t, http.StatusOK, movResp.StatusCode)
	var movements struct {
		Data []struct {
			Type        string `json:"type"`
			Quantity    int    `json:"quantity"`
			NewQuantity int    `json:"new_quantity"`
		} `json:"data"`
	}
	decodeJSON(t, movResp, &movements)
	require.Len(t, movements.Data, 1)
	assert.Equal(t, "OUT", movements.Data[0].Type)
	assert.Equal(t, 7, movements.Data[0].NewQuantity)

	// Confirm before payment settles → 402, order stays PENDING.
	unpaid := do(t, env.server, "POST", "/v1/orders/confirm",
		jsonBody(t, map[string]string{"session_id": session}), "")
	assert.Equal(t, http.StatusPaymentRequired, unpaid.StatusCode)
	unpaid.Body.Close()

	env.gateway.settle(session)
	paid := do(t, env.server, "POST", "/v1/orders/confirm",
		jsonBody(t, map[string]string{"session_id": session}), "")
	require.Equal(t, http.StatusOK, paid.StatusCode)
	var confirmed struct {
		Status        string `json:"status"`
		PaymentStatus string `json:"payment_status"`
		Total         string `json:"total"`
	}
	decodeJSON(t, paid, &confirmed)
	assert.Equal(t, "CONFIRMED", confirmed.Status)
	assert.Equal(t, "PAID", confirmed.PaymentStatus)

	// Ship, then deliver.
	ship := do(t, env.server, "POST", "/v1/orders/"+orderID+"/ship",
		jsonBody(t, map[string]string{"notes": "DHL 123456"}), env.token)
	require.Equal(t, http.StatusOK, ship.StatusCode)
	ship.Body.Close()

	deliver := do(t, env.server, "POST", "/v1/orders/"+orderID+"/deliver", nil, env.token)
	require.Equal(t, http.StatusOK, deliver.StatusCode)
	var delivered struct {
		Status string `json:"status"`
	}
	decodeJSON(t, deliver, &delivered)
	assert.Equal(t, "DELIVERED", delivered.Status)

	// Terminal state: cancel is rejected.
	cancel := do(t, env.server, "POST", "/v1/orders/"+orderID+"/cancel",
		jsonBody(t, map[string]string{"notes": "too late"}), env.token)
	assert.Equal(t, http.StatusConflict, cancel.StatusCode)
	cancel.Body.Close()
}

func TestE2E_InsufficientStockRejectsOrder(t *testing.T) {
	env := setupTestEnv(t)
	_, sizeID, stockItemID := seedCatalog(t, env, "20.00", 2)

	resp := do(t, env.server, "POST", "/v1/orders",
		jsonBody(t, map[string]any{
			"items":          []map[string]any{{"variation_size_id": sizeID, "quantity": 5}},
			"customer_name":  "Ada Lovelace",
			"customer_email": "ada@e2e.test",
			"address_line":   "12 Analytical Way",
			"city":           "London",
			"postal_code":    "N1 9GU",
			"country":        "UK",
		}), "")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	// Nothing reserved: the ledger is still empty.
	movResp := do(t, env.server, "GET", "/v1/stock/"+stockItemID+"/movements", nil, env.token)
	require.Equal(t, http.StatusOK, movResp.StatusCode)
	var movements struct {
		Total int64 `json:"total"`
	}
	decodeJSON(t, movResp, &movements)
	assert.Zero(t, movements.Total)
}

func TestE2E_CancelReleasesStockAndRefunds(t *testing.T) {
	env := setupTestEnv(t)
	_, sizeID, stockItemID := seedCatalog(t, env, "30.00", 10)

	orderID, checkoutURL := placeOrder(t, env, sizeID, 4)
	session := sessionFromURL(t, checkoutURL)
	env.gateway.settle(session)

	paid := do(t, env.server, "POST", "/v1/orders/confirm",
		jsonBody(t, map[string]string{"session_id": session}), "")
	require.Equal(t, http.StatusOK, paid.StatusCode)
	paid.Body.Close()

	cancel := do(t, env.server, "POST", "/v1/orders/"+orderID+"/cancel",
		jsonBody(t, map[string]string{"notes": "customer changed their mind"}), env.token)
	require.Equal(t, http.StatusOK, cancel.StatusCode)
	var cancelled struct {
		Status        string `json:"status"`
		PaymentStatus string `json:"payment_status"`
	}
	decodeJSON(t, cancel, &cancelled)
	assert.Equal(t, "CANCELLED", cancelled.Status)
	assert.Equal(t, "REFUNDED", cancelled.PaymentStatus)

	// OUT at creation + IN at cancellation, counter back to 10.
	movResp := do(t, env.server, "GET", "/v1/stock/"+stockItemID+"/movements", nil, env.token)
	require.Equal(t, http.StatusOK, movResp.StatusCode)
	var movements struct {
		Data []struct {
			Type        string `json:"type"`
			NewQuantity int    `json:"new_quantity"`
		} `json:"data"`
	}
	decodeJSON(t, movResp, &movements)
	require.Len(t, movements.Data, 2)
	assert.Equal(t, "IN", movements.Data[0].Type) // newest first
	assert.Equal(t, 10, movements.Data[0].NewQuantity)
}

func TestE2E_ConcurrentCancelsReleaseStockOnce(t *testing.T) {
	env := setupTestEnv(t)
	_, sizeID, stockItemID := seedCatalog(t, env, "35.00", 10)
	orderID, _ := placeOrder(t, env, sizeID, 4)

	// A double-clicked cancel: exactly one request may win the transition.
	results := make(chan int, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp := do(t, env.server, "POST", "/v1/orders/"+orderID+"/cancel",
				jsonBody(t, map[string]string{"notes": "duplicate cancel request"}), env.token)
			resp.Body.Close()
			results <- resp.StatusCode
		}()
	}
	wg.Wait()
	close(results)

	var codes []int
	for c := range results {
		codes = append(codes, c)
	}
	assert.ElementsMatch(t, []int{http.StatusOK, http.StatusConflict}, codes)

	// One OUT at creation, one IN from the single winning cancel; counter
	// back where it started.
	movResp := do(t, env.server, "GET", "/v1/stock/"+stockItemID+"/movements", nil, env.token)
	require.Equal(t, http.StatusOK, movResp.StatusCode)
	var movements struct {
		Data []struct {
			Type        string `json:"type"`
			NewQuantity int    `json:"new_quantity"`
		} `json:"data"`
	}
	decodeJSON(t, movResp, &movements)
	require.Len(t, movements.Data, 2)
	assert.Equal(t, "IN", movements.Data[0].Type)
	assert.Equal(t, 10, movements.Data[0].NewQuantity)
}

func TestE2E_ManualStockAdjustment(t *testing.T) {
	env := setupTestEnv(t)
	_, _, stockItemID := seedCatalog(t, env, "15.00", 6)

	adjust := do(t, env.server, "POST", "/v1/stock/"+stockItemID+"/adjust",
		jsonBody(t, map[string]any{"delta": -2, "description": "damaged in warehouse"}), env.token)
	require.Equal(t, http.StatusOK, adjust.StatusCode)
	var movement struct {
		Type             string `json:"type"`
		Quantity         int    `json:"quantity"`
		PreviousQuantity int    `json:"previous_quantity"`
		NewQuantity      int    `json:"new_quantity"`
	}
	decodeJSON(t, adjust, &movement)
	assert.Equal(t, "OUT", movement.Type)
	assert.Equal(t, 2, movement.Quantity)
	assert.Equal(t, 6, movement.PreviousQuantity)
	assert.Equal(t, 4, movement.NewQuantity)

	// Zero delta is rejected as an invalid quantity.
	zero := do(t, env.server, "POST", "/v1/stock/"+stockItemID+"/adjust",
		jsonBody(t, map[string]any{"delta": 0, "description": "noop"}), env.token)
	assert.Equal(t, http.StatusBadRequest, zero.StatusCode)
	zero.Body.Close()
}

func TestE2E_ConcurrentOrdersSerializeOnLastUnits(t *testing.T) {
	env := setupTestEnv(t)
	_, sizeID, stockItemID := seedCatalog(t, env, "40.00", 5)

	// Two orders racing for 4 of the 5 remaining units: the row lock must let
	// exactly one through.
	results := make(chan int, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp := do(t, env.server, "POST", "/v1/orders",
				jsonBody(t, map[string]any{
					"items":          []map[string]any{{"variation_size_id": sizeID, "quantity": 4}},
					"customer_name":  "Ada Lovelace",
					"customer_email": "ada@e2e.test",
					"address_line":   "12 Analytical Way",
					"city":           "London",
					"postal_code":    "N1 9GU",
					"country":        "UK",
				}), "")
			resp.Body.Close()
			results <- resp.StatusCode
		}()
	}
	wg.Wait()
	close(results)

	var codes []int
	for c := range results {
		codes = append(codes, c)
	}
	assert.ElementsMatch(t, []int{http.StatusCreated, http.StatusConflict}, codes)

	// Exactly one reservation on the ledger, counter at 1.
	movResp := do(t, env.server, "GET", "/v1/stock/"+stockItemID+"/movements", nil, env.token)
	require.Equal(t, http.StatusOK, movResp.StatusCode)
	var movements struct {
		Data []struct {
			NewQuantity int `json:"new_quantity"`
		} `json:"data"`
	}
	decodeJSON(t, movResp, &movements)
	require.Len(t, movements.Data, 1)
	assert.Equal(t, 1, movements.Data[0].NewQuantity)
}

func TestE2E_CollectionAggregation(t *testing.T) {
	env := setupTestEnv(t)
	collectionID, sizeID, _ := seedCatalog(t, env, "25.00", 8)

	// Reserve 3 units via an order; aggregation reflects live stock.
	placeOrder(t, env, sizeID, 3)

	aggResp := do(t, env.server, "GET", "/v1/collections/"+collectionID+"/aggregation", nil, env.token)
	require.Equal(t, http.StatusOK, aggResp.StatusCode)
	var agg struct {
		TotalProducts int    `json:"total_products"`
		TotalStock    int    `json:"total_stock"`
		TotalValue    string `json:"total_value"`
	}
	decodeJSON(t, aggResp, &agg)
	assert.Equal(t, 1, agg.TotalProducts)
	assert.Equal(t, 5, agg.TotalStock)
	assert.True(t, decimal.RequireFromString(agg.TotalValue).Equal(decimal.RequireFromString("125")))
}
