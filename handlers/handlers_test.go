package handlers

import (
	"bytes"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/auth"
	"storefront/internal/cart"
	"storefront/internal/catalog"
	"storefront/internal/chat"
	"storefront/internal/checkout"
	"storefront/internal/customers"
	"storefront/internal/domain"
	"storefront/internal/repository"
	"storefront/middleware"
)

type testServer struct {
	engine   *gin.Engine
	store    *repository.MemoryStore
	priv     *rsa.PrivateKey
	physical domain.Product
	digital  domain.Product
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	t.Setenv("GIN_MODE", gin.TestMode)

	store := repository.NewMemoryStore()
	ts := &testServer{
		store:    store,
		physical: store.AddProduct(domain.Product{Name: "Tomato Seeds", Price: decimal.RequireFromString("100.00")}),
		digital:  store.AddProduct(domain.Product{Name: "Soil Guide", Price: decimal.RequireFromString("50.00"), Digital: true}),
	}
	store.AddArticle(domain.Article{Title: "Drip basics", Category: "irrigation"})
	store.AddArticle(domain.Article{Title: "Compost", Category: "soil"})

	var err error
	ts.priv, err = rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	keys, err := auth.NewKeys(&ts.priv.PublicKey)
	require.NoError(t, err)

	cat, err := catalog.NewConf(store)
	require.NoError(t, err)
	cartConf, err := cart.NewConf(store)
	require.NoError(t, err)
	cust, err := customers.NewConf(store)
	require.NoError(t, err)
	fin, err := checkout.NewFinalizer(store, nil)
	require.NoError(t, err)
	relay, err := chat.NewRelay(nil, cat, "")
	require.NoError(t, err)
	h, err := NewHandler(cat, cartConf, cust, fin, relay)
	require.NoError(t, err)

	ts.engine = API("/store", middleware.NewMid(keys), h)
	return ts
}

func (ts *testServer) token(t *testing.T, subject string) string {
	t.Helper()
	claims := auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: subject, ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
		Name:             "Asha",
		Email:            "asha@example.com",
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(ts.priv)
	require.NoError(t, err)
	return tok
}

func (ts *testServer) do(t *testing.T, method, path, token string, body any, mods ...func(*http.Request)) *httptest.ResponseRecorder {
	t.Helper()
	var r *http.Request
	switch b := body.(type) {
	case nil:
		r = httptest.NewRequest(method, path, nil)
	case string:
		r = httptest.NewRequest(method, path, strings.NewReader(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		r = httptest.NewRequest(method, path, bytes.NewReader(raw))
	}
	r.Header.Set("Content-Type", "application/json")
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}
	for _, m := range mods {
		m(r)
	}
	w := httptest.NewRecorder()
	ts.engine.ServeHTTP(w, r)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestPing(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(t, http.MethodGet, "/ping", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Trace-Id"))
}

func TestStore_Guest(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(t, http.MethodGet, "/store/", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Len(t, body["products"], 2)
	assert.EqualValues(t, 0, body["cartItems"])
}

func TestInvalidTokenRejected(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(t, http.MethodGet, "/store/", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = ts.do(t, http.MethodGet, "/store/", "", nil, func(r *http.Request) { r.Header.Set("Authorization", "Token abc") })
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUpdateItem_GuestUnauthorized(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(t, http.MethodPost, "/store/update-item", "", gin.H{"productId": ts.physical.ID, "action": "add"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCartFlow_User(t *testing.T) {
	ts := newTestServer(t)
	tok := ts.token(t, "u-1")

	for _, body := range []gin.H{
		{"productId": ts.physical.ID, "action": "add"},
		{"productId": strconv.FormatInt(ts.physical.ID, 10), "action": "add"},
		{"productId": ts.digital.ID, "action": "add"},
	} {
		w := ts.do(t, http.MethodPost, "/store/update-item", tok, body)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.JSONEq(t, `"Item was added"`, w.Body.String())
	}

	w := ts.do(t, http.MethodGet, "/store/cart", tok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.EqualValues(t, 3, body["cartItems"])
	assert.Equal(t, "250.00", body["cartTotal"])
	assert.Equal(t, true, body["shipping"])
	assert.Len(t, body["items"], 2)

	w = ts.do(t, http.MethodGet, "/store/checkout", tok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 3, decode(t, w)["cartItems"])

	w = ts.do(t, http.MethodPost, "/store/update-item", tok, gin.H{"productId": ts.physical.ID, "action": "remove"})
	require.Equal(t, http.StatusOK, w.Code)
	w = ts.do(t, http.MethodGet, "/store/", tok, nil)
	assert.EqualValues(t, 2, decode(t, w)["cartItems"])
}

func TestUpdateItem_BadRequests(t *testing.T) {
	ts := newTestServer(t)
	tok := ts.token(t, "u-1")

	w := ts.do(t, http.MethodPost, "/store/update-item", tok, gin.H{"productId": 9999, "action": "add"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = ts.do(t, http.MethodPost, "/store/update-item", tok, gin.H{"productId": ts.physical.ID, "action": "double"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(t, http.MethodPost, "/store/update-item", tok, gin.H{"action": "add"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(t, http.MethodPost, "/store/update-item", tok, `{"productId": "abc", "action": "add"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProcessOrder_User(t *testing.T) {
	ts := newTestServer(t)
	tok := ts.token(t, "u-1")
	for i := 0; i < 2; i++ {
		w := ts.do(t, http.MethodPost, "/store/update-item", tok, gin.H{"productId": ts.physical.ID, "action": "add"})
		require.Equal(t, http.StatusOK, w.Code)
	}
	shipping := gin.H{"address": "12 Temple St", "city": "Madurai", "state": "TN", "zipcode": "625001"}

	w := ts.do(t, http.MethodPost, "/store/process-order", tok, gin.H{"form": gin.H{}})
	assert.Equal(t, http.StatusBadRequest, w.Code, "total is required")

	w = ts.do(t, http.MethodPost, "/store/process-order", tok, gin.H{"form": gin.H{"total": "200.00"}})
	assert.Equal(t, http.StatusBadRequest, w.Code, "shipping is required for physical goods")

	w = ts.do(t, http.MethodPost, "/store/process-order", tok, gin.H{"form": gin.H{"total": "150.00"}, "shipping": shipping})
	require.Equal(t, http.StatusConflict, w.Code)
	mismatch := decode(t, w)
	assert.Equal(t, false, mismatch["complete"])
	assert.NotEmpty(t, mismatch["transaction_id"])

	w = ts.do(t, http.MethodPost, "/store/process-order", tok, gin.H{"form": gin.H{"total": 200}, "shipping": shipping})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, "Payment submitted..", body["message"])
	assert.Equal(t, true, body["complete"])
	assert.Equal(t, mismatch["transaction_id"], body["transaction_id"])

	// The next visit starts a fresh, empty order.
	w = ts.do(t, http.MethodGet, "/store/cart", tok, nil)
	assert.EqualValues(t, 0, decode(t, w)["cartItems"])
}

func TestProcessOrder_Guest(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/store/process-order", "", gin.H{
		"form":  gin.H{"total": "150.00", "name": "Guest", "email": "guest@example.com"},
		"items": []gin.H{{"productId": ts.physical.ID, "quantity": 1}, {"productId": ts.digital.ID, "quantity": 1}},
		"shipping": gin.H{"address": "1 Market Rd", "city": "Salem", "state": "TN", "zipcode": "636001"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, true, decode(t, w)["complete"])

	w = ts.do(t, http.MethodPost, "/store/process-order", "", gin.H{
		"form":  gin.H{"total": "10.00"},
		"items": []gin.H{{"productId": 9999, "quantity": 1}},
	})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = ts.do(t, http.MethodPost, "/store/process-order", "", gin.H{
		"form":  gin.H{"total": "10.00"},
		"items": []gin.H{{"productId": ts.digital.ID, "quantity": 0}},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(t, http.MethodPost, "/store/process-order", "", gin.H{"form": gin.H{"total": 0}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestProcessOrder_GuestQuantityBound(t *testing.T) {
	ts := newTestServer(t)

	for _, items := range [][]gin.H{
		{{"productId": ts.digital.ID, "quantity": domain.MaxItemQuantity + 1}},
		{{"productId": ts.digital.ID, "quantity": math.MaxInt64}},
		{{"productId": ts.digital.ID, "quantity": 6000}, {"productId": ts.digital.ID, "quantity": 5000}},
	} {
		w := ts.do(t, http.MethodPost, "/store/process-order", "", gin.H{"form": gin.H{"total": 0}, "items": items})
		assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
	}
}

func TestBodyLimit_Chunked(t *testing.T) {
	ts := newTestServer(t)
	chunked := func(r *http.Request) {
		r.ContentLength = -1
		r.TransferEncoding = []string{"chunked"}
	}

	big := `{"message":"` + strings.Repeat("a", maxBodyBytes) + `"}`
	w := ts.do(t, http.MethodPost, "/store/chatbot", "", big, chunked)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	big = `{"form":{"total":0,"name":"` + strings.Repeat("a", maxBodyBytes) + `"}}`
	w = ts.do(t, http.MethodPost, "/store/process-order", "", big, chunked)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCart_GuestCookie(t *testing.T) {
	ts := newTestServer(t)
	cookie := `{"` + strconv.FormatInt(ts.physical.ID, 10) + `":{"quantity":2},"424242":{"quantity":1}}`

	w := ts.do(t, http.MethodGet, "/store/cart", "", nil, func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: cart.CookieName, Value: url.QueryEscape(cookie)})
	})
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.EqualValues(t, 2, body["cartItems"])
	assert.Equal(t, "200.00", body["cartTotal"])
	assert.Nil(t, body["order"])
}

func TestProfile(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(t, http.MethodGet, "/store/profile", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	tok := ts.token(t, "u-7")
	w = ts.do(t, http.MethodGet, "/store/profile", tok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "Asha", body["customer"].(map[string]any)["name"])

	w = ts.do(t, http.MethodPost, "/store/profile", tok, gin.H{"name": "Asha R", "email": "not-an-email"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(t, http.MethodPost, "/store/profile", tok, gin.H{"name": "Asha R"})
	require.Equal(t, http.StatusOK, w.Code)
	body = decode(t, w)
	assert.Equal(t, "Profile updated successfully!", body["message"])
	customer := body["customer"].(map[string]any)
	assert.Equal(t, "Asha R", customer["name"])
	assert.Equal(t, "asha@example.com", customer["email"])
}

func TestLearning(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(t, http.MethodGet, "/store/learning?category=soil", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Len(t, body["articles"], 1)
	assert.Len(t, body["categories"], 2)
	assert.Equal(t, "soil", body["selected_category"])

	w = ts.do(t, http.MethodGet, "/store/learning", "", nil)
	assert.Len(t, decode(t, w)["articles"], 2)
}

func TestChatbot(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/store/chatbot", "", `{"message": "   "}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(t, http.MethodPost, "/store/chatbot", "", `{not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.NotEmpty(t, decode(t, w)["response"])

	w = ts.do(t, http.MethodPost, "/store/chatbot", "", gin.H{"message": "what do you sell?"})
	require.Equal(t, http.StatusOK, w.Code)
	reply := decode(t, w)["response"].(string)
	assert.Contains(t, reply, "GEMINI_API_KEY")
	assert.Contains(t, reply, "Tomato Seeds (₹100.00)")
}

func TestMapErrorToStatus(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, mapErrorToStatus(domain.ErrValidation))
	assert.Equal(t, http.StatusNotFound, mapErrorToStatus(domain.ErrNotFound))
	assert.Equal(t, http.StatusConflict, mapErrorToStatus(domain.ErrTotalMismatch))
	assert.Equal(t, http.StatusUnauthorized, mapErrorToStatus(domain.ErrUnauthenticated))
	assert.Equal(t, http.StatusInternalServerError, mapErrorToStatus(assert.AnError))
}
