package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx"

	"github.com/sgjo/shop-api/internal/domain/admin"
	"github.com/sgjo/shop-api/internal/domain/cart"
	"github.com/sgjo/shop-api/internal/domain/coupon"
	"github.com/sgjo/shop-api/internal/domain/media"
	"github.com/sgjo/shop-api/internal/domain/order"
	"github.com/sgjo/shop-api/internal/domain/product"
	"github.com/sgjo/shop-api/internal/domain/user"
)

// Fakes embed the service interface and override only what a test needs;
// calling anything else panics.

type fakeCatalog struct {
	Catalog
	products      []product.Product
	updatedPatch  product.Patch
	createdIDs    []int64
	createdRecord *product.Product
}

func (f *fakeCatalog) Products(context.Context, string) ([]product.Product, error) {
	return f.products, nil
}

func (f *fakeCatalog) Product(_ context.Context, id int64) (*product.Product, error) {
	for _, p := range f.products {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, product.ErrNotFound
}

func (f *fakeCatalog) CategoryProducts(_ context.Context, slug string) (*product.Category, []product.Product, error) {
	if slug != "kitchen" {
		return nil, nil, product.ErrCategoryNotFound
	}
	return &product.Category{ID: 1, Name: "Kitchen", Slug: slug}, f.products, nil
}

func (f *fakeCatalog) CreateProduct(_ context.Context, p *product.Product, ids []int64) error {
	if err := p.Validate(); err != nil {
		return err
	}
	p.ID = 42
	f.createdRecord = p
	f.createdIDs = ids
	return nil
}

func (f *fakeCatalog) UpdateProduct(_ context.Context, id int64, patch product.Patch) (*product.Product, error) {
	f.updatedPatch = patch
	return &product.Product{ID: id, Name: "Updated", Price: decimal.RequireFromString("9.99")}, nil
}

type fakeCarts struct {
	Carts
	cart    *cart.Cart
	added   []int
	addErr  error
	applied string
	discErr error
}

func (f *fakeCarts) Get(_ context.Context, cartID string) (*cart.Cart, error) {
	if cartID == "" {
		return nil, cart.ErrMissingCartID
	}
	return f.cart, nil
}

func (f *fakeCarts) Add(_ context.Context, cartID string, productID int64, qty int) error {
	if cartID == "" {
		return cart.ErrMissingCartID
	}
	if qty <= 0 {
		return cart.ErrInvalidQuantity
	}
	f.added = append(f.added, int(productID), qty)
	return f.addErr
}

func (f *fakeCarts) ApplyCoupon(_ context.Context, _ string, code string) (decimal.Decimal, error) {
	f.applied = code
	return decimal.RequireFromString("12.5"), f.discErr
}

type fakeOrders struct {
	Orders
	placeErr error
	filter   order.Filter
	status   order.Status
}

func (f *fakeOrders) PlaceOrder(_ context.Context, cartID string) (*order.Order, error) {
	if f.placeErr != nil {
		return nil, f.placeErr
	}
	return &order.Order{ID: 7, CartID: cartID, Total: decimal.RequireFromString("90"), Status: order.StatusPending}, nil
}

func (f *fakeOrders) List(_ context.Context, flt order.Filter) ([]order.Order, error) {
	f.filter = flt
	return []order.Order{{ID: 1, Total: decimal.NewFromInt(10), Status: order.StatusPaid}}, nil
}

func (f *fakeOrders) UpdateStatus(_ context.Context, _ int64, s order.Status) error {
	f.status = s
	if !s.Valid() {
		return order.ErrInvalidStatus
	}
	return nil
}

type fakeUsers struct {
	Users
	byToken   map[string]*user.User
	loginAddr string
	loginErr  error
}

func (f *fakeUsers) Authenticate(_ context.Context, token string) (*user.User, error) {
	switch token {
	case "deleted":
		return nil, user.ErrNotFound
	case "inactive":
		return nil, user.ErrInactive
	}
	u, found := f.byToken[token]
	if !found {
		return nil, user.ErrInvalidToken
	}
	return u, nil
}

func (f *fakeUsers) AuthorizeAdmin(u *user.User) error {
	if u == nil || !u.IsAdmin {
		return user.ErrForbidden
	}
	return nil
}

func (f *fakeUsers) Login(_ context.Context, addr, username, _ string) (*user.Session, error) {
	f.loginAddr = addr
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	u := &user.User{ID: 1, Username: username, IsAdmin: username == user.ReservedUsername, MustChangePassword: true}
	return &user.Session{Token: "signed", User: u, MustChangePassword: u.MustChangePassword}, nil
}

func (f *fakeUsers) SetActive(_ context.Context, id int64, active bool) error {
	if id == 1 && !active {
		return user.ErrReservedAdmin
	}
	return nil
}

type fakeMedia struct {
	Media
	uploaded string
	size     int
}

func (f *fakeMedia) Upload(_ context.Context, filename string, r io.Reader) (*media.Media, error) {
	var buf bytes.Buffer
	n, err := buf.ReadFrom(r)
	if err != nil {
		return nil, err
	}
	f.uploaded, f.size = filename, int(n)
	return &media.Media{ID: 3, Filename: filename, URL: "/uploads/x.png", Size: n}, nil
}

type fakeAdmin struct {
	Admin
	settings map[string]string
}

func (f *fakeAdmin) UpdateSettings(_ context.Context, values map[string]string) error {
	f.settings = values
	return nil
}

func (f *fakeAdmin) Dashboard(context.Context) (*admin.Dashboard, error) {
	return &admin.Dashboard{
		Today: admin.Stats{Orders: 2, Revenue: decimal.RequireFromString("30.5")},
		Week:  admin.Stats{Orders: 5, Revenue: decimal.NewFromInt(100)},
	}, nil
}

var (
	adminUser = &user.User{ID: 1, Username: "admin", IsAdmin: true, IsActive: true}
	plainUser = &user.User{ID: 2, Username: "alice", IsActive: true}
)

func newTestRouter(s Services) *gin.Engine {
	gin.SetMode(gin.TestMode)
	if s.Users == nil {
		s.Users = &fakeUsers{}
	}
	if fu, isFake := s.Users.(*fakeUsers); isFake && fu.byToken == nil {
		fu.byToken = map[string]*user.User{"admin-token": adminUser, "user-token": plainUser}
	}
	r := gin.New()
	if err := r.SetTrustedProxies(nil); err != nil {
		panic(err)
	}
	New(Config{}, s).Register(r)
	return r
}

func do(r http.Handler, method, target string, form url.Values, token string) *httptest.ResponseRecorder {
	var body *strings.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	} else {
		body = strings.NewReader("")
	}
	req := httptest.NewRequest(method, target, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{cart.ErrInvalidQuantity, http.StatusBadRequest},
		{errors.Wrap(coupon.ErrExpired, "evaluate"), http.StatusBadRequest},
		{&order.LineError{ProductID: 1, Err: order.ErrInsufficientStock}, http.StatusBadRequest},
		{product.ErrSlugTaken, http.StatusBadRequest},
		{user.ErrReservedAdmin, http.StatusBadRequest},
		{user.ErrPasswordTooLong, http.StatusBadRequest},
		{errors.Wrap(user.ErrTooShort, "sign up"), http.StatusBadRequest},
		{user.ErrInvalidCredentials, http.StatusUnauthorized},
		{errors.Wrap(user.ErrInvalidToken, "parse"), http.StatusUnauthorized},
		{user.ErrInactive, http.StatusForbidden},
		{user.ErrTooManyAttempts, http.StatusTooManyRequests},
		{order.ErrNotFound, http.StatusNotFound},
		{media.ErrFileTooLarge, http.StatusRequestEntityTooLarge},
		{badRequest("invalid %s", "id"), http.StatusBadRequest},
		{errors.New("connection reset"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.err))
		})
	}
}

func TestCartRoutes(t *testing.T) {
	carts := &fakeCarts{cart: &cart.Cart{
		ID:         "c1",
		Count:      3,
		Subtotal:   decimal.RequireFromString("30"),
		Discount:   decimal.RequireFromString("3"),
		Coupon:     "TEN",
		FinalTotal: decimal.RequireFromString("27"),
		Items: []cart.Item{
			{ProductID: 1, Qty: 3, Name: "Mug", Price: decimal.RequireFromString("10"), ImageURL: "/uploads/mug.png"},
		},
	}}
	r := newTestRouter(Services{Carts: carts})

	t.Run("get", func(t *testing.T) {
		w := do(r, http.MethodGet, "/cart?cart_id=c1", nil, "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{
			"cart_id":"c1","count":3,"total":30,"discount":3,"final_total":27,"coupon":"TEN",
			"items":[{"product_id":1,"qty":3,"name":"Mug","price":10,"image_url":"/uploads/mug.png","line_total":30}]
		}`, w.Body.String())
	})

	t.Run("get without cart id", func(t *testing.T) {
		w := do(r, http.MethodGet, "/cart", nil, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "cart_id required", decode(t, w)["message"])
	})

	t.Run("add defaults qty", func(t *testing.T) {
		w := do(r, http.MethodPost, "/cart/items?cart_id=c1&product_id=5", nil, "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"ok":true}`, w.Body.String())
		assert.Equal(t, []int{5, 1}, carts.added)
	})

	t.Run("add rejects bad qty", func(t *testing.T) {
		w := do(r, http.MethodPost, "/cart/items?cart_id=c1&product_id=5&qty=0", nil, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		w = do(r, http.MethodPost, "/cart/items?cart_id=c1&product_id=5&qty=x", nil, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("apply coupon", func(t *testing.T) {
		w := do(r, http.MethodPost, "/cart/apply-coupon", url.Values{"cart_id": {"c1"}, "code": {"TEN"}}, "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"ok":true,"discount":12.5}`, w.Body.String())
		assert.Equal(t, "TEN", carts.applied)
	})

	t.Run("apply coupon rejected", func(t *testing.T) {
		carts.discErr = coupon.ErrBelowMinimum
		defer func() { carts.discErr = nil }()
		w := do(r, http.MethodPost, "/cart/apply-coupon", url.Values{"cart_id": {"c1"}, "code": {"BIG"}}, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, float64(400), decode(t, w)["code"])
	})
}

func TestPlaceOrder(t *testing.T) {
	tests := []struct {
		name     string
		target   string
		placeErr error
		wantCode int
		wantBody string
	}{
		{name: "success", target: "/orders?cart_id=c1", wantCode: http.StatusOK, wantBody: `{"ok":true,"order_id":7,"total":90}`},
		{name: "missing cart", target: "/orders", wantCode: http.StatusBadRequest},
		{
			name:     "insufficient stock",
			target:   "/orders?cart_id=c1",
			placeErr: &order.LineError{ProductID: 1, Requested: 3, Available: 1, Err: order.ErrInsufficientStock},
			wantCode: http.StatusBadRequest,
		},
		{name: "empty cart", target: "/orders?cart_id=c1", placeErr: order.ErrEmptyCart, wantCode: http.StatusBadRequest},
		{
			name:     "internal error hidden",
			target:   "/orders?cart_id=c1",
			placeErr: errors.New("serialization failure on products"),
			wantCode: http.StatusInternalServerError,
			wantBody: `{"code":500,"message":"internal server error"}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRouter(Services{Orders: &fakeOrders{placeErr: tt.placeErr}})
			w := do(r, http.MethodPost, tt.target, nil, "")
			assert.Equal(t, tt.wantCode, w.Code)
			if tt.wantBody != "" {
				assert.JSONEq(t, tt.wantBody, w.Body.String())
			}
		})
	}
}

func TestLoginClientAddress(t *testing.T) {
	tests := []struct {
		name    string
		trusted []string
		remote  string
		headers map[string]string
		want    string
	}{
		{
			name:    "forwarded header ignored without trusted proxies",
			remote:  "192.0.2.10:5555",
			headers: map[string]string{"X-Forwarded-For": "6.6.6.6"},
			want:    "192.0.2.10",
		},
		{
			name:    "real ip header ignored without trusted proxies",
			remote:  "192.0.2.10:5555",
			headers: map[string]string{"X-Real-IP": "7.7.7.7"},
			want:    "192.0.2.10",
		},
		{
			name:    "untrusted peer cannot forward",
			trusted: []string{"10.0.0.0/8"},
			remote:  "192.0.2.10:5555",
			headers: map[string]string{"X-Forwarded-For": "6.6.6.6"},
			want:    "192.0.2.10",
		},
		{
			name:    "trusted proxy forwards client",
			trusted: []string{"10.0.0.0/8"},
			remote:  "10.1.2.3:443",
			headers: map[string]string{"X-Forwarded-For": "198.51.100.7, 10.1.2.3"},
			want:    "198.51.100.7",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := &fakeUsers{}
			r := newTestRouter(Services{Users: users})
			require.NoError(t, r.SetTrustedProxies(tt.trusted))

			req := httptest.NewRequest(http.MethodPost, "/auth/login",
				strings.NewReader(url.Values{"username": {"bob"}, "password": {"pw"}}.Encode()))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			require.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.want, users.loginAddr)
		})
	}
}

func TestAuthRoutes(t *testing.T) {
	users := &fakeUsers{}
	r := newTestRouter(Services{Users: users, Admin: &fakeAdmin{}})

	t.Run("login", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/auth/login",
			strings.NewReader(url.Values{"username": {" admin "}, "password": {"pw"}}.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.RemoteAddr = "192.0.2.10:5555"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		body := decode(t, w)
		assert.Equal(t, "signed", body["access_token"])
		assert.Equal(t, true, body["must_change_password"])
		assert.Equal(t, true, body["is_admin"])
		assert.Equal(t, "192.0.2.10", users.loginAddr)
	})

	t.Run("login locked out", func(t *testing.T) {
		users.loginErr = user.ErrTooManyAttempts
		defer func() { users.loginErr = nil }()
		w := do(r, http.MethodPost, "/auth/login", url.Values{"username": {"bob"}, "password": {"x"}}, "")
		assert.Equal(t, http.StatusTooManyRequests, w.Code)
	})

	t.Run("me", func(t *testing.T) {
		w := do(r, http.MethodGet, "/auth/me", nil, "user-token")
		require.Equal(t, http.StatusOK, w.Code)
		body := decode(t, w)
		assert.Equal(t, "alice", body["username"])
		assert.Equal(t, false, body["is_admin"])
	})

	tests := []struct {
		name     string
		header   string
		wantCode int
	}{
		{name: "missing", header: "", wantCode: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic abc", wantCode: http.StatusUnauthorized},
		{name: "invalid token", header: "Bearer nope", wantCode: http.StatusUnauthorized},
		{name: "deleted user", header: "Bearer deleted", wantCode: http.StatusUnauthorized},
		{name: "inactive user", header: "Bearer inactive", wantCode: http.StatusForbidden},
		{name: "not admin", header: "Bearer user-token", wantCode: http.StatusForbidden},
		{name: "admin", header: "Bearer admin-token", wantCode: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run("dashboard "+tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin/dashboard", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.wantCode, w.Code, w.Body.String())
		})
	}
}

func TestAdminDashboard(t *testing.T) {
	r := newTestRouter(Services{Admin: &fakeAdmin{}})
	w := do(r, http.MethodGet, "/admin/dashboard", nil, "admin-token")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{
		"day":{"orders":2,"revenue":30.5},
		"week":{"orders":5,"revenue":100},
		"recent_orders":[],
		"recent_users":[]
	}`, w.Body.String())
}

func TestAdminUsers(t *testing.T) {
	r := newTestRouter(Services{})

	w := do(r, http.MethodPatch, "/admin/users/1", url.Values{"active": {"false"}}, "admin-token")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodPatch, "/admin/users/2", url.Values{"active": {"false"}}, "admin-token")
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(r, http.MethodPatch, "/admin/users/2", url.Values{}, "admin-token")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdminOrders(t *testing.T) {
	orders := &fakeOrders{}
	r := newTestRouter(Services{Orders: orders})

	w := do(r, http.MethodGet, "/admin/orders?status=paid&min_total=10.5", nil, "admin-token")
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, orders.filter.Status)
	assert.Equal(t, order.StatusPaid, *orders.filter.Status)
	require.NotNil(t, orders.filter.MinTotal)
	assert.True(t, orders.filter.MinTotal.Equal(decimal.RequireFromString("10.5")))
	assert.Nil(t, orders.filter.MaxTotal)

	w = do(r, http.MethodGet, "/admin/orders?max_total=lots", nil, "admin-token")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodPatch, "/admin/orders/1", url.Values{"status": {"shipped"}}, "admin-token")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, order.StatusShipped, orders.status)

	w = do(r, http.MethodPatch, "/admin/orders/1", url.Values{"status": {"lost"}}, "admin-token")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	for _, target := range []string{"/admin/orders/1", "/admin/orders/1/status"} {
		t.Run("PUT "+target, func(t *testing.T) {
			orders.status = ""
			w := do(r, http.MethodPut, target, url.Values{"status": {"paid"}}, "admin-token")
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())
			assert.JSONEq(t, `{"ok":true}`, w.Body.String())
			assert.Equal(t, order.StatusPaid, orders.status)
		})
	}
}

func TestAdminProducts(t *testing.T) {
	catalog := &fakeCatalog{}
	r := newTestRouter(Services{Catalog: catalog})

	t.Run("create", func(t *testing.T) {
		w := do(r, http.MethodPost, "/admin/products", url.Values{
			"name":         {" Mug "},
			"price":        {"12.50"},
			"stock":        {"4"},
			"category_ids": {"1,2", "3"},
		}, "admin-token")
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.JSONEq(t, `{"ok":true,"id":42}`, w.Body.String())
		assert.Equal(t, "Mug", catalog.createdRecord.Name)
		assert.Equal(t, 4, catalog.createdRecord.Stock)
		assert.Equal(t, []int64{1, 2, 3}, catalog.createdIDs)
	})

	t.Run("create invalid", func(t *testing.T) {
		w := do(r, http.MethodPost, "/admin/products", url.Values{"name": {"Mug"}, "stock": {"-1"}}, "admin-token")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("patch only sends given fields", func(t *testing.T) {
		w := do(r, http.MethodPatch, "/admin/products/9", url.Values{"price": {"9.99"}}, "admin-token")
		require.Equal(t, http.StatusOK, w.Code)
		p := catalog.updatedPatch
		require.NotNil(t, p.Price)
		assert.Equal(t, "9.99", p.Price.String())
		assert.Nil(t, p.Name)
		assert.Nil(t, p.Stock)
		assert.Nil(t, p.CategoryIDs)
	})

	t.Run("bad id", func(t *testing.T) {
		w := do(r, http.MethodPatch, "/admin/products/abc", url.Values{}, "admin-token")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestAdminProducts_StorefrontForm(t *testing.T) {
	fields := map[string]string{
		"sku":         "MUG-1",
		"name":        "Mug",
		"description": "",
		"price":       "12.50",
		"stock":       "4",
		"categories":  "1, 2",
	}

	t.Run("create with image", func(t *testing.T) {
		catalog, m := &fakeCatalog{}, &fakeMedia{}
		r := newTestRouter(Services{Catalog: catalog, Media: m})

		w := httptest.NewRecorder()
		r.ServeHTTP(w, multipartForm(t, http.MethodPost, "/admin/products", fields, "image", "mug.png", 2048))
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, "mug.png", m.uploaded)
		assert.Equal(t, 2048, m.size)
		assert.Equal(t, "/uploads/x.png", catalog.createdRecord.ImageURL)
		assert.Equal(t, "MUG-1", catalog.createdRecord.SKU)
		assert.Equal(t, []int64{1, 2}, catalog.createdIDs)
	})

	t.Run("update without image keeps image and links", func(t *testing.T) {
		catalog, m := &fakeCatalog{}, &fakeMedia{}
		r := newTestRouter(Services{Catalog: catalog, Media: m})

		update := map[string]string{"name": "Big Mug", "categories": ""}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, multipartForm(t, http.MethodPut, "/admin/products/9", update, "", "", 0))
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Empty(t, m.uploaded)
		p := catalog.updatedPatch
		require.NotNil(t, p.Name)
		assert.Equal(t, "Big Mug", *p.Name)
		assert.Nil(t, p.ImageURL)
		assert.Nil(t, p.CategoryIDs)
	})

	t.Run("update with image", func(t *testing.T) {
		catalog, m := &fakeCatalog{}, &fakeMedia{}
		r := newTestRouter(Services{Catalog: catalog, Media: m})

		w := httptest.NewRecorder()
		r.ServeHTTP(w, multipartForm(t, http.MethodPut, "/admin/products/9", map[string]string{"categories": "3"}, "image", "new.webp", 10))
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		p := catalog.updatedPatch
		require.NotNil(t, p.ImageURL)
		assert.Equal(t, "/uploads/x.png", *p.ImageURL)
		assert.Equal(t, []int64{3}, p.CategoryIDs)
	})

	t.Run("image too large", func(t *testing.T) {
		catalog, m := &fakeCatalog{}, &fakeMedia{}
		r := newTestRouter(Services{Catalog: catalog, Media: m})

		w := httptest.NewRecorder()
		r.ServeHTTP(w, multipartForm(t, http.MethodPost, "/admin/products", fields, "image", "huge.png", media.MaxSize+1))
		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
		assert.Empty(t, m.uploaded)
		assert.Nil(t, catalog.createdRecord)
	})

	t.Run("invalid categories", func(t *testing.T) {
		catalog, m := &fakeCatalog{}, &fakeMedia{}
		r := newTestRouter(Services{Catalog: catalog, Media: m})

		bad := map[string]string{"name": "Mug", "price": "1", "categories": "1,x"}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, multipartForm(t, http.MethodPost, "/admin/products", bad, "image", "mug.png", 10))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Empty(t, m.uploaded)
	})
}

func TestPublicProducts(t *testing.T) {
	catalog := &fakeCatalog{products: []product.Product{
		{ID: 1, Name: "Mug", Price: decimal.RequireFromString("10.00"), Stock: 2,
			Categories: []product.Category{{ID: 1, Name: "Kitchen", Slug: "kitchen"}}},
	}}
	r := newTestRouter(Services{Catalog: catalog})

	w := do(r, http.MethodGet, "/products/1", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "Mug", body["name"])
	assert.Len(t, body["categories"], 1)

	w = do(r, http.MethodGet, "/products/2", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(r, http.MethodGet, "/categories/kitchen/products", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var list []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list), w.Body.String())
	require.Len(t, list, 1)
	assert.Equal(t, "Mug", list[0]["name"])

	w = do(r, http.MethodGet, "/categories/garden/products", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(r, http.MethodGet, "/health", nil, "")
	assert.JSONEq(t, `{"ok":true}`, w.Body.String())
}

func TestExportProducts(t *testing.T) {
	catalog := &fakeCatalog{products: []product.Product{
		{ID: 1, SKU: "MUG-1", Name: "Mug", Description: "Stoneware", ImageURL: "/uploads/mug.png", Price: decimal.RequireFromString("10.5"), Stock: 2, CreatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)},
		{ID: 2, SKU: "CUP-1", Name: "Cup", Description: "Glass", ImageURL: "/uploads/cup.png", Price: decimal.RequireFromString("4"), Stock: 1},
	}}
	r := newTestRouter(Services{Catalog: catalog})

	w := do(r, http.MethodGet, "/admin/products/export", nil, "admin-token")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, xlsxContentType, w.Header().Get("Content-Type"))

	book, err := xlsx.OpenBinary(w.Body.Bytes())
	require.NoError(t, err)
	require.Len(t, book.Sheets, 1)
	rows := book.Sheets[0].Rows
	require.Len(t, rows, 3)
	assert.Equal(t, "Name", rows[0].Cells[2].Value)
	assert.Equal(t, "Mug", rows[1].Cells[2].Value)
	assert.Equal(t, "2026-01-02 03:04:05", rows[1].Cells[7].Value)
	assert.Equal(t, "CUP-1", rows[2].Cells[1].Value)
}

func multipartUpload(t *testing.T, filename string, size int) *http.Request {
	t.Helper()
	return multipartForm(t, http.MethodPost, "/admin/media", nil, "file", filename, size)
}

// multipartForm builds an admin request with fields and, when fileField is
// set, a file of size bytes.
func multipartForm(t *testing.T, method, target string, fields map[string]string, fileField, filename string, size int) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if fileField != "" {
		part, err := mw.CreateFormFile(fileField, filename)
		require.NoError(t, err)
		_, err = part.Write(bytes.Repeat([]byte{'x'}, size))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer admin-token")
	return req
}

func TestUploadMedia(t *testing.T) {
	m := &fakeMedia{}
	r := newTestRouter(Services{Media: m})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, multipartUpload(t, "photo.png", 1024))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "photo.png", m.uploaded)
	assert.Equal(t, 1024, m.size)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, multipartUpload(t, "huge.png", media.MaxSize+1))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)

	w = do(r, http.MethodPost, "/admin/media", url.Values{}, "admin-token")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateSettings(t *testing.T) {
	a := &fakeAdmin{}
	r := newTestRouter(Services{Admin: a})

	req := httptest.NewRequest(http.MethodPut, "/admin/settings", strings.NewReader(`{"store_name":"Shop","currency":"EUR"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer admin-token")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, map[string]string{"store_name": "Shop", "currency": "EUR"}, a.settings)

	req = httptest.NewRequest(http.MethodPut, "/admin/settings", strings.NewReader(`{"n":1}`))
	req.Header.Set("Authorization", "Bearer admin-token")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
