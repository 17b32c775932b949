// Package handler exposes the storefront over HTTP using gin.
package handler

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/sgjo/shop-api/internal/domain/admin"
	"github.com/sgjo/shop-api/internal/domain/cart"
	"github.com/sgjo/shop-api/internal/domain/coupon"
	"github.com/sgjo/shop-api/internal/domain/media"
	"github.com/sgjo/shop-api/internal/domain/order"
	"github.com/sgjo/shop-api/internal/domain/product"
	"github.com/sgjo/shop-api/internal/domain/user"
)

// Catalog is the product and category service.
type Catalog interface {
	Products(ctx context.Context, query string) ([]product.Product, error)
	Product(ctx context.Context, id int64) (*product.Product, error)
	CreateProduct(ctx context.Context, p *product.Product, categoryIDs []int64) error
	UpdateProduct(ctx context.Context, id int64, patch product.Patch) (*product.Product, error)
	DeleteProduct(ctx context.Context, id int64) error
	Categories(ctx context.Context) ([]product.Category, error)
	CategoryProducts(ctx context.Context, slug string) (*product.Category, []product.Product, error)
	CreateCategory(ctx context.Context, name string, sort int) (*product.Category, error)
	UpdateCategory(ctx context.Context, id int64, patch product.CategoryPatch) (*product.Category, error)
	DeleteCategory(ctx context.Context, id int64) error
}

// Carts is the cart service.
type Carts interface {
	Add(ctx context.Context, cartID string, productID int64, qty int) error
	Remove(ctx context.Context, cartID string, productID int64) error
	Get(ctx context.Context, cartID string) (*cart.Cart, error)
	ApplyCoupon(ctx context.Context, cartID, code string) (decimal.Decimal, error)
}

// Orders is the checkout and order management service.
type Orders interface {
	PlaceOrder(ctx context.Context, cartID string) (*order.Order, error)
	UpdateStatus(ctx context.Context, id int64, status order.Status) error
	List(ctx context.Context, f order.Filter) ([]order.Order, error)
	Get(ctx context.Context, id int64) (*order.Order, error)
}

// Users is the account and session service.
type Users interface {
	SignUp(ctx context.Context, username, password string) (*user.User, error)
	Login(ctx context.Context, addr, username, password string) (*user.Session, error)
	Authenticate(ctx context.Context, token string) (*user.User, error)
	AuthorizeAdmin(u *user.User) error
	ChangePassword(ctx context.Context, u *user.User, newPassword string) error
	List(ctx context.Context, query string) ([]user.User, error)
	SetActive(ctx context.Context, id int64, active bool) error
	Delete(ctx context.Context, id int64) error
}

// Coupons is the coupon management service.
type Coupons interface {
	List(ctx context.Context) ([]coupon.Coupon, error)
	Create(ctx context.Context, c *coupon.Coupon) error
	Update(ctx context.Context, c *coupon.Coupon) error
	Delete(ctx context.Context, id int64) error
}

// Media is the upload service.
type Media interface {
	Upload(ctx context.Context, filename string, r io.Reader) (*media.Media, error)
	List(ctx context.Context) ([]media.Media, error)
	Delete(ctx context.Context, id int64) error
}

// Admin is the dashboard, settings and log service.
type Admin interface {
	Dashboard(ctx context.Context) (*admin.Dashboard, error)
	Settings(ctx context.Context) (map[string]string, error)
	UpdateSettings(ctx context.Context, values map[string]string) error
	Logs(lines int, level string) ([]string, error)
}

// Config holds non-dependency configuration for the Handler.
type Config struct {
	// ImageBaseURL is prepended to relative image paths in product responses.
	// When empty, image paths are returned as stored.
	ImageBaseURL string
	// UploadDir is served under UploadPath when set.
	UploadDir  string
	UploadPath string
	// Status, Live and Ready are mounted at /health, /livez and /readyz when set.
	Status http.Handler
	Live   http.Handler
	Ready  http.Handler
}

// Handler serves the storefront and admin routes.
type Handler struct {
	catalog Catalog
	carts   Carts
	orders  Orders
	users   Users
	coupons Coupons
	media   Media
	admin   Admin

	cfg Config
}

// Services groups the domain services the Handler delegates to.
type Services struct {
	Catalog Catalog
	Carts   Carts
	Orders  Orders
	Users   Users
	Coupons Coupons
	Media   Media
	Admin   Admin
}

// New constructs a Handler.
func New(cfg Config, s Services) *Handler {
	return &Handler{
		catalog: s.Catalog,
		carts:   s.Carts,
		orders:  s.Orders,
		users:   s.Users,
		coupons: s.Coupons,
		media:   s.Media,
		admin:   s.Admin,
		cfg:     cfg,
	}
}

// Register mounts every route on r.
func (h *Handler) Register(r gin.IRouter) {
	if h.cfg.Status != nil {
		r.GET("/health", gin.WrapH(h.cfg.Status))
	} else {
		r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, ok{OK: true}) })
	}
	if h.cfg.Live != nil {
		r.GET("/livez", gin.WrapH(h.cfg.Live))
	}
	if h.cfg.Ready != nil {
		r.GET("/readyz", gin.WrapH(h.cfg.Ready))
	}
	if h.cfg.UploadDir != "" && h.cfg.UploadPath != "" {
		r.Static(h.cfg.UploadPath, h.cfg.UploadDir)
	}

	r.GET("/products", h.listProducts)
	r.GET("/products/:id", h.getProduct)
	r.GET("/categories", h.listCategories)
	r.GET("/categories/:slug/products", h.categoryProducts)

	r.GET("/cart", h.getCart)
	r.POST("/cart/items", h.addCartItem)
	r.DELETE("/cart/items/:product_id", h.removeCartItem)
	r.POST("/cart/apply-coupon", h.applyCoupon)

	r.POST("/orders", h.placeOrder)

	auth := r.Group("/auth")
	auth.POST("/signup", h.signUp)
	auth.POST("/login", h.login)
	auth.POST("/change-password", h.requireUser, h.changePassword)
	auth.GET("/me", h.requireUser, h.me)

	adm := r.Group("/admin", h.requireUser, h.requireAdmin)
	adm.GET("/dashboard", h.dashboard)
	adm.GET("/logs", h.logs)
	adm.GET("/settings", h.settings)
	adm.PUT("/settings", h.updateSettings)

	adm.GET("/users", h.listUsers)
	adm.PATCH("/users/:id", h.setUserActive)
	adm.DELETE("/users/:id", h.deleteUser)

	adm.GET("/products", h.listProducts)
	adm.GET("/products/export", h.exportProducts)
	adm.POST("/products", h.createProduct)
	adm.PUT("/products/:id", h.updateProduct)
	adm.PATCH("/products/:id", h.updateProduct)
	adm.DELETE("/products/:id", h.deleteProduct)

	adm.GET("/categories", h.listCategories)
	adm.POST("/categories", h.createCategory)
	adm.PUT("/categories/:id", h.updateCategory)
	adm.DELETE("/categories/:id", h.deleteCategory)

	adm.GET("/coupons", h.listCoupons)
	adm.POST("/coupons", h.createCoupon)
	adm.PUT("/coupons/:id", h.updateCoupon)
	adm.DELETE("/coupons/:id", h.deleteCoupon)

	adm.GET("/media", h.listMedia)
	adm.POST("/media", h.uploadMedia)
	adm.DELETE("/media/:id", h.deleteMedia)

	adm.GET("/orders", h.listOrders)
	adm.GET("/orders/:id", h.getOrder)
	adm.PUT("/orders/:id", h.updateOrderStatus)
	adm.PATCH("/orders/:id", h.updateOrderStatus)
	adm.PUT("/orders/:id/status", h.updateOrderStatus)
}
