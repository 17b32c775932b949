package handler

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sgjo/shop-api/internal/domain/admin"
	"github.com/sgjo/shop-api/internal/domain/cart"
	"github.com/sgjo/shop-api/internal/domain/coupon"
	"github.com/sgjo/shop-api/internal/domain/media"
	"github.com/sgjo/shop-api/internal/domain/order"
	"github.com/sgjo/shop-api/internal/domain/product"
	"github.com/sgjo/shop-api/internal/domain/user"
)

type ok struct {
	OK bool `json:"ok"`
}

type categoryJSON struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
	Sort int    `json:"sort"`
}

type productJSON struct {
	ID          int64          `json:"id"`
	SKU         string         `json:"sku"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Price       float64        `json:"price"`
	ImageURL    string         `json:"image_url"`
	Stock       int            `json:"stock"`
	CreatedAt   time.Time      `json:"created_at"`
	Categories  []categoryJSON `json:"categories,omitempty"`
}

type cartItemJSON struct {
	ProductID int64   `json:"product_id"`
	Qty       int     `json:"qty"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	ImageURL  string  `json:"image_url"`
	LineTotal float64 `json:"line_total"`
}

type cartJSON struct {
	CartID     string         `json:"cart_id"`
	Count      int            `json:"count"`
	Total      float64        `json:"total"`
	Discount   float64        `json:"discount"`
	FinalTotal float64        `json:"final_total"`
	Coupon     *string        `json:"coupon"`
	Items      []cartItemJSON `json:"items"`
}

type orderItemJSON struct {
	ProductID int64   `json:"product_id"`
	Name      string  `json:"name"`
	Qty       int     `json:"qty"`
	Price     float64 `json:"price"`
}

type orderJSON struct {
	ID        int64           `json:"id"`
	CartID    string          `json:"cart_id"`
	Total     float64         `json:"total"`
	Status    string          `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
	Items     []orderItemJSON `json:"items,omitempty"`
}

type userJSON struct {
	ID                 int64      `json:"id"`
	Username           string     `json:"username"`
	IsAdmin            bool       `json:"is_admin"`
	IsActive           bool       `json:"is_active"`
	MustChangePassword bool       `json:"must_change_password"`
	LastLogin          *time.Time `json:"last_login"`
	CreatedAt          time.Time  `json:"created_at"`
}

type couponJSON struct {
	ID        int64      `json:"id"`
	Code      string     `json:"code"`
	Type      string     `json:"type"`
	Value     float64    `json:"value"`
	Active    bool       `json:"active"`
	ValidFrom *time.Time `json:"valid_from"`
	ValidTo   *time.Time `json:"valid_to"`
	MinAmount float64    `json:"min_amount"`
}

type mediaJSON struct {
	ID        int64     `json:"id"`
	Filename  string    `json:"filename"`
	URL       string    `json:"url"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"created_at"`
}

type statsJSON struct {
	Orders  int64   `json:"orders"`
	Revenue float64 `json:"revenue"`
}

type dashboardJSON struct {
	Day          statsJSON   `json:"day"`
	Week         statsJSON   `json:"week"`
	RecentOrders []orderJSON `json:"recent_orders"`
	RecentUsers  []userJSON  `json:"recent_users"`
}

func money(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

func (h *Handler) imageURL(path string) string {
	if h.cfg.ImageBaseURL == "" || path == "" || strings.Contains(path, "://") {
		return path
	}
	return strings.TrimRight(h.cfg.ImageBaseURL, "/") + "/" + strings.TrimLeft(path, "/")
}

func (h *Handler) toProduct(p product.Product) productJSON {
	out := productJSON{
		ID:          p.ID,
		SKU:         p.SKU,
		Name:        p.Name,
		Description: p.Description,
		Price:       money(p.Price),
		ImageURL:    h.imageURL(p.ImageURL),
		Stock:       p.Stock,
		CreatedAt:   p.CreatedAt,
	}
	for _, c := range p.Categories {
		out.Categories = append(out.Categories, toCategory(c))
	}
	return out
}

func (h *Handler) toProducts(ps []product.Product) []productJSON {
	out := make([]productJSON, len(ps))
	for i, p := range ps {
		out[i] = h.toProduct(p)
	}
	return out
}

func toCategory(c product.Category) categoryJSON {
	return categoryJSON{ID: c.ID, Name: c.Name, Slug: c.Slug, Sort: c.Sort}
}

func (h *Handler) toCart(c *cart.Cart) cartJSON {
	out := cartJSON{
		CartID:     c.ID,
		Count:      c.Count,
		Total:      money(c.Subtotal),
		Discount:   money(c.Discount),
		FinalTotal: money(c.FinalTotal),
		Items:      make([]cartItemJSON, len(c.Items)),
	}
	if c.Coupon != "" {
		out.Coupon = &c.Coupon
	}
	for i, it := range c.Items {
		out.Items[i] = cartItemJSON{
			ProductID: it.ProductID,
			Qty:       it.Qty,
			Name:      it.Name,
			Price:     money(it.Price),
			ImageURL:  h.imageURL(it.ImageURL),
			LineTotal: money(it.LineTotal()),
		}
	}
	return out
}

func toOrder(o order.Order) orderJSON {
	out := orderJSON{
		ID:        o.ID,
		CartID:    o.CartID,
		Total:     money(o.Total),
		Status:    string(o.Status),
		CreatedAt: o.CreatedAt,
	}
	for _, it := range o.Items {
		out.Items = append(out.Items, orderItemJSON{
			ProductID: it.ProductID,
			Name:      it.Name,
			Qty:       it.Qty,
			Price:     money(it.Price),
		})
	}
	return out
}

func toOrders(os []order.Order) []orderJSON {
	out := make([]orderJSON, len(os))
	for i, o := range os {
		out[i] = toOrder(o)
	}
	return out
}

func toUser(u user.User) userJSON {
	return userJSON{
		ID:                 u.ID,
		Username:           u.Username,
		IsAdmin:            u.IsAdmin,
		IsActive:           u.IsActive,
		MustChangePassword: u.MustChangePassword,
		LastLogin:          u.LastLogin,
		CreatedAt:          u.CreatedAt,
	}
}

func toUsers(us []user.User) []userJSON {
	out := make([]userJSON, len(us))
	for i, u := range us {
		out[i] = toUser(u)
	}
	return out
}

func toCoupon(c coupon.Coupon) couponJSON {
	return couponJSON{
		ID:        c.ID,
		Code:      c.Code,
		Type:      string(c.Type),
		Value:     money(c.Value),
		Active:    c.Active,
		ValidFrom: c.ValidFrom,
		ValidTo:   c.ValidTo,
		MinAmount: money(c.MinAmount),
	}
}

func toMedia(m media.Media) mediaJSON {
	return mediaJSON{ID: m.ID, Filename: m.Filename, URL: m.URL, Size: m.Size, CreatedAt: m.CreatedAt}
}

func toStats(s admin.Stats) statsJSON {
	return statsJSON{Orders: s.Orders, Revenue: money(s.Revenue)}
}
