// Command seed-db loads sample catalog data, coupons and the reserved admin
// account into the storefront database.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/sgjo/shop-api/internal/domain/coupon"
	"github.com/sgjo/shop-api/internal/domain/product"
	"github.com/sgjo/shop-api/internal/domain/user"
	"github.com/sgjo/shop-api/internal/storage/postgres"
)

type productJSON struct {
	SKU         string          `json:"sku"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	ImageURL    string          `json:"image_url"`
	Categories  []string        `json:"categories"`
}

// defaultCoupons are upserted on every run.
var defaultCoupons = []coupon.Coupon{
	{Code: "WELCOME10", Type: coupon.TypePercent, Value: decimal.NewFromInt(10), Active: true, MinAmount: decimal.Zero},
	{Code: "FIVEOFF", Type: coupon.TypeFixed, Value: decimal.NewFromInt(5), Active: true, MinAmount: decimal.NewFromInt(20)},
}

func main() {
	var (
		databaseURL   string
		productsFile  string
		adminPassword string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&productsFile, "products-file", "db/seed/products.json", "path to products JSON file")
	flag.StringVar(&adminPassword, "admin-password", "", "initial admin password (or SHOP_AUTH_ADMIN_PASSWORD env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if adminPassword == "" {
		adminPassword = os.Getenv("SHOP_AUTH_ADMIN_PASSWORD")
	}
	if adminPassword == "" {
		adminPassword = "admin1234"
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, productsFile, adminPassword); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, productsFile, adminPassword string) error {
	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	products := postgres.NewProductRepository(pool)
	catalog := product.NewCatalog(products, postgres.NewCategoryRepository(pool))

	f, err := os.Open(productsFile)
	if err != nil {
		return errors.Wrap(err, "open products file")
	}
	defer func() { _ = f.Close() }()

	seed, err := readProducts(f)
	if err != nil {
		return errors.Wrap(err, "parse products file")
	}
	if err := seedProducts(ctx, catalog, seed); err != nil {
		return errors.Wrap(err, "seed products")
	}

	if err := postgres.NewCouponRepository(pool).UpsertBatch(ctx, defaultCoupons); err != nil {
		return errors.Wrap(err, "seed coupons")
	}
	slog.Info("upserted coupons", slog.Int("count", len(defaultCoupons)))

	users := user.NewService(postgres.NewUserRepository(pool), user.BcryptHasher{}, nil, nil)
	created, err := users.EnsureAdmin(ctx, adminPassword)
	if err != nil {
		return errors.Wrap(err, "seed admin")
	}
	slog.Info("admin account", slog.String("username", user.ReservedUsername), slog.Bool("created", created))

	return nil
}

func readProducts(r io.Reader) ([]productJSON, error) {
	var products []productJSON
	if err := json.NewDecoder(r).Decode(&products); err != nil {
		return nil, err
	}
	for i, p := range products {
		if strings.TrimSpace(p.Name) == "" {
			return nil, errors.Errorf("product %d: name required", i)
		}
	}
	return products, nil
}

// categoryNames returns the distinct category names in first-seen order.
func categoryNames(products []productJSON) []string {
	seen := make(map[string]bool)
	var names []string
	for _, p := range products {
		for _, name := range p.Categories {
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	return names
}

// seedProducts creates missing categories, then inserts products whose SKU
// is not in the catalog yet.
func seedProducts(ctx context.Context, catalog *product.Catalog, seed []productJSON) error {
	existing, err := catalog.Categories(ctx)
	if err != nil {
		return errors.Wrap(err, "list categories")
	}
	idBySlug := make(map[string]int64, len(existing))
	for _, c := range existing {
		idBySlug[c.Slug] = c.ID
	}
	for i, name := range categoryNames(seed) {
		slug := product.Slugify(name)
		if _, ok := idBySlug[slug]; ok {
			continue
		}
		c, err := catalog.CreateCategory(ctx, name, i)
		if err != nil {
			return errors.Wrapf(err, "create category %q", name)
		}
		idBySlug[c.Slug] = c.ID
		slog.Info("created category", slog.String("name", c.Name), slog.String("slug", c.Slug))
	}

	current, err := catalog.Products(ctx, "")
	if err != nil {
		return errors.Wrap(err, "list products")
	}
	skus := make(map[string]bool, len(current))
	for _, p := range current {
		skus[p.SKU] = true
	}

	for _, p := range seed {
		if p.SKU != "" && skus[p.SKU] {
			continue
		}
		var categoryIDs []int64
		for _, name := range p.Categories {
			categoryIDs = append(categoryIDs, idBySlug[product.Slugify(name)])
		}
		rec := &product.Product{
			SKU:         p.SKU,
			Name:        p.Name,
			Description: p.Description,
			Price:       p.Price,
			ImageURL:    p.ImageURL,
			Stock:       p.Stock,
		}
		if err := catalog.CreateProduct(ctx, rec, categoryIDs); err != nil {
			return errors.Wrapf(err, "create product %q", p.Name)
		}
		slog.Info("created product", slog.Int64("id", rec.ID), slog.String("sku", rec.SKU))
	}
	return nil
}
