// Command coupon-import bulk loads coupon definitions from gzip-compressed
// CSV files. Files are decoded concurrently; when a code appears more than
// once, the row from the later file (or later line) wins.
//
// CSV columns: code,type,value[,min_amount[,valid_from[,valid_to[,active]]]]
// A first row starting with "code" is treated as a header.
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-faster/errors"
	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/sgjo/shop-api/internal/domain/coupon"
	"github.com/sgjo/shop-api/internal/storage/postgres"
)

const batchSize = 1000

func main() {
	var (
		dataDir     string
		databaseURL string
		dryRun      bool
	)

	flag.StringVar(&dataDir, "data-dir", "data", "directory containing *.csv.gz coupon files")
	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.BoolVar(&dryRun, "dry-run", false, "parse and validate only")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" && !dryRun {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, dataDir, databaseURL, dryRun); err != nil {
		slog.Error("coupon import failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("coupon import completed successfully")
}

func run(ctx context.Context, dataDir, databaseURL string, dryRun bool) error {
	files, err := filepath.Glob(filepath.Join(dataDir, "*.csv.gz"))
	if err != nil {
		return errors.Wrap(err, "list files")
	}
	if len(files) == 0 {
		return errors.Errorf("no *.csv.gz files in %s", dataDir)
	}

	slog.Info("decoding coupon files", slog.Int("files", len(files)))

	coupons, err := loadFiles(ctx, files)
	if err != nil {
		return err
	}

	slog.Info("coupons decoded", slog.Int("count", len(coupons)))

	if dryRun || len(coupons) == 0 {
		return nil
	}

	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	repo := postgres.NewCouponRepository(pool)
	for start := 0; start < len(coupons); start += batchSize {
		end := min(start+batchSize, len(coupons))
		if err := repo.UpsertBatch(ctx, coupons[start:end]); err != nil {
			return errors.Wrapf(err, "upsert coupons %d-%d", start, end)
		}
		slog.Info("write progress", slog.Int("written", end), slog.Int("total", len(coupons)))
	}

	return nil
}

// loadFiles decodes every file concurrently and merges the results in file
// order, so later definitions of a code replace earlier ones.
func loadFiles(ctx context.Context, files []string) ([]coupon.Coupon, error) {
	results := make([][]coupon.Coupon, len(files))

	g, ctx := errgroup.WithContext(ctx)
	for i, path := range files {
		g.Go(func() error {
			cs, err := readGzFile(ctx, path)
			if err != nil {
				return errors.Wrapf(err, "read %s", path)
			}
			slog.Info("file decoded", slog.String("file", filepath.Base(path)), slog.Int("coupons", len(cs)))
			results[i] = cs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	index := make(map[string]int)
	var merged []coupon.Coupon
	for _, cs := range results {
		for _, c := range cs {
			if i, ok := index[c.Code]; ok {
				merged[i] = c
				continue
			}
			index[c.Code] = len(merged)
			merged = append(merged, c)
		}
	}
	return merged, nil
}

func readGzFile(ctx context.Context, path string) ([]coupon.Coupon, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return nil, errors.Wrap(err, "create gzip reader")
	}
	defer func() { _ = gz.Close() }()

	return decodeCSV(ctx, gz)
}

// decodeCSV parses coupon rows and validates each definition.
func decodeCSV(ctx context.Context, r io.Reader) ([]coupon.Coupon, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var out []coupon.Coupon
	for line := 1; ; line++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", line)
		}
		if line == 1 && strings.EqualFold(strings.TrimSpace(rec[0]), "code") {
			continue
		}
		if len(rec) == 1 && strings.TrimSpace(rec[0]) == "" {
			continue
		}
		c, err := parseRecord(rec)
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", line)
		}
		out = append(out, c)
	}
}

func parseRecord(rec []string) (coupon.Coupon, error) {
	field := func(i int) string {
		if i < len(rec) {
			return strings.TrimSpace(rec[i])
		}
		return ""
	}
	if len(rec) < 3 {
		return coupon.Coupon{}, errors.Errorf("want at least 3 fields, got %d", len(rec))
	}

	c := coupon.Coupon{
		Code:      strings.ToUpper(field(0)),
		Type:      coupon.Type(strings.ToLower(field(1))),
		Active:    true,
		MinAmount: decimal.Zero,
	}
	var err error
	if c.Value, err = decimal.NewFromString(field(2)); err != nil {
		return c, errors.Wrap(err, "value")
	}
	if s := field(3); s != "" {
		if c.MinAmount, err = decimal.NewFromString(s); err != nil {
			return c, errors.Wrap(err, "min_amount")
		}
	}
	if c.ValidFrom, err = parseTime(field(4)); err != nil {
		return c, errors.Wrap(err, "valid_from")
	}
	if c.ValidTo, err = parseTime(field(5)); err != nil {
		return c, errors.Wrap(err, "valid_to")
	}
	if s := field(6); s != "" {
		if c.Active, err = strconv.ParseBool(s); err != nil {
			return c, errors.Wrap(err, "active")
		}
	}
	if err := c.Validate(); err != nil {
		return c, err
	}
	return c, nil
}

func parseTime(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, errors.Errorf("unrecognized time %q", s)
}
